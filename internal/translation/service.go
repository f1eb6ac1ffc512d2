package translation

import "context"

// Request describes one translation attempt. Engine is resolved by the
// Manager; providers receive the request with languages already normalized.
type Request struct {
	Text       string
	SourceLang string // ISO 639-1 style tag, or "auto"
	TargetLang string
	Engine     string
	Style      string // LLM-backed providers only; empty means "general"
	AccountID  string // cache/stats isolation scope, optional
}

// Response contains translated text and provider metadata.
type Response struct {
	Text         string
	SourceLang   string // resolved source; providers that detect fill this in
	TargetLang   string
	ProviderName string
	LatencyMs    int64
}

// Result is what the Manager hands back to callers.
type Result struct {
	TranslatedText string `json:"translated_text"`
	DetectedLang   string `json:"detected_lang"`
	EngineUsed     string `json:"engine_used"`
	Cached         bool   `json:"cached"`
	ResponseTimeMs int64  `json:"response_time_ms,omitempty"`
}

// Provider translates free-form text against one external service.
type Provider interface {
	Translate(ctx context.Context, req Request) (*Response, error)
	Name() string
	// IsAvailable reports whether the provider is usable right now
	// (credentials present, endpoint configured).
	IsAvailable() bool
	// ValidateConfig surfaces why a provider is unusable.
	ValidateConfig() error
	SupportedLanguages() []string
}

// LanguageDetector is an optional provider capability.
type LanguageDetector interface {
	DetectLanguage(ctx context.Context, text string) (string, error)
}

// sourceLangRequired marks providers that cannot accept "auto" as the
// source language; the Manager resolves the language before calling them.
type sourceLangRequired interface {
	RequiresSourceLang() bool
}

type modelNameProvider interface {
	ModelName() string
}

// Defaults are per-account fallbacks applied to incomplete requests.
type Defaults struct {
	Engine     string
	TargetLang string
	Style      string
}

// DefaultsSource resolves per-account defaults; implementations sit on the
// configuration store.
type DefaultsSource interface {
	Defaults(ctx context.Context, accountID string) (Defaults, error)
}
