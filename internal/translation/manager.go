package translation

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"lingua.desk/lingod/internal/cache"
	"lingua.desk/lingod/internal/coordinator"
	"lingua.desk/lingod/internal/langdetect"
	"lingua.desk/lingod/internal/language"
	"lingua.desk/lingod/internal/sanitize"
	"lingua.desk/lingod/internal/stats"
)

// DefaultMaxAttempts bounds the retry loop per translation request.
const DefaultMaxAttempts = 3

// EngineInfo describes a registered provider for the API and CLI surfaces.
type EngineInfo struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Default   bool   `json:"default"`
	Model     string `json:"model,omitempty"`
}

// Manager orchestrates translation requests: input sanitization, engine
// resolution, cache lookups, deduplicated execution with retry and a single
// provider fallback, and lifecycle stats events.
type Manager struct {
	registry *Registry
	cache    *cache.Store
	coord    *coordinator.Coordinator
	recorder stats.Recorder
	defaults DefaultsSource
	logger   zerolog.Logger

	maxTextLength int
	maxAttempts   int

	// backoff and offlineDetect are swapped out by tests.
	backoff       func(attempt int) time.Duration
	offlineDetect func(text string) string
}

// ManagerOptions tunes the Manager. Zero values fall back to defaults.
type ManagerOptions struct {
	MaxTextLength int
	MaxAttempts   int
}

func NewManager(
	registry *Registry,
	store *cache.Store,
	coord *coordinator.Coordinator,
	recorder stats.Recorder,
	defaults DefaultsSource,
	logger zerolog.Logger,
	opts ManagerOptions,
) *Manager {
	maxTextLength := opts.MaxTextLength
	if maxTextLength < 1 {
		maxTextLength = sanitize.DefaultMaxTextLength
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}

	return &Manager{
		registry:      registry,
		cache:         store,
		coord:         coord,
		recorder:      recorder,
		defaults:      defaults,
		logger:        logger,
		maxTextLength: maxTextLength,
		maxAttempts:   maxAttempts,
		backoff:       exponentialBackoff,
		offlineDetect: langdetect.DetectISO6391,
	}
}

func (m *Manager) DefaultEngine() string {
	if m == nil || m.registry == nil {
		return ""
	}
	return m.registry.DefaultProvider()
}

// Engines lists every registered provider with its availability.
func (m *Manager) Engines() []EngineInfo {
	if m == nil || m.registry == nil {
		return nil
	}

	defaultName := m.registry.DefaultProvider()
	providers := m.registry.All()
	out := make([]EngineInfo, 0, len(providers))
	for _, provider := range providers {
		info := EngineInfo{
			Name:      provider.Name(),
			Available: provider.IsAvailable(),
			Default:   provider.Name() == defaultName,
		}
		if named, ok := provider.(modelNameProvider); ok {
			info.Model = strings.TrimSpace(named.ModelName())
		}
		out = append(out, info)
	}
	return out
}

// Translate runs one request end to end. Identical concurrent requests share
// a single provider call; repeated requests are answered from the cache.
func (m *Manager) Translate(ctx context.Context, req Request) (*Result, error) {
	if m == nil || m.registry == nil {
		return nil, newError(KindConfigInvalid, "", "translation manager is not initialized")
	}

	req = m.applyDefaults(ctx, req)

	text, err := sanitize.CleanInput(req.Text, m.maxTextLength)
	if err != nil {
		return nil, wrapError(KindInvalidInput, "", err, "invalid text")
	}
	req.Text = text

	sourceLang := language.NormalizeTag(req.SourceLang)
	if sourceLang == "" {
		sourceLang = language.Auto
	}
	if !language.IsValid(sourceLang) {
		return nil, newError(KindInvalidInput, "", "invalid source language %q", req.SourceLang)
	}
	targetLang := language.NormalizeTag(req.TargetLang)
	if targetLang == "" || targetLang == language.Auto || !language.IsValid(targetLang) {
		return nil, newError(KindInvalidInput, "", "invalid target language %q", req.TargetLang)
	}
	req.SourceLang = sourceLang
	req.TargetLang = targetLang

	provider, err := m.registry.Provider(req.Engine)
	if err != nil {
		return nil, err
	}
	if !provider.IsAvailable() {
		cause := provider.ValidateConfig()
		return nil, wrapError(KindEngineUnavailable, provider.Name(), cause, "engine is not available")
	}
	req.Engine = provider.Name()

	key := cache.Key(req.Text, req.SourceLang, req.TargetLang, req.Engine, req.AccountID)
	if m.cache != nil {
		if rec, ok := m.cache.Get(ctx, key); ok {
			m.record(stats.Event{Kind: stats.EventCacheHit, Provider: rec.Engine})
			return &Result{
				TranslatedText: rec.TranslatedText,
				DetectedLang:   rec.DetectedLang,
				EngineUsed:     rec.Engine,
				Cached:         true,
			}, nil
		}
	}

	val, err := m.execute(ctx, key, func(workCtx context.Context) (any, error) {
		return m.run(workCtx, req, provider, key)
	})
	if err != nil {
		if errors.Is(err, coordinator.ErrQueueFull) {
			return nil, wrapError(KindQueueFull, req.Engine, err, "too many concurrent translations")
		}
		return nil, err
	}

	result, ok := val.(*Result)
	if !ok {
		return nil, newError(KindProvider, req.Engine, "unexpected execution result")
	}
	return result, nil
}

// DetectLanguage tries each registered adapter that can detect languages, in
// registration order, then the offline detector. Undetectable text resolves
// to "auto".
func (m *Manager) DetectLanguage(ctx context.Context, text string) (string, error) {
	sample, err := sanitize.CleanInput(text, m.maxTextLength)
	if err != nil {
		return "", wrapError(KindInvalidInput, "", err, "invalid text")
	}

	if m.registry != nil {
		for _, provider := range m.registry.All() {
			detector, ok := provider.(LanguageDetector)
			if !ok || !provider.IsAvailable() {
				continue
			}
			detected, detectErr := detector.DetectLanguage(ctx, sample)
			if detectErr != nil {
				m.logger.Debug().
					Err(detectErr).
					Str("provider", provider.Name()).
					Msg("provider language detection failed")
				continue
			}
			if tag := language.NormalizeTag(detected); tag != "" && tag != language.Auto {
				return tag, nil
			}
		}
	}

	if m.offlineDetect != nil {
		if code := m.offlineDetect(sample); code != "" {
			return code, nil
		}
	}
	return language.Auto, nil
}

// run is the uncached execution path: the retry loop with a single fallback
// switch. It runs inside the coordinator, detached from caller cancellation.
func (m *Manager) run(ctx context.Context, req Request, primary Provider, key string) (*Result, error) {
	active := primary
	switched := false

	var lastErr error
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		result, err := m.attempt(ctx, active, req, key)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !Retryable(err) {
			break
		}

		m.logger.Warn().
			Str("provider", active.Name()).
			Int("attempt", attempt).
			Msg(sanitize.LogMessage("translation attempt failed: " + err.Error()))

		// The fallback switch happens exactly once, after the first failure.
		// Remaining attempts stay on the replacement provider.
		if !switched {
			switched = true
			if fallbacks := m.registry.FallbackFor(active.Name()); len(fallbacks) > 0 {
				active = fallbacks[0]
				m.logger.Info().
					Str("from", primary.Name()).
					Str("to", active.Name()).
					Msg("switching translation provider")
			}
		}

		if attempt == m.maxAttempts {
			break
		}
		if sleepErr := m.sleep(ctx, attempt); sleepErr != nil {
			lastErr = sleepErr
			break
		}
	}

	m.record(stats.Event{Kind: stats.EventFailure, Provider: active.Name()})
	return nil, lastErr
}

// attempt runs one provider call and, on success, sanitizes and caches the
// result under the engine that produced it.
func (m *Manager) attempt(ctx context.Context, provider Provider, req Request, key string) (*Result, error) {
	attemptReq := req

	if attemptReq.SourceLang == language.Auto && requiresSourceLang(provider) {
		detected, err := m.DetectLanguage(ctx, attemptReq.Text)
		if err != nil {
			return nil, err
		}
		if detected == language.Auto {
			return nil, newError(KindInvalidInput, provider.Name(),
				"engine needs a source language and detection was inconclusive")
		}
		attemptReq.SourceLang = detected
	}

	resp, err := provider.Translate(ctx, attemptReq)
	if err != nil {
		return nil, err
	}

	translated := sanitize.CleanOutput(resp.Text)
	if strings.TrimSpace(translated) == "" {
		return nil, newError(KindEmptyResult, provider.Name(), "provider returned empty text")
	}

	detected := language.NormalizeTag(resp.SourceLang)
	if detected == "" || detected == language.Auto {
		detected = attemptReq.SourceLang
	}

	engineUsed := strings.TrimSpace(resp.ProviderName)
	if engineUsed == "" {
		engineUsed = provider.Name()
	}

	// Fallback may change the engine; the record has to live under the key
	// of the provider that actually produced it.
	storeKey := key
	if engineUsed != req.Engine {
		storeKey = cache.Key(req.Text, req.SourceLang, req.TargetLang, engineUsed, req.AccountID)
	}

	if m.cache != nil {
		m.cache.Set(ctx, &cache.Record{
			Key:            storeKey,
			AccountID:      req.AccountID,
			TranslatedText: translated,
			SourceLang:     req.SourceLang,
			TargetLang:     req.TargetLang,
			Engine:         engineUsed,
			DetectedLang:   detected,
		})
	}

	m.record(stats.Event{
		Kind:       stats.EventSuccess,
		Provider:   engineUsed,
		Characters: utf8.RuneCountInString(req.Text),
		Latency:    time.Duration(resp.LatencyMs) * time.Millisecond,
	})

	return &Result{
		TranslatedText: translated,
		DetectedLang:   detected,
		EngineUsed:     engineUsed,
		Cached:         false,
		ResponseTimeMs: resp.LatencyMs,
	}, nil
}

func (m *Manager) execute(ctx context.Context, key string, work func(context.Context) (any, error)) (any, error) {
	if m.coord == nil {
		return work(ctx)
	}
	return m.coord.Execute(ctx, key, work)
}

// applyDefaults fills missing request fields from the account's stored
// configuration. Lookup failures fall back to the request as-is.
func (m *Manager) applyDefaults(ctx context.Context, req Request) Request {
	if m.defaults == nil || strings.TrimSpace(req.AccountID) == "" {
		return req
	}

	defaults, err := m.defaults.Defaults(ctx, req.AccountID)
	if err != nil {
		m.logger.Debug().Err(err).Msg("account defaults lookup failed")
		return req
	}

	if strings.TrimSpace(req.Engine) == "" {
		req.Engine = defaults.Engine
	}
	if strings.TrimSpace(req.TargetLang) == "" {
		req.TargetLang = defaults.TargetLang
	}
	if strings.TrimSpace(req.Style) == "" {
		req.Style = defaults.Style
	}
	return req
}

func (m *Manager) sleep(ctx context.Context, attempt int) error {
	delay := m.backoff(attempt)
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return wrapError(KindTimeout, "", ctx.Err(), "retry wait interrupted")
	}
}

func (m *Manager) record(ev stats.Event) {
	if m.recorder == nil {
		return
	}
	m.recorder.Record(ev)
}

func requiresSourceLang(provider Provider) bool {
	p, ok := provider.(sourceLangRequired)
	return ok && p.RequiresSourceLang()
}

func exponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(1<<attempt) * time.Second
}
