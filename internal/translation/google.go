package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lingua.desk/lingod/internal/language"
	"lingua.desk/lingod/internal/sanitize"
)

const (
	googleProviderName   = "google"
	defaultGoogleBaseURL = "https://translate.googleapis.com/translate_a/single"
	googleTimeout        = 15 * time.Second
)

// GoogleProvider calls the free Google web translation endpoint (gtx client).
// It needs no credentials and reports the detected source language.
type GoogleProvider struct {
	baseURL string
	client  *http.Client
}

func NewGoogleProvider() *GoogleProvider {
	return NewGoogleProviderWithBaseURL(defaultGoogleBaseURL)
}

func NewGoogleProviderWithBaseURL(baseURL string) *GoogleProvider {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		trimmed = defaultGoogleBaseURL
	}
	return &GoogleProvider{
		baseURL: trimmed,
		client:  &http.Client{Timeout: googleTimeout},
	}
}

func (p *GoogleProvider) Name() string {
	return googleProviderName
}

func (p *GoogleProvider) IsAvailable() bool {
	return p != nil
}

func (p *GoogleProvider) ValidateConfig() error {
	if p == nil {
		return newError(KindConfigInvalid, googleProviderName, "provider is nil")
	}
	return nil
}

func (p *GoogleProvider) SupportedLanguages() []string {
	return SupportedTranslationLanguageCodes()
}

func (p *GoogleProvider) Translate(ctx context.Context, req Request) (*Response, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, newError(KindInvalidInput, googleProviderName, "text is required")
	}
	targetLang := language.NormalizeTag(req.TargetLang)
	if targetLang == "" {
		return nil, newError(KindInvalidInput, googleProviderName, "target language is required")
	}
	sourceLang := language.NormalizeTag(req.SourceLang)
	if sourceLang == "" {
		sourceLang = language.Auto
	}

	started := time.Now()
	translated, detected, err := p.fetch(ctx, text, sourceLang, targetLang)
	if err != nil {
		return nil, err
	}

	return &Response{
		Text:         translated,
		SourceLang:   detected,
		TargetLang:   targetLang,
		ProviderName: googleProviderName,
		LatencyMs:    time.Since(started).Milliseconds(),
	}, nil
}

// DetectLanguage runs a minimal translation and reads back the language the
// endpoint resolved for the input.
func (p *GoogleProvider) DetectLanguage(ctx context.Context, text string) (string, error) {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return "", newError(KindInvalidInput, googleProviderName, "text is required")
	}
	_, detected, err := p.fetch(ctx, sample, language.Auto, "en")
	if err != nil {
		return "", err
	}
	if detected == "" || detected == language.Auto {
		return "", newError(KindEmptyResult, googleProviderName, "no language detected")
	}
	return detected, nil
}

func (p *GoogleProvider) fetch(ctx context.Context, text, sourceLang, targetLang string) (string, string, error) {
	endpoint := fmt.Sprintf(
		"%s?client=gtx&sl=%s&tl=%s&dt=t&q=%s",
		p.baseURL,
		url.QueryEscape(googleLangParam(sourceLang)),
		url.QueryEscape(googleLangParam(targetLang)),
		url.QueryEscape(text),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", "", wrapError(KindNetwork, googleProviderName, err, "build request")
	}
	httpReq.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", "", classifyTransportError(googleProviderName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", "", wrapError(KindNetwork, googleProviderName, err, "read response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", "", newError(KindProvider, googleProviderName, "endpoint status %d", resp.StatusCode)
	}

	translated, detected, err := parseGoogleResponse(body)
	if err != nil {
		return "", "", err
	}
	return translated, detected, nil
}

// parseGoogleResponse extracts the translated text (index 0, sentence list)
// and the detected source language (index 2) from the gtx JSON array.
func parseGoogleResponse(body []byte) (string, string, error) {
	var raw []any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", "", wrapError(KindProvider, googleProviderName, err, "parse response")
	}
	if len(raw) == 0 {
		return "", "", newError(KindEmptyResult, googleProviderName, "empty response")
	}

	sentences, ok := raw[0].([]any)
	if !ok {
		return "", "", newError(KindProvider, googleProviderName, "unexpected response format")
	}

	var sb strings.Builder
	for _, s := range sentences {
		parts, ok := s.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if translated, ok := parts[0].(string); ok {
			sb.WriteString(translated)
		}
	}

	translated := strings.TrimSpace(sanitize.DecodeEntities(sb.String()))
	if translated == "" {
		return "", "", newError(KindEmptyResult, googleProviderName, "no translated text in response")
	}

	detected := ""
	if len(raw) > 2 {
		if lang, ok := raw[2].(string); ok {
			detected = language.NormalizeTag(lang)
		}
	}
	return translated, detected, nil
}

// googleLangParam maps normalized tags back to the endpoint's expected
// casing (zh-cn -> zh-CN).
func googleLangParam(tag string) string {
	if tag == language.Auto || tag == "" {
		return language.Auto
	}
	if dash := strings.IndexByte(tag, '-'); dash >= 0 {
		return tag[:dash] + "-" + strings.ToUpper(tag[dash+1:])
	}
	return tag
}
