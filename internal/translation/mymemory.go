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
	myMemoryProviderName   = "mymemory"
	defaultMyMemoryBaseURL = "https://api.mymemory.translated.net/get"
	myMemoryTimeout        = 10 * time.Second
)

// myMemoryLangMap maps short language codes to the langpair codes MyMemory
// expects.
var myMemoryLangMap = map[string]string{
	"zh": "zh-CN", "zh-cn": "zh-CN", "zh-tw": "zh-TW",
	"pt-br": "pt-BR",
}

// MyMemoryProvider calls the MyMemory free translation API. An optional
// contact email raises the daily quota. The langpair parameter needs a
// concrete source language, so "auto" requests are resolved by the Manager
// before they get here.
type MyMemoryProvider struct {
	baseURL string
	email   string
	client  *http.Client
}

func NewMyMemoryProvider(email string) *MyMemoryProvider {
	return NewMyMemoryProviderWithBaseURL(defaultMyMemoryBaseURL, email)
}

func NewMyMemoryProviderWithBaseURL(baseURL, email string) *MyMemoryProvider {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		trimmed = defaultMyMemoryBaseURL
	}
	return &MyMemoryProvider{
		baseURL: trimmed,
		email:   strings.TrimSpace(email),
		client:  &http.Client{Timeout: myMemoryTimeout},
	}
}

func (p *MyMemoryProvider) Name() string {
	return myMemoryProviderName
}

func (p *MyMemoryProvider) IsAvailable() bool {
	return p != nil
}

func (p *MyMemoryProvider) ValidateConfig() error {
	if p == nil {
		return newError(KindConfigInvalid, myMemoryProviderName, "provider is nil")
	}
	return nil
}

func (p *MyMemoryProvider) SupportedLanguages() []string {
	return SupportedTranslationLanguageCodes()
}

func (p *MyMemoryProvider) RequiresSourceLang() bool {
	return true
}

func (p *MyMemoryProvider) Translate(ctx context.Context, req Request) (*Response, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, newError(KindInvalidInput, myMemoryProviderName, "text is required")
	}
	sourceLang := language.NormalizeTag(req.SourceLang)
	targetLang := language.NormalizeTag(req.TargetLang)
	if sourceLang == "" || sourceLang == language.Auto {
		return nil, newError(KindInvalidInput, myMemoryProviderName, "source language is required")
	}
	if targetLang == "" {
		return nil, newError(KindInvalidInput, myMemoryProviderName, "target language is required")
	}

	endpoint := fmt.Sprintf(
		"%s?q=%s&langpair=%s|%s",
		p.baseURL,
		url.QueryEscape(text),
		url.QueryEscape(myMemoryLangParam(sourceLang)),
		url.QueryEscape(myMemoryLangParam(targetLang)),
	)
	if p.email != "" {
		endpoint += "&de=" + url.QueryEscape(p.email)
	}

	started := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, wrapError(KindNetwork, myMemoryProviderName, err, "build request")
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(myMemoryProviderName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, wrapError(KindNetwork, myMemoryProviderName, err, "read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newError(KindProvider, myMemoryProviderName, "endpoint status %d", resp.StatusCode)
	}

	translated, err := parseMyMemoryResponse(body)
	if err != nil {
		return nil, err
	}

	return &Response{
		Text:         translated,
		SourceLang:   sourceLang,
		TargetLang:   targetLang,
		ProviderName: myMemoryProviderName,
		LatencyMs:    time.Since(started).Milliseconds(),
	}, nil
}

// parseMyMemoryResponse extracts translated text from the MyMemory JSON:
// {"responseData":{"translatedText":"..."},"responseStatus":200}
func parseMyMemoryResponse(body []byte) (string, error) {
	var resp struct {
		ResponseData struct {
			TranslatedText string `json:"translatedText"`
		} `json:"responseData"`
		ResponseStatus int `json:"responseStatus"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", wrapError(KindProvider, myMemoryProviderName, err, "parse response")
	}
	if resp.ResponseStatus != http.StatusOK {
		return "", newError(KindProvider, myMemoryProviderName, "response status %d", resp.ResponseStatus)
	}

	translated := strings.TrimSpace(sanitize.DecodeEntities(resp.ResponseData.TranslatedText))
	if translated == "" {
		return "", newError(KindEmptyResult, myMemoryProviderName, "empty translation")
	}
	return translated, nil
}

func myMemoryLangParam(tag string) string {
	if mapped, ok := myMemoryLangMap[tag]; ok {
		return mapped
	}
	return tag
}
