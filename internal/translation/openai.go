package translation

import (
	"bytes"
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
	openAIProviderName = "openai"
	openAITimeout      = 30 * time.Second
)

// OpenAIProvider translates text through an OpenAI-compatible chat
// completions endpoint. The request style selects the system instruction and
// temperature sent to the model.
type OpenAIProvider struct {
	endpointURL string
	apiKey      string
	model       string
	client      *http.Client
}

// OpenAIConfig configures the LLM-backed provider.
type OpenAIConfig struct {
	Endpoint string
	APIKey   string
	Model    string
}

func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	return &OpenAIProvider{
		endpointURL: chatCompletionsURL(strings.TrimSpace(cfg.Endpoint)),
		apiKey:      strings.TrimSpace(cfg.APIKey),
		model:       strings.TrimSpace(cfg.Model),
		client:      &http.Client{Timeout: openAITimeout},
	}
}

func (p *OpenAIProvider) Name() string {
	return openAIProviderName
}

// ModelName returns the configured model identifier.
func (p *OpenAIProvider) ModelName() string {
	if p == nil {
		return ""
	}
	return p.model
}

func (p *OpenAIProvider) IsAvailable() bool {
	return p != nil && p.ValidateConfig() == nil
}

func (p *OpenAIProvider) ValidateConfig() error {
	if p == nil {
		return newError(KindConfigInvalid, openAIProviderName, "provider is nil")
	}
	if p.endpointURL == "" {
		return newError(KindConfigInvalid, openAIProviderName, "endpoint is not configured")
	}
	if p.model == "" {
		return newError(KindConfigInvalid, openAIProviderName, "model is not configured")
	}
	if p.apiKey == "" && !isLoopbackEndpoint(p.endpointURL) {
		return newError(KindConfigInvalid, openAIProviderName, "API key is required for remote endpoints")
	}
	return nil
}

func (p *OpenAIProvider) SupportedLanguages() []string {
	return SupportedTranslationLanguageCodes()
}

func (p *OpenAIProvider) Translate(ctx context.Context, req Request) (*Response, error) {
	if err := p.ValidateConfig(); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, newError(KindInvalidInput, openAIProviderName, "text is required")
	}
	targetLang := language.NormalizeTag(req.TargetLang)
	if targetLang == "" {
		return nil, newError(KindInvalidInput, openAIProviderName, "target language is required")
	}
	sourceLang := language.NormalizeTag(req.SourceLang)

	style := styleFor(req.Style)
	body, err := json.Marshal(chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: style.instruction},
			{Role: "user", Content: buildTranslatePrompt(text, sourceLang, targetLang)},
		},
		Temperature: style.temperature,
	})
	if err != nil {
		return nil, wrapError(KindProvider, openAIProviderName, err, "marshal request")
	}

	started := time.Now()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpointURL, bytes.NewReader(body))
	if err != nil {
		return nil, wrapError(KindNetwork, openAIProviderName, err, "build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(openAIProviderName, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, wrapError(KindNetwork, openAIProviderName, err, "read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errPayload chatErrorResponse
		if unmarshalErr := json.Unmarshal(respBody, &errPayload); unmarshalErr == nil {
			if msg := strings.TrimSpace(errPayload.Error.Message); msg != "" {
				return nil, newError(KindProvider, openAIProviderName, "endpoint status %d: %s", resp.StatusCode, msg)
			}
		}
		return nil, newError(KindProvider, openAIProviderName, "endpoint status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, wrapError(KindProvider, openAIProviderName, err, "decode response")
	}
	if len(parsed.Choices) == 0 {
		return nil, newError(KindEmptyResult, openAIProviderName, "response missing choices")
	}

	translated := strings.TrimSpace(sanitize.DecodeEntities(parsed.Choices[0].Message.Content))
	if translated == "" {
		return nil, newError(KindEmptyResult, openAIProviderName, "response was empty")
	}

	return &Response{
		Text:         translated,
		SourceLang:   sourceLang,
		TargetLang:   targetLang,
		ProviderName: openAIProviderName,
		LatencyMs:    time.Since(started).Milliseconds(),
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func buildTranslatePrompt(text, sourceLang, targetLang string) string {
	target := targetLanguageLabel(targetLang)
	if sourceLang == "" || sourceLang == language.Auto {
		return fmt.Sprintf("Translate the following text into %s:\n\n%s", target, text)
	}
	source := targetLanguageLabel(sourceLang)
	return fmt.Sprintf("Translate the following text from %s into %s:\n\n%s", source, target, text)
}

func chatCompletionsURL(endpoint string) string {
	if endpoint == "" {
		return ""
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}

	parsed, err := url.Parse(endpoint)
	if err != nil || strings.TrimSpace(parsed.Host) == "" {
		return ""
	}

	path := strings.TrimRight(parsed.Path, "/")
	switch {
	case strings.HasSuffix(path, "/chat/completions"):
		parsed.Path = path
	case strings.HasSuffix(path, "/v1"):
		parsed.Path = path + "/chat/completions"
	case path == "":
		parsed.Path = "/v1/chat/completions"
	default:
		parsed.Path = path + "/v1/chat/completions"
	}

	return parsed.String()
}

func isLoopbackEndpoint(endpoint string) bool {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return false
	}
	host := parsed.Hostname()
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}
