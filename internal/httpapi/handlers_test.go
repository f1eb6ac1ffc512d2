package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"lingua.desk/lingod/internal/cache"
	"lingua.desk/lingod/internal/stats"
	"lingua.desk/lingod/internal/translation"
)

type apiStubProvider struct {
	name string
	text string
	err  error
}

func (p *apiStubProvider) Translate(_ context.Context, req translation.Request) (*translation.Response, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &translation.Response{
		Text:         p.text,
		SourceLang:   req.SourceLang,
		TargetLang:   req.TargetLang,
		ProviderName: p.name,
		LatencyMs:    5,
	}, nil
}

func (p *apiStubProvider) Name() string                 { return p.name }
func (p *apiStubProvider) IsAvailable() bool            { return true }
func (p *apiStubProvider) ValidateConfig() error        { return nil }
func (p *apiStubProvider) SupportedLanguages() []string { return []string{"en", "de"} }

func newTestServer(t *testing.T, providers ...translation.Provider) *Server {
	t.Helper()

	registry := translation.NewRegistry("")
	for _, p := range providers {
		if err := registry.Register(p); err != nil {
			t.Fatalf("register provider: %v", err)
		}
	}

	logger := zerolog.Nop()
	store := cache.NewStore(nil, logger, cache.StoreOptions{})
	agg := stats.NewAggregator(0)
	manager := translation.NewManager(registry, store, nil, agg, nil, logger, translation.ManagerOptions{})

	return NewServer(manager, registry, store, agg, nil, nil, logger, Options{})
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.buildEcho().ServeHTTP(rec, req)
	return rec
}

func decodeJSend(t *testing.T, rec *httptest.ResponseRecorder) jsendResponse {
	t.Helper()
	var resp jsendResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (body=%s)", err, rec.Body.String())
	}
	return resp
}

func TestHandleTranslate(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &apiStubProvider{name: "google", text: "Hallo Welt"})
	rec := doRequest(t, s, http.MethodPost, "/api/v1/translate",
		`{"text":"Hello world","source_lang":"en","target_lang":"de"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d (body=%s)", rec.Code, rec.Body.String())
	}
	resp := decodeJSend(t, rec)
	if resp.Status != "success" {
		t.Fatalf("unexpected jsend status: %q", resp.Status)
	}
	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("unexpected data shape: %T", resp.Data)
	}
	if data["translated_text"] != "Hallo Welt" || data["engine_used"] != "google" {
		t.Fatalf("unexpected data: %v", data)
	}
	if data["cached"] != false {
		t.Fatalf("first request reported cached")
	}
}

func TestHandleTranslateValidation(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &apiStubProvider{name: "google", text: "x"})

	rec := doRequest(t, s, http.MethodPost, "/api/v1/translate", `{"text":"","target_lang":"de"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status for empty text: %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodPost, "/api/v1/translate",
		`{"text":"hi","target_lang":"de","engine":"missing"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status for unknown engine: %d", rec.Code)
	}
	resp := decodeJSend(t, rec)
	data, _ := resp.Data.(map[string]any)
	if data["kind"] != "engine_not_found" {
		t.Fatalf("error kind not surfaced: %v", resp.Data)
	}
}

func TestHandleTranslateMapsProviderFailure(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &apiStubProvider{
		name: "google",
		err: &translation.Error{
			Kind:     translation.KindConfigInvalid,
			Provider: "google",
			Message:  "endpoint is not configured",
		},
	})
	rec := doRequest(t, s, http.MethodPost, "/api/v1/translate",
		`{"text":"Hello","target_lang":"de"}`)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status: %d (body=%s)", rec.Code, rec.Body.String())
	}
	resp := decodeJSend(t, rec)
	data, _ := resp.Data.(map[string]any)
	if data["kind"] != "config_invalid" {
		t.Fatalf("error kind not surfaced: %v", resp.Data)
	}
}

func TestHandleDetect(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &apiStubProvider{name: "google", text: "x"})
	rec := doRequest(t, s, http.MethodPost, "/api/v1/detect", `{"text":"zzz qqq"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	resp := decodeJSend(t, rec)
	data, _ := resp.Data.(map[string]any)
	if data["language"] == "" {
		t.Fatalf("missing detected language: %v", resp.Data)
	}
}

func TestHandleEnginesAndLanguages(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &apiStubProvider{name: "google", text: "x"})

	rec := doRequest(t, s, http.MethodGet, "/api/v1/engines", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("engines status: %d", rec.Code)
	}
	resp := decodeJSend(t, rec)
	data, _ := resp.Data.(map[string]any)
	if data["default"] != "google" {
		t.Fatalf("unexpected default engine: %v", data["default"])
	}

	rec = doRequest(t, s, http.MethodGet, "/api/v1/languages", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("languages status: %d", rec.Code)
	}
	resp = decodeJSend(t, rec)
	data, _ = resp.Data.(map[string]any)
	items, _ := data["items"].([]any)
	if len(items) == 0 {
		t.Fatal("expected language options")
	}
}

func TestHandleStatsAndHealth(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &apiStubProvider{name: "google", text: "Hallo"})

	// Generate one success event so today's bucket is populated.
	rec := doRequest(t, s, http.MethodPost, "/api/v1/translate",
		`{"text":"Hello","target_lang":"de"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("translate status: %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/v1/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status: %d", rec.Code)
	}
	resp := decodeJSend(t, rec)
	data, _ := resp.Data.(map[string]any)
	today, _ := data["today"].(map[string]any)
	totals, _ := today["totals"].(map[string]any)
	if totals["successes"] != float64(1) {
		t.Fatalf("unexpected totals: %v", totals)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/v1/stats?from=bogus", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad from filter status: %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health status: %d", rec.Code)
	}
}

func TestHandleClearHistoryResetsStats(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &apiStubProvider{name: "google", text: "Hallo"})
	if rec := doRequest(t, s, http.MethodPost, "/api/v1/translate",
		`{"text":"Hello","target_lang":"de"}`); rec.Code != http.StatusOK {
		t.Fatalf("translate status: %d", rec.Code)
	}

	if rec := doRequest(t, s, http.MethodDelete, "/api/v1/history", ""); rec.Code != http.StatusOK {
		t.Fatalf("clear history status: %d", rec.Code)
	}

	if got := s.agg.Today().Totals.Requests; got != 0 {
		t.Fatalf("stats were not reset: %d requests", got)
	}
	if got := s.store.Stats().MemoryEntries; got != 0 {
		t.Fatalf("cache was not cleared: %d entries", got)
	}
}

func TestStatusForKind(t *testing.T) {
	t.Parallel()

	cases := map[translation.Kind]int{
		translation.KindInvalidInput:      http.StatusBadRequest,
		translation.KindEngineNotFound:    http.StatusNotFound,
		translation.KindEngineUnavailable: http.StatusServiceUnavailable,
		translation.KindConfigInvalid:     http.StatusServiceUnavailable,
		translation.KindQueueFull:         http.StatusTooManyRequests,
		translation.KindTimeout:           http.StatusGatewayTimeout,
		translation.KindNetwork:           http.StatusBadGateway,
		translation.KindProvider:          http.StatusBadGateway,
		translation.KindEmptyResult:       http.StatusBadGateway,
	}
	for kind, want := range cases {
		if got := statusForKind(kind); got != want {
			t.Fatalf("statusForKind(%s): got %d want %d", kind, got, want)
		}
	}
}
