package translation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestParseGoogleResponse(t *testing.T) {
	t.Parallel()

	body := []byte(`[[["Hallo ","Hello ",null,null,10],["Welt","world",null,null,10]],null,"en"]`)
	translated, detected, err := parseGoogleResponse(body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if translated != "Hallo Welt" {
		t.Fatalf("unexpected text: %q", translated)
	}
	if detected != "en" {
		t.Fatalf("unexpected detected language: %q", detected)
	}
}

func TestParseGoogleResponseDecodesEntities(t *testing.T) {
	t.Parallel()

	body := []byte(`[[["Fish &amp; Chips","Fish &amp; Chips"]],null,"en"]`)
	translated, _, err := parseGoogleResponse(body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if translated != "Fish & Chips" {
		t.Fatalf("entities were not decoded: %q", translated)
	}
}

func TestParseGoogleResponseRejectsEmpty(t *testing.T) {
	t.Parallel()

	for _, body := range []string{`[]`, `[[]]`, `[[["",""]],null,"en"]`, `not json`} {
		if _, _, err := parseGoogleResponse([]byte(body)); err == nil {
			t.Fatalf("expected error for body %q", body)
		}
	}
}

func TestGoogleTranslateAgainstStubServer(t *testing.T) {
	t.Parallel()

	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[[["Bonjour le monde","Hello world"]],null,"en"]`))
	}))
	defer server.Close()

	provider := NewGoogleProviderWithBaseURL(server.URL)
	resp, err := provider.Translate(context.Background(), Request{
		Text:       "Hello world",
		TargetLang: "fr",
	})
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if resp.Text != "Bonjour le monde" {
		t.Fatalf("unexpected text: %q", resp.Text)
	}
	if resp.SourceLang != "en" {
		t.Fatalf("detected language not propagated: %q", resp.SourceLang)
	}
	if resp.ProviderName != "google" {
		t.Fatalf("unexpected provider name: %q", resp.ProviderName)
	}

	query, err := url.ParseQuery(gotQuery)
	if err != nil {
		t.Fatalf("parse query: %v", err)
	}
	if query.Get("sl") != "auto" || query.Get("tl") != "fr" || query.Get("q") != "Hello world" {
		t.Fatalf("unexpected request query: %q", gotQuery)
	}
}

func TestGoogleDetectLanguage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[["Hello","Bonjour"]],null,"fr"]`))
	}))
	defer server.Close()

	provider := NewGoogleProviderWithBaseURL(server.URL)
	detected, err := provider.DetectLanguage(context.Background(), "Bonjour tout le monde")
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if detected != "fr" {
		t.Fatalf("unexpected detection: %q", detected)
	}
}

func TestGoogleLangParam(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":      "auto",
		"auto":  "auto",
		"en":    "en",
		"zh-cn": "zh-CN",
		"pt-br": "pt-BR",
	}
	for in, want := range cases {
		if got := googleLangParam(in); got != want {
			t.Fatalf("googleLangParam(%q): got %q want %q", in, got, want)
		}
	}
}
