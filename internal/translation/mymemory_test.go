package translation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseMyMemoryResponse(t *testing.T) {
	t.Parallel()

	body := []byte(`{"responseData":{"translatedText":"Hola mundo"},"responseStatus":200}`)
	translated, err := parseMyMemoryResponse(body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if translated != "Hola mundo" {
		t.Fatalf("unexpected text: %q", translated)
	}
}

func TestParseMyMemoryResponseErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
		want Kind
	}{
		{"quota exceeded", `{"responseData":{"translatedText":""},"responseStatus":429}`, KindProvider},
		{"empty translation", `{"responseData":{"translatedText":"  "},"responseStatus":200}`, KindEmptyResult},
		{"not json", `<html>rate limited</html>`, KindProvider},
	}
	for _, tc := range cases {
		_, err := parseMyMemoryResponse([]byte(tc.body))
		if KindOf(err) != tc.want {
			t.Fatalf("%s: got kind %v (err=%v)", tc.name, KindOf(err), err)
		}
	}
}

func TestMyMemoryRejectsAutoSource(t *testing.T) {
	t.Parallel()

	provider := NewMyMemoryProvider("")
	if !provider.RequiresSourceLang() {
		t.Fatal("mymemory must require a concrete source language")
	}

	_, err := provider.Translate(context.Background(), Request{
		Text:       "Hello",
		SourceLang: "auto",
		TargetLang: "es",
	})
	if KindOf(err) != KindInvalidInput {
		t.Fatalf("unexpected error kind: %v", err)
	}
}

func TestMyMemoryTranslateAgainstStubServer(t *testing.T) {
	t.Parallel()

	var gotLangpair, gotEmail string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLangpair = r.URL.Query().Get("langpair")
		gotEmail = r.URL.Query().Get("de")
		w.Write([]byte(`{"responseData":{"translatedText":"你好"},"responseStatus":200}`))
	}))
	defer server.Close()

	provider := NewMyMemoryProviderWithBaseURL(server.URL, "ops@example.com")
	resp, err := provider.Translate(context.Background(), Request{
		Text:       "Hello",
		SourceLang: "en",
		TargetLang: "zh",
	})
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if resp.Text != "你好" || resp.ProviderName != "mymemory" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if gotLangpair != "en|zh-CN" {
		t.Fatalf("unexpected langpair: %q", gotLangpair)
	}
	if gotEmail != "ops@example.com" {
		t.Fatalf("contact email not forwarded: %q", gotEmail)
	}
}
