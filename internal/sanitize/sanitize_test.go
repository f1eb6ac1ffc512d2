package sanitize

import (
	"strings"
	"testing"
)

func TestCleanInputRejectsOversizeText(t *testing.T) {
	t.Parallel()

	if _, err := CleanInput(strings.Repeat("a", 51), 50); err == nil {
		t.Fatalf("expected oversize text to be rejected")
	}
	if _, err := CleanInput("   ", 50); err == nil {
		t.Fatalf("expected blank text to be rejected")
	}
	got, err := CleanInput(strings.Repeat("a", 50), 50)
	if err != nil {
		t.Fatalf("clean input: %v", err)
	}
	if len(got) != 50 {
		t.Fatalf("unexpected cleaned length: %d", len(got))
	}
}

func TestCleanInputStripsMarkup(t *testing.T) {
	t.Parallel()

	got, err := CleanInput(`Hello <script>alert(1)</script><b onclick="x()">world</b>`, 0)
	if err != nil {
		t.Fatalf("clean input: %v", err)
	}
	if strings.Contains(got, "<") || strings.Contains(got, "script") || strings.Contains(got, "onclick") {
		t.Fatalf("markup survived sanitization: %q", got)
	}
	if !strings.Contains(got, "Hello") || !strings.Contains(got, "world") {
		t.Fatalf("text content lost: %q", got)
	}
}

func TestCleanInputCollapsesWhitespace(t *testing.T) {
	t.Parallel()

	got, err := CleanInput("a \t  b\n\n\n\nc", 0)
	if err != nil {
		t.Fatalf("clean input: %v", err)
	}
	if got != "a b\n\nc" {
		t.Fatalf("unexpected whitespace normalization: %q", got)
	}
}

func TestCleanOutputEscapesMarkup(t *testing.T) {
	t.Parallel()

	got := CleanOutput(`<b>&"'`)
	if strings.ContainsAny(got, "<>\"'") {
		t.Fatalf("markup-significant characters survived: %q", got)
	}
}

func TestDecodeEntitiesIsIdempotent(t *testing.T) {
	t.Parallel()

	once := DecodeEntities("Tom &amp;amp; Jerry")
	twice := DecodeEntities(once)
	if once != twice {
		t.Fatalf("decode is not idempotent: %q vs %q", once, twice)
	}
	if DecodeEntities("a < b & c") != "a < b & c" {
		t.Fatalf("decoding plain text must be a no-op")
	}
	if got := DecodeEntities("&amp;lt;b&amp;gt;"); got != "<b>" {
		t.Fatalf("nested entities not resolved: %q", got)
	}
}

func TestLogMessageRedactsSecrets(t *testing.T) {
	t.Parallel()

	msg := "key sk-abcdefghijklmnopqrstuvwx failed for bob@example.com from 10.1.2.3 Bearer abc.def-ghi_jkl call +1 (555) 123-4567"
	got := LogMessage(msg)
	for _, leaked := range []string{"sk-abcdefghijklmnopqrstuvwx", "bob@example.com", "10.1.2.3", "abc.def-ghi_jkl", "555"} {
		if strings.Contains(got, leaked) {
			t.Fatalf("expected %q to be redacted, got %q", leaked, got)
		}
	}
}

func TestValidateLanguageCode(t *testing.T) {
	t.Parallel()

	for _, code := range []string{"auto", "en", "zh-CN"} {
		if !ValidateLanguageCode(code) {
			t.Fatalf("expected %q to validate", code)
		}
	}
	for _, code := range []string{"", "english", "en-USA"} {
		if ValidateLanguageCode(code) {
			t.Fatalf("expected %q to be rejected", code)
		}
	}
}
