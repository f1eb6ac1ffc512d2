package sanitize

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"lingua.desk/lingod/internal/language"
)

// DefaultMaxTextLength bounds translation input when the caller passes no limit.
const DefaultMaxTextLength = 5000

// maxDecodePasses bounds the entity decode fixed-point loop so adversarial
// nested encodings cannot spin it forever.
const maxDecodePasses = 3

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy

	spaceRunRe    = regexp.MustCompile(`[ \t]+`)
	newlineRunRe  = regexp.MustCompile(`\n{3,}`)
	apiKeyRe      = regexp.MustCompile(`(?i)\b(?:sk|pk|api|key|token)[-_][A-Za-z0-9_\-]{16,}\b`)
	bearerRe      = regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._\-]{8,}\b`)
	emailRe       = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phoneRe       = regexp.MustCompile(`\+?\d[\d\s\-()]{7,}\d`)
	ipv4Re        = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
	longSecretRe  = regexp.MustCompile(`\b[A-Za-z0-9+/=_\-]{40,}\b`)
)

// CleanInput validates and normalizes text before it reaches any provider.
// Markup is stripped down to text content, whitespace runs are collapsed.
func CleanInput(text string, maxLen int) (string, error) {
	if maxLen < 1 {
		maxLen = DefaultMaxTextLength
	}

	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return "", fmt.Errorf("text is empty")
	}
	if len([]rune(cleaned)) > maxLen {
		return "", fmt.Errorf("text exceeds maximum length of %d characters", maxLen)
	}

	if strings.ContainsAny(cleaned, "<>&") {
		// bluemonday strips tags and event-handler attributes but re-escapes
		// the surviving text, so decode once more to plain text.
		cleaned = DecodeEntities(stripPolicy().Sanitize(cleaned))
	}

	cleaned = spaceRunRe.ReplaceAllString(cleaned, " ")
	cleaned = newlineRunRe.ReplaceAllString(cleaned, "\n\n")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "", fmt.Errorf("text is empty after sanitization")
	}
	return cleaned, nil
}

// CleanOutput escapes markup-significant characters before translated text is
// handed back to a rendering surface.
func CleanOutput(text string) string {
	return html.EscapeString(text)
}

// DecodeEntities decodes HTML entities to a fixed point. Decoding
// already-decoded text is a no-op, and the pass count is bounded.
func DecodeEntities(text string) string {
	decoded := text
	for i := 0; i < maxDecodePasses; i++ {
		next := html.UnescapeString(decoded)
		if next == decoded {
			break
		}
		decoded = next
	}
	return decoded
}

// LogMessage redacts credential- and PII-looking fragments before a message
// is written to logs or telemetry.
func LogMessage(text string) string {
	redacted := bearerRe.ReplaceAllString(text, "[REDACTED]")
	redacted = apiKeyRe.ReplaceAllString(redacted, "[REDACTED]")
	redacted = longSecretRe.ReplaceAllString(redacted, "[REDACTED]")
	redacted = emailRe.ReplaceAllString(redacted, "[EMAIL]")
	redacted = ipv4Re.ReplaceAllString(redacted, "[IP]")
	redacted = phoneRe.ReplaceAllString(redacted, "[PHONE]")
	return redacted
}

// ValidateLanguageCode accepts "auto" or plain xx / xx-YY style tags.
func ValidateLanguageCode(code string) bool {
	return language.IsValid(code)
}

func stripPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}
