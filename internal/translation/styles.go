package translation

import "strings"

// DefaultStyle is applied when a request names no style or an unknown one.
const DefaultStyle = "general"

// styleTemplate pairs a system instruction with a creativity setting for
// LLM-backed providers.
type styleTemplate struct {
	instruction string
	temperature float64
}

var styleTemplates = map[string]styleTemplate{
	"general": {
		instruction: "You are a professional translator. Translate the user's text accurately, preserving meaning and tone. Output only the translation, no explanations.",
		temperature: 0.3,
	},
	"formal": {
		instruction: "You are a professional translator. Translate the user's text into formal, polite register suitable for business correspondence. Output only the translation.",
		temperature: 0.2,
	},
	"casual": {
		instruction: "You are a professional translator. Translate the user's text into relaxed, conversational language as used between friends. Output only the translation.",
		temperature: 0.5,
	},
	"concise": {
		instruction: "You are a professional translator. Translate the user's text as briefly as possible while keeping the meaning intact. Output only the translation.",
		temperature: 0.2,
	},
	"technical": {
		instruction: "You are a professional translator specialized in technical documentation. Translate precisely, keeping terminology, code fragments and identifiers unchanged. Output only the translation.",
		temperature: 0.1,
	},
}

// styleFor resolves a style name, falling back to the general template
// deterministically for unknown names.
func styleFor(name string) styleTemplate {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if tpl, ok := styleTemplates[normalized]; ok {
		return tpl
	}
	return styleTemplates[DefaultStyle]
}

// StyleNames lists the supported styles for the API surface.
func StyleNames() []string {
	return []string{"general", "formal", "casual", "concise", "technical"}
}
