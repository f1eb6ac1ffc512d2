package translation

import (
	"sort"
	"strings"

	"lingua.desk/lingod/internal/language"
)

type LanguageOption struct {
	Code   string `json:"code"`
	Label  string `json:"label"`
	Native string `json:"native,omitempty"`
}

type languageLabel struct {
	english string
	native  string
}

var translationLanguageLabels = map[string]languageLabel{
	"ar":    {english: "Arabic", native: "العربية"},
	"cs":    {english: "Czech", native: "Čeština"},
	"da":    {english: "Danish", native: "Dansk"},
	"de":    {english: "German", native: "Deutsch"},
	"el":    {english: "Greek", native: "Ελληνικά"},
	"en":    {english: "English", native: "English"},
	"es":    {english: "Spanish", native: "Español"},
	"fi":    {english: "Finnish", native: "Suomi"},
	"fr":    {english: "French", native: "Français"},
	"he":    {english: "Hebrew", native: "עברית"},
	"hi":    {english: "Hindi", native: "हिन्दी"},
	"hu":    {english: "Hungarian", native: "Magyar"},
	"id":    {english: "Indonesian", native: "Bahasa Indonesia"},
	"it":    {english: "Italian", native: "Italiano"},
	"ja":    {english: "Japanese", native: "日本語"},
	"ko":    {english: "Korean", native: "한국어"},
	"nl":    {english: "Dutch", native: "Nederlands"},
	"no":    {english: "Norwegian", native: "Norsk"},
	"pl":    {english: "Polish", native: "Polski"},
	"pt":    {english: "Portuguese", native: "Português"},
	"pt-br": {english: "Portuguese (Brazil)", native: "Português (Brasil)"},
	"ro":    {english: "Romanian", native: "Română"},
	"ru":    {english: "Russian", native: "Русский"},
	"sv":    {english: "Swedish", native: "Svenska"},
	"th":    {english: "Thai", native: "ไทย"},
	"tr":    {english: "Turkish", native: "Türkçe"},
	"uk":    {english: "Ukrainian", native: "Українська"},
	"vi":    {english: "Vietnamese", native: "Tiếng Việt"},
	"zh":    {english: "Chinese", native: "中文"},
	"zh-cn": {english: "Chinese (Simplified)", native: "简体中文"},
	"zh-tw": {english: "Chinese (Traditional)", native: "繁體中文"},
}

func SupportedTranslationLanguageCodes() []string {
	codes := make([]string, 0, len(translationLanguageLabels))
	for code := range translationLanguageLabels {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// TranslationLanguageOptions merges the built-in catalog with whatever the
// registered providers claim to support.
func TranslationLanguageOptions(registry *Registry) []LanguageOption {
	supported := map[string]struct{}{}

	for code := range translationLanguageLabels {
		normalized := language.NormalizeTag(code)
		if normalized == "" {
			continue
		}
		supported[normalized] = struct{}{}
	}

	if registry != nil {
		for _, provider := range registry.All() {
			for _, code := range provider.SupportedLanguages() {
				normalized := language.NormalizeTag(code)
				if normalized == "" {
					continue
				}
				supported[normalized] = struct{}{}
			}
		}
	}

	codes := make([]string, 0, len(supported))
	for code := range supported {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	options := make([]LanguageOption, 0, len(codes))
	for _, code := range codes {
		labels, hasLabels := translationLanguageLabels[code]
		if hasLabels {
			options = append(options, LanguageOption{
				Code:   code,
				Label:  labels.english,
				Native: labels.native,
			})
			continue
		}

		options = append(options, LanguageOption{
			Code:  code,
			Label: strings.ToUpper(code),
		})
	}

	return options
}

// targetLanguageLabel renders a tag as its English name for LLM prompts.
// Unknown tags pass through unchanged, which models handle well enough.
func targetLanguageLabel(tag string) string {
	if labels, ok := translationLanguageLabels[tag]; ok {
		return labels.english
	}
	return tag
}
