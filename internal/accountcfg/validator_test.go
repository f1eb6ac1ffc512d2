package accountcfg

import (
	"encoding/json"
	"testing"
)

func TestValidatePayloadAccepts(t *testing.T) {
	t.Parallel()

	payload, err := ValidatePayload(json.RawMessage(
		`{"default_engine":"openai","default_target_lang":"de","default_style":"formal"}`,
	))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if payload.DefaultEngine != "openai" || payload.DefaultTargetLang != "de" || payload.DefaultStyle != "formal" {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	partial, err := ValidatePayload(json.RawMessage(`{"default_target_lang":"pt-BR"}`))
	if err != nil {
		t.Fatalf("validate partial: %v", err)
	}
	if partial.DefaultEngine != "" {
		t.Fatalf("unexpected engine default: %q", partial.DefaultEngine)
	}
}

func TestValidatePayloadRejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ``},
		{"not json", `{default_engine: google}`},
		{"trailing content", `{"default_engine":"google"} {}`},
		{"unknown field", `{"engine":"google"}`},
		{"engine not a string", `{"default_engine":7}`},
		{"uppercase engine", `{"default_engine":"Google"}`},
		{"unknown style", `{"default_style":"poetic"}`},
		{"auto target", `{"default_target_lang":"auto"}`},
		{"bad target tag", `{"default_target_lang":"en-US-foo"}`},
	}
	for _, tc := range cases {
		if _, err := ValidatePayload(json.RawMessage(tc.raw)); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}
