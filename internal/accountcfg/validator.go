// Package accountcfg validates per-account configuration payloads before they
// reach the store.
package accountcfg

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"lingua.desk/lingod/internal/language"
)

//go:embed account_config.schema.json
var accountConfigSchemaJSON string

// Payload is the validated shape of an account configuration document.
type Payload struct {
	DefaultEngine     string `json:"default_engine,omitempty"`
	DefaultTargetLang string `json:"default_target_lang,omitempty"`
	DefaultStyle      string `json:"default_style,omitempty"`
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// ValidatePayload checks raw against the embedded schema plus semantic rules
// the schema cannot express, and returns the decoded payload.
func ValidatePayload(raw json.RawMessage) (*Payload, error) {
	value, err := decodeStrictJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("decode payload JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize payload JSON: %w", err)
	}

	var payload Payload
	if err := json.Unmarshal(normalized, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := validateSemantics(&payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource("account_config.schema.json", strings.NewReader(accountConfigSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("account_config.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}

	return value, nil
}

func validateSemantics(payload *Payload) error {
	if payload == nil {
		return fmt.Errorf("payload is nil")
	}

	targetLang := strings.TrimSpace(payload.DefaultTargetLang)
	if targetLang != "" {
		if targetLang == language.Auto || !language.IsValid(targetLang) {
			return fmt.Errorf("default_target_lang %q is not a valid language tag", payload.DefaultTargetLang)
		}
	}
	return nil
}
