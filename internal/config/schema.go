package config

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

// ErrSchemaViolation indicates a config document that does not match the schema.
var ErrSchemaViolation = errors.New("config does not match schema")

// Schema returns the embedded JSON schema of the config file.
func Schema() []byte {
	out := make([]byte, len(schemaJSON))
	copy(out, schemaJSON)

	return out
}

// Violation is one schema error of a config document.
type Violation struct {
	Field       string
	Description string
}

// CheckDocument decodes a raw YAML (or JSON) config document and lists its
// schema violations. An empty document has none.
func CheckDocument(data []byte) ([]Violation, error) {
	var doc any

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if doc == nil {
		return nil, nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return nil, fmt.Errorf("schema validation: %w", err)
	}

	violations := make([]Violation, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		violations = append(violations, Violation{Field: verr.Field(), Description: verr.Description()})
	}

	return violations, nil
}

// ValidateDocument checks a raw config document against the embedded schema.
// All violations are reported in one error.
func ValidateDocument(data []byte) error {
	violations, err := CheckDocument(data)
	if err != nil {
		return err
	}

	if len(violations) == 0 {
		return nil
	}

	problems := make([]string, 0, len(violations))
	for _, v := range violations {
		problems = append(problems, v.Field+": "+v.Description)
	}

	return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(problems, "; "))
}
