// Package main generates JSON schemas for the machine-readable outputs of
// autoimport: MCP tool results, detect findings and metadata snapshots.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/autoimport/cmd/autoimport/commands"
	"github.com/Sumatoshi-tech/autoimport/internal/mcp"
	"github.com/Sumatoshi-tech/autoimport/pkg/metadata"
)

// Schema represents a JSON Schema.
type Schema struct {
	Schema               string             `json:"$schema,omitempty"`
	Title                string             `json:"title,omitempty"`
	Description          string             `json:"description,omitempty"`
	Type                 string             `json:"type,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	AdditionalProperties *Schema            `json:"additionalProperties,omitempty"`
	Items                *Schema            `json:"items,omitempty"`
	Required             []string           `json:"required,omitempty"`
	Ref                  string             `json:"$ref,omitempty"`
	Definitions          map[string]*Schema `json:"definitions,omitempty"`
}

// outputs maps schema file names to the values they describe.
var outputs = map[string]any{
	"inject":   &mcp.InjectResult{},
	"detect":   &mcp.DetectResult{},
	"findings": []commands.Finding{},
	"metadata": &metadata.Snapshot{},
}

func main() {
	outputDir := flag.String("o", "docs/schemas", "Output directory for schemas")
	flag.Parse()

	err := run(*outputDir, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(outputDir string, w io.Writer) error {
	err := os.MkdirAll(outputDir, 0o755)
	if err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	names := make([]string, 0, len(outputs))
	for name := range outputs {
		names = append(names, name)
	}

	slices.Sort(names)

	for _, name := range names {
		err = writeSchema(outputDir, name, generateSchema(name, outputs[name]))
		if err != nil {
			return fmt.Errorf("write schema for %s: %w", name, err)
		}

		fmt.Fprintf(w, "Generated schema for %s\n", name)
	}

	return nil
}

func generateSchema(name string, v any) *Schema {
	defs := make(map[string]*Schema)

	schema := typeToSchema(reflect.TypeOf(v), defs)
	if schema.Ref != "" {
		root := strings.TrimPrefix(schema.Ref, "#/definitions/")
		schema = defs[root]
		delete(defs, root)
	}

	schema.Schema = "https://json-schema.org/draft-07/schema#"
	schema.Title = fmt.Sprintf("autoimport %s output", name)

	if len(defs) > 0 {
		schema.Definitions = defs
	}

	return schema
}

func structToProperties(t reflect.Type, defs map[string]*Schema) (map[string]*Schema, []string) {
	props := make(map[string]*Schema)

	var required []string

	for i := range t.NumField() {
		field := t.Field(i)

		jsonName, opts, _ := strings.Cut(field.Tag.Get("json"), ",")
		if jsonName == "-" || jsonName == "" {
			continue
		}

		props[jsonName] = typeToSchema(field.Type, defs)

		if !strings.Contains(opts, "omitempty") {
			required = append(required, jsonName)
		}
	}

	return props, required
}

func typeToSchema(t reflect.Type, defs map[string]*Schema) *Schema {
	switch t.Kind() {
	case reflect.String:
		return &Schema{Type: "string"}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}

	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}

	case reflect.Bool:
		return &Schema{Type: "boolean"}

	case reflect.Slice, reflect.Array:
		return &Schema{Type: "array", Items: typeToSchema(t.Elem(), defs)}

	case reflect.Map:
		return &Schema{Type: "object", AdditionalProperties: typeToSchema(t.Elem(), defs)}

	case reflect.Struct:
		defName := t.Name()
		if defName == "" {
			props, required := structToProperties(t, defs)

			return &Schema{Type: "object", Properties: props, Required: required}
		}

		if _, exists := defs[defName]; !exists {
			// Reserve the name first so recursive types terminate.
			defs[defName] = &Schema{Type: "object"}
			props, required := structToProperties(t, defs)
			defs[defName].Properties = props
			defs[defName].Required = required
		}

		return &Schema{Ref: "#/definitions/" + defName}

	case reflect.Pointer:
		return typeToSchema(t.Elem(), defs)

	default:
		return &Schema{}
	}
}

func writeSchema(outputDir, name string, schema *Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	err = os.WriteFile(filepath.Join(outputDir, name+".json"), append(data, '\n'), 0o644)
	if err != nil {
		return fmt.Errorf("write schema: %w", err)
	}

	return nil
}
