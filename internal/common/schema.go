package common

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// configFileSchema constrains the persisted config file. A corrupt or
// hand-edited file that no longer matches is rejected at load rather than
// half-applied.
func configFileSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": true,
		"properties": map[string]any{
			"apiEndpoint":   map[string]any{"type": "string"},
			"apiKey":        map[string]any{"type": "string"},
			"terminalId":    map[string]any{"type": "string", "pattern": `^$|^T-[0-9A-F]{8}$`},
			"locationId":    map[string]any{"type": "string"},
			"retryAttempts": map[string]any{"type": "integer", "minimum": 0},
			"apiTimeout":    map[string]any{"type": "integer", "minimum": 0},
			"autoRegister":  map[string]any{"type": "boolean"},
		},
	}
}

// ValidateConfigFile validates raw config-file bytes against the schema.
func ValidateConfigFile(raw []byte) error {
	b, err := json.Marshal(configFileSchema())
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("config.schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("config.schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("config does not match schema: %w", err)
	}
	return nil
}
