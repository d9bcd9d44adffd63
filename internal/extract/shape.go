package extract

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// replySchema describes what a well-behaved model reply looks like for the given fields.
// It is only used to report drift; Project copes with any reply.
func replySchema(fields []string) (*jsonschema.Schema, error) {
	props := make(map[string]any, len(fields))
	required := NewRecord(fields).Keys()
	for _, f := range required {
		props[f] = map[string]any{"type": []string{"string", "number", "boolean", "null"}}
	}
	doc := map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":       "object",
			"properties": props,
			"required":   required,
		},
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	schema, err := jsonschema.CompileString("reply.json", string(b))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// checkShape reports how elements differ from the expected reply shape, or nil if they match.
func checkShape(elements []any, fields []string) error {
	schema, err := replySchema(fields)
	if err != nil {
		return err
	}
	return schema.Validate(elements)
}
