package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const fieldNamesSchemaJSON = `{
  "type": "array",
  "minItems": 1,
  "items": {"type": "string", "minLength": 1}
}`

var fieldNamesSchema = jsonschema.MustCompileString("field-names.json", fieldNamesSchemaJSON)

// ParseFieldNames decodes the JSON encoded list of field names sent by the caller.
func ParseFieldNames(raw string) ([]string, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("formats is not valid JSON: %w", err)
	}
	if err := fieldNamesSchema.Validate(v); err != nil {
		return nil, fmt.Errorf("formats must be a non-empty JSON array of non-empty strings: %w", err)
	}

	items := v.([]any)
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.(string)
	}
	return names, nil
}

// ValidateFieldNames applies the same rules as ParseFieldNames to an already decoded list.
func ValidateFieldNames(names []string) error {
	items := make([]any, len(names))
	for i, n := range names {
		items[i] = n
	}
	if err := fieldNamesSchema.Validate(items); err != nil {
		return fmt.Errorf("formats must be a non-empty JSON array of non-empty strings: %w", err)
	}
	return nil
}
