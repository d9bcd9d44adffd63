package extract

import (
	"encoding/json"
	"strconv"
)

// Project builds one Record per element, restricted to fields. Missing, empty or
// unusable values become "" and keys outside fields are dropped, so every record has the
// same shape whatever the model returned.
func Project(elements []any, fields []string) []Record {
	records := make([]Record, 0, len(elements))
	for _, el := range elements {
		rec := NewRecord(fields)
		if obj, ok := el.(map[string]any); ok {
			for _, f := range rec.keys {
				rec.set(f, stringValue(obj[f]))
			}
		}
		records = append(records, rec)
	}
	return records
}

// ProjectObjects is Project for already decoded objects.
func ProjectObjects(objects []map[string]any, fields []string) []Record {
	elements := make([]any, len(objects))
	for i, o := range objects {
		elements[i] = o
	}
	return Project(elements, fields)
}

// stringValue keeps truthy scalars and maps everything else to "".
func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		if f, err := t.Float64(); err == nil && f == 0 {
			return ""
		}
		return t.String()
	case float64:
		if t == 0 {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return ""
	default:
		return ""
	}
}
