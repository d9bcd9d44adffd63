package extract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectKeySetAlwaysMatchesFields(t *testing.T) {
	fields := []string{"model", "qty"}
	tests := []struct {
		name     string
		elements []any
	}{
		{"superset", []any{map[string]any{"model": "A", "qty": "1", "price": "9"}}},
		{"subset", []any{map[string]any{"model": "A"}}},
		{"disjoint", []any{map[string]any{"Model": "A", "QTY": "1"}}},
		{"not an object", []any{"A", json.Number("3"), nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, rec := range Project(tt.elements, fields) {
				assert.Equal(t, fields, rec.Keys())
			}
		})
	}
}

func TestProjectTruthiness(t *testing.T) {
	el := map[string]any{
		"s":     "x",
		"blank": "",
		"zero":  json.Number("0"),
		"num":   json.Number("12"),
		"yes":   true,
		"no":    false,
		"null":  nil,
		"obj":   map[string]any{"a": "b"},
		"list":  []any{"a"},
	}
	fields := []string{"s", "blank", "zero", "num", "yes", "no", "null", "obj", "list", "missing"}

	recs := Project([]any{el}, fields)
	require.Len(t, recs, 1)
	assert.Equal(t, map[string]string{
		"s": "x", "blank": "", "zero": "", "num": "12", "yes": "true",
		"no": "", "null": "", "obj": "", "list": "", "missing": "",
	}, recs[0].Map())
}

func TestProjectCaseSensitiveKeysAreDropped(t *testing.T) {
	recs := ProjectObjects([]map[string]any{{"MODEL": "A-1", "model": "B-2"}}, []string{"model"})
	require.Len(t, recs, 1)
	assert.Equal(t, "B-2", recs[0].Get("model"))
}

func TestProjectEmpty(t *testing.T) {
	assert.Empty(t, Project(nil, []string{"model"}))
}
