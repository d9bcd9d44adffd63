package gcp

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildExtractionPromptListsFields(t *testing.T) {
	fields := []string{"型番", "数量", "original"}
	prompt := BuildExtractionPrompt(fields)

	for _, f := range fields {
		assert.Contains(t, prompt, "- "+f+"\n")
	}
	for _, term := range []string{"同等", "1①", "JSON array", "numeric value"} {
		assert.Contains(t, prompt, term)
	}
}

func TestBuildExtractionPromptExampleIsValidJSON(t *testing.T) {
	fields := []string{"model", "qty", `with "quotes"`}
	prompt := BuildExtractionPrompt(fields)

	start := strings.LastIndex(prompt, "[\n")
	require.GreaterOrEqual(t, start, 0)

	var example []map[string]string
	require.NoError(t, json.Unmarshal([]byte(prompt[start:]), &example))
	require.Len(t, example, 1)
	for _, f := range fields {
		assert.Contains(t, example[0], f)
	}
	assert.Len(t, example[0], len(fields))
}
