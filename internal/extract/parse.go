package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// parseStrategy turns raw model text into a JSON value. Strategies are pure and tried in order.
type parseStrategy struct {
	name  string
	parse func(text string) (any, error)
}

var parseStrategies = []parseStrategy{
	{name: "fenced", parse: parseFenced},
	{name: "bracketed", parse: parseBracketed},
}

var codeFenceRegex = regexp.MustCompile("```json\\n?|\\n?```")

// parseFenced removes Markdown code fences anywhere in the text and parses what is left.
func parseFenced(text string) (any, error) {
	cleaned := strings.TrimSpace(codeFenceRegex.ReplaceAllString(text, ""))
	return decodeJSON(cleaned)
}

// parseBracketed parses the substring from the first '[' to the last ']'.
func parseBracketed(text string) (any, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end < start {
		return nil, errors.New("no JSON array brackets found")
	}
	return decodeJSON(text[start : end+1])
}

// decodeJSON parses exactly one JSON value, keeping numbers as their original text.
func decodeJSON(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}
	return v, nil
}

// ParseResponse applies the parse strategies in order and returns the elements of the first
// array or object found. A bare object becomes a one-element slice. It reports which strategy
// succeeded, or an error when none did.
func ParseResponse(text string) ([]any, string, error) {
	var errs []error
	for _, s := range parseStrategies {
		v, err := s.parse(text)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
			continue
		}
		switch t := v.(type) {
		case []any:
			return t, s.name, nil
		case map[string]any:
			return []any{t}, s.name, nil
		default:
			errs = append(errs, fmt.Errorf("%s: got %T, want array or object", s.name, v))
		}
	}
	return nil, "", errors.Join(errs...)
}
