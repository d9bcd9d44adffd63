package gcp

import (
	"encoding/json"
	"fmt"
	"strings"
)

// --- Table Extraction Prompts ---
const TableExtractionSystemPrompt = "You are an assistant that extracts table data from PDF documents. You always answer with a JSON array of objects and nothing else."

const tableExtractionRules = `Extract the table data from the attached PDF page following these rules and return it as a JSON array:

1. Only analyse tables and regions separated by ruled lines. Ignore free text outside them.
2. Treat every visual row as one output object.
3. Quantities:
   - Remove unit suffixes such as 台, 枚, 個, 式 and keep only the numeric value.
   - Numeric accuracy matters more than completeness.
4. Several part numbers in one row:
   - Split the row into one object per part number.
   - Keep the shared base identifier and append a circled number, e.g. 1①, 1②, 1③.
5. Equivalent items:
   - If the source text contains the word "同等", set the equivalent-item flag for that object.
6. Model / part numbers:
   - Keep only the alphanumeric token.
   - Move any Japanese descriptive text into the item name.
   - Remove equivalence annotations such as "同等品" or "相当品".
7. Original text:
   - Always keep the original, unprocessed part-number text in its own field.`

// BuildExtractionPrompt returns the per-page instruction. The field names are the exact keys
// the model must emit; they are embedded as-is.
func BuildExtractionPrompt(fieldNames []string) string {
	var b strings.Builder
	b.WriteString(tableExtractionRules)

	b.WriteString("\n\nFields to extract (use exactly these keys):\n")
	for _, name := range fieldNames {
		fmt.Fprintf(&b, "- %s\n", name)
	}

	b.WriteString("\nOutput format:\n[\n  {\n")
	for i, name := range fieldNames {
		sep := ","
		if i == len(fieldNames)-1 {
			sep = ""
		}
		key, _ := json.Marshal(name)
		fmt.Fprintf(&b, "    %s: \"value\"%s\n", key, sep)
	}
	b.WriteString("  }\n]\n")
	return b.String()
}
