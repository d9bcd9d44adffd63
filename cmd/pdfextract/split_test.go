package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StackNinja0109/pdf2csv/internal/extract"
	"github.com/StackNinja0109/pdf2csv/internal/pdf"
	"github.com/StackNinja0109/pdf2csv/internal/pdf/pdftest"
)

func TestSplitCommandWritesNumberedPages(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.pdf")
	require.NoError(t, os.WriteFile(in, pdftest.Document(3), 0o600))
	outDir := filepath.Join(dir, "pages")

	cmd := newRootCmd()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"split", in, outDir})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, stdout.String(), "Wrote 3 pages")

	for _, name := range []string{"page_00001.pdf", "page_00002.pdf", "page_00003.pdf"} {
		data, err := os.ReadFile(filepath.Join(outDir, name))
		require.NoError(t, err)
		n, err := pdf.PageCount(data)
		require.NoError(t, err)
		assert.Equal(t, 1, n, name)
	}
}

func TestSplitCommandNeedsTwoArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"split", "only-one.pdf"})
	assert.Error(t, cmd.Execute())
}

func TestExtractCommandRejectsBadFormats(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"extract", "in.pdf", "--formats", "model"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "formats is not valid JSON")
}

func TestWriteJSONResult(t *testing.T) {
	recs := extract.ProjectObjects([]map[string]any{{"qty": "2", "model": "A"}}, []string{"model", "qty"})

	var buf bytes.Buffer
	require.NoError(t, writeJSONResult(&buf, "", recs))
	assert.Equal(t, "[\n  {\n    \"model\": \"A\",\n    \"qty\": \"2\"\n  }\n]\n", buf.String())

	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, writeJSONResult(&buf, path, recs))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"model":"A","qty":"2"}]`, string(data))
}
