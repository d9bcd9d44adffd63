// Package pdf splits uploaded documents into standalone single-page PDFs.
package pdf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// pdfcpu would otherwise create a config directory under the user's home on first use,
	// which fails on read-only function filesystems.
	api.DisableConfigDir()
}

func newConfiguration() *model.Configuration {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return cfg
}

// Split returns one single-page PDF per page of document, in page order.
// It fails only when document cannot be parsed as a PDF.
func Split(document []byte) ([][]byte, error) {
	pdfContext, err := api.ReadValidateAndOptimize(bytes.NewReader(document), newConfiguration())
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}

	pages := make([][]byte, 0, pdfContext.PageCount)
	for pageNum := 1; pageNum <= pdfContext.PageCount; pageNum++ {
		pageReader, err := api.ExtractPage(pdfContext, pageNum)
		if err != nil {
			return nil, fmt.Errorf("failed to extract page %d: %w", pageNum, err)
		}
		pageData, err := io.ReadAll(pageReader)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", pageNum, err)
		}
		pages = append(pages, pageData)
	}
	return pages, nil
}

// PageCount returns the number of pages in document.
func PageCount(document []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(document), newConfiguration())
	if err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return n, nil
}

// Merge reassembles pages, in order, into one document.
func Merge(pages [][]byte) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("nothing to merge")
	}
	readers := make([]io.ReadSeeker, len(pages))
	for i, page := range pages {
		readers[i] = bytes.NewReader(page)
	}
	var buf bytes.Buffer
	if err := api.MergeRaw(readers, &buf, false, newConfiguration()); err != nil {
		return nil, fmt.Errorf("failed to merge pages: %w", err)
	}
	return buf.Bytes(), nil
}
