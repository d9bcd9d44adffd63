package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/StackNinja0109/pdf2csv/internal/pdf"
)

func newSplitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "split <in.pdf> <outdir>",
		Short: "Write every page of a PDF as its own file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := splitFile(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d pages to %s\n", n, args[1])
			return nil
		},
	}
}

// splitFile writes page_00001.pdf, page_00002.pdf, ... into outDir.
func splitFile(inPath, outDir string) (int, error) {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", inPath, err)
	}
	pages, err := pdf.Split(data)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return 0, fmt.Errorf("create %s: %w", outDir, err)
	}
	for i, page := range pages {
		name := filepath.Join(outDir, fmt.Sprintf("page_%05d.pdf", i+1))
		if err := os.WriteFile(name, page, 0o644); err != nil {
			return 0, fmt.Errorf("write %s: %w", name, err)
		}
	}
	return len(pages), nil
}
