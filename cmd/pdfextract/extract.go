package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/StackNinja0109/pdf2csv/internal/config"
	"github.com/StackNinja0109/pdf2csv/internal/extract"
	"github.com/StackNinja0109/pdf2csv/internal/pdf"
	"github.com/StackNinja0109/pdf2csv/internal/services"
)

type extractOptions struct {
	formats string
	out     string
	csvPath string
}

func newExtractCmd(root *rootOptions) *cobra.Command {
	opts := &extractOptions{}
	cmd := &cobra.Command{
		Use:   "extract <in.pdf>",
		Short: "Extract table rows from every page of a PDF",
		Long: `Extract sends every page to the configured Gemini model and prints the rows as JSON.
Pages that yield a single row or none are left out of the result.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd.Context(), cmd.OutOrStdout(), root, opts, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.formats, "formats", "", `field names as a JSON array, e.g. '["model","qty"]' (required)`)
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "write the JSON result to this file instead of stdout")
	cmd.Flags().StringVar(&opts.csvPath, "csv", "", "also write the rows as CSV to this file")
	_ = cmd.MarkFlagRequired("formats")
	return cmd
}

func runExtract(ctx context.Context, stdout io.Writer, root *rootOptions, opts *extractOptions, inPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formats, err := extract.ParseFieldNames(opts.formats)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", inPath, err)
	}
	pageCount, err := pdf.PageCount(data)
	if err != nil {
		return err
	}

	cfgPath := root.cfgFile
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	rt, err := services.Bootstrap(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	bar := progressbar.NewOptions(pageCount,
		progressbar.OptionSetDescription("Extracting pages"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("pages"),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() { fmt.Fprint(os.Stderr, "\n") }),
	)

	result, err := rt.Processor.Process(ctx, services.ProcessRequest{
		PDF:      data,
		Filename: filepath.Base(inPath),
		Formats:  formats,
		Progress: func(int, int) { _ = bar.Add(1) },
	})
	_ = bar.Finish()
	if err != nil {
		return err
	}

	if err := writeJSONResult(stdout, opts.out, result.Records); err != nil {
		return err
	}
	if opts.csvPath != "" {
		export, err := rt.Exporter.Export(services.FormatCSV, formats, result.Records)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.csvPath, export.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", opts.csvPath, err)
		}
	}
	fmt.Fprintf(os.Stderr, "%d records from %d of %d pages\n", len(result.Records), result.AcceptedPages, result.PageCount)
	return nil
}

func writeJSONResult(stdout io.Writer, path string, records []extract.Record) error {
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	b = append(b, '\n')
	if path == "" {
		_, err := stdout.Write(b)
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
