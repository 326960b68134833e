// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pdiddy/convert-engine/internal/archive"
	"github.com/pdiddy/convert-engine/internal/converters"
	"github.com/pdiddy/convert-engine/internal/pipeline"
	"github.com/pdiddy/convert-engine/internal/registry"
	"github.com/pdiddy/convert-engine/internal/worker"
	"github.com/pdiddy/convert-engine/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [files...]",
	Short: "Convert documents into structured Markdown",
	Long: `Convert transforms files or a URL into Markdown through the conversion
pipeline. The format is derived from the file extension unless --type is
given. Converted documents are written to the output directory and
recorded in the local conversion index.

With --ocr, image-heavy PDFs are sent to the remote OCR service; an
unusable key falls back to local extraction. With --isolate, each
conversion runs in a worker subprocess so native library crashes cannot
take down the CLI.`,
	RunE: runConvert,
}

// batchSummary holds counts from one convert invocation.
type batchSummary struct {
	Converted int
	Failed    int
}

// Total returns the number of inputs processed.
func (s batchSummary) Total() int {
	return s.Converted + s.Failed
}

// HasFailures reports whether any input failed.
func (s batchSummary) HasFailures() bool {
	return s.Failed > 0
}

func runConvert(cmd *cobra.Command, args []string) error {
	url, _ := cmd.Flags().GetString("url")
	if len(args) == 0 && url == "" {
		return fmt.Errorf("nothing to convert: pass files or --url")
	}

	cfg := engineConfig()
	opts := optionsFromFlags(cmd, cfg)
	outputDir, _ := cmd.Flags().GetString("output-dir")
	if outputDir == "" {
		outputDir = cfg.Conversion.OutputDir
	}
	isolate, _ := cmd.Flags().GetBool("isolate")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, err := archive.NewStore(cfg.Conversion.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	p := buildPipeline(cfg)
	ctx := context.Background()

	var sources []pipeline.Source
	if url != "" {
		sources = append(sources, pipeline.Source{URL: url})
	}
	for _, path := range args {
		sources = append(sources, pipeline.Source{Path: path})
	}

	var summary batchSummary
	for _, src := range sources {
		res := convertOne(ctx, p, src, opts, isolate)

		outputPath := ""
		if res.Success {
			path, writeErr := writeOutput(outputDir, res)
			if writeErr != nil {
				fmt.Fprintf(os.Stderr, "warning: writing %s: %v\n", res.Name, writeErr)
			} else {
				outputPath = path
			}
		}
		if _, saveErr := store.Save(ctx, uuid.NewString(), res, outputPath); saveErr != nil {
			fmt.Fprintf(os.Stderr, "warning: indexing %s: %v\n", res.Name, saveErr)
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			enc.Encode(res)
		} else if res.Success {
			fmt.Fprintf(os.Stdout, "converted %s (%s) -> %s\n", res.Name, res.ConverterName(), outputPath)
		} else {
			fmt.Fprintf(os.Stdout, "failed    %s: %s\n", res.Name, res.Error)
		}

		if res.Success {
			summary.Converted++
		} else {
			summary.Failed++
		}
	}

	if !jsonOutput {
		fmt.Fprintf(os.Stdout, "\nconverted: %d, failed: %d\n", summary.Converted, summary.Failed)
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d of %d conversion(s) failed", summary.Failed, summary.Total())
	}
	return nil
}

// convertOne runs one conversion in-process or through a worker child.
func convertOne(ctx context.Context, p *pipeline.Pipeline, src pipeline.Source, opts types.Options, isolate bool) *types.Result {
	if !isolate {
		return p.Convert(ctx, src, opts)
	}

	name := pipeline.DeriveName(src, opts)
	token := pipeline.DeriveType(src, opts)

	data := src.Data
	if data == nil && src.Path != "" {
		read, err := os.ReadFile(src.Path)
		if err != nil {
			return pipeline.Standardize(nil, fmt.Errorf("reading %s: %w", src.Path, err), name, token, "", "")
		}
		data = read
	}

	pool := worker.NewPool(os.Stderr)
	res, err := pool.Run(ctx, worker.ConvertData{
		ID: uuid.NewString(),
		Item: worker.Item{
			Type:    token,
			Name:    name,
			APIKey:  opts.OCRKey(),
			Content: worker.EncodePayload(data),
		},
		Options: opts,
	}, nil)
	return pipeline.Standardize(res, err, name, token, "", "")
}

func writeOutput(outputDir string, res *types.Result) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(outputDir, res.Name+".md")
	if err := os.WriteFile(path, []byte(res.Content), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// optionsFromFlags merges command flags over file/env configuration.
func optionsFromFlags(cmd *cobra.Command, cfg types.EngineConfig) types.Options {
	fileType, _ := cmd.Flags().GetString("type")
	name, _ := cmd.Flags().GetString("name")
	useOCR, _ := cmd.Flags().GetBool("ocr")
	language, _ := cmd.Flags().GetString("language")
	apiKey, _ := cmd.Flags().GetString("api-key")

	if language == "" {
		language = cfg.OCR.Language
	}
	return types.Options{
		FileType:  fileType,
		Name:      name,
		UseOCR:    useOCR || cfg.Conversion.UseOCR,
		Language:  language,
		OCRAPIKey: secretDefault("ocr-api-key", apiKey),
	}
}

// buildPipeline constructs the registry and facade at the composition root.
func buildPipeline(cfg types.EngineConfig) *pipeline.Pipeline {
	reg := registry.New(os.Stderr, converters.Providers(cfg, os.Stderr)...)
	return pipeline.New(reg, os.Stderr)
}

func init() {
	convertCmd.Flags().String("url", "", "convert a web page instead of local files")
	convertCmd.Flags().String("type", "", "override the format token derived from the file name")
	convertCmd.Flags().String("name", "", "override the derived document name (single input only)")
	convertCmd.Flags().Bool("ocr", false, "route image-heavy PDFs through the remote OCR service")
	convertCmd.Flags().String("language", "", "language hint for OCR")
	convertCmd.Flags().String("api-key", "", "remote OCR API key (default: .secrets/ocr-api-key)")
	convertCmd.Flags().String("output-dir", "", "directory for converted Markdown (default from config)")
	convertCmd.Flags().Bool("isolate", false, "run each conversion in a worker subprocess")
	convertCmd.Flags().Bool("json", false, "print full results as JSON")

	rootCmd.AddCommand(convertCmd)
}
