package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"yashubustudio/cropdoctor/diagnosis"
	"yashubustudio/cropdoctor/internal/logging"
	"yashubustudio/cropdoctor/internal/store"
)

type diagnoseOptions struct {
	plantPart string
	language  string
	knowledge string
	format    string
	output    string
	outputDir string
	seed      uint64
}

type imageResult struct {
	File   string           `json:"file"`
	Result diagnosis.Result `json:"result"`
}

func newDiagnoseCmd(root *rootOptions) *cobra.Command {
	opts := &diagnoseOptions{}
	cmd := &cobra.Command{
		Use:   "diagnose FILE...",
		Short: "Diagnose one or more image files",
		Long: `Diagnoses each image file and prints the results as JSON, or writes a CSV
report with --format=csv. Advice comes from --knowledge when given, otherwise
from the configured database.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.plantPart = strings.TrimSpace(opts.plantPart)
			if opts.plantPart == "" {
				return errors.New("missing required --plant-part")
			}
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return runDiagnose(cmd.Context(), cmd.OutOrStdout(), cfg, logger, opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.plantPart, "plant-part", "", "Plant part shown in the images (leaves, stem, fruit, root)")
	cmd.Flags().StringVar(&opts.language, "language", "", "Advice language code (default from config)")
	cmd.Flags().StringVar(&opts.knowledge, "knowledge", "", "YAML/JSON/CSV/TSV knowledge file used instead of the database")
	cmd.Flags().StringVar(&opts.format, "format", "json", "Output format: json or csv")
	cmd.Flags().StringVar(&opts.output, "output", "", "CSV file to write (default uses --output-dir/result_*.csv)")
	cmd.Flags().StringVar(&opts.outputDir, "output-dir", "csv", "Directory where result CSVs are written when --output is omitted")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "Random seed for reproducible diagnoses (overrides config)")
	return cmd
}

func runDiagnose(ctx context.Context, out io.Writer, cfg diagnosis.Config, logger *zap.Logger, opts *diagnoseOptions, files []string) error {
	format := strings.ToLower(strings.TrimSpace(opts.format))
	if format != "json" && format != "csv" {
		return fmt.Errorf("unknown format %q", opts.format)
	}

	var provider diagnosis.KnowledgeProvider
	if k := strings.TrimSpace(opts.knowledge); k != "" {
		provider = diagnosis.FileProvider{Path: k}
	} else {
		st, err := store.Open(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()
		provider = st
	}

	seed := cfg.RandomSeed
	if opts.seed != 0 {
		seed = opts.seed
	}
	eng, err := diagnosis.NewEngine(ctx, provider, diagnosis.Options{
		Random: randomSource(seed),
		Logger: logging.Component(logger, "engine"),
	})
	if err != nil {
		return fmt.Errorf("init engine: %w", err)
	}

	language := strings.TrimSpace(opts.language)
	if language == "" {
		language = string(cfg.DefaultLanguage)
	}

	results, err := diagnoseFiles(ctx, eng, files, opts.plantPart, language)
	if err != nil {
		return err
	}

	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	outputPath, err := resolveOutputPath(opts.output, opts.outputDir)
	if err != nil {
		return err
	}
	if err := writeResultCSV(outputPath, results); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %d diagnoses to %s\n", len(results), outputPath)
	return nil
}

// diagnoseFiles reads files concurrently, then diagnoses them in input order
// so a seeded engine yields the same results on every run.
func diagnoseFiles(ctx context.Context, eng *diagnosis.Engine, files []string, plantPart, language string) ([]imageResult, error) {
	images := make([][]byte, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			images[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]imageResult, len(files))
	for i, file := range files {
		res, err := eng.Diagnose(images[i], plantPart, language)
		if err != nil {
			return nil, fmt.Errorf("diagnose %s: %w", file, err)
		}
		results[i] = imageResult{File: file, Result: res}
	}
	return results, nil
}

func resolveOutputPath(path, dir string) (string, error) {
	path = strings.TrimSpace(path)
	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("resolve output path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
		return absPath, nil
	}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = "csv"
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve output dir: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	filename := fmt.Sprintf("result_%s.csv", time.Now().Format("20060102150405"))
	return filepath.Join(absDir, filename), nil
}

var resultCSVHeader = []string{"file", "disease", "confidence", "severity", "healthy", "plant_part", "language", "treatment", "source"}

func writeResultCSV(path string, results []imageResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create result file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(resultCSVHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range results {
		row := []string{
			r.File,
			r.Result.Disease,
			strconv.FormatFloat(r.Result.Confidence, 'f', 2, 64),
			string(r.Result.Severity),
			strconv.FormatBool(r.Result.IsHealthy),
			r.Result.PlantPart,
			string(r.Result.Language),
			r.Result.Treatment,
			r.Result.AdditionalInfo.Source,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush result: %w", err)
	}
	return nil
}
