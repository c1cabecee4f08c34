package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yashubustudio/cropdoctor/diagnosis"
	"yashubustudio/cropdoctor/internal/store"
)

func newSeedCmd(root *rootOptions) *cobra.Command {
	var columns []string
	cmd := &cobra.Command{
		Use:   "seed FILE",
		Short: "Load disease records from a YAML, JSON, CSV or TSV file into the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			mapping, err := parseColumnFlags(columns)
			if err != nil {
				return err
			}
			records, err := diagnosis.ParseDiseaseRecordsWithOptions(args[0], diagnosis.RecordParseOptions{Columns: mapping})
			if err != nil {
				return fmt.Errorf("read knowledge file: %w", err)
			}

			st, err := store.Open(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			n, err := st.UpsertDiseases(cmd.Context(), records)
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			logger.Info("knowledge seeded", zap.String("file", args[0]), zap.Int("records", n))
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d disease records into %s\n", n, cfg.DatabasePath)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&columns, "column", nil, "Pin a field to a CSV column, e.g. name_en=Disease or symptoms_hi=#4 (repeatable)")
	return cmd
}

func parseColumnFlags(values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(values))
	for _, v := range values {
		field, column, ok := strings.Cut(v, "=")
		field = strings.TrimSpace(field)
		column = strings.TrimSpace(column)
		if !ok || field == "" || column == "" {
			return nil, fmt.Errorf("invalid --column %q, want field=column", v)
		}
		out[field] = column
	}
	return out, nil
}
