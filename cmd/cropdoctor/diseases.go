package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"yashubustudio/cropdoctor/internal/store"
)

func newDiseasesCmd(root *rootOptions) *cobra.Command {
	var (
		filter store.DiseaseFilter
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "diseases",
		Short: "List disease records stored in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			st, err := store.Open(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			records, err := st.ListDiseases(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("list diseases: %w", err)
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tHINDI\tCROP\tSEVERITY")
			for _, r := range records {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.ID, r.NameEN, r.NameHI, r.CropType, r.SeverityLevel)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&filter.Search, "search", "", "Match English name, Hindi name or crop type")
	cmd.Flags().StringVar(&filter.CropType, "crop", "", "Exact crop type")
	cmd.Flags().StringVar(&filter.Severity, "severity", "", "Exact severity level")
	cmd.Flags().IntVar(&filter.Limit, "limit", 50, "Maximum records")
	cmd.Flags().IntVar(&filter.Offset, "offset", 0, "Records to skip")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}
