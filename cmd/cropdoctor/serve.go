package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yashubustudio/cropdoctor/diagnosis"
	"yashubustudio/cropdoctor/internal/logging"
	"yashubustudio/cropdoctor/internal/server"
	"yashubustudio/cropdoctor/internal/store"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP diagnosis API",
		Long: `Opens the disease database, seeds it from knowledgeFile when configured,
and serves /api/predict, /api/diseases and /api/scans until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			if v := strings.TrimSpace(listen); v != "" {
				cfg.Listen = v
			}

			st, err := store.Open(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			ctx := cmd.Context()
			if cfg.KnowledgeFile != "" {
				records, err := diagnosis.ParseDiseaseRecords(cfg.KnowledgeFile)
				if err != nil {
					return fmt.Errorf("read knowledge file: %w", err)
				}
				n, err := st.UpsertDiseases(ctx, records)
				if err != nil {
					return fmt.Errorf("seed knowledge: %w", err)
				}
				logger.Info("knowledge seeded", zap.String("file", cfg.KnowledgeFile), zap.Int("records", n))
			}

			eng, err := diagnosis.NewEngine(ctx, st, diagnosis.Options{
				Random: randomSource(cfg.RandomSeed),
				Logger: logging.Component(logger, "engine"),
			})
			if err != nil {
				return fmt.Errorf("init engine: %w", err)
			}

			srv, err := server.New(server.Options{
				Engine:          eng,
				Catalog:         st,
				Scans:           st,
				Logger:          logger,
				Listen:          cfg.Listen,
				MaxUploadBytes:  cfg.MaxUploadBytes,
				DefaultLanguage: cfg.DefaultLanguage,
			})
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (overrides config)")
	return cmd
}
