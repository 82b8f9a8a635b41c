package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/kisanmitra/internal/ingest"
	"github.com/user/kisanmitra/internal/retrieval"
	"github.com/user/kisanmitra/internal/state"
)

var ingestFile string

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVar(&ingestFile, "file", "", "load documents from a JSON file instead of fetching sources")
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [source]",
	Short: "Refresh the scheme corpus from configured sources or a JSON file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg)

		corpus := retrieval.NewStore(cfg.DataDir)
		ingestor := ingest.New(corpus)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if ingestFile != "" {
			n, err := ingestor.LoadJSON(ctx, ingestFile)
			if err != nil {
				return err
			}
			fmt.Printf("Loaded %d documents from %s.\n", n, ingestFile)
			return nil
		}

		sources := state.NewSourceStore(filepath.Join(cfg.DataDir, "sources.json"))

		if len(args) == 1 {
			src, err := sources.Get(args[0])
			if err != nil {
				return err
			}
			n, err := ingestor.IngestSource(ctx, src)
			if err != nil {
				return err
			}
			fmt.Printf("Ingested %d documents from %s.\n", n, src.Name)
			return nil
		}

		n, err := ingestor.IngestAll(ctx, sources)
		if err != nil {
			return fmt.Errorf("some sources failed (ingested %d documents): %w", n, err)
		}
		fmt.Printf("Ingested %d documents.\n", n)
		return nil
	},
}
