package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matchannot/matchannot/internal/cache"
	"github.com/matchannot/matchannot/internal/gtf"
)

func newConvertCmd() *cobra.Command {
	var (
		gtfPath    string
		format     string
		outputPath string
	)

	cmd := &cobra.Command{
		Use:   "convert --gtf <file> -o <file.duckdb>",
		Short: "Convert a GTF annotation to a DuckDB cache",
		Long: `Parse a GTF annotation once and persist the built index as a DuckDB
database. The match and show commands load the cache directly, skipping
the parse on every run.`,
		Example: `  matchannot convert --gtf gencode.v46.annotation.gtf.gz -o gencode.duckdb
  matchannot convert --gtf exons_only.gtf --format alt -o annotations.duckdb`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(gtfPath, format, outputPath)
		},
	}

	cmd.Flags().StringVar(&gtfPath, "gtf", "", "Input GTF file, plain or gzipped")
	cmd.Flags().StringVar(&format, "format", "standard", "Annotation format: standard or alt")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output DuckDB file path")
	cmd.MarkFlagRequired("gtf")
	cmd.MarkFlagRequired("output")

	return cmd
}

func runConvert(gtfPath, format, outputPath string) error {
	logger := newLogger()
	defer logger.Sync()

	if format != "standard" && format != "alt" {
		return fmt.Errorf("unknown annotation format %q (want standard or alt)", format)
	}

	if ext := filepath.Ext(outputPath); ext != ".duckdb" && ext != ".db" {
		outputPath += ".duckdb"
	}

	// A stale cache at the target path would shadow the fresh one.
	if _, err := os.Stat(outputPath); err == nil {
		if err := os.Remove(outputPath); err != nil {
			return fmt.Errorf("remove existing cache: %w", err)
		}
	}

	loader := gtf.NewLoader(gtfPath)
	load := loader.Load
	if format == "alt" {
		load = loader.LoadFlat
	}
	index, err := load()
	if err != nil {
		return err
	}
	logger.Info("annotation parsed", zap.Int("genes", index.GeneCount()))

	store, err := cache.Open(outputPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.CreateSchema(); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if err := store.SaveIndex(index); err != nil {
		return err
	}

	count, err := store.GeneCount()
	if err != nil {
		return fmt.Errorf("verify gene count: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %d genes to %s\n", count, outputPath)
	return nil
}
