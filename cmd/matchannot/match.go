package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/matchannot/matchannot/internal/annot"
	"github.com/matchannot/matchannot/internal/cache"
	"github.com/matchannot/matchannot/internal/cluster"
	"github.com/matchannot/matchannot/internal/gtf"
	"github.com/matchannot/matchannot/internal/pipeline"
)

func newMatchCmd() *cobra.Command {
	var (
		gtfPath      string
		format       string
		clustersPath string
		outputPath   string
		showVars     bool
	)

	cmd := &cobra.Command{
		Use:   "match [flags] <input.sam>",
		Short: "Match aligned isoforms against an annotation",
		Long: `Match each alignment of a position-sorted SAM file against a genome
annotation and write a per-read report with concordance scores 0-5.
Use '-' to read the SAM stream from stdin.`,
		Example: `  matchannot match --gtf gencode.gtf.gz aligned.sam
  matchannot match --gtf annotations.duckdb --clusters cluster_report.csv aligned.sam
  samtools view -h aligned.bam | matchannot match --gtf gencode.gtf.gz -o results.txt -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(args[0], gtfPath, format, clustersPath, outputPath, showVars)
		},
	}

	cmd.Flags().StringVar(&gtfPath, "gtf", "", "Annotation file: GTF (plain or gzipped) or DuckDB cache")
	cmd.Flags().StringVar(&format, "format", "", "Annotation format: standard, alt, cache (auto-detected if not specified)")
	cmd.Flags().StringVar(&clustersPath, "clusters", "", "Cluster report CSV; member reads are listed per isoform")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&showVars, "vars", false, "Report substitutions and deletions recovered from MD tags")
	cmd.MarkFlagRequired("gtf")

	return cmd
}

func runMatch(samPath, gtfPath, format, clustersPath, outputPath string, showVars bool) error {
	logger := newLogger()
	defer logger.Sync()

	index, err := loadIndex(gtfPath, format)
	if err != nil {
		return err
	}
	logger.Info("annotation loaded", zap.Int("genes", index.GeneCount()))

	p := pipeline.New(index)
	p.SetLogger(logger)
	p.SetShowVariants(showVars)
	p.SetVersion(version)
	if reach := viper.GetInt("polya.reach"); reach > 0 {
		p.SetPolyAReach(reach)
	}

	if clustersPath != "" {
		list, err := cluster.ReadFile(clustersPath)
		if err != nil {
			return err
		}
		p.SetClusters(list)
	}

	var in *os.File
	if samPath == "-" {
		in = os.Stdin
	} else {
		in, err = os.Open(samPath)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer in.Close()
	}

	out, closeOut, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeOut()

	_, err = p.Run(in, out)
	return err
}

// loadIndex builds the annotation index from a GTF file or a DuckDB
// cache. An empty format is resolved from the config default, then from
// the file name.
func loadIndex(path, format string) (*annot.Index, error) {
	if format == "" {
		if cache.IsCache(path) {
			format = "cache"
		} else {
			format = viper.GetString("annotation.format")
		}
	}

	switch format {
	case "cache":
		store, err := cache.Open(path)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return store.LoadIndex()
	case "standard":
		return gtf.NewLoader(path).Load()
	case "alt":
		return gtf.NewLoader(path).LoadFlat()
	default:
		return nil, fmt.Errorf("unknown annotation format %q (want standard, alt or cache)", format)
	}
}
