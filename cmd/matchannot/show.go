package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matchannot/matchannot/internal/annot"
)

func newShowCmd() *cobra.Command {
	var (
		gtfPath string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "show --gtf <file> <gene>",
		Short: "Print the annotation entries of one gene",
		Long: `Print the transcripts and exons of a named gene in a human-readable
layout. Gene names are not unique across an annotation; every gene
carrying the name is printed.`,
		Example: `  matchannot show --gtf gencode.gtf.gz TP53
  matchannot show --gtf annotations.duckdb BRCA1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(gtfPath, format, args[0])
		},
	}

	cmd.Flags().StringVar(&gtfPath, "gtf", "", "Annotation file: GTF (plain or gzipped) or DuckDB cache")
	cmd.Flags().StringVar(&format, "format", "", "Annotation format: standard, alt, cache (auto-detected if not specified)")
	cmd.MarkFlagRequired("gtf")

	return cmd
}

func runShow(gtfPath, format, geneName string) error {
	index, err := loadIndex(gtfPath, format)
	if err != nil {
		return err
	}

	genes, err := index.GenesNamed(geneName)
	if err != nil {
		return err
	}

	for _, gene := range genes {
		showGene(gene)
	}
	return nil
}

func showGene(gene *annot.Annotation) {
	fmt.Fprintf(os.Stdout, "gene:    %-32s  %9d  %9d  %s\n",
		gene.Name, gene.Start, gene.End, annot.StrandString(gene.Strand))

	for _, tran := range gene.Children() {
		fmt.Fprintf(os.Stdout, "tr:        %-30s  %9d  %9d  len: %6d  id: %s\n",
			tran.Name, tran.Start, tran.End, tran.Length, tran.ID)
		if tran.StartCodon != 0 {
			fmt.Fprintf(os.Stdout, "             start codon at %d\n", tran.StartCodon)
		}
		if tran.StopCodon != 0 {
			fmt.Fprintf(os.Stdout, "             stop codon at %d\n", tran.StopCodon)
		}
		for _, exon := range tran.Children() {
			fmt.Fprintf(os.Stdout, "exon:        %-28s  %9d  %9d  len: %6d\n",
				exon.Name, exon.Start, exon.End, exon.End-exon.Start+1)
		}
	}
}
