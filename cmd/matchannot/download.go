package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// GENCODE FTP URLs
const (
	gencodeBaseURL = "https://ftp.ebi.ac.uk/pub/databases/gencode/Gencode_human/release_46"
	gencodeVersion = "v46"
)

// gencodeGTFURL returns the annotation GTF URL for the given assembly.
func gencodeGTFURL(assembly string) string {
	if strings.EqualFold(assembly, "GRCh37") {
		return fmt.Sprintf("%s/GRCh37_mapping/gencode.%slift37.annotation.gtf.gz", gencodeBaseURL, gencodeVersion)
	}
	return fmt.Sprintf("%s/gencode.%s.annotation.gtf.gz", gencodeBaseURL, gencodeVersion)
}

func newDownloadCmd() *cobra.Command {
	var (
		assembly  string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download GENCODE annotation files",
		Long: `Download the GENCODE annotation GTF for an assembly into the local
annotation directory (~/.matchannot by default).`,
		Example: `  matchannot download
  matchannot download --assembly GRCh37
  matchannot download --output /data/gencode`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(assembly, outputDir)
		},
	}

	cmd.Flags().StringVar(&assembly, "assembly", "GRCh38", "Genome assembly: GRCh37 or GRCh38")
	cmd.Flags().StringVar(&outputDir, "output", "", "Output directory (default: ~/.matchannot/)")

	return cmd
}

func runDownload(assembly, outputDir string) error {
	if outputDir == "" {
		dir, err := defaultCacheDir()
		if err != nil {
			return err
		}
		outputDir = dir
	}

	destDir := filepath.Join(outputDir, strings.ToLower(assembly))
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", destDir, err)
	}

	gtfURL := gencodeGTFURL(assembly)
	destFile := filepath.Join(destDir, filepath.Base(gtfURL))

	fmt.Fprintf(os.Stderr, "Downloading GENCODE %s annotations for %s...\n", gencodeVersion, assembly)
	fmt.Fprintf(os.Stderr, "Destination: %s\n", destFile)

	if err := downloadFile(gtfURL, destFile); err != nil {
		return fmt.Errorf("downloading GTF: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Done. Use it with:\n  matchannot match --gtf %s <input.sam>\n", destFile)
	return nil
}

// downloadFile fetches a URL into a file, writing to a temporary name
// first so an interrupted download never leaves a truncated file behind.
func downloadFile(url, dest string) error {
	client := &http.Client{Timeout: 30 * time.Minute}

	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s for %s", resp.Status, url)
	}

	tmp := dest + ".partial"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, dest)
}
