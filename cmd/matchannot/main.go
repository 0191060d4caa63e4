// Package main provides the matchannot command-line tool.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var verbose bool

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "matchannot",
		Short:   "Match IsoSeq transcript alignments against a genome annotation",
		Version: fmt.Sprintf("%s (%s) built %s", version, commit, date),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable progress logging")

	root.AddCommand(newMatchCmd())
	root.AddCommand(newShowCmd())
	root.AddCommand(newConvertCmd())
	root.AddCommand(newDownloadCmd())
	root.AddCommand(newConfigCmd())

	return root
}

// initConfig loads ~/.matchannot.yaml if present. Flags win over config
// values, config values win over defaults.
func initConfig() error {
	viper.SetDefault("polya.reach", 30)
	viper.SetDefault("annotation.format", "standard")

	home, err := os.UserHomeDir()
	if err != nil {
		return nil // no home, no config file
	}
	viper.AddConfigPath(home)
	viper.SetConfigName(".matchannot")
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// newLogger builds the CLI logger. Progress output goes to stderr and
// stays out of the report stream.
func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// openOutput opens the report destination, stdout when path is empty.
func openOutput(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// defaultCacheDir is where downloaded annotations live.
func defaultCacheDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".matchannot"), nil
}
