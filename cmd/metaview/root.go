package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	outputFile string
	configFile string
	verbose    bool
	noColor    bool

	output io.Writer
	cfg    *Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "metaview",
	Short: "Type metadata viewer",
	Long: `metaview is a command-line tool for browsing type metadata:
assemblies, types, merged member lists, attributes and method bodies.

A source is either one or more assembly manifests (.yaml or .yml files,
later manifests may reference types of earlier ones) or Go package
patterns, which are type-checked from source.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(configFile)
		if err != nil {
			return err
		}

		if verbose {
			logger, err = zap.NewDevelopment()
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
		} else {
			logger = zap.NewNop()
		}

		if noColor || !cfg.Output.Color {
			color.NoColor = true
		}

		if outputFile != "" {
			f, err := os.Create(outputFile)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			output = f
			color.NoColor = true
		} else {
			output = color.Output
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if f, ok := output.(*os.File); ok && f != os.Stdout {
			f.Close()
		}
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "write output to file instead of stdout")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default metaview.yaml in . or $HOME/.config/metaview)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log registry diagnostics to stderr")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(assembliesCmd)
	rootCmd.AddCommand(typesCmd)
	rootCmd.AddCommand(membersCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(ilCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(exportCmd)
}
