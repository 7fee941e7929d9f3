// Package main provides the PDF reader CLI entrypoint.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spherical/pdf-reader/internal/config"
	"github.com/spherical/pdf-reader/internal/domain"
	"github.com/spherical/pdf-reader/internal/extract"
	"github.com/spherical/pdf-reader/internal/observability"
	"github.com/spherical/pdf-reader/internal/pdf"
	"github.com/spherical/pdf-reader/internal/present"
)

var version = "0.1.0"

var (
	// Global flags
	cfgFile    string
	outputJSON bool
	verbose    bool
	noColor    bool

	// Configuration and logger
	cfg    *config.Config
	logger *observability.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pdf-reader",
	Short: "Read PDF documents as canvases, text, HTML or page images",
	Long: `pdf-reader loads a PDF and presents it in one of four modes:

- canvas: every page rendered at 1.5x onto its own surface
- text:   the text content of each page, pages separated by a blank line
- html:   absolutely positioned spans reproducing the page layout
- image:  one PNG per page

Use "extract" for a single file or "serve" to expose reader sessions over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		level := cfg.Observability.LogLevel
		if verbose {
			level = "debug"
		}
		format := cfg.Observability.LogFormat
		if outputJSON {
			format = "json"
		}

		logger = observability.NewLogger(observability.LogConfig{
			Level:       level,
			Format:      format,
			ServiceName: "pdf-reader",
		})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "write logs as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newExtractCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pdf-reader version %s\n", version)
		},
	}
}

// newAdapter wires one reader instance from the loaded configuration.
// Every instance shares the process-wide engine bootstrap.
func newAdapter(engine *pdf.FitzEngine, notifier domain.Notifier, log *observability.Logger) *present.Adapter {
	return present.NewAdapter(present.Deps{
		Validator: pdf.NewValidator(cfg.Upload.AcceptedType, cfg.Upload.MaxSizeMB),
		Loader:    pdf.NewLoader(engine, log),
		Pipeline: extract.NewPipeline(extract.Config{
			Scale:           cfg.Render.Scale,
			PageConcurrency: cfg.Render.PageConcurrency,
		}, log),
		Bootstrap: pdf.EngineBootstrap,
		Notifier:  notifier,
		Logger:    log,
	})
}
