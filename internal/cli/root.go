// Package cli implements the docmark command line.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nerdneilsfield/go-docmark/internal/config"
	"github.com/nerdneilsfield/go-docmark/internal/logger"
	"github.com/nerdneilsfield/go-docmark/internal/stats"
	"github.com/nerdneilsfield/go-docmark/pkg/docmark"
)

var (
	cfgFile    string
	lang       string
	imagesDir  string
	skipImages bool
	debugMode  bool
	showStats  bool
)

// NewRootCommand creates the root command.
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "docmark [flags] input.docx [output.md]",
		Short: "docmark converts word-processing documents to Markdown",
		Long: `docmark converts .docx documents to Markdown, preserving headings,
lists, tables, inline formatting, footnotes and embedded images.

Images are inlined as data URIs by default; --images-dir exports them as
files next to the output, and --skip-images drops them. With --lang ko,
Korean statute headers (제N편/장/절/조) are promoted to headings.

When no output file is given the Markdown is written to stdout.`,
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		Args:    cobra.RangeArgs(1, 2),
		RunE:    runConvert,
	}

	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "config file (default .docmark.yaml in . or $HOME)")
	rootCmd.Flags().StringVar(&lang, "lang", "", "document language for heading localization (e.g. ko)")
	rootCmd.Flags().StringVar(&imagesDir, "images-dir", "", "export images to this directory instead of inlining them")
	rootCmd.Flags().BoolVar(&skipImages, "skip-images", false, "drop images from the output")
	rootCmd.Flags().BoolVar(&debugMode, "debug", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&showStats, "stats", false, "print a conversion summary table")

	return rootCmd
}

func runConvert(cmd *cobra.Command, args []string) error {
	// Past argument parsing, failures are conversion errors, not usage errors.
	cmd.SilenceUsage = true

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)

	log := logger.New(cfg.Debug)
	defer func() {
		_ = log.Sync()
	}()

	opts := docmark.Options{
		Language:       cfg.Language,
		ImageHandling:  cfg.ImageMode(),
		ImageOutputDir: cfg.ImageOutputDir,
		Logger:         log,
	}

	input := args[0]
	start := time.Now()
	markdown, err := docmark.New(opts).ConvertFile(input)
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "conversion failed: %v\n", err)
		return err
	}
	elapsed := time.Since(start)

	output := ""
	if len(args) == 2 {
		output = args[1]
		if err := os.WriteFile(output, []byte(markdown+"\n"), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		color.New(color.FgGreen).Fprintf(os.Stderr, "converted %s -> %s\n", input, output)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), markdown)
	}

	if showStats {
		summary := stats.Conversion{
			Input:       input,
			Output:      output,
			OutputBytes: len(markdown),
			Duration:    elapsed,
		}
		if fi, err := os.Stat(input); err == nil {
			summary.InputBytes = fi.Size()
		}
		summary.Print(os.Stderr)
	}
	return nil
}

// applyFlags lets explicitly set flags override file and environment values.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("lang") {
		cfg.Language = lang
	}
	if cmd.Flags().Changed("images-dir") {
		cfg.ImageHandling = config.ImageHandlingExtract
		cfg.ImageOutputDir = imagesDir
	}
	if cmd.Flags().Changed("skip-images") && skipImages {
		cfg.ImageHandling = config.ImageHandlingSkip
	}
	if cmd.Flags().Changed("debug") {
		cfg.Debug = debugMode
	}
}

// Execute runs the root command with version metadata baked in by the build.
func Execute(version, commit, buildDate string) error {
	return NewRootCommand(version, commit, buildDate).Execute()
}
