package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/ctag/internal/config"
	"github.com/rohankatakam/ctag/internal/errors"
	"github.com/rohankatakam/ctag/internal/logging"
	"github.com/rohankatakam/ctag/internal/output"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile      string
	verbose      bool
	outputFormat string
	logger       *logrus.Logger
	logCloser    io.Closer
	cfg          *config.Config
)

func main() {
	os.Exit(run())
}

func run() int {
	defer func() {
		if logCloser != nil {
			logCloser.Close()
		}
	}()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		reportError(os.Stderr, err, verbose)
		return exitCode(err)
	}
	return 0
}

// Exit codes for scripts wrapping ctag
const (
	exitFailure            = 1
	exitConfig             = 2
	exitCatalog            = 3
	exitCatalogUnavailable = 4
)

// reportError prints err; with verbose, structured errors include their context and stack
func reportError(w io.Writer, err error, verbose bool) {
	var structured *errors.Error
	if verbose && stderrors.As(err, &structured) {
		fmt.Fprintf(w, "Error: %v\n%s", err, structured.DetailedString())
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

func exitCode(err error) int {
	switch {
	case stderrors.Is(err, errors.ErrConfig):
		return exitConfig
	case stderrors.Is(err, errors.ErrCatalog):
		return exitCatalog
	case stderrors.Is(err, errors.ErrCatalogUnavailable):
		return exitCatalogUnavailable
	default:
		return exitFailure
	}
}

var rootCmd = &cobra.Command{
	Use:   "ctag",
	Short: "ctag - keyword tagging for git commits",
	Long: `ctag tags commits with keywords from a catalog. A keyword found in the
commit message, the changed paths or the diff pulls in every ancestor
keyword of the catalog's tag graph.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to load config, using defaults: %v\n", err)
			cfg = config.Default()
		}

		logCfg := logging.DefaultConfig(verbose)
		if !verbose && cfg.Log.Level != "" {
			logCfg.Level = cfg.Log.Level
		}
		logCfg.OutputFile = cfg.Log.File
		logCfg.JSONFormat = cfg.Log.JSON

		logger, logCloser, err = logging.New(logCfg)
		if err != nil {
			return err
		}

		if _, err := output.ResolveFormat(output.Format(outputFormat), os.Stdout); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .ctag/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json or auto")

	rootCmd.SetVersionTemplate(`ctag {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(projectizeCmd)
	rootCmd.AddCommand(catalogCmd)
}

// format returns the resolved --output format for stdout
func format() output.Format {
	f, err := output.ResolveFormat(output.Format(outputFormat), os.Stdout)
	if err != nil {
		return output.FormatText
	}
	return f
}
