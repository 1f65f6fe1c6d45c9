// Package cli implements the schemadiff command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/koustreak/schemadiff/internal/config"
	"github.com/koustreak/schemadiff/internal/logger"
)

// Exit codes returned by Execute.
const (
	ExitOK       = 0
	ExitMismatch = 1
	ExitError    = 2
)

// ErrMismatch is returned by compare when the schemas differ.
var ErrMismatch = errors.New("schemas differ")

const version = "0.1.0"

type app struct {
	configDir string
	logLevel  string
	logFormat string

	cfg *config.Config
	log *logger.Logger
}

// NewRootCommand builds the schemadiff command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "schemadiff",
		Short:         "Compare the schemas of two databases",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configDir, "config-dir", ".", "directory holding schemadiff.yaml and .env")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "", "log format (json, console)")

	root.AddCommand(
		newCompareCommand(a),
		newInspectorsCommand(a),
		newServeCommand(a),
	)
	return root
}

func (a *app) init(stderr io.Writer) error {
	cfg, err := config.Load(a.configDir)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	cfg.Log.Output = stderr

	a.cfg = cfg
	a.log = logger.New(&cfg.Log)
	logger.SetGlobal(a.log)
	return nil
}

// Execute runs the command line with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrMismatch):
		return ExitMismatch
	default:
		fmt.Fprintln(stderr, "Error:", err)
		return ExitError
	}
}
