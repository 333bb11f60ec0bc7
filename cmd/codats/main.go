// Command codats scans source files for common security vulnerabilities.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pradeepp3/CODATS/pkg/config"
	"github.com/pradeepp3/CODATS/pkg/logging"
)

const version = "1.0.0"

// Exit codes.
const (
	exitOK        = 0
	exitError     = 1
	exitRiskLimit = 2
)

// exitCodeError carries a process exit code out of a command.
type exitCodeError struct {
	code int
	msg  string
}

func (e *exitCodeError) Error() string { return e.msg }

type globalOptions struct {
	configPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "codats",
		Short:         "CODATS - rule-based static vulnerability scanner",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to configuration file (default ~/.codats/config.yaml)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newScanCmd(opts),
		newWatchCmd(opts),
		newRulesCmd(),
		newLanguagesCmd(),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return root
}

// load reads the configuration and builds the logger.
func (o *globalOptions) load() (*config.Config, *zap.SugaredLogger, error) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}

	var cfg *config.Config
	if o.configPath != "" {
		cfg, err = config.LoadFrom(o.configPath, cwd)
	} else {
		cfg, err = config.Load(cwd)
	}
	if err != nil {
		return nil, nil, err
	}

	logCfg := cfg.Logging
	if o.debug {
		logCfg.Level = "debug"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.ProjectPath != "" {
		logger.Debugw("Applied project configuration", "path", cfg.ProjectPath)
	}
	return cfg, logger, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "codats %s\n", version)
		},
	}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var exitErr *exitCodeError
	if errors.As(err, &exitErr) {
		if exitErr.msg != "" {
			fmt.Fprintln(os.Stderr, exitErr.msg)
		}
		return exitErr.code
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return exitError
}
