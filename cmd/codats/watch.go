package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pradeepp3/CODATS/pkg/config"
	"github.com/pradeepp3/CODATS/pkg/redact"
	"github.com/pradeepp3/CODATS/pkg/report"
	"github.com/pradeepp3/CODATS/pkg/scanner"
	"github.com/pradeepp3/CODATS/pkg/watch"
)

type watchOptions struct {
	language  string
	format    string
	redact    bool
	noColor   bool
	verbose   bool
	debounce  time.Duration
	recursive bool
}

func newWatchCmd(global *globalOptions) *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch [paths...]",
		Short: "Re-scan files whenever they change",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := global.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			return runWatch(cmd.Context(), cmd.OutOrStdout(), args, opts, cfg, logger)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.language, "language", "l", "", "language id (default: detected from file extension)")
	f.StringVarP(&opts.format, "format", "f", "text", "output format: text, json or yaml")
	f.BoolVar(&opts.redact, "redact", false, "mask secrets in reported snippets")
	f.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "show snippets and fixes")
	f.DurationVar(&opts.debounce, "debounce", watch.DefaultDebounceInterval, "quiet period before a changed file is scanned")
	f.BoolVarP(&opts.recursive, "recursive", "r", true, "watch subdirectories")

	return cmd
}

func runWatch(ctx context.Context, out io.Writer, paths []string, opts *watchOptions, cfg *config.Config, logger *zap.SugaredLogger) error {
	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	if format == report.FormatSARIF {
		return fmt.Errorf("sarif output is not supported in watch mode")
	}

	var redactor *redact.Redactor
	if opts.redact || cfg.Scanner.RedactSnippets {
		redactor = redact.New()
	}

	var mu sync.Mutex
	reportOpts := report.Options{
		Format:  format,
		Color:   format == report.FormatText && !opts.noColor && isTerminal(out),
		Verbose: opts.verbose,
	}

	wcfg := watch.Config{
		Paths:            paths,
		Recursive:        opts.recursive,
		DebounceInterval: opts.debounce,
		Language:         opts.language,
		MaxCodeLength:    cfg.Scanner.MaxCodeLength,
		Logger:           logger,
		OnResult: func(path string, result *scanner.Result, err error) {
			fr := report.FileResult{Path: path, Result: result}
			if err != nil {
				fr.Error = err.Error()
			}
			if result != nil && redactor != nil {
				result.MapSnippets(redactor.String)
			}

			mu.Lock()
			defer mu.Unlock()
			if err := report.Write(out, []report.FileResult{fr}, reportOpts); err != nil {
				logger.Errorw("Failed to write report", "path", path, "error", err)
			}
		},
	}

	engine := scanner.New(scanner.Options{Timeout: cfg.Scanner.Timeout, Logger: logger})
	w, err := watch.New(engine, wcfg)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		w.Stop()
		return err
	}

	select {
	case <-ctx.Done():
	case <-w.Done():
	}
	logger.Infow("Stopping watcher")
	return w.Stop()
}
