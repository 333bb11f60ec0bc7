package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pradeepp3/CODATS/pkg/config"
	"github.com/pradeepp3/CODATS/pkg/language"
	"github.com/pradeepp3/CODATS/pkg/redact"
	"github.com/pradeepp3/CODATS/pkg/report"
	"github.com/pradeepp3/CODATS/pkg/scanner"
	"github.com/pradeepp3/CODATS/pkg/watch"
)

// stdinPath is the argument that reads code from standard input.
const stdinPath = "-"

type scanOptions struct {
	language  string
	format    string
	redact    bool
	noColor   bool
	verbose   bool
	timeout   time.Duration
	maxLength int
	failScore int
}

func newScanCmd(global *globalOptions) *cobra.Command {
	opts := &scanOptions{}

	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Scan files or directories for vulnerabilities",
		Long: `Scan source files for common security vulnerabilities.

Directories are walked recursively and every supported file is scanned.
Use "-" to read code from standard input.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := global.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			return runScan(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), args, opts, cfg, logger)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.language, "language", "l", "", "language id (default: detected from file extension)")
	f.StringVarP(&opts.format, "format", "f", "text", "output format: text, json, yaml or sarif")
	f.BoolVar(&opts.redact, "redact", false, "mask secrets in reported snippets")
	f.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "show snippets and fixes")
	f.DurationVar(&opts.timeout, "timeout", 0, "per-file scan time budget (default from config)")
	f.IntVar(&opts.maxLength, "max-length", 0, "largest file to scan, in characters (default from config)")
	f.IntVar(&opts.failScore, "fail-score", 0, "exit with status 2 when any file reaches this risk score")

	return cmd
}

func runScan(ctx context.Context, stdin io.Reader, out io.Writer, args []string, opts *scanOptions, cfg *config.Config, logger *zap.SugaredLogger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	timeout := cfg.Scanner.Timeout
	if opts.timeout > 0 {
		timeout = opts.timeout
	}
	maxLength := cfg.Scanner.MaxCodeLength
	if opts.maxLength > 0 {
		maxLength = opts.maxLength
	}

	engine := scanner.New(scanner.Options{Timeout: timeout, Logger: logger})

	var redactor *redact.Redactor
	if opts.redact || cfg.Scanner.RedactSnippets {
		redactor = redact.New()
	}

	var results []report.FileResult
	for _, arg := range args {
		if arg == stdinPath {
			results = append(results, scanReader(ctx, engine, stdin, opts.language, cfg.Scanner.DefaultLanguage, maxLength))
			continue
		}

		files, err := collectFiles(arg)
		if err != nil {
			results = append(results, report.FileResult{Path: arg, Error: err.Error()})
			continue
		}
		for _, path := range files {
			logger.Debugw("Scanning file", "path", path)
			result, err := engine.ScanFile(ctx, path, opts.language, maxLength)
			if err != nil {
				results = append(results, report.FileResult{Path: path, Error: err.Error()})
				continue
			}
			results = append(results, report.FileResult{Path: path, Result: result})
		}
	}

	if redactor != nil {
		for _, r := range results {
			if r.Result != nil {
				r.Result.MapSnippets(redactor.String)
			}
		}
	}

	err = report.Write(out, results, report.Options{
		Format:  format,
		Color:   format == report.FormatText && !opts.noColor && isTerminal(out),
		Verbose: opts.verbose,
		Version: version,
	})
	if err != nil {
		return err
	}

	if opts.failScore > 0 {
		if risk := report.MaxRisk(results); risk >= opts.failScore {
			return &exitCodeError{
				code: exitRiskLimit,
				msg:  fmt.Sprintf("risk score %d reached the --fail-score threshold %d", risk, opts.failScore),
			}
		}
	}
	for _, r := range results {
		if r.Error != "" {
			return &exitCodeError{code: exitError}
		}
	}
	return nil
}

func scanReader(ctx context.Context, engine *scanner.Engine, r io.Reader, lang, defaultLang string, maxLength int) report.FileResult {
	fr := report.FileResult{Path: "<stdin>"}

	data, err := io.ReadAll(r)
	if err != nil {
		fr.Error = err.Error()
		return fr
	}
	code := string(data)
	if err := scanner.ValidateInput(code, maxLength); err != nil {
		fr.Error = err.Error()
		return fr
	}
	if lang == "" {
		lang = defaultLang
	}

	result, err := engine.Scan(ctx, code, lang)
	if err != nil {
		fr.Error = err.Error()
		return fr
	}
	fr.Result = result
	return fr
}

// collectFiles expands a path argument. A file is returned as is; a
// directory yields every supported file below it, in lexical order.
func collectFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != path && watch.SkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && language.IsSupportedFile(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && report.ColorEnabled(f)
}
