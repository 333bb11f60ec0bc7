// Command codatsd serves the CODATS scanning API over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pradeepp3/CODATS/pkg/config"
	"github.com/pradeepp3/CODATS/pkg/explain"
	"github.com/pradeepp3/CODATS/pkg/logging"
	"github.com/pradeepp3/CODATS/pkg/scanner"
	"github.com/pradeepp3/CODATS/pkg/server"
	"github.com/pradeepp3/CODATS/pkg/storage"
)

const version = "1.0.0"

type daemonOptions struct {
	host       string
	port       int
	configPath string
	explain    string
	endpoint   string
	model      string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	opts := &daemonOptions{}

	cmd := &cobra.Command{
		Use:           "codatsd",
		Short:         "CODATS API server",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.host, "host", "", "host to bind to (default from config, localhost)")
	f.IntVar(&opts.port, "port", 0, "port to listen on (default from config, 5000)")
	f.StringVar(&opts.configPath, "config", "", "path to configuration file")
	f.StringVar(&opts.explain, "explain", "", "explanation provider: static or ollama")
	f.StringVar(&opts.endpoint, "explain-endpoint", "", "Ollama API endpoint")
	f.StringVar(&opts.model, "explain-model", "", "Ollama model")
	f.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	f.StringVar(&opts.logFormat, "log-format", "", "log format: console or json")

	return cmd
}

// loadConfig reads the configuration file and applies command line overrides.
func loadConfig(cmd *cobra.Command, opts *daemonOptions) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if opts.configPath != "" {
		cfg, err = config.LoadFrom(opts.configPath, "")
	} else {
		cfg, err = config.Load("")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host = opts.host
	}
	if flags.Changed("port") {
		cfg.Server.Port = opts.port
	}
	if flags.Changed("explain") {
		cfg.Explain.Provider = opts.explain
	}
	if flags.Changed("explain-endpoint") {
		cfg.Explain.Endpoint = opts.endpoint
	}
	if flags.Changed("explain-model") {
		cfg.Explain.Model = opts.model
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = opts.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = opts.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// serverConfig maps the file configuration onto the server settings.
func serverConfig(cfg *config.Config) server.Config {
	return server.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MaxUploadBytes:  cfg.MaxUploadBytes(),
		MaxBodyBytes:    server.DefaultConfig().MaxBodyBytes,
		MaxCodeLength:   cfg.Scanner.MaxCodeLength,
		DefaultLanguage: cfg.Scanner.DefaultLanguage,
		RedactSnippets:  cfg.Scanner.RedactSnippets,
	}
}

// newExplainer builds the explanation service for the configured provider.
func newExplainer(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) *explain.Service {
	var backend explain.Backend
	if cfg.Explain.Provider == "ollama" {
		ollama := explain.NewOllama(explain.OllamaConfig{
			Endpoint: cfg.Explain.Endpoint,
			Model:    cfg.Explain.Model,
			Timeout:  cfg.Explain.Timeout,
		})

		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if ollama.IsAvailable(checkCtx) {
			logger.Infow("Explanation backend ready", "backend", ollama.Name(), "model", ollama.Config().Model)
		} else {
			logger.Warnw("Explanation backend not reachable, built-in explanations will be used until it is",
				"backend", ollama.Name(),
				"endpoint", ollama.Config().Endpoint,
			)
		}
		cancel()
		backend = ollama
	}
	return explain.NewService(backend, nil, cfg.Explain.MaxFindings, logger)
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Infow("CODATS daemon starting", "version", version)

	engine := scanner.New(scanner.Options{
		Timeout: cfg.Scanner.Timeout,
		Logger:  logger,
	})
	store := storage.NewMemoryStore(cfg.Server.HistorySize)

	server.Version = version
	srv := server.New(serverConfig(cfg), engine, store, logger)
	explainer := newExplainer(ctx, cfg, logger)
	srv.SetExplainer(explainer)

	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	logger.Infow("Daemon running",
		"addr", "http://"+srv.Addr(),
		"explain", explainer.Backend(),
	)

	<-ctx.Done()
	logger.Infow("Shutting down")

	if err := srv.Stop(); err != nil {
		logger.Errorw("Error during shutdown", "error", err)
	}
	if err := store.Close(); err != nil {
		logger.Errorw("Error closing storage", "error", err)
	}

	logger.Infow("Daemon stopped")
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
