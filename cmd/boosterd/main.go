package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"boosterd/internal/config"
	"boosterd/internal/httpapi"
	"boosterd/internal/infer"
	"boosterd/internal/prompt"
	"boosterd/internal/registry"
	"boosterd/internal/scheduler"
)

var version = "0.1.0"

func main() {
	defaultConfig := "boosterd.yaml"
	if v := os.Getenv("BOOSTERD_CONFIG"); v != "" {
		defaultConfig = v
	}

	var configPath string
	root := &cobra.Command{
		Use:   "boosterd",
		Short: "LLM request routing and sampling daemon",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfig, "path to the configuration file (yaml, json or toml)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Load models and serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("boosterd", version)
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, closeLog, err := newLogger(&cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	engine := infer.NewEngine(infer.Options{})
	reg, err := registry.New(engine, cfg.Models, logger)
	if err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	reg.LoadAll()
	defer reg.Close()

	templates := make(map[string]prompt.Template, len(cfg.Prompts))
	for name, p := range cfg.Prompts {
		templates[name] = prompt.Template{
			Name:      name,
			Locale:    p.Locale,
			Base:      p.Prompt,
			System:    p.System,
			User:      p.User,
			Assistant: p.Assistant,
		}
	}

	sched, err := scheduler.New(scheduler.Config{
		ServerID:        cfg.ID,
		Pods:            cfg.Pods,
		Samplings:       cfg.Samplings,
		Registry:        reg,
		Prompts:         prompt.New(templates),
		DefaultDeadline: time.Duration(cfg.Deadline) * time.Second,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	sched.Start()

	httpapi.SetLogger(logger)
	baseCtx, baseCancel := context.WithCancel(context.Background())
	defer baseCancel()
	httpapi.SetBaseContext(baseCtx)

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	srv := &http.Server{Addr: addr, Handler: httpapi.NewMux(sched)}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Str("server_id", cfg.ID).Msg("boosterd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	baseCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
	if err := sched.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("scheduler shutdown")
	}
	return nil
}

// newLogger builds the process logger: pretty console output by default,
// JSON to a file when config names one.
func newLogger(cfg *config.Config) (zerolog.Logger, func(), error) {
	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	if cfg.Log != "" {
		f, err := os.OpenFile(cfg.Log, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Logger{}, nil, fmt.Errorf("open log file: %w", err)
		}
		l := zerolog.New(f).Level(level).With().Timestamp().Logger()
		return l, func() { _ = f.Close() }, nil
	}
	cw := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	l := zerolog.New(cw).Level(level).With().Timestamp().Logger()
	return l, func() {}, nil
}
