// mathflow-server serves the mathflow operations over HTTP.
//
// Usage:
//
//	mathflow-server [--config mathflow.yaml] [--address :8000]
//
// Typed endpoints:  POST /api/factor, /api/calculus/..., /api/vector/..., /api/integral/...
// Tool endpoint:    POST /tool
// Schema endpoint:  GET  /schema
// Health endpoint:  GET  /health
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/njchilds90/mathflow"
	"github.com/njchilds90/mathflow/config"
	"github.com/njchilds90/mathflow/server"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var configPath, address, logLevel, logFormat string

	flagSet := pflag.NewFlagSet("mathflow-server", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to a YAML or JSONC config file (default: $"+config.EnvVar+")")
	flagSet.StringVar(&address, "address", "", "listen address, overriding server.address")
	flagSet.StringVar(&logLevel, "log-level", "", "debug, info, warn or error, overriding log.level")
	flagSet.StringVar(&logFormat, "log-format", "", "json or text, overriding log.format")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if address != "" {
		cfg.Server.Address = address
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		return err
	}

	handler := server.New(server.Config{
		Engine:            mathflow.New(cfg.EngineOptions(logger)),
		Logger:            logger,
		MaxBodyBytes:      cfg.Server.MaxBodyBytes,
		RequestsPerSecond: cfg.Server.RateLimit.RequestsPerSecond,
		Burst:             cfg.Server.RateLimit.Burst,
	})
	srv := server.NewHTTPServer(server.HTTPServerConfig{
		Address:         cfg.Server.Address,
		Handler:         handler,
		Logger:          logger,
		ShutdownTimeout: cfg.Server.ShutdownTimeout.Duration,
		ReadTimeout:     cfg.Server.ReadTimeout.Duration,
		WriteTimeout:    cfg.Server.WriteTimeout.Duration,
		IdleTimeout:     cfg.Server.IdleTimeout.Duration,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(ctx) })
	g.Go(func() error {
		select {
		case <-srv.Ready():
			logger.Info("mathflow ready",
				"operations", len(mathflow.Catalog()),
				"routes", len(server.Routes),
				"cache_size", cfg.Cache.Size,
				"timeout", cfg.Engine.Timeout.Duration)
		case <-ctx.Done():
		}
		return nil
	})
	return g.Wait()
}
