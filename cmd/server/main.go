package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/garyjia/travel-expense-portal/internal/config"
	"github.com/garyjia/travel-expense-portal/internal/container"
	"github.com/garyjia/travel-expense-portal/pkg/utils"
)

type flags struct {
	ConfigPath    string
	StorageDriver string
	Port          int
	LogLevel      string
}

func main() {
	opts := &flags{
		ConfigPath: "configs/config.yaml",
	}

	app := cli.App{
		Name:  "portal-server",
		Usage: "Serve the travel request and expense claim portal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				EnvVars:     []string{"PORTAL_CONFIG"},
				Value:       opts.ConfigPath,
				Destination: &(opts.ConfigPath),
			},
			&cli.StringFlag{
				Name:        "storage",
				Usage:       "override storage.driver (sqlite, file, memory)",
				Destination: &(opts.StorageDriver),
			},
			&cli.IntFlag{
				Name:        "port",
				Usage:       "override server.port",
				Destination: &(opts.Port),
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "override logger.level",
				Destination: &(opts.LogLevel),
			},
		},
		Action: func(c *cli.Context) error {
			return run(c.Context, opts)
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "portal-server: %v\n", err)
		os.Exit(1)
	}
}

func run(parent context.Context, opts *flags) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.StorageDriver != "" {
		cfg.Storage.Driver = opts.StorageDriver
	}
	if opts.Port != 0 {
		cfg.Server.Port = opts.Port
	}
	if opts.LogLevel != "" {
		cfg.Logger.Level = opts.LogLevel
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
		Service:    "travel-expense-portal",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("Starting travel expense portal",
		zap.String("address", cfg.Server.Addr()),
		zap.String("storage", cfg.Storage.Driver))

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("Container shutdown failed", zap.Error(err))
		}
	}()

	if err := c.Start(ctx); err != nil {
		return err
	}

	if err := c.Server().Start(ctx); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	logger.Info("Server exited")
	return nil
}
