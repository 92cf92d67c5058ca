package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guseggert/roadkill/abort"
	"github.com/guseggert/roadkill/driver"
	"github.com/guseggert/roadkill/internal/config"
	"github.com/guseggert/roadkill/supervisor"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:  "roadkill",
		Usage: "diagnose and drive a local WebDriver remote end",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file.",
				EnvVars: []string{"ROADKILL_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Log driver output and WebDriver traffic.",
			},
			&cli.StringFlag{
				Name:  "executable",
				Usage: "Driver executable name or path, overriding the config.",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "report how the driver executable resolves, and optionally start it",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "start",
						Usage: "Start the driver, probe its status endpoint and stop it.",
					},
				},
				Action: status,
			},
			{
				Name:  "screenshot",
				Usage: "open URLs in fresh sessions and save screenshots",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "url",
						Usage:    "URL to capture. May be repeated.",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "Output PNG file. With several URLs, an index is added before the extension.",
						Value: "screenshot.png",
					},
				},
				Action: screenshot,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

type env struct {
	cfg config.Config
	log *zap.Logger
}

// setup loads the config and installs the command context as the ambient token,
// so an interrupt aborts every pending WebDriver call.
func setup(c *cli.Context) (*env, func(), error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	if exe := c.String("executable"); exe != "" {
		cfg.Driver.Executable = exe
	}

	var logger *zap.Logger
	if c.Bool("debug") {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("building logger: %w", err)
	}

	restore := abort.SetAmbient(c.Context)
	cleanup := func() {
		restore()
		logger.Sync()
	}
	return &env{cfg: cfg, log: logger}, cleanup, nil
}

// startDriver starts d for the lifetime of ctx, giving up after timeout.
func startDriver(ctx context.Context, d *driver.Driver, timeout time.Duration) (string, error) {
	timer := time.AfterFunc(timeout, func() { d.Dispose(context.Background()) })
	addr, err := d.Start(ctx)
	if !timer.Stop() {
		if err == nil {
			err = supervisor.ErrDisposed
		}
		return "", fmt.Errorf("%s did not start within %s: %w", d.Name(), timeout, err)
	}
	if err != nil {
		return "", fmt.Errorf("starting %s: %w", d.Name(), err)
	}
	return addr, nil
}
