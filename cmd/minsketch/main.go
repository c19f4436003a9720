// Command minsketch builds and inspects MinHash sketch files.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/hupe1980/minsketch"
	promcollector "github.com/hupe1980/minsketch/metrics/prometheus"
)

type runtime struct {
	cfg    *Config
	logger *minsketch.Logger
	out    io.Writer

	metrics  minsketch.MetricsCollector
	registry *prom.Registry
}

// collector returns the command's metrics sink, a Prometheus registry when a
// textfile is configured.
func (rt *runtime) collector() minsketch.MetricsCollector {
	if rt.metrics != nil {
		return rt.metrics
	}
	if rt.cfg.Metrics.Textfile != "" {
		rt.registry = prom.NewRegistry()
		rt.metrics = promcollector.NewCollector(rt.registry)
	} else {
		rt.metrics = &minsketch.BasicMetricsCollector{}
	}
	return rt.metrics
}

func (rt *runtime) writeMetrics() error {
	if rt.registry == nil {
		return nil
	}
	if err := prom.WriteToTextfile(rt.cfg.Metrics.Textfile, rt.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout, os.Stderr).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "minsketch:", err)
		code := 1
		var ec cli.ExitCoder
		if errors.As(err, &ec) {
			code = ec.ExitCode()
		}
		os.Exit(code)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	rt := &runtime{out: stdout}

	return &cli.App{
		Name:      "minsketch",
		Usage:     "build and inspect MinHash sketch files",
		Writer:    stdout,
		ErrWriter: stderr,
		// Exit codes are handled in main so the app can run in tests.
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
				EnvVars: []string{"MINSKETCH_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "text or json",
			},
			&cli.StringFlag{
				Name:    "store",
				Aliases: []string{"s"},
				Usage:   "local directory holding sketch files (overrides store.path)",
			},
			&cli.StringFlag{
				Name:  "metrics-textfile",
				Usage: "write Prometheus metrics to this file on exit",
			},
		},
		Before: func(c *cli.Context) error {
			cfg, err := readConfig(c.String("config"))
			if err != nil {
				return err
			}
			if c.IsSet("log-level") {
				cfg.LogLevel = c.String("log-level")
			}
			if c.IsSet("log-format") {
				cfg.LogFormat = c.String("log-format")
			}
			if c.IsSet("store") {
				cfg.Store.Type = "local"
				cfg.Store.Path = c.String("store")
			}
			if c.IsSet("metrics-textfile") {
				cfg.Metrics.Textfile = c.String("metrics-textfile")
			}
			if err := cfg.validate(); err != nil {
				return err
			}

			level, _ := cfg.logLevel()
			opts := &slog.HandlerOptions{Level: level}
			var handler slog.Handler = slog.NewTextHandler(stderr, opts)
			if cfg.LogFormat == "json" {
				handler = slog.NewJSONHandler(stderr, opts)
			}

			rt.cfg = cfg
			rt.logger = minsketch.NewLogger(handler)
			return nil
		},
		After: func(*cli.Context) error {
			return rt.writeMetrics()
		},
		Commands: []*cli.Command{
			buildCommand(rt),
			dumpCommand(rt),
			filterCommand(rt),
			similarityCommand(rt),
			infoCommand(rt),
		},
	}
}
