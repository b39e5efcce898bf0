package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/prismrt/prism/pkg/config"
	"github.com/prismrt/prism/pkg/engine"
	"github.com/prismrt/prism/pkg/session"
)

func runCmd() *cli.Command {
	var (
		configPath string
		backend    string
		logLevel   string
	)

	return &cli.Command{
		Name:      "run",
		Usage:     "Evaluate a Lisp scene script",
		ArgsUsage: "<script.lisp>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to prism.toml",
				Destination: &configPath,
			},
			&cli.StringFlag{
				Name:        "backend",
				Aliases:     []string{"b"},
				Usage:       "backend preference (auto, vulkan, none)",
				Destination: &backend,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Destination: &logLevel,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return cli.Exit("error: expected exactly one script path", 1)
			}
			scriptPath := c.Args().First()

			cfg, err := loadConfig(configPath, backend, logLevel)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			logger := log.NewWithOptions(os.Stderr, log.Options{
				Level:           cfg.Level(),
				ReportTimestamp: true,
			})

			source, err := os.ReadFile(scriptPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: read script: %v", err), 1)
			}

			sess := session.New(session.Options{
				PreferBackend: cfg.Backend,
				Logger:        logger,
			})
			defer sess.Close()

			eng := engine.New(sess, logger)
			eng.SetTraceDefaults(engine.TraceDefaults{
				Width:  cfg.Trace.Width,
				Height: cfg.Trace.Height,
			})

			evalErrs, err := eng.Evaluate(string(source))
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: evaluate: %v", err), 1)
			}
			if len(evalErrs) > 0 {
				for _, e := range evalErrs {
					fmt.Fprintf(os.Stderr, "%s: %s\n", scriptPath, e.Error())
				}
				return cli.Exit("", 1)
			}

			g, b, tl := sess.Counts()
			logger.Info("script finished", "geometries", g, "blases", b, "tlases", tl)
			return nil
		},
	}
}

// loadConfig reads the config file (when given) and applies flag
// overrides on top.
func loadConfig(path, backend, logLevel string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if backend != "" {
		cfg.Backend = backend
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
