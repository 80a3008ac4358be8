package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"apartment-estimator/apperrors"
	"apartment-estimator/config"
	"apartment-estimator/utils"
)

// appEnv is the configuration and logger shared by every command.
type appEnv struct {
	cfg    *config.Config
	logger *utils.Logger
}

func main() {
	env := &appEnv{logger: utils.NewLogger()}

	app := &cli.App{
		Name:  "apartment-estimator",
		Usage: "train and serve apartment price-per-m² models",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "source", Usage: "corpus source: csv, postgres or sqlite"},
			&cli.StringFlag{Name: "corpus", Usage: "path of the corpus CSV"},
			&cli.StringFlag{Name: "strategy", Usage: "model strategy: linear or polynomial"},
			&cli.Float64Flag{Name: "alpha", Usage: "ridge penalty for the polynomial model"},
			&cli.StringFlag{Name: "ground-floor", Usage: "ground floor policy: exclude or discount"},
			&cli.StringFlag{Name: "condition-encoding", Usage: "condition encoding: onehot or ordinal"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "log-format", Usage: "console, text or json"},
		},
		Before: func(c *cli.Context) error {
			cfg := config.Load()
			applyFlags(c, cfg)
			env.cfg = cfg
			env.logger = utils.NewLoggerWith(os.Stdout, cfg.LogLevel, cfg.LogFormat)
			if err := cfg.Validate(); err != nil {
				return apperrors.NewConfigurationError(err.Error(), err)
			}
			return nil
		},
		Commands: []*cli.Command{
			trainCommand(env),
			predictCommand(env),
			predictBatchCommand(env),
			importCommand(env),
			runsCommand(env),
			serveCommand(env),
			floorsCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		env.logger.Error("%v", err)
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			if cause := appErr.Unwrap(); cause != nil {
				env.logger.Error("  cause: %v", cause)
			}
		}
		stop()
		os.Exit(1)
	}
}

func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("source") {
		cfg.CorpusSource = c.String("source")
	}
	if c.IsSet("corpus") {
		cfg.CorpusCSVPath = c.String("corpus")
	}
	if c.IsSet("strategy") {
		cfg.ModelStrategy = c.String("strategy")
	}
	if c.IsSet("alpha") {
		cfg.RidgeAlpha = c.Float64("alpha")
	}
	if c.IsSet("ground-floor") {
		cfg.GroundFloorPolicy = c.String("ground-floor")
	}
	if c.IsSet("condition-encoding") {
		cfg.ConditionEncoding = c.String("condition-encoding")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.LogFormat = c.String("log-format")
	}
}
