package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"apartment-estimator/api"
	"apartment-estimator/apperrors"
	"apartment-estimator/config"
	"apartment-estimator/features"
	"apartment-estimator/models"
	"apartment-estimator/regression"
	"apartment-estimator/services"
	"apartment-estimator/storage"
)

// pipelineConfig translates the application configuration for the pipeline.
func pipelineConfig(cfg *config.Config) (services.PipelineConfig, error) {
	strategy, err := regression.ParseStrategy(cfg.ModelStrategy)
	if err != nil {
		return services.PipelineConfig{}, err
	}
	policy, err := features.ParseGroundFloorPolicy(cfg.GroundFloorPolicy)
	if err != nil {
		return services.PipelineConfig{}, err
	}
	encoding, err := features.ParseConditionEncoding(cfg.ConditionEncoding)
	if err != nil {
		return services.PipelineConfig{}, err
	}
	return services.PipelineConfig{
		Strategy: strategy,
		Alpha:    cfg.RidgeAlpha,
		Split:    regression.SplitConfig{TestFraction: cfg.TestFraction, Seed: cfg.RandomSeed},
		Encoder: features.EncoderConfig{
			GroundPolicy:      policy,
			ConditionEncoding: encoding,
			Noise:             cfg.FeatureNoise,
			Seed:              cfg.RandomSeed,
		},
		Currency: cfg.Currency,
	}, nil
}

// openStore opens the database for source.
func (e *appEnv) openStore(ctx context.Context, source string) (storage.ListingStore, error) {
	switch source {
	case config.SourcePostgres:
		s, err := storage.NewPostgresStore(ctx, e.cfg.DSN(), e.cfg.MaxRetries, e.logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.SourceSQLite:
		s, err := storage.NewSQLiteStore(ctx, e.cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("no database for corpus source %q", source)
}

// readCSV reads and cleans a listing CSV.
func (e *appEnv) readCSV(reader storage.RawListingReader) ([]*models.ListingRecord, error) {
	raw, err := reader.ReadRaw()
	if err != nil {
		return nil, err
	}
	return services.NewCleaner(e.logger).Clean(raw), nil
}

// loadCorpus reads the training corpus from the configured source. The
// returned store is nil for CSV and must be closed by the caller otherwise.
func (e *appEnv) loadCorpus(ctx context.Context) ([]*models.ListingRecord, storage.ListingStore, error) {
	if e.cfg.CorpusSource == config.SourceCSV {
		records, err := e.readCSV(storage.NewCSVReader(e.cfg.CorpusCSVPath, e.logger))
		if err != nil {
			return nil, nil, err
		}
		e.logger.Info("[corpus] Loaded %d listings from %s", len(records), e.cfg.CorpusCSVPath)
		return records, nil, nil
	}

	store, err := e.openStore(ctx, e.cfg.CorpusSource)
	if err != nil {
		return nil, nil, err
	}
	records, err := store.FetchAll(ctx)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	e.logger.Info("[corpus] Loaded %d listings from %s", len(records), e.cfg.CorpusSource)
	return records, store, nil
}

// train fits p on the configured corpus and records the run when the
// corpus lives in a database.
func (e *appEnv) train(ctx context.Context, p *services.Pipeline) (models.EvaluationReport, []*models.ListingRecord, error) {
	records, store, err := e.loadCorpus(ctx)
	if err != nil {
		return models.EvaluationReport{}, nil, err
	}
	if store != nil {
		defer store.Close()
	}

	report, err := p.Fit(ctx, records)
	if err != nil {
		return models.EvaluationReport{}, nil, err
	}
	if store != nil {
		if err := store.SaveRun(ctx, report); err != nil {
			e.logger.Warn("[corpus] Could not record training run: %v", err)
		}
	}
	return report, records, nil
}

func (e *appEnv) newTrainedPipeline(ctx context.Context) (*services.Pipeline, error) {
	pcfg, err := pipelineConfig(e.cfg)
	if err != nil {
		return nil, err
	}
	p := services.NewPipeline(pcfg, e.logger)
	if _, _, err := e.train(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func trainCommand(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "train",
		Usage: "fit the model on the corpus and print the evaluation",
		Action: func(c *cli.Context) error {
			pcfg, err := pipelineConfig(env.cfg)
			if err != nil {
				return err
			}
			p := services.NewPipeline(pcfg, env.logger)
			report, records, err := env.train(c.Context, p)
			if err != nil {
				return err
			}

			insights := services.NewInsightService(env.logger)
			insights.Print(insights.Generate(records), &report)
			return nil
		},
	}
}

func listingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "municipality", Aliases: []string{"m"}, Required: true},
		&cli.StringFlag{Name: "area", Aliases: []string{"a"}, Usage: "area in m²", Required: true},
		&cli.Float64Flag{Name: "rooms", Aliases: []string{"r"}},
		&cli.StringFlag{Name: "floor", Aliases: []string{"f"}, Usage: "PR, VPR/n or <Roman>/<total>", Required: true},
		&cli.StringFlag{Name: "type", Value: "Novogradnja"},
		&cli.StringFlag{Name: "condition"},
		&cli.StringFlag{Name: "heating"},
		&cli.BoolFlag{Name: "garage", Usage: "has a garage"},
		&cli.BoolFlag{Name: "outdoor-parking", Usage: "has outdoor parking"},
	}
}

// parkingFlag converts "has amenity" to the corpus convention.
func parkingFlag(has bool) int {
	if has {
		return 0
	}
	return 1
}

func predictCommand(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "predict",
		Usage: "estimate the price of one apartment",
		Flags: listingFlags(),
		Action: func(c *cli.Context) error {
			p, err := env.newTrainedPipeline(c.Context)
			if err != nil {
				return err
			}
			est, err := p.PredictTotal(&models.ListingRecord{
				Municipality:   c.String("municipality"),
				AreaM2:         c.String("area"),
				Rooms:          c.Float64("rooms"),
				Floor:          c.String("floor"),
				Type:           c.String("type"),
				Condition:      c.String("condition"),
				Heating:        c.String("heating"),
				ParkingGarage:  parkingFlag(c.Bool("garage")),
				ParkingOutdoor: parkingFlag(c.Bool("outdoor-parking")),
			})
			if err != nil {
				return err
			}
			fmt.Printf("\n  %s\n\n", est)
			return nil
		},
	}
}

func predictBatchCommand(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "predict-batch",
		Usage: "estimate every listing of a CSV file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}},
		},
		Action: func(c *cli.Context) error {
			p, err := env.newTrainedPipeline(c.Context)
			if err != nil {
				return err
			}
			records, err := env.readCSV(storage.NewListingCSVReader(c.String("input"), env.logger))
			if err != nil {
				return err
			}

			output := env.cfg.EstimatesCSVPath
			if c.IsSet("output") {
				output = c.String("output")
			}
			w, err := storage.NewCSVWriter(output)
			if err != nil {
				return err
			}
			defer w.Close()

			results := p.PredictBatch(c.Context, records, env.cfg.MaxConcurrency)
			rows := make([]storage.EstimateRow, len(results))
			failed := 0
			for i, r := range results {
				rows[i] = storage.EstimateRow{Listing: r.Record, Estimate: r.Estimate, Err: r.Err}
				if r.Err != nil {
					failed++
					env.logger.Warn("[batch] Row %d: %v", r.Index+1, r.Err)
				}
			}
			if err := w.WriteEstimates(rows); err != nil {
				return err
			}
			env.logger.Info("[batch] Priced %d of %d listings → %s", len(rows)-failed, len(rows), output)
			return nil
		},
	}
}

func importCommand(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "load the corpus CSV into a database",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "target", Value: config.SourceSQLite, Usage: "sqlite or postgres"},
		},
		Action: func(c *cli.Context) error {
			target := strings.ToLower(c.String("target"))
			if target != config.SourceSQLite && target != config.SourcePostgres {
				return fmt.Errorf("import: unknown target %q", target)
			}

			records, err := env.readCSV(storage.NewCSVReader(env.cfg.CorpusCSVPath, env.logger))
			if err != nil {
				return err
			}
			store, err := env.openStore(c.Context, target)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.ReplaceAll(c.Context, records)
			if err != nil {
				return err
			}
			env.logger.Info("[import] Stored %d of %d listings in %s", n, len(records), target)

			insights := services.NewInsightService(env.logger)
			insights.Print(insights.Generate(records), nil)
			return nil
		},
	}
}

func runsCommand(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "list recent training runs recorded in the database",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 10},
		},
		Action: func(c *cli.Context) error {
			if env.cfg.CorpusSource == config.SourceCSV {
				return fmt.Errorf("runs: training runs are only recorded for database sources")
			}
			store, err := env.openStore(c.Context, env.cfg.CorpusSource)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Runs(c.Context, c.Int("limit"))
			if err != nil {
				return err
			}
			for _, r := range runs {
				fmt.Printf("  %s  %-10s  RMSE %9.2f  R² %7.4f  train %5d  test %5d  %s\n",
					r.TrainedAt.Format("2006-01-02 15:04:05"), r.Strategy, r.RMSE, r.R2,
					r.TrainRows, r.TestRows, r.RunID)
			}
			return nil
		},
	}
}

// newAPIServer trains a pipeline on the configured corpus and wraps it in
// an HTTP server. A failed initial training is fatal; later refreshes keep
// the previous model.
func (e *appEnv) newAPIServer(ctx context.Context, addr string) (*api.Server, error) {
	pcfg, err := pipelineConfig(e.cfg)
	if err != nil {
		return nil, apperrors.NewConfigurationError(err.Error(), err)
	}
	p := services.NewPipeline(pcfg, e.logger)
	reload := func(ctx context.Context) (models.EvaluationReport, error) {
		report, _, err := e.train(ctx, p)
		return report, err
	}
	if _, err := reload(ctx); err != nil {
		return nil, apperrors.NewConfigurationError("initial training failed", err)
	}

	return api.NewServer(api.Options{
		Addr:            addr,
		CORSOrigins:     e.cfg.CORSOrigins,
		RateLimitPerMin: e.cfg.RateLimitPerMin,
	}, p, reload, e.logger), nil
}

func serveCommand(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve estimates over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address"},
		},
		Action: func(c *cli.Context) error {
			addr := env.cfg.HTTPAddr
			if c.IsSet("addr") {
				addr = c.String("addr")
			}
			srv, err := env.newAPIServer(c.Context, addr)
			if err != nil {
				return err
			}
			return srv.Run(c.Context)
		},
	}
}

func floorsCommand() *cli.Command {
	return &cli.Command{
		Name:  "floors",
		Usage: "list the floor codes for a building",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "total", Aliases: []string{"t"}, Value: 4},
		},
		Action: func(c *cli.Context) error {
			for _, opt := range features.FloorOptions(c.Int("total")) {
				fmt.Println(opt)
			}
			return nil
		},
	}
}
