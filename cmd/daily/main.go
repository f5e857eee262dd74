package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"github.com/quantfold/morrow/pkg/config"
	"github.com/quantfold/morrow/pkg/data"
	"github.com/quantfold/morrow/pkg/ledger"
	"github.com/quantfold/morrow/pkg/logging"
	"github.com/quantfold/morrow/pkg/pipeline"
	natsq "github.com/quantfold/morrow/pkg/queue/nats"
	"github.com/quantfold/morrow/pkg/store/duckdb"
)

// daily runs the full batch sequence once: collect fresh bars, refit the
// model, append today's prediction, then reconcile the ledger against
// everything realized so far. The first fatal error stops the run.
func main() {
	cfgPath := flag.String("config", "", "YAML config path")
	instrument := flag.String("instrument", "", "instrument override")
	prices := flag.String("prices", "", "read bars from a local prices CSV instead of Stooq")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			boot := logging.NewLogger("info")
			boot.Fatal().Err(err).Msg("load config")
		}
		cfg = loaded
	}
	if *instrument != "" {
		cfg.Instrument = *instrument
	}

	log := logging.NewLogger(cfg.LogLevel)
	ctx := context.Background()

	client, err := duckdb.NewClient(cfg.Paths.DuckDB)
	if err != nil {
		log.Fatal().Err(err).Msg("open bar store")
	}
	defer client.Close()
	if err := duckdb.InitializeSchema(client); err != nil {
		log.Fatal().Err(err).Msg("initialize bar store schema")
	}

	var provider data.BarProvider = data.NewStooqProvider()
	if *prices != "" {
		provider = data.NewCSVProvider(*prices)
	}

	var publisher pipeline.SignalPublisher
	if cfg.NATS.URL != "" {
		natsClient, err := natsq.NewClient(natsq.Config{
			URL:        cfg.NATS.URL,
			StreamName: cfg.NATS.Stream,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("connect to NATS")
		}
		defer natsClient.Close()
		if err := natsClient.CreateStream(ctx, []string{natsq.SubjectSignal}); err != nil {
			log.Fatal().Err(err).Msg("create signal stream")
		}
		publisher = natsClient
	}

	p := pipeline.New(cfg, log, provider, duckdb.NewBarRepo(client), ledger.New(cfg.Paths.Ledger), publisher)

	if _, err := p.Collect(ctx); err != nil {
		log.Error().Err(err).Msg("collect failed")
		os.Exit(1)
	}

	if _, err := p.Train(ctx); err != nil {
		if errors.Is(err, pipeline.ErrInsufficientHistory) {
			log.Warn().Err(err).Msg("not enough history yet, stopping run")
			return
		}
		log.Error().Err(err).Msg("train failed")
		os.Exit(1)
	}

	if _, _, err := p.Predict(ctx); err != nil {
		log.Error().Err(err).Msg("predict failed")
		os.Exit(1)
	}

	summary, err := p.Score(ctx)
	if err != nil {
		log.Error().Err(err).Msg("score failed")
		os.Exit(1)
	}

	log.Info().Msg(summary.String())
	log.Info().Msg("daily run completed")
}
