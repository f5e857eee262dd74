package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"github.com/quantfold/morrow/pkg/config"
	"github.com/quantfold/morrow/pkg/ledger"
	"github.com/quantfold/morrow/pkg/logging"
	"github.com/quantfold/morrow/pkg/pipeline"
	natsq "github.com/quantfold/morrow/pkg/queue/nats"
	"github.com/quantfold/morrow/pkg/store/duckdb"
)

func main() {
	cfgPath := flag.String("config", "", "YAML config path")
	instrument := flag.String("instrument", "", "instrument override")
	ledgerPath := flag.String("ledger", "", "ledger path override")
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
	if *ledgerPath != "" {
		cfg.Paths.Ledger = *ledgerPath
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

	p := pipeline.New(cfg, log, nil, duckdb.NewBarRepo(client), ledger.New(cfg.Paths.Ledger), publisher)

	if _, _, err := p.Predict(ctx); err != nil {
		if errors.Is(err, pipeline.ErrInsufficientHistory) {
			log.Warn().Err(err).Msg("not enough history to predict yet")
			return
		}
		log.Error().Err(err).Msg("predict failed")
		os.Exit(1)
	}
}
