package main

import (
	"context"
	"flag"
	"os"

	"github.com/quantfold/morrow/pkg/config"
	"github.com/quantfold/morrow/pkg/ledger"
	"github.com/quantfold/morrow/pkg/logging"
	"github.com/quantfold/morrow/pkg/pipeline"
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

	client, err := duckdb.NewClient(cfg.Paths.DuckDB)
	if err != nil {
		log.Fatal().Err(err).Msg("open bar store")
	}
	defer client.Close()
	if err := duckdb.InitializeSchema(client); err != nil {
		log.Fatal().Err(err).Msg("initialize bar store schema")
	}

	p := pipeline.New(cfg, log, nil, duckdb.NewBarRepo(client), ledger.New(cfg.Paths.Ledger), nil)

	summary, err := p.Score(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("score failed")
		os.Exit(1)
	}
	log.Info().Msg(summary.String())
}
