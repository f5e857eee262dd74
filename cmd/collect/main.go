package main

import (
	"context"
	"flag"
	"os"

	"github.com/quantfold/morrow/pkg/config"
	"github.com/quantfold/morrow/pkg/data"
	"github.com/quantfold/morrow/pkg/logging"
	"github.com/quantfold/morrow/pkg/pipeline"
	"github.com/quantfold/morrow/pkg/store/duckdb"
)

func main() {
	cfgPath := flag.String("config", "", "YAML config path")
	instrument := flag.String("instrument", "", "instrument override")
	start := flag.String("start", "", "history start date override (YYYY-MM-DD)")
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
	if *start != "" {
		cfg.Start = *start
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

	var provider data.BarProvider = data.NewStooqProvider()
	if *prices != "" {
		provider = data.NewCSVProvider(*prices)
	}

	p := pipeline.New(cfg, log, provider, duckdb.NewBarRepo(client), nil, nil)

	if _, err := p.Collect(context.Background()); err != nil {
		log.Error().Err(err).Msg("collect failed")
		os.Exit(1)
	}
}
