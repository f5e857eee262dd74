package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"github.com/quantfold/morrow/pkg/config"
	"github.com/quantfold/morrow/pkg/logging"
	"github.com/quantfold/morrow/pkg/pipeline"
	"github.com/quantfold/morrow/pkg/store/duckdb"
)

func main() {
	cfgPath := flag.String("config", "", "YAML config path")
	instrument := flag.String("instrument", "", "instrument override")
	modelPath := flag.String("model", "", "model output path override")
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
	if *modelPath != "" {
		cfg.Paths.Model = *modelPath
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

	p := pipeline.New(cfg, log, nil, duckdb.NewBarRepo(client), nil, nil)

	if _, err := p.Train(context.Background()); err != nil {
		if errors.Is(err, pipeline.ErrInsufficientHistory) {
			log.Warn().Err(err).Msg("not enough history to train yet")
			return
		}
		log.Error().Err(err).Msg("train failed")
		os.Exit(1)
	}
}
