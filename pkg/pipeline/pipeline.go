// Package pipeline wires the daily batch stages together. A Pipeline is
// an explicit execution context holding the resolved instrument, date
// range, and file locations for one run; there are no process-wide
// singletons. Stages are discrete: each either completes with a fully
// materialized result or fails outright.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantfold/morrow/pkg/classifier"
	"github.com/quantfold/morrow/pkg/config"
	"github.com/quantfold/morrow/pkg/data"
	"github.com/quantfold/morrow/pkg/feature"
	"github.com/quantfold/morrow/pkg/ledger"
	"github.com/quantfold/morrow/pkg/model"
	natsq "github.com/quantfold/morrow/pkg/queue/nats"
	"github.com/quantfold/morrow/pkg/score"
)

// ErrInsufficientHistory indicates the bar series is too short to derive
// any eligible feature row. A stop condition for the run, not a crash.
var ErrInsufficientHistory = errors.New("insufficient bar history")

// BarStore is the durable bar cache: collect writes through it, every
// other stage reads its instrument's full series from it
type BarStore interface {
	InsertBatch(ctx context.Context, bars []model.Bar) error
	GetAll(ctx context.Context, instrument string) ([]model.Bar, error)
}

// SignalPublisher fans the day's call out to downstream consumers.
// Optional: a nil publisher disables fan-out without affecting the run.
type SignalPublisher interface {
	PublishSignal(ctx context.Context, msg *natsq.SignalMsg) error
}

// Pipeline executes the collect/train/predict/score stages for one
// instrument. Stages expect sequential, single-writer invocation.
type Pipeline struct {
	Cfg       *config.Config
	Log       zerolog.Logger
	Provider  data.BarProvider
	Store     BarStore
	Ledger    *ledger.Ledger
	Publisher SignalPublisher

	// Now supplies run timestamps; replaced in tests
	Now func() time.Time
}

// New builds a pipeline context from its collaborators
func New(cfg *config.Config, log zerolog.Logger, provider data.BarProvider, store BarStore, led *ledger.Ledger, publisher SignalPublisher) *Pipeline {
	return &Pipeline{
		Cfg:       cfg,
		Log:       log,
		Provider:  provider,
		Store:     store,
		Ledger:    led,
		Publisher: publisher,
		Now:       time.Now,
	}
}

func (p *Pipeline) engine() *feature.Engine {
	return &feature.Engine{
		ShortWindow: p.Cfg.Features.ShortWindow,
		LongWindow:  p.Cfg.Features.LongWindow,
	}
}

// Collect fetches the instrument's history from the bar provider and
// upserts it into the bar store. Returns the number of bars stored.
func (p *Pipeline) Collect(ctx context.Context) (int, error) {
	instrument := p.Cfg.Instrument

	start, err := time.Parse(model.DateLayout, p.Cfg.Start)
	if err != nil {
		return 0, fmt.Errorf("collect %s: bad start date %q: %w", instrument, p.Cfg.Start, err)
	}

	bars, err := p.Provider.FetchBars(ctx, instrument, start, p.Now())
	if err != nil {
		return 0, fmt.Errorf("collect %s: %w", instrument, err)
	}
	if err := model.ValidateSeries(bars); err != nil {
		return 0, fmt.Errorf("collect %s: %w", instrument, err)
	}

	if err := p.Store.InsertBatch(ctx, bars); err != nil {
		return 0, fmt.Errorf("collect %s: store bars: %w", instrument, err)
	}

	if p.Cfg.Paths.PricesCSV != "" {
		if err := data.SavePricesCSV(p.Cfg.Paths.PricesCSV, bars); err != nil {
			return 0, fmt.Errorf("collect %s: %w", instrument, err)
		}
	}

	p.Log.Info().Str("instrument", instrument).Int("bars", len(bars)).Msg("collected bars")
	return len(bars), nil
}

// Train derives the labeled feature table from stored history, fits the
// classifier, and persists the model with its training metadata.
func (p *Pipeline) Train(ctx context.Context) (*classifier.Metadata, error) {
	instrument := p.Cfg.Instrument

	bars, err := p.Store.GetAll(ctx, instrument)
	if err != nil {
		return nil, fmt.Errorf("train %s: load bars: %w", instrument, err)
	}

	rows := feature.TrainingRows(p.engine().Derive(bars))
	if len(rows) == 0 {
		return nil, fmt.Errorf("train %s: %d bars: %w", instrument, len(bars), ErrInsufficientHistory)
	}

	features := make([][]float64, len(rows))
	labels := make([]int, len(rows))
	for i := range rows {
		features[i] = rows[i].Vector()
		labels[i] = rows[i].TargetUp
	}

	clf := classifier.NewLogistic(model.FeatureCols)
	if err := clf.Fit(features, labels); err != nil {
		return nil, fmt.Errorf("train %s: %w", instrument, err)
	}
	accuracy, err := clf.Accuracy(features, labels)
	if err != nil {
		return nil, fmt.Errorf("train %s: %w", instrument, err)
	}

	if err := clf.Save(p.Cfg.Paths.Model); err != nil {
		return nil, fmt.Errorf("train %s: %w", instrument, err)
	}

	meta := &classifier.Metadata{
		Instrument:       instrument,
		FeatureCols:      model.FeatureCols,
		TrainRows:        len(rows),
		TrainStart:       rows[0].Date.Format(model.DateLayout),
		TrainEnd:         rows[len(rows)-1].Date.Format(model.DateLayout),
		InSampleAccuracy: accuracy,
	}
	if p.Cfg.Paths.Metadata != "" {
		if err := meta.Save(p.Cfg.Paths.Metadata); err != nil {
			return nil, fmt.Errorf("train %s: %w", instrument, err)
		}
	}

	p.Log.Info().
		Str("instrument", instrument).
		Int("rows", len(rows)).
		Float64("in_sample_accuracy", accuracy).
		Msg("trained model")

	return meta, nil
}

// Predict scores the most recent feature row with the persisted model
// and appends the resulting record to the ledger unless the day already
// has one. The latest row may be unlabeled; inference never reads labels.
func (p *Pipeline) Predict(ctx context.Context) (model.PredictionRecord, ledger.AppendResult, error) {
	instrument := p.Cfg.Instrument
	var zero model.PredictionRecord

	bars, err := p.Store.GetAll(ctx, instrument)
	if err != nil {
		return zero, ledger.SkippedDuplicate, fmt.Errorf("predict %s: load bars: %w", instrument, err)
	}

	latest := feature.LatestRow(p.engine().Derive(bars))
	if latest == nil {
		return zero, ledger.SkippedDuplicate, fmt.Errorf("predict %s: %d bars: %w", instrument, len(bars), ErrInsufficientHistory)
	}

	clf, err := classifier.Load(p.Cfg.Paths.Model, model.FeatureCols)
	if err != nil {
		return zero, ledger.SkippedDuplicate, fmt.Errorf("predict %s: %w", instrument, err)
	}

	probs, err := clf.PredictProbability([][]float64{latest.Vector()})
	if err != nil {
		return zero, ledger.SkippedDuplicate, fmt.Errorf("predict %s asof %s: %w", instrument, latest.Date.Format(model.DateLayout), err)
	}

	rec := model.NewPredictionRecord(instrument, latest.Date, probs[0], p.Now())
	result, err := p.Ledger.AppendIfAbsent(rec)
	if err != nil {
		return zero, result, fmt.Errorf("predict %s asof %s: %w", instrument, rec.AsOfDate.Format(model.DateLayout), err)
	}

	logEvent := p.Log.Info().
		Str("instrument", instrument).
		Str("asof_date", rec.AsOfDate.Format(model.DateLayout)).
		Str("signal", rec.Signal).
		Float64("prob_up", rec.ProbUp)

	if result == ledger.SkippedDuplicate {
		logEvent.Msg("prediction already recorded, skipping append")
		return rec, result, nil
	}
	logEvent.Msg("appended prediction")

	if p.Publisher != nil {
		if err := p.Publisher.PublishSignal(ctx, natsq.NewSignalMsg(&rec)); err != nil {
			// Fan-out is best effort once the ledger append succeeded.
			p.Log.Warn().Err(err).Str("instrument", instrument).Msg("signal publish failed")
		}
	}

	return rec, result, nil
}

// Score reconciles the ledger against realized outcomes and rewrites it
// in place. Safe to re-run at any time.
func (p *Pipeline) Score(ctx context.Context) (score.Summary, error) {
	instrument := p.Cfg.Instrument

	records, err := p.Ledger.Read()
	if err != nil {
		return score.Summary{}, fmt.Errorf("score %s: %w", instrument, err)
	}
	if len(records) == 0 {
		p.Log.Info().Str("instrument", instrument).Msg("ledger empty, nothing to score")
		return score.Summary{}, nil
	}

	bars, err := p.Store.GetAll(ctx, instrument)
	if err != nil {
		return score.Summary{}, fmt.Errorf("score %s: load bars: %w", instrument, err)
	}

	updated, summary := score.Reconcile(records, bars)
	if err := p.Ledger.WriteAll(updated); err != nil {
		return summary, fmt.Errorf("score %s: %w", instrument, err)
	}

	p.Log.Info().
		Str("instrument", instrument).
		Int("total", summary.Total).
		Int("scored", summary.Scored).
		Float64("accuracy", summary.Accuracy).
		Msg("reconciled ledger")

	return summary, nil
}
