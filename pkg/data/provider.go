package data

import (
	"context"
	"errors"
	"time"

	"github.com/quantfold/morrow/pkg/model"
)

// ErrNoData indicates the source returned zero bars for the requested
// instrument and range. Fatal to the run; retry policy belongs to the
// caller, not the provider.
var ErrNoData = errors.New("no bars available")

// BarProvider supplies daily OHLCV bars for one instrument over a date
// range, oldest first. Providers perform no gap-filling: missing trading
// days are simply absent, never interpolated.
type BarProvider interface {
	FetchBars(ctx context.Context, instrument string, start, end time.Time) ([]model.Bar, error)
}
