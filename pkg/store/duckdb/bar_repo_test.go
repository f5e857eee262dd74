package duckdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/morrow/pkg/model"
)

func testRepo(t *testing.T) *BarRepo {
	t.Helper()
	client, err := NewClient(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, InitializeSchema(client))
	return NewBarRepo(client)
}

func testBar(date string, close float64) model.Bar {
	d, _ := time.Parse(model.DateLayout, date)
	return model.Bar{
		Instrument: "SPY",
		Date:       d,
		Open:       close - 1,
		High:       close + 1,
		Low:        close - 2,
		Close:      close,
		AdjClose:   close,
		Volume:     1000,
	}
}

func TestBarRepoInsertAndGetAll(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	bars := []model.Bar{
		testBar("2024-01-03", 105),
		testBar("2024-01-02", 100),
	}
	require.NoError(t, repo.InsertBatch(ctx, bars))

	got, err := repo.GetAll(ctx, "SPY")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-01-02", got[0].DateKey(), "returned oldest first")
	assert.Equal(t, 100.0, got[0].Close)
}

func TestBarRepoUpsertRefreshes(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, &model.Bar{Instrument: "SPY", Date: mustDate("2024-01-02"), Close: 100}))
	require.NoError(t, repo.Insert(ctx, &model.Bar{Instrument: "SPY", Date: mustDate("2024-01-02"), Close: 101}))

	count, err := repo.Count(ctx, "SPY")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	got, err := repo.GetAll(ctx, "SPY")
	require.NoError(t, err)
	assert.Equal(t, 101.0, got[0].Close)
}

func TestBarRepoGetByDateRange(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.InsertBatch(ctx, []model.Bar{
		testBar("2024-01-02", 100),
		testBar("2024-01-03", 105),
		testBar("2024-01-04", 102),
	}))

	got, err := repo.GetByDateRange(ctx, "SPY", mustDate("2024-01-03"), mustDate("2024-01-04"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-01-03", got[0].DateKey())
}

func mustDate(s string) time.Time {
	d, _ := time.Parse(model.DateLayout, s)
	return d
}
