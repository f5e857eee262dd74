// Package ledger owns the durable prediction history. It is the only
// writer of prediction records: the append path enforces the
// one-row-per-(instrument, as-of-date) invariant, and the rewrite path
// replaces the file atomically so a crash never corrupts prior history.
package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/quantfold/morrow/pkg/model"
)

// runTimeLayout matches the second-precision timestamps recorded per run
const runTimeLayout = "2006-01-02T15:04:05"

// Header is the stable column order of the persisted ledger
var Header = []string{
	"run_time", "ticker", "asof_date", "pred_up", "prob_up", "signal",
	"actual_up_next_day", "is_correct",
}

// AppendResult reports what an AppendIfAbsent call did
type AppendResult int

const (
	// Appended means a new row was durably written
	Appended AppendResult = iota
	// SkippedDuplicate means a row for the (instrument, as-of-date) pair
	// already existed and nothing was written
	SkippedDuplicate
)

func (r AppendResult) String() string {
	if r == SkippedDuplicate {
		return "skipped_duplicate"
	}
	return "appended"
}

// Ledger manages one prediction history file. Callers must not invoke
// AppendIfAbsent and WriteAll concurrently on the same file; the pipeline
// runs them as sequential batch steps.
type Ledger struct {
	path string
}

// New creates a ledger handle for the given CSV path
func New(path string) *Ledger {
	return &Ledger{path: path}
}

// Path returns the ledger's file location
func (l *Ledger) Path() string {
	return l.path
}

// Read loads every record from the ledger file in stored (run) order.
// A missing file is an empty ledger, not an error.
func (l *Ledger) Read() ([]model.PredictionRecord, error) {
	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read ledger %s: %w", l.path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger header: %w", err)
	}
	if len(header) < len(Header) {
		return nil, fmt.Errorf("read ledger: malformed header, %d columns", len(header))
	}

	var records []model.PredictionRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read ledger row: %w", err)
		}
		rec, err := decodeRecord(row)
		if err != nil {
			return nil, fmt.Errorf("read ledger row: %w", err)
		}
		records = append(records, rec)
	}

	return records, nil
}

// AppendIfAbsent durably appends the record unless one already exists for
// the same (instrument, as-of-date), in which case nothing is written and
// the call reports a skip. Row order reflects run order, not date order.
func (l *Ledger) AppendIfAbsent(rec model.PredictionRecord) (AppendResult, error) {
	existing, err := l.Read()
	if err != nil {
		return SkippedDuplicate, err
	}
	for i := range existing {
		if existing[i].Key() == rec.Key() {
			return SkippedDuplicate, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return SkippedDuplicate, fmt.Errorf("append ledger: create dir: %w", err)
	}

	writeHeader := true
	if info, statErr := os.Stat(l.path); statErr == nil && info.Size() > 0 {
		writeHeader = false
	}

	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return SkippedDuplicate, fmt.Errorf("append ledger %s: %w", l.path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if writeHeader {
		if err := writer.Write(Header); err != nil {
			return SkippedDuplicate, fmt.Errorf("append ledger header: %w", err)
		}
	}
	if err := writer.Write(encodeRecord(&rec)); err != nil {
		return SkippedDuplicate, fmt.Errorf("append ledger row: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return SkippedDuplicate, fmt.Errorf("append ledger flush: %w", err)
	}

	return Appended, nil
}

// WriteAll replaces the entire ledger file with the given records.
// The new content is written to a temporary file in the same directory
// and renamed over the old one, so the previous ledger stays intact
// until the replacement is complete.
func (l *Ledger) WriteAll(records []model.PredictionRecord) error {
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("write ledger: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(l.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("write ledger: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	writer := csv.NewWriter(tmp)
	if err := writer.Write(Header); err != nil {
		tmp.Close()
		return fmt.Errorf("write ledger header: %w", err)
	}
	for i := range records {
		if err := writer.Write(encodeRecord(&records[i])); err != nil {
			tmp.Close()
			return fmt.Errorf("write ledger row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("write ledger flush: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write ledger close: %w", err)
	}

	if err := os.Rename(tmpPath, l.path); err != nil {
		return fmt.Errorf("write ledger rename: %w", err)
	}
	return nil
}

func encodeRecord(r *model.PredictionRecord) []string {
	return []string{
		r.RunTime.Format(runTimeLayout),
		r.Instrument,
		r.AsOfDate.Format(model.DateLayout),
		strconv.Itoa(r.PredUp),
		strconv.FormatFloat(r.ProbUp, 'f', 4, 64),
		r.Signal,
		encodeOutcome(r.ActualUp),
		encodeOutcome(r.Correct),
	}
}

func decodeRecord(row []string) (model.PredictionRecord, error) {
	var rec model.PredictionRecord
	if len(row) < len(Header) {
		return rec, fmt.Errorf("short row: %d columns", len(row))
	}

	runTime, err := time.Parse(runTimeLayout, row[0])
	if err != nil {
		return rec, fmt.Errorf("bad run_time %q: %w", row[0], err)
	}
	asOf, err := time.Parse(model.DateLayout, row[2])
	if err != nil {
		return rec, fmt.Errorf("bad asof_date %q: %w", row[2], err)
	}
	predUp, err := strconv.Atoi(row[3])
	if err != nil {
		return rec, fmt.Errorf("bad pred_up %q: %w", row[3], err)
	}
	probUp, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return rec, fmt.Errorf("bad prob_up %q: %w", row[4], err)
	}
	actualUp, err := decodeOutcome(row[6])
	if err != nil {
		return rec, fmt.Errorf("bad actual_up_next_day %q: %w", row[6], err)
	}
	correct, err := decodeOutcome(row[7])
	if err != nil {
		return rec, fmt.Errorf("bad is_correct %q: %w", row[7], err)
	}

	rec = model.PredictionRecord{
		RunTime:    runTime,
		Instrument: row[1],
		AsOfDate:   asOf,
		PredUp:     predUp,
		ProbUp:     probUp,
		Signal:     row[5],
		ActualUp:   actualUp,
		Correct:    correct,
	}
	return rec, nil
}

// encodeOutcome writes unknown outcomes as empty cells
func encodeOutcome(v int) string {
	if v == model.OutcomeUnknown {
		return ""
	}
	return strconv.Itoa(v)
}

func decodeOutcome(s string) (int, error) {
	if s == "" {
		return model.OutcomeUnknown, nil
	}
	// Tolerate float-formatted cells from older scoring tools.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}
