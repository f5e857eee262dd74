package nats

import (
	"encoding/json"
	"time"

	"github.com/quantfold/morrow/pkg/model"
)

// SubjectSignal carries one event per appended prediction
const SubjectSignal = "morrow.signals.daily"

// SignalMsg is the published form of a day's directional call
type SignalMsg struct {
	Instrument string    `json:"instrument"`
	AsOfDate   string    `json:"asof_date"`
	Signal     string    `json:"signal"`
	ProbUp     float64   `json:"prob_up"`
	RunTime    time.Time `json:"run_time"`
}

// NewSignalMsg builds a signal event from a ledger record
func NewSignalMsg(rec *model.PredictionRecord) *SignalMsg {
	return &SignalMsg{
		Instrument: rec.Instrument,
		AsOfDate:   rec.AsOfDate.Format(model.DateLayout),
		Signal:     rec.Signal,
		ProbUp:     rec.ProbUp,
		RunTime:    rec.RunTime,
	}
}

// Encode serializes a message to JSON bytes
func Encode(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeSignal deserializes a SignalMsg from JSON bytes
func DecodeSignal(data []byte) (*SignalMsg, error) {
	var msg SignalMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
