package engine

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Decision struct {
	RunID           string             `json:"run_id"`
	Cycle           uint64             `json:"cycle"`
	Timestamp       time.Time          `json:"timestamp"`
	Allocation      map[string]float64 `json:"allocation"`
	Reason          string             `json:"reason"`
	MissingKey      string             `json:"missing_key,omitempty"`
	PrimeRateRising bool               `json:"prime_rate_rising"`
	ProfitRising    bool               `json:"profit_rising"`
	Result          string             `json:"result"`
	SourceError     string             `json:"source_error,omitempty"`
	Side            string             `json:"side,omitempty"`
	Notional        string             `json:"notional,omitempty"`
	ApprovalReason  string             `json:"approval_reason,omitempty"`
	RejectReason    string             `json:"reject_reason,omitempty"`
	OrderID         string             `json:"order_id,omitempty"`
	ClientOrderID   string             `json:"client_order_id,omitempty"`
}

// DecisionSink receives one Decision per evaluation cycle.
type DecisionSink interface {
	Append(decision Decision)
}

// DecisionLogger appends decisions to an NDJSON file. Write failures are
// logged and never interrupt an evaluation cycle.
type DecisionLogger struct {
	file   *os.File
	writer *bufio.Writer
	log    zerolog.Logger
	mu     sync.Mutex
}

func NewDecisionLogger(path string, log zerolog.Logger) (*DecisionLogger, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &DecisionLogger{
		file:   file,
		writer: bufio.NewWriter(file),
		log:    log.With().Str("component", "decision_log").Str("path", path).Logger(),
	}, nil
}

func (d *DecisionLogger) Append(decision Decision) {
	d.mu.Lock()
	defer d.mu.Unlock()
	payload, err := json.Marshal(decision)
	if err != nil {
		d.log.Error().Err(err).Uint64("cycle", decision.Cycle).Msg("failed to marshal decision")
		return
	}
	if _, err := d.writer.Write(append(payload, '\n')); err != nil {
		d.log.Error().Err(err).Uint64("cycle", decision.Cycle).Msg("failed to write decision")
		return
	}
	if err := d.writer.Flush(); err != nil {
		d.log.Error().Err(err).Uint64("cycle", decision.Cycle).Msg("failed to flush decision log")
	}
}

func (d *DecisionLogger) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	flushErr := d.writer.Flush()
	closeErr := d.file.Close()
	if flushErr != nil {
		return fmt.Errorf("flush decision log: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close decision log: %w", closeErr)
	}
	return nil
}
