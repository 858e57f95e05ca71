// Package status emits line-delimited JSON events for a supervising process,
// mirroring the child-process IPC contract of the desktop shell.
package status

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// StatsSnapshot is the read-only view of orchestrator stats carried on
// status events.
type StatsSnapshot struct {
	ReceiptsProcessed int64  `json:"receiptsProcessed"`
	ReceiptsFailed    int64  `json:"receiptsFailed"`
	APISuccess        int64  `json:"apiSuccess"`
	APIErrors         int64  `json:"apiErrors"`
	LastReceipt       int64  `json:"lastReceipt,omitempty"`
	UptimeMillis      int64  `json:"uptime"`
}

// ConfigSummary is the config subset a supervisor cares about.
type ConfigSummary struct {
	TerminalID  string `json:"terminalId"`
	LocationID  string `json:"locationId"`
	Registered  bool   `json:"registered"`
	Healthy     bool   `json:"healthy"`
	APIEndpoint string `json:"apiEndpoint"`
}

type logEvent struct {
	Type      string `json:"type"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type statusEvent struct {
	Type      string        `json:"type"`
	Stats     StatsSnapshot `json:"stats"`
	Config    ConfigSummary `json:"config"`
	Timestamp int64         `json:"timestamp"`
}

type errorEvent struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// Emitter writes one JSON event per line. A nil writer makes every method a
// no-op, for runs without a supervisor attached.
type Emitter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewEmitter(w io.Writer) *Emitter {
	e := &Emitter{}
	if w != nil {
		e.enc = json.NewEncoder(w)
	}
	return e
}

// Log forwards a log line upstream.
func (e *Emitter) Log(level, message string) {
	e.emit(logEvent{
		Type:      "log",
		Level:     level,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Status forwards a periodic stats snapshot.
func (e *Emitter) Status(stats StatsSnapshot, cfg ConfigSummary) {
	e.emit(statusEvent{
		Type:      "status",
		Stats:     stats,
		Config:    cfg,
		Timestamp: time.Now().UnixMilli(),
	})
}

// Error forwards an uncaught-error notification.
func (e *Emitter) Error(message string) {
	e.emit(errorEvent{
		Type:      "error",
		Message:   message,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (e *Emitter) emit(event any) {
	if e == nil || e.enc == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	// Encode errors are swallowed: a broken supervisor pipe must never take
	// down the pipeline.
	_ = e.enc.Encode(event)
}
