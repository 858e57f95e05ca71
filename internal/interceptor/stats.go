package interceptor

import (
	"sync"
	"time"

	"github.com/posbridge/receipt-interceptor/internal/status"
)

// Stats is the process-wide delivery counters, owned by the Interceptor and
// reset only on restart. Readers get copies via Snapshot.
type Stats struct {
	mu                sync.Mutex
	receiptsProcessed int64
	receiptsFailed    int64
	apiSuccess        int64
	apiErrors         int64
	lastReceipt       time.Time
	startedAt         time.Time
}

func newStats() *Stats {
	return &Stats{startedAt: time.Now()}
}

func (s *Stats) receiptProcessed() {
	s.mu.Lock()
	s.receiptsProcessed++
	s.lastReceipt = time.Now()
	s.mu.Unlock()
}

func (s *Stats) receiptFailed() {
	s.mu.Lock()
	s.receiptsFailed++
	s.mu.Unlock()
}

func (s *Stats) apiOK() {
	s.mu.Lock()
	s.apiSuccess++
	s.mu.Unlock()
}

func (s *Stats) apiError() {
	s.mu.Lock()
	s.apiErrors++
	s.mu.Unlock()
}

// Snapshot returns a point-in-time copy for status events.
func (s *Stats) Snapshot() status.StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := status.StatsSnapshot{
		ReceiptsProcessed: s.receiptsProcessed,
		ReceiptsFailed:    s.receiptsFailed,
		APISuccess:        s.apiSuccess,
		APIErrors:         s.apiErrors,
		UptimeMillis:      time.Since(s.startedAt).Milliseconds(),
	}
	if !s.lastReceipt.IsZero() {
		snap.LastReceipt = s.lastReceipt.UnixMilli()
	}
	return snap
}
