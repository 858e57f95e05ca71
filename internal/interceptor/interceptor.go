// Package interceptor drives the job-intake pipeline: poll the spool
// directory, scrape and parse each candidate job, deliver parsed receipts,
// and keep the ledger and stats straight. Health checks and status reports
// run as independent periodic tasks sharing one cancellation signal.
package interceptor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/posbridge/receipt-interceptor/internal/api"
	"github.com/posbridge/receipt-interceptor/internal/common"
	"github.com/posbridge/receipt-interceptor/internal/extract"
	"github.com/posbridge/receipt-interceptor/internal/history"
	"github.com/posbridge/receipt-interceptor/internal/identity"
	"github.com/posbridge/receipt-interceptor/internal/ledger"
	"github.com/posbridge/receipt-interceptor/internal/receipt"
	"github.com/posbridge/receipt-interceptor/internal/spooler"
	"github.com/posbridge/receipt-interceptor/internal/status"
)

// Sender is the slice of the API client the pipeline depends on.
type Sender interface {
	SubmitReceipt(ctx context.Context, r *receipt.Receipt) (map[string]any, error)
	Health(ctx context.Context) error
	Register(ctx context.Context, req api.RegistrationRequest) (api.RegistrationResponse, error)
	SetAPIKey(key string)
	Configured() bool
}

// Historian records finalized deliveries durably. Nil disables history.
type Historian interface {
	Record(ctx context.Context, e history.Entry) error
}

// Interceptor owns the pipeline state and the periodic loops.
type Interceptor struct {
	cfg     *common.Config
	logger  *slog.Logger
	ledger  *ledger.Ledger
	parser  *receipt.Parser
	client  Sender
	service spooler.Controller
	emitter *status.Emitter
	hist    Historian
	stats   *Stats

	registered atomic.Bool
	healthy    atomic.Bool

	// nudged by the fsnotify watcher between poll ticks
	scanNudge chan struct{}
}

// New wires an Interceptor from its collaborators. cfg, client and service
// are required; emitter and hist may be nil.
func New(cfg *common.Config, client Sender, service spooler.Controller, emitter *status.Emitter, hist Historian, logger *slog.Logger) *Interceptor {
	if logger == nil {
		logger = slog.Default()
	}
	it := &Interceptor{
		cfg:       cfg,
		logger:    logger,
		ledger:    ledger.New(cfg.Ledger.MaxEntries),
		parser:    receipt.NewParser(cfg.Parser.MinTextLength, cfg.Parser.MaxRawContent),
		client:    client,
		service:   service,
		emitter:   emitter,
		hist:      hist,
		stats:     newStats(),
		scanNudge: make(chan struct{}, 1),
	}
	it.healthy.Store(true)
	return it
}

// Stats exposes the counters read-only (snapshot copies).
func (it *Interceptor) Stats() status.StatsSnapshot {
	return it.stats.Snapshot()
}

// Run starts the poll, health and status loops and blocks until ctx is
// canceled. Fatal preconditions are returned as errors; the caller decides
// whether to exit the process. In-flight deliveries are abandoned on
// cancellation; their ledger entries were never finalized, so they are
// retried on the next start.
func (it *Interceptor) Run(ctx context.Context) error {
	if _, err := os.Stat(it.cfg.Spool.Path); err != nil {
		return common.NewAppError("SPOOL_MISSING",
			fmt.Sprintf("print spool path not found: %s", it.cfg.Spool.Path),
			common.ErrSpoolMissing)
	}

	it.logger.Info("interceptor.start",
		"terminal_id", it.cfg.API.TerminalID,
		"location_id", it.cfg.API.LocationID,
		"endpoint", it.cfg.API.Endpoint,
		"spool_path", it.cfg.Spool.Path,
		"poll_interval", it.cfg.Spool.PollInterval,
	)

	if it.cfg.API.AutoRegister {
		it.autoRegister(ctx)
	}

	if err := watchSpool(ctx, it.cfg.Spool.Path, 100*time.Millisecond, it.scanNudge, it.logger); err != nil {
		// polling still covers us
		it.logger.Warn("interceptor.watch.unavailable", "error", err)
	}

	it.emitStatus()

	var wg sync.WaitGroup
	wg.Add(3)
	go it.pollLoop(ctx, &wg)
	go it.healthLoop(ctx, &wg)
	go it.statusLoop(ctx, &wg)
	wg.Wait()

	it.logger.Info("interceptor.stop")
	return nil
}

func (it *Interceptor) pollLoop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	ticker := time.NewTicker(it.cfg.Spool.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			it.safely(func() { it.scanSpool(ctx) })
		case <-it.scanNudge:
			it.safely(func() { it.scanSpool(ctx) })
		}
	}
}

func (it *Interceptor) healthLoop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	ticker := time.NewTicker(it.cfg.API.HealthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			it.safely(func() { it.healthCheck(ctx) })
		}
	}
}

func (it *Interceptor) statusLoop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	ticker := time.NewTicker(it.cfg.API.StatusInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			it.safely(it.emitStatus)
		}
	}
}

// safely keeps a panicking tick from killing its loop: log it, report it
// upstream, carry on with the next tick.
func (it *Interceptor) safely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			it.logger.Error("interceptor.panic", "panic", r)
			it.emitter.Error(fmt.Sprintf("uncaught error: %v", r))
		}
	}()
	fn()
}

// scanSpool is one polling tick: every regular file in the spool directory is
// fingerprinted and, if still unresolved, pushed through the pipeline.
func (it *Interceptor) scanSpool(ctx context.Context) {
	entries, err := os.ReadDir(it.cfg.Spool.Path)
	if err != nil {
		// spool dir may be briefly unavailable; next tick retries
		return
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		it.processJobFile(ctx, filepath.Join(it.cfg.Spool.Path, entry.Name()), info.Size(), info.ModTime())
	}

	if evicted := it.ledger.EvictIfOverCapacity(); evicted > 0 {
		it.logger.Info("interceptor.ledger.evicted", "entries", evicted)
	}
}

// processJobFile drives extract → parse → deliver → ledger for one file.
// Read failures are skipped silently: the spooler deletes and locks files
// mid-flight, and the next tick will see whatever is left.
func (it *Interceptor) processJobFile(ctx context.Context, path string, size int64, modTime time.Time) {
	if size < it.cfg.Spool.MinJobSize {
		return
	}

	fp := ledger.NewFingerprint(path, size, modTime)
	if !it.ledger.ShouldProcess(fp) {
		return
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return
	}

	text := extract.Text(buf)
	rec := it.parser.Parse(text)
	if rec == nil {
		// not a receipt; never retried, never counted
		return
	}
	rec.Stamp(it.cfg.API.TerminalID, it.cfg.API.LocationID)

	it.logger.Info("interceptor.receipt.intercepted",
		"receipt_id", rec.ReceiptID,
		"items", rec.ItemCount,
		"total", rec.Total,
	)
	it.emitter.Log("info", fmt.Sprintf("Intercepted receipt: %s (%d items, $%.2f)", rec.ReceiptID, rec.ItemCount, rec.Total))

	if _, err := it.client.SubmitReceipt(ctx, rec); err != nil {
		it.deliveryFailed(ctx, fp, rec, err)
		return
	}

	it.ledger.RecordSuccess(fp)
	it.stats.receiptProcessed()
	it.stats.apiOK()
	it.recordHistory(ctx, fp, rec, true)
	it.logger.Info("interceptor.receipt.delivered", "receipt_id", rec.ReceiptID)
	it.emitStatus()
}

func (it *Interceptor) deliveryFailed(ctx context.Context, fp ledger.Fingerprint, rec *receipt.Receipt, cause error) {
	it.stats.apiError()

	decision := it.ledger.RecordFailure(fp, it.cfg.API.RetryAttempts)
	switch decision {
	case ledger.DecisionRetryScheduled:
		it.logger.Warn("interceptor.receipt.retry_scheduled",
			"receipt_id", rec.ReceiptID,
			"attempt", it.ledger.Retries(fp),
			"max_attempts", it.cfg.API.RetryAttempts,
			"error", cause,
		)
	case ledger.DecisionGiveUp:
		it.stats.receiptFailed()
		it.recordHistory(ctx, fp, rec, false)
		it.logger.Error("interceptor.receipt.gave_up",
			"receipt_id", rec.ReceiptID,
			"max_attempts", it.cfg.API.RetryAttempts,
			"error", cause,
		)
	}
	it.emitStatus()
}

func (it *Interceptor) recordHistory(ctx context.Context, fp ledger.Fingerprint, rec *receipt.Receipt, delivered bool) {
	if it.hist == nil {
		return
	}
	err := it.hist.Record(ctx, history.Entry{
		ReceiptID:   rec.ReceiptID,
		Fingerprint: string(fp),
		ItemCount:   rec.ItemCount,
		Total:       rec.Total,
		Delivered:   delivered,
	})
	if err != nil {
		it.logger.Warn("interceptor.history.record_error", "receipt_id", rec.ReceiptID, "error", err)
	}
}

// healthCheck verifies the print-spooler service and the remote endpoint,
// then publishes a status snapshot. Service start is one best-effort attempt,
// no backoff loop.
func (it *Interceptor) healthCheck(ctx context.Context) {
	healthy := true

	running, err := it.service.IsRunning(ctx)
	if err != nil {
		it.logger.Warn("interceptor.health.spooler_query_error", "error", err)
	} else if !running {
		it.logger.Warn("interceptor.health.spooler_down")
		it.emitter.Log("warn", "Print Spooler not running, attempting to start...")
		if err := it.service.Start(ctx); err != nil {
			it.logger.Error("interceptor.health.spooler_start_error", "error", err)
			healthy = false
		}
	}

	if it.client.Configured() {
		if err := it.client.Health(ctx); err != nil {
			it.stats.apiError()
			it.logger.Error("interceptor.health.api_error", "error", err)
			healthy = false
		} else {
			it.stats.apiOK()
		}
	}

	it.healthy.Store(healthy)
	it.emitStatus()
}

// autoRegister exchanges device identity for credentials when no API key is
// configured yet. One best-effort attempt; failure just leaves the terminal
// unregistered until the next restart.
func (it *Interceptor) autoRegister(ctx context.Context) {
	if !it.client.Configured() {
		return
	}
	if it.cfg.API.Key != "" {
		it.registered.Store(true)
		return
	}

	it.logger.Info("interceptor.register.attempt")
	resp, err := it.client.Register(ctx, api.RegistrationRequest{
		TerminalID: it.cfg.API.TerminalID,
		Hostname:   hostname(),
		Platform:   runtime.GOOS,
		Version:    common.Version,
		MACAddress: identity.MACAddress(),
	})
	if err != nil {
		it.logger.Warn("interceptor.register.failed", "error", err)
		return
	}
	if resp.APIKey == "" {
		it.logger.Warn("interceptor.register.declined")
		return
	}

	it.cfg.API.Key = resp.APIKey
	it.cfg.API.LocationID = resp.LocationID
	it.client.SetAPIKey(resp.APIKey)
	it.registered.Store(true)
	if err := it.cfg.Save(); err != nil {
		it.logger.Warn("interceptor.register.save_error", "error", err)
	}
	it.logger.Info("interceptor.register.ok", "location_id", resp.LocationID)
}

func (it *Interceptor) emitStatus() {
	it.emitter.Status(it.stats.Snapshot(), status.ConfigSummary{
		TerminalID:  it.cfg.API.TerminalID,
		LocationID:  it.cfg.API.LocationID,
		Registered:  it.registered.Load(),
		Healthy:     it.healthy.Load(),
		APIEndpoint: it.cfg.API.Endpoint,
	})
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}
