package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/posbridge/receipt-interceptor/internal/api"
	"github.com/posbridge/receipt-interceptor/internal/common"
	"github.com/posbridge/receipt-interceptor/internal/history"
	"github.com/posbridge/receipt-interceptor/internal/identity"
	"github.com/posbridge/receipt-interceptor/internal/interceptor"
	"github.com/posbridge/receipt-interceptor/internal/logging"
	"github.com/posbridge/receipt-interceptor/internal/spooler"
	"github.com/posbridge/receipt-interceptor/internal/status"
)

func main() {
	// Logger for startup; the pipeline itself logs through slog
	zl, _ := zap.NewProduction()
	defer zl.Sync()
	log := zl.Sugar()

	cfg, err := common.LoadConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if cfg.API.TerminalID == "" {
		cfg.API.TerminalID = identity.TerminalID()
		if err := cfg.Save(); err != nil {
			log.Warnf("persisting terminal id: %v", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, logCloser, err := logging.NewLogger(cfg.LogDir(), cfg.Debug)
	if err != nil {
		log.Fatalf("opening log dir: %v", err)
	}
	defer logCloser.Close()

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := api.NewClient(cfg.API.Endpoint, cfg.API.Key, cfg.API.TerminalID, cfg.API.Timeout, logger)
	controller := spooler.NewController(nil)
	emitter := status.NewEmitter(os.Stdout)

	var hist interceptor.Historian
	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		log.Warnf("delivery history disabled: %v", err)
	} else {
		defer store.Close()
		hist = store
	}

	log.Infow("starting interceptor",
		"terminal_id", cfg.API.TerminalID,
		"spool_path", cfg.Spool.Path,
		"endpoint", cfg.API.Endpoint,
	)

	it := interceptor.New(cfg, client, controller, emitter, hist, logger)
	if err := it.Run(ctx); err != nil {
		// the only path that terminates the worker: fatal startup conditions
		log.Fatalf("interceptor: %v", err)
	}
	fmt.Println("stopped.")
}
