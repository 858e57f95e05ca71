// exporthistory writes the local delivery history to an XLSX workbook.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/posbridge/receipt-interceptor/internal/common"
	"github.com/posbridge/receipt-interceptor/internal/export"
	"github.com/posbridge/receipt-interceptor/internal/history"
)

func main() {
	out := flag.String("out", "deliveries.xlsx", "output workbook path")
	fromStr := flag.String("from", "", "start date (YYYY-MM-DD, inclusive)")
	toStr := flag.String("to", "", "end date (YYYY-MM-DD, inclusive)")
	flag.Parse()

	cfg, err := common.LoadConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	var from, to *time.Time
	if *fromStr != "" {
		t, err := time.Parse("2006-01-02", *fromStr)
		if err != nil {
			log.Fatalf("bad -from date: %v", err)
		}
		from = &t
	}
	if *toStr != "" {
		t, err := time.Parse("2006-01-02", *toStr)
		if err != nil {
			log.Fatalf("bad -to date: %v", err)
		}
		to = &t
	}

	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		log.Fatalf("opening history db: %v", err)
	}
	defer store.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	svc := export.NewService(store, logger)

	bs, err := svc.DeliveriesXLSX(context.Background(), from, to)
	if err != nil {
		log.Fatalf("export: %v", err)
	}
	if err := os.WriteFile(*out, bs, 0o644); err != nil {
		log.Fatalf("writing %s: %v", *out, err)
	}
	log.Printf("wrote %s (%d bytes)", *out, len(bs))
}
