// Package history is the local durable record of finalized deliveries. The
// in-memory ledger stays authoritative for dedup; this store is the audit
// trail behind it and feeds the export tooling. All writes are best-effort:
// a history failure must never fail a delivery.
package history

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/posbridge/receipt-interceptor/internal/common"
)

// Entry is one finalized delivery attempt.
type Entry struct {
	ID          string
	ReceiptID   string
	Fingerprint string
	ItemCount   int
	Total       float64
	Delivered   bool
	RecordedAt  time.Time
}

// Store wraps the SQLite delivery-history database.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS deliveries (
	id          TEXT PRIMARY KEY,
	receipt_id  TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	item_count  INTEGER NOT NULL,
	total       REAL NOT NULL,
	delivered   INTEGER NOT NULL,
	recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS deliveries_recorded_at ON deliveries (recorded_at);
`

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, common.WrapError(err, "open history db")
	}
	// modernc sqlite is single-writer; serialize access through one conn
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, common.WrapError(err, "migrate history db")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one finalized entry. The caller decides delivered/failed.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}
	delivered := 0
	if e.Delivered {
		delivered = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deliveries (id, receipt_id, fingerprint, item_count, total, delivered, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ReceiptID, e.Fingerprint, e.ItemCount, e.Total, delivered,
		e.RecordedAt.UTC().UnixMilli(),
	)
	return common.WrapError(err, "insert delivery")
}

// List returns entries in the given window, newest first. Nil bounds are
// open-ended.
func (s *Store) List(ctx context.Context, from, to *time.Time) ([]Entry, error) {
	q := `SELECT id, receipt_id, fingerprint, item_count, total, delivered, recorded_at
	      FROM deliveries`
	var args []any
	var conds []string
	if from != nil {
		conds = append(conds, "recorded_at >= ?")
		args = append(args, from.UTC().UnixMilli())
	}
	if to != nil {
		conds = append(conds, "recorded_at <= ?")
		args = append(args, to.UTC().UnixMilli())
	}
	for i, c := range conds {
		if i == 0 {
			q += " WHERE " + c
		} else {
			q += " AND " + c
		}
	}
	q += " ORDER BY recorded_at DESC"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, common.WrapError(err, "query deliveries")
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var delivered int
		var recordedAt int64
		if err := rows.Scan(&e.ID, &e.ReceiptID, &e.Fingerprint, &e.ItemCount, &e.Total, &delivered, &recordedAt); err != nil {
			return nil, common.WrapError(err, "scan delivery")
		}
		e.Delivered = delivered != 0
		e.RecordedAt = time.UnixMilli(recordedAt).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
