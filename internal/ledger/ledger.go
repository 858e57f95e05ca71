// Package ledger tracks which spool files have been processed and which are
// still retrying. It is the only shared mutable state in the pipeline, so all
// access is serialized behind a mutex.
package ledger

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Fingerprint identifies one physical spool-file instance. A file rewritten
// in place changes size or mtime and therefore produces a new fingerprint;
// only exact repeats of an unchanged file are suppressed.
type Fingerprint string

// NewFingerprint derives the fingerprint from a path and its stat values.
func NewFingerprint(path string, size int64, modTime time.Time) Fingerprint {
	return Fingerprint(fmt.Sprintf("%s_%d_%d", filepath.Base(path), size, modTime.UnixMilli()))
}

// Decision classifies the outcome of a delivery attempt.
type Decision int

const (
	// DecisionDelivered finalizes the job as successfully sent.
	DecisionDelivered Decision = iota
	// DecisionRetryScheduled leaves the job pending; the next poll cycle that
	// re-sees the same unresolved file retries it. There is no retry timer.
	DecisionRetryScheduled
	// DecisionGiveUp finalizes the job as failed after the retry budget.
	DecisionGiveUp
)

func (d Decision) String() string {
	switch d {
	case DecisionDelivered:
		return "delivered"
	case DecisionRetryScheduled:
		return "retry_scheduled"
	case DecisionGiveUp:
		return "give_up"
	}
	return "unknown"
}

type entry struct {
	lastSeen  time.Time
	retries   int
	terminal  bool
	delivered bool
}

// Ledger is a bounded fingerprint table. Terminal entries suppress
// re-processing; pending entries carry the retry count between polls.
type Ledger struct {
	mu         sync.Mutex
	entries    map[Fingerprint]*entry
	maxEntries int
	now        func() time.Time
}

// New returns a Ledger bounded to maxEntries; non-positive means the 10000
// default.
func New(maxEntries int) *Ledger {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	return &Ledger{
		entries:    make(map[Fingerprint]*entry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// ShouldProcess reports whether fp still needs a delivery attempt. Terminal
// fingerprints (delivered or given up on) are skipped silently.
func (l *Ledger) ShouldProcess(fp Fingerprint) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[fp]
	return !ok || !e.terminal
}

// RecordSuccess finalizes fp as delivered and clears its retry state.
func (l *Ledger) RecordSuccess(fp Fingerprint) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[fp] = &entry{lastSeen: l.now(), terminal: true, delivered: true}
}

// RecordFailure increments the retry count for fp. Below maxRetries the entry
// stays pending and the decision is DecisionRetryScheduled; at or above it the
// entry is finalized as failed and the decision is DecisionGiveUp.
func (l *Ledger) RecordFailure(fp Fingerprint, maxRetries int) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[fp]
	if !ok {
		e = &entry{}
		l.entries[fp] = e
	}
	e.lastSeen = l.now()
	e.retries++

	if e.retries < maxRetries {
		return DecisionRetryScheduled
	}
	e.terminal = true
	e.delivered = false
	e.retries = 0
	return DecisionGiveUp
}

// Retries returns the pending retry count for fp.
func (l *Ledger) Retries(fp Fingerprint) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[fp]; ok {
		return e.retries
	}
	return 0
}

// Len returns the number of tracked fingerprints.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// EvictIfOverCapacity drops the least recently seen half of the ledger once
// it grows past the configured bound. Approximate LRU: evicting an old
// terminal entry only risks a rare duplicate re-delivery, never data loss.
func (l *Ledger) EvictIfOverCapacity() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) <= l.maxEntries {
		return 0
	}

	type keyed struct {
		fp Fingerprint
		at time.Time
	}
	all := make([]keyed, 0, len(l.entries))
	for fp, e := range l.entries {
		all = append(all, keyed{fp: fp, at: e.lastSeen})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].at.After(all[j].at) })

	keep := l.maxEntries / 2
	evicted := len(all) - keep
	for _, k := range all[keep:] {
		delete(l.entries, k.fp)
	}
	return evicted
}
