package app

import (
	"sync"

	"lairn-cli/internal/domain"
)

// Ledger is the append-only record of graded answers for one session,
// keyed by question ID. Entries are write-once: a second Put for the same
// question is rejected and leaves the ledger unchanged. The only way to
// shrink a ledger is to throw it away with its session.
type Ledger struct {
	mu      sync.RWMutex
	records map[string]domain.AnswerRecord
}

func NewLedger() *Ledger {
	return &Ledger{records: make(map[string]domain.AnswerRecord)}
}

// Has reports whether the question already has a graded record.
func (l *Ledger) Has(questionID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.records[questionID]
	return ok
}

// Get returns the record for the question, if present.
func (l *Ledger) Get(questionID string) (domain.AnswerRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	record, ok := l.records[questionID]
	return record, ok
}

// Put stores the record for the question. Returns ErrAlreadyAnswered if a
// record exists; the existing entry is never overwritten.
func (l *Ledger) Put(questionID string, record domain.AnswerRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.records[questionID]; ok {
		return domain.ErrAlreadyAnswered
	}
	l.records[questionID] = record
	return nil
}

// Len returns the number of graded records.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Records returns a copy of the ledger contents.
func (l *Ledger) Records() map[string]domain.AnswerRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]domain.AnswerRecord, len(l.records))
	for id, record := range l.records {
		out[id] = record
	}
	return out
}
