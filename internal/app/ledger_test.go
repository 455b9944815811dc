package app

import (
	"errors"
	"testing"

	"lairn-cli/internal/domain"
)

func TestLedgerWriteOnce(t *testing.T) {
	ledger := NewLedger()

	first := domain.AnswerRecord{Result: domain.GradedAnswer{IsCorrect: true}}
	if err := ledger.Put("q1", first); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !ledger.Has("q1") {
		t.Fatalf("expected record for q1")
	}

	second := domain.AnswerRecord{Result: domain.GradedAnswer{IsCorrect: false}}
	if err := ledger.Put("q1", second); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected conflict, got %v", err)
	}

	record, ok := ledger.Get("q1")
	if !ok || !record.Result.IsCorrect {
		t.Fatalf("expected first record preserved, got %+v ok=%v", record, ok)
	}
	if ledger.Len() != 1 {
		t.Fatalf("expected 1 record, got %d", ledger.Len())
	}
}

func TestLedgerRecordsReturnsCopy(t *testing.T) {
	ledger := NewLedger()
	if err := ledger.Put("q1", domain.AnswerRecord{}); err != nil {
		t.Fatalf("put: %v", err)
	}

	records := ledger.Records()
	delete(records, "q1")
	if !ledger.Has("q1") {
		t.Fatalf("mutating the copy must not touch the ledger")
	}
}

func TestLedgerMissingQuestion(t *testing.T) {
	ledger := NewLedger()
	if ledger.Has("missing") {
		t.Fatalf("unexpected record")
	}
	if _, ok := ledger.Get("missing"); ok {
		t.Fatalf("unexpected record from Get")
	}
}
