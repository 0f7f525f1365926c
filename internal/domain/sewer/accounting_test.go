package sewer

import (
	"errors"
	"testing"
)

func TestTurnAccountingReconcileFoldsSegment(t *testing.T) {
	acct := NewTurnAccounting(CharacterStatus{Adventures: 100, TurnsPlayed: 5000})

	for i := 0; i < 4; i++ {
		acct.NoteSpend()
	}
	acct.Refund()

	if got := acct.Remaining(); got != 97 {
		t.Fatalf("expected remaining 97, got %d", got)
	}

	if err := acct.Reconcile(CharacterStatus{Adventures: 97, TurnsPlayed: 5003}); err != nil {
		t.Fatalf("reconcile error: %v", err)
	}
	if got := acct.ConfirmedSpent(); got != 3 {
		t.Fatalf("expected confirmed 3, got %d", got)
	}
	if got := acct.EstimatedSpent(); got != 0 {
		t.Fatalf("expected segment estimate reset, got %d", got)
	}
}

func TestTurnAccountingDesync(t *testing.T) {
	acct := NewTurnAccounting(CharacterStatus{Adventures: 50, TurnsPlayed: 400})
	acct.NoteSpend()
	acct.NoteSpend()

	err := acct.Reconcile(CharacterStatus{Adventures: 50, TurnsPlayed: 400})
	if !errors.Is(err, ErrDesync) {
		t.Fatalf("expected ErrDesync, got %v", err)
	}
}

func TestTurnAccountingNoDesyncWithoutSpend(t *testing.T) {
	acct := NewTurnAccounting(CharacterStatus{Adventures: 50, TurnsPlayed: 400})

	if err := acct.Reconcile(CharacterStatus{Adventures: 50, TurnsPlayed: 400}); err != nil {
		t.Fatalf("reconcile with zero estimate should not desync: %v", err)
	}
}

func TestTurnAccountingConservation(t *testing.T) {
	acct := NewTurnAccounting(CharacterStatus{Adventures: 100, TurnsPlayed: 1000})

	for i := 0; i < 6; i++ {
		acct.NoteSpend()
	}
	if err := acct.Reconcile(CharacterStatus{Adventures: 94, TurnsPlayed: 1006}); err != nil {
		t.Fatalf("reconcile error: %v", err)
	}
	for i := 0; i < 4; i++ {
		acct.NoteSpend()
	}

	// 100 at start, 90 at end: confirmed + checkpoint delta must agree.
	if got := acct.SpentTotal(90); got != 10 {
		t.Fatalf("expected total spend 10, got %d", got)
	}
}

func TestTurnAccountingRebaseAfterDiet(t *testing.T) {
	acct := NewTurnAccounting(CharacterStatus{Adventures: 20, TurnsPlayed: 100})
	if err := acct.Reconcile(CharacterStatus{Adventures: 20, TurnsPlayed: 100}); err != nil {
		t.Fatalf("reconcile error: %v", err)
	}

	acct.Rebase(50)
	if got := acct.Remaining(); got != 50 {
		t.Fatalf("expected remaining 50 after rebase, got %d", got)
	}
	if got := acct.SpentTotal(45); got != 5 {
		t.Fatalf("expected spend 5 after rebase, got %d", got)
	}
}

func TestNeedsReconcileThresholds(t *testing.T) {
	acct := NewTurnAccounting(CharacterStatus{Adventures: 100})

	for i := 0; i < ReconcileEveryTight; i++ {
		acct.NoteSpend()
	}
	if !acct.NeedsReconcile(true) {
		t.Fatalf("expected tight cadence to trigger at %d", ReconcileEveryTight)
	}
	if acct.NeedsReconcile(false) {
		t.Fatalf("loose cadence should not trigger at %d", ReconcileEveryTight)
	}

	for i := ReconcileEveryTight; i < ReconcileEveryLoose; i++ {
		acct.NoteSpend()
	}
	if !acct.NeedsReconcile(false) {
		t.Fatalf("expected loose cadence to trigger at %d", ReconcileEveryLoose)
	}
}
