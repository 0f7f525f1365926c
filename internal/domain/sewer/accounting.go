package sewer

import "errors"

// ErrDesync means the server's played-turn counter did not advance even
// though we believe turns were spent. Screen-scraped POSTs carry no
// transactional guarantee; this is the only defense against looping
// forever on a stalled session.
var ErrDesync = errors.New("expected turns consumed but none were")

// TurnAccounting reconciles the optimistic local estimate of spent turns
// against the authoritative counters. Individual adventure calls do not map
// 1:1 to budget: refunded encounters cost nothing, cage escapes cost extra.
type TurnAccounting struct {
	// budgetCheckpoint is the adventure count at the last reconciliation.
	budgetCheckpoint int
	// estimatedSpent is the optimistic spend since the checkpoint.
	estimatedSpent int
	// confirmedSpent is the reconciled running total.
	confirmedSpent int
	// turnsPlayed is the server's lifetime turn counter at the checkpoint.
	turnsPlayed int
}

func NewTurnAccounting(status CharacterStatus) *TurnAccounting {
	return &TurnAccounting{
		budgetCheckpoint: status.Adventures,
		turnsPlayed:      status.TurnsPlayed,
	}
}

// NoteSpend optimistically charges one turn before the attempt is made.
func (a *TurnAccounting) NoteSpend() { a.estimatedSpent++ }

// Refund takes back the optimistic charge for a free turn.
func (a *TurnAccounting) Refund() { a.estimatedSpent-- }

// Charge adds a flat extra cost, such as the cage escape.
func (a *TurnAccounting) Charge(turns int) { a.estimatedSpent += turns }

// Remaining is the locally estimated adventure budget.
func (a *TurnAccounting) Remaining() int { return a.budgetCheckpoint - a.estimatedSpent }

// EstimatedSpent is the unreconciled segment estimate.
func (a *TurnAccounting) EstimatedSpent() int { return a.estimatedSpent }

// ConfirmedSpent is the reconciled running total.
func (a *TurnAccounting) ConfirmedSpent() int { return a.confirmedSpent }

// NeedsReconcile reports whether the segment estimate has outgrown the
// configured cadence.
func (a *TurnAccounting) NeedsReconcile(effectMaintenance bool) bool {
	threshold := ReconcileEveryLoose
	if effectMaintenance {
		threshold = ReconcileEveryTight
	}
	return a.estimatedSpent >= threshold
}

// Reconcile folds the segment into the confirmed total against a fresh
// authoritative status. Returns ErrDesync when turns should have been
// consumed but the server's counter never moved.
func (a *TurnAccounting) Reconcile(status CharacterStatus) error {
	if a.estimatedSpent > 0 && status.TurnsPlayed == a.turnsPlayed {
		return ErrDesync
	}
	a.confirmedSpent += a.budgetCheckpoint - status.Adventures
	a.budgetCheckpoint = status.Adventures
	a.estimatedSpent = 0
	a.turnsPlayed = status.TurnsPlayed
	return nil
}

// Rebase moves the budget checkpoint without folding anything, used after
// diet maintenance raises the adventure count mid-run.
func (a *TurnAccounting) Rebase(adventures int) { a.budgetCheckpoint = adventures }

// SpentTotal is the reconciled spend for a finished run given the final
// adventure count.
func (a *TurnAccounting) SpentTotal(adventuresLeft int) int {
	return a.confirmedSpent + (a.budgetCheckpoint - adventuresLeft)
}
