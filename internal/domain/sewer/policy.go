package sewer

import "time"

// OpenPolicy governs whether a confirmed cage should be escaped immediately
// to keep opening grates and twisting valves.
type OpenPolicy struct {
	// Enabled mirrors the OPEN_EVERYTHING setting.
	Enabled bool
	// KeepAboveAdventures is the budget below which we stop burning turns
	// on side objectives and accept the cage.
	KeepAboveAdventures int
}

// OpenProgress tracks side-objective counts for one run, split into what
// this run opened and what the instance already had open beforehand.
type OpenProgress struct {
	Grates      int
	Valves      int
	FoundGrates int
	FoundValves int
}

func (p OpenProgress) TotalGrates() int { return p.Grates + p.FoundGrates }
func (p OpenProgress) TotalValves() int { return p.Valves + p.FoundValves }

// EscapeToKeepOpening decides the tie-break after a cage is confirmed:
// grates are prioritized over valves, and valves are pursued only with a
// large surplus once all grates are open.
func (p OpenPolicy) EscapeToKeepOpening(remainingAdventures int, prog OpenProgress) bool {
	if !p.Enabled {
		return false
	}
	if remainingAdventures <= p.KeepAboveAdventures {
		return false
	}
	if prog.TotalGrates() >= GrateCap && prog.TotalValves() < ValveCap {
		return remainingAdventures > ValveSurplusFloor
	}
	return prog.TotalGrates() < GrateCap
}

// Releasable reports whether the fixed release window has elapsed, opening
// the unconditional "release" command to anyone.
func Releasable(startedAt, now time.Time) bool {
	return now.Sub(startedAt) > ReleaseWindow
}
