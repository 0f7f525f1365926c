package ports

import "github.com/loathers/cagebot/internal/domain/sewer"

// PageClassifier is the single seam behind which all raw-markup pattern
// matching hides. The core's control flow only ever sees symbolic outcomes.
type PageClassifier interface {
	// ClassifyAdventure maps one adventure response to its outcome.
	ClassifyAdventure(page string) sewer.Outcome
	// GrateOpened and ValveTwisted inspect the confirmatory follow-up
	// page; false means the encounter granted no progress (free turn).
	GrateOpened(page string) bool
	ValveTwisted(page string) bool
	// CagePresent detects the caged state on the location page.
	CagePresent(page string) bool
	// CombatPopup detects a leftover combat interstitial.
	CombatPopup(page string) bool
	// MidChoice detects the "still stuck in an encounter" state.
	MidChoice(page string) bool
}
