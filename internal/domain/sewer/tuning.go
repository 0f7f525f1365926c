package sewer

import "time"

const (
	// MaxFullness is the same for every character.
	MaxFullness = 15

	// Liver size depends on a one-time capability check at setup.
	BaseMaxDrunk       = 14
	SteelLiverMaxDrunk = 19

	// ReserveAdventureFloor is the budget the loop always keeps in hand;
	// diving below it would risk being unable to chew back out.
	ReserveAdventureFloor = 11

	// Per-instance caps on the side objectives.
	GrateCap = 20
	ValveCap = 20

	// ValveSurplusFloor gates valve work once grates are done: valves are
	// only worth burning turns on with a large adventure surplus.
	ValveSurplusFloor = 160

	// ChewOutTurnCost approximates the extra adventures a cage escape
	// consumes; charged to the optimistic estimate, reconciled later.
	ChewOutTurnCost = 10

	// ReleaseWindow is how long the requester has exclusive claim on the
	// cage before anyone may issue a release.
	ReleaseWindow = time.Hour

	// RolloverGuard refuses new cage attempts this close to rollover.
	RolloverGuard = 7 * time.Minute

	// Reconcile cadence for the turn tracker: tight while effect
	// maintenance is active, loose otherwise.
	ReconcileEveryTight = 6
	ReconcileEveryLoose = 30

	// ThirdPartyProbeEvery rate-limits the idle caged-state probe.
	ThirdPartyProbeEvery = 15 * time.Minute

	// TuxedoItemID improves drink yields; worn only for the sip.
	TuxedoItemID = 2489

	// BarrelMimicFamiliarID selects the curated diet table.
	BarrelMimicFamiliarID = 198
)
