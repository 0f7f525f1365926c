package sewer

import "time"

// Outcome classifies one sewer adventure attempt.
type Outcome string

const (
	// OutcomeCaged is the C. H. U. M. cage encounter, the terminal goal.
	OutcomeCaged Outcome = "caged"
	// OutcomeGrate is the sewer grate encounter; opening one costs the turn.
	OutcomeGrate Outcome = "grate"
	// OutcomeValve is the water-level valve encounter.
	OutcomeValve Outcome = "valve"
	// OutcomeRescue is a trapped-clanmate encounter.
	OutcomeRescue Outcome = "rescue"
	// OutcomeFight is a leftover combat popup; resolving it is a free turn.
	OutcomeFight Outcome = "fight"
	// OutcomeNothing is any unremarkable sewer turn.
	OutcomeNothing Outcome = "nothing"
)

// RunState is the terminal state of an adventure-loop run.
type RunState string

const (
	RunCaged     RunState = "caged"
	RunExhausted RunState = "exhausted"
	RunAborted   RunState = "aborted"
)

type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Clan struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CageTask records who asked for a caging and where. A task is "pending"
// while the loop is diving, "active" once the cage is confirmed.
type CageTask struct {
	Requester    Player    `json:"requester"`
	Clan         Clan      `json:"clan"`
	StartedAt    time.Time `json:"started"`
	APIResponses bool      `json:"apiResponses"`
	AutoRelease  bool      `json:"autoRelease"`
}

// CharacterStatus is the authoritative server-side view of the character,
// refetched on every query and never persisted.
type CharacterStatus struct {
	Level       int
	Adventures  int
	Full        int
	Drunk       int
	Meat        int
	TurnsPlayed int
	FamiliarID  int
	Equipment   map[string]int
}

// Summary is what a completed adventure-loop run reports back.
type Summary struct {
	State       RunState
	TurnsSpent  int
	TurnsLeft   int
	Grates      int
	TotalGrates int
	Valves      int
	TotalValves int
	Chews       int
	AbortReason string
}

type Whiteboard struct {
	Text     string
	Editable bool
}
