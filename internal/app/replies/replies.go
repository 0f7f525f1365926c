// Package replies shapes the machine-readable whisper payloads: flat JSON
// with a type discriminator. Game chat mangles literal spaces, so every
// space is escaped as %20 before sending.
package replies

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// RequestStatus values for notify replies.
const (
	StatusAccepted     = "Accepted"
	StatusBusy         = "Busy"
	StatusError        = "Error"
	StatusSeen         = "Seen"
	StatusIssue        = "Issue"
	StatusNotification = "Notification"
)

// Hobo states reported inside a status reply.
const (
	StateDiving     = "Diving"
	StateCaged      = "Caged"
	StateReleasable = "Releasable"
)

type Busy struct {
	Elapsed int    `json:"elapsed,omitempty"`
	Player  int    `json:"player,omitempty"`
	Clan    int    `json:"clan,omitempty"`
	State   string `json:"state"`
}

type Status struct {
	Type     string `json:"type"`
	Advs     int    `json:"advs"`
	Full     int    `json:"full"`
	MaxFull  int    `json:"maxFull"`
	Drunk    int    `json:"drunk"`
	MaxDrunk int    `json:"maxDrunk,omitempty"`
	Caged    bool   `json:"caged"`
	Status   *Busy  `json:"status,omitempty"`
}

type Diet struct {
	Type              string `json:"type"`
	PossibleAdvsToday int    `json:"possibleAdvsToday"`
	Food              int    `json:"food"`
	FullnessAdvs      int    `json:"fullnessAdvs"`
	Drink             int    `json:"drink"`
	DrunknessAdvs     int    `json:"drunknessAdvs"`
}

type Explored struct {
	Type        string `json:"type"`
	Caged       bool   `json:"caged"`
	AdvsUsed    int    `json:"advsUsed"`
	AdvsLeft    int    `json:"advsLeft"`
	Grates      int    `json:"grates"`
	TotalGrates int    `json:"totalGrates"`
	Valves      int    `json:"valves"`
	TotalValves int    `json:"totalValves"`
	Chews       int    `json:"chews"`
}

type Notify struct {
	Type    string `json:"type"`
	Status  string `json:"status"`
	Details string `json:"details,omitempty"`
}

// ToJSON encodes a reply payload with chat-safe space escaping.
func ToJSON(v any) string {
	b, err := sonic.Marshal(v)
	if err != nil {
		// Payloads are plain value structs; this cannot fail in practice.
		return `{"type":"notify","status":"Error"}`
	}
	return strings.ReplaceAll(string(b), " ", "%20")
}

// NotifyJSON is the common case: a notify payload with status and details.
func NotifyJSON(status, details string) string {
	return ToJSON(Notify{Type: "notify", Status: status, Details: details})
}

// FormatDuration renders seconds as H:MM:SS for human replies.
func FormatDuration(seconds int) string {
	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}
