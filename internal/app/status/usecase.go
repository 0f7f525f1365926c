// Package status answers status queries, in prose or as the flat JSON
// payload machine callers parse.
package status

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/loathers/cagebot/internal/app/cage"
	"github.com/loathers/cagebot/internal/app/ports"
	"github.com/loathers/cagebot/internal/app/replies"
	"github.com/loathers/cagebot/internal/domain/sewer"
)

type UseCase struct {
	Client ports.GameClient
	Keeper *cage.Keeper
}

// Report sends the human-readable status: where we are caged, who asked,
// and how the release window stands.
func (u *UseCase) Report(ctx context.Context, who sewer.Player, reply ports.Reply) error {
	status, err := u.Client.Status(ctx)
	if err != nil {
		return err
	}

	if u.Keeper.IsCaged() {
		if task := u.Keeper.Task(); task != nil {
			cageSecs := u.Keeper.SecondsInTask()

			msg := fmt.Sprintf("I have been caged in %s for %s, at the request of %s (#%s).",
				task.Clan.Name, replies.FormatDuration(cageSecs), task.Requester.Name, task.Requester.ID)
			if err := reply(ctx, msg); err != nil {
				return err
			}

			if u.Keeper.Releasable() {
				msg = fmt.Sprintf(`As I've been caged for at least an hour, anyone can release me by whispering "release" to me. I have %d adventures left.`, status.Adventures)
			} else {
				msg = fmt.Sprintf(`They can release me at any time by whispering "escape" to me, or anyone can release me by whispering "release" to me in %s. I have %d adventures left.`,
					replies.FormatDuration(3600-cageSecs), status.Adventures)
			}
			if err := reply(ctx, msg); err != nil {
				return err
			}
		} else {
			msg := fmt.Sprintf(`I am caged, but I don't know where, when, or for how long. Anyone can release me by whispering "release" to me. I have %d adventures left.`, status.Adventures)
			if err := reply(ctx, msg); err != nil {
				return err
			}
		}
	} else {
		msg := fmt.Sprintf("I am not presently caged and have %d adventures left.", status.Adventures)
		if err := reply(ctx, msg); err != nil {
			return err
		}
	}

	maxDrunk := "???"
	if u.Keeper.KnowsMaxDrunk() {
		maxDrunk = strconv.Itoa(u.Keeper.MaxDrunk())
	}
	return reply(ctx, fmt.Sprintf("My current fullness is %d/%d and drunkeness is %d/%s.",
		status.Full, sewer.MaxFullness, status.Drunk, maxDrunk))
}

// ReportAPI sends the JSON status payload. The hobo state folds the
// asker's identity in: the requester always sees Releasable.
func (u *UseCase) ReportAPI(ctx context.Context, who sewer.Player, reply ports.Reply) error {
	status, err := u.Client.Status(ctx)
	if err != nil {
		return err
	}

	payload := replies.Status{
		Type:    "status",
		Advs:    status.Adventures,
		Full:    status.Full,
		MaxFull: sewer.MaxFullness,
		Drunk:   status.Drunk,
		Caged:   u.Keeper.IsCaged(),
	}
	if u.Keeper.KnowsMaxDrunk() {
		payload.MaxDrunk = u.Keeper.MaxDrunk()
	}

	task := u.Keeper.Task()
	if u.Keeper.IsCaged() || task != nil {
		busy := &replies.Busy{}
		switch {
		case !u.Keeper.IsCaged():
			busy.State = replies.StateDiving
		case u.Keeper.Releasable() || task == nil || task.Requester.ID == who.ID:
			busy.State = replies.StateReleasable
		default:
			busy.State = replies.StateCaged
		}
		if task != nil {
			busy.Elapsed = u.Keeper.SecondsInTask()
			busy.Player, _ = strconv.Atoi(task.Requester.ID)
			busy.Clan, _ = strconv.Atoi(task.Clan.ID)
		}
		payload.Status = busy
	}

	return reply(ctx, replies.ToJSON(payload))
}

// Snapshot is the operator's read-only view, served over HTTP.
type Snapshot struct {
	Caged          bool   `json:"caged"`
	TaskPresent    bool   `json:"taskPresent"`
	Clan           string `json:"clan,omitempty"`
	ElapsedSeconds int    `json:"elapsedSeconds"`
	Releasable     bool   `json:"releasable"`
}

func (u *UseCase) Snapshot() Snapshot {
	snap := Snapshot{
		Caged:      u.Keeper.IsCaged(),
		Releasable: u.Keeper.Releasable(),
	}
	if task := u.Keeper.Task(); task != nil {
		snap.TaskPresent = true
		snap.Clan = task.Clan.Name
		snap.ElapsedSeconds = u.Keeper.SecondsInTask()
	}
	return snap
}

// Help sends the command overview.
func (u *UseCase) Help(ctx context.Context, reply ports.Reply) error {
	me := u.Client.Me()
	lines := []string{
		fmt.Sprintf("Hi! I am %s (#%s), and I am running Phillammon's Cagebot script.", me.Name, me.ID),
		"My commands:",
		"- status: Get my current status",
		"- cage [clanname]: Try to get caged in the specified clan's hobopolis instance",
		"- escape: If you're the person who requested I got caged, chews out of the cage I'm in",
		"- release: Chew out of the cage, REGARDLESS of who is responsible for the caging. Only usable if I've been caged for an hour or something's gone wrong.",
		"- help: Displays this message.",
	}
	for _, line := range lines {
		if err := reply(ctx, line); err != nil {
			return err
		}
	}
	return nil
}

// DidntUnderstand is the fallback for unrecognized commands.
func (u *UseCase) DidntUnderstand(ctx context.Context, who sewer.Player, reply ports.Reply) error {
	log.Printf("%s (#%s) made an incomprehensible request.", who.Name, who.ID)
	return reply(ctx, `I'm afraid I didn't understand that. Whisper me "help" for details of how to use me.`)
}
