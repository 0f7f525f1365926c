package cage

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/loathers/cagebot/internal/app/ports"
	"github.com/loathers/cagebot/internal/domain/sewer"
)

// Keeper owns the authoritative caged/uncaged flag and the single active
// CageTask record. All mutation happens on the dispatch worker; the only
// synchronization is the dispatcher's exclusivity gate.
type Keeper struct {
	Client   ports.GameClient
	Classify ports.PageClassifier
	Store    ports.TaskStore
	Clans    ports.ClanGateway
	Now      func() time.Time

	// Whiteboard templates; ${name}/${id} expand to the bot's identity.
	// Both must be set for whiteboard updates to happen at all.
	WhiteboardCaged   string
	WhiteboardUncaged string

	caged         bool
	task          *sewer.CageTask
	maxDrunk      int
	lastCageCheck time.Time
}

func (k *Keeper) now() time.Time {
	if k.Now != nil {
		return k.Now()
	}
	return time.Now()
}

func (k *Keeper) IsCaged() bool { return k.caged }

func (k *Keeper) Task() *sewer.CageTask { return k.task }

// Busy reports a loop in flight: a task exists but the cage is unconfirmed.
func (k *Keeper) Busy() bool { return k.task != nil && !k.caged }

func (k *Keeper) MaxDrunk() int {
	if k.maxDrunk == 0 {
		return sewer.BaseMaxDrunk
	}
	return k.maxDrunk
}

func (k *Keeper) SetMaxDrunk(maxDrunk int) { k.maxDrunk = maxDrunk }

// KnowsMaxDrunk reports whether the one-time liver probe has run.
func (k *Keeper) KnowsMaxDrunk() bool { return k.maxDrunk != 0 }

func (k *Keeper) SecondsInTask() int {
	if k.task == nil {
		return 0
	}
	return int(k.now().Sub(k.task.StartedAt).Seconds())
}

// Releasable reports whether the unconditional release window has elapsed.
func (k *Keeper) Releasable() bool {
	if k.task == nil {
		return false
	}
	return sewer.Releasable(k.task.StartedAt, k.now())
}

// ShouldProbe rate-limits the idle third-party-uncage check.
func (k *Keeper) ShouldProbe() bool {
	return k.caged && k.now().Sub(k.lastCageCheck) > sewer.ThirdPartyProbeEvery
}

// RefreshCagedState re-reads the location page and reconciles the local
// caged flag with reality. A character found uncaged while we believed
// otherwise means someone released it through the game directly; the task
// is cleared silently.
func (k *Keeper) RefreshCagedState(ctx context.Context) error {
	k.lastCageCheck = k.now()

	page, err := k.Client.VisitPlace(ctx)
	if err != nil {
		return err
	}
	if k.Classify.CombatPopup(page) {
		page, err = k.Client.DismissCombat(ctx)
		if err != nil {
			return err
		}
	}

	wasCaged := k.caged
	k.caged = k.Classify.CagePresent(page)

	if !k.caged && k.task != nil {
		k.task = nil
		if wasCaged {
			log.Printf("Caged flag was stale, someone released us in-game. Clearing task.")
			k.persist(ctx)
			k.updateWhiteboard(ctx, false)
		}
	}

	return nil
}

// BeginPending installs a fresh pending task, superseding any prior record.
func (k *Keeper) BeginPending(task sewer.CageTask) {
	k.caged = false
	k.task = &task
}

// ConfirmCaged transitions pending to active. The task timestamp is
// refreshed to the confirmation moment, not the loop start.
func (k *Keeper) ConfirmCaged(ctx context.Context, task sewer.CageTask) {
	task.StartedAt = k.now()
	k.caged = true
	k.task = &task
	k.persist(ctx)
}

// ClearTask drops the task record and persists the cleared state.
func (k *Keeper) ClearTask(ctx context.Context) {
	k.task = nil
	k.persist(ctx)
}

// ChewOut escapes the cage via the chew choice and clears local state.
func (k *Keeper) ChewOut(ctx context.Context) error {
	if err := k.RefreshCagedState(ctx); err != nil {
		return err
	}

	page, err := k.Client.Adventure(ctx)
	if err != nil {
		return err
	}

	switch {
	case k.Classify.ClassifyAdventure(page) == sewer.OutcomeCaged:
		chewPage, err := k.Client.ChewThroughCage(ctx, page)
		if err != nil {
			return err
		}
		if k.Classify.MidChoice(chewPage) {
			log.Printf("Unexpectedly still in a choice after chewing through cage.")
		}
	case k.Classify.CombatPopup(page):
		if _, err := k.Client.DismissCombat(ctx); err != nil {
			return err
		}
	}

	k.caged = false
	k.task = nil
	k.persist(ctx)
	k.updateWhiteboard(ctx, false)
	return nil
}

// Restore reloads a persisted task at startup. The stored record is trusted
// only when we are currently detected caged, no live task exists, and the
// stored turn counter matches the live one exactly.
func (k *Keeper) Restore(ctx context.Context) error {
	state, err := k.Store.Load(ctx)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil
		}
		return err
	}

	if state.MaxDrunk > 0 && k.maxDrunk == 0 {
		k.maxDrunk = state.MaxDrunk
	}
	if state.CageTask == nil {
		return nil
	}
	if !k.caged || k.task != nil {
		return nil
	}

	status, err := k.Client.Status(ctx)
	if err != nil {
		return err
	}
	if status.TurnsPlayed != state.ValidAtTurn {
		log.Printf("Saved cage task is from turn %d but we are at turn %d, discarding it.", state.ValidAtTurn, status.TurnsPlayed)
		return nil
	}

	task := *state.CageTask
	k.task = &task
	log.Printf("Restored cage task in %s for %s (#%s).", task.Clan.Name, task.Requester.Name, task.Requester.ID)
	return nil
}

func (k *Keeper) persist(ctx context.Context) {
	status, err := k.Client.Status(ctx)
	if err != nil {
		log.Printf("Could not fetch status while saving runtime state: %v", err)
		return
	}
	state := ports.SavedState{
		ValidAtTurn: status.TurnsPlayed,
		MaxDrunk:    k.maxDrunk,
		CageTask:    k.task,
	}
	if err := k.Store.Save(ctx, state); err != nil {
		log.Printf("Failed to save runtime state: %v", err)
	}
}

// UpdateWhiteboard rewrites the clan whiteboard to reflect the caged state
// by swapping the configured template strings. Best effort only.
func (k *Keeper) UpdateWhiteboard(ctx context.Context, caged bool) {
	k.updateWhiteboard(ctx, caged)
}

func (k *Keeper) updateWhiteboard(ctx context.Context, caged bool) {
	if k.Clans == nil || k.WhiteboardCaged == "" || k.WhiteboardUncaged == "" {
		return
	}

	me := k.Client.Me()
	if me.Name == "" || me.ID == "" {
		return
	}

	board, err := k.Clans.Whiteboard(ctx)
	if err != nil || !board.Editable {
		return
	}

	expand := func(tmpl string) string {
		tmpl = strings.ReplaceAll(tmpl, "${name}", me.Name)
		return strings.ReplaceAll(tmpl, "${id}", me.ID)
	}
	occupied := expand(k.WhiteboardCaged)
	unoccupied := expand(k.WhiteboardUncaged)

	text := board.Text
	if caged {
		if !strings.Contains(text, unoccupied) {
			return
		}
		text = strings.ReplaceAll(text, unoccupied, occupied)
		log.Printf("Editing basement whiteboard to reflect that we are being caged.")
	} else {
		if !strings.Contains(text, occupied) {
			return
		}
		text = strings.ReplaceAll(text, occupied, unoccupied)
		log.Printf("Editing basement whiteboard to reflect that we are not in a cage.")
	}

	if err := k.Clans.SetWhiteboard(ctx, text); err != nil {
		log.Printf("Failed to update whiteboard: %v", err)
	}
}
