package cage

import (
	"context"
	"testing"
	"time"

	"github.com/loathers/cagebot/internal/adapter/repo/memory"
	"github.com/loathers/cagebot/internal/app/ports"
	"github.com/loathers/cagebot/internal/domain/sewer"
)

type stubClient struct {
	status    sewer.CharacterStatus
	place     string
	adventure string
	chews     int
}

func (s *stubClient) Me() sewer.Player                               { return sewer.Player{ID: "1", Name: "bot"} }
func (s *stubClient) SecondsToRollover(context.Context) (int, error) { return 86400, nil }
func (s *stubClient) Status(context.Context) (sewer.CharacterStatus, error) {
	return s.status, nil
}
func (s *stubClient) Inventory(context.Context) (map[int]int, error) { return nil, nil }
func (s *stubClient) Adventure(context.Context) (string, error)      { return s.adventure, nil }
func (s *stubClient) VisitPlace(context.Context) (string, error)     { return s.place, nil }
func (s *stubClient) AcceptCage(context.Context) error               { return nil }
func (s *stubClient) ChewThroughCage(context.Context, string) (string, error) {
	s.chews++
	s.place = ""
	return "freed", nil
}
func (s *stubClient) OpenGrate(context.Context) (string, error)     { return "", nil }
func (s *stubClient) TwistValve(context.Context) (string, error)    { return "", nil }
func (s *stubClient) RescueClanmate(context.Context) error          { return nil }
func (s *stubClient) SkipRescue(context.Context) error              { return nil }
func (s *stubClient) DismissCombat(context.Context) (string, error) { return "", nil }
func (s *stubClient) EnsureAutoAttackMacro(context.Context) error   { return nil }
func (s *stubClient) HasSteelLiver(context.Context) (bool, error)   { return false, nil }
func (s *stubClient) Eat(context.Context, int) (string, error)      { return "", nil }
func (s *stubClient) Drink(context.Context, int) (string, error)    { return "", nil }
func (s *stubClient) Equip(context.Context, int) error              { return nil }

// stubClassifier treats the literal page "caged" as the cage marker.
type stubClassifier struct{}

func (stubClassifier) ClassifyAdventure(page string) sewer.Outcome {
	if page == "caged" {
		return sewer.OutcomeCaged
	}
	return sewer.OutcomeNothing
}
func (stubClassifier) GrateOpened(string) bool  { return false }
func (stubClassifier) ValveTwisted(string) bool { return false }
func (stubClassifier) CagePresent(page string) bool {
	return page == "caged"
}
func (stubClassifier) CombatPopup(string) bool { return false }
func (stubClassifier) MidChoice(string) bool   { return false }

func newTestKeeper(client *stubClient, store *memory.Store) *Keeper {
	return &Keeper{
		Client:   client,
		Classify: stubClassifier{},
		Store:    store,
	}
}

func TestRestoreDiscardsStaleTurnCounter(t *testing.T) {
	client := &stubClient{status: sewer.CharacterStatus{TurnsPlayed: 5010}, place: "caged"}
	store := memory.NewStore()
	store.Seed(ports.SavedState{
		ValidAtTurn: 5000,
		CageTask:    &sewer.CageTask{Requester: sewer.Player{ID: "2", Name: "friend"}},
	})
	keeper := newTestKeeper(client, store)

	if err := keeper.RefreshCagedState(context.Background()); err != nil {
		t.Fatalf("refresh error: %v", err)
	}
	if err := keeper.Restore(context.Background()); err != nil {
		t.Fatalf("restore error: %v", err)
	}
	if keeper.Task() != nil {
		t.Fatalf("expected stale task discarded")
	}
}

func TestRestoreAcceptsMatchingSnapshot(t *testing.T) {
	client := &stubClient{status: sewer.CharacterStatus{TurnsPlayed: 5000}, place: "caged"}
	store := memory.NewStore()
	store.Seed(ports.SavedState{
		ValidAtTurn: 5000,
		MaxDrunk:    sewer.SteelLiverMaxDrunk,
		CageTask: &sewer.CageTask{
			Requester: sewer.Player{ID: "2", Name: "friend"},
			Clan:      sewer.Clan{ID: "9", Name: "The Hogs"},
		},
	})
	keeper := newTestKeeper(client, store)

	if err := keeper.RefreshCagedState(context.Background()); err != nil {
		t.Fatalf("refresh error: %v", err)
	}
	if err := keeper.Restore(context.Background()); err != nil {
		t.Fatalf("restore error: %v", err)
	}

	task := keeper.Task()
	if task == nil || task.Requester.ID != "2" {
		t.Fatalf("expected restored task, got %+v", task)
	}
	if keeper.MaxDrunk() != sewer.SteelLiverMaxDrunk {
		t.Fatalf("expected restored max drunk, got %d", keeper.MaxDrunk())
	}
}

func TestRestoreToleratesEmptyStore(t *testing.T) {
	client := &stubClient{place: "caged"}
	keeper := newTestKeeper(client, memory.NewStore())

	if err := keeper.Restore(context.Background()); err != nil {
		t.Fatalf("expected missing state to be tolerated, got %v", err)
	}
}

func TestRefreshClearsTaskAfterThirdPartyRelease(t *testing.T) {
	client := &stubClient{place: "caged"}
	store := memory.NewStore()
	keeper := newTestKeeper(client, store)

	if err := keeper.RefreshCagedState(context.Background()); err != nil {
		t.Fatalf("refresh error: %v", err)
	}
	keeper.ConfirmCaged(context.Background(), sewer.CageTask{
		Requester: sewer.Player{ID: "2", Name: "friend"},
	})
	if !keeper.IsCaged() || keeper.Task() == nil {
		t.Fatalf("expected an active caged task")
	}

	// Someone opens the cage through the game directly.
	client.place = "sewer tunnel"
	saves := store.Saves()
	if err := keeper.RefreshCagedState(context.Background()); err != nil {
		t.Fatalf("refresh error: %v", err)
	}
	if keeper.IsCaged() || keeper.Task() != nil {
		t.Fatalf("expected silent clear, caged=%v task=%v", keeper.IsCaged(), keeper.Task())
	}
	if store.Saves() != saves+1 {
		t.Fatalf("expected cleared state persisted")
	}
}

func TestBusyOnlyWhilePending(t *testing.T) {
	keeper := newTestKeeper(&stubClient{}, memory.NewStore())

	if keeper.Busy() {
		t.Fatalf("idle keeper must not be busy")
	}

	keeper.BeginPending(sewer.CageTask{Requester: sewer.Player{ID: "2"}, StartedAt: time.Now()})
	if !keeper.Busy() {
		t.Fatalf("pending task must report busy")
	}

	keeper.ConfirmCaged(context.Background(), *keeper.Task())
	if keeper.Busy() {
		t.Fatalf("confirmed cage must not report busy")
	}
}

func TestChewOutClearsState(t *testing.T) {
	client := &stubClient{place: "caged", adventure: "caged"}
	keeper := newTestKeeper(client, memory.NewStore())

	if err := keeper.RefreshCagedState(context.Background()); err != nil {
		t.Fatalf("refresh error: %v", err)
	}
	keeper.ConfirmCaged(context.Background(), sewer.CageTask{Requester: sewer.Player{ID: "2"}})

	if err := keeper.ChewOut(context.Background()); err != nil {
		t.Fatalf("chew out error: %v", err)
	}
	if keeper.IsCaged() || keeper.Task() != nil {
		t.Fatalf("expected uncaged state after chewing out")
	}
	if client.chews != 1 {
		t.Fatalf("expected one chew, got %d", client.chews)
	}
}
