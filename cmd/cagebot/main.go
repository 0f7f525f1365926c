package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"

	"github.com/loathers/cagebot/internal/adapter/kol"
	"github.com/loathers/cagebot/internal/adapter/metrics/inmemory"
	"github.com/loathers/cagebot/internal/adapter/ops"
	filestore "github.com/loathers/cagebot/internal/adapter/repo/file"
	gormrepo "github.com/loathers/cagebot/internal/adapter/repo/gorm"
	"github.com/loathers/cagebot/internal/app/cage"
	"github.com/loathers/cagebot/internal/app/diet"
	"github.com/loathers/cagebot/internal/app/dispatch"
	"github.com/loathers/cagebot/internal/app/explore"
	"github.com/loathers/cagebot/internal/app/ports"
	"github.com/loathers/cagebot/internal/app/status"
	"github.com/loathers/cagebot/internal/app/uncage"
	"github.com/loathers/cagebot/internal/config"
	"github.com/loathers/cagebot/internal/domain/sewer"
)

func main() {
	log.Println("Starting Cagebot...")

	cfg, err := config.Load(configPath())
	if err != nil {
		log.Fatalf("configuration: %v", err)
	}

	log.Printf("We're trying to maintain %d adventures", cfg.MaintainAdventures)
	if cfg.OpenEverything {
		log.Printf("While adventures are above %d, we're escaping the cage to open grates and twist valves.", cfg.OpenEverythingWhileAdventuresAbove)
	}

	ctx := context.Background()
	client := kol.NewClient(cfg.Username, cfg.Password)
	if err := client.WaitForLogin(ctx); err != nil {
		log.Fatalf("login: %v", err)
	}

	store := mustBuildStore(ctx, cfg)
	classifier := kol.Classifier{}

	keeper := &cage.Keeper{
		Client:            client,
		Classify:          classifier,
		Store:             store,
		Clans:             client,
		WhiteboardCaged:   cfg.WhiteboardMessageCaged,
		WhiteboardUncaged: cfg.WhiteboardMessageUncaged,
	}
	dietUC := &diet.UseCase{
		Client:   client,
		Floor:    cfg.MaintainAdventures,
		MaxDrunk: keeper.MaxDrunk,
	}
	statusUC := &status.UseCase{Client: client, Keeper: keeper}
	uncageUC := &uncage.UseCase{Keeper: keeper, Diet: dietUC, Status: statusUC, Chat: client}
	exploreUC := &explore.UseCase{
		Client:   client,
		Clans:    client,
		Classify: classifier,
		Keeper:   keeper,
		Diet:     dietUC,
		Status:   statusUC,
		Policy: sewer.OpenPolicy{
			Enabled:             cfg.OpenEverything,
			KeepAboveAdventures: cfg.OpenEverythingWhileAdventuresAbove,
		},
		MaintainEffects: cfg.MaintainEffects,
	}

	if err := initialSetup(ctx, client, keeper, dietUC); err != nil {
		log.Fatalf("initial setup: %v", err)
	}

	if rollover, err := client.SecondsToRollover(ctx); err == nil {
		log.Printf("The next rollover is in %d seconds", rollover)
	}
	log.Println("Initial setup complete. Polling messages.")

	recorder := inmemory.NewRecorder()
	dispatcher := &dispatch.Dispatcher{
		Status:  statusUC,
		Diet:    dietUC,
		Explore: exploreUC,
		Uncage:  uncageUC,
		Keeper:  keeper,
		Metrics: recorder,
	}

	if cfg.OpsAddr != "" {
		go serveOps(cfg.OpsAddr, statusUC, recorder)
	}
	go pollWhispers(ctx, client, dispatcher)

	if err := dispatcher.Run(ctx); err != nil {
		log.Fatalf("dispatch loop: %v", err)
	}
}

func configPath() string {
	if path := os.Getenv("CAGEBOT_CONFIG"); path != "" {
		return path
	}
	return "cagebot.yaml"
}

func mustBuildStore(ctx context.Context, cfg config.Config) ports.TaskStore {
	if cfg.DatabaseDSN == "" {
		return filestore.NewStore(cfg.StateFile)
	}
	db, err := gormrepo.OpenPostgres(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}
	store := gormrepo.NewTaskStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("prepare runtime_state: %v", err)
	}
	return store
}

// initialSetup mirrors the first-login ritual: confirm the cage state,
// verify the combat macro, probe the liver capability, pick the diet
// table, restore any saved task, and top up adventures when free.
func initialSetup(ctx context.Context, client *kol.Client, keeper *cage.Keeper, dietUC *diet.UseCase) error {
	if err := keeper.RefreshCagedState(ctx); err != nil {
		return err
	}

	if !keeper.IsCaged() {
		if err := client.EnsureAutoAttackMacro(ctx); err != nil {
			return err
		}
		steel, err := client.HasSteelLiver(ctx)
		if err != nil {
			return err
		}
		if steel {
			keeper.SetMaxDrunk(sewer.SteelLiverMaxDrunk)
		} else {
			keeper.SetMaxDrunk(sewer.BaseMaxDrunk)
		}
	}

	if err := keeper.Restore(ctx); err != nil {
		log.Printf("Could not restore saved state: %v", err)
	}

	if err := dietUC.Setup(ctx); err != nil {
		return err
	}

	if !keeper.IsCaged() {
		if _, err := dietUC.Replenish(ctx, false, nil); err != nil {
			log.Printf("Initial diet maintenance failed: %v", err)
		}
	}
	return nil
}

func pollWhispers(ctx context.Context, client *kol.Client, dispatcher *dispatch.Dispatcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(3 * time.Second):
		}

		for _, whisper := range client.FetchNewWhispers(ctx) {
			who := whisper.Who
			private := whisper.Private
			reply := func(ctx context.Context, text string) error {
				if private {
					return client.SendMessage(ctx, who, text)
				}
				return client.SendChannelMessage(ctx, text)
			}
			dispatcher.Enqueue(dispatch.Message{
				Who:   who,
				Text:  whisper.Text,
				API:   whisper.API,
				Reply: reply,
			})
		}
	}
}

func serveOps(addr string, statusUC *status.UseCase, recorder *inmemory.Recorder) {
	s := server.Default(server.WithHostPorts(addr))
	ops.Handler{Status: statusUC, Metrics: recorder}.RegisterRoutes(s)
	log.Printf("ops endpoint listening on %s", addr)
	s.Spin()
}
