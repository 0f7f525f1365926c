package ports

import (
	"context"

	"github.com/loathers/cagebot/internal/domain/sewer"
)

// GameClient is the narrow contract the core holds against the scraping
// transport. Page-returning calls yield an empty string on transient
// failure; the core treats that as "no progress", never as a crash.
type GameClient interface {
	Me() sewer.Player
	SecondsToRollover(ctx context.Context) (int, error)

	// Status and Inventory are the authoritative server state, refetched
	// on every query.
	Status(ctx context.Context) (sewer.CharacterStatus, error)
	Inventory(ctx context.Context) (map[int]int, error)

	// Adventure performs one sewer action attempt and returns the raw page.
	Adventure(ctx context.Context) (string, error)
	// VisitPlace probes the current location page.
	VisitPlace(ctx context.Context) (string, error)

	// Encounter resolvers; each submits the confirmatory follow-up choice
	// and returns the resulting page where the caller needs it.
	AcceptCage(ctx context.Context) error
	ChewThroughCage(ctx context.Context, cagePage string) (string, error)
	OpenGrate(ctx context.Context) (string, error)
	TwistValve(ctx context.Context) (string, error)
	RescueClanmate(ctx context.Context) error
	SkipRescue(ctx context.Context) error
	DismissCombat(ctx context.Context) (string, error)

	// One-time setup probes.
	EnsureAutoAttackMacro(ctx context.Context) error
	HasSteelLiver(ctx context.Context) (bool, error)

	// Consumption primitives.
	Eat(ctx context.Context, itemID int) (string, error)
	Drink(ctx context.Context, itemID int) (string, error)
	Equip(ctx context.Context, itemID int) error
}

// ClanGateway covers the clan-scoped surface: whitelist resolution, the
// raid log, and the basement whiteboard.
type ClanGateway interface {
	Whitelists(ctx context.Context) ([]sewer.Clan, error)
	JoinClan(ctx context.Context, clan sewer.Clan) error
	MyClanID(ctx context.Context) (string, error)
	SewersAccessible(ctx context.Context) (bool, error)
	GratesAndValves(ctx context.Context) (grates, valves int, err error)
	Whiteboard(ctx context.Context) (sewer.Whiteboard, error)
	SetWhiteboard(ctx context.Context, text string) error
}

// ChatSender delivers an outbound whisper. Oversized messages are chunked
// by the transport; callers stay unaware of the limits.
type ChatSender interface {
	SendMessage(ctx context.Context, to sewer.Player, text string) error
}

// Reply answers the message currently being handled.
type Reply func(ctx context.Context, text string) error
