// Package uncage handles the two ways out of a cage: "escape" for the
// requester, "release" for anyone once the hold window has elapsed.
package uncage

import (
	"context"
	"fmt"
	"log"

	"github.com/loathers/cagebot/internal/app/cage"
	"github.com/loathers/cagebot/internal/app/diet"
	"github.com/loathers/cagebot/internal/app/ports"
	"github.com/loathers/cagebot/internal/app/replies"
	"github.com/loathers/cagebot/internal/app/status"
	"github.com/loathers/cagebot/internal/domain/sewer"
)

type UseCase struct {
	Keeper *cage.Keeper
	Diet   *diet.UseCase
	Status *status.UseCase
	Chat   ports.ChatSender
}

// Escape chews out on behalf of the original requester. Anyone else gets
// the current status instead, no matter how long we have been in.
func (u *UseCase) Escape(ctx context.Context, who sewer.Player, api bool, reply ports.Reply) error {
	log.Printf("%s (#%s) requested escape from cage.", who.Name, who.ID)

	if err := u.Keeper.RefreshCagedState(ctx); err != nil {
		return err
	}

	task := u.Keeper.Task()
	if !u.Keeper.IsCaged() || (task != nil && task.Requester.ID != who.ID) {
		if !u.Keeper.IsCaged() {
			log.Printf("Not currently caged, sending status report instead.")
		} else {
			log.Printf("User not authorised to initiate escape, sending status report instead.")
		}
		return u.sendStatus(ctx, who, api, reply)
	}

	return u.chewOutAndReport(ctx, who, api, reply, nil)
}

// Release chews out for anyone once the hold window has elapsed; the
// requester can release at any time. When a third party releases, the
// original requester is notified that their cage is unbaited.
func (u *UseCase) Release(ctx context.Context, who sewer.Player, api bool, reply ports.Reply) error {
	log.Printf("%s (#%s) requested release from cage.", who.Name, who.ID)

	if err := u.Keeper.RefreshCagedState(ctx); err != nil {
		return err
	}

	task := u.Keeper.Task()
	if !u.Keeper.IsCaged() || (task != nil && !u.Keeper.Releasable() && who.ID != task.Requester.ID) {
		if !u.Keeper.IsCaged() {
			log.Printf("Not currently caged, sending status report instead.")
		} else {
			log.Printf("Release timer has not yet expired, sending status report instead.")
		}
		return u.sendStatus(ctx, who, api, reply)
	}

	var notify *sewer.CageTask
	if task != nil && task.Requester.ID != who.ID {
		held := *task
		notify = &held
	}

	return u.chewOutAndReport(ctx, who, api, reply, notify)
}

func (u *UseCase) chewOutAndReport(ctx context.Context, who sewer.Player, api bool, reply ports.Reply, notify *sewer.CageTask) error {
	if err := u.Keeper.ChewOut(ctx); err != nil {
		return err
	}

	log.Printf("Successfully chewed out of cage. Reporting success.")

	if api {
		if err := u.Status.ReportAPI(ctx, who, reply); err != nil {
			return err
		}
	} else {
		if err := reply(ctx, "Chewed out! I am now uncaged."); err != nil {
			return err
		}
	}

	if notify != nil {
		log.Printf("Reporting release to original requester %s (#%s).", notify.Requester.Name, notify.Requester.ID)
		var text string
		if notify.APIResponses {
			text = replies.NotifyJSON(replies.StatusNotification, "your_clan_unbaited")
		} else {
			text = fmt.Sprintf("I chewed out of the Hobopolis instance in %s due to recieving a release command after being left in for more than an hour. YOUR CAGE IS NOW UNBAITED.", notify.Clan.Name)
		}
		if err := u.Chat.SendMessage(ctx, notify.Requester, text); err != nil {
			log.Printf("Failed to notify original requester: %v", err)
		}
	}

	if _, err := u.Diet.Replenish(ctx, api, reply); err != nil {
		log.Printf("Post-release diet maintenance failed: %v", err)
	}
	return nil
}

func (u *UseCase) sendStatus(ctx context.Context, who sewer.Player, api bool, reply ports.Reply) error {
	if api {
		return u.Status.ReportAPI(ctx, who, reply)
	}
	return u.Status.Report(ctx, who, reply)
}
