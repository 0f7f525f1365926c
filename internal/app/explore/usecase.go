// Package explore runs the cage attempt: joining the target clan, diving
// the sewers turn by turn, and finalizing the task when the run ends.
package explore

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/loathers/cagebot/internal/app/cage"
	"github.com/loathers/cagebot/internal/app/diet"
	"github.com/loathers/cagebot/internal/app/ports"
	"github.com/loathers/cagebot/internal/app/replies"
	"github.com/loathers/cagebot/internal/app/status"
	"github.com/loathers/cagebot/internal/domain/sewer"
)

type UseCase struct {
	Client   ports.GameClient
	Clans    ports.ClanGateway
	Classify ports.PageClassifier
	Keeper   *cage.Keeper
	Diet     *diet.UseCase
	Status   *status.UseCase
	Policy   sewer.OpenPolicy

	// MaintainEffects tightens the reconcile cadence when magical effects
	// are being upkept alongside the dive.
	MaintainEffects bool
}

// BecomeCaged validates the request and, if everything checks out, runs
// the adventure loop in the named clan's sewers.
func (u *UseCase) BecomeCaged(ctx context.Context, who sewer.Player, text string, api bool, reply ports.Reply) error {
	log.Printf("%s (#%s) requested a caging.", who.Name, who.ID)

	if err := u.Keeper.RefreshCagedState(ctx); err != nil {
		return err
	}

	rollover, err := u.Client.SecondsToRollover(ctx)
	if err != nil {
		return err
	}
	if rollover < int(sewer.RolloverGuard.Seconds()) {
		if api {
			return reply(ctx, replies.NotifyJSON(replies.StatusError, "rollover"))
		}
		return reply(ctx, fmt.Sprintf("Rollover is in %s, I do not wish to get into a bad state. Please try again after rollover.", replies.FormatDuration(rollover)))
	}

	clanName, autoRelease, ok := parseCageRequest(text)
	if !ok {
		log.Printf("Received a cage request, with no clan name included.")
		if api {
			return reply(ctx, replies.NotifyJSON(replies.StatusError, "invalid_clan"))
		}
		return reply(ctx, "Please provide the name of a clan I am whitelisted in.")
	}

	log.Printf("%s (#%s) requested caging in clan %q", who.Name, who.ID, clanName)

	if u.Keeper.IsCaged() {
		log.Printf("Already caged. Sending status report instead.")
		if api {
			return reply(ctx, replies.NotifyJSON(replies.StatusError, "already_caged"))
		}
		return u.Status.Report(ctx, who, reply)
	}

	whitelists, err := u.Clans.Whitelists(ctx)
	if err != nil {
		return err
	}
	var matches []sewer.Clan
	for _, clan := range whitelists {
		if strings.Contains(strings.ToLower(clan.Name), strings.ToLower(clanName)) {
			matches = append(matches, clan)
		}
	}

	if len(matches) > 1 {
		log.Printf("Clan name %q ambiguous, aborting.", clanName)
		if api {
			return reply(ctx, replies.NotifyJSON(replies.StatusError, "clan_ambiguous"))
		}
		names := make([]string, 0, len(matches))
		for _, clan := range matches {
			names = append(names, clan.Name)
		}
		return reply(ctx, fmt.Sprintf("I'm in multiple clans named %s: %s. Please be more specific.", clanName, strings.Join(names, ", ")))
	}
	if len(matches) < 1 {
		log.Printf("Clan name %q does not match any whitelists, aborting.", clanName)
		if api {
			return reply(ctx, replies.NotifyJSON(replies.StatusError, "not_whitelisted"))
		}
		return reply(ctx, fmt.Sprintf("I'm not in any clans named %s. Check your spelling, or ensure I have a whitelist.", clanName))
	}

	target := matches[0]
	log.Printf("Clan name %q matched to whitelisted clan %q. Attempting to whitelist.", clanName, target.Name)

	if err := u.Clans.JoinClan(ctx, target); err != nil {
		return err
	}
	if myClan, err := u.Clans.MyClanID(ctx); err != nil || myClan != target.ID {
		log.Printf("Whitelisting to clan %q failed, aborting.", target.Name)
		if api {
			return reply(ctx, replies.NotifyJSON(replies.StatusError, "unsuccessful_whitelist"))
		}
		return reply(ctx, fmt.Sprintf("I tried to whitelist to %s, but was unable to. Did I accidentally become a clan leader?", target.Name))
	}

	if open, err := u.Clans.SewersAccessible(ctx); err != nil || !open {
		log.Printf("Sewers in clan %q inaccessible, aborting.", target.Name)
		if api {
			return reply(ctx, replies.NotifyJSON(replies.StatusError, "no_hobo_access"))
		}
		return reply(ctx, fmt.Sprintf("I can't seem to access the sewers in %s. Is Hobopolis open? Do I have the right permissions?", target.Name))
	}

	task := sewer.CageTask{
		Requester:    who,
		Clan:         target,
		StartedAt:    time.Now(),
		APIResponses: api,
		AutoRelease:  autoRelease,
	}
	return u.attemptCage(ctx, task, api, reply)
}

// parseCageRequest extracts the clan name from "cage <clan>" and strips a
// trailing "!autorelease" token when present.
func parseCageRequest(text string) (clanName string, autoRelease, ok bool) {
	idx := strings.Index(text, " ")
	if idx < 0 {
		return "", false, false
	}
	clanName = strings.TrimSpace(text[idx+1:])
	const autoReleaseToken = " !autorelease"
	if strings.HasSuffix(strings.ToLower(clanName), autoReleaseToken) {
		clanName = strings.TrimSpace(clanName[:len(clanName)-len(autoReleaseToken)])
		autoRelease = true
	}
	if clanName == "" {
		return "", false, false
	}
	return clanName, autoRelease, true
}

func (u *UseCase) attemptCage(ctx context.Context, task sewer.CageTask, api bool, reply ports.Reply) error {
	u.Keeper.BeginPending(task)

	start, err := u.Client.Status(ctx)
	if err != nil {
		u.Keeper.ClearTask(ctx)
		return err
	}

	acct := sewer.NewTurnAccounting(start)
	drunk := start.Drunk

	var prog sewer.OpenProgress
	if u.Policy.Enabled {
		grates, valves, err := u.Clans.GratesAndValves(ctx)
		if err != nil {
			log.Printf("Could not read raid logs: %v", err)
		} else {
			prog.FoundGrates, prog.FoundValves = grates, valves
			log.Printf("%s has %d grates already opened, %d valves already twisted", task.Clan.Name, grates, valves)
		}
	}

	u.Keeper.UpdateWhiteboard(ctx, true)

	if api {
		if err := reply(ctx, replies.NotifyJSON(replies.StatusAccepted, "doing_cage")); err != nil {
			return err
		}
	} else {
		if err := reply(ctx, fmt.Sprintf("Attempting to get caged in %s.", task.Clan.Name)); err != nil {
			return err
		}
	}

	log.Printf("Beginning turns in %s sewers.", task.Clan.Name)

	var (
		caged           bool
		dietExhausted   bool
		rescueAttempted bool
		chews           int
		abortReason     string
	)

	for !caged && acct.Remaining() > sewer.ReserveAdventureFloor && drunk <= u.Keeper.MaxDrunk() {
		needDiet := !dietExhausted && acct.Remaining() <= u.Diet.Floor

		if needDiet || acct.NeedsReconcile(u.MaintainEffects) {
			fresh, err := u.Client.Status(ctx)
			if err != nil {
				abortReason = "could not fetch status"
				break
			}
			if err := acct.Reconcile(fresh); err != nil {
				abortReason = err.Error()
				break
			}
			drunk = fresh.Drunk

			if needDiet {
				before := fresh.Adventures
				after, err := u.Diet.Replenish(ctx, api, reply)
				if err != nil {
					log.Printf("Diet maintenance failed: %v", err)
					after = before
				}
				dietExhausted = after == before && after <= u.Diet.Floor
				if dietExhausted {
					log.Printf("We failed to maintain our diet while adventuring in the sewers, will not attempt to maintain again.")
				}
				acct.Rebase(after)
			}
		}

		acct.NoteSpend()

		page, err := u.Client.Adventure(ctx)
		if err != nil {
			abortReason = "adventure request failed"
			break
		}
		if page == "" {
			// Transient failure; the next reconcile settles the estimate.
			continue
		}

		switch u.Classify.ClassifyAdventure(page) {
		case sewer.OutcomeCaged:
			acct.Refund()
			if err := u.Client.AcceptCage(ctx); err != nil {
				log.Printf("Accepting cage choice failed: %v", err)
			}
			caged = true

			if !u.Policy.EscapeToKeepOpening(acct.Remaining(), prog) {
				log.Printf("Caged!")
			} else if err := u.Keeper.ChewOut(ctx); err != nil {
				log.Printf("Chewing out of cage failed: %v", err)
			} else {
				u.Keeper.BeginPending(task)
				u.Keeper.UpdateWhiteboard(ctx, true)
				acct.Charge(sewer.ChewOutTurnCost)
				chews++
				caged = false
				log.Printf("Escaping cage to continue opening grates and twisting valves!")
			}

		case sewer.OutcomeGrate:
			result, err := u.Client.OpenGrate(ctx)
			if err != nil {
				log.Printf("Grate choice failed: %v", err)
			} else if u.Classify.GrateOpened(result) {
				prog.Grates++
				log.Printf("Opened grate. Grate(s) so far: %d.", prog.Grates)
			} else {
				acct.Refund()
			}

		case sewer.OutcomeValve:
			result, err := u.Client.TwistValve(ctx)
			if err != nil {
				log.Printf("Valve choice failed: %v", err)
			} else if u.Classify.ValveTwisted(result) {
				prog.Valves++
				log.Printf("Opened valve. Valve(s) so far: %d.", prog.Valves)
			} else {
				acct.Refund()
			}

		case sewer.OutcomeRescue:
			// Not a free turn. One rescue attempt per run bounds the cost.
			if !rescueAttempted {
				rescueAttempted = true
				if err := u.Client.RescueClanmate(ctx); err != nil {
					log.Printf("Rescue choice failed: %v", err)
				}
			} else if err := u.Client.SkipRescue(ctx); err != nil {
				log.Printf("Skipping rescue failed: %v", err)
			}

		case sewer.OutcomeFight:
			acct.Refund()
			if _, err := u.Client.DismissCombat(ctx); err != nil {
				log.Printf("Dismissing combat popup failed: %v", err)
			}
		}

		if !caged {
			place, err := u.Client.VisitPlace(ctx)
			if err == nil && u.Classify.MidChoice(place) {
				log.Printf("Unexpectedly still in a choice after running possible choices. Aborting.")
				abortReason = "unexpectedly stuck"
				break
			}
		}
	}

	return u.finalize(ctx, task, api, reply, acct, prog, caged, chews, abortReason)
}

func (u *UseCase) finalize(ctx context.Context, task sewer.CageTask, api bool, reply ports.Reply, acct *sewer.TurnAccounting, prog sewer.OpenProgress, caged bool, chews int, abortReason string) error {
	if caged {
		u.Keeper.ConfirmCaged(ctx, task)
		log.Printf("Successfully caged in clan %s. Reporting success.", task.Clan.Name)
		if !api {
			if err := reply(ctx, fmt.Sprintf(`Clang! I am now caged in %s. Release me later by whispering "escape" to me.`, task.Clan.Name)); err != nil {
				return err
			}
		}
	} else {
		u.Keeper.ClearTask(ctx)

		switch {
		case abortReason != "":
			log.Printf("Aborted cage attempt in clan %s: %s.", task.Clan.Name, abortReason)
			if !api {
				if err := reply(ctx, fmt.Sprintf("Something unspecified went wrong while I was trying to get caged in %s. Good luck.", task.Clan.Name)); err != nil {
					return err
				}
			}
		case acct.Remaining() <= sewer.ReserveAdventureFloor:
			log.Printf("Ran out of adventures attempting to get caged in clan %s. Aborting.", task.Clan.Name)
			if !api {
				if err := reply(ctx, fmt.Sprintf("I ran out of adventures trying to get caged in %s.", task.Clan.Name)); err != nil {
					return err
				}
			}
		default:
			log.Printf("Unexpected error occurred attempting to get caged in clan %s. Aborting.", task.Clan.Name)
			if !api {
				if err := reply(ctx, fmt.Sprintf("Something unspecified went wrong while I was trying to get caged in %s. Good luck.", task.Clan.Name)); err != nil {
					return err
				}
			}
		}

		u.Keeper.UpdateWhiteboard(ctx, false)
	}

	end, err := u.Client.Status(ctx)
	if err != nil {
		return err
	}
	spent := acct.SpentTotal(end.Adventures)

	if acct.EstimatedSpent()+acct.ConfirmedSpent() != spent {
		log.Printf("We estimated %d + %d turns spent, %d turns were actually spent.", acct.EstimatedSpent(), acct.ConfirmedSpent(), spent)
	} else {
		log.Printf("We spent %d in the process, we have %d turns remaining", spent, end.Adventures)
	}

	log.Printf("The clan has %d / %d grates open, %d / %d valves twisted.", prog.TotalGrates(), sewer.GrateCap, prog.TotalValves(), sewer.ValveCap)

	if api {
		return reply(ctx, replies.ToJSON(replies.Explored{
			Type:        "explored",
			Caged:       u.Keeper.IsCaged(),
			AdvsUsed:    spent,
			AdvsLeft:    end.Adventures,
			Grates:      prog.Grates,
			TotalGrates: prog.TotalGrates(),
			Valves:      prog.Valves,
			TotalValves: prog.TotalValves(),
			Chews:       chews,
		}))
	}

	var chewed string
	if chews > 0 {
		chewed = fmt.Sprintf(" caged yet escaped %d times,", chews)
	}
	msg := fmt.Sprintf("I opened %d grate%s and turned %d valve%s on the way,%s and spent %d adventure%s (%d remaining).",
		prog.Grates, plural(prog.Grates), prog.Valves, plural(prog.Valves), chewed, spent, plural(spent), end.Adventures)
	if err := reply(ctx, msg); err != nil {
		return err
	}

	if prog.Grates > 0 || prog.Valves > 0 {
		return reply(ctx, fmt.Sprintf("Hobopolis has %d / %d grates open, %d / %d valves twisted.",
			prog.TotalGrates(), sewer.GrateCap, prog.TotalValves(), sewer.ValveCap))
	}
	return nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
