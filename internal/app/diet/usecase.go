// Package diet keeps the character's adventure budget above the configured
// floor by consuming the most efficient available item from the diet table.
package diet

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/loathers/cagebot/internal/app/ports"
	"github.com/loathers/cagebot/internal/app/replies"
	"github.com/loathers/cagebot/internal/domain/sewer"
)

type UseCase struct {
	Client ports.GameClient
	// Floor mirrors the MAINTAIN_ADVENTURES setting.
	Floor int
	// MaxDrunk defers to the keeper's one-time capability probe.
	MaxDrunk func() int

	rules            []sewer.ConsumableRule
	usingBarrelMimic bool
	ownsTuxedo       bool
}

// Setup selects the diet table once: the curated barrel table when the
// mimic familiar is active, the generic one otherwise. Also records tuxedo
// ownership for the drink-equip bracket.
func (u *UseCase) Setup(ctx context.Context) error {
	if u.rules != nil {
		return nil
	}

	status, err := u.Client.Status(ctx)
	if err != nil {
		return err
	}
	inventory, err := u.Client.Inventory(ctx)
	if err != nil {
		return err
	}

	u.ownsTuxedo = inventory[sewer.TuxedoItemID] > 0 || status.Equipment["shirt"] == sewer.TuxedoItemID
	u.usingBarrelMimic = status.FamiliarID == sewer.BarrelMimicFamiliarID

	if u.usingBarrelMimic {
		u.rules = sewer.LilBarrelDiet()
	} else {
		u.rules = sewer.ManualDiet()
	}

	u.sortRules(ctx)
	return nil
}

func (u *UseCase) UsingBarrelMimic() bool { return u.usingBarrelMimic }

func (u *UseCase) maxDrunk() int {
	if u.MaxDrunk != nil {
		return u.MaxDrunk()
	}
	return sewer.BaseMaxDrunk
}

func (u *UseCase) sortRules(ctx context.Context) {
	inventory, err := u.Client.Inventory(ctx)
	if err != nil {
		return
	}
	sewer.SortRules(u.rules, func(itemID int) int { return inventory[itemID] })
}

// Replenish consumes diet items until the budget clears the floor, items
// run out, or organ capacity saturates. Calling it with the budget already
// above the floor is a no-op. Returns the resulting adventure count.
func (u *UseCase) Replenish(ctx context.Context, api bool, reply ports.Reply) (int, error) {
	for {
		status, err := u.Client.Status(ctx)
		if err != nil {
			return 0, err
		}
		before := status.Adventures

		if before > u.Floor {
			return before, nil
		}

		fullRemaining := sewer.MaxFullness - status.Full
		drunkRemaining := u.maxDrunk() - status.Drunk
		if fullRemaining <= 0 && drunkRemaining <= 0 {
			// Nothing left to consume today; terminal for the caller.
			return before, nil
		}

		inventory, err := u.Client.Inventory(ctx)
		if err != nil {
			return before, err
		}

		consumed, hasStomachSpace, missing := u.consumeFirstFit(ctx, status, inventory, fullRemaining, drunkRemaining)
		if !hasStomachSpace {
			return before, nil
		}

		after := before
		if st, err := u.Client.Status(ctx); err == nil {
			after = st.Adventures
		}

		if after == before {
			u.reportFailure(ctx, consumed, missing, api, reply)
			u.sortRules(ctx)
			return after, nil
		}

		if after <= u.Floor {
			log.Printf("Diet success! We gained %d adventures, but are still below our threshold. Going again.", after-before)
			continue
		}

		log.Printf("Diet success! Gained %d adventures, satisfied with %d total.", after-before, after)
		u.sortRules(ctx)
		return after, nil
	}
}

// consumeFirstFit scans the ordered rules for the first one that is level
// appropriate, fits remaining capacity, and is in stock. Fitting rules with
// zero stock are recorded as missing and skipped.
func (u *UseCase) consumeFirstFit(ctx context.Context, status sewer.CharacterStatus, inventory map[int]int, fullRemaining, drunkRemaining int) (consumed string, hasStomachSpace bool, missing []sewer.ConsumableRule) {
	for _, rule := range u.rules {
		if rule.Level > status.Level {
			continue
		}

		remaining := fullRemaining
		if rule.Kind == sewer.KindDrink {
			remaining = drunkRemaining
		}
		if rule.Space > remaining {
			continue
		}

		hasStomachSpace = true

		if inventory[rule.ItemID] <= 0 {
			missing = append(missing, rule)
			continue
		}

		if rule.Kind == sewer.KindFood {
			log.Printf("Attempting to eat %s, of which we have %d.", rule.Name, inventory[rule.ItemID])
			if _, err := u.Client.Eat(ctx, rule.ItemID); err != nil {
				log.Printf("Eat request failed: %v", err)
			}
		} else {
			log.Printf("Attempting to drink %s, of which we have %d.", rule.Name, inventory[rule.ItemID])
			u.drink(ctx, status, rule.ItemID)
		}

		return rule.Name, true, missing
	}

	return "", hasStomachSpace, missing
}

// drink wears the tuxedo for the duration of the sip when available, then
// restores whatever shirt was equipped before.
func (u *UseCase) drink(ctx context.Context, status sewer.CharacterStatus, itemID int) {
	if !u.usingBarrelMimic || !u.ownsTuxedo {
		if _, err := u.Client.Drink(ctx, itemID); err != nil {
			log.Printf("Drink request failed: %v", err)
		}
		return
	}

	priorShirt := status.Equipment["shirt"]
	if priorShirt != sewer.TuxedoItemID {
		if err := u.Client.Equip(ctx, sewer.TuxedoItemID); err != nil {
			log.Printf("Equipping tuxedo failed: %v", err)
		}
	}
	if _, err := u.Client.Drink(ctx, itemID); err != nil {
		log.Printf("Drink request failed: %v", err)
	}
	if priorShirt > 0 && priorShirt != sewer.TuxedoItemID {
		if err := u.Client.Equip(ctx, priorShirt); err != nil {
			log.Printf("Restoring shirt failed: %v", err)
		}
	}
}

func (u *UseCase) reportFailure(ctx context.Context, consumed string, missing []sewer.ConsumableRule, api bool, reply ports.Reply) {
	if consumed != "" {
		log.Printf("Failed to consume %s.", consumed)
		return
	}

	if u.usingBarrelMimic {
		log.Printf("I am out of Lil' Barrel Mimic consumables.")
		if reply == nil {
			return
		}
		if api {
			reply(ctx, replies.NotifyJSON(replies.StatusIssue, "lack_barrel_edibles"))
		} else {
			reply(ctx, "Please tell my operator that I am out of consumables.")
		}
		return
	}

	names := make([]string, 0, len(missing))
	ids := make([]string, 0, len(missing))
	for _, rule := range missing {
		names = append(names, rule.Name)
		ids = append(ids, strconv.Itoa(rule.ItemID))
	}

	log.Printf("I am out of %s.", strings.Join(names, ", "))
	if reply == nil {
		return
	}
	if api {
		reply(ctx, replies.NotifyJSON(replies.StatusIssue, "lack_edibles:"+strings.Join(ids, ",")))
	} else {
		reply(ctx, "Please tell my operator that I am out of "+strings.Join(names, ", ")+".")
	}
}

// Report answers a diet query with the projected adventures and supply
// totals, in whichever format the caller asked for.
func (u *UseCase) Report(ctx context.Context, api bool, reply ports.Reply) error {
	inventory, err := u.Client.Inventory(ctx)
	if err != nil {
		return err
	}
	status, err := u.Client.Status(ctx)
	if err != nil {
		return err
	}

	owned := func(itemID int) int { return inventory[itemID] }
	projected := sewer.ProjectedAdventures(u.rules, status, u.maxDrunk(), owned)

	if api {
		var food, drink, foodAdvs, drinkAdvs int
		for _, rule := range u.rules {
			count := inventory[rule.ItemID]
			if count <= 0 || rule.Level > status.Level {
				continue
			}
			if rule.Kind == sewer.KindFood {
				food += count * rule.Space
				foodAdvs += count * rule.EstAdventures
			} else {
				drink += count * rule.Space
				drinkAdvs += count * rule.EstAdventures
			}
		}

		return reply(ctx, replies.ToJSON(replies.Diet{
			Type:              "diet",
			PossibleAdvsToday: projected,
			Food:              food,
			FullnessAdvs:      foodAdvs,
			Drink:             drink,
			DrunknessAdvs:     drinkAdvs,
		}))
	}

	var foodItems, drinkItems int
	for _, rule := range u.rules {
		count := inventory[rule.ItemID]
		if count <= 0 {
			continue
		}
		if rule.Kind == sewer.KindFood {
			foodItems += count
		} else {
			drinkItems += count
		}
	}

	return reply(ctx, fmt.Sprintf("We have %d sticks of bread, %d barrels of booze", foodItems, drinkItems))
}
