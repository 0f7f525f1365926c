package sewer

import "testing"

func TestSortRulesPrefersEfficiencyThenStock(t *testing.T) {
	rules := []ConsumableRule{
		{Kind: KindFood, ItemID: 1, Name: "bread", Space: 3, EstAdventures: 9},
		{Kind: KindFood, ItemID: 2, Name: "pie", Space: 3, EstAdventures: 15},
		{Kind: KindFood, ItemID: 3, Name: "stew", Space: 3, EstAdventures: 9},
	}
	owned := map[int]int{1: 1, 2: 1, 3: 5}

	SortRules(rules, func(itemID int) int { return owned[itemID] })

	if rules[0].ItemID != 2 {
		t.Fatalf("expected highest efficiency first, got item %d", rules[0].ItemID)
	}
	if rules[1].ItemID != 3 {
		t.Fatalf("expected stock to break the efficiency tie, got item %d", rules[1].ItemID)
	}
}

func TestProjectedAdventuresRespectsCapacity(t *testing.T) {
	rules := []ConsumableRule{
		{Kind: KindFood, ItemID: 1, Space: 6, EstAdventures: 30},
		{Kind: KindDrink, ItemID: 2, Space: 6, EstAdventures: 19},
	}
	status := CharacterStatus{Level: 15, Full: 9, Drunk: 8}
	owned := map[int]int{1: 10, 2: 10}

	// 6 fullness left fits one food; 6 inebriety left fits one drink.
	got := ProjectedAdventures(rules, status, BaseMaxDrunk, func(itemID int) int { return owned[itemID] })
	if got != 49 {
		t.Fatalf("expected 49 projected adventures, got %d", got)
	}
}

func TestProjectedAdventuresSkipsLevelGatedRules(t *testing.T) {
	rules := []ConsumableRule{
		{Kind: KindFood, ItemID: 1, Level: 8, Space: 3, EstAdventures: 11},
	}
	status := CharacterStatus{Level: 3, Full: 0, Drunk: 0}

	got := ProjectedAdventures(rules, status, BaseMaxDrunk, func(int) int { return 5 })
	if got != 0 {
		t.Fatalf("expected level gate to exclude everything, got %d", got)
	}
}

func TestDietTablesCoverBothOrgans(t *testing.T) {
	for _, rules := range [][]ConsumableRule{ManualDiet(), LilBarrelDiet()} {
		var food, drink bool
		for _, rule := range rules {
			switch rule.Kind {
			case KindFood:
				food = true
			case KindDrink:
				drink = true
			}
			if rule.Space <= 0 || rule.EstAdventures <= 0 {
				t.Fatalf("rule %q has non-positive space or yield", rule.Name)
			}
		}
		if !food || !drink {
			t.Fatalf("diet table missing a consumable kind: food=%v drink=%v", food, drink)
		}
	}
}
