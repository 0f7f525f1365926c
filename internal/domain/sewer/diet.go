package sewer

import "sort"

// ConsumableKind discriminates which organ a consumable fills.
type ConsumableKind string

const (
	KindFood  ConsumableKind = "food"
	KindDrink ConsumableKind = "drink"
)

// ConsumableRule is one entry in the diet table. Immutable once loaded;
// only the ordering of the table changes at runtime.
type ConsumableRule struct {
	Kind ConsumableKind
	// ItemID identifies the consumable in game.
	ItemID int
	Name   string
	// Level is the minimum character level required to consume.
	Level int
	// Space is the fullness or inebriety the item costs.
	Space int
	// EstAdventures deliberately underestimates the adventures granted.
	EstAdventures int
}

// ManualDiet is the generic table for characters without the curated
// familiar: a small ladder of high-yield food and drink.
func ManualDiet() []ConsumableRule {
	return []ConsumableRule{
		{Kind: KindFood, ItemID: 7215, Name: "Fleetwood mac 'n' cheese", Level: 8, Space: 6, EstAdventures: 30},
		{Kind: KindFood, ItemID: 2767, Name: "Crimbo pie", Level: 7, Space: 3, EstAdventures: 11},
		{Kind: KindDrink, ItemID: 7370, Name: "Psychotic Train wine", Level: 11, Space: 6, EstAdventures: 19},
		{Kind: KindDrink, ItemID: 9948, Name: "Middle of the Road brand whiskey", Level: 1, Space: 2, EstAdventures: 4},
	}
}

// LilBarrelDiet is the curated table used when the Lil' Barrel Mimic
// familiar is active: its barrels keep these stocked.
func LilBarrelDiet() []ConsumableRule {
	rules := []ConsumableRule{
		{Kind: KindFood, ItemID: 319, Name: "Insanely spicy enchanted bean burrito", Level: 5, Space: 3, EstAdventures: 11},
		{Kind: KindFood, ItemID: 316, Name: "Insanely spicy bean burrito", Level: 4, Space: 3, EstAdventures: 10},
		{Kind: KindFood, ItemID: 1256, Name: "Insanely spicy jumping bean burrito", Level: 4, Space: 3, EstAdventures: 10},
	}

	goodDrinks := []struct {
		name string
		id   int
	}{
		{"Roll in the hay", 679},
		{"Slap and Tickle", 680},
		{"Slip 'n' slide", 681},
		{"A little sump'm sump'm", 682},
		{"Pink pony", 684},
		{"Rockin' wagon", 797},
		{"Fuzzbump", 799},
		{"Calle de miel", 1018},
	}
	for _, d := range goodDrinks {
		rules = append(rules, ConsumableRule{Kind: KindDrink, ItemID: d.id, Name: d.name, Level: 4, Space: 4, EstAdventures: 11})
	}

	rules = append(rules,
		ConsumableRule{Kind: KindFood, ItemID: 318, Name: "Spicy enchanted bean burrito", Level: 4, Space: 3, EstAdventures: 9},
		ConsumableRule{Kind: KindFood, ItemID: 315, Name: "Spicy bean burrito", Level: 3, Space: 3, EstAdventures: 8},
		ConsumableRule{Kind: KindFood, ItemID: 1255, Name: "Spicy jumping bean burrito", Level: 3, Space: 3, EstAdventures: 8},
	)

	fairDrinks := []struct {
		name string
		id   int
	}{
		{"Gin and tonic", 1567},
		{"Gibson", 1570},
		{"Vodka and tonic", 1568},
		{"Mimosette", 1564},
		{"Tequila sunset", 1565},
		{"Zmobie", 1566},
	}
	for _, d := range fairDrinks {
		rules = append(rules, ConsumableRule{Kind: KindDrink, ItemID: d.id, Name: d.name, Level: 3, Space: 3, EstAdventures: 7})
	}

	rules = append(rules,
		ConsumableRule{Kind: KindFood, ItemID: 317, Name: "Enchanted bean burrito", Level: 2, Space: 3, EstAdventures: 6},
		ConsumableRule{Kind: KindFood, ItemID: 314, Name: "Bean burrito", Level: 1, Space: 3, EstAdventures: 5},
		ConsumableRule{Kind: KindFood, ItemID: 1254, Name: "Jumping bean burrito", Level: 1, Space: 3, EstAdventures: 5},
	)

	cheapDrinks := []struct {
		name string
		id   int
	}{
		{"Screwdriver", 250},
		{"Tequila sunrise", 1012},
		{"Martini", 251},
		{"Vodka martini", 1009},
		{"Strawberry daiquiri", 788},
		{"Margarita", 1013},
	}
	for _, d := range cheapDrinks {
		rules = append(rules, ConsumableRule{Kind: KindDrink, ItemID: d.id, Name: d.name, Level: 1, Space: 3, EstAdventures: 5})
	}

	return rules
}

// SortRules reorders the diet table so the most efficient rules that are
// actually in stock float to the top. Efficiency is adventures per unit of
// organ space; ties, and comparisons across food/drink, are weighted by the
// owned quantity so we spread consumption between both organs.
func SortRules(rules []ConsumableRule, owned func(itemID int) int) {
	sort.SliceStable(rules, func(i, j int) bool {
		a, b := rules[i], rules[j]
		effA := float64(a.EstAdventures) / float64(a.Space)
		effB := float64(b.EstAdventures) / float64(b.Space)
		if effA == effB || a.Kind != b.Kind {
			effA *= float64(owned(a.ItemID))
			effB *= float64(owned(b.ItemID))
		}
		return effA > effB
	})
}

// ProjectedAdventures estimates how many adventures today's remaining organ
// capacity could still yield from the owned supply.
func ProjectedAdventures(rules []ConsumableRule, status CharacterStatus, maxDrunk int, owned func(itemID int) int) int {
	if maxDrunk <= 0 {
		maxDrunk = BaseMaxDrunk
	}

	fullRemaining := MaxFullness - status.Full
	drunkRemaining := maxDrunk - status.Drunk
	advs := 0

	for _, rule := range rules {
		if rule.Level > status.Level {
			continue
		}

		amount := owned(rule.ItemID)
		for amount > 0 {
			remaining := &fullRemaining
			if rule.Kind == KindDrink {
				remaining = &drunkRemaining
			}
			if *remaining < rule.Space {
				break
			}
			advs += rule.EstAdventures
			*remaining -= rule.Space
			amount--
		}
	}

	return advs
}
