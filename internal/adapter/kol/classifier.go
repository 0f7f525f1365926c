package kol

import (
	"regexp"

	"github.com/loathers/cagebot/internal/domain/sewer"
)

var (
	cagedRE        = regexp.MustCompile(`Despite All Your Rage`)
	grateRE        = regexp.MustCompile(`Disgustin' Junction`)
	valveRE        = regexp.MustCompile(`Somewhat Higher and Mostly Dry`)
	rescueRE       = regexp.MustCompile(`The Former or the Ladder`)
	fightRE        = regexp.MustCompile(`Pop!`)
	grateOpenedRE  = regexp.MustCompile(`(?i)too tired to explore the tunnel on the other side`)
	valveLoweredRE = regexp.MustCompile(`(?i)as the water level in the sewer lowers by a couple of inches`)
	midChoiceRE    = regexp.MustCompile(`whichchoice`)
)

// Classifier maps raw sewer pages onto symbolic outcomes. All pattern
// matching against game HTML lives here so the loop never reads raw text.
type Classifier struct{}

func (Classifier) ClassifyAdventure(page string) sewer.Outcome {
	switch {
	case cagedRE.MatchString(page):
		return sewer.OutcomeCaged
	case grateRE.MatchString(page):
		return sewer.OutcomeGrate
	case valveRE.MatchString(page):
		return sewer.OutcomeValve
	case rescueRE.MatchString(page):
		return sewer.OutcomeRescue
	case fightRE.MatchString(page):
		return sewer.OutcomeFight
	default:
		return sewer.OutcomeNothing
	}
}

// GrateOpened reports whether the grate follow-up actually granted
// progress; the encounter can appear without doing so.
func (Classifier) GrateOpened(page string) bool {
	return grateOpenedRE.MatchString(page)
}

func (Classifier) ValveTwisted(page string) bool {
	return valveLoweredRE.MatchString(page)
}

func (Classifier) CagePresent(page string) bool {
	return cagedRE.MatchString(page)
}

func (Classifier) CombatPopup(page string) bool {
	return fightRE.MatchString(page)
}

func (Classifier) MidChoice(page string) bool {
	return midChoiceRE.MatchString(page)
}
