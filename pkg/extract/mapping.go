package extract

import (
	"strings"

	"github.com/Sriram-PR/fcf-scraper/pkg/models"
)

// MatchStatus maps the acta status banner. Empty input returns nil so the stored status is kept.
func MatchStatus(text string) *models.MatchStatus {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return nil
	}
	status := models.StatusPending
	switch t {
	case "acta tancada":
		status = models.StatusFinished
	case "ajornat", "suspès", "suspendit":
		status = models.StatusSuspended
	}
	return &status
}

// Card labels as read from the acta
const (
	CardYellow       = "Groga"
	CardSecondYellow = "Segona Groga"
	CardRed          = "Vermella"
)

// CardKind maps a card label to an event kind; unknown labels return nil and the card is dropped
func CardKind(label string) *models.EventKind {
	var k models.EventKind
	switch label {
	case CardYellow:
		k = models.EventYellowCard
	case CardSecondYellow:
		k = models.EventSecondYellow
	case CardRed:
		k = models.EventRedCard
	default:
		return nil
	}
	return &k
}

// Goal types as read from the acta
const (
	GoalNormal  = "Normal"
	GoalPenalty = "Penal"
	GoalOwn     = "Propia"
)

// GoalKind maps a goal type; ok is false for anything but Normal, Penal or Propia
func GoalKind(goalType string) (models.EventKind, bool) {
	switch goalType {
	case GoalNormal:
		return models.EventGoal, true
	case GoalPenalty:
		return models.EventPenaltyGoal, true
	case GoalOwn:
		return models.EventOwnGoal, true
	}
	return "", false
}
