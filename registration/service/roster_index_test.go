package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/minetourney/go-services/shared/models"
)

func existingTeams() []models.Team {
	return []models.Team{
		{
			ID: "team-a",
			Players: []models.Player{
				{IGN: "Steve", Discord: "steve#1"},
				{IGN: "Alex", Discord: "alex#1"},
			},
		},
		{
			ID: "team-b",
			Players: []models.Player{
				{IGN: "Herobrine", Discord: "hero#1"},
			},
		},
	}
}

func TestRosterConflicts(t *testing.T) {
	conflicts := rosterConflicts(existingTeams(), "", []models.Player{
		{IGN: "steve", Discord: "steve#1"}, // taken, IGN case-insensitive
		{IGN: " Alex ", Discord: "alex#1"}, // taken, IGN trimmed
		{IGN: "Alex", Discord: "Alex#1"},   // free, different Discord handle
		{IGN: "Notch", Discord: "notch#1"}, // free
	})
	assert.Equal(t, []string{"steve", " Alex "}, conflicts)
}

func TestRosterConflictsExcludesOwnTeam(t *testing.T) {
	conflicts := rosterConflicts(existingTeams(), "team-a", []models.Player{
		{IGN: "Steve", Discord: "steve#1"},
		{IGN: "Herobrine", Discord: "hero#1"},
	})
	assert.Equal(t, []string{"Herobrine"}, conflicts,
		"a team being re-validated must not collide with itself")
}

func TestRosterConflictsNone(t *testing.T) {
	conflicts := rosterConflicts(existingTeams(), "", []models.Player{
		{IGN: "Notch", Discord: "notch#1"},
	})
	assert.Empty(t, conflicts)
}

func TestDuplicateWithin(t *testing.T) {
	assert.Equal(t, "", duplicateWithin([]models.Player{
		{IGN: "Steve", Discord: "steve#1"},
		{IGN: "Steve", Discord: "other#1"}, // same IGN, distinct Discord: two people
	}))

	assert.Equal(t, " steve ", duplicateWithin([]models.Player{
		{IGN: "Steve", Discord: "steve#1"},
		{IGN: " steve ", Discord: "steve#1"},
	}))
}
