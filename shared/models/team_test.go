package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTeamStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to TeamStatus
		allowed  bool
	}{
		{TeamPending, TeamApproved, true},
		{TeamPending, TeamRejected, true},
		{TeamApproved, TeamRejected, true},
		{TeamApproved, TeamPending, true},
		{TeamRejected, TeamApproved, true},
		{TeamRejected, TeamPending, true},
		{TeamPending, TeamPending, false},
		{TeamApproved, TeamApproved, false},
		{TeamRejected, TeamRejected, false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestRosterKey(t *testing.T) {
	a := Player{IGN: "Steve", Discord: "steve#0001"}
	b := Player{IGN: "  sTeVe ", Discord: "steve#0001"}
	c := Player{IGN: "Steve", Discord: "Steve#0001"}

	assert.Equal(t, a.RosterKey(), b.RosterKey(), "IGN comparison is case-insensitive and trimmed")
	assert.NotEqual(t, a.RosterKey(), c.RosterKey(), "Discord handles are case-sensitive")
}

func TestPlayerByIGN(t *testing.T) {
	team := &Team{Players: []Player{
		{IGN: "Alex", Discord: "alex#1"},
		{IGN: "Steve", Discord: "steve#1"},
	}}

	assert.Equal(t, 1, team.PlayerByIGN("steve"))
	assert.Equal(t, 1, team.PlayerByIGN("  STEVE  "))
	assert.Equal(t, 0, team.PlayerByIGN("Alex"))
	assert.Equal(t, -1, team.PlayerByIGN("Herobrine"))
}

func TestHasUser(t *testing.T) {
	team := &Team{
		CaptainID: "u-cap",
		Players: []Player{
			{IGN: "Alex", UserID: "u-alex"},
			{IGN: "Guest"},
		},
	}

	assert.True(t, team.HasUser("u-cap"))
	assert.True(t, team.HasUser("u-alex"))
	assert.False(t, team.HasUser("u-other"))
	assert.False(t, team.HasUser(""), "anonymous roster slots never match")
}

func TestHasRewardReceiver(t *testing.T) {
	team := &Team{
		Players:   []Player{{IGN: "Alex"}, {IGN: "Steve"}},
		RewardIGN: "steve",
	}
	assert.True(t, team.HasRewardReceiver())

	team.RewardIGN = "Herobrine"
	assert.False(t, team.HasRewardReceiver())
}
