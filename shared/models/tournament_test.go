package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapacityReserve(t *testing.T) {
	c := Capacity{MaxTeams: 2}

	require.NoError(t, c.Reserve())
	assert.Equal(t, 1, c.RegisteredTeams)
	assert.False(t, c.IsClosed)

	// The last slot closes the tournament.
	require.NoError(t, c.Reserve())
	assert.Equal(t, 2, c.RegisteredTeams)
	assert.True(t, c.IsClosed)

	err := c.Reserve()
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, 2, c.RegisteredTeams, "a failed reserve must not change the counter")
}

func TestCapacityReserveWhenForceClosed(t *testing.T) {
	c := Capacity{MaxTeams: 10}
	c.ForceClose(true)

	assert.ErrorIs(t, c.Reserve(), ErrCapacityExceeded)
	assert.False(t, c.HasFreeSlot())
}

func TestCapacityReleaseReopens(t *testing.T) {
	c := Capacity{MaxTeams: 1}
	require.NoError(t, c.Reserve())
	require.True(t, c.IsClosed)

	c.Release()
	assert.Equal(t, 0, c.RegisteredTeams)
	assert.False(t, c.IsClosed, "a fullness-derived closure clears when a slot frees up")
	assert.True(t, c.HasFreeSlot())
}

func TestCapacityReleaseKeepsAdminClosure(t *testing.T) {
	c := Capacity{MaxTeams: 5, RegisteredTeams: 3}
	c.ForceClose(true)

	c.Release()
	assert.Equal(t, 2, c.RegisteredTeams)
	assert.True(t, c.IsClosed, "an admin-forced closure must survive withdrawals")
}

func TestCapacityReleaseAtZero(t *testing.T) {
	c := Capacity{MaxTeams: 3}
	c.Release()
	assert.Equal(t, 0, c.RegisteredTeams, "the counter never goes negative")
}

func TestCapacityForceReopen(t *testing.T) {
	full := Capacity{MaxTeams: 1, RegisteredTeams: 1, IsClosed: true}
	full.ForceClose(true)
	full.ForceClose(false)
	assert.True(t, full.IsClosed, "reopening a full tournament keeps it closed by fullness")

	spare := Capacity{MaxTeams: 2, RegisteredTeams: 1}
	spare.ForceClose(true)
	spare.ForceClose(false)
	assert.False(t, spare.IsClosed)
	assert.True(t, spare.HasFreeSlot())
}

func TestValidTeamSize(t *testing.T) {
	assert.True(t, ValidTeamSize(1))
	assert.True(t, ValidTeamSize(2))
	assert.True(t, ValidTeamSize(4))
	assert.False(t, ValidTeamSize(0))
	assert.False(t, ValidTeamSize(3))
	assert.False(t, ValidTeamSize(5))
}

func TestTournamentRefValid(t *testing.T) {
	assert.True(t, TournamentRef{TournamentID: "t1"}.Valid())
	assert.True(t, TournamentRef{Date: "2026-09-01"}.Valid())
	assert.False(t, TournamentRef{}.Valid())
	assert.False(t, TournamentRef{TournamentID: "t1", Date: "2026-09-01"}.Valid())
}

func TestTournamentRefKey(t *testing.T) {
	assert.Equal(t, "tournament:t1", TournamentRef{TournamentID: "t1"}.Key())
	assert.Equal(t, "date:2026-09-01", TournamentRef{Date: "2026-09-01"}.Key())
}
