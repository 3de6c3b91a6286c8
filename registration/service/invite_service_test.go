package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minetourney/go-services/shared/models"
)

func TestValidateInviteTargets(t *testing.T) {
	assert.NoError(t, validateInviteTargets("u-cap", []string{"u1"}, 2))
	assert.NoError(t, validateInviteTargets("u-cap", []string{"u1", "u2", "u3"}, 4))
}

func TestValidateInviteTargetsRejections(t *testing.T) {
	tests := []struct {
		name      string
		toUserIDs []string
		teamSize  int
	}{
		{"solo tournament", []string{}, 1},
		{"too few invites", []string{"u1", "u2"}, 4},
		{"too many invites", []string{"u1", "u2"}, 2},
		{"empty invitee id", []string{"u1", "", "u3"}, 4},
		{"self-invite", []string{"u1", "u-cap", "u3"}, 4},
		{"duplicate invitee", []string{"u1", "u2", "u1"}, 4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validateInviteTargets("u-cap", tc.toUserIDs, tc.teamSize)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestNewInviteBatch(t *testing.T) {
	now := time.Now()
	invites := newInviteBatch("u-cap", "t1", "Creepers", []string{"u1", "u2", "u3"}, now)
	require.Len(t, invites, 3)

	ids := map[string]bool{}
	for i, inv := range invites {
		assert.Equal(t, "u-cap", inv.CaptainID)
		assert.Equal(t, "t1", inv.TournamentID)
		assert.Equal(t, "Creepers", inv.TeamName)
		assert.Equal(t, models.InvitePending, inv.Status)
		assert.False(t, ids[inv.ID], "invite ids must be unique")
		ids[inv.ID] = true

		// Staggered creation times keep the invite order recoverable when
		// the roster is assembled.
		if i > 0 {
			assert.True(t, invites[i-1].CreatedAt.Before(inv.CreatedAt))
		}
	}
	assert.Equal(t, "u1", invites[0].ToUserID)
	assert.Equal(t, "u3", invites[2].ToUserID)
}

func TestRosterComplete(t *testing.T) {
	// Squad: the third acceptance completes the roster, not the second.
	assert.False(t, rosterComplete(0, 4))
	assert.False(t, rosterComplete(1, 4))
	assert.False(t, rosterComplete(2, 4), "two of three accepts leaves the group waiting")
	assert.True(t, rosterComplete(3, 4))

	// Duo: the single acceptance completes it.
	assert.False(t, rosterComplete(0, 2))
	assert.True(t, rosterComplete(1, 2))
}
