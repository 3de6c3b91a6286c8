package service

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/minetourney/go-services/registration/store"
	"github.com/minetourney/go-services/shared/models"
)

// RosterIndex is the derived player-uniqueness index: it is never stored,
// only computed from the destination tournament's current teams. Every path
// that writes a roster (register, move, replacement append) goes through it
// instead of re-implementing the check.
type RosterIndex struct {
	teamStore *store.TeamStore
}

// NewRosterIndex creates a new RosterIndex instance.
func NewRosterIndex(ts *store.TeamStore) *RosterIndex {
	return &RosterIndex{teamStore: ts}
}

// ConflictingKeys returns the IGNs of candidates whose (IGN, Discord) key is
// already occupied by another team in the ref's tournament. Teams matching
// excludeTeamID are skipped so a team can be re-validated against everyone
// but itself.
func (ri *RosterIndex) ConflictingKeys(ctx context.Context, ref models.TournamentRef, excludeTeamID string, candidates []models.Player) ([]string, error) {
	teams, err := ri.teamStore.FindTeamsByRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	return rosterConflicts(teams, excludeTeamID, candidates), nil
}

// rosterConflicts computes the colliding candidate IGNs against the given
// team set. IGNs compare case-insensitively and trimmed; Discord handles
// trimmed but case-sensitive (same IGN with a different Discord handle is a
// distinct person).
func rosterConflicts(teams []models.Team, excludeTeamID string, candidates []models.Player) []string {
	used := make(map[string]struct{})
	for _, team := range teams {
		if team.ID == excludeTeamID {
			continue
		}
		for _, p := range team.Players {
			used[p.RosterKey()] = struct{}{}
		}
	}

	var conflicts []string
	for _, c := range candidates {
		if _, taken := used[c.RosterKey()]; taken {
			conflicts = append(conflicts, c.IGN)
		}
	}
	return conflicts
}

// duplicateWithin returns the IGN of the first candidate sharing a roster
// key with an earlier candidate, or "" when the submitted roster itself is
// collision-free.
func duplicateWithin(candidates []models.Player) string {
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		key := c.RosterKey()
		if _, dup := seen[key]; dup {
			return c.IGN
		}
		seen[key] = struct{}{}
	}
	return ""
}

// FindUserTeam returns the team the user occupies (as captain or player) in
// the ref's tournament, or nil. This is the identity-based check backing the
// one-team-per-user invariant for signed-in registrants; it is independent
// of the IGN/Discord key check.
func (ri *RosterIndex) FindUserTeam(ctx context.Context, ref models.TournamentRef, userID string) (*models.Team, error) {
	if userID == "" {
		return nil, nil
	}
	team, err := ri.teamStore.FindTeamByUser(ctx, ref, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return team, nil
}
