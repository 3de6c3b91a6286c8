package models

import (
	"strings"
	"time"
)

// TeamStatus is the admin-reviewed state of a registered team.
type TeamStatus string

const (
	TeamPending  TeamStatus = "pending"
	TeamApproved TeamStatus = "approved"
	TeamRejected TeamStatus = "rejected"
)

// teamStatusTransitions is the explicit transition table. Reverting to
// pending is in the table but requires elevated privilege at the service
// layer; anything absent here is rejected outright.
var teamStatusTransitions = map[TeamStatus][]TeamStatus{
	TeamPending:  {TeamApproved, TeamRejected},
	TeamApproved: {TeamRejected, TeamPending},
	TeamRejected: {TeamApproved, TeamPending},
}

// CanTransitionTo reports whether the status change is in the table.
func (s TeamStatus) CanTransitionTo(next TeamStatus) bool {
	for _, allowed := range teamStatusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ValidTeamStatus reports whether s is a known team status.
func ValidTeamStatus(s TeamStatus) bool {
	switch s {
	case TeamPending, TeamApproved, TeamRejected:
		return true
	}
	return false
}

// Player is one roster slot: a Minecraft IGN plus a Discord handle, and the
// account id when the player is a signed-in user.
type Player struct {
	IGN           string `bson:"ign" json:"ign"`
	Discord       string `bson:"discord" json:"discord"`
	UserID        string `bson:"user_id,omitempty" json:"userId,omitempty"`
	MinecraftUUID string `bson:"minecraft_uuid,omitempty" json:"minecraftUuid,omitempty"`
}

// RosterKey is the uniqueness key for a roster slot within a tournament:
// IGN case-insensitive and trimmed, Discord trimmed but case-sensitive.
func (p Player) RosterKey() string {
	return strings.ToLower(strings.TrimSpace(p.IGN)) + "\x00" + strings.TrimSpace(p.Discord)
}

// Team is a registered roster occupying exactly one tournament slot.
type Team struct {
	ID            string `bson:"_id" json:"id"`
	TeamName      string `bson:"team_name" json:"teamName"`
	TournamentRef `bson:",inline"`
	CaptainID     string     `bson:"captain_id,omitempty" json:"captainId,omitempty"`
	Players       []Player   `bson:"players" json:"players"`
	RewardIGN     string     `bson:"reward_receiver_ign" json:"rewardReceiverIGN"`
	Status        TeamStatus `bson:"status" json:"status"`
	CreatedAt     time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `bson:"updated_at" json:"updatedAt"`
}

// PlayerByIGN returns the roster index of the player with the given IGN
// (case-insensitive, trimmed), or -1.
func (t *Team) PlayerByIGN(ign string) int {
	want := strings.ToLower(strings.TrimSpace(ign))
	for i, p := range t.Players {
		if strings.ToLower(strings.TrimSpace(p.IGN)) == want {
			return i
		}
	}
	return -1
}

// HasUser reports whether the given account is the captain or holds a roster
// slot on this team.
func (t *Team) HasUser(userID string) bool {
	if userID == "" {
		return false
	}
	if t.CaptainID == userID {
		return true
	}
	for _, p := range t.Players {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// HasRewardReceiver reports whether the designated reward receiver is still
// a roster member.
func (t *Team) HasRewardReceiver() bool {
	return t.PlayerByIGN(t.RewardIGN) >= 0
}
