package models

import "time"

// InviteStatus tracks a teammate invite through its lifecycle.
type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteRejected InviteStatus = "rejected"
)

// Invite is a pending roster slot for a team that does not exist yet. A
// batch of teamSize-1 invites is created when a captain starts recruiting;
// once an invite is accepted or rejected it is terminal, and a rejection
// permanently blocks the (captain, team name, invitee) triple.
type Invite struct {
	ID           string       `bson:"_id" json:"id"`
	CaptainID    string       `bson:"captain_id" json:"captainId"`
	TournamentID string       `bson:"tournament_id" json:"tournamentId"`
	TeamName     string       `bson:"team_name" json:"teamName"`
	ToUserID     string       `bson:"to_user_id" json:"toUserId"`
	Status       InviteStatus `bson:"status" json:"status"`
	// GroupRev is bumped across the whole recruiting group on every accept,
	// so concurrent acceptances share a write set and cannot both commit
	// against stale counts.
	GroupRev  int64     `bson:"group_rev" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}
