package models

import (
	"errors"
	"time"
)

// ErrCapacityExceeded is returned when a slot reservation hits a full or
// closed tournament. It is re-exported by the service layer's taxonomy.
var ErrCapacityExceeded = errors.New("tournament is full or closed")

// TournamentStatus is the admin-driven lifecycle state of a tournament.
type TournamentStatus string

const (
	TournamentDraft              TournamentStatus = "draft"
	TournamentRegistrationOpen   TournamentStatus = "registration_open"
	TournamentRegistrationClosed TournamentStatus = "registration_closed"
	TournamentOngoing            TournamentStatus = "ongoing"
	TournamentCompleted          TournamentStatus = "completed"
)

// ValidTournamentStatus reports whether s is a known lifecycle state.
func ValidTournamentStatus(s TournamentStatus) bool {
	switch s {
	case TournamentDraft, TournamentRegistrationOpen, TournamentRegistrationClosed,
		TournamentOngoing, TournamentCompleted:
		return true
	}
	return false
}

// Capacity owns the registered/max counter pair and the derived closed flag.
// It is only ever mutated through Reserve/Release/ForceClose, and only inside
// the same transaction as the team mutation it accounts for.
type Capacity struct {
	MaxTeams        int  `bson:"max_teams" json:"maxTeams"`
	RegisteredTeams int  `bson:"registered_teams" json:"registeredTeams"`
	IsClosed        bool `bson:"is_closed" json:"isClosed"`
	ClosedByAdmin   bool `bson:"closed_by_admin" json:"closedByAdmin"`
}

// Reserve consumes one slot, closing the tournament when it fills up.
func (c *Capacity) Reserve() error {
	if c.IsClosed || c.RegisteredTeams >= c.MaxTeams {
		return ErrCapacityExceeded
	}
	c.RegisteredTeams++
	if c.RegisteredTeams >= c.MaxTeams {
		c.IsClosed = true
	}
	return nil
}

// Release frees one slot. A fullness-derived closure auto-clears; an
// admin-forced closure does not.
func (c *Capacity) Release() {
	if c.RegisteredTeams > 0 {
		c.RegisteredTeams--
	}
	if c.RegisteredTeams < c.MaxTeams && !c.ClosedByAdmin {
		c.IsClosed = false
	}
}

// ForceClose sets or clears the admin override. Clearing it recomputes the
// closed flag from fullness.
func (c *Capacity) ForceClose(closed bool) {
	c.ClosedByAdmin = closed
	if closed {
		c.IsClosed = true
	} else {
		c.IsClosed = c.RegisteredTeams >= c.MaxTeams
	}
}

// HasFreeSlot reports whether one more team fits.
func (c *Capacity) HasFreeSlot() bool {
	return !c.IsClosed && c.RegisteredTeams < c.MaxTeams
}

// Tournament is a fixed-capacity event teams register against.
type Tournament struct {
	ID        string           `bson:"_id" json:"id"`
	Name      string           `bson:"name" json:"name"`
	TeamSize  int              `bson:"team_size" json:"teamSize"`
	Capacity  `bson:",inline"` // registered_teams / max_teams / is_closed
	Status    TournamentStatus `bson:"status" json:"status"`
	CreatedAt time.Time        `bson:"created_at" json:"createdAt"`
}

// ValidTeamSize reports whether n is a supported roster size (solo/duo/squad).
func ValidTeamSize(n int) bool {
	return n == 1 || n == 2 || n == 4
}

// DateBucket is the legacy capacity-tracking mode keyed by a raw date string.
// Functionally identical to a Tournament for ledger purposes.
type DateBucket struct {
	Date      string           `bson:"_id" json:"date"`
	TeamSize  int              `bson:"team_size" json:"teamSize"`
	Capacity  `bson:",inline"`
	CreatedAt time.Time        `bson:"created_at" json:"createdAt"`
}

// TournamentRef points a team at either a tournament id or a legacy date
// bucket. Exactly one side is ever set.
type TournamentRef struct {
	TournamentID string `bson:"tournament_id,omitempty" json:"tournamentId,omitempty"`
	Date         string `bson:"tournament_date,omitempty" json:"tournamentDate,omitempty"`
}

// IsDate reports whether the ref targets a legacy date bucket.
func (r TournamentRef) IsDate() bool {
	return r.Date != ""
}

// Valid reports whether exactly one side of the ref is set.
func (r TournamentRef) Valid() bool {
	return (r.TournamentID != "") != (r.Date != "")
}

// Key returns a stable identifier for the referenced event, usable as a
// notification subject or hash key.
func (r TournamentRef) Key() string {
	if r.IsDate() {
		return "date:" + r.Date
	}
	return "tournament:" + r.TournamentID
}
