package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/minetourney/go-services/shared/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// EventChannel is the Redis pub/sub channel all engine notifications go to.
const EventChannel = "tournament:events"

// Event kinds published by the registration engine.
const (
	EventTeamCreated   = "team.created"
	EventTeamMoved     = "team.moved"
	EventTeamDisbanded = "team.disbanded"
	EventTeamsChanged  = "tournament.teams_changed"
	EventRosterChanged = "team.roster_changed"
)

// Event is the wire format of a notification. Observational only: consumers
// render dashboards and Discord messages from it, nothing reads it back.
type Event struct {
	Kind       string `json:"kind"`
	TeamID     string `json:"teamId,omitempty"`
	TeamName   string `json:"teamName,omitempty"`
	Tournament string `json:"tournament,omitempty"` // ref key, "tournament:<id>" or "date:<date>"
	At         int64  `json:"at"`
}

// Notifier publishes fire-and-forget engine notifications over Redis
// pub/sub. Delivery is best-effort: failures are logged and never propagate
// into the transaction that triggered them.
type Notifier struct {
	redisClient redis.UniversalClient
	logger      *zap.SugaredLogger
}

// NewNotifier creates a Notifier over an existing Redis client.
func NewNotifier(redisClient redis.UniversalClient, logger *zap.SugaredLogger) *Notifier {
	return &Notifier{redisClient: redisClient, logger: logger}
}

// TeamCreated announces a newly created team.
func (n *Notifier) TeamCreated(team *models.Team) {
	n.publish(Event{Kind: EventTeamCreated, TeamID: team.ID, TeamName: team.TeamName, Tournament: team.TournamentRef.Key()})
	n.publish(Event{Kind: EventTeamsChanged, Tournament: team.TournamentRef.Key()})
}

// TeamMoved announces a team relocation; both events carry the destination.
func (n *Notifier) TeamMoved(team *models.Team, from models.TournamentRef) {
	n.publish(Event{Kind: EventTeamMoved, TeamID: team.ID, TeamName: team.TeamName, Tournament: team.TournamentRef.Key()})
	n.publish(Event{Kind: EventTeamsChanged, Tournament: from.Key()})
	n.publish(Event{Kind: EventTeamsChanged, Tournament: team.TournamentRef.Key()})
}

// TeamDisbanded announces a deleted team.
func (n *Notifier) TeamDisbanded(teamID, teamName string, ref models.TournamentRef) {
	n.publish(Event{Kind: EventTeamDisbanded, TeamID: teamID, TeamName: teamName, Tournament: ref.Key()})
	n.publish(Event{Kind: EventTeamsChanged, Tournament: ref.Key()})
}

// TeamsChanged announces that a tournament's team list or registration
// state changed without a more specific event.
func (n *Notifier) TeamsChanged(ref models.TournamentRef) {
	n.publish(Event{Kind: EventTeamsChanged, Tournament: ref.Key()})
}

// RosterChanged announces a roster or captaincy edit on an existing team.
func (n *Notifier) RosterChanged(team *models.Team) {
	n.publish(Event{Kind: EventRosterChanged, TeamID: team.ID, TeamName: team.TeamName, Tournament: team.TournamentRef.Key()})
}

func (n *Notifier) publish(ev Event) {
	ev.At = time.Now().UnixMilli()
	payload, err := json.Marshal(ev)
	if err != nil {
		n.logger.Errorf("Notifier: failed to marshal event %s: %v", ev.Kind, err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := n.redisClient.Publish(ctx, EventChannel, payload).Err(); err != nil {
			n.logger.Warnf("Notifier: failed to publish %s event: %v", ev.Kind, err)
		}
	}()
}
