package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/minetourney/go-services/shared/models"
)

// TeamStore represents the MongoDB data store for registered teams.
type TeamStore struct {
	collection *mongo.Collection
}

// NewTeamStore creates a new TeamStore instance.
func NewTeamStore(collection *mongo.Collection) *TeamStore {
	return &TeamStore{collection: collection}
}

// refFilter translates a tournament ref into the query predicate teams are
// bucketed by.
func refFilter(ref models.TournamentRef) bson.M {
	if ref.IsDate() {
		return bson.M{"tournament_date": ref.Date}
	}
	return bson.M{"tournament_id": ref.TournamentID}
}

// EnsureIndexes creates the uniqueness backstops: one team name per
// tournament and one per legacy date bucket. The service re-checks inside
// its transactions; these indexes close any remaining gap.
func (ts *TeamStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "tournament_id", Value: 1}, {Key: "team_name", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"tournament_id": bson.M{"$exists": true}}),
		},
		{
			Keys: bson.D{{Key: "tournament_date", Value: 1}, {Key: "team_name", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"tournament_date": bson.M{"$exists": true}}),
		},
	}
	if _, err := ts.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create team indexes: %w", err)
	}
	return nil
}

// InsertTeam creates a new team document.
func (ts *TeamStore) InsertTeam(ctx context.Context, team *models.Team) error {
	if _, err := ts.collection.InsertOne(ctx, team); err != nil {
		return fmt.Errorf("failed to insert team %s: %w", team.ID, err)
	}
	return nil
}

// GetTeam retrieves a team by id. Returns mongo.ErrNoDocuments when missing.
func (ts *TeamStore) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	var team models.Team
	if err := ts.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&team); err != nil {
		return nil, err
	}
	return &team, nil
}

// GetTeamByName retrieves the team with the given name in a tournament.
// Name comparison is exact, as stored.
func (ts *TeamStore) GetTeamByName(ctx context.Context, ref models.TournamentRef, name string) (*models.Team, error) {
	filter := refFilter(ref)
	filter["team_name"] = name

	var team models.Team
	if err := ts.collection.FindOne(ctx, filter).Decode(&team); err != nil {
		return nil, err
	}
	return &team, nil
}

// FindTeamsByRef retrieves every team registered against the ref's target.
func (ts *TeamStore) FindTeamsByRef(ctx context.Context, ref models.TournamentRef) ([]models.Team, error) {
	cursor, err := ts.collection.Find(ctx, refFilter(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to find teams for %s: %w", ref.Key(), err)
	}
	defer cursor.Close(ctx)

	var teams []models.Team
	if err := cursor.All(ctx, &teams); err != nil {
		return nil, fmt.Errorf("failed to decode teams for %s: %w", ref.Key(), err)
	}
	return teams, nil
}

// FindTeamByUser retrieves the team a user occupies (as captain or roster
// member) within the ref's target, or mongo.ErrNoDocuments.
func (ts *TeamStore) FindTeamByUser(ctx context.Context, ref models.TournamentRef, userID string) (*models.Team, error) {
	filter := refFilter(ref)
	filter["$or"] = bson.A{
		bson.M{"captain_id": userID},
		bson.M{"players.user_id": userID},
	}

	var team models.Team
	if err := ts.collection.FindOne(ctx, filter).Decode(&team); err != nil {
		return nil, err
	}
	return &team, nil
}

// CountTeamsByRef counts the teams registered against the ref's target.
func (ts *TeamStore) CountTeamsByRef(ctx context.Context, ref models.TournamentRef) (int64, error) {
	n, err := ts.collection.CountDocuments(ctx, refFilter(ref))
	if err != nil {
		return 0, fmt.Errorf("failed to count teams for %s: %w", ref.Key(), err)
	}
	return n, nil
}

// ReplaceTeam overwrites a team document in full.
func (ts *TeamStore) ReplaceTeam(ctx context.Context, team *models.Team) error {
	res, err := ts.collection.ReplaceOne(ctx, bson.M{"_id": team.ID}, team)
	if err != nil {
		return fmt.Errorf("failed to replace team %s: %w", team.ID, err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetCaptain hands captaincy over with a conditional single-field write: it
// matches only while fromUserID is still the captain and toUserID still
// holds a roster slot, so a racing roster change makes the write miss
// instead of clobbering it. Returns mongo.ErrNoDocuments on a miss.
func (ts *TeamStore) SetCaptain(ctx context.Context, teamID, fromUserID, toUserID string) error {
	filter := bson.M{"_id": teamID, "captain_id": fromUserID, "players.user_id": toUserID}
	update := bson.M{"$set": bson.M{"captain_id": toUserID, "updated_at": time.Now()}}

	res, err := ts.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to transfer captaincy for team %s: %w", teamID, err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetStatus applies a status change conditional on the status it was
// computed from, touching nothing else on the document. Returns
// mongo.ErrNoDocuments when the team is gone or its status moved underneath.
func (ts *TeamStore) SetStatus(ctx context.Context, teamID string, from, to models.TeamStatus) error {
	filter := bson.M{"_id": teamID, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updated_at": time.Now()}}

	res, err := ts.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update status for team %s: %w", teamID, err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// DeleteTeam removes a team document.
func (ts *TeamStore) DeleteTeam(ctx context.Context, id string) error {
	res, err := ts.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete team %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
