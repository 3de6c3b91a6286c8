package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/minetourney/go-services/shared/models"
)

// InviteStore represents the MongoDB data store for teammate invites.
type InviteStore struct {
	collection *mongo.Collection
}

// NewInviteStore creates a new InviteStore instance.
func NewInviteStore(collection *mongo.Collection) *InviteStore {
	return &InviteStore{collection: collection}
}

// tripleFilter matches all invites of one (captain, tournament, team name)
// recruiting group.
func tripleFilter(captainID, tournamentID, teamName string) bson.M {
	return bson.M{
		"captain_id":    captainID,
		"tournament_id": tournamentID,
		"team_name":     teamName,
	}
}

// InsertInvites creates a batch of invites; all or nothing.
func (is *InviteStore) InsertInvites(ctx context.Context, invites []models.Invite) error {
	docs := make([]interface{}, len(invites))
	for i := range invites {
		docs[i] = invites[i]
	}
	if _, err := is.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		return fmt.Errorf("failed to insert invite batch: %w", err)
	}
	return nil
}

// GetInvite retrieves an invite by id. Returns mongo.ErrNoDocuments when missing.
func (is *InviteStore) GetInvite(ctx context.Context, id string) (*models.Invite, error) {
	var invite models.Invite
	if err := is.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&invite); err != nil {
		return nil, err
	}
	return &invite, nil
}

// FindPendingByUser retrieves all pending invites addressed to a user,
// newest first.
func (is *InviteStore) FindPendingByUser(ctx context.Context, userID string) ([]models.Invite, error) {
	filter := bson.M{"to_user_id": userID, "status": models.InvitePending}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := is.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find pending invites for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var invites []models.Invite
	if err := cursor.All(ctx, &invites); err != nil {
		return nil, fmt.Errorf("failed to decode pending invites for user %s: %w", userID, err)
	}
	return invites, nil
}

// FindByTripleAndStatus retrieves a recruiting group's invites with the
// given status, ordered by creation time (roster order).
func (is *InviteStore) FindByTripleAndStatus(ctx context.Context, captainID, tournamentID, teamName string, status models.InviteStatus) ([]models.Invite, error) {
	filter := tripleFilter(captainID, tournamentID, teamName)
	filter["status"] = status
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := is.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s invites for team %q: %w", status, teamName, err)
	}
	defer cursor.Close(ctx)

	var invites []models.Invite
	if err := cursor.All(ctx, &invites); err != nil {
		return nil, fmt.Errorf("failed to decode %s invites for team %q: %w", status, teamName, err)
	}
	return invites, nil
}

// HasRejected reports whether the invitee has a standing rejection for this
// recruiting group. A rejection permanently blocks re-inviting under the
// same team name.
func (is *InviteStore) HasRejected(ctx context.Context, captainID, tournamentID, teamName, toUserID string) (bool, error) {
	filter := tripleFilter(captainID, tournamentID, teamName)
	filter["to_user_id"] = toUserID
	filter["status"] = models.InviteRejected

	n, err := is.collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("failed to check rejected invites for user %s: %w", toUserID, err)
	}
	return n > 0, nil
}

// DeletePendingByTriple removes a recruiting group's still-pending invites
// (the supersede path when a captain re-sends).
func (is *InviteStore) DeletePendingByTriple(ctx context.Context, captainID, tournamentID, teamName string) error {
	filter := tripleFilter(captainID, tournamentID, teamName)
	filter["status"] = models.InvitePending
	if _, err := is.collection.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete pending invites for team %q: %w", teamName, err)
	}
	return nil
}

// DeleteByTriple removes every invite of a recruiting group (cleanup once
// the team has been created).
func (is *InviteStore) DeleteByTriple(ctx context.Context, captainID, tournamentID, teamName string) error {
	if _, err := is.collection.DeleteMany(ctx, tripleFilter(captainID, tournamentID, teamName)); err != nil {
		return fmt.Errorf("failed to delete invites for team %q: %w", teamName, err)
	}
	return nil
}

// BumpGroupRevision increments the shared revision on every invite of a
// recruiting group. Acceptances run this inside their transaction so that
// two concurrent "last" accepts write-conflict on the group: one aborts,
// retries against the other's commit, and sees the true accepted count.
func (is *InviteStore) BumpGroupRevision(ctx context.Context, captainID, tournamentID, teamName string) error {
	filter := tripleFilter(captainID, tournamentID, teamName)
	if _, err := is.collection.UpdateMany(ctx, filter, bson.M{"$inc": bson.M{"group_rev": 1}}); err != nil {
		return fmt.Errorf("failed to bump invite group revision for team %q: %w", teamName, err)
	}
	return nil
}

// DeleteInvite removes a single invite by id.
func (is *InviteStore) DeleteInvite(ctx context.Context, id string) error {
	res, err := is.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete invite %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// UpdateStatus moves a single invite to a terminal status.
func (is *InviteStore) UpdateStatus(ctx context.Context, id string, status models.InviteStatus) error {
	res, err := is.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return fmt.Errorf("failed to update invite %s status: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
