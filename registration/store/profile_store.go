package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/minetourney/go-services/shared/models"
)

// ProfileStore represents the MongoDB data store for player profiles.
type ProfileStore struct {
	collection *mongo.Collection
}

// NewProfileStore creates a new ProfileStore instance.
func NewProfileStore(collection *mongo.Collection) *ProfileStore {
	return &ProfileStore{collection: collection}
}

// CreateProfile inserts a new profile. Duplicate user ids surface as a
// duplicate key error for the service to map.
func (ps *ProfileStore) CreateProfile(ctx context.Context, p *models.Profile) error {
	if _, err := ps.collection.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("failed to insert profile %s: %w", p.UserID, err)
	}
	return nil
}

// GetProfile retrieves a profile by user id. Returns mongo.ErrNoDocuments
// when missing.
func (ps *ProfileStore) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	if err := ps.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProfiles retrieves several profiles at once, keyed by user id. Missing
// ids are simply absent from the map.
func (ps *ProfileStore) GetProfiles(ctx context.Context, userIDs []string) (map[string]models.Profile, error) {
	cursor, err := ps.collection.Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to find profiles: %w", err)
	}
	defer cursor.Close(ctx)

	var profiles []models.Profile
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, fmt.Errorf("failed to decode profiles: %w", err)
	}

	byID := make(map[string]models.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.UserID] = p
	}
	return byID, nil
}

// UpdateLastLogin stamps a profile's last login time.
func (ps *ProfileStore) UpdateLastLogin(ctx context.Context, userID string) error {
	res, err := ps.collection.UpdateOne(ctx, bson.M{"_id": userID},
		bson.M{"$set": bson.M{"last_login_at": time.Now()}})
	if err != nil {
		return fmt.Errorf("failed to update last login for profile %s: %w", userID, err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
