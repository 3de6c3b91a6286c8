package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/minetourney/go-services/shared/models"
)

// Event is the ledger view of a tournament or legacy date bucket: everything
// the capacity ledger and the roster checks need, independent of which mode
// the ref points at.
type Event struct {
	Ref      models.TournamentRef
	TeamSize int
	Capacity models.Capacity
	Status   models.TournamentStatus
}

// TournamentStore persists tournaments and legacy date buckets. Capacity is
// only ever written through SaveCapacity, and callers are expected to do so
// inside the same transaction as the team mutation it accounts for.
type TournamentStore struct {
	tournaments *mongo.Collection
	dates       *mongo.Collection
}

// NewTournamentStore creates a new TournamentStore instance.
func NewTournamentStore(tournaments, dates *mongo.Collection) *TournamentStore {
	return &TournamentStore{tournaments: tournaments, dates: dates}
}

// InsertTournament creates a new tournament document.
func (ts *TournamentStore) InsertTournament(ctx context.Context, t *models.Tournament) error {
	if _, err := ts.tournaments.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("failed to insert tournament %s: %w", t.ID, err)
	}
	return nil
}

// GetTournament retrieves a tournament by id. Returns mongo.ErrNoDocuments
// when it does not exist.
func (ts *TournamentStore) GetTournament(ctx context.Context, id string) (*models.Tournament, error) {
	var t models.Tournament
	if err := ts.tournaments.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTournaments retrieves all tournament documents.
func (ts *TournamentStore) ListTournaments(ctx context.Context) ([]models.Tournament, error) {
	cursor, err := ts.tournaments.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to find tournaments: %w", err)
	}
	defer cursor.Close(ctx)

	var tournaments []models.Tournament
	if err := cursor.All(ctx, &tournaments); err != nil {
		return nil, fmt.Errorf("failed to decode tournaments: %w", err)
	}
	return tournaments, nil
}

// UpdateTournamentStatus sets the admin lifecycle status.
func (ts *TournamentStore) UpdateTournamentStatus(ctx context.Context, id string, status models.TournamentStatus) error {
	res, err := ts.tournaments.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return fmt.Errorf("failed to update status for tournament %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// GetDateBucket retrieves a legacy date bucket by its date string.
func (ts *TournamentStore) GetDateBucket(ctx context.Context, date string) (*models.DateBucket, error) {
	var d models.DateBucket
	if err := ts.dates.FindOne(ctx, bson.M{"_id": date}).Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// InsertDateBucket creates a new legacy date bucket.
func (ts *TournamentStore) InsertDateBucket(ctx context.Context, d *models.DateBucket) error {
	if _, err := ts.dates.InsertOne(ctx, d); err != nil {
		return fmt.Errorf("failed to insert date bucket %s: %w", d.Date, err)
	}
	return nil
}

// ListDateBuckets retrieves all legacy date buckets.
func (ts *TournamentStore) ListDateBuckets(ctx context.Context) ([]models.DateBucket, error) {
	cursor, err := ts.dates.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to find date buckets: %w", err)
	}
	defer cursor.Close(ctx)

	var dates []models.DateBucket
	if err := cursor.All(ctx, &dates); err != nil {
		return nil, fmt.Errorf("failed to decode date buckets: %w", err)
	}
	return dates, nil
}

// GetEvent loads the ledger view of whatever the ref points at. Returns
// mongo.ErrNoDocuments when the target does not exist.
func (ts *TournamentStore) GetEvent(ctx context.Context, ref models.TournamentRef) (*Event, error) {
	if ref.IsDate() {
		d, err := ts.GetDateBucket(ctx, ref.Date)
		if err != nil {
			return nil, err
		}
		return &Event{
			Ref:      ref,
			TeamSize: d.TeamSize,
			Capacity: d.Capacity,
			// Date buckets predate the status field; they are always open for
			// ledger purposes unless closed by capacity or admin.
			Status: models.TournamentRegistrationOpen,
		}, nil
	}

	t, err := ts.GetTournament(ctx, ref.TournamentID)
	if err != nil {
		return nil, err
	}
	return &Event{Ref: ref, TeamSize: t.TeamSize, Capacity: t.Capacity, Status: t.Status}, nil
}

// SaveCapacity writes back the counter state for the ref's target.
func (ts *TournamentStore) SaveCapacity(ctx context.Context, ref models.TournamentRef, c models.Capacity) error {
	update := bson.M{"$set": bson.M{
		"max_teams":        c.MaxTeams,
		"registered_teams": c.RegisteredTeams,
		"is_closed":        c.IsClosed,
		"closed_by_admin":  c.ClosedByAdmin,
	}}

	var (
		res *mongo.UpdateResult
		err error
	)
	if ref.IsDate() {
		res, err = ts.dates.UpdateOne(ctx, bson.M{"_id": ref.Date}, update)
	} else {
		res, err = ts.tournaments.UpdateOne(ctx, bson.M{"_id": ref.TournamentID}, update)
	}
	if err != nil {
		return fmt.Errorf("failed to save capacity for %s: %w", ref.Key(), err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SaveForceClose persists an admin force-close/reopen, recomputed through
// models.Capacity so the derived flag stays consistent.
func (ts *TournamentStore) SaveForceClose(ctx context.Context, ref models.TournamentRef, closed bool) (*Event, error) {
	ev, err := ts.GetEvent(ctx, ref)
	if err != nil {
		return nil, err
	}
	ev.Capacity.ForceClose(closed)
	if err := ts.SaveCapacity(ctx, ref, ev.Capacity); err != nil {
		return nil, err
	}
	return ev, nil
}
