package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/minetourney/go-services/registration/store"
	"github.com/minetourney/go-services/shared/models"
	"github.com/minetourney/go-services/shared/notify"
)

// CreateTournamentInput is the admin request to open a new tournament.
type CreateTournamentInput struct {
	Name     string
	TeamSize int
	MaxTeams int
	Status   models.TournamentStatus // optional, defaults to draft
}

// TournamentService manages tournaments and legacy date buckets: creation,
// status, capacity closure, and listings. Slot accounting itself lives in
// RegistrationService.
type TournamentService struct {
	tournamentStore *store.TournamentStore
	teamStore       *store.TeamStore
	notifier        *notify.Notifier
	logger          *zap.SugaredLogger
}

// NewTournamentService creates a new TournamentService instance.
func NewTournamentService(
	tournamentStore *store.TournamentStore,
	teamStore *store.TeamStore,
	notifier *notify.Notifier,
	logger *zap.SugaredLogger,
) *TournamentService {
	return &TournamentService{
		tournamentStore: tournamentStore,
		teamStore:       teamStore,
		notifier:        notifier,
		logger:          logger,
	}
}

// CreateTournament creates a tournament. Admin only.
func (ts *TournamentService) CreateTournament(ctx context.Context, actor Actor, in CreateTournamentInput) (*models.Tournament, error) {
	if !actor.Admin {
		return nil, fmt.Errorf("%w: creating tournaments requires admin", ErrForbidden)
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrValidation)
	}
	if !models.ValidTeamSize(in.TeamSize) {
		return nil, fmt.Errorf("%w: team size must be 1, 2 or 4, got %d", ErrValidation, in.TeamSize)
	}
	if in.MaxTeams <= 0 {
		return nil, fmt.Errorf("%w: max teams must be positive, got %d", ErrValidation, in.MaxTeams)
	}
	status := in.Status
	if status == "" {
		status = models.TournamentDraft
	}
	if !models.ValidTournamentStatus(status) {
		return nil, fmt.Errorf("%w: unknown tournament status %q", ErrValidation, status)
	}

	t := &models.Tournament{
		ID:        uuid.New().String(),
		Name:      in.Name,
		TeamSize:  in.TeamSize,
		Capacity:  models.Capacity{MaxTeams: in.MaxTeams},
		Status:    status,
		CreatedAt: time.Now(),
	}
	if err := ts.tournamentStore.InsertTournament(ctx, t); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: tournament already exists", ErrConflict)
		}
		return nil, err
	}

	ts.logger.Infof("Tournament %q (%s) created: team size %d, %d slots.", t.Name, t.ID, t.TeamSize, t.MaxTeams)
	return t, nil
}

// GetTournament retrieves a tournament by id.
func (ts *TournamentService) GetTournament(ctx context.Context, id string) (*models.Tournament, error) {
	t, err := ts.tournamentStore.GetTournament(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

// ListTournaments returns every tournament.
func (ts *TournamentService) ListTournaments(ctx context.Context) ([]models.Tournament, error) {
	return ts.tournamentStore.ListTournaments(ctx)
}

// SetTournamentStatus moves a tournament through its lifecycle. Admin only.
func (ts *TournamentService) SetTournamentStatus(ctx context.Context, actor Actor, id string, status models.TournamentStatus) (*models.Tournament, error) {
	if !actor.Admin {
		return nil, fmt.Errorf("%w: changing tournament status requires admin", ErrForbidden)
	}
	if !models.ValidTournamentStatus(status) {
		return nil, fmt.Errorf("%w: unknown tournament status %q", ErrValidation, status)
	}
	if err := ts.tournamentStore.UpdateTournamentStatus(ctx, id, status); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	ts.logger.Infof("Tournament %s status set to %s.", id, status)
	return ts.GetTournament(ctx, id)
}

// ForceClose closes or reopens registration regardless of the counter. A
// manual close sticks until a manual reopen; team withdrawals do not undo
// it.
func (ts *TournamentService) ForceClose(ctx context.Context, actor Actor, ref models.TournamentRef, closed bool) error {
	if !actor.Admin {
		return fmt.Errorf("%w: closing registration requires admin", ErrForbidden)
	}
	if !ref.Valid() {
		return fmt.Errorf("%w: exactly one of tournament id or date must be set", ErrValidation)
	}
	if _, err := ts.tournamentStore.SaveForceClose(ctx, ref, closed); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrTournamentNotFound
		}
		return err
	}
	ts.logger.Infof("Registration for %s force-%s.", ref.Key(), map[bool]string{true: "closed", false: "reopened"}[closed])
	ts.notifier.TeamsChanged(ref)
	return nil
}

// CreateDateBucket creates a legacy per-date registration bucket. Admin only.
func (ts *TournamentService) CreateDateBucket(ctx context.Context, actor Actor, date string, teamSize, maxTeams int) (*models.DateBucket, error) {
	if !actor.Admin {
		return nil, fmt.Errorf("%w: creating date buckets requires admin", ErrForbidden)
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", ErrValidation, date)
	}
	if !models.ValidTeamSize(teamSize) {
		return nil, fmt.Errorf("%w: team size must be 1, 2 or 4, got %d", ErrValidation, teamSize)
	}
	if maxTeams <= 0 {
		return nil, fmt.Errorf("%w: max teams must be positive, got %d", ErrValidation, maxTeams)
	}

	b := &models.DateBucket{
		Date:      date,
		TeamSize:  teamSize,
		Capacity:  models.Capacity{MaxTeams: maxTeams},
		CreatedAt: time.Now(),
	}
	if err := ts.tournamentStore.InsertDateBucket(ctx, b); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: a bucket for %s already exists", ErrConflict, date)
		}
		return nil, err
	}

	ts.logger.Infof("Date bucket %s created: team size %d, %d slots.", date, teamSize, maxTeams)
	return b, nil
}

// ListDateBuckets returns every legacy date bucket.
func (ts *TournamentService) ListDateBuckets(ctx context.Context) ([]models.DateBucket, error) {
	return ts.tournamentStore.ListDateBuckets(ctx)
}

// ListTeams returns the teams registered under a tournament or date bucket.
func (ts *TournamentService) ListTeams(ctx context.Context, ref models.TournamentRef) ([]models.Team, error) {
	if !ref.Valid() {
		return nil, fmt.Errorf("%w: exactly one of tournament id or date must be set", ErrValidation)
	}
	if _, err := ts.tournamentStore.GetEvent(ctx, ref); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return ts.teamStore.FindTeamsByRef(ctx, ref)
}

// GetTeam retrieves a single team by id.
func (ts *TournamentService) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	team, err := ts.teamStore.GetTeam(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return team, nil
}
