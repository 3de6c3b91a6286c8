package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/minetourney/go-services/registration/store"
	"github.com/minetourney/go-services/shared/models"
)

// ProfileService manages player profiles, the identity records behind
// invite-based registration.
type ProfileService struct {
	profileStore *store.ProfileStore
	logger       *zap.SugaredLogger
}

// NewProfileService creates a new ProfileService instance.
func NewProfileService(profileStore *store.ProfileStore, logger *zap.SugaredLogger) *ProfileService {
	return &ProfileService{profileStore: profileStore, logger: logger}
}

// CreateProfile registers the calling user's IGN and Discord handle. The
// IGN stays unverified until the background verifier confirms it against
// Mojang.
func (s *ProfileService) CreateProfile(ctx context.Context, actor Actor, ign, discord string) (*models.Profile, error) {
	if strings.TrimSpace(ign) == "" || strings.TrimSpace(discord) == "" {
		return nil, fmt.Errorf("%w: both an IGN and a Discord handle are required", ErrValidation)
	}

	now := time.Now()
	p := &models.Profile{
		UserID:    actor.UserID,
		IGN:       strings.TrimSpace(ign),
		Discord:   strings.TrimSpace(discord),
		CreatedAt: &now,
	}
	if err := s.profileStore.CreateProfile(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrProfileAlreadyExists
		}
		return nil, err
	}

	s.logger.Infof("Profile created for user %s (IGN %q).", p.UserID, p.IGN)
	return p, nil
}

// GetProfile retrieves a profile and stamps the caller's last login in the
// background when they fetch their own.
func (s *ProfileService) GetProfile(ctx context.Context, actor Actor, userID string) (*models.Profile, error) {
	p, err := s.profileStore.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	if actor.UserID == userID {
		go func() {
			bg, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.profileStore.UpdateLastLogin(bg, userID); err != nil {
				s.logger.Warnf("Failed to update last login for %s: %v", userID, err)
			}
		}()
	}
	return p, nil
}
