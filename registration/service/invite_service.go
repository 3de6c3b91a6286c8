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
	mongodbu "github.com/minetourney/go-services/shared/mongodb"
)

// SendInvitesInput is a captain's request to recruit a full team under a
// given name.
type SendInvitesInput struct {
	TournamentID string
	TeamName     string
	ToUserIDs    []string
}

// RespondResult reports what an invite response led to.
type RespondResult struct {
	Status        string       `json:"status"` // rejected | waiting | team_created | joined_team
	Team          *models.Team `json:"team,omitempty"`
	AcceptedCount int          `json:"acceptedCount,omitempty"`
	NeededCount   int          `json:"neededCount,omitempty"`
}

// InviteService coordinates invite-based team formation: a captain sends
// teamSize-1 invites, invitees accept or reject, and the final acceptance
// creates the team through the same path direct registration uses.
type InviteService struct {
	mongoClient     *mongodbu.Client
	inviteStore     *store.InviteStore
	profileStore    *store.ProfileStore
	teamStore       *store.TeamStore
	tournamentStore *store.TournamentStore
	rosterIndex     *RosterIndex
	regService      *RegistrationService
	logger          *zap.SugaredLogger
}

// NewInviteService creates a new InviteService instance.
func NewInviteService(
	mongoClient *mongodbu.Client,
	inviteStore *store.InviteStore,
	profileStore *store.ProfileStore,
	teamStore *store.TeamStore,
	tournamentStore *store.TournamentStore,
	rosterIndex *RosterIndex,
	regService *RegistrationService,
	logger *zap.SugaredLogger,
) *InviteService {
	return &InviteService{
		mongoClient:     mongoClient,
		inviteStore:     inviteStore,
		profileStore:    profileStore,
		teamStore:       teamStore,
		tournamentStore: tournamentStore,
		rosterIndex:     rosterIndex,
		regService:      regService,
		logger:          logger,
	}
}

// SendInvites creates a fresh batch of pending invites for the captain's
// recruiting group, superseding any still-pending batch for the same team
// name. Accepted and rejected invites are never superseded.
func (s *InviteService) SendInvites(ctx context.Context, actor Actor, in SendInvitesInput) ([]models.Invite, error) {
	if strings.TrimSpace(in.TeamName) == "" {
		return nil, fmt.Errorf("%w: team name is required", ErrValidation)
	}
	tournament, err := s.tournamentStore.GetTournament(ctx, in.TournamentID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if tournament.Status != models.TournamentRegistrationOpen {
		return nil, fmt.Errorf("%w: tournament is not open for registration", ErrForbidden)
	}
	if err := validateInviteTargets(actor.UserID, in.ToUserIDs, tournament.TeamSize); err != nil {
		return nil, err
	}

	ref := models.TournamentRef{TournamentID: in.TournamentID}
	if _, err := s.teamStore.GetTeamByName(ctx, ref, in.TeamName); err == nil {
		return nil, fmt.Errorf("%w: %q", ErrTeamNameTaken, in.TeamName)
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	if team, err := s.rosterIndex.FindUserTeam(ctx, ref, actor.UserID); err != nil {
		return nil, err
	} else if team != nil {
		return nil, fmt.Errorf("%w: you are already on team %q", ErrAlreadyRegistered, team.TeamName)
	}

	// The captain's own IGN/Discord are needed once the team forms; fail
	// here rather than on the last acceptance.
	if _, err := s.profileStore.GetProfile(ctx, actor.UserID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: create your player profile before recruiting", ErrProfileNotFound)
		}
		return nil, err
	}

	profiles, err := s.profileStore.GetProfiles(ctx, in.ToUserIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range in.ToUserIDs {
		if _, ok := profiles[id]; !ok {
			return nil, fmt.Errorf("%w: invitee %s", ErrProfileNotFound, id)
		}
		if team, err := s.rosterIndex.FindUserTeam(ctx, ref, id); err != nil {
			return nil, err
		} else if team != nil {
			return nil, fmt.Errorf("%w: invitee %s is on team %q", ErrAlreadyRegistered, id, team.TeamName)
		}
	}
	if err := s.checkNotRejected(ctx, actor.UserID, in.TournamentID, in.TeamName, in.ToUserIDs); err != nil {
		return nil, err
	}

	invites := newInviteBatch(actor.UserID, in.TournamentID, in.TeamName, in.ToUserIDs, time.Now())

	_, err = s.mongoClient.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		// A rejection may have landed between the pre-check and this
		// transaction; the block is permanent, so re-check here.
		if err := s.checkNotRejected(sc, actor.UserID, in.TournamentID, in.TeamName, in.ToUserIDs); err != nil {
			return nil, err
		}
		if err := s.inviteStore.DeletePendingByTriple(sc, actor.UserID, in.TournamentID, in.TeamName); err != nil {
			return nil, err
		}
		return nil, s.inviteStore.InsertInvites(sc, invites)
	})
	if err != nil {
		return nil, classifyInfraError(err)
	}

	s.logger.Infof("Captain %s sent %d invites for team %q in tournament %s.",
		actor.UserID, len(invites), in.TeamName, in.TournamentID)
	return invites, nil
}

// ListPending returns the pending invites addressed to the calling user,
// newest first.
func (s *InviteService) ListPending(ctx context.Context, actor Actor) ([]models.Invite, error) {
	return s.inviteStore.FindPendingByUser(ctx, actor.UserID)
}

// RespondInvite records an invitee's accept or reject. A rejection is
// terminal for the recruiting group and invitee. The last needed acceptance
// creates the team in the same transaction; an acceptance arriving after
// the team formed with a replacement roster slot open joins that team
// directly.
func (s *InviteService) RespondInvite(ctx context.Context, actor Actor, inviteID string, accept bool) (*RespondResult, error) {
	var createdTeam *models.Team
	var joinedTeam *models.Team

	result, err := s.mongoClient.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		createdTeam, joinedTeam = nil, nil

		invite, err := s.inviteStore.GetInvite(sc, inviteID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, ErrInviteNotFound
			}
			return nil, err
		}
		if invite.ToUserID != actor.UserID {
			return nil, fmt.Errorf("%w: this invite is not addressed to you", ErrForbidden)
		}
		if invite.Status != models.InvitePending {
			return nil, ErrInviteAlreadyResponded
		}

		if !accept {
			if err := s.inviteStore.UpdateStatus(sc, invite.ID, models.InviteRejected); err != nil {
				return nil, err
			}
			return &RespondResult{Status: "rejected"}, nil
		}

		tournament, err := s.tournamentStore.GetTournament(sc, invite.TournamentID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, ErrTournamentNotFound
			}
			return nil, err
		}
		if tournament.Status != models.TournamentRegistrationOpen {
			return nil, fmt.Errorf("%w: tournament is no longer open for registration", ErrForbidden)
		}

		ref := models.TournamentRef{TournamentID: invite.TournamentID}
		if team, err := s.rosterIndex.FindUserTeam(sc, ref, actor.UserID); err != nil {
			return nil, err
		} else if team != nil {
			return nil, fmt.Errorf("%w: you are already on team %q", ErrAlreadyRegistered, team.TeamName)
		}

		// Replacement path: the team already formed but runs a roster slot
		// short (someone left after creation). The late acceptance fills it.
		existing, err := s.teamStore.GetTeamByName(sc, ref, invite.TeamName)
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}
		if existing != nil && existing.CaptainID == invite.CaptainID {
			if len(existing.Players) >= tournament.TeamSize {
				return nil, fmt.Errorf("%w: team %q is already full", ErrConflict, invite.TeamName)
			}
			team, err := s.joinExistingTeam(sc, invite, existing)
			if err != nil {
				return nil, err
			}
			joinedTeam = team
			return &RespondResult{Status: "joined_team", Team: team}, nil
		}

		if err := s.inviteStore.UpdateStatus(sc, invite.ID, models.InviteAccepted); err != nil {
			return nil, err
		}
		// Writing only this invite would let two concurrent "last" accepts
		// commit disjoint updates, each counting a stale snapshot and
		// neither forming the team. Touching the whole group forces the
		// transactions to conflict; the loser retries and sees the winner's
		// accept.
		if err := s.inviteStore.BumpGroupRevision(sc, invite.CaptainID, invite.TournamentID, invite.TeamName); err != nil {
			return nil, err
		}

		accepted, err := s.inviteStore.FindByTripleAndStatus(sc, invite.CaptainID, invite.TournamentID, invite.TeamName, models.InviteAccepted)
		if err != nil {
			return nil, err
		}
		needed := tournament.TeamSize - 1
		if !rosterComplete(len(accepted), tournament.TeamSize) {
			return &RespondResult{Status: "waiting", AcceptedCount: len(accepted), NeededCount: needed}, nil
		}

		team, err := s.formTeam(sc, invite, tournament, accepted)
		if err != nil {
			return nil, err
		}
		createdTeam = team
		return &RespondResult{Status: "team_created", Team: team, AcceptedCount: len(accepted), NeededCount: needed}, nil
	})
	if err != nil {
		return nil, classifyInfraError(err)
	}

	res := result.(*RespondResult)
	if createdTeam != nil {
		s.logger.Infof("Team %q (%s) formed from invites in tournament %s.",
			createdTeam.TeamName, createdTeam.ID, createdTeam.TournamentRef.Key())
		s.regService.notifier.TeamCreated(createdTeam)
	}
	if joinedTeam != nil {
		s.regService.notifier.RosterChanged(joinedTeam)
	}
	return res, nil
}

// joinExistingTeam appends the invitee to an already-formed, short-handed
// team and consumes the invite.
func (s *InviteService) joinExistingTeam(sc mongo.SessionContext, invite *models.Invite, team *models.Team) (*models.Team, error) {
	profile, err := s.profileStore.GetProfile(sc, invite.ToUserID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: invitee %s", ErrProfileNotFound, invite.ToUserID)
		}
		return nil, err
	}
	player := playerFromProfile(profile)

	conflicts, err := s.rosterIndex.ConflictingKeys(sc, team.TournamentRef, team.ID, []models.Player{player})
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicatePlayer, strings.Join(conflicts, ", "))
	}

	team.Players = append(team.Players, player)
	team.UpdatedAt = time.Now()
	if err := s.teamStore.ReplaceTeam(sc, team); err != nil {
		return nil, err
	}
	if err := s.inviteStore.DeleteInvite(sc, invite.ID); err != nil {
		return nil, err
	}
	return team, nil
}

// formTeam builds the roster (captain first, then invitees in invite order)
// and creates the team through the registration path, then clears the
// recruiting group's invites.
func (s *InviteService) formTeam(sc mongo.SessionContext, invite *models.Invite, tournament *models.Tournament, accepted []models.Invite) (*models.Team, error) {
	ids := make([]string, 0, len(accepted)+1)
	ids = append(ids, invite.CaptainID)
	for _, inv := range accepted {
		ids = append(ids, inv.ToUserID)
	}
	profiles, err := s.profileStore.GetProfiles(sc, ids)
	if err != nil {
		return nil, err
	}

	players := make([]models.Player, 0, len(ids))
	for _, id := range ids {
		p, ok := profiles[id]
		if !ok {
			return nil, fmt.Errorf("%w: user %s", ErrProfileNotFound, id)
		}
		players = append(players, playerFromProfile(&p))
	}

	in := RegisterTeamInput{
		Ref:       models.TournamentRef{TournamentID: invite.TournamentID},
		TeamName:  invite.TeamName,
		CaptainID: invite.CaptainID,
		Players:   players,
		RewardIGN: players[0].IGN,
	}
	// The captain's privileges, not the invitee's, govern the create.
	team, err := s.regService.CreateTeamTx(sc, Actor{UserID: invite.CaptainID}, in)
	if err != nil {
		return nil, err
	}
	if err := s.inviteStore.DeleteByTriple(sc, invite.CaptainID, invite.TournamentID, invite.TeamName); err != nil {
		return nil, err
	}
	return team, nil
}

// validateInviteTargets checks the submitted invitee list against the
// tournament's roster shape: exactly teamSize-1 distinct targets, none of
// them the captain.
func validateInviteTargets(captainID string, toUserIDs []string, teamSize int) error {
	if teamSize < 2 {
		return fmt.Errorf("%w: solo tournaments take direct registrations, not invites", ErrValidation)
	}
	if len(toUserIDs) != teamSize-1 {
		return fmt.Errorf("%w: a team of %d needs exactly %d invites, got %d",
			ErrValidation, teamSize, teamSize-1, len(toUserIDs))
	}
	seen := map[string]bool{}
	for _, id := range toUserIDs {
		if id == "" {
			return fmt.Errorf("%w: empty invitee id", ErrValidation)
		}
		if id == captainID {
			return fmt.Errorf("%w: you cannot invite yourself", ErrValidation)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate invitee %s", ErrValidation, id)
		}
		seen[id] = true
	}
	return nil
}

// newInviteBatch builds the pending invites for a recruiting group. The
// creation times are staggered so created_at order reproduces the invite
// order when the roster is assembled.
func newInviteBatch(captainID, tournamentID, teamName string, toUserIDs []string, now time.Time) []models.Invite {
	invites := make([]models.Invite, len(toUserIDs))
	for i, id := range toUserIDs {
		invites[i] = models.Invite{
			ID:           uuid.New().String(),
			CaptainID:    captainID,
			TournamentID: tournamentID,
			TeamName:     teamName,
			ToUserID:     id,
			Status:       models.InvitePending,
			CreatedAt:    now.Add(time.Duration(i) * time.Millisecond),
		}
	}
	return invites
}

// rosterComplete reports whether the accepted count fills every non-captain
// slot of the roster.
func rosterComplete(acceptedCount, teamSize int) bool {
	return acceptedCount >= teamSize-1
}

// checkNotRejected enforces rejection permanence for every target of a
// recruiting group.
func (s *InviteService) checkNotRejected(ctx context.Context, captainID, tournamentID, teamName string, toUserIDs []string) error {
	for _, id := range toUserIDs {
		rejected, err := s.inviteStore.HasRejected(ctx, captainID, tournamentID, teamName, id)
		if err != nil {
			return err
		}
		if rejected {
			return fmt.Errorf("%w: invitee %s", ErrInviteRejectedBefore, id)
		}
	}
	return nil
}

func playerFromProfile(p *models.Profile) models.Player {
	return models.Player{
		IGN:           p.IGN,
		Discord:       p.Discord,
		UserID:        p.UserID,
		MinecraftUUID: p.MinecraftUUID,
	}
}
