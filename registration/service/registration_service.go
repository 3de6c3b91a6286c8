package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/minetourney/go-services/registration/store"
	"github.com/minetourney/go-services/shared/models"
	mongodbu "github.com/minetourney/go-services/shared/mongodb"
	"github.com/minetourney/go-services/shared/notify"
)

// Actor identifies who is invoking an operation and at what privilege.
type Actor struct {
	UserID     string
	Admin      bool
	SuperAdmin bool
}

// RegisterTeamInput is everything needed to create (or re-register) a team.
type RegisterTeamInput struct {
	Ref       models.TournamentRef
	TeamName  string
	CaptainID string // empty for admin-added teams
	Players   []models.Player
	RewardIGN string
}

// LeaveResult reports how a roster shrink ended.
type LeaveResult struct {
	Team      *models.Team `json:"team,omitempty"` // nil when the team auto-disbanded
	Disbanded bool         `json:"disbanded"`
}

// BulkResult is the per-item outcome report of a bulk admin operation. The
// batch itself never fails wholesale.
type BulkResult struct {
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// RegistrationService is the team lifecycle controller: the only component
// allowed to mutate the capacity counters and the team registry together.
// Every slot-affecting operation is one transaction with its preconditions
// re-validated inside.
type RegistrationService struct {
	mongoClient     *mongodbu.Client
	tournamentStore *store.TournamentStore
	teamStore       *store.TeamStore
	rosterIndex     *RosterIndex
	notifier        *notify.Notifier
	logger          *zap.SugaredLogger
}

// NewRegistrationService creates a new RegistrationService instance.
func NewRegistrationService(
	mongoClient *mongodbu.Client,
	tournamentStore *store.TournamentStore,
	teamStore *store.TeamStore,
	rosterIndex *RosterIndex,
	notifier *notify.Notifier,
	logger *zap.SugaredLogger,
) *RegistrationService {
	return &RegistrationService{
		mongoClient:     mongoClient,
		tournamentStore: tournamentStore,
		teamStore:       teamStore,
		rosterIndex:     rosterIndex,
		notifier:        notifier,
		logger:          logger,
	}
}

// validateRegisterInput checks everything about the input that needs no
// store access.
func validateRegisterInput(in RegisterTeamInput) error {
	if !in.Ref.Valid() {
		return fmt.Errorf("%w: exactly one of tournament id or date must be set", ErrValidation)
	}
	if strings.TrimSpace(in.TeamName) == "" {
		return fmt.Errorf("%w: team name is required", ErrValidation)
	}
	if len(in.Players) == 0 {
		return fmt.Errorf("%w: roster must not be empty", ErrValidation)
	}
	for _, p := range in.Players {
		if strings.TrimSpace(p.IGN) == "" || strings.TrimSpace(p.Discord) == "" {
			return fmt.Errorf("%w: every player needs an IGN and a Discord handle", ErrValidation)
		}
	}
	if dup := duplicateWithin(in.Players); dup != "" {
		return fmt.Errorf("%w: player %q appears twice in the submitted roster", ErrValidation, dup)
	}

	rewardOK := false
	for _, p := range in.Players {
		if strings.EqualFold(strings.TrimSpace(p.IGN), strings.TrimSpace(in.RewardIGN)) {
			rewardOK = true
			break
		}
	}
	if !rewardOK {
		return fmt.Errorf("%w: reward receiver %q is not on the roster", ErrValidation, in.RewardIGN)
	}
	return nil
}

// checkRegister runs every read-dependent precondition. It returns the
// event and, for the same-captain re-registration path, the existing team.
// Called once outside the transaction for cheap rejection and again inside
// it to close races.
func (rs *RegistrationService) checkRegister(ctx context.Context, actor Actor, in RegisterTeamInput) (*store.Event, *models.Team, error) {
	ev, err := rs.tournamentStore.GetEvent(ctx, in.Ref)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, ErrTournamentNotFound
		}
		return nil, nil, err
	}
	if len(in.Players) != ev.TeamSize {
		return nil, nil, fmt.Errorf("%w: roster has %d players, tournament requires %d", ErrValidation, len(in.Players), ev.TeamSize)
	}
	if !actor.Admin && ev.Status != models.TournamentRegistrationOpen {
		return nil, nil, fmt.Errorf("%w: tournament is not open for registration", ErrForbidden)
	}

	// Same name + same captain is a re-registration, not a conflict.
	var existing *models.Team
	found, err := rs.teamStore.GetTeamByName(ctx, in.Ref, in.TeamName)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil, err
	}
	if found != nil {
		if in.CaptainID == "" || found.CaptainID != in.CaptainID || (actor.UserID != found.CaptainID && !actor.Admin) {
			return nil, nil, fmt.Errorf("%w: %q", ErrTeamNameTaken, in.TeamName)
		}
		existing = found
	}

	excludeID := ""
	if existing != nil {
		excludeID = existing.ID
	}
	conflicts, err := rs.rosterIndex.ConflictingKeys(ctx, in.Ref, excludeID, in.Players)
	if err != nil {
		return nil, nil, err
	}
	if len(conflicts) > 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrDuplicatePlayer, strings.Join(conflicts, ", "))
	}

	// Identity check, independent of the IGN/Discord keys; applies only to
	// signed-in users.
	seen := map[string]bool{}
	ids := make([]string, 0, len(in.Players)+1)
	if in.CaptainID != "" {
		ids = append(ids, in.CaptainID)
	}
	for _, p := range in.Players {
		if p.UserID != "" && !seen[p.UserID] {
			ids = append(ids, p.UserID)
			seen[p.UserID] = true
		}
	}
	for _, id := range ids {
		team, err := rs.rosterIndex.FindUserTeam(ctx, in.Ref, id)
		if err != nil {
			return nil, nil, err
		}
		if team != nil && (existing == nil || team.ID != existing.ID) {
			return nil, nil, fmt.Errorf("%w: user %s is on team %q", ErrAlreadyRegistered, id, team.TeamName)
		}
	}

	return ev, existing, nil
}

// RegisterTeam creates a team and reserves its slot in one transaction, or
// updates roster and reward in place when the same captain re-registers
// under the same name.
func (rs *RegistrationService) RegisterTeam(ctx context.Context, actor Actor, in RegisterTeamInput) (*models.Team, error) {
	if err := validateRegisterInput(in); err != nil {
		return nil, err
	}
	// Cheap pre-check before paying for a transaction.
	if _, _, err := rs.checkRegister(ctx, actor, in); err != nil {
		return nil, err
	}

	result, err := rs.mongoClient.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		ev, existing, err := rs.checkRegister(sc, actor, in)
		if err != nil {
			return nil, err
		}

		now := time.Now()
		if existing != nil {
			existing.Players = in.Players
			existing.RewardIGN = in.RewardIGN
			existing.UpdatedAt = now
			if err := rs.teamStore.ReplaceTeam(sc, existing); err != nil {
				return nil, err
			}
			return existing, nil
		}

		if err := ev.Capacity.Reserve(); err != nil {
			return nil, err
		}
		if err := rs.tournamentStore.SaveCapacity(sc, in.Ref, ev.Capacity); err != nil {
			return nil, err
		}

		team := &models.Team{
			ID:            uuid.New().String(),
			TeamName:      in.TeamName,
			TournamentRef: in.Ref,
			CaptainID:     in.CaptainID,
			Players:       in.Players,
			RewardIGN:     in.RewardIGN,
			Status:        models.TeamPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := rs.teamStore.InsertTeam(sc, team); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, fmt.Errorf("%w: %q", ErrTeamNameTaken, in.TeamName)
			}
			return nil, err
		}
		return team, nil
	})
	if err != nil {
		return nil, classifyInfraError(err)
	}

	team := result.(*models.Team)
	rs.logger.Infof("Team %q (%s) registered for %s.", team.TeamName, team.ID, team.TournamentRef.Key())
	rs.notifier.TeamCreated(team)
	return team, nil
}

// CreateTeamTx is the invite-completion create path: same validations and
// ledger reservation as RegisterTeam, but running inside the caller's
// already-open transaction.
func (rs *RegistrationService) CreateTeamTx(sc mongo.SessionContext, actor Actor, in RegisterTeamInput) (*models.Team, error) {
	if err := validateRegisterInput(in); err != nil {
		return nil, err
	}
	ev, existing, err := rs.checkRegister(sc, actor, in)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %q", ErrTeamNameTaken, in.TeamName)
	}

	if err := ev.Capacity.Reserve(); err != nil {
		return nil, err
	}
	if err := rs.tournamentStore.SaveCapacity(sc, in.Ref, ev.Capacity); err != nil {
		return nil, err
	}

	now := time.Now()
	team := &models.Team{
		ID:            uuid.New().String(),
		TeamName:      in.TeamName,
		TournamentRef: in.Ref,
		CaptainID:     in.CaptainID,
		Players:       in.Players,
		RewardIGN:     in.RewardIGN,
		Status:        models.TeamPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := rs.teamStore.InsertTeam(sc, team); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %q", ErrTeamNameTaken, in.TeamName)
		}
		return nil, err
	}
	return team, nil
}

// checkMove validates the destination for a team relocation.
func (rs *RegistrationService) checkMove(ctx context.Context, team *models.Team, dest models.TournamentRef) (*store.Event, *store.Event, error) {
	destEv, err := rs.tournamentStore.GetEvent(ctx, dest)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, ErrTournamentNotFound
		}
		return nil, nil, err
	}
	if !destEv.Capacity.HasFreeSlot() {
		return nil, nil, fmt.Errorf("%w: destination %s", ErrCapacityExceeded, dest.Key())
	}
	if len(team.Players) > destEv.TeamSize {
		return nil, nil, fmt.Errorf("%w: team of %d does not fit team size %d", ErrValidation, len(team.Players), destEv.TeamSize)
	}

	if _, err := rs.teamStore.GetTeamByName(ctx, dest, team.TeamName); err == nil {
		return nil, nil, fmt.Errorf("%w: %q", ErrTeamNameTaken, team.TeamName)
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil, err
	}

	conflicts, err := rs.rosterIndex.ConflictingKeys(ctx, dest, team.ID, team.Players)
	if err != nil {
		return nil, nil, err
	}
	if len(conflicts) > 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrDuplicatePlayer, strings.Join(conflicts, ", "))
	}

	srcEv, err := rs.tournamentStore.GetEvent(ctx, team.TournamentRef)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, ErrTournamentNotFound
		}
		return nil, nil, err
	}
	return srcEv, destEv, nil
}

// MoveTeam relocates a team between tournaments (or date buckets): source
// release, destination reserve, and the ref rewrite commit as one unit. A
// team is never billed against neither or both tournaments.
func (rs *RegistrationService) MoveTeam(ctx context.Context, actor Actor, teamID string, dest models.TournamentRef) (*models.Team, error) {
	if !actor.Admin {
		return nil, fmt.Errorf("%w: moving teams requires admin", ErrForbidden)
	}
	if !dest.Valid() {
		return nil, fmt.Errorf("%w: exactly one of tournament id or date must be set", ErrValidation)
	}

	var from models.TournamentRef
	result, err := rs.mongoClient.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		team, err := rs.teamStore.GetTeam(sc, teamID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, ErrTeamNotFound
			}
			return nil, err
		}
		if team.TournamentRef == dest {
			return nil, fmt.Errorf("%w: team is already registered there", ErrValidation)
		}

		srcEv, destEv, err := rs.checkMove(sc, team, dest)
		if err != nil {
			return nil, err
		}

		srcEv.Capacity.Release()
		if err := destEv.Capacity.Reserve(); err != nil {
			return nil, err
		}
		if err := rs.tournamentStore.SaveCapacity(sc, team.TournamentRef, srcEv.Capacity); err != nil {
			return nil, err
		}
		if err := rs.tournamentStore.SaveCapacity(sc, dest, destEv.Capacity); err != nil {
			return nil, err
		}

		from = team.TournamentRef
		team.TournamentRef = dest
		team.UpdatedAt = time.Now()
		if err := rs.teamStore.ReplaceTeam(sc, team); err != nil {
			return nil, err
		}
		return team, nil
	})
	if err != nil {
		return nil, classifyInfraError(err)
	}

	team := result.(*models.Team)
	rs.logger.Infof("Team %q (%s) moved from %s to %s.", team.TeamName, team.ID, from.Key(), dest.Key())
	rs.notifier.TeamMoved(team, from)
	return team, nil
}

// disbandTx deletes the team and releases its slot inside the caller's
// transaction.
func (rs *RegistrationService) disbandTx(sc mongo.SessionContext, team *models.Team) error {
	ev, err := rs.tournamentStore.GetEvent(sc, team.TournamentRef)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrTournamentNotFound
		}
		return err
	}
	ev.Capacity.Release()
	if err := rs.tournamentStore.SaveCapacity(sc, team.TournamentRef, ev.Capacity); err != nil {
		return err
	}
	return rs.teamStore.DeleteTeam(sc, team.ID)
}

// DisbandTeam deletes a team and releases its slot in one transaction.
// Captains may disband their own team; admins may disband any.
func (rs *RegistrationService) DisbandTeam(ctx context.Context, actor Actor, teamID string) error {
	var disbanded *models.Team
	_, err := rs.mongoClient.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		team, err := rs.teamStore.GetTeam(sc, teamID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, ErrTeamNotFound
			}
			return nil, err
		}
		if !actor.Admin && team.CaptainID != actor.UserID {
			return nil, fmt.Errorf("%w: only the captain or an admin may disband a team", ErrForbidden)
		}
		if err := rs.disbandTx(sc, team); err != nil {
			return nil, err
		}
		disbanded = team
		return nil, nil
	})
	if err != nil {
		return classifyInfraError(err)
	}

	rs.logger.Infof("Team %q (%s) disbanded from %s.", disbanded.TeamName, disbanded.ID, disbanded.TournamentRef.Key())
	rs.notifier.TeamDisbanded(disbanded.ID, disbanded.TeamName, disbanded.TournamentRef)
	return nil
}

// shrinkDisbands decides whether removing a player leaves a roster no
// post-creation team may hold: empty always disbands, and a duo dropping to
// one player does too. Larger teams may run short-handed until the
// reconciler's deadline.
func shrinkDisbands(teamSize, newSize int) bool {
	if newSize == 0 {
		return true
	}
	return teamSize == 2 && newSize < 2
}

// removeFromRoster performs the shared leave/remove transaction body.
func (rs *RegistrationService) removeFromRoster(sc mongo.SessionContext, team *models.Team, idx int, teamSize int) (*LeaveResult, error) {
	removed := team.Players[idx]
	remaining := make([]models.Player, 0, len(team.Players)-1)
	remaining = append(remaining, team.Players[:idx]...)
	remaining = append(remaining, team.Players[idx+1:]...)

	if shrinkDisbands(teamSize, len(remaining)) {
		if err := rs.disbandTx(sc, team); err != nil {
			return nil, err
		}
		return &LeaveResult{Disbanded: true}, nil
	}

	team.Players = remaining
	if strings.EqualFold(strings.TrimSpace(removed.IGN), strings.TrimSpace(team.RewardIGN)) {
		team.RewardIGN = remaining[0].IGN
	}
	team.UpdatedAt = time.Now()
	if err := rs.teamStore.ReplaceTeam(sc, team); err != nil {
		return nil, err
	}
	return &LeaveResult{Team: team}, nil
}

// loadTeamAndEvent fetches a team and its event inside a transaction.
func (rs *RegistrationService) loadTeamAndEvent(sc mongo.SessionContext, teamID string) (*models.Team, *store.Event, error) {
	team, err := rs.teamStore.GetTeam(sc, teamID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, ErrTeamNotFound
		}
		return nil, nil, err
	}
	ev, err := rs.tournamentStore.GetEvent(sc, team.TournamentRef)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, ErrTournamentNotFound
		}
		return nil, nil, err
	}
	return team, ev, nil
}

// LeaveTeam removes the calling user from their team. Captains must
// transfer captaincy first; a solo captain leaving withdraws the team.
func (rs *RegistrationService) LeaveTeam(ctx context.Context, actor Actor, teamID string) (*LeaveResult, error) {
	var left *models.Team
	result, err := rs.mongoClient.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		team, ev, err := rs.loadTeamAndEvent(sc, teamID)
		if err != nil {
			return nil, err
		}
		if ev.Status != models.TournamentRegistrationOpen {
			return nil, fmt.Errorf("%w: tournament is no longer open for roster changes", ErrForbidden)
		}

		idx := -1
		for i, p := range team.Players {
			if p.UserID == actor.UserID {
				idx = i
				break
			}
		}
		if idx < 0 && team.CaptainID != actor.UserID {
			return nil, fmt.Errorf("%w: you are not on this team", ErrForbidden)
		}

		if team.CaptainID == actor.UserID {
			// Solo leave is a withdrawal; otherwise the captain must hand
			// over captaincy before leaving.
			if ev.TeamSize == 1 {
				if err := rs.disbandTx(sc, team); err != nil {
					return nil, err
				}
				left = team
				return &LeaveResult{Disbanded: true}, nil
			}
			return nil, fmt.Errorf("%w: captains must transfer captaincy before leaving", ErrForbidden)
		}

		left = team
		return rs.removeFromRoster(sc, team, idx, ev.TeamSize)
	})
	if err != nil {
		return nil, classifyInfraError(err)
	}

	res := result.(*LeaveResult)
	if res.Disbanded {
		rs.logger.Infof("Team %q (%s) auto-disbanded after leave.", left.TeamName, left.ID)
		rs.notifier.TeamDisbanded(left.ID, left.TeamName, left.TournamentRef)
	} else {
		rs.notifier.RosterChanged(res.Team)
	}
	return res, nil
}

// RemovePlayer removes the player with the given IGN from a team. The
// captain or an admin may do this; the roster shrink rules match LeaveTeam.
func (rs *RegistrationService) RemovePlayer(ctx context.Context, actor Actor, teamID, ign string) (*LeaveResult, error) {
	var target *models.Team
	result, err := rs.mongoClient.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		team, ev, err := rs.loadTeamAndEvent(sc, teamID)
		if err != nil {
			return nil, err
		}
		if !actor.Admin {
			if team.CaptainID != actor.UserID {
				return nil, fmt.Errorf("%w: only the captain or an admin may remove players", ErrForbidden)
			}
			if ev.Status != models.TournamentRegistrationOpen {
				return nil, fmt.Errorf("%w: tournament is no longer open for roster changes", ErrForbidden)
			}
		}

		idx := team.PlayerByIGN(ign)
		if idx < 0 {
			return nil, fmt.Errorf("%w: no player %q on this team", ErrNotFound, ign)
		}
		if team.Players[idx].UserID != "" && team.Players[idx].UserID == team.CaptainID {
			return nil, fmt.Errorf("%w: the captain cannot be removed; transfer captaincy or disband", ErrValidation)
		}

		target = team
		return rs.removeFromRoster(sc, team, idx, ev.TeamSize)
	})
	if err != nil {
		return nil, classifyInfraError(err)
	}

	res := result.(*LeaveResult)
	if res.Disbanded {
		rs.logger.Infof("Team %q (%s) auto-disbanded after player removal.", target.TeamName, target.ID)
		rs.notifier.TeamDisbanded(target.ID, target.TeamName, target.TournamentRef)
	} else {
		rs.notifier.RosterChanged(res.Team)
	}
	return res, nil
}

// validateCaptainTransfer checks the handover rules against the team as
// read; the conditional store write re-asserts them, so a racing roster
// change loses instead of being overwritten.
func validateCaptainTransfer(team *models.Team, actorID, newCaptainID string) error {
	if team.CaptainID != actorID {
		return fmt.Errorf("%w: only the current captain may transfer captaincy", ErrForbidden)
	}
	if newCaptainID == "" || newCaptainID == actorID {
		return fmt.Errorf("%w: a different rostered player must be named as new captain", ErrValidation)
	}
	for _, p := range team.Players {
		if p.UserID == newCaptainID {
			return nil
		}
	}
	return fmt.Errorf("%w: user %s is not a rostered player on this team", ErrValidation, newCaptainID)
}

// TransferCaptaincy hands the captain role to a rostered teammate. Only the
// current captain may invoke it; rosters and counters are untouched. The
// write sets captain_id alone, conditional on the preconditions still
// holding, so a concurrent roster mutation is never clobbered.
func (rs *RegistrationService) TransferCaptaincy(ctx context.Context, actor Actor, teamID, newCaptainUserID string) (*models.Team, error) {
	team, err := rs.teamStore.GetTeam(ctx, teamID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	if err := validateCaptainTransfer(team, actor.UserID, newCaptainUserID); err != nil {
		return nil, err
	}

	if err := rs.teamStore.SetCaptain(ctx, teamID, actor.UserID, newCaptainUserID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: team changed while transferring captaincy, retry", ErrConflict)
		}
		return nil, classifyInfraError(err)
	}
	team.CaptainID = newCaptainUserID
	team.UpdatedAt = time.Now()

	rs.logger.Infof("Team %q (%s): captaincy transferred to %s.", team.TeamName, team.ID, newCaptainUserID)
	rs.notifier.RosterChanged(team)
	return team, nil
}

// SetStatus applies an approve/reject/pending transition. Transitions not in
// the table are rejected; reverting to pending needs superadmin.
func (rs *RegistrationService) SetStatus(ctx context.Context, actor Actor, teamID string, next models.TeamStatus) (*models.Team, error) {
	if !models.ValidTeamStatus(next) {
		return nil, fmt.Errorf("%w: unknown team status %q", ErrValidation, next)
	}
	if !actor.Admin {
		return nil, fmt.Errorf("%w: changing team status requires admin", ErrForbidden)
	}
	if next == models.TeamPending && !actor.SuperAdmin {
		return nil, fmt.Errorf("%w: reverting to pending requires superadmin", ErrForbidden)
	}

	team, err := rs.teamStore.GetTeam(ctx, teamID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	if !team.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: no transition from %s to %s", ErrForbidden, team.Status, next)
	}

	// Set status alone, conditional on the status the transition was
	// validated against; a full-document write here would resurrect any
	// roster change committed since the read.
	if err := rs.teamStore.SetStatus(ctx, teamID, team.Status, next); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: team status changed concurrently, retry", ErrConflict)
		}
		return nil, classifyInfraError(err)
	}
	team.Status = next
	team.UpdatedAt = time.Now()

	rs.logger.Infof("Team %q (%s) status set to %s.", team.TeamName, team.ID, next)
	rs.notifier.RosterChanged(team)
	return team, nil
}

// bulk fans an operation out as independent, unordered per-team
// transactions and collects per-item outcomes.
func bulk(ids []string, op func(id string) error) BulkResult {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result = BulkResult{Errors: map[string]string{}}
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			err := op(id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				result.Errors[id] = err.Error()
			} else {
				result.Succeeded++
			}
		}(id)
	}
	wg.Wait()
	if len(result.Errors) == 0 {
		result.Errors = nil
	}
	return result
}

// BulkSetStatus applies a status transition to many teams, one transaction
// each. Explicitly not atomic across the batch.
func (rs *RegistrationService) BulkSetStatus(ctx context.Context, actor Actor, teamIDs []string, next models.TeamStatus) BulkResult {
	return bulk(teamIDs, func(id string) error {
		_, err := rs.SetStatus(ctx, actor, id, next)
		return err
	})
}

// BulkDisband disbands many teams, one transaction each.
func (rs *RegistrationService) BulkDisband(ctx context.Context, actor Actor, teamIDs []string) BulkResult {
	return bulk(teamIDs, func(id string) error {
		return rs.DisbandTeam(ctx, actor, id)
	})
}
