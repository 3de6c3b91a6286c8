package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/minetourney/go-services/registration/service"
	sharedapi "github.com/minetourney/go-services/shared/api"
	"github.com/minetourney/go-services/shared/models"
)

// Handler holds the HTTP handlers for the registration service.
type Handler struct {
	tournaments *service.TournamentService
	teams       *service.RegistrationService
	invites     *service.InviteService
	profiles    *service.ProfileService
	logger      *zap.SugaredLogger
}

// NewHandler creates a new Handler instance.
func NewHandler(
	tournaments *service.TournamentService,
	teams *service.RegistrationService,
	invites *service.InviteService,
	profiles *service.ProfileService,
	logger *zap.SugaredLogger,
) *Handler {
	return &Handler{
		tournaments: tournaments,
		teams:       teams,
		invites:     invites,
		profiles:    profiles,
		logger:      logger,
	}
}

// RegisterRoutes sets up the API routes. Everything sits behind the auth
// middleware; admin-only routes are additionally gated by role.
func (h *Handler) RegisterRoutes(router *mux.Router, jwtSecret string) {
	authed := router.NewRoute().Subrouter()
	authed.Use(sharedapi.AuthMiddleware(jwtSecret))

	admin := authed.NewRoute().Subrouter()
	admin.Use(sharedapi.RequireRole(sharedapi.RoleAdmin))

	// Tournaments and legacy date buckets.
	admin.HandleFunc("/tournaments", h.CreateTournament).Methods(http.MethodPost)
	authed.HandleFunc("/tournaments", h.ListTournaments).Methods(http.MethodGet)
	authed.HandleFunc("/tournaments/{id}", h.GetTournament).Methods(http.MethodGet)
	admin.HandleFunc("/tournaments/{id}/status", h.SetTournamentStatus).Methods(http.MethodPut)
	admin.HandleFunc("/tournaments/{id}/closed", h.ForceCloseTournament).Methods(http.MethodPut)
	authed.HandleFunc("/tournaments/{id}/teams", h.ListTournamentTeams).Methods(http.MethodGet)
	authed.HandleFunc("/tournaments/{id}/teams", h.RegisterTournamentTeam).Methods(http.MethodPost)

	admin.HandleFunc("/dates", h.CreateDateBucket).Methods(http.MethodPost)
	authed.HandleFunc("/dates", h.ListDateBuckets).Methods(http.MethodGet)
	admin.HandleFunc("/dates/{date}/closed", h.ForceCloseDate).Methods(http.MethodPut)
	authed.HandleFunc("/dates/{date}/teams", h.ListDateTeams).Methods(http.MethodGet)
	authed.HandleFunc("/dates/{date}/teams", h.RegisterDateTeam).Methods(http.MethodPost)

	// Invites.
	authed.HandleFunc("/invites", h.SendInvites).Methods(http.MethodPost)
	authed.HandleFunc("/invites/pending", h.ListPendingInvites).Methods(http.MethodGet)
	authed.HandleFunc("/invites/{id}/respond", h.RespondInvite).Methods(http.MethodPost)

	// Teams.
	authed.HandleFunc("/teams/{id}", h.GetTeam).Methods(http.MethodGet)
	admin.HandleFunc("/teams/{id}/move", h.MoveTeam).Methods(http.MethodPost)
	authed.HandleFunc("/teams/{id}/leave", h.LeaveTeam).Methods(http.MethodPost)
	authed.HandleFunc("/teams/{id}/players/{ign}", h.RemovePlayer).Methods(http.MethodDelete)
	authed.HandleFunc("/teams/{id}/transfer-captaincy", h.TransferCaptaincy).Methods(http.MethodPost)
	admin.HandleFunc("/teams/{id}/status", h.SetTeamStatus).Methods(http.MethodPut)
	authed.HandleFunc("/teams/{id}", h.DisbandTeam).Methods(http.MethodDelete)
	admin.HandleFunc("/teams/bulk/status", h.BulkSetStatus).Methods(http.MethodPost)
	admin.HandleFunc("/teams/bulk/disband", h.BulkDisband).Methods(http.MethodPost)

	// Profiles.
	authed.HandleFunc("/profiles", h.CreateProfile).Methods(http.MethodPost)
	authed.HandleFunc("/profiles/{userId}", h.GetProfile).Methods(http.MethodGet)
}

// actor translates the verified JWT claims into the service layer's view of
// the caller.
func actor(r *http.Request) service.Actor {
	cl := sharedapi.CallerClaims(r)
	if cl == nil {
		return service.Actor{}
	}
	return service.Actor{
		UserID:     cl.UserID,
		Admin:      cl.Role.AtLeast(sharedapi.RoleAdmin),
		SuperAdmin: cl.Role.AtLeast(sharedapi.RoleSuperAdmin),
	}
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		sharedapi.WriteBadRequest(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		sharedapi.WriteNotFound(w, err.Error())
	case errors.Is(err, service.ErrCapacityExceeded):
		sharedapi.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrConflict):
		sharedapi.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrForbidden):
		sharedapi.WriteForbidden(w, err.Error())
	case errors.Is(err, service.ErrTransactionAborted):
		sharedapi.WriteError(w, http.StatusServiceUnavailable, "operation aborted under contention, please retry")
	default:
		h.logger.Errorf("Internal error: %v", err)
		sharedapi.WriteInternalServerError(w, "internal server error")
	}
}

func decode(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// --- Tournaments ---

type createTournamentRequest struct {
	Name     string                  `json:"name"`
	TeamSize int                     `json:"teamSize"`
	MaxTeams int                     `json:"maxTeams"`
	Status   models.TournamentStatus `json:"status,omitempty"`
}

func (h *Handler) CreateTournament(w http.ResponseWriter, r *http.Request) {
	var req createTournamentRequest
	if err := decode(r, &req); err != nil {
		sharedapi.WriteBadRequest(w, "invalid request payload")
		return
	}
	t, err := h.tournaments.CreateTournament(r.Context(), actor(r), service.CreateTournamentInput{
		Name:     req.Name,
		TeamSize: req.TeamSize,
		MaxTeams: req.MaxTeams,
		Status:   req.Status,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handler) ListTournaments(w http.ResponseWriter, r *http.Request) {
	list, err := h.tournaments.ListTournaments(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) GetTournament(w http.ResponseWriter, r *http.Request) {
	t, err := h.tournaments.GetTournament(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, t)
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) SetTournamentStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if err := decode(r, &req); err != nil {
		sharedapi.WriteBadRequest(w, "invalid request payload")
		return
	}
	t, err := h.tournaments.SetTournamentStatus(r.Context(), actor(r), mux.Vars(r)["id"], models.TournamentStatus(req.Status))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, t)
}

type forceCloseRequest struct {
	Closed bool `json:"closed"`
}

func (h *Handler) forceClose(w http.ResponseWriter, r *http.Request, ref models.TournamentRef) {
	var req forceCloseRequest
	if err := decode(r, &req); err != nil {
		sharedapi.WriteBadRequest(w, "invalid request payload")
		return
	}
	if err := h.tournaments.ForceClose(r.Context(), actor(r), ref, req.Closed); err != nil {
		h.writeServiceError(w, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, map[string]bool{"closed": req.Closed})
}

func (h *Handler) ForceCloseTournament(w http.ResponseWriter, r *http.Request) {
	h.forceClose(w, r, models.TournamentRef{TournamentID: mux.Vars(r)["id"]})
}

func (h *Handler) ForceCloseDate(w http.ResponseWriter, r *http.Request) {
	h.forceClose(w, r, models.TournamentRef{Date: mux.Vars(r)["date"]})
}

// --- Date buckets ---

type createDateBucketRequest struct {
	Date     string `json:"date"`
	TeamSize int    `json:"teamSize"`
	MaxTeams int    `json:"maxTeams"`
}

func (h *Handler) CreateDateBucket(w http.ResponseWriter, r *http.Request) {
	var req createDateBucketRequest
	if err := decode(r, &req); err != nil {
		sharedapi.WriteBadRequest(w, "invalid request payload")
		return
	}
	b, err := h.tournaments.CreateDateBucket(r.Context(), actor(r), req.Date, req.TeamSize, req.MaxTeams)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusCreated, b)
}

func (h *Handler) ListDateBuckets(w http.ResponseWriter, r *http.Request) {
	list, err := h.tournaments.ListDateBuckets(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, list)
}

// --- Teams ---

type registerTeamRequest struct {
	TeamName  string          `json:"teamName"`
	Players   []models.Player `json:"players"`
	RewardIGN string          `json:"rewardReceiverIgn"`
	CaptainID string          `json:"captainId,omitempty"` // admins may register on behalf of someone
}

func (h *Handler) registerTeam(w http.ResponseWriter, r *http.Request, ref models.TournamentRef) {
	var req registerTeamRequest
	if err := decode(r, &req); err != nil {
		sharedapi.WriteBadRequest(w, "invalid request payload")
		return
	}
	a := actor(r)
	captainID := a.UserID
	if req.CaptainID != "" && a.Admin {
		captainID = req.CaptainID
	}
	team, err := h.teams.RegisterTeam(r.Context(), a, service.RegisterTeamInput{
		Ref:       ref,
		TeamName:  req.TeamName,
		CaptainID: captainID,
		Players:   req.Players,
		RewardIGN: req.RewardIGN,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusCreated, team)
}

func (h *Handler) RegisterTournamentTeam(w http.ResponseWriter, r *http.Request) {
	h.registerTeam(w, r, models.TournamentRef{TournamentID: mux.Vars(r)["id"]})
}

func (h *Handler) RegisterDateTeam(w http.ResponseWriter, r *http.Request) {
	h.registerTeam(w, r, models.TournamentRef{Date: mux.Vars(r)["date"]})
}

func (h *Handler) listTeams(w http.ResponseWriter, r *http.Request, ref models.TournamentRef) {
	teams, err := h.tournaments.ListTeams(r.Context(), ref)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, teams)
}

func (h *Handler) ListTournamentTeams(w http.ResponseWriter, r *http.Request) {
	h.listTeams(w, r, models.TournamentRef{TournamentID: mux.Vars(r)["id"]})
}

func (h *Handler) ListDateTeams(w http.ResponseWriter, r *http.Request) {
	h.listTeams(w, r, models.TournamentRef{Date: mux.Vars(r)["date"]})
}

func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	team, err := h.tournaments.GetTeam(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, team)
}

type moveTeamRequest struct {
	TournamentID string `json:"tournamentId,omitempty"`
	Date         string `json:"tournamentDate,omitempty"`
}

func (h *Handler) MoveTeam(w http.ResponseWriter, r *http.Request) {
	var req moveTeamRequest
	if err := decode(r, &req); err != nil {
		sharedapi.WriteBadRequest(w, "invalid request payload")
		return
	}
	dest := models.TournamentRef{TournamentID: req.TournamentID, Date: req.Date}
	team, err := h.teams.MoveTeam(r.Context(), actor(r), mux.Vars(r)["id"], dest)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, team)
}

func (h *Handler) LeaveTeam(w http.ResponseWriter, r *http.Request) {
	res, err := h.teams.LeaveTeam(r.Context(), actor(r), mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) RemovePlayer(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := h.teams.RemovePlayer(r.Context(), actor(r), vars["id"], vars["ign"])
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, res)
}

type transferCaptaincyRequest struct {
	NewCaptainID string `json:"newCaptainId"`
}

func (h *Handler) TransferCaptaincy(w http.ResponseWriter, r *http.Request) {
	var req transferCaptaincyRequest
	if err := decode(r, &req); err != nil {
		sharedapi.WriteBadRequest(w, "invalid request payload")
		return
	}
	team, err := h.teams.TransferCaptaincy(r.Context(), actor(r), mux.Vars(r)["id"], req.NewCaptainID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, team)
}

func (h *Handler) SetTeamStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if err := decode(r, &req); err != nil {
		sharedapi.WriteBadRequest(w, "invalid request payload")
		return
	}
	team, err := h.teams.SetStatus(r.Context(), actor(r), mux.Vars(r)["id"], models.TeamStatus(req.Status))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, team)
}

func (h *Handler) DisbandTeam(w http.ResponseWriter, r *http.Request) {
	if err := h.teams.DisbandTeam(r.Context(), actor(r), mux.Vars(r)["id"]); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type bulkStatusRequest struct {
	TeamIDs []string `json:"teamIds"`
	Status  string   `json:"status"`
}

func (h *Handler) BulkSetStatus(w http.ResponseWriter, r *http.Request) {
	var req bulkStatusRequest
	if err := decode(r, &req); err != nil {
		sharedapi.WriteBadRequest(w, "invalid request payload")
		return
	}
	if len(req.TeamIDs) == 0 {
		sharedapi.WriteBadRequest(w, "teamIds must not be empty")
		return
	}
	res := h.teams.BulkSetStatus(r.Context(), actor(r), req.TeamIDs, models.TeamStatus(req.Status))
	sharedapi.WriteJSON(w, http.StatusOK, res)
}

type bulkDisbandRequest struct {
	TeamIDs []string `json:"teamIds"`
}

func (h *Handler) BulkDisband(w http.ResponseWriter, r *http.Request) {
	var req bulkDisbandRequest
	if err := decode(r, &req); err != nil {
		sharedapi.WriteBadRequest(w, "invalid request payload")
		return
	}
	if len(req.TeamIDs) == 0 {
		sharedapi.WriteBadRequest(w, "teamIds must not be empty")
		return
	}
	res := h.teams.BulkDisband(r.Context(), actor(r), req.TeamIDs)
	sharedapi.WriteJSON(w, http.StatusOK, res)
}

// --- Invites ---

type sendInvitesRequest struct {
	TournamentID string   `json:"tournamentId"`
	TeamName     string   `json:"teamName"`
	ToUserIDs    []string `json:"toUserIds"`
}

func (h *Handler) SendInvites(w http.ResponseWriter, r *http.Request) {
	var req sendInvitesRequest
	if err := decode(r, &req); err != nil {
		sharedapi.WriteBadRequest(w, "invalid request payload")
		return
	}
	invites, err := h.invites.SendInvites(r.Context(), actor(r), service.SendInvitesInput{
		TournamentID: req.TournamentID,
		TeamName:     req.TeamName,
		ToUserIDs:    req.ToUserIDs,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusCreated, invites)
}

func (h *Handler) ListPendingInvites(w http.ResponseWriter, r *http.Request) {
	invites, err := h.invites.ListPending(r.Context(), actor(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, invites)
}

type respondInviteRequest struct {
	Accept bool `json:"accept"`
}

func (h *Handler) RespondInvite(w http.ResponseWriter, r *http.Request) {
	var req respondInviteRequest
	if err := decode(r, &req); err != nil {
		sharedapi.WriteBadRequest(w, "invalid request payload")
		return
	}
	res, err := h.invites.RespondInvite(r.Context(), actor(r), mux.Vars(r)["id"], req.Accept)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, res)
}

// --- Profiles ---

type createProfileRequest struct {
	IGN     string `json:"ign"`
	Discord string `json:"discord"`
}

func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if err := decode(r, &req); err != nil {
		sharedapi.WriteBadRequest(w, "invalid request payload")
		return
	}
	p, err := h.profiles.CreateProfile(r.Context(), actor(r), req.IGN, req.Discord)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.GetProfile(r.Context(), actor(r), mux.Vars(r)["userId"])
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	sharedapi.WriteJSON(w, http.StatusOK, p)
}
