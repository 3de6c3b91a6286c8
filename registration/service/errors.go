package service

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/minetourney/go-services/shared/models"
)

// Error kinds. Every business-rule failure wraps exactly one of these, so
// the API layer can map with errors.Is while messages keep the specific
// context (which player, which field).
var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrCapacityExceeded   = models.ErrCapacityExceeded
	ErrForbidden          = errors.New("forbidden")
	ErrTransactionAborted = errors.New("transaction aborted")
)

// Specific errors for clear communication to the API layer.
var (
	ErrTournamentNotFound = fmt.Errorf("%w: tournament does not exist", ErrNotFound)
	ErrTeamNotFound       = fmt.Errorf("%w: team does not exist", ErrNotFound)
	ErrInviteNotFound     = fmt.Errorf("%w: invite does not exist", ErrNotFound)
	ErrProfileNotFound    = fmt.Errorf("%w: player profile does not exist", ErrNotFound)

	ErrTeamNameTaken          = fmt.Errorf("%w: team name already taken in this tournament", ErrConflict)
	ErrDuplicatePlayer        = fmt.Errorf("%w: player already rostered in this tournament", ErrConflict)
	ErrAlreadyRegistered      = fmt.Errorf("%w: user already on a team in this tournament", ErrConflict)
	ErrInviteAlreadyResponded = fmt.Errorf("%w: invite already responded to", ErrConflict)
	ErrInviteRejectedBefore   = fmt.Errorf("%w: a previous invite for this team name was rejected", ErrConflict)
	ErrProfileAlreadyExists   = fmt.Errorf("%w: player profile already exists", ErrConflict)
)

// IsBusinessError reports whether err is one of the engine's own rejection
// kinds, as opposed to an infrastructure failure.
func IsBusinessError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrForbidden)
}

// classifyInfraError distinguishes retryable store aborts from everything
// else. Business errors pass through untouched; transient transaction
// failures become ErrTransactionAborted so callers know a retry is safe.
func classifyInfraError(err error) error {
	if err == nil || IsBusinessError(err) {
		return err
	}

	var srvErr mongo.ServerError
	if errors.As(err, &srvErr) &&
		(srvErr.HasErrorLabel("TransientTransactionError") || srvErr.HasErrorLabel("UnknownTransactionCommitResult")) {
		return fmt.Errorf("%w: %v", ErrTransactionAborted, err)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		// A document vanished between pre-check and transaction commit.
		return fmt.Errorf("%w: referenced document was concurrently deleted", ErrNotFound)
	}
	return err
}
