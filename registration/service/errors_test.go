package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestSpecificErrorsWrapTheirKind(t *testing.T) {
	assert.ErrorIs(t, ErrTournamentNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrTeamNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrInviteNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrProfileNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrTeamNameTaken, ErrConflict)
	assert.ErrorIs(t, ErrDuplicatePlayer, ErrConflict)
	assert.ErrorIs(t, ErrAlreadyRegistered, ErrConflict)
	assert.ErrorIs(t, ErrInviteAlreadyResponded, ErrConflict)
	assert.ErrorIs(t, ErrInviteRejectedBefore, ErrConflict)
	assert.ErrorIs(t, ErrProfileAlreadyExists, ErrConflict)
}

func TestIsBusinessError(t *testing.T) {
	assert.True(t, IsBusinessError(ErrTeamNameTaken))
	assert.True(t, IsBusinessError(fmt.Errorf("%w: details", ErrForbidden)))
	assert.True(t, IsBusinessError(ErrCapacityExceeded))
	assert.False(t, IsBusinessError(errors.New("connection reset")))
	assert.False(t, IsBusinessError(ErrTransactionAborted))
}

func TestClassifyInfraError(t *testing.T) {
	assert.NoError(t, classifyInfraError(nil))

	// Business errors pass through untouched.
	assert.Equal(t, ErrTeamNameTaken, classifyInfraError(ErrTeamNameTaken))

	// A vanished document after the pre-check maps to not-found.
	err := classifyInfraError(mongo.ErrNoDocuments)
	assert.ErrorIs(t, err, ErrNotFound)

	// Transient transaction labels map to the retryable kind.
	transient := mongo.CommandError{Labels: []string{"TransientTransactionError"}}
	assert.ErrorIs(t, classifyInfraError(transient), ErrTransactionAborted)

	unknownCommit := mongo.CommandError{Labels: []string{"UnknownTransactionCommitResult"}}
	assert.ErrorIs(t, classifyInfraError(unknownCommit), ErrTransactionAborted)

	// Everything else is left alone.
	plain := errors.New("dial tcp: connection refused")
	assert.Equal(t, plain, classifyInfraError(plain))
}
