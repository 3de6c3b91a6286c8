package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/minetourney/go-services/registration/service"
)

func TestWriteServiceErrorStatusMapping(t *testing.T) {
	h := &Handler{logger: zap.NewNop().Sugar()}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("%w: bad roster", service.ErrValidation), http.StatusBadRequest},
		{"not found", service.ErrTeamNotFound, http.StatusNotFound},
		{"conflict", service.ErrTeamNameTaken, http.StatusConflict},
		{"capacity", service.ErrCapacityExceeded, http.StatusConflict},
		{"forbidden", fmt.Errorf("%w: admins only", service.ErrForbidden), http.StatusForbidden},
		{"aborted", fmt.Errorf("%w: write conflict", service.ErrTransactionAborted), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.writeServiceError(rec, tc.err)
			assert.Equal(t, tc.want, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}
