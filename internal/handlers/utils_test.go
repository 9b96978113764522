package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chorsey/apiserver/internal/caption"
	"github.com/chorsey/apiserver/internal/services"
	"github.com/chorsey/apiserver/internal/store"
	"github.com/chorsey/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: services.ErrTaskNotFound, want: http.StatusNotFound},
		{name: "wrapped not found", err: fmt.Errorf("load: %w", store.ErrNotFound), want: http.StatusNotFound},
		{name: "conflict", err: services.ErrEmailTaken, want: http.StatusConflict},
		{name: "invalid transition", err: &services.Error{Kind: services.ErrInvalidTransition, Message: "no"}, want: http.StatusConflict},
		{name: "validation", err: &services.Error{Kind: store.ErrValidation, Message: "bad"}, want: http.StatusBadRequest},
		{name: "forbidden", err: services.ErrForbidden, want: http.StatusForbidden},
		{name: "caption disabled", err: services.ErrCaptionDisabled, want: http.StatusServiceUnavailable},
		{name: "upstream", err: &caption.Error{Message: "down", Err: errors.New("503")}, want: http.StatusBadGateway},
		{name: "deadline", err: context.DeadlineExceeded, want: http.StatusGatewayTimeout},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorStatus(tt.err))
		})
	}
}

func TestWriteServiceError_HidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)

	writeServiceError(rec, req, errors.New("pq: connection refused"), "failed to list tasks")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"failed to list tasks"}`, rec.Body.String())
}

func TestWriteServiceError_PassesMessageThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", nil)

	writeServiceError(rec, req, services.ErrEmailTaken, "failed to create user")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"An account with this email already exists."}`, rec.Body.String())
}

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("secret")

	token, err := issueToken("user-1", secret, time.Hour)
	require.NoError(t, err)

	subject, err := parseTokenSubject(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", subject)

	_, err = parseTokenSubject(token, []byte("other"))
	assert.Error(t, err)

	expired, err := issueToken("user-1", secret, -time.Minute)
	require.NoError(t, err)
	_, err = parseTokenSubject(expired, secret)
	assert.Error(t, err)
}

func TestRequireAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name string
		user *types.User
		want int
	}{
		{name: "anonymous", want: http.StatusUnauthorized},
		{name: "participant", user: &types.User{ID: "user-2", Role: types.RoleParticipant}, want: http.StatusForbidden},
		{name: "administrator", user: &types.User{ID: "user-1", Role: types.RoleAdministrator}, want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/users", nil)
			if tt.user != nil {
				req = req.WithContext(withUser(req.Context(), *tt.user))
			}
			rec := httptest.NewRecorder()

			requireAdmin(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
