package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chorsey/apiserver/internal/caption"
	"github.com/chorsey/apiserver/internal/services"
	"github.com/chorsey/apiserver/internal/store"
	"github.com/chorsey/apiserver/types"
	"github.com/hashicorp/go-hclog"
)

type contextKey string

const contextUserKey contextKey = "user"

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func withUser(ctx context.Context, user types.User) context.Context {
	return context.WithValue(ctx, contextUserKey, user)
}

func userFromContext(ctx context.Context) (types.User, error) {
	user, ok := ctx.Value(contextUserKey).(types.User)
	if !ok || user.ID == "" {
		return types.User{}, errors.New("missing user")
	}
	return user, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps err to a status code. User-facing messages carried
// by the error are passed through verbatim; anything unexpected is logged
// and answered with fallback.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		hclog.FromContext(r.Context()).Error(fallback, "path", r.URL.Path, "error", err)
		writeError(w, status, fallback)
		return
	}
	writeError(w, status, errorMessage(err))
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidTransition), errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, store.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrCaptionDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, caption.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(err error) string {
	var serviceErr *services.Error
	if errors.As(err, &serviceErr) {
		return serviceErr.Message
	}
	var captionErr *caption.Error
	if errors.As(err, &captionErr) {
		return captionErr.Message
	}
	return err.Error()
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
