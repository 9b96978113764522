package handlers

import (
	"net/http"

	"github.com/chorsey/apiserver/internal/live"
)

// LiveHandler upgrades authenticated requests to the task event stream.
func LiveHandler(hub *live.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := userFromContext(r.Context())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		hub.Serve(w, r, user)
	}
}
