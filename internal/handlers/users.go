package handlers

import (
	"net/http"

	"github.com/chorsey/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
)

// UserHandler provides HTTP handlers for household members.
type UserHandler struct {
	userService *services.UserService
	taskService *services.TaskService
}

func NewUserHandler(userService *services.UserService, taskService *services.TaskService) *UserHandler {
	return &UserHandler{
		userService: userService,
		taskService: taskService,
	}
}

// UserRouter registers user routes. Every route requires authentication.
func UserRouter(r chi.Router, handler *UserHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Use(authMiddleware)

	r.With(requireAdmin).Get("/", handler.ListUsers)
	r.With(requireAdmin).Post("/", handler.AddMember)
	r.Route("/{userID}", func(r chi.Router) {
		r.Use(requireSelfOrAdmin)
		r.Get("/", handler.GetUser)
		r.Get("/tasks", handler.ListUserTasks)
	})
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.taskService.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// AddMember creates a participant. The caller must be an administrator.
func (h *UserHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.userService.AddMember(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err, "failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetByID(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeServiceError(w, r, err, "failed to load user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) ListUserTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.taskService.FetchTasksForUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeServiceError(w, r, err, "failed to list tasks")
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := userFromContext(r.Context())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !user.IsAdmin() {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireSelfOrAdmin limits /users/{userID} routes to that user and to
// administrators.
func requireSelfOrAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := userFromContext(r.Context())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !user.IsAdmin() && user.ID != chi.URLParam(r, "userID") {
			writeError(w, http.StatusForbidden, "you can only view your own account")
			return
		}
		next.ServeHTTP(w, r)
	})
}
