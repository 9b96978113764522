package handlers

import (
	"io"
	"net/http"

	"github.com/chorsey/apiserver/internal/services"
	"github.com/chorsey/apiserver/types"
	"github.com/go-chi/chi/v5"
)

const (
	formFieldImage     = "image"
	maxMultipartMemory = 8 << 20
	scopeMine          = "mine"
)

// TaskHandler provides HTTP handlers for tasks and assets.
type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// TaskRouter registers task routes. Every route requires authentication.
func TaskRouter(r chi.Router, handler *TaskHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Use(authMiddleware)

	r.Get("/", handler.ListTasks)
	r.With(requireAdmin).Post("/", handler.CreateTask)
	r.With(requireAdmin).Post("/draft", handler.DraftTask)
	r.Route("/{taskID}", func(r chi.Router) {
		r.Post("/status", handler.TransitionTask)
		r.Get("/photo", handler.GetPhoto)
	})
}

// AssetRouter registers asset routes.
func AssetRouter(r chi.Router, handler *TaskHandler, authMiddleware func(http.Handler) http.Handler) {
	r.With(authMiddleware).Get("/", handler.ListAssets)
}

func (h *TaskHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.taskService.ListAssets(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "failed to list assets")
		return
	}

	writeJSON(w, http.StatusOK, assets)
}

// ListTasks returns every task to administrators and only their own tasks
// to participants. Administrators can pass scope=mine to see their own.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var tasks []types.TaskWithDetails
	if user.IsAdmin() && r.URL.Query().Get("scope") != scopeMine {
		tasks, err = h.taskService.FetchAllTasks(r.Context())
	} else {
		tasks, err = h.taskService.FetchTasksForUser(r.Context(), user.ID)
	}
	if err != nil {
		writeServiceError(w, r, err, "failed to list tasks")
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req services.CreateTaskInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	task, err := h.taskService.CreateTask(r.Context(), user.ID, req)
	if err != nil {
		writeServiceError(w, r, err, "failed to create task")
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// DraftTask suggests a title and description for an uploaded photo.
func (h *TaskHandler) DraftTask(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxPhotoBytes+maxMultipartMemory)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Image is too large or the upload is malformed.")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, _, err := r.FormFile(formFieldImage)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Please select an image first.")
		return
	}
	// One byte over the limit is enough for the service to reject it.
	data, err := io.ReadAll(io.LimitReader(file, services.MaxPhotoBytes+1))
	_ = file.Close()
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	draft, err := h.taskService.DraftFromPhoto(r.Context(), data)
	if err != nil {
		writeServiceError(w, r, err, "failed to draft task")
		return
	}

	writeJSON(w, http.StatusOK, draft)
}

type TransitionRequest struct {
	Status types.TaskStatus `json:"status"`
}

func (h *TaskHandler) TransitionTask(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req TransitionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	task, err := h.taskService.TransitionTask(r.Context(), user, chi.URLParam(r, "taskID"), req.Status)
	if err != nil {
		writeServiceError(w, r, err, "failed to update task")
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// GetPhoto streams the photo a task was drafted from. Participants can only
// see photos of their own tasks.
func (h *TaskHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	taskID := chi.URLParam(r, "taskID")
	task, err := h.taskService.GetTask(r.Context(), taskID)
	if err != nil {
		writeServiceError(w, r, err, "failed to load task")
		return
	}
	if !user.IsAdmin() && task.AssignedTo != user.ID {
		writeError(w, http.StatusForbidden, "You can only view your own tasks.")
		return
	}

	rc, contentType, err := h.taskService.OpenPhoto(r.Context(), taskID)
	if err != nil {
		writeServiceError(w, r, err, "failed to load photo")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, rc)
}
