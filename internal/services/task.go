package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chorsey/apiserver/internal/caption"
	"github.com/chorsey/apiserver/internal/store"
	"github.com/chorsey/apiserver/types"
	"github.com/hashicorp/go-hclog"
)

// TaskRepository defines persistence operations for tasks. Listings are
// newest first.
type TaskRepository interface {
	List(ctx context.Context) ([]types.Task, error)
	ListByAssignee(ctx context.Context, userID string) ([]types.Task, error)
	Get(ctx context.Context, id string) (types.Task, error)
	Create(ctx context.Context, task types.Task) (types.Task, error)
	UpdateStatus(ctx context.Context, id string, from, to types.TaskStatus, award int) (types.Task, error)
}

// AssetRepository defines read operations for household assets.
type AssetRepository interface {
	Get(ctx context.Context, id string) (types.AssetInstance, error)
	List(ctx context.Context) ([]types.AssetInstance, error)
}

// TaskService encapsulates task use-cases. It does not decide which tasks a
// caller may see; handlers pick FetchAllTasks or FetchTasksForUser based on
// the caller's role.
type TaskService struct {
	tasks     TaskRepository
	users     UserRepository
	assets    AssetRepository
	latency   Latency
	notifier  Notifier
	photos    PhotoStore
	captioner caption.Captioner
	now       func() time.Time
	log       hclog.Logger
}

func NewTaskService(tasks TaskRepository, users UserRepository, assets AssetRepository, opts ...Option) *TaskService {
	o := newOptions(opts)
	return &TaskService{
		tasks:     tasks,
		users:     users,
		assets:    assets,
		latency:   o.latency,
		notifier:  o.notifier,
		photos:    o.photos,
		captioner: o.captioner,
		now:       o.now,
		log:       o.logger.Named("tasks"),
	}
}

// CreateTaskInput holds the fields an administrator supplies for a new task.
type CreateTaskInput struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Points          int    `json:"points"`
	AssignedTo      string `json:"assignedTo"`
	AssignedAssetID string `json:"assignedAssetId,omitempty"`
	PhotoKey        string `json:"photoKey,omitempty"`
}

func (s *TaskService) ListAssets(ctx context.Context) ([]types.AssetInstance, error) {
	if err := s.latency(ctx); err != nil {
		return nil, err
	}
	return s.assets.List(ctx)
}

func (s *TaskService) ListUsers(ctx context.Context) ([]types.User, error) {
	if err := s.latency(ctx); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

// CreateTask stores a new pending task at the head of the collection.
func (s *TaskService) CreateTask(ctx context.Context, actorID string, in CreateTaskInput) (types.Task, error) {
	if err := s.latency(ctx); err != nil {
		return types.Task{}, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.AssignedTo = strings.TrimSpace(in.AssignedTo)
	in.AssignedAssetID = strings.TrimSpace(in.AssignedAssetID)
	if in.Title == "" || in.AssignedTo == "" {
		return types.Task{}, validationError("Title and Assignee are required.")
	}
	if in.Points < 0 {
		return types.Task{}, validationError("Points cannot be negative.")
	}
	if in.Points > store.MaxPoints {
		return types.Task{}, validationError("Points are too large.")
	}
	if !validPhotoKey(in.PhotoKey) {
		return types.Task{}, validationError("Invalid photo key.")
	}
	if _, err := s.users.GetByID(ctx, in.AssignedTo); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Task{}, validationError("The selected assignee does not exist.")
		}
		return types.Task{}, err
	}
	if in.AssignedAssetID != "" {
		if _, err := s.assets.Get(ctx, in.AssignedAssetID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return types.Task{}, validationError("The selected asset does not exist.")
			}
			return types.Task{}, err
		}
	}

	task, err := s.tasks.Create(ctx, types.Task{
		ID:              newID("task"),
		Title:           in.Title,
		Description:     in.Description,
		Points:          in.Points,
		Status:          types.TaskPending,
		AssignedTo:      in.AssignedTo,
		AssignedAssetID: in.AssignedAssetID,
		PhotoKey:        in.PhotoKey,
	})
	if err != nil {
		return types.Task{}, err
	}

	s.log.Info("task created", "task_id", task.ID, "assigned_to", task.AssignedTo, "actor_id", actorID)
	s.notifier.NotifyTask(ctx, types.TaskEvent{
		Type:       types.TaskCreated,
		Task:       task,
		ActorID:    actorID,
		OccurredAt: s.now(),
	})
	return task, nil
}

// FetchTasksForUser returns the tasks assigned to userID, newest first.
func (s *TaskService) FetchTasksForUser(ctx context.Context, userID string) ([]types.TaskWithDetails, error) {
	if err := s.latency(ctx); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	tasks, err := s.tasks.ListByAssignee(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, tasks)
}

// FetchAllTasks returns every task, newest first.
func (s *TaskService) FetchAllTasks(ctx context.Context) ([]types.TaskWithDetails, error) {
	if err := s.latency(ctx); err != nil {
		return nil, err
	}

	tasks, err := s.tasks.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, tasks)
}

// enrich resolves assignees and assets. Tasks whose assignee does not
// resolve are dropped.
func (s *TaskService) enrich(ctx context.Context, tasks []types.Task) ([]types.TaskWithDetails, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	assets, err := s.assets.List(ctx)
	if err != nil {
		return nil, err
	}

	usersByID := make(map[string]types.User, len(users))
	for _, user := range users {
		usersByID[user.ID] = user
	}
	assetsByID := make(map[string]types.AssetInstance, len(assets))
	for _, asset := range assets {
		assetsByID[asset.ID] = asset
	}

	details := make([]types.TaskWithDetails, 0, len(tasks))
	for _, task := range tasks {
		user, ok := usersByID[task.AssignedTo]
		if !ok {
			s.log.Debug("dropping task with unknown assignee", "task_id", task.ID, "assigned_to", task.AssignedTo)
			continue
		}
		detail := types.TaskWithDetails{Task: task, AssignedUser: user}
		if asset, ok := assetsByID[task.AssignedAssetID]; ok {
			detail.AssignedAsset = &asset
		}
		details = append(details, detail)
	}
	return details, nil
}

type transition struct {
	from types.TaskStatus
	to   types.TaskStatus
}

// transitions maps every allowed edge to whether it needs an administrator.
var transitions = map[transition]bool{
	{types.TaskPending, types.TaskInProgress}:   false,
	{types.TaskInProgress, types.TaskSubmitted}: false,
	{types.TaskSubmitted, types.TaskApproved}:   true,
	{types.TaskSubmitted, types.TaskRejected}:   true,
	{types.TaskRejected, types.TaskInProgress}:  false,
}

// CanTransition reports whether a task may move from one status to another,
// and whether that move is reserved for administrators.
func CanTransition(from, to types.TaskStatus) (allowed, adminOnly bool) {
	adminOnly, allowed = transitions[transition{from, to}]
	return allowed, adminOnly
}

// TransitionTask moves a task to a new status on behalf of actor.
// Participants may only progress their own tasks; reviewing a submitted task
// is reserved for administrators. Approval credits the task's points to the
// assignee.
func (s *TaskService) TransitionTask(ctx context.Context, actor types.User, taskID string, to types.TaskStatus) (types.Task, error) {
	if err := s.latency(ctx); err != nil {
		return types.Task{}, err
	}

	if !to.Valid() {
		return types.Task{}, validationError(fmt.Sprintf("Unknown task status %q.", to))
	}

	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Task{}, ErrTaskNotFound
		}
		return types.Task{}, err
	}

	allowed, adminOnly := CanTransition(task.Status, to)
	if !allowed {
		return types.Task{}, &Error{
			Kind:    ErrInvalidTransition,
			Message: fmt.Sprintf("A %s task cannot be moved to %s.", task.Status, to),
		}
	}
	if !actor.IsAdmin() {
		if task.AssignedTo != actor.ID {
			return types.Task{}, &Error{Kind: ErrForbidden, Message: "You can only update your own tasks."}
		}
		if adminOnly {
			return types.Task{}, &Error{Kind: ErrForbidden, Message: "Only an administrator can review submitted tasks."}
		}
	}

	award := 0
	if to == types.TaskApproved {
		award = task.Points
	}

	updated, err := s.tasks.UpdateStatus(ctx, task.ID, task.Status, to, award)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return types.Task{}, ErrTaskNotFound
		case errors.Is(err, store.ErrConflict):
			return types.Task{}, ErrTaskChanged
		case errors.Is(err, store.ErrValidation):
			return types.Task{}, validationError("Approving this task would exceed the assignee's points limit.")
		}
		return types.Task{}, err
	}

	s.log.Info("task status changed", "task_id", updated.ID, "from", task.Status, "to", updated.Status, "actor_id", actor.ID, "award", award)
	s.notifier.NotifyTask(ctx, types.TaskEvent{
		Type:           types.TaskStatusChanged,
		Task:           updated,
		PreviousStatus: task.Status,
		ActorID:        actor.ID,
		OccurredAt:     s.now(),
	})
	return updated, nil
}

// GetTask returns a single task without enrichment.
func (s *TaskService) GetTask(ctx context.Context, taskID string) (types.Task, error) {
	if err := s.latency(ctx); err != nil {
		return types.Task{}, err
	}

	task, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Task{}, ErrTaskNotFound
		}
		return types.Task{}, err
	}
	return task, nil
}
