package types

import "time"

// Task represents a unit of household work.
type Task struct {
	// ID is the unique identifier of the task.
	ID string `json:"id" db:"id"`

	// Title is the short human-readable name of the chore.
	Title string `json:"title" db:"title"`

	// Description explains what needs to be done.
	Description string `json:"description" db:"description"`

	// Points is the reward credited to the assignee once the task is
	// approved.
	Points int `json:"points" db:"points"`

	// Status is the current position of the task in its review workflow.
	Status TaskStatus `json:"status" db:"status"`

	// AssignedTo is the ID of the user responsible for the task.
	AssignedTo string `json:"assignedTo" db:"assigned_to"`

	// AssignedAssetID optionally ties the task to an asset.
	AssignedAssetID string `json:"assignedAssetId,omitempty" db:"assigned_asset_id"`

	// PhotoKey is the object storage key of the photo the task was
	// drafted from, if any.
	PhotoKey string `json:"photoKey,omitempty" db:"photo_key"`
}

// TaskWithDetails is a read-only projection of a Task with the assignee and
// asset resolved for display.
type TaskWithDetails struct {
	Task
	AssignedUser  User           `json:"assignedUser"`
	AssignedAsset *AssetInstance `json:"assignedAsset,omitempty"`
}

// TaskStatus represents the review state of a task.
type TaskStatus string

// Supported task statuses.
const (
	// TaskPending indicates the task has been created but not started.
	TaskPending TaskStatus = "PENDING"

	// TaskInProgress indicates the assignee is working on the task.
	TaskInProgress TaskStatus = "IN_PROGRESS"

	// TaskSubmitted indicates the assignee considers the task done and is
	// waiting for an administrator to review it.
	TaskSubmitted TaskStatus = "SUBMITTED"

	// TaskApproved indicates an administrator accepted the work. Points
	// have been credited.
	TaskApproved TaskStatus = "APPROVED"

	// TaskRejected indicates an administrator sent the work back.
	TaskRejected TaskStatus = "REJECTED"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskSubmitted, TaskApproved, TaskRejected:
		return true
	default:
		return false
	}
}

// TaskDraft is a suggested title and description produced from a photo.
type TaskDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PhotoKey    string `json:"photoKey,omitempty"`
}

// TaskEventType names a task mutation.
type TaskEventType string

// Task event types.
const (
	TaskCreated       TaskEventType = "task.created"
	TaskStatusChanged TaskEventType = "task.status_changed"
)

// TaskEvent is published whenever a task is created or changes status.
type TaskEvent struct {
	Type           TaskEventType `json:"type"`
	Task           Task          `json:"task"`
	PreviousStatus TaskStatus    `json:"previousStatus,omitempty"`
	ActorID        string        `json:"actorId"`
	OccurredAt     time.Time     `json:"occurredAt"`
}
