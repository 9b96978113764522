package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chorsey/apiserver/types"
)

// TaskRepository handles persistence for tasks. Tasks are returned newest
// first.
type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id, title, description, points, status, assigned_to, assigned_asset_id, photo_key`

func scanTask(row interface{ Scan(...any) error }) (types.Task, error) {
	var task types.Task
	var assetID sql.NullString
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Points,
		&task.Status,
		&task.AssignedTo,
		&assetID,
		&task.PhotoKey,
	)
	task.AssignedAssetID = assetID.String
	return task, err
}

func (r *TaskRepository) List(ctx context.Context) ([]types.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY seq DESC`
	return r.query(ctx, query)
}

func (r *TaskRepository) ListByAssignee(ctx context.Context, userID string) ([]types.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE assigned_to = $1 ORDER BY seq DESC`
	return r.query(ctx, query, userID)
}

func (r *TaskRepository) query(ctx context.Context, query string, args ...any) ([]types.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]types.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) Get(ctx context.Context, id string) (types.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Task{}, ErrNotFound
		}
		return types.Task{}, err
	}
	return task, nil
}

// Create inserts a task at the head of the collection.
func (r *TaskRepository) Create(ctx context.Context, task types.Task) (types.Task, error) {
	const query = `
		INSERT INTO tasks (id, title, description, points, status, assigned_to, assigned_asset_id, photo_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.Title,
		task.Description,
		task.Points,
		task.Status,
		task.AssignedTo,
		sql.NullString{String: task.AssignedAssetID, Valid: task.AssignedAssetID != ""},
		task.PhotoKey,
	); err != nil {
		if isUniqueViolation(err) {
			return types.Task{}, ErrConflict
		}
		return types.Task{}, err
	}
	return task, nil
}

// UpdateStatus moves a task from one status to another. It returns
// ErrConflict when the task is no longer in the from status. A positive
// award is credited to the assignee in the same transaction.
func (r *TaskRepository) UpdateStatus(ctx context.Context, id string, from, to types.TaskStatus, award int) (types.Task, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Task{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		UPDATE tasks
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING ` + taskColumns
	task, err := scanTask(tx.QueryRowContext(ctx, query, to, id, from))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return types.Task{}, err
		}
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, id).Scan(&exists); err != nil {
			return types.Task{}, err
		}
		if !exists {
			return types.Task{}, ErrNotFound
		}
		return types.Task{}, ErrConflict
	}

	if award > 0 {
		const awardQuery = `UPDATE users SET points = points + $1 WHERE id = $2`
		if _, err := tx.ExecContext(ctx, awardQuery, award, task.AssignedTo); err != nil {
			if isOutOfRange(err) {
				return types.Task{}, fmt.Errorf("%w: points total out of range", ErrValidation)
			}
			return types.Task{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return types.Task{}, err
	}
	return task, nil
}
