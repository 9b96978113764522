package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/chorsey/apiserver/internal/store"
	"github.com/chorsey/apiserver/types"
	"github.com/hashicorp/go-memdb"
)

// UserRepository stores users in insertion order.
type UserRepository struct {
	store *Store
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	tx := r.store.db.Txn(false)
	defer tx.Abort()

	return firstUser(tx, "id", id)
}

// GetByEmail matches the email case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	tx := r.store.db.Txn(false)
	defer tx.Abort()

	return firstUser(tx, "email", email)
}

func (r *UserRepository) List(ctx context.Context) ([]types.User, error) {
	tx := r.store.db.Txn(false)
	defer tx.Abort()

	iter, err := tx.Get(tableUsers, "seq")
	if err != nil {
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}

	users := make([]types.User, 0)
	for next := iter.Next(); next != nil; next = iter.Next() {
		users = append(users, next.(*userRecord).User)
	}
	return users, nil
}

// Create inserts a user. A case-insensitive email or id collision returns
// store.ErrConflict and leaves the table unchanged.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	tx := r.store.db.Txn(true)
	defer tx.Abort()

	for index, value := range map[string]string{"id": user.ID, "email": user.Email} {
		existing, err := tx.First(tableUsers, index, value)
		if err != nil {
			return types.User{}, fmt.Errorf("user lookup failed: %w", err)
		}
		if existing != nil {
			return types.User{}, store.ErrConflict
		}
	}

	if err := tx.Insert(tableUsers, &userRecord{User: user, Seq: r.store.nextSeq()}); err != nil {
		return types.User{}, fmt.Errorf("user insert failed: %w", err)
	}
	tx.Commit()
	return user, nil
}

func firstUser(tx *memdb.Txn, index, value string) (types.User, error) {
	raw, err := tx.First(tableUsers, index, value)
	if err != nil {
		return types.User{}, fmt.Errorf("user lookup failed: %w", err)
	}
	if raw == nil {
		return types.User{}, store.ErrNotFound
	}
	return raw.(*userRecord).User, nil
}

// AssetRepository stores assets in insertion order.
type AssetRepository struct {
	store *Store
}

func (r *AssetRepository) Get(ctx context.Context, id string) (types.AssetInstance, error) {
	tx := r.store.db.Txn(false)
	defer tx.Abort()

	raw, err := tx.First(tableAssets, "id", id)
	if err != nil {
		return types.AssetInstance{}, fmt.Errorf("asset lookup failed: %w", err)
	}
	if raw == nil {
		return types.AssetInstance{}, store.ErrNotFound
	}
	return raw.(*assetRecord).AssetInstance, nil
}

func (r *AssetRepository) List(ctx context.Context) ([]types.AssetInstance, error) {
	tx := r.store.db.Txn(false)
	defer tx.Abort()

	iter, err := tx.Get(tableAssets, "seq")
	if err != nil {
		return nil, fmt.Errorf("asset lookup failed: %w", err)
	}

	assets := make([]types.AssetInstance, 0)
	for next := iter.Next(); next != nil; next = iter.Next() {
		assets = append(assets, next.(*assetRecord).AssetInstance)
	}
	return assets, nil
}

func (r *AssetRepository) Create(ctx context.Context, asset types.AssetInstance) (types.AssetInstance, error) {
	tx := r.store.db.Txn(true)
	defer tx.Abort()

	existing, err := tx.First(tableAssets, "id", asset.ID)
	if err != nil {
		return types.AssetInstance{}, fmt.Errorf("asset lookup failed: %w", err)
	}
	if existing != nil {
		return types.AssetInstance{}, store.ErrConflict
	}

	if err := tx.Insert(tableAssets, &assetRecord{AssetInstance: asset, Seq: r.store.nextSeq()}); err != nil {
		return types.AssetInstance{}, fmt.Errorf("asset insert failed: %w", err)
	}
	tx.Commit()
	return asset, nil
}

// TaskRepository stores tasks and returns them newest first.
type TaskRepository struct {
	store *Store
}

func (r *TaskRepository) List(ctx context.Context) ([]types.Task, error) {
	tx := r.store.db.Txn(false)
	defer tx.Abort()

	iter, err := tx.GetReverse(tableTasks, "seq")
	if err != nil {
		return nil, fmt.Errorf("task lookup failed: %w", err)
	}

	tasks := make([]types.Task, 0)
	for next := iter.Next(); next != nil; next = iter.Next() {
		tasks = append(tasks, next.(*taskRecord).Task)
	}
	return tasks, nil
}

func (r *TaskRepository) ListByAssignee(ctx context.Context, userID string) ([]types.Task, error) {
	tx := r.store.db.Txn(false)
	defer tx.Abort()

	iter, err := tx.Get(tableTasks, "assignee", userID)
	if err != nil {
		return nil, fmt.Errorf("task lookup failed: %w", err)
	}

	var records []*taskRecord
	for next := iter.Next(); next != nil; next = iter.Next() {
		records = append(records, next.(*taskRecord))
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Seq > records[j].Seq
	})

	tasks := make([]types.Task, 0, len(records))
	for _, record := range records {
		tasks = append(tasks, record.Task)
	}
	return tasks, nil
}

func (r *TaskRepository) Get(ctx context.Context, id string) (types.Task, error) {
	tx := r.store.db.Txn(false)
	defer tx.Abort()

	record, err := firstTask(tx, id)
	if err != nil {
		return types.Task{}, err
	}
	return record.Task, nil
}

// Create inserts a task at the head of the collection.
func (r *TaskRepository) Create(ctx context.Context, task types.Task) (types.Task, error) {
	tx := r.store.db.Txn(true)
	defer tx.Abort()

	existing, err := tx.First(tableTasks, "id", task.ID)
	if err != nil {
		return types.Task{}, fmt.Errorf("task lookup failed: %w", err)
	}
	if existing != nil {
		return types.Task{}, store.ErrConflict
	}

	if err := tx.Insert(tableTasks, &taskRecord{Task: task, Seq: r.store.nextSeq()}); err != nil {
		return types.Task{}, fmt.Errorf("task insert failed: %w", err)
	}
	tx.Commit()
	return task, nil
}

// UpdateStatus moves a task from one status to another. It returns
// store.ErrConflict when the task is no longer in the from status. A
// positive award is credited to the assignee in the same transaction.
func (r *TaskRepository) UpdateStatus(ctx context.Context, id string, from, to types.TaskStatus, award int) (types.Task, error) {
	tx := r.store.db.Txn(true)
	defer tx.Abort()

	record, err := firstTask(tx, id)
	if err != nil {
		return types.Task{}, err
	}
	if record.Status != from {
		return types.Task{}, store.ErrConflict
	}

	updated := *record
	updated.Status = to
	if err := tx.Insert(tableTasks, &updated); err != nil {
		return types.Task{}, fmt.Errorf("task update failed: %w", err)
	}

	if award > 0 {
		raw, err := tx.First(tableUsers, "id", updated.AssignedTo)
		if err != nil {
			return types.Task{}, fmt.Errorf("user lookup failed: %w", err)
		}
		if raw != nil {
			user := *raw.(*userRecord)
			if user.Points > store.MaxPoints-award {
				return types.Task{}, fmt.Errorf("%w: points total out of range", store.ErrValidation)
			}
			user.Points += award
			if err := tx.Insert(tableUsers, &user); err != nil {
				return types.Task{}, fmt.Errorf("user update failed: %w", err)
			}
		}
	}

	tx.Commit()
	return updated.Task, nil
}

func firstTask(tx *memdb.Txn, id string) (*taskRecord, error) {
	raw, err := tx.First(tableTasks, "id", id)
	if err != nil {
		return nil, fmt.Errorf("task lookup failed: %w", err)
	}
	if raw == nil {
		return nil, store.ErrNotFound
	}
	return raw.(*taskRecord), nil
}
