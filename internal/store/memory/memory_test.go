package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/chorsey/apiserver/internal/store"
	"github.com/chorsey/apiserver/internal/store/memory"
	"github.com/chorsey/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeededStore(t *testing.T) *memory.Store {
	t.Helper()

	s, err := memory.New()
	require.NoError(t, err)
	require.NoError(t, store.DemoDataset().Load(context.Background(), s.Users(), s.Assets(), s.Tasks()))
	return s
}

func TestUserRepository_GetByEmailIsCaseInsensitive(t *testing.T) {
	s := newSeededStore(t)

	user, err := s.Users().GetByEmail(context.Background(), "ADMIN@Chorsey.com")

	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
}

func TestUserRepository_CreateRejectsDuplicateEmail(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	_, err := s.Users().Create(ctx, types.User{ID: "user-9", Name: "Dup", Email: "User@Chorsey.com", Role: types.RoleAdministrator})

	assert.ErrorIs(t, err, store.ErrConflict)
	users, err := s.Users().List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestUserRepository_ListKeepsInsertionOrder(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	_, err := s.Users().Create(ctx, types.User{ID: "user-3", Name: "Kim", Email: "kim@example.com", Role: types.RoleParticipant})
	require.NoError(t, err)

	users, err := s.Users().List(ctx)

	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, []string{"user-1", "user-2", "user-3"}, []string{users[0].ID, users[1].ID, users[2].ID})
}

func TestTaskRepository_ListIsNewestFirst(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	tasks, err := s.Tasks().List(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []string{"task-4", "task-1", "task-2", "task-3", "task-5"}, ids)

	_, err = s.Tasks().Create(ctx, types.Task{ID: "task-new", Title: "Mop floor", Status: types.TaskPending, AssignedTo: "user-2"})
	require.NoError(t, err)

	tasks, err = s.Tasks().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "task-new", tasks[0].ID)
}

func TestTaskRepository_ListByAssignee(t *testing.T) {
	s := newSeededStore(t)

	tasks, err := s.Tasks().ListByAssignee(context.Background(), "user-2")

	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "task-4", tasks[0].ID)
}

func TestTaskRepository_UpdateStatusAwardsPoints(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	task, err := s.Tasks().UpdateStatus(ctx, "task-2", types.TaskSubmitted, types.TaskApproved, 75)

	require.NoError(t, err)
	assert.Equal(t, types.TaskApproved, task.Status)
	user, err := s.Users().GetByID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1325, user.Points)
}

func TestTaskRepository_UpdateStatusErrors(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	_, err := s.Tasks().UpdateStatus(ctx, "task-missing", types.TaskPending, types.TaskInProgress, 0)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Tasks().UpdateStatus(ctx, "task-4", types.TaskSubmitted, types.TaskApproved, 25)
	assert.ErrorIs(t, err, store.ErrConflict)

	user, err := s.Users().GetByID(ctx, "user-2")
	require.NoError(t, err)
	assert.Equal(t, 800, user.Points)
}

func TestTaskRepository_UpdateStatusRejectsPointsOverflow(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	_, err := s.Users().Create(ctx, types.User{ID: "user-3", Name: "Kim", Email: "kim@example.com", Role: types.RoleParticipant, Points: store.MaxPoints - 10})
	require.NoError(t, err)
	_, err = s.Tasks().Create(ctx, types.Task{ID: "task-big", Title: "Paint", Points: 75, Status: types.TaskSubmitted, AssignedTo: "user-3"})
	require.NoError(t, err)

	_, err = s.Tasks().UpdateStatus(ctx, "task-big", types.TaskSubmitted, types.TaskApproved, 75)

	assert.ErrorIs(t, err, store.ErrValidation)
	user, err := s.Users().GetByID(ctx, "user-3")
	require.NoError(t, err)
	assert.Equal(t, store.MaxPoints-10, user.Points)
	task, err := s.Tasks().Get(ctx, "task-big")
	require.NoError(t, err)
	assert.Equal(t, types.TaskSubmitted, task.Status)
}

func TestTaskRepository_ConcurrentTransitionsHaveOneWinner(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Tasks().UpdateStatus(ctx, "task-2", types.TaskSubmitted, types.TaskApproved, 75)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var wins int
	for err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, store.ErrConflict)
	}
	assert.Equal(t, 1, wins)

	user, err := s.Users().GetByID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1325, user.Points)
}

func TestDataset_LoadIsIdempotent(t *testing.T) {
	s := newSeededStore(t)
	ctx := context.Background()

	require.NoError(t, store.DemoDataset().Load(ctx, s.Users(), s.Assets(), s.Tasks()))

	tasks, err := s.Tasks().List(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 5)
	assets, err := s.Assets().List(ctx)
	require.NoError(t, err)
	assert.Len(t, assets, 4)
}
