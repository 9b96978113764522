package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/chorsey/apiserver/types"
)

// Dataset is a set of records loaded into an empty store.
// Tasks are listed in display order, newest first.
type Dataset struct {
	Users  []types.User
	Assets []types.AssetInstance
	Tasks  []types.Task
}

type userCreator interface {
	Create(ctx context.Context, user types.User) (types.User, error)
}

type assetCreator interface {
	Create(ctx context.Context, asset types.AssetInstance) (types.AssetInstance, error)
}

type taskCreator interface {
	Create(ctx context.Context, task types.Task) (types.Task, error)
}

// Load inserts the dataset. Records that already exist are skipped, so Load
// can be run against a store that was seeded before.
func (d Dataset) Load(ctx context.Context, users userCreator, assets assetCreator, tasks taskCreator) error {
	for _, user := range d.Users {
		if _, err := users.Create(ctx, user); err != nil && !errors.Is(err, ErrConflict) {
			return fmt.Errorf("seed user %s: %w", user.ID, err)
		}
	}
	for _, asset := range d.Assets {
		if _, err := assets.Create(ctx, asset); err != nil && !errors.Is(err, ErrConflict) {
			return fmt.Errorf("seed asset %s: %w", asset.ID, err)
		}
	}
	// Every create lands at the head, so insert oldest first.
	for i := len(d.Tasks) - 1; i >= 0; i-- {
		task := d.Tasks[i]
		if _, err := tasks.Create(ctx, task); err != nil && !errors.Is(err, ErrConflict) {
			return fmt.Errorf("seed task %s: %w", task.ID, err)
		}
	}
	return nil
}

// DemoDataset returns the household used for local development and demos.
func DemoDataset() Dataset {
	return Dataset{
		Users: []types.User{
			{ID: "user-1", Name: "Alex", Email: "admin@chorsey.com", Role: types.RoleAdministrator, AvatarURL: "https://picsum.photos/seed/alex/100/100", Points: 1250},
			{ID: "user-2", Name: "Sam", Email: "user@chorsey.com", Role: types.RoleParticipant, AvatarURL: "https://picsum.photos/seed/sam/100/100", Points: 800},
		},
		Assets: []types.AssetInstance{
			{ID: "asset-1", Name: "Kitchen Counter", AssetTemplateID: "template-counter"},
			{ID: "asset-2", Name: "Living Room TV", AssetTemplateID: "template-tv"},
			{ID: "asset-3", Name: "Bedroom Floor", AssetTemplateID: "template-floor"},
			{ID: "asset-4", Name: "Dishwasher", AssetTemplateID: "template-dishwasher"},
		},
		Tasks: []types.Task{
			{ID: "task-4", Title: "Clean the TV screen", Description: "Use a microfiber cloth. No harsh chemicals!", Points: 25, Status: types.TaskPending, AssignedTo: "user-2", AssignedAssetID: "asset-2"},
			{ID: "task-1", Title: "Wipe down kitchen counters", Description: "Use the all-purpose cleaner under the sink.", Points: 50, Status: types.TaskApproved, AssignedTo: "user-1", AssignedAssetID: "asset-1"},
			{ID: "task-2", Title: "Empty the dishwasher", Description: "Put all clean dishes away in the correct cabinets.", Points: 75, Status: types.TaskSubmitted, AssignedTo: "user-1", AssignedAssetID: "asset-4"},
			{ID: "task-3", Title: "Vacuum the bedroom", Description: "Make sure to get under the bed and behind the dresser.", Points: 100, Status: types.TaskInProgress, AssignedTo: "user-1", AssignedAssetID: "asset-3"},
			{ID: "task-5", Title: "Organize the pantry", Description: "Group similar items together and check for expired goods.", Points: 150, Status: types.TaskRejected, AssignedTo: "user-1"},
		},
	}
}
