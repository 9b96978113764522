// Package memory implements the user, asset and task repositories on top of
// an in-process go-memdb database. Writers are serialized by memdb and
// readers work on immutable snapshots, so the repositories are safe for
// concurrent use. Nothing is persisted.
package memory

import (
	"sync/atomic"

	"github.com/chorsey/apiserver/types"
	"github.com/hashicorp/go-memdb"
)

const (
	tableUsers  = "users"
	tableAssets = "assets"
	tableTasks  = "tasks"
)

// Store is an in-memory chore database.
type Store struct {
	db  *memdb.MemDB
	seq atomic.Uint64
}

// New returns an empty store.
func New() (*Store, error) {
	dbSchema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableUsers:  usersTableSchema(),
			tableAssets: assetsTableSchema(),
			tableTasks:  tasksTableSchema(),
		},
	}

	db, err := memdb.NewMemDB(dbSchema)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Users returns the user repository view of the store.
func (s *Store) Users() *UserRepository {
	return &UserRepository{store: s}
}

// Assets returns the asset repository view of the store.
func (s *Store) Assets() *AssetRepository {
	return &AssetRepository{store: s}
}

// Tasks returns the task repository view of the store.
func (s *Store) Tasks() *TaskRepository {
	return &TaskRepository{store: s}
}

func (s *Store) nextSeq() uint64 {
	return s.seq.Add(1)
}

// The records carry an insertion sequence so listings keep a stable order.
// Records are never modified after insert; updates insert a copy.

type userRecord struct {
	types.User
	Seq uint64
}

type assetRecord struct {
	types.AssetInstance
	Seq uint64
}

type taskRecord struct {
	types.Task
	Seq uint64
}

func usersTableSchema() *memdb.TableSchema {
	return &memdb.TableSchema{
		Name: tableUsers,
		Indexes: map[string]*memdb.IndexSchema{
			"id": {
				Name:    "id",
				Unique:  true,
				Indexer: &memdb.StringFieldIndex{Field: "ID"},
			},
			"email": {
				Name:   "email",
				Unique: true,
				Indexer: &memdb.StringFieldIndex{
					Field:     "Email",
					Lowercase: true,
				},
			},
			"seq": {
				Name:    "seq",
				Unique:  true,
				Indexer: &memdb.UintFieldIndex{Field: "Seq"},
			},
		},
	}
}

func assetsTableSchema() *memdb.TableSchema {
	return &memdb.TableSchema{
		Name: tableAssets,
		Indexes: map[string]*memdb.IndexSchema{
			"id": {
				Name:    "id",
				Unique:  true,
				Indexer: &memdb.StringFieldIndex{Field: "ID"},
			},
			"seq": {
				Name:    "seq",
				Unique:  true,
				Indexer: &memdb.UintFieldIndex{Field: "Seq"},
			},
		},
	}
}

func tasksTableSchema() *memdb.TableSchema {
	return &memdb.TableSchema{
		Name: tableTasks,
		Indexes: map[string]*memdb.IndexSchema{
			"id": {
				Name:    "id",
				Unique:  true,
				Indexer: &memdb.StringFieldIndex{Field: "ID"},
			},
			"seq": {
				Name:    "seq",
				Unique:  true,
				Indexer: &memdb.UintFieldIndex{Field: "Seq"},
			},
			"assignee": {
				Name:    "assignee",
				Indexer: &memdb.StringFieldIndex{Field: "AssignedTo"},
			},
		},
	}
}
