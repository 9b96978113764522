package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/chorsey/apiserver/types"
)

// AssetRepository handles persistence for household assets.
type AssetRepository struct {
	db *sql.DB
}

func NewAssetRepository(db *sql.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

func (r *AssetRepository) Get(ctx context.Context, id string) (types.AssetInstance, error) {
	const query = `SELECT id, name, asset_template_id FROM assets WHERE id = $1`
	var asset types.AssetInstance
	err := r.db.QueryRowContext(ctx, query, id).Scan(&asset.ID, &asset.Name, &asset.AssetTemplateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.AssetInstance{}, ErrNotFound
		}
		return types.AssetInstance{}, err
	}
	return asset, nil
}

func (r *AssetRepository) List(ctx context.Context) ([]types.AssetInstance, error) {
	const query = `SELECT id, name, asset_template_id FROM assets ORDER BY seq`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assets := make([]types.AssetInstance, 0)
	for rows.Next() {
		var asset types.AssetInstance
		if err := rows.Scan(&asset.ID, &asset.Name, &asset.AssetTemplateID); err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return assets, nil
}

// Create inserts an asset. It is only used when seeding.
func (r *AssetRepository) Create(ctx context.Context, asset types.AssetInstance) (types.AssetInstance, error) {
	const query = `INSERT INTO assets (id, name, asset_template_id) VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, asset.ID, asset.Name, asset.AssetTemplateID); err != nil {
		if isUniqueViolation(err) {
			return types.AssetInstance{}, ErrConflict
		}
		return types.AssetInstance{}, err
	}
	return asset, nil
}
