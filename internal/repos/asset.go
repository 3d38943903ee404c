package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/krafton-jungle/mediagen-backend/internal/platform/logger"
	"github.com/krafton-jungle/mediagen-backend/internal/types"
)

type AssetRepo interface {
	Create(ctx context.Context, tx *gorm.DB, asset *types.Asset) (*types.Asset, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*types.Asset, error)
	FindNewestByFingerprint(ctx context.Context, tx *gorm.DB, prompt, model, assetType string) (*types.Asset, error)
	ListByUserID(ctx context.Context, tx *gorm.DB, userID uint, skip, limit int) ([]*types.Asset, error)
	DeleteByID(ctx context.Context, tx *gorm.DB, id uint) error
}

type assetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssetRepo(db *gorm.DB, baseLog *logger.Logger) AssetRepo {
	return &assetRepo{db: db, log: baseLog.With("repo", "AssetRepo")}
}

func (r *assetRepo) Create(ctx context.Context, tx *gorm.DB, asset *types.Asset) (*types.Asset, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(asset).Error; err != nil {
		return nil, err
	}
	return asset, nil
}

func (r *assetRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*types.Asset, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var asset types.Asset
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

// FindNewestByFingerprint resolves the result-cache fingerprint
// (normalized prompt, model, asset type). Newest row wins.
func (r *assetRepo) FindNewestByFingerprint(ctx context.Context, tx *gorm.DB, prompt, model, assetType string) (*types.Asset, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var asset types.Asset
	err := transaction.WithContext(ctx).
		Where("prompt = ? AND model = ? AND asset_type = ?", prompt, model, assetType).
		Order("created_at DESC").
		First(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *assetRepo) ListByUserID(ctx context.Context, tx *gorm.DB, userID uint, skip, limit int) ([]*types.Asset, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 20
	}
	if skip < 0 {
		skip = 0
	}
	var out []*types.Asset
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(skip).
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assetRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uint) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Asset{}).Error
}
