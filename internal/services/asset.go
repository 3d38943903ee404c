package services

import (
	"context"
	"fmt"

	"github.com/krafton-jungle/mediagen-backend/internal/platform/apierr"
	"github.com/krafton-jungle/mediagen-backend/internal/platform/logger"
	"github.com/krafton-jungle/mediagen-backend/internal/platform/mediastore"
	"github.com/krafton-jungle/mediagen-backend/internal/repos"
	"github.com/krafton-jungle/mediagen-backend/internal/types"
)

type AssetService interface {
	List(ctx context.Context, userID uint, skip, limit int) ([]*types.Asset, error)
	Get(ctx context.Context, userID, assetID uint) (*types.Asset, error)
	Delete(ctx context.Context, userID, assetID uint) error
}

type assetService struct {
	log       *logger.Logger
	assetRepo repos.AssetRepo
	store     *mediastore.Store
}

func NewAssetService(baseLog *logger.Logger, assetRepo repos.AssetRepo, store *mediastore.Store) AssetService {
	return &assetService{
		log:       baseLog.With("service", "AssetService"),
		assetRepo: assetRepo,
		store:     store,
	}
}

func (s *assetService) List(ctx context.Context, userID uint, skip, limit int) ([]*types.Asset, error) {
	return s.assetRepo.ListByUserID(ctx, nil, userID, skip, limit)
}

// Get hides other users' assets behind a 404 so ids cannot be enumerated.
func (s *assetService) Get(ctx context.Context, userID, assetID uint) (*types.Asset, error) {
	asset, err := s.assetRepo.GetByID(ctx, nil, assetID)
	if err != nil {
		return nil, err
	}
	if asset == nil || asset.UserID != userID {
		return nil, apierr.New(404, "not_found", fmt.Errorf("asset %d not found", assetID))
	}
	return asset, nil
}

// Delete removes the row and then the artifact on disk. A second delete of
// the same id reports 404.
func (s *assetService) Delete(ctx context.Context, userID, assetID uint) error {
	asset, err := s.Get(ctx, userID, assetID)
	if err != nil {
		return err
	}
	if err := s.assetRepo.DeleteByID(ctx, nil, assetID); err != nil {
		return err
	}
	if err := s.store.RemoveByURL(asset.FilePath); err != nil {
		s.log.Warn("Failed to remove asset artifact", "asset_id", assetID, "path", asset.FilePath, "error", err)
	}
	return nil
}
