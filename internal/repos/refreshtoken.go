package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/krafton-jungle/mediagen-backend/internal/platform/logger"
	"github.com/krafton-jungle/mediagen-backend/internal/types"
)

type RefreshTokenRepo interface {
	Create(ctx context.Context, tx *gorm.DB, token *types.RefreshToken) (*types.RefreshToken, error)
	GetByToken(ctx context.Context, tx *gorm.DB, token string) (*types.RefreshToken, error)
	DeleteByID(ctx context.Context, tx *gorm.DB, id uint) error
	DeleteByUserID(ctx context.Context, tx *gorm.DB, userID uint) error
}

type refreshTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRefreshTokenRepo(db *gorm.DB, baseLog *logger.Logger) RefreshTokenRepo {
	return &refreshTokenRepo{db: db, log: baseLog.With("repo", "RefreshTokenRepo")}
}

func (r *refreshTokenRepo) Create(ctx context.Context, tx *gorm.DB, token *types.RefreshToken) (*types.RefreshToken, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(token).Error; err != nil {
		return nil, err
	}
	return token, nil
}

func (r *refreshTokenRepo) GetByToken(ctx context.Context, tx *gorm.DB, token string) (*types.RefreshToken, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.RefreshToken
	err := transaction.WithContext(ctx).Where("token = ?", token).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *refreshTokenRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uint) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.RefreshToken{}).Error
}

func (r *refreshTokenRepo) DeleteByUserID(ctx context.Context, tx *gorm.DB, userID uint) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&types.RefreshToken{}).Error
}
