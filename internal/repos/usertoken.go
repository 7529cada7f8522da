package repos

import (
  "context"
  "fmt"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/supplier-portal/assistant-backend/internal/logger"
  "github.com/supplier-portal/assistant-backend/internal/types"
)

type UserTokenRepo interface {
  // CREATE
  Create(ctx context.Context, tx *gorm.DB, userTokens []*types.UserToken) ([]*types.UserToken, error)

  // READ
  GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.UserToken, error)
  GetByAccessTokens(ctx context.Context, tx *gorm.DB, accessTokens []string) ([]*types.UserToken, error)
  GetByRefreshTokens(ctx context.Context, tx *gorm.DB, refreshTokens []string) ([]*types.UserToken, error)

  // UPDATE
  Update(ctx context.Context, tx *gorm.DB, userTokens []*types.UserToken) ([]*types.UserToken, error)

  // DELETE
  FullDeleteByAccessTokens(ctx context.Context, tx *gorm.DB, accessTokens []string) error
  FullDeleteByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) error
}

type userTokenRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
  repoLog := baseLog.With("repo", "UserTokenRepo")
  return &userTokenRepo{db: db, log: repoLog}
}

func (utr *userTokenRepo) Create(ctx context.Context, tx *gorm.DB, userTokens []*types.UserToken) ([]*types.UserToken, error) {
  transaction := tx
  if transaction == nil {
    transaction = utr.db
  }
  if len(userTokens) == 0 {
    return []*types.UserToken{}, nil
  }
  for _, ut := range userTokens {
    if ut.ID == uuid.Nil {
      ut.ID = uuid.New()
    }
  }
  if err := transaction.WithContext(ctx).Create(&userTokens).Error; err != nil {
    utr.log.Warn("Failed to create user tokens", "error", err)
    return nil, fmt.Errorf("failed to create user tokens: %w", err)
  }
  return userTokens, nil
}

func (utr *userTokenRepo) GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.UserToken, error) {
  transaction := tx
  if transaction == nil {
    transaction = utr.db
  }
  var userTokens []*types.UserToken
  if err := transaction.WithContext(ctx).
    Where("user_id IN ?", userIDs).
    Find(&userTokens).Error; err != nil {
    utr.log.Warn("Failed to get user tokens by user ids", "error", err)
    return nil, fmt.Errorf("failed to get user tokens by user ids: %w", err)
  }
  return userTokens, nil
}

func (utr *userTokenRepo) GetByAccessTokens(ctx context.Context, tx *gorm.DB, accessTokens []string) ([]*types.UserToken, error) {
  transaction := tx
  if transaction == nil {
    transaction = utr.db
  }
  var userTokens []*types.UserToken
  if err := transaction.WithContext(ctx).
    Where("access_token IN ?", accessTokens).
    Find(&userTokens).Error; err != nil {
    utr.log.Warn("Failed to get user tokens by access tokens", "error", err)
    return nil, fmt.Errorf("failed to get user tokens by access tokens: %w", err)
  }
  return userTokens, nil
}

func (utr *userTokenRepo) GetByRefreshTokens(ctx context.Context, tx *gorm.DB, refreshTokens []string) ([]*types.UserToken, error) {
  transaction := tx
  if transaction == nil {
    transaction = utr.db
  }
  var userTokens []*types.UserToken
  if err := transaction.WithContext(ctx).
    Where("refresh_token IN ?", refreshTokens).
    Find(&userTokens).Error; err != nil {
    utr.log.Warn("Failed to get user tokens by refresh tokens", "error", err)
    return nil, fmt.Errorf("failed to get user tokens by refresh tokens: %w", err)
  }
  return userTokens, nil
}

func (utr *userTokenRepo) Update(ctx context.Context, tx *gorm.DB, userTokens []*types.UserToken) ([]*types.UserToken, error) {
  transaction := tx
  if transaction == nil {
    transaction = utr.db
  }
  for _, ut := range userTokens {
    if err := transaction.WithContext(ctx).Save(ut).Error; err != nil {
      utr.log.Warn("Failed to update user token", "error", err, "userTokenID", ut.ID)
      return nil, fmt.Errorf("failed to update user token %s: %w", ut.ID, err)
    }
  }
  return userTokens, nil
}

func (utr *userTokenRepo) FullDeleteByAccessTokens(ctx context.Context, tx *gorm.DB, accessTokens []string) error {
  transaction := tx
  if transaction == nil {
    transaction = utr.db
  }
  if len(accessTokens) == 0 {
    return nil
  }
  if err := transaction.WithContext(ctx).
    Unscoped().
    Where("access_token IN ?", accessTokens).
    Delete(&types.UserToken{}).Error; err != nil {
    utr.log.Warn("Failed to delete user tokens by access tokens", "error", err)
    return fmt.Errorf("failed to delete user tokens by access tokens: %w", err)
  }
  return nil
}

func (utr *userTokenRepo) FullDeleteByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = utr.db
  }
  if len(userIDs) == 0 {
    return nil
  }
  if err := transaction.WithContext(ctx).
    Unscoped().
    Where("user_id IN ?", userIDs).
    Delete(&types.UserToken{}).Error; err != nil {
    utr.log.Warn("Failed to delete user tokens by user ids", "error", err)
    return fmt.Errorf("failed to delete user tokens by user ids: %w", err)
  }
  return nil
}
