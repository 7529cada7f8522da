package repos

import (
  "context"
  "errors"
  "fmt"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/supplier-portal/assistant-backend/internal/logger"
  "github.com/supplier-portal/assistant-backend/internal/types"
)

type ChatRatingRepo interface {
  GetByChatIDs(ctx context.Context, tx *gorm.DB, chatIDs []string) ([]*types.ChatRating, error)
  GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ChatRating, error)

  // Upsert writes the rating for a chat, replacing any previous one. Rating
  // a finished chat again just overwrites the stored value.
  Upsert(ctx context.Context, tx *gorm.DB, rating *types.ChatRating) (*types.ChatRating, error)

  FullDeleteByChatID(ctx context.Context, tx *gorm.DB, chatID string) error
}

type chatRatingRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewChatRatingRepo(db *gorm.DB, baseLog *logger.Logger) ChatRatingRepo {
  repoLog := baseLog.With("repo", "ChatRatingRepo")
  return &chatRatingRepo{db: db, log: repoLog}
}

func (crr *chatRatingRepo) GetByChatIDs(ctx context.Context, tx *gorm.DB, chatIDs []string) ([]*types.ChatRating, error) {
  transaction := tx
  if transaction == nil {
    transaction = crr.db
  }
  var ratings []*types.ChatRating
  if err := transaction.WithContext(ctx).
    Where("chat_id IN ?", chatIDs).
    Find(&ratings).Error; err != nil {
    crr.log.Warn("Failed to get chat ratings by chat ids", "error", err)
    return nil, fmt.Errorf("failed to get chat ratings by chat ids: %w", err)
  }
  return ratings, nil
}

func (crr *chatRatingRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ChatRating, error) {
  transaction := tx
  if transaction == nil {
    transaction = crr.db
  }
  var ratings []*types.ChatRating
  if err := transaction.WithContext(ctx).
    Where("user_id = ?", userID).
    Find(&ratings).Error; err != nil {
    crr.log.Warn("Failed to get chat ratings by user id", "error", err, "userID", userID)
    return nil, fmt.Errorf("failed to get chat ratings by user id: %w", err)
  }
  return ratings, nil
}

func (crr *chatRatingRepo) Upsert(ctx context.Context, tx *gorm.DB, rating *types.ChatRating) (*types.ChatRating, error) {
  transaction := tx
  if transaction == nil {
    transaction = crr.db
  }
  var existing types.ChatRating
  err := transaction.WithContext(ctx).
    Where("chat_id = ?", rating.ChatID).
    First(&existing).Error
  if err != nil {
    if !errors.Is(err, gorm.ErrRecordNotFound) {
      crr.log.Warn("Failed to look up chat rating", "error", err, "chatID", rating.ChatID)
      return nil, fmt.Errorf("failed to look up chat rating: %w", err)
    }
    if rating.ID == uuid.Nil {
      rating.ID = uuid.New()
    }
    if rating.Timestamp.IsZero() {
      rating.Timestamp = time.Now().UTC()
    }
    if err := transaction.WithContext(ctx).Create(rating).Error; err != nil {
      crr.log.Warn("Failed to create chat rating", "error", err, "chatID", rating.ChatID)
      return nil, fmt.Errorf("failed to create chat rating: %w", err)
    }
    return rating, nil
  }
  existing.Rating = rating.Rating
  existing.Comment = rating.Comment
  existing.Timestamp = time.Now().UTC()
  if err := transaction.WithContext(ctx).Save(&existing).Error; err != nil {
    crr.log.Warn("Failed to update chat rating", "error", err, "chatID", rating.ChatID)
    return nil, fmt.Errorf("failed to update chat rating: %w", err)
  }
  return &existing, nil
}

func (crr *chatRatingRepo) FullDeleteByChatID(ctx context.Context, tx *gorm.DB, chatID string) error {
  transaction := tx
  if transaction == nil {
    transaction = crr.db
  }
  if err := transaction.WithContext(ctx).
    Unscoped().
    Where("chat_id = ?", chatID).
    Delete(&types.ChatRating{}).Error; err != nil {
    crr.log.Warn("Failed to delete chat rating by chat id", "error", err, "chatID", chatID)
    return fmt.Errorf("failed to delete chat rating by chat id: %w", err)
  }
  return nil
}
