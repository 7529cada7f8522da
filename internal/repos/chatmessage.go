package repos

import (
  "context"
  "fmt"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/supplier-portal/assistant-backend/internal/logger"
  "github.com/supplier-portal/assistant-backend/internal/types"
)

type ChatMessageRepo interface {
  // CREATE
  Create(ctx context.Context, tx *gorm.DB, messages []*types.ChatMessage) ([]*types.ChatMessage, error)

  // READ
  GetByIDs(ctx context.Context, tx *gorm.DB, messageIDs []uuid.UUID) ([]*types.ChatMessage, error)
  GetByChatID(ctx context.Context, tx *gorm.DB, chatID string) ([]*types.ChatMessage, error)
  GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ChatMessage, error)
  ChatBelongsToUser(ctx context.Context, tx *gorm.DB, chatID string, userID uuid.UUID) (bool, error)
  CountByChatID(ctx context.Context, tx *gorm.DB, chatID string) (int64, error)

  // UPDATE
  UpdateMetadata(ctx context.Context, tx *gorm.DB, messageID uuid.UUID, metadata datatypes.JSON) (*types.ChatMessage, error)

  // DELETE
  FullDeleteByChatID(ctx context.Context, tx *gorm.DB, chatID string) error
}

type chatMessageRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewChatMessageRepo(db *gorm.DB, baseLog *logger.Logger) ChatMessageRepo {
  repoLog := baseLog.With("repo", "ChatMessageRepo")
  return &chatMessageRepo{db: db, log: repoLog}
}

func (cmr *chatMessageRepo) Create(ctx context.Context, tx *gorm.DB, messages []*types.ChatMessage) ([]*types.ChatMessage, error) {
  transaction := tx
  if transaction == nil {
    transaction = cmr.db
  }
  if len(messages) == 0 {
    return []*types.ChatMessage{}, nil
  }
  for _, m := range messages {
    if m.ID == uuid.Nil {
      m.ID = uuid.New()
    }
  }
  if err := transaction.WithContext(ctx).Create(&messages).Error; err != nil {
    cmr.log.Warn("Failed to create chat messages", "error", err)
    return nil, fmt.Errorf("failed to create chat messages: %w", err)
  }
  return messages, nil
}

func (cmr *chatMessageRepo) GetByIDs(ctx context.Context, tx *gorm.DB, messageIDs []uuid.UUID) ([]*types.ChatMessage, error) {
  transaction := tx
  if transaction == nil {
    transaction = cmr.db
  }
  var messages []*types.ChatMessage
  if err := transaction.WithContext(ctx).
    Where("id IN ?", messageIDs).
    Find(&messages).Error; err != nil {
    cmr.log.Warn("Failed to get chat messages by ids", "error", err)
    return nil, fmt.Errorf("failed to get chat messages by ids: %w", err)
  }
  return messages, nil
}

// GetByChatID returns the full conversation, oldest message first.
func (cmr *chatMessageRepo) GetByChatID(ctx context.Context, tx *gorm.DB, chatID string) ([]*types.ChatMessage, error) {
  transaction := tx
  if transaction == nil {
    transaction = cmr.db
  }
  var messages []*types.ChatMessage
  if err := transaction.WithContext(ctx).
    Where("chat_id = ?", chatID).
    Order("timestamp ASC").
    Find(&messages).Error; err != nil {
    cmr.log.Warn("Failed to get chat messages by chat id", "error", err, "chatID", chatID)
    return nil, fmt.Errorf("failed to get chat messages by chat id: %w", err)
  }
  return messages, nil
}

// GetByUserID returns every message across all of a user's chats, oldest
// first. The history projection groups them by chat id in memory.
func (cmr *chatMessageRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ChatMessage, error) {
  transaction := tx
  if transaction == nil {
    transaction = cmr.db
  }
  var messages []*types.ChatMessage
  if err := transaction.WithContext(ctx).
    Where("user_id = ?", userID).
    Order("timestamp ASC").
    Find(&messages).Error; err != nil {
    cmr.log.Warn("Failed to get chat messages by user id", "error", err, "userID", userID)
    return nil, fmt.Errorf("failed to get chat messages by user id: %w", err)
  }
  return messages, nil
}

func (cmr *chatMessageRepo) ChatBelongsToUser(ctx context.Context, tx *gorm.DB, chatID string, userID uuid.UUID) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = cmr.db
  }
  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.ChatMessage{}).
    Where("chat_id = ? AND user_id = ?", chatID, userID).
    Count(&count).Error; err != nil {
    return false, fmt.Errorf("failed checking chat ownership: %w", err)
  }
  return count > 0, nil
}

func (cmr *chatMessageRepo) CountByChatID(ctx context.Context, tx *gorm.DB, chatID string) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = cmr.db
  }
  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.ChatMessage{}).
    Where("chat_id = ?", chatID).
    Count(&count).Error; err != nil {
    return 0, fmt.Errorf("failed to count chat messages: %w", err)
  }
  return count, nil
}

func (cmr *chatMessageRepo) UpdateMetadata(ctx context.Context, tx *gorm.DB, messageID uuid.UUID, metadata datatypes.JSON) (*types.ChatMessage, error) {
  transaction := tx
  if transaction == nil {
    transaction = cmr.db
  }
  if err := transaction.WithContext(ctx).
    Model(&types.ChatMessage{}).
    Where("id = ?", messageID).
    Update("message_metadata", metadata).Error; err != nil {
    cmr.log.Warn("Failed to update chat message metadata", "error", err, "messageID", messageID)
    return nil, fmt.Errorf("failed to update chat message metadata: %w", err)
  }
  found, err := cmr.GetByIDs(ctx, transaction, []uuid.UUID{messageID})
  if err != nil {
    return nil, err
  }
  if len(found) == 0 {
    return nil, fmt.Errorf("no chat message with id %s", messageID)
  }
  return found[0], nil
}

func (cmr *chatMessageRepo) FullDeleteByChatID(ctx context.Context, tx *gorm.DB, chatID string) error {
  transaction := tx
  if transaction == nil {
    transaction = cmr.db
  }
  if err := transaction.WithContext(ctx).
    Unscoped().
    Where("chat_id = ?", chatID).
    Delete(&types.ChatMessage{}).Error; err != nil {
    cmr.log.Warn("Failed to delete chat messages by chat id", "error", err, "chatID", chatID)
    return fmt.Errorf("failed to delete chat messages by chat id: %w", err)
  }
  return nil
}
