package repos

import (
  "context"
  "fmt"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/supplier-portal/assistant-backend/internal/logger"
  "github.com/supplier-portal/assistant-backend/internal/types"
)

type SupportRequestRepo interface {
  // CreateIfAbsent opens a support request for a chat unless one is already
  // pending. Returns the request and whether it was newly created.
  CreateIfAbsent(ctx context.Context, tx *gorm.DB, request *types.SupportRequest) (*types.SupportRequest, bool, error)

  GetActiveByChatID(ctx context.Context, tx *gorm.DB, chatID string) (*types.SupportRequest, error)
  ListActive(ctx context.Context, tx *gorm.DB) ([]*types.SupportRequest, error)

  // ResolveByChatID closes every pending request for the chat. Resolving a
  // chat with no pending request is a no-op.
  ResolveByChatID(ctx context.Context, tx *gorm.DB, chatID string) (int64, error)
}

type supportRequestRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewSupportRequestRepo(db *gorm.DB, baseLog *logger.Logger) SupportRequestRepo {
  repoLog := baseLog.With("repo", "SupportRequestRepo")
  return &supportRequestRepo{db: db, log: repoLog}
}

func (srr *supportRequestRepo) CreateIfAbsent(ctx context.Context, tx *gorm.DB, request *types.SupportRequest) (*types.SupportRequest, bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = srr.db
  }
  existing, err := srr.GetActiveByChatID(ctx, transaction, request.ChatID)
  if err != nil {
    return nil, false, err
  }
  if existing != nil {
    return existing, false, nil
  }
  if request.ID == uuid.Nil {
    request.ID = uuid.New()
  }
  if request.CreatedAt.IsZero() {
    request.CreatedAt = time.Now().UTC()
  }
  if err := transaction.WithContext(ctx).Create(request).Error; err != nil {
    srr.log.Warn("Failed to create support request", "error", err, "chatID", request.ChatID)
    return nil, false, fmt.Errorf("failed to create support request: %w", err)
  }
  return request, true, nil
}

func (srr *supportRequestRepo) GetActiveByChatID(ctx context.Context, tx *gorm.DB, chatID string) (*types.SupportRequest, error) {
  transaction := tx
  if transaction == nil {
    transaction = srr.db
  }
  var requests []*types.SupportRequest
  if err := transaction.WithContext(ctx).
    Where("chat_id = ? AND resolved = ?", chatID, false).
    Limit(1).
    Find(&requests).Error; err != nil {
    srr.log.Warn("Failed to get active support request", "error", err, "chatID", chatID)
    return nil, fmt.Errorf("failed to get active support request: %w", err)
  }
  if len(requests) == 0 {
    return nil, nil
  }
  return requests[0], nil
}

func (srr *supportRequestRepo) ListActive(ctx context.Context, tx *gorm.DB) ([]*types.SupportRequest, error) {
  transaction := tx
  if transaction == nil {
    transaction = srr.db
  }
  var requests []*types.SupportRequest
  if err := transaction.WithContext(ctx).
    Preload("User").
    Where("resolved = ?", false).
    Order("created_at DESC").
    Find(&requests).Error; err != nil {
    srr.log.Warn("Failed to list active support requests", "error", err)
    return nil, fmt.Errorf("failed to list active support requests: %w", err)
  }
  return requests, nil
}

func (srr *supportRequestRepo) ResolveByChatID(ctx context.Context, tx *gorm.DB, chatID string) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = srr.db
  }
  now := time.Now().UTC()
  result := transaction.WithContext(ctx).
    Model(&types.SupportRequest{}).
    Where("chat_id = ? AND resolved = ?", chatID, false).
    Updates(map[string]interface{}{
      "resolved":    true,
      "resolved_at": &now,
    })
  if result.Error != nil {
    srr.log.Warn("Failed to resolve support requests", "error", result.Error, "chatID", chatID)
    return 0, fmt.Errorf("failed to resolve support requests: %w", result.Error)
  }
  return result.RowsAffected, nil
}
