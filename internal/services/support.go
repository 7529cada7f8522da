package services

import (
  "context"
  "encoding/json"
  "fmt"
  "os"
  "time"

  "github.com/google/uuid"
  "github.com/redis/go-redis/v9"
  "gorm.io/gorm"

  "github.com/supplier-portal/assistant-backend/internal/logger"
  "github.com/supplier-portal/assistant-backend/internal/repos"
  "github.com/supplier-portal/assistant-backend/internal/requestdata"
  "github.com/supplier-portal/assistant-backend/internal/socket"
  "github.com/supplier-portal/assistant-backend/internal/types"
)

const (
  supportListCacheKey = "support:active_requests"
  supportListCacheTTL = 10 * time.Second
)

type SupportService interface {
  // CallOperator opens a support request for the chat and marks the
  // triggering bot message. Calling it twice for the same chat reuses the
  // pending request.
  CallOperator(ctx context.Context, chatID string) (*types.SupportRequest, bool, error)

  ListActive(ctx context.Context) ([]*types.SupportRequestView, error)
  Resolve(ctx context.Context, chatID string) error
}

type supportService struct {
  db            *gorm.DB
  log           *logger.Logger
  requestRepo   repos.SupportRequestRepo
  messageRepo   repos.ChatMessageRepo
  userRepo      repos.UserRepo
  email         EmailService
  text          TextService
  hub           *socket.Hub
  cache         *redis.Client
  operatorEmail string
  operatorPhone string
}

func NewSupportService(
  db *gorm.DB,
  log *logger.Logger,
  requestRepo repos.SupportRequestRepo,
  messageRepo repos.ChatMessageRepo,
  userRepo repos.UserRepo,
  email EmailService,
  text TextService,
  hub *socket.Hub,
  cache *redis.Client,
) SupportService {
  serviceLog := log.With("service", "SupportService")
  return &supportService{
    db:            db,
    log:           serviceLog,
    requestRepo:   requestRepo,
    messageRepo:   messageRepo,
    userRepo:      userRepo,
    email:         email,
    text:          text,
    hub:           hub,
    cache:         cache,
    operatorEmail: os.Getenv("SUPPORT_OPERATOR_EMAIL"),
    operatorPhone: os.Getenv("SUPPORT_OPERATOR_PHONE"),
  }
}

func (ss *supportService) CallOperator(ctx context.Context, chatID string) (*types.SupportRequest, bool, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    ss.log.Warn("No Request Data found in context, Cannot proceed.")
    return nil, false, fmt.Errorf("No Request Data found in context.")
  }
  if chatID == "" {
    return nil, false, fmt.Errorf("chat id is required")
  }

  var request *types.SupportRequest
  var created bool
  err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    messages, mErr := ss.messageRepo.GetByChatID(ctx, tx, chatID)
    if mErr != nil {
      return mErr
    }
    if len(messages) == 0 {
      ss.log.Warn("Cannot call operator for an empty chat, Cannot proceed.", "chatID", chatID)
      return fmt.Errorf("chat %q has no messages", chatID)
    }
    if messages[0].UserID != rd.UserID && rd.Role == types.RoleUser {
      ss.log.Warn("Chat belongs to another user, Cannot proceed.", "chatID", chatID, "userID", rd.UserID)
      return fmt.Errorf("chat belongs to another user")
    }

    // Mark the newest bot message as the escalation point.
    var lastBot *types.ChatMessage
    for i := len(messages) - 1; i >= 0; i-- {
      if messages[i].IsBot {
        lastBot = messages[i]
        break
      }
    }
    if lastBot == nil {
      lastBot = messages[len(messages)-1]
    }
    now := time.Now().UTC()
    md := lastBot.Metadata()
    md.OperatorRequest = true
    md.RequestTime = &now
    encoded, eErr := md.Encode()
    if eErr != nil {
      return fmt.Errorf("Failed to encode message metadata: %w", eErr)
    }
    if _, uErr := ss.messageRepo.UpdateMetadata(ctx, tx, lastBot.ID, encoded); uErr != nil {
      return uErr
    }

    r, c, cErr := ss.requestRepo.CreateIfAbsent(ctx, tx, &types.SupportRequest{
      ChatID:    chatID,
      MessageID: lastBot.ID,
      UserID:    messages[0].UserID,
      CreatedAt: now,
    })
    if cErr != nil {
      return cErr
    }
    request = r
    created = c
    return nil
  })
  if err != nil {
    return nil, false, err
  }

  if created {
    ss.invalidateListCache(ctx)
    ss.notifyOperators(ctx, request)
  }
  return request, created, nil
}

func (ss *supportService) ListActive(ctx context.Context) ([]*types.SupportRequestView, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    ss.log.Warn("No Request Data found in context, Cannot proceed.")
    return nil, fmt.Errorf("No Request Data found in context.")
  }

  // The operator dashboard polls this list aggressively, so serve a short
  // lived cached copy when we have one.
  if ss.cache != nil {
    raw, cErr := ss.cache.Get(ctx, supportListCacheKey).Result()
    if cErr == nil {
      var cached []*types.SupportRequestView
      uErr := json.Unmarshal([]byte(raw), &cached)
      if uErr == nil {
        return cached, nil
      }
      ss.log.Warn("Failed to decode cached support request list, refetching", "error", uErr)
    }
  }

  requests, err := ss.requestRepo.ListActive(ctx, nil)
  if err != nil {
    return nil, err
  }
  views := make([]*types.SupportRequestView, 0, len(requests))
  for _, r := range requests {
    count, cErr := ss.messageRepo.CountByChatID(ctx, nil, r.ChatID)
    if cErr != nil {
      return nil, cErr
    }
    views = append(views, &types.SupportRequestView{
      ChatID:       r.ChatID,
      MessageID:    r.MessageID,
      CreatedAt:    r.CreatedAt,
      MessageCount: count,
      User:         r.User,
    })
  }

  if ss.cache != nil {
    if raw, mErr := json.Marshal(views); mErr == nil {
      if sErr := ss.cache.Set(ctx, supportListCacheKey, raw, supportListCacheTTL).Err(); sErr != nil {
        ss.log.Warn("Failed to cache support request list", "error", sErr)
      }
    }
  }
  return views, nil
}

func (ss *supportService) Resolve(ctx context.Context, chatID string) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    ss.log.Warn("No Request Data found in context, Cannot proceed.")
    return fmt.Errorf("No Request Data found in context.")
  }
  var resolved int64
  err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    n, rErr := ss.requestRepo.ResolveByChatID(ctx, tx, chatID)
    if rErr != nil {
      return rErr
    }
    resolved = n
    return nil
  })
  if err != nil {
    return err
  }
  if resolved > 0 {
    ss.invalidateListCache(ctx)
    if ss.hub != nil {
      ss.hub.BroadcastGlobal(ctx, socket.Message{
        Channel: socket.OperatorsChannel,
        Data: map[string]interface{}{
          "type":    "support_request_resolved",
          "chat_id": chatID,
        },
      })
    }
  }
  return nil
}

func (ss *supportService) invalidateListCache(ctx context.Context) {
  if ss.cache == nil {
    return
  }
  if err := ss.cache.Del(ctx, supportListCacheKey).Err(); err != nil {
    ss.log.Warn("Failed to invalidate support request list cache", "error", err)
  }
}

// notifyOperators fans the new request out over the socket hub and pings the
// on-call operator over email/SMS when those integrations are configured.
func (ss *supportService) notifyOperators(ctx context.Context, request *types.SupportRequest) {
  if ss.hub != nil {
    ss.hub.BroadcastGlobal(ctx, socket.Message{
      Channel: socket.OperatorsChannel,
      Data: map[string]interface{}{
        "type":    "support_request_created",
        "chat_id": request.ChatID,
      },
    })
  }

  users, err := ss.userRepo.GetByIDs(ctx, nil, []uuid.UUID{request.UserID})
  if err != nil || len(users) == 0 {
    ss.log.Warn("Failed to load requesting user for operator notification", "error", err)
    return
  }
  user := users[0]

  if ss.email != nil && ss.operatorEmail != "" {
    subject := "Новая заявка на помощь оператора"
    body := fmt.Sprintf("Пользователь %s запросил помощь оператора в чате %s.", user.Username, request.ChatID)
    if eErr := ss.email.SendEmail(ctx, ss.operatorEmail, subject, body, ""); eErr != nil {
      ss.log.Warn("Failed to send operator notification email", "error", eErr)
    }
  }
  if ss.text != nil && ss.operatorPhone != "" {
    body := fmt.Sprintf("Заявка на оператора: чат %s от %s", request.ChatID, user.Username)
    if tErr := ss.text.SendText(ctx, ss.operatorPhone, body); tErr != nil {
      ss.log.Warn("Failed to send operator notification text", "error", tErr)
    }
  }
}
