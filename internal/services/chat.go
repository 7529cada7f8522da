package services

import (
  "context"
  "fmt"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/supplier-portal/assistant-backend/internal/history"
  "github.com/supplier-portal/assistant-backend/internal/logger"
  "github.com/supplier-portal/assistant-backend/internal/repos"
  "github.com/supplier-portal/assistant-backend/internal/requestdata"
  "github.com/supplier-portal/assistant-backend/internal/socket"
  "github.com/supplier-portal/assistant-backend/internal/types"
)

type ChatService interface {
  // SendMessage persists the user's message, runs the assistant and
  // persists its reply; both stored messages are returned in order. With
  // isBot set the message is stored verbatim as a prebuilt assistant turn
  // and nothing is generated.
  SendMessage(ctx context.Context, chatID, message string, isBot bool) ([]*types.ChatMessage, error)

  GetConversation(ctx context.Context, chatID string) ([]*types.ChatMessage, error)
  ListChatIDs(ctx context.Context) ([]string, error)
  GetHistorySummary(ctx context.Context, query string, filter history.Filter, order history.SortOrder) ([]history.Item, error)

  UpdateMessageMetadata(ctx context.Context, messageID uuid.UUID, patch []byte) (*types.ChatMessage, error)
  FinishChat(ctx context.Context, chatID string, rating int, comment string) (*types.ChatRating, error)
  DeleteChat(ctx context.Context, chatID string) error
}

type chatService struct {
  db          *gorm.DB
  log         *logger.Logger
  messageRepo repos.ChatMessageRepo
  ratingRepo  repos.ChatRatingRepo
  assistant   AssistantService
  hub         *socket.Hub
}

func NewChatService(
  db *gorm.DB,
  log *logger.Logger,
  messageRepo repos.ChatMessageRepo,
  ratingRepo repos.ChatRatingRepo,
  assistant AssistantService,
  hub *socket.Hub,
) ChatService {
  serviceLog := log.With("service", "ChatService")
  return &chatService{
    db:          db,
    log:         serviceLog,
    messageRepo: messageRepo,
    ratingRepo:  ratingRepo,
    assistant:   assistant,
    hub:         hub,
  }
}

func (cs *chatService) SendMessage(ctx context.Context, chatID, message string, isBot bool) ([]*types.ChatMessage, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    cs.log.Warn("No Request Data found in context, Cannot proceed.")
    return nil, fmt.Errorf("No Request Data found in context.")
  }
  if chatID == "" {
    return nil, fmt.Errorf("chat id is required")
  }
  if message == "" {
    return nil, fmt.Errorf("message is required")
  }

  now := time.Now().UTC()
  var stored []*types.ChatMessage
  if isBot {
    // A prebuilt assistant turn posted by the client; stored verbatim,
    // nothing is generated.
    stored = []*types.ChatMessage{{
      ID:        uuid.New(),
      ChatID:    chatID,
      UserID:    rd.UserID,
      Message:   message,
      IsBot:     true,
      Timestamp: now,
    }}
  } else {
    answer := cs.assistant.Answer(ctx, message)
    userMsg := &types.ChatMessage{
      ID:        uuid.New(),
      ChatID:    chatID,
      UserID:    rd.UserID,
      Message:   message,
      IsBot:     false,
      Timestamp: now,
    }
    botMeta := types.MessageMetadata{
      Source:          answer.Source,
      OperatorRequest: answer.NeedsOperator,
    }
    encodedMeta, mErr := botMeta.Encode()
    if mErr != nil {
      cs.log.Warn("Failed to encode bot message metadata, Cannot proceed. Returning error.", "error", mErr)
      return nil, fmt.Errorf("Failed to encode bot message metadata: %w", mErr)
    }
    botMsg := &types.ChatMessage{
      ID:              uuid.New(),
      ChatID:          chatID,
      UserID:          rd.UserID,
      Message:         answer.Answer,
      IsBot:           true,
      MessageMetadata: encodedMeta,
      Timestamp:       now.Add(time.Millisecond),
    }
    stored = []*types.ChatMessage{userMsg, botMsg}
  }

  if err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    owned, oErr := cs.messageRepo.ChatBelongsToUser(ctx, tx, chatID, rd.UserID)
    if oErr != nil {
      return oErr
    }
    count, cErr := cs.messageRepo.CountByChatID(ctx, tx, chatID)
    if cErr != nil {
      return cErr
    }
    if count > 0 && !owned {
      cs.log.Warn("Chat belongs to another user, Cannot proceed.", "chatID", chatID, "userID", rd.UserID)
      return fmt.Errorf("chat belongs to another user")
    }
    if _, err := cs.messageRepo.Create(ctx, tx, stored); err != nil {
      return err
    }
    return nil
  }); err != nil {
    return nil, err
  }

  if cs.hub != nil {
    cs.hub.BroadcastGlobal(ctx, socket.Message{
      Channel: socket.UserChannel(rd.UserID),
      Data: map[string]interface{}{
        "type":    "chat_message",
        "chat_id": chatID,
        "message": stored[len(stored)-1],
      },
    })
  }
  return stored, nil
}

func (cs *chatService) GetConversation(ctx context.Context, chatID string) ([]*types.ChatMessage, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    cs.log.Warn("No Request Data found in context, Cannot proceed.")
    return nil, fmt.Errorf("No Request Data found in context.")
  }
  messages, err := cs.messageRepo.GetByChatID(ctx, nil, chatID)
  if err != nil {
    cs.log.Warn("Failed to load conversation, Cannot proceed. Returning error.", "error", err, "chatID", chatID)
    return nil, fmt.Errorf("Failed to load conversation: %w", err)
  }
  // Operators and admins can open any conversation; users only their own.
  if rd.Role == types.RoleUser {
    for _, m := range messages {
      if m.UserID != rd.UserID {
        cs.log.Warn("Chat belongs to another user, Cannot proceed.", "chatID", chatID, "userID", rd.UserID)
        return nil, fmt.Errorf("chat belongs to another user")
      }
    }
  }
  return messages, nil
}

func (cs *chatService) ListChatIDs(ctx context.Context) ([]string, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    cs.log.Warn("No Request Data found in context, Cannot proceed.")
    return nil, fmt.Errorf("No Request Data found in context.")
  }
  messages, err := cs.messageRepo.GetByUserID(ctx, nil, rd.UserID)
  if err != nil {
    cs.log.Warn("Failed to load user messages, Cannot proceed. Returning error.", "error", err)
    return nil, fmt.Errorf("Failed to load user messages: %w", err)
  }
  seen := make(map[string]bool)
  var chatIDs []string
  for _, m := range messages {
    if !seen[m.ChatID] {
      seen[m.ChatID] = true
      chatIDs = append(chatIDs, m.ChatID)
    }
  }
  return chatIDs, nil
}

func (cs *chatService) GetHistorySummary(ctx context.Context, query string, filter history.Filter, order history.SortOrder) ([]history.Item, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    cs.log.Warn("No Request Data found in context, Cannot proceed.")
    return nil, fmt.Errorf("No Request Data found in context.")
  }
  messages, err := cs.messageRepo.GetByUserID(ctx, nil, rd.UserID)
  if err != nil {
    cs.log.Warn("Failed to load user messages, Cannot proceed. Returning error.", "error", err)
    return nil, fmt.Errorf("Failed to load user messages: %w", err)
  }
  items := history.FormatChatHistory(messages)
  items = history.Search(items, query)
  items = history.ApplyFilter(items, filter)
  items = history.ApplySort(items, order)
  return items, nil
}

func (cs *chatService) UpdateMessageMetadata(ctx context.Context, messageID uuid.UUID, patch []byte) (*types.ChatMessage, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    cs.log.Warn("No Request Data found in context, Cannot proceed.")
    return nil, fmt.Errorf("No Request Data found in context.")
  }
  var updated *types.ChatMessage
  err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    found, fErr := cs.messageRepo.GetByIDs(ctx, tx, []uuid.UUID{messageID})
    if fErr != nil {
      return fErr
    }
    if len(found) == 0 {
      return fmt.Errorf("no chat message with id %s", messageID)
    }
    msg := found[0]
    if rd.Role == types.RoleUser && msg.UserID != rd.UserID {
      cs.log.Warn("Message belongs to another user, Cannot proceed.", "messageID", messageID, "userID", rd.UserID)
      return fmt.Errorf("message belongs to another user")
    }
    merged, mErr := types.MergeMetadata(msg.MessageMetadata, patch)
    if mErr != nil {
      cs.log.Warn("Failed to merge message metadata, Cannot proceed. Returning error.", "error", mErr)
      return fmt.Errorf("Failed to merge message metadata: %w", mErr)
    }
    // Feedback rates the assistant's answer, so it only lands on bot turns.
    if !msg.IsBot {
      meta, dErr := types.DecodeMessageMetadata(merged)
      if dErr != nil {
        return dErr
      }
      if meta.Feedback != nil {
        cs.log.Warn("Feedback patch on a non-bot message, Cannot proceed.", "messageID", messageID)
        return fmt.Errorf("feedback can only be set on assistant messages")
      }
    }
    u, uErr := cs.messageRepo.UpdateMetadata(ctx, tx, messageID, merged)
    if uErr != nil {
      return uErr
    }
    updated = u
    return nil
  })
  if err != nil {
    return nil, err
  }
  return updated, nil
}

func (cs *chatService) FinishChat(ctx context.Context, chatID string, rating int, comment string) (*types.ChatRating, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    cs.log.Warn("No Request Data found in context, Cannot proceed.")
    return nil, fmt.Errorf("No Request Data found in context.")
  }
  if rating < 1 || rating > 5 {
    return nil, fmt.Errorf("rating must be between 1 and 5")
  }
  var saved *types.ChatRating
  err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    owned, oErr := cs.messageRepo.ChatBelongsToUser(ctx, tx, chatID, rd.UserID)
    if oErr != nil {
      return oErr
    }
    if !owned {
      cs.log.Warn("Chat belongs to another user, Cannot proceed.", "chatID", chatID, "userID", rd.UserID)
      return fmt.Errorf("chat belongs to another user")
    }
    r, uErr := cs.ratingRepo.Upsert(ctx, tx, &types.ChatRating{
      ChatID:  chatID,
      UserID:  rd.UserID,
      Rating:  rating,
      Comment: comment,
    })
    if uErr != nil {
      return uErr
    }
    saved = r
    return nil
  })
  if err != nil {
    return nil, err
  }
  return saved, nil
}

func (cs *chatService) DeleteChat(ctx context.Context, chatID string) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    cs.log.Warn("No Request Data found in context, Cannot proceed.")
    return fmt.Errorf("No Request Data found in context.")
  }
  return cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    owned, oErr := cs.messageRepo.ChatBelongsToUser(ctx, tx, chatID, rd.UserID)
    if oErr != nil {
      return oErr
    }
    if !owned && rd.Role == types.RoleUser {
      cs.log.Warn("Chat belongs to another user, Cannot proceed.", "chatID", chatID, "userID", rd.UserID)
      return fmt.Errorf("chat belongs to another user")
    }
    if err := cs.messageRepo.FullDeleteByChatID(ctx, tx, chatID); err != nil {
      return err
    }
    if err := cs.ratingRepo.FullDeleteByChatID(ctx, tx, chatID); err != nil {
      return err
    }
    return nil
  })
}
