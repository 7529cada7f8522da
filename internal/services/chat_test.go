package services

import (
  "testing"

  "github.com/stretchr/testify/require"
  "gorm.io/gorm"

  "github.com/supplier-portal/assistant-backend/internal/history"
  "github.com/supplier-portal/assistant-backend/internal/logger"
  "github.com/supplier-portal/assistant-backend/internal/repos"
  "github.com/supplier-portal/assistant-backend/internal/types"
)

func newChatService(db *gorm.DB) ChatService {
  log := logger.NewNop()
  messageRepo := repos.NewChatMessageRepo(db, log)
  ratingRepo := repos.NewChatRatingRepo(db, log)
  assistant := NewAssistantService(log, nil)
  return NewChatService(db, log, messageRepo, ratingRepo, assistant, nil)
}

func TestSendMessage_StoresExchange(t *testing.T) {
  db := newTestDB(t)
  svc := newChatService(db)
  user := newTestUser(t, db, "supplier1", types.RoleUser)
  ctx := ctxFor(user)

  messages, err := svc.SendMessage(ctx, "chat-1", "Как участвовать в тендере?", false)
  require.NoError(t, err)
  require.Len(t, messages, 2)

  question, answer := messages[0], messages[1]
  require.False(t, question.IsBot)
  require.Equal(t, "Как участвовать в тендере?", question.Message)
  require.True(t, answer.IsBot)
  require.Contains(t, answer.Message, "Для участия в тендерах")
  require.True(t, answer.Timestamp.After(question.Timestamp))

  md := answer.Metadata()
  require.Equal(t, "Федеральный закон №44-ФЗ от 05.04.2013, статья 24", md.Source)
  require.False(t, md.OperatorRequest)

  stored, err := svc.GetConversation(ctx, "chat-1")
  require.NoError(t, err)
  require.Len(t, stored, 2)
  require.Equal(t, question.ID, stored[0].ID)
  require.Equal(t, answer.ID, stored[1].ID)
}

func TestSendMessage_UnknownTopicFlagsOperator(t *testing.T) {
  db := newTestDB(t)
  svc := newChatService(db)
  user := newTestUser(t, db, "supplier1", types.RoleUser)

  messages, err := svc.SendMessage(ctxFor(user), "chat-1", "Хочу пожаловаться на заказчика", false)
  require.NoError(t, err)
  md := messages[1].Metadata()
  require.True(t, md.OperatorRequest)
}

func TestSendMessage_RejectsForeignChat(t *testing.T) {
  db := newTestDB(t)
  svc := newChatService(db)
  owner := newTestUser(t, db, "owner", types.RoleUser)
  other := newTestUser(t, db, "other", types.RoleUser)

  _, err := svc.SendMessage(ctxFor(owner), "chat-1", "Вопрос про оплату", false)
  require.NoError(t, err)

  _, err = svc.SendMessage(ctxFor(other), "chat-1", "попытка вклиниться", false)
  require.Error(t, err)

  // A fresh chat id is fine for anyone.
  _, err = svc.SendMessage(ctxFor(other), "chat-2", "Вопрос про оплату", false)
  require.NoError(t, err)
}

func TestSendMessage_RequiresInput(t *testing.T) {
  db := newTestDB(t)
  svc := newChatService(db)
  user := newTestUser(t, db, "supplier1", types.RoleUser)

  _, err := svc.SendMessage(ctxFor(user), "", "вопрос", false)
  require.Error(t, err)
  _, err = svc.SendMessage(ctxFor(user), "chat-1", "", false)
  require.Error(t, err)
}

func TestGetConversation_RoleVisibility(t *testing.T) {
  db := newTestDB(t)
  svc := newChatService(db)
  owner := newTestUser(t, db, "owner", types.RoleUser)
  other := newTestUser(t, db, "other", types.RoleUser)
  operator := newTestUser(t, db, "operator1", types.RoleOperator)

  _, err := svc.SendMessage(ctxFor(owner), "chat-1", "Вопрос про оплату", false)
  require.NoError(t, err)

  _, err = svc.GetConversation(ctxFor(other), "chat-1")
  require.Error(t, err)

  messages, err := svc.GetConversation(ctxFor(operator), "chat-1")
  require.NoError(t, err)
  require.Len(t, messages, 2)
}

func TestListChatIDs(t *testing.T) {
  db := newTestDB(t)
  svc := newChatService(db)
  user := newTestUser(t, db, "supplier1", types.RoleUser)
  ctx := ctxFor(user)

  _, err := svc.SendMessage(ctx, "chat-1", "Вопрос про оплату", false)
  require.NoError(t, err)
  _, err = svc.SendMessage(ctx, "chat-2", "Вопрос про документы", false)
  require.NoError(t, err)
  _, err = svc.SendMessage(ctx, "chat-1", "Ещё вопрос", false)
  require.NoError(t, err)

  ids, err := svc.ListChatIDs(ctx)
  require.NoError(t, err)
  require.Equal(t, []string{"chat-1", "chat-2"}, ids)
}

func TestUpdateMessageMetadata_Feedback(t *testing.T) {
  db := newTestDB(t)
  svc := newChatService(db)
  user := newTestUser(t, db, "supplier1", types.RoleUser)
  ctx := ctxFor(user)

  messages, err := svc.SendMessage(ctx, "chat-1", "Как участвовать в тендере?", false)
  require.NoError(t, err)
  botMsg := messages[1]

  updated, err := svc.UpdateMessageMetadata(ctx, botMsg.ID, []byte(`{"feedback":"positive"}`))
  require.NoError(t, err)
  md := updated.Metadata()
  require.NotNil(t, md.Feedback)
  require.Equal(t, types.FeedbackPositive, *md.Feedback)
  // The merge keeps the answer source written at send time.
  require.Equal(t, "Федеральный закон №44-ФЗ от 05.04.2013, статья 24", md.Source)

  // The feedback now shows up as the history rating.
  items, err := svc.GetHistorySummary(ctx, "", history.FilterPositive, history.SortNewest)
  require.NoError(t, err)
  require.Len(t, items, 1)
  require.Equal(t, "chat-1", items[0].ID)
}

func TestSendMessage_StoresPrebuiltBotTurn(t *testing.T) {
  db := newTestDB(t)
  svc := newChatService(db)
  user := newTestUser(t, db, "supplier1", types.RoleUser)
  ctx := ctxFor(user)

  _, err := svc.SendMessage(ctx, "chat-1", "Как участвовать в тендере?", false)
  require.NoError(t, err)

  // The client relays an assistant turn as-is; nothing extra is generated.
  stored, err := svc.SendMessage(ctx, "chat-1", "Оператор: ваша заявка принята в работу.", true)
  require.NoError(t, err)
  require.Len(t, stored, 1)
  require.True(t, stored[0].IsBot)
  require.Equal(t, "Оператор: ваша заявка принята в работу.", stored[0].Message)

  messages, err := svc.GetConversation(ctx, "chat-1")
  require.NoError(t, err)
  require.Len(t, messages, 3)
  require.True(t, messages[2].IsBot)
}

func TestUpdateMessageMetadata_FeedbackOnlyOnBotMessages(t *testing.T) {
  db := newTestDB(t)
  svc := newChatService(db)
  user := newTestUser(t, db, "supplier1", types.RoleUser)
  ctx := ctxFor(user)

  messages, err := svc.SendMessage(ctx, "chat-1", "Как участвовать в тендере?", false)
  require.NoError(t, err)
  userMsg := messages[0]
  require.False(t, userMsg.IsBot)

  _, err = svc.UpdateMessageMetadata(ctx, userMsg.ID, []byte(`{"feedback":"positive"}`))
  require.Error(t, err)
  require.Contains(t, err.Error(), "assistant messages")

  // The user turn keeps its empty metadata.
  reloaded, err := svc.GetConversation(ctx, "chat-1")
  require.NoError(t, err)
  require.Nil(t, reloaded[0].Metadata().Feedback)
}

func TestUpdateMessageMetadata_OwnerOnly(t *testing.T) {
  db := newTestDB(t)
  svc := newChatService(db)
  owner := newTestUser(t, db, "owner", types.RoleUser)
  other := newTestUser(t, db, "other", types.RoleUser)

  messages, err := svc.SendMessage(ctxFor(owner), "chat-1", "Вопрос про оплату", false)
  require.NoError(t, err)

  _, err = svc.UpdateMessageMetadata(ctxFor(other), messages[1].ID, []byte(`{"feedback":"negative"}`))
  require.Error(t, err)
}

func TestGetHistorySummary_SearchAndSort(t *testing.T) {
  db := newTestDB(t)
  svc := newChatService(db)
  user := newTestUser(t, db, "supplier1", types.RoleUser)
  ctx := ctxFor(user)

  _, err := svc.SendMessage(ctx, "chat-1", "Как участвовать в тендере?", false)
  require.NoError(t, err)
  _, err = svc.SendMessage(ctx, "chat-2", "Какие документы приложить?", false)
  require.NoError(t, err)

  all, err := svc.GetHistorySummary(ctx, "", history.FilterAll, history.SortNewest)
  require.NoError(t, err)
  require.Len(t, all, 2)
  require.Equal(t, "chat-2", all[0].ID)

  oldest, err := svc.GetHistorySummary(ctx, "", history.FilterAll, history.SortOldest)
  require.NoError(t, err)
  require.Equal(t, "chat-1", oldest[0].ID)

  found, err := svc.GetHistorySummary(ctx, "документы", history.FilterAll, history.SortNewest)
  require.NoError(t, err)
  require.Len(t, found, 1)
  require.Equal(t, "chat-2", found[0].ID)
}

func TestFinishChat_UpsertsRating(t *testing.T) {
  db := newTestDB(t)
  svc := newChatService(db)
  user := newTestUser(t, db, "supplier1", types.RoleUser)
  ctx := ctxFor(user)

  _, err := svc.SendMessage(ctx, "chat-1", "Вопрос про оплату", false)
  require.NoError(t, err)

  rating, err := svc.FinishChat(ctx, "chat-1", 5, "Отличный ответ")
  require.NoError(t, err)
  require.Equal(t, 5, rating.Rating)

  // Finishing again overwrites instead of adding a second row.
  rating, err = svc.FinishChat(ctx, "chat-1", 3, "")
  require.NoError(t, err)
  require.Equal(t, 3, rating.Rating)

  ratingRepo := repos.NewChatRatingRepo(db, logger.NewNop())
  stored, err := ratingRepo.GetByChatIDs(ctx, nil, []string{"chat-1"})
  require.NoError(t, err)
  require.Len(t, stored, 1)
  require.Equal(t, 3, stored[0].Rating)
  require.Empty(t, stored[0].Comment)
}

func TestFinishChat_Validation(t *testing.T) {
  db := newTestDB(t)
  svc := newChatService(db)
  user := newTestUser(t, db, "supplier1", types.RoleUser)
  other := newTestUser(t, db, "other", types.RoleUser)
  ctx := ctxFor(user)

  _, err := svc.SendMessage(ctx, "chat-1", "Вопрос про оплату", false)
  require.NoError(t, err)

  _, err = svc.FinishChat(ctx, "chat-1", 0, "")
  require.Error(t, err)
  _, err = svc.FinishChat(ctx, "chat-1", 6, "")
  require.Error(t, err)
  _, err = svc.FinishChat(ctxFor(other), "chat-1", 4, "")
  require.Error(t, err)
}

func TestDeleteChat(t *testing.T) {
  db := newTestDB(t)
  svc := newChatService(db)
  user := newTestUser(t, db, "supplier1", types.RoleUser)
  other := newTestUser(t, db, "other", types.RoleUser)
  ctx := ctxFor(user)

  _, err := svc.SendMessage(ctx, "chat-1", "Вопрос про оплату", false)
  require.NoError(t, err)
  _, err = svc.FinishChat(ctx, "chat-1", 4, "")
  require.NoError(t, err)

  require.Error(t, svc.DeleteChat(ctxFor(other), "chat-1"))

  require.NoError(t, svc.DeleteChat(ctx, "chat-1"))

  messages, err := svc.GetConversation(ctx, "chat-1")
  require.NoError(t, err)
  require.Empty(t, messages)

  ratingRepo := repos.NewChatRatingRepo(db, logger.NewNop())
  stored, err := ratingRepo.GetByChatIDs(ctx, nil, []string{"chat-1"})
  require.NoError(t, err)
  require.Empty(t, stored)
}
