package handlers

import (
  "io"
  "net/http"
  "strconv"
  "time"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/supplier-portal/assistant-backend/internal/errordata"
  "github.com/supplier-portal/assistant-backend/internal/history"
  "github.com/supplier-portal/assistant-backend/internal/services"
)

type ChatHandler struct {
  chatService      services.ChatService
  assistantService services.AssistantService
}

func NewChatHandler(chatService services.ChatService, assistantService services.AssistantService) *ChatHandler {
  return &ChatHandler{chatService: chatService, assistantService: assistantService}
}

// SendMessage persists the user's message together with the assistant reply
// and returns both in order. A request with is_bot set stores a prebuilt
// assistant turn instead of generating one.
func (ch *ChatHandler) SendMessage(c *gin.Context) {
  var req struct {
    ChatID  string `json:"chat_id"`
    Message string `json:"message"`
    IsBot   bool   `json:"is_bot"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
    return
  }
  messages, err := ch.chatService.SendMessage(c.Request.Context(), req.ChatID, req.Message, req.IsBot)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
    return
  }
  resp := gin.H{"chat_id": req.ChatID, "messages": messages}
  if ed := errordata.GetErrorData(c.Request.Context()); ed != nil && ed.HasMessage() {
    resp["notice"] = ed.Message
  }
  c.JSON(http.StatusOK, resp)
}

// AIQuery answers a question without persisting anything.
func (ch *ChatHandler) AIQuery(c *gin.Context) {
  var req struct {
    Query string `json:"query"`
  }
  if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" {
    c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
    return
  }
  answer := ch.assistantService.Answer(c.Request.Context(), req.Query)
  resp := gin.H{
    "answer":         answer.Answer,
    "source":         answer.Source,
    "needs_operator": answer.NeedsOperator,
  }
  if ed := errordata.GetErrorData(c.Request.Context()); ed != nil && ed.HasMessage() {
    resp["notice"] = ed.Message
  }
  c.JSON(http.StatusOK, resp)
}

func (ch *ChatHandler) ListChats(c *gin.Context) {
  chatIDs, err := ch.chatService.ListChatIDs(c.Request.Context())
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
    return
  }
  if chatIDs == nil {
    chatIDs = []string{}
  }
  c.JSON(http.StatusOK, chatIDs)
}

func (ch *ChatHandler) GetConversation(c *gin.Context) {
  chatID := c.Param("chatId")
  messages, err := ch.chatService.GetConversation(c.Request.Context(), chatID)
  if err != nil {
    c.JSON(http.StatusForbidden, gin.H{"detail": err.Error()})
    return
  }
  c.JSON(http.StatusOK, gin.H{"chat_id": chatID, "messages": messages})
}

// GetSummary serves the history panel: one row per chat, searched, filtered,
// sorted, paged and grouped into date buckets.
func (ch *ChatHandler) GetSummary(c *gin.Context) {
  query := c.Query("query")
  filter := history.Filter(c.DefaultQuery("filter", string(history.FilterAll)))
  order := history.SortOrder(c.DefaultQuery("sort", string(history.SortNewest)))
  page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
  if err != nil {
    page = 1
  }
  perPage, err := strconv.Atoi(c.DefaultQuery("per_page", "10"))
  if err != nil || perPage <= 0 {
    perPage = 10
  }

  items, err := ch.chatService.GetHistorySummary(c.Request.Context(), query, filter, order)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
    return
  }
  if items == nil {
    items = []history.Item{}
  }
  paged := history.Paginate(items, page, perPage)
  c.JSON(http.StatusOK, gin.H{
    "items":       paged,
    "groups":      history.GroupByDate(paged, time.Now()),
    "total":       len(items),
    "total_pages": history.TotalPages(len(items), perPage),
    "per_page":    perPage,
  })
}

// PatchMetadata merges a metadata patch into one message. The raw body is
// the patch object itself.
func (ch *ChatHandler) PatchMetadata(c *gin.Context) {
  messageID, err := uuid.Parse(c.Param("messageId"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid message id"})
    return
  }
  patch, err := io.ReadAll(c.Request.Body)
  if err != nil || len(patch) == 0 {
    c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
    return
  }
  updated, err := ch.chatService.UpdateMessageMetadata(c.Request.Context(), messageID, patch)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
    return
  }
  c.JSON(http.StatusOK, updated)
}

func (ch *ChatHandler) FinishChat(c *gin.Context) {
  chatID := c.Param("chatId")
  var req struct {
    Rating  int    `json:"rating"`
    Comment string `json:"comment"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
    return
  }
  rating, err := ch.chatService.FinishChat(c.Request.Context(), chatID, req.Rating, req.Comment)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
    return
  }
  c.JSON(http.StatusOK, gin.H{"status": "success", "rating": rating})
}

func (ch *ChatHandler) DeleteChat(c *gin.Context) {
  chatID := c.Param("chatId")
  if err := ch.chatService.DeleteChat(c.Request.Context(), chatID); err != nil {
    c.JSON(http.StatusForbidden, gin.H{"detail": err.Error()})
    return
  }
  c.JSON(http.StatusOK, gin.H{"status": "success"})
}
