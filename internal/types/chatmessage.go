package types

import (
  "time"

  "gorm.io/datatypes"
  "gorm.io/gorm"
  "github.com/google/uuid"
)

// ChatMessage is one turn of a support conversation. A chat session has no
// row of its own: it is the set of messages sharing a ChatID, ordered by
// Timestamp.
type ChatMessage struct {
  gorm.Model

  ID                uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
  ChatID            string            `gorm:"index;not null;column:chat_id" json:"chat_id"`
  UserID            uuid.UUID         `gorm:"index;not null;column:user_id" json:"user_id"`
  Message           string            `gorm:"not null;column:message" json:"message"`
  IsBot             bool              `gorm:"not null;default:false;column:is_bot" json:"is_bot"`
  MessageMetadata   datatypes.JSON    `gorm:"column:message_metadata" json:"message_metadata,omitempty"`
  Timestamp         time.Time         `gorm:"not null;column:timestamp" json:"timestamp"`
}

func (ChatMessage) TableName() string {
  return "chat_message"
}

// Metadata decodes the stored metadata blob. A missing or malformed blob
// yields the zero value so history projection never fails on old rows.
func (m *ChatMessage) Metadata() MessageMetadata {
  md, _ := DecodeMessageMetadata(m.MessageMetadata)
  return md
}
