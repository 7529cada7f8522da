package types

import (
  "time"

  "gorm.io/gorm"
  "github.com/google/uuid"
)

// SupportRequest is an operator-escalation ticket. Resolving flips the flag
// instead of deleting the row, so the chat keeps its escalation history.
type SupportRequest struct {
  gorm.Model

  ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"-"`
  ChatID      string            `gorm:"index;not null;column:chat_id" json:"chat_id"`
  MessageID   uuid.UUID         `gorm:"index;not null;column:message_id" json:"message_id"`
  UserID      uuid.UUID         `gorm:"index;not null;column:user_id" json:"-"`
  User        *User             `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
  Resolved    bool              `gorm:"not null;default:false;index;column:resolved" json:"resolved"`
  ResolvedAt  *time.Time        `gorm:"column:resolved_at" json:"resolved_at,omitempty"`

  CreatedAt   time.Time         `gorm:"not null" json:"created_at"`
  UpdatedAt   time.Time         `gorm:"not null" json:"-"`
}

func (SupportRequest) TableName() string {
  return "support_request"
}

// SupportRequestView is the queue entry the operator console renders:
// the raw request joined with how long the conversation already is.
type SupportRequestView struct {
  ChatID        string      `json:"chat_id"`
  MessageID     uuid.UUID   `json:"message_id"`
  CreatedAt     time.Time   `json:"created_at"`
  MessageCount  int64       `json:"message_count"`
  User          *User       `json:"user,omitempty"`
}
