package types

import (
  "time"

  "gorm.io/gorm"
  "github.com/google/uuid"
)

// ChatRating is the end-of-chat star rating (1-5) with an optional free-form
// comment. One row per chat; finishing an already-finished chat overwrites.
type ChatRating struct {
  gorm.Model

  ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
  ChatID      string            `gorm:"uniqueIndex;not null;column:chat_id" json:"chat_id"`
  UserID      uuid.UUID         `gorm:"index;not null;column:user_id" json:"user_id"`
  Rating      int               `gorm:"not null;column:rating" json:"rating"`
  Comment     string            `gorm:"column:comment" json:"comment"`
  Timestamp   time.Time         `gorm:"not null;column:timestamp" json:"timestamp"`
}

func (ChatRating) TableName() string {
  return "chat_rating"
}
