package types

import (
  "time"

  "gorm.io/gorm"
  "github.com/google/uuid"
)

// Roles a portal account can hold. Role gates the operator console and the
// admin endpoints; regular suppliers stay on RoleUser.
const (
  RoleUser     = "user"
  RoleOperator = "operator"
  RoleAdmin    = "admin"
)

type User struct {
  gorm.Model
  ID                  uuid.UUID                 `gorm:"type:uuid;primaryKey" json:"id"`

  Username            string                    `gorm:"uniqueIndex;not null;column:username" json:"username"`
  Email               string                    `gorm:"uniqueIndex;not null;column:email" json:"email"`
  Password            string                    `gorm:"not null;column:password" json:"-"`
  Role                string                    `gorm:"not null;default:'user';column:role" json:"role"`
  IsActive            bool                      `gorm:"not null;default:true;column:is_active" json:"isActive"`
  PhoneNumber         *string                   `gorm:"column:phone_number" json:"phoneNumber,omitempty"`
  AvatarBucketKey     string                    `gorm:"column:avatar_bucket_key" json:"avatarBucketKey"`
  AvatarURL           string                    `gorm:"column:avatar_url" json:"avatarURL"`

  CreatedAt           time.Time                 `gorm:"not null" json:"createdAt"`
  UpdatedAt           time.Time                 `gorm:"not null" json:"updatedAt"`
}

func (User) TableName() string {
  return "user"
}

// ValidRole reports whether s is one of the three portal roles.
func ValidRole(s string) bool {
  return s == RoleUser || s == RoleOperator || s == RoleAdmin
}
