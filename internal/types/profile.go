package types

import (
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email       string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password    string    `gorm:"not null;column:password" json:"-"`
	Username    string    `gorm:"not null;column:username" json:"username"`
	AvatarPath  string    `gorm:"column:avatar_path" json:"avatar_path"`
	AvatarColor string    `gorm:"column:avatar_color" json:"avatar_color"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}
