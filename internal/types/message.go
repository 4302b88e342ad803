package types

import (
	"time"

	"github.com/google/uuid"
)

type MessageSender string

const (
	MessageSenderUser    MessageSender = "user"
	MessageSenderPersona MessageSender = "persona"
)

// Message is append-only. Transcript order is created_at with id as
// tiebreaker.
type Message struct {
	ID           int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	SimulationID uuid.UUID     `gorm:"type:uuid;not null;index;column:simulation_id" json:"simulation_id"`
	Sender       MessageSender `gorm:"not null;column:sender" json:"sender"`
	Content      string        `gorm:"not null;column:content" json:"content"`
	CreatedAt    time.Time     `gorm:"not null" json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}
