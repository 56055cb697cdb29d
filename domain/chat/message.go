// Package chat contains the core concepts of the timeline system.
// Messages are immutable once created; timelines group them by calendar day.
package chat

import (
	"time"

	"github.com/google/uuid"
)

type ChatID string

type MessageType string

const (
	TypeText     MessageType = "text"
	TypeLocation MessageType = "location"
	TypePicture  MessageType = "picture"
)

// Message represents an immutable chat event.
// The ID is assigned at creation and is the sole deduplication key.
type Message struct {
	ID        uuid.UUID
	ChatID    ChatID
	SenderID  string
	Content   string
	Type      MessageType
	CreatedAt time.Time
}
