package services

import (
	"chat-timeline/contract"
	"chat-timeline/domain/chat"
	"chat-timeline/runtime"
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

var validate = validator.New()

type IChatService interface {
	PostMessage(ctx context.Context, cmd chat.PostMessageCommand) (chat.Message, error)
	OpenTimeline(ctx context.Context, chatID chat.ChatID, sinks ...contract.TimelineSink) *runtime.View
	LastMessage(ctx context.Context, chatID chat.ChatID) *runtime.View
}

// ChatService is the write path plus the subscription surface. Messages get
// their identifier and creation time here, then become visible to every
// open view through the store's change notifications.
type ChatService struct {
	log   *slog.Logger
	store contract.MessageStore
	views *runtime.ViewManager
	clock clockwork.Clock
}

func NewChatService(log *slog.Logger, store contract.MessageStore, views *runtime.ViewManager, clock clockwork.Clock) *ChatService {
	return &ChatService{log: log, store: store, views: views, clock: clock}
}

func (s *ChatService) PostMessage(ctx context.Context, cmd chat.PostMessageCommand) (chat.Message, error) {
	if err := validate.Struct(cmd); err != nil {
		return chat.Message{}, err
	}

	message := chat.Message{
		ID:        uuid.New(),
		ChatID:    cmd.Chat,
		SenderID:  cmd.Sender,
		Content:   cmd.Content,
		Type:      cmd.Type,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.store.Append(ctx, message); err != nil {
		return chat.Message{}, err
	}

	s.log.Debug("Message posted", "chat", cmd.Chat, "id", message.ID)
	return message, nil
}

func (s *ChatService) OpenTimeline(ctx context.Context, chatID chat.ChatID, sinks ...contract.TimelineSink) *runtime.View {
	return s.views.Open(ctx, chatID, sinks...)
}

func (s *ChatService) LastMessage(ctx context.Context, chatID chat.ChatID) *runtime.View {
	return s.views.LastMessage(ctx, chatID)
}
