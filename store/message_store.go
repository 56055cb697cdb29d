// Package store persists chat messages in BadgerDB and notifies readers of
// changes. It is the only package touching the database; everything above
// it sees the contract.MessageStore interface.
package store

import (
	"chat-timeline/domain/chat"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	badgerpb "github.com/dgraph-io/badger/v4/pb"
	"github.com/google/uuid"
	"github.com/samber/lo"

	apperrors "chat-timeline/errors"
)

type MessageStore struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageStore(db *badger.DB, log *slog.Logger) *MessageStore {
	return &MessageStore{db: db, log: log}
}

// entry is the on-disk shape of a message. Timestamps are stored as unix
// nanoseconds so no timezone or locale leaks into the database.
type entry struct {
	ID      string `json:"id"`
	Chat    string `json:"chat"`
	Sender  string `json:"sender"`
	Content string `json:"content"`
	Type    string `json:"type"`
	At      int64  `json:"at"`
}

// Append persists a message.
// The key is formatted as "msg:{chat}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  2. Prevent data loss by using the UUID as a collision disconnector if
//     two messages arrive at the same nanosecond.
func (s *MessageStore) Append(ctx context.Context, message chat.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, err := json.Marshal(fromMessage(message))
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(messageKey(message)), value)
	})
}

// FindRecent returns up to limit messages of a chat, newest first.
// A limit of zero means the full history. Thanks to the padded timestamp in
// the key, a reverse prefix scan yields creation-time-descending order.
func (s *MessageStore) FindRecent(ctx context.Context, chatID chat.ChatID, limit int) ([]chat.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var raw [][]byte
	prefix := []byte(chatPrefix(chatID))
	err := s.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible timestamp, then walk backwards.
		seekKey := append(append([]byte(nil), prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(raw) == limit {
				break
			}
			err := it.Item().Value(func(value []byte) error {
				raw = append(raw, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]chat.Message, 0, len(raw))
	for _, value := range raw {
		message, err := toMessage(value)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

// Count returns how many messages a chat holds, using a key-only scan.
func (s *MessageStore) Count(ctx context.Context, chatID chat.ChatID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0
	prefix := []byte(chatPrefix(chatID))
	err := s.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Watch ticks whenever a message lands under the chat prefix. Ticks are
// coalescable: a slow reader sees at most one pending tick, never a queue.
// The channel closes when ctx is canceled or the subscription ends.
func (s *MessageStore) Watch(ctx context.Context, chatID chat.ChatID) (<-chan struct{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ticks := make(chan struct{}, 1)
	matches := []badgerpb.Match{{Prefix: []byte(chatPrefix(chatID))}}

	go func() {
		defer close(ticks)
		err := s.db.Subscribe(ctx, func(_ *badger.KVList) error {
			select {
			case ticks <- struct{}{}:
			default:
			}
			return nil
		}, matches)
		if err != nil && ctx.Err() == nil {
			s.log.Error("Store subscription ended", "chat", chatID, "error", err)
		}
	}()

	return ticks, nil
}

func chatPrefix(chatID chat.ChatID) string {
	return fmt.Sprintf("msg:%s:", chatID)
}

func messageKey(message chat.Message) string {
	return fmt.Sprintf("%s%019d:%s",
		chatPrefix(message.ChatID),
		message.CreatedAt.UnixNano(),
		message.ID,
	)
}

func fromMessage(message chat.Message) entry {
	return entry{
		ID:      message.ID.String(),
		Chat:    string(message.ChatID),
		Sender:  message.SenderID,
		Content: message.Content,
		Type:    string(message.Type),
		At:      message.CreatedAt.UnixNano(),
	}
}

func toMessage(value []byte) (chat.Message, error) {
	var e entry
	if err := json.Unmarshal(value, &e); err != nil {
		return chat.Message{}, fmt.Errorf("%w: %w", apperrors.ErrCorruptEntry, err)
	}
	parsedID, err := uuid.Parse(e.ID)
	if err != nil {
		return chat.Message{}, fmt.Errorf("%w: %w", apperrors.ErrCorruptEntry, err)
	}
	return chat.Message{
		ID:        parsedID,
		ChatID:    chat.ChatID(e.Chat),
		SenderID:  e.Sender,
		Content:   e.Content,
		Type:      chat.MessageType(lo.Ternary(e.Type != "", e.Type, string(chat.TypeText))),
		CreatedAt: time.Unix(0, e.At).UTC(),
	}, nil
}
