//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-timeline/domain/chat"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker lifecycle
// events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// MessageStore is the change-notifying collection the pipelines read.
// Finds are creation-time descending; Watch ticks whenever the stored set
// of a chat changes. Readers never block each other.
type MessageStore interface {
	Append(ctx context.Context, message chat.Message) error
	FindRecent(ctx context.Context, chatID chat.ChatID, limit int) ([]chat.Message, error)
	Count(ctx context.Context, chatID chat.ChatID) (int, error)
	Watch(ctx context.Context, chatID chat.ChatID) (<-chan struct{}, error)
}

// TimelineUpdate is one emission of a timeline pipeline: either a grouped
// timeline or the error that ended the read. A nil Timeline with a nil Err
// never travels: "not yet known" is expressed by not emitting at all.
type TimelineUpdate struct {
	Timeline chat.Timeline
	Err      error
}

type TimelineSink interface {
	Consume(ctx context.Context, update TimelineUpdate) error
}
