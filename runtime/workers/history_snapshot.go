package workers

import (
	"chat-timeline/contract"
	"chat-timeline/domain/chat"
	"chat-timeline/projection"
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// HistorySnapshotWorker reads the full message history of one chat: once at
// startup, then periodically so long-lived views keep seeing what the live
// tail window has already scrolled past. Snapshots are complete by
// construction, so no completeness gate and no debounce apply here.
type HistorySnapshotWorker struct {
	log     *slog.Logger
	store   contract.MessageStore
	clock   clockwork.Clock
	chatID  chat.ChatID
	refresh time.Duration // 0 disables periodic refresh
	out     chan<- contract.TimelineUpdate
}

func NewHistorySnapshotWorker(
	log *slog.Logger,
	store contract.MessageStore,
	clock clockwork.Clock,
	chatID chat.ChatID,
	refresh time.Duration,
	out chan<- contract.TimelineUpdate,
) *HistorySnapshotWorker {
	return &HistorySnapshotWorker{
		log:     log,
		store:   store,
		clock:   clock,
		chatID:  chatID,
		refresh: refresh,
		out:     out,
	}
}

func (w *HistorySnapshotWorker) Run(ctx context.Context) error {
	if err := w.snapshot(ctx); err != nil {
		return fail(ctx, w.out, err)
	}

	if w.refresh <= 0 {
		return nil
	}

	ticker := w.clock.NewTicker(w.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			if err := w.snapshot(ctx); err != nil {
				return fail(ctx, w.out, err)
			}
		}
	}
}

func (w *HistorySnapshotWorker) snapshot(ctx context.Context) error {
	messages, err := w.store.FindRecent(ctx, w.chatID, 0)
	if err != nil {
		return err
	}
	grouped := projection.GroupByDay(messages, w.clock.Now().UTC())
	return send(ctx, w.out, contract.TimelineUpdate{Timeline: grouped})
}
