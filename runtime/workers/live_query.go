package workers

import (
	"chat-timeline/contract"
	"chat-timeline/domain/chat"
	apperrors "chat-timeline/errors"
	"chat-timeline/projection"
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// LiveQueryWorker keeps a bounded window over the most recent messages of
// one chat. Store change notifications are debounced: bursts inside the
// quiet window collapse into a single re-read, and only the fact that
// something changed is retained, never a queue of notifications.
//
// Limited reads go through a completeness gate: the expected cardinality is
// min(total, limit), and a result set is held back while it is smaller than
// that. The store may deliver its count before all matching rows have
// synced; the gate keeps those transitional sets invisible.
type LiveQueryWorker struct {
	log    *slog.Logger
	store  contract.MessageStore
	clock  clockwork.Clock
	chatID chat.ChatID
	limit  int           // 0 reads the full set and disables the gate
	window time.Duration // debounce quiet window
	out    chan<- contract.TimelineUpdate
}

func NewLiveQueryWorker(
	log *slog.Logger,
	store contract.MessageStore,
	clock clockwork.Clock,
	chatID chat.ChatID,
	limit int,
	window time.Duration,
	out chan<- contract.TimelineUpdate,
) *LiveQueryWorker {
	return &LiveQueryWorker{
		log:    log,
		store:  store,
		clock:  clock,
		chatID: chatID,
		limit:  limit,
		window: window,
		out:    out,
	}
}

func (w *LiveQueryWorker) Run(ctx context.Context) error {
	changes, err := w.store.Watch(ctx, w.chatID)
	if err != nil {
		return fail(ctx, w.out, err)
	}

	// First evaluation happens right away so subscribers see the current
	// state without waiting for a write.
	if err := w.evaluate(ctx); err != nil {
		return fail(ctx, w.out, err)
	}

	// The timer is created lazily on the first notification; a nil channel
	// blocks forever in the select below.
	var timer clockwork.Timer
	var fire <-chan time.Time
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-changes:
			if !ok {
				// The subscription died under a live view. Surface it and
				// let the supervisor re-subscribe on restart.
				return fail(ctx, w.out, apperrors.ErrStoreClosed)
			}
			if timer == nil {
				timer = w.clock.NewTimer(w.window)
				fire = timer.Chan()
			} else {
				// Restart the quiet window. Drain a tick that fired
				// but was not consumed yet, or Reset re-delivers it.
				if pending && !timer.Stop() {
					<-fire
				}
				timer.Reset(w.window)
			}
			pending = true
		case <-fire:
			pending = false
			if err := w.evaluate(ctx); err != nil {
				return fail(ctx, w.out, err)
			}
		}
	}
}

func (w *LiveQueryWorker) evaluate(ctx context.Context) error {
	messages, err := w.store.FindRecent(ctx, w.chatID, w.limit)
	if err != nil {
		return err
	}

	if w.limit > 0 {
		total, err := w.store.Count(ctx, w.chatID)
		if err != nil {
			return err
		}
		if expected := min(total, w.limit); len(messages) < expected {
			w.log.Debug("Incomplete result set, holding emission",
				"chat", w.chatID, "expected", expected, "got", len(messages))
			return nil
		}
	}

	// Creation times are stored in UTC; the reference instant must come
	// from the same calendar or the today flag drifts near midnight.
	grouped := projection.GroupByDay(messages, w.clock.Now().UTC())
	return send(ctx, w.out, contract.TimelineUpdate{Timeline: grouped})
}
