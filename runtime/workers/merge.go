package workers

import (
	"chat-timeline/contract"
	"chat-timeline/domain/chat"
	"chat-timeline/projection"
	"context"
	"log/slog"
)

// MergeWorker drives one projection.Merger with combined-latest semantics:
// whichever input produced last is paired with the most recent value of the
// other, and the converged timeline is fanned out to every sink.
//
// The worker is the single writer of its Merger; no locking is needed as
// long as that stays true.
type MergeWorker struct {
	log     *slog.Logger
	merger  *projection.Merger
	live    <-chan contract.TimelineUpdate
	history <-chan contract.TimelineUpdate
	sinks   []contract.TimelineSink
}

func NewMergeWorker(
	log *slog.Logger,
	live, history <-chan contract.TimelineUpdate,
	sinks ...contract.TimelineSink,
) *MergeWorker {
	return &MergeWorker{
		log:     log,
		merger:  projection.NewMerger(),
		live:    live,
		history: history,
		sinks:   sinks,
	}
}

func (w *MergeWorker) Run(ctx context.Context) error {
	var live, history chat.Timeline

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-w.live:
			if !ok {
				return nil
			}
			if update.Err != nil {
				return w.abort(ctx, update.Err)
			}
			live = update.Timeline
		case update, ok := <-w.history:
			if !ok {
				return nil
			}
			if update.Err != nil {
				return w.abort(ctx, update.Err)
			}
			history = update.Timeline
		}

		merged, ok := w.merger.Step(live, history)
		if !ok {
			continue
		}
		w.publish(ctx, contract.TimelineUpdate{Timeline: merged})
	}
}

// abort forwards a terminal upstream error to the sinks, then ends the run.
// The subscriber either sees a monotonically improving timeline or an
// explicit error, never a silent shrink.
func (w *MergeWorker) abort(ctx context.Context, err error) error {
	w.publish(ctx, contract.TimelineUpdate{Err: err})
	return err
}

func (w *MergeWorker) publish(ctx context.Context, update contract.TimelineUpdate) {
	for _, sink := range w.sinks {
		if err := sink.Consume(ctx, update); err != nil {
			w.log.Warn("Timeline sink failed", "error", err)
		}
	}
}
