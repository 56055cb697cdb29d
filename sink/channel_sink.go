// Package sink holds terminal consumers of converged timelines.
package sink

import (
	"chat-timeline/contract"
	"context"
)

// ChannelSink forwards timeline updates to a subscriber channel. The send
// blocks until the subscriber keeps up or the view is torn down, so a slow
// subscriber only ever delays its own view, never another one.
type ChannelSink struct {
	updates chan contract.TimelineUpdate
}

func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{updates: make(chan contract.TimelineUpdate, buffer)}
}

func (s *ChannelSink) Updates() <-chan contract.TimelineUpdate {
	return s.updates
}

func (s *ChannelSink) Consume(ctx context.Context, update contract.TimelineUpdate) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case s.updates <- update:
		return nil
	}
}

// Close releases the subscriber side. Only the view runtime calls it, after
// the pipeline stopped publishing.
func (s *ChannelSink) Close() {
	close(s.updates)
}
