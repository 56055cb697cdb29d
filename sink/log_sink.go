package sink

import (
	"chat-timeline/contract"
	"context"
	"log/slog"
)

// LogSink traces every published timeline, for debugging a pipeline without
// attaching a real subscriber.
type LogSink struct {
	log *slog.Logger
}

func NewLogSink(log *slog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Consume(_ context.Context, update contract.TimelineUpdate) error {
	if update.Err != nil {
		s.log.Error("Timeline pipeline failed", "error", update.Err)
		return nil
	}
	s.log.Debug("Timeline published",
		"days", len(update.Timeline),
		"messages", update.Timeline.TotalMessages())
	return nil
}
