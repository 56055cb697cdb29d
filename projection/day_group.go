// Package projection folds message sequences into display timelines.
// Handles day grouping, ordering, deduplication, and the live/history merge.
// Does not read stores or interact with transports directly.
package projection

import (
	"chat-timeline/domain/chat"
	"time"
)

// DayLabelFormat renders a calendar day as in "2 January 2006":
// day of month, full month name, year.
const DayLabelFormat = "2 January 2006"

func DayLabel(t time.Time) string {
	return t.Format(DayLabelFormat)
}

// GroupByDay turns a creation-time-descending message list into a timeline:
// one bucket per calendar day, days ascending, messages ascending within
// each day. Labels come from each message's own CreatedAt so the grouping
// is replayable; now only decides the IsToday flag.
//
// An empty input produces an empty timeline, not nil: the read happened and
// found nothing, which is a known state.
func GroupByDay(messages []chat.Message, now time.Time) chat.Timeline {
	today := DayLabel(now)

	// The source read is newest first, so walking it backwards yields both
	// the day order and the in-day order the display wants.
	timeline := chat.Timeline{}
	for i := len(messages) - 1; i >= 0; i-- {
		message := messages[i]
		label := DayLabel(message.CreatedAt)

		if n := len(timeline); n > 0 && timeline[n-1].Label == label {
			timeline[n-1].Messages = append(timeline[n-1].Messages, message)
			continue
		}

		timeline = append(timeline, chat.DayBucket{
			Label:    label,
			Messages: []chat.Message{message},
			IsToday:  label == today,
		})
	}
	return timeline
}
