package projection

import (
	"chat-timeline/domain/chat"
)

// Merger folds two partial views of the same append-only message log, a
// bounded live tail and a historical snapshot, into one converged timeline.
//
// Messages are immutable and carry a stable id, so union-by-id is
// conflict-free. The subtlety is the bootstrap: show the live tail while
// history is still loading, then never regress once history lands.
//
// Merger is not safe for concurrent use. Each open view owns one instance
// and drives it from a single goroutine.
type Merger struct {
	historyTaken bool
	timeline     chat.Timeline
}

func NewMerger() *Merger {
	return &Merger{}
}

// HistoryTaken reports whether the historical snapshot has seeded the state.
func (m *Merger) HistoryTaken() bool {
	return m.historyTaken
}

// Step consumes the latest (live, history) pairing and returns the timeline
// to publish. ok is false while live is still unknown: nothing is shown
// before the live tail produced its first value, even if history is ready.
//
// History seeds the internal timeline exactly once, on first arrival, as a
// deep copy so in-place growth never aliases the upstream value. Later
// history emissions are ignored; from then on the timeline only grows.
func (m *Merger) Step(live, history chat.Timeline) (chat.Timeline, bool) {
	if live == nil {
		return nil, false
	}

	if history == nil && !m.historyTaken {
		// Best effort until history arrives: the live tail verbatim.
		m.timeline = live
		return m.timeline, true
	}

	if !m.historyTaken {
		m.timeline = history.Clone()
		m.historyTaken = true
	}

	m.merge(live)
	return m.timeline, true
}

// merge grows the timeline with everything the live tail observed.
// Existing buckets and messages are never removed or reordered; IsToday is
// the only field that may change on an existing bucket.
func (m *Merger) merge(live chat.Timeline) {
	for _, liveBucket := range live {
		bucket := m.timeline.Bucket(liveBucket.Label)
		if bucket == nil {
			// Live buckets cover days at or after the most recent
			// historical day, so appending keeps days ordered.
			m.timeline = append(m.timeline, liveBucket.Clone())
			continue
		}

		bucket.IsToday = liveBucket.IsToday
		for _, message := range liveBucket.Messages {
			if bucket.Contains(message.ID) {
				continue
			}
			bucket.Messages = append(bucket.Messages, message)
		}
	}
}
