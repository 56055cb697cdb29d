package chat

import (
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// DayBucket groups the messages created on one calendar day, oldest first.
// Label is derived from the message creation timestamps, never from the
// wall clock, so grouping stays deterministic and replayable. IsToday is
// the only clock-dependent field.
type DayBucket struct {
	Label    string
	Messages []Message
	IsToday  bool
}

// Timeline is an ordered sequence of day buckets, oldest day first.
// A nil Timeline means "not yet known"; an empty one means "known and empty".
type Timeline []DayBucket

func (b DayBucket) Clone() DayBucket {
	clone := b
	clone.Messages = append([]Message(nil), b.Messages...)
	return clone
}

func (b DayBucket) Contains(id uuid.UUID) bool {
	return lo.ContainsBy(b.Messages, func(m Message) bool { return m.ID == id })
}

func (t Timeline) Clone() Timeline {
	if t == nil {
		return nil
	}
	return lo.Map(t, func(b DayBucket, _ int) DayBucket { return b.Clone() })
}

// Bucket returns a pointer into the timeline so a bucket can be grown in
// place. Callers must not hold the pointer across appends to the timeline.
func (t Timeline) Bucket(label string) *DayBucket {
	for i := range t {
		if t[i].Label == label {
			return &t[i]
		}
	}
	return nil
}

func (t Timeline) TotalMessages() int {
	return lo.SumBy(t, func(b DayBucket) int { return len(b.Messages) })
}
