package projection

import (
	"chat-timeline/domain/chat"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	mergeNow  = time.Date(2023, time.March, 9, 15, 0, 0, 0, time.UTC)
	mergeDayA = mergeNow.Add(-26 * time.Hour)
)

// grouped builds a timeline the way the query workers do.
func grouped(messages ...chat.Message) chat.Timeline {
	// GroupByDay wants newest first.
	descending := make([]chat.Message, len(messages))
	for i, m := range messages {
		descending[len(messages)-1-i] = m
	}
	return GroupByDay(descending, mergeNow)
}

func fiveMessages() []chat.Message {
	return []chat.Message{
		message("alice", mergeDayA),
		message("bob", mergeDayA.Add(time.Minute)),
		message("alice", mergeDayA.Add(2*time.Minute)),
		message("bob", mergeNow.Add(-time.Hour)),
		message("alice", mergeNow.Add(-30*time.Minute)),
	}
}

func Test_Merger_Suppresses_Output_Until_Live_Arrives(t *testing.T) {
	req := require.New(t)
	merger := NewMerger()

	_, ok := merger.Step(nil, nil)
	req.False(ok)

	// History alone is not enough either.
	_, ok = merger.Step(nil, grouped(fiveMessages()...))
	req.False(ok)
	req.False(merger.HistoryTaken())
}

func Test_Merger_Bootstrap_Then_Seed(t *testing.T) {
	req := require.New(t)
	merger := NewMerger()
	messages := fiveMessages()

	l1 := grouped(messages[3:]...)
	l2 := grouped(messages[3], messages[4], message("bob", mergeNow))
	h1 := grouped(messages...)

	out, ok := merger.Step(l1, nil)
	req.True(ok)
	req.Equal(l1, out)
	req.False(merger.HistoryTaken())

	out, ok = merger.Step(l2, nil)
	req.True(ok)
	req.Equal(l2, out)

	// History lands: seeded, then the latest live is merged in so nothing
	// the live feed already showed can disappear.
	out, ok = merger.Step(l2, h1)
	req.True(ok)
	req.True(merger.HistoryTaken())
	req.Equal(6, out.TotalMessages())
	req.GreaterOrEqual(out.TotalMessages(), l2.TotalMessages())
}

func Test_Merger_Scenario_Two_Days_Then_Sixth_Message(t *testing.T) {
	req := require.New(t)
	merger := NewMerger()
	messages := fiveMessages()

	live := grouped(messages...)
	out, ok := merger.Step(live, nil)
	req.True(ok)
	req.Len(out, 2)
	req.Equal(5, out.TotalMessages())

	// History arrives with the same five messages: content unchanged.
	history := grouped(messages...)
	out, ok = merger.Step(live, history)
	req.True(ok)
	req.True(merger.HistoryTaken())
	req.Len(out, 2)
	req.Equal(5, out.TotalMessages())

	// A sixth message shows up on today's bucket via live only.
	sixth := message("bob", mergeNow)
	liveWithSixth := grouped(append(messages, sixth)...)
	out, ok = merger.Step(liveWithSixth, history)
	req.True(ok)
	req.Len(out, 2)
	req.Equal(6, out.TotalMessages())
	req.True(out[1].Contains(sixth.ID))
}

func Test_Merger_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	merger := NewMerger()
	messages := fiveMessages()
	live := grouped(messages...)
	history := grouped(messages[:3]...)

	first, ok := merger.Step(live, history)
	req.True(ok)
	second, ok := merger.Step(live, history)
	req.True(ok)

	req.Equal(first, second)
	req.Equal(5, second.TotalMessages())
}

func Test_Merger_Timeline_Only_Grows(t *testing.T) {
	req := require.New(t)
	merger := NewMerger()
	messages := fiveMessages()

	out, _ := merger.Step(grouped(messages...), grouped(messages...))
	previous := out.TotalMessages()

	// A shrunken live window must never shrink the merged timeline.
	steps := []chat.Timeline{
		grouped(messages[4]),
		grouped(),
		grouped(messages[3], messages[4], message("alice", mergeNow)),
	}
	for _, live := range steps {
		out, ok := merger.Step(live, nil)
		req.True(ok)
		req.GreaterOrEqual(out.TotalMessages(), previous)
		previous = out.TotalMessages()
	}
	req.Equal(6, previous)
}

func Test_Merger_Appends_New_Day_Bucket_At_The_End(t *testing.T) {
	req := require.New(t)
	merger := NewMerger()
	messages := fiveMessages()

	merger.Step(grouped(messages...), grouped(messages...))

	dayC := message("alice", mergeNow.Add(24*time.Hour))
	out, ok := merger.Step(grouped(messages[4], dayC), nil)
	req.True(ok)
	req.Len(out, 3)
	req.Equal(DayLabel(dayC.CreatedAt), out[2].Label)
	req.Equal([]chat.Message{dayC}, out[2].Messages)
	req.Equal(5, len(out[0].Messages)+len(out[1].Messages))
}

func Test_Merger_Updates_IsToday_On_Existing_Buckets(t *testing.T) {
	req := require.New(t)
	merger := NewMerger()
	messages := fiveMessages()

	out, _ := merger.Step(grouped(messages...), grouped(messages...))
	req.True(out[1].IsToday)

	// Midnight passed: the live feed now reports the bucket as not today.
	live := grouped(messages[3], messages[4])
	live[0].IsToday = false
	out, ok := merger.Step(live, nil)
	req.True(ok)
	req.False(out[1].IsToday)
}

func Test_Merger_Ignores_Later_History_Emissions(t *testing.T) {
	req := require.New(t)
	merger := NewMerger()
	messages := fiveMessages()
	live := grouped(messages[3], messages[4])

	out, _ := merger.Step(live, grouped(messages...))
	req.Equal(5, out.TotalMessages())

	// A second history emission carrying an extra message must not re-seed.
	bigger := grouped(append(messages, message("bob", mergeNow))...)
	out, ok := merger.Step(live, bigger)
	req.True(ok)
	req.Equal(5, out.TotalMessages())
}

func Test_Merger_Never_Aliases_The_History_Value(t *testing.T) {
	req := require.New(t)
	merger := NewMerger()
	messages := fiveMessages()
	live := grouped(messages[3], messages[4])
	history := grouped(messages...)

	merger.Step(live, history)

	// Mutating the upstream value must not leak into the merged state.
	history[0].Messages[0].Content = "tampered"
	history[0].Label = "tampered"

	out, ok := merger.Step(live, history)
	req.True(ok)
	req.Equal("hello", out[0].Messages[0].Content)
	req.NotEqual("tampered", out[0].Label)
}
