package test

import (
	"chat-timeline/contract"
	"chat-timeline/domain/chat"
	"chat-timeline/runtime"
	"chat-timeline/services"
	"chat-timeline/store"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// waitForTimeline drains view updates until the predicate holds, so the
// test tolerates however many intermediate emissions the pipeline makes.
func waitForTimeline(t *testing.T, view *runtime.View, accept func(chat.Timeline) bool) chat.Timeline {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case update, ok := <-view.Updates():
			require.True(t, ok, "view closed before the expected timeline arrived")
			require.NoError(t, update.Err)
			if accept(update.Timeline) {
				return update.Timeline
			}
		case <-deadline:
			t.Fatal("Timeout: expected timeline never arrived")
		}
	}
}

func Test_Scenario_Live_Tail_And_History_Converge(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	// Reduced to 16 Mo for testing (avoid 20 Go of storage)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	req.NoError(err)

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	clock := clockwork.NewRealClock()
	messageStore := store.NewMessageStore(db, log)
	views := runtime.NewViewManager(log, messageStore, clock, runtime.ViewConfig{
		TailLimit:         10,
		TailWindow:        20 * time.Millisecond,
		LastMessageWindow: 10 * time.Millisecond,
		HistoryRefresh:    100 * time.Millisecond,
		BufferSize:        16,
	})
	service := services.NewChatService(log, messageStore, views, clock)

	t.Cleanup(func() {
		views.CloseAll()
		_ = db.Close()
	})

	// Given three messages on an older day and two today
	chatID := chat.ChatID(uuid.NewString())
	now := time.Now().UTC()
	dayA := now.Add(-48 * time.Hour)
	seed := []chat.Message{
		{ID: uuid.New(), ChatID: chatID, SenderID: "alice", Content: "one", Type: chat.TypeText, CreatedAt: dayA},
		{ID: uuid.New(), ChatID: chatID, SenderID: "bob", Content: "two", Type: chat.TypeText, CreatedAt: dayA.Add(time.Minute)},
		{ID: uuid.New(), ChatID: chatID, SenderID: "alice", Content: "three", Type: chat.TypeText, CreatedAt: dayA.Add(2 * time.Minute)},
		{ID: uuid.New(), ChatID: chatID, SenderID: "bob", Content: "four", Type: chat.TypeText, CreatedAt: now.Add(-time.Minute)},
		{ID: uuid.New(), ChatID: chatID, SenderID: "alice", Content: "five", Type: chat.TypeText, CreatedAt: now},
	}
	for _, message := range seed {
		req.NoError(messageStore.Append(ctx, message))
	}

	// When a view opens on the chat
	view := service.OpenTimeline(ctx, chatID)

	// Then the converged timeline shows all five messages across two days
	timeline := waitForTimeline(t, view, func(timeline chat.Timeline) bool {
		return timeline.TotalMessages() == 5
	})
	req.Len(timeline, 2)
	req.Len(timeline[0].Messages, 3)
	req.Len(timeline[1].Messages, 2)
	req.True(timeline[1].IsToday)

	// When a sixth message is posted on today's bucket
	posted, err := service.PostMessage(ctx, chat.PostMessageCommand{
		Chat:    chatID,
		Sender:  "bob",
		Type:    chat.TypeText,
		Content: "six",
	})
	req.NoError(err)

	// Then it appears exactly once, with the original five untouched
	timeline = waitForTimeline(t, view, func(timeline chat.Timeline) bool {
		return timeline.TotalMessages() == 6
	})
	req.Len(timeline, 2)
	req.Len(timeline[0].Messages, 3)
	req.Len(timeline[1].Messages, 3)
	req.True(timeline[1].Contains(posted.ID))

	// And closing the view ends the subscription
	view.Close()
	for range view.Updates() {
	}
}

func Test_Scenario_Last_Message_Feed(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	req.NoError(err)

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	clock := clockwork.NewRealClock()
	messageStore := store.NewMessageStore(db, log)
	views := runtime.NewViewManager(log, messageStore, clock, runtime.ViewConfig{
		TailLimit:         10,
		TailWindow:        20 * time.Millisecond,
		LastMessageWindow: 10 * time.Millisecond,
		HistoryRefresh:    100 * time.Millisecond,
		BufferSize:        16,
	})
	service := services.NewChatService(log, messageStore, views, clock)

	t.Cleanup(func() {
		views.CloseAll()
		_ = db.Close()
	})

	chatID := chat.ChatID(uuid.NewString())
	view := service.LastMessage(ctx, chatID)

	_, err = service.PostMessage(ctx, chat.PostMessageCommand{
		Chat: chatID, Sender: "alice", Type: chat.TypeText, Content: "first",
	})
	req.NoError(err)
	_, err = service.PostMessage(ctx, chat.PostMessageCommand{
		Chat: chatID, Sender: "bob", Type: chat.TypeText, Content: "latest",
	})
	req.NoError(err)

	deadline := time.After(5 * time.Second)
	for {
		var update contract.TimelineUpdate
		var ok bool
		select {
		case update, ok = <-view.Updates():
			req.True(ok)
			req.NoError(update.Err)
		case <-deadline:
			req.Fail("Timeout: last message never arrived")
		}

		timeline := update.Timeline
		if timeline.TotalMessages() == 1 && timeline[0].Messages[0].Content == "latest" {
			break
		}
	}
}
