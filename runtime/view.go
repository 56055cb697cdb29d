// Package runtime wires per-view pipelines and supervises their workers.
// It contains no grouping or merge rules of its own.
package runtime

import (
	"chat-timeline/contract"
	"chat-timeline/domain/chat"
	"chat-timeline/runtime/workers"
	"chat-timeline/sink"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ViewConfig carries the per-view query tuning. The last-message window is
// kept at or below the tail window: a single-row query stabilizes faster
// than a paginated one.
type ViewConfig struct {
	TailLimit         int
	TailWindow        time.Duration
	LastMessageWindow time.Duration
	HistoryRefresh    time.Duration
	BufferSize        int
}

// View is one open subscription on a chat. Updates delivers converged
// timelines (or a terminal error) until Close tears the pipeline down; the
// channel closes once every worker has stopped.
type View struct {
	chatID  chat.ChatID
	cancel  context.CancelFunc
	updates <-chan contract.TimelineUpdate
	done    chan struct{}
}

func (v *View) ChatID() chat.ChatID {
	return v.chatID
}

func (v *View) Updates() <-chan contract.TimelineUpdate {
	return v.updates
}

// Close cancels the view context and waits for all its workers to finish.
// No background work continues afterwards.
func (v *View) Close() {
	v.cancel()
	<-v.done
}

// ViewManager opens and tears down chat views. Every view owns its own
// workers, channels and merge state; the only shared resource is the store,
// which supports concurrent independent readers.
type ViewManager struct {
	mu     sync.Mutex
	log    *slog.Logger
	store  contract.MessageStore
	clock  clockwork.Clock
	config ViewConfig
	views  map[*View]struct{}
}

func NewViewManager(log *slog.Logger, store contract.MessageStore, clock clockwork.Clock, config ViewConfig) *ViewManager {
	return &ViewManager{
		log:    log,
		store:  store,
		clock:  clock,
		config: config,
		views:  make(map[*View]struct{}),
	}
}

// Open starts the full pipeline for one chat view: a debounced, gated live
// tail, an ungated history snapshot with periodic refresh, and the merge
// worker folding both into the converged timeline, all under one
// supervisor. Extra sinks receive every published update alongside the
// view's own subscriber channel.
func (m *ViewManager) Open(ctx context.Context, chatID chat.ChatID, extraSinks ...contract.TimelineSink) *View {
	viewCtx, cancel := context.WithCancel(ctx)

	liveCh := make(chan contract.TimelineUpdate)
	historyCh := make(chan contract.TimelineUpdate)
	channelSink := sink.NewChannelSink(m.config.BufferSize)
	sinks := append([]contract.TimelineSink{channelSink}, extraSinks...)

	supervisor := workers.NewSupervisor(m.log)
	supervisor.Add(
		workers.NewLiveQueryWorker(m.log, m.store, m.clock, chatID, m.config.TailLimit, m.config.TailWindow, liveCh),
		workers.NewHistorySnapshotWorker(m.log, m.store, m.clock, chatID, m.config.HistoryRefresh, historyCh),
		workers.NewMergeWorker(m.log, liveCh, historyCh, sinks...),
	)

	view := &View{
		chatID:  chatID,
		cancel:  cancel,
		updates: channelSink.Updates(),
		done:    make(chan struct{}),
	}
	m.track(view)

	go func() {
		defer close(view.done)
		defer m.untrack(view)
		defer channelSink.Close()
		m.log.Info("Opening chat view", "chat", chatID)
		supervisor.Run(viewCtx)
		m.log.Info("Chat view closed", "chat", chatID)
	}()

	return view
}

// LastMessage starts a minimal live query on the newest message of a chat,
// the feed behind a chat-list row. Same debounce machinery as the tail,
// with a single-row window and no history or merge stage.
func (m *ViewManager) LastMessage(ctx context.Context, chatID chat.ChatID) *View {
	viewCtx, cancel := context.WithCancel(ctx)

	updates := make(chan contract.TimelineUpdate, m.config.BufferSize)
	supervisor := workers.NewSupervisor(m.log)
	supervisor.Add(
		workers.NewLiveQueryWorker(m.log, m.store, m.clock, chatID, 1, m.config.LastMessageWindow, updates),
	)

	view := &View{
		chatID:  chatID,
		cancel:  cancel,
		updates: updates,
		done:    make(chan struct{}),
	}
	m.track(view)

	go func() {
		defer close(view.done)
		defer m.untrack(view)
		defer close(updates)
		supervisor.Run(viewCtx)
	}()

	return view
}

// CloseAll tears down every view still open, for process shutdown.
func (m *ViewManager) CloseAll() {
	m.mu.Lock()
	open := make([]*View, 0, len(m.views))
	for view := range m.views {
		open = append(open, view)
	}
	m.mu.Unlock()

	for _, view := range open {
		view.Close()
	}
}

func (m *ViewManager) track(view *View) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.views[view] = struct{}{}
}

func (m *ViewManager) untrack(view *View) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.views, view)
}
