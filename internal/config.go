package internal

import (
	"fmt"
	"time"
)

type Config struct {
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel          string        `env:"LOG_LEVEL,required=true"`
	BufferSize        int           `env:"BUFFER_SIZE,required=true"`
	TailLimit         int           `env:"TAIL_LIMIT,required=true"`
	TailWindow        time.Duration `env:"TAIL_WINDOW,required=true"`
	LastMessageWindow time.Duration `env:"LAST_MESSAGE_WINDOW,required=true"`
	HistoryRefresh    time.Duration `env:"HISTORY_REFRESH,required=true"`
	ChatID            string        `env:"CHAT_ID"`
	Demo              bool          `env:"DEMO"`
}

// Validate rejects tunings the pipeline cannot run with. The last-message
// window must not exceed the tail window: the cheaper query is the one
// allowed to settle first.
func (c Config) Validate() error {
	if c.TailLimit <= 0 {
		return fmt.Errorf("TAIL_LIMIT must be positive, got %d", c.TailLimit)
	}
	if c.TailWindow <= 0 {
		return fmt.Errorf("TAIL_WINDOW must be positive, got %s", c.TailWindow)
	}
	if c.LastMessageWindow > c.TailWindow {
		return fmt.Errorf("LAST_MESSAGE_WINDOW (%s) must not exceed TAIL_WINDOW (%s)",
			c.LastMessageWindow, c.TailWindow)
	}
	return nil
}
