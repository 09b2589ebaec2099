package bot

import (
	"context"
	"sync"
)

var (
	instanceMu sync.Mutex
	instance   *Bot
)

// Init creates the process-wide bot. An existing instance is returned unchanged.
func Init(cfg Config, gw Gateway, opts ...Option) (*Bot, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance != nil {
		return instance, nil
	}

	b, err := New(cfg, gw, opts...)
	if err != nil {
		return nil, err
	}
	instance = b
	return b, nil
}

// Default returns the process-wide bot created by Init.
func Default() (*Bot, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance == nil {
		return nil, ErrNotInitialized
	}
	return instance, nil
}

// Reset stops and clears the process-wide bot.
func Reset(ctx context.Context) error {
	instanceMu.Lock()
	b := instance
	instance = nil
	instanceMu.Unlock()

	if b == nil {
		return nil
	}
	return b.Stop(ctx)
}
