package util

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/spikeekips/votebox/util/logging"
)

var (
	DaemonAlreadyStartedError = NewError("daemon already started")
	DaemonAlreadyStoppedError = NewError("daemon already stopped")
)

type Daemon interface {
	Start() error
	Stop() error
}

// ContextDaemon runs the callback in background until Stop cancels the
// context. It can be started again after stopped.
type ContextDaemon struct {
	sync.RWMutex
	*logging.Logging
	callback func(context.Context) error
	cancel   func()
	done     chan struct{}
}

func NewContextDaemon(name string, callback func(context.Context) error) *ContextDaemon {
	return &ContextDaemon{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", "daemon-"+name)
		}),
		callback: callback,
	}
}

func (dm *ContextDaemon) IsStarted() bool {
	dm.RLock()
	defer dm.RUnlock()

	return dm.cancel != nil
}

func (dm *ContextDaemon) Start() error {
	dm.Lock()
	defer dm.Unlock()

	if dm.cancel != nil {
		return DaemonAlreadyStartedError
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	dm.cancel = cancel
	dm.done = done

	go func() {
		defer close(done)

		if err := dm.callback(ctx); err != nil && !errors.Is(err, context.Canceled) {
			dm.Log().Error().Err(err).Msg("daemon stopped by error")
		}
	}()

	dm.Log().Debug().Msg("started")

	return nil
}

// Stop cancels the callback and waits until it returns.
func (dm *ContextDaemon) Stop() error {
	dm.Lock()

	if dm.cancel == nil {
		dm.Unlock()

		return DaemonAlreadyStoppedError
	}

	cancel, done := dm.cancel, dm.done
	dm.cancel = nil
	dm.done = nil
	dm.Unlock()

	cancel()
	<-done

	dm.Log().Debug().Msg("stopped")

	return nil
}
