package reporter

import (
	"context"
	"sync"

	Logger "github.com/Luismorlan/eventmux/utils/log"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Engine manages the execution lifecycle of background modules sharing one
// event bus. The api server publishes relation toggles on the bus, modules
// consume them.
type Engine struct {
	// Module's lifetime is bound to Engine's lifetime. Each Module runs in a
	// separate routine.
	Modules []Module

	ctx    context.Context
	cancel context.CancelFunc

	// An in process bus, a broker backed one can substitute it since modules
	// only see the watermill interfaces.
	EventBus *gochannel.GoChannel

	wg sync.WaitGroup
}

func NewEngine(ctx context.Context, ms []Module, e *gochannel.GoChannel) *Engine {
	ctx, cancel := context.WithCancel(ctx)
	return &Engine{
		Modules:  ms,
		ctx:      ctx,
		cancel:   cancel,
		EventBus: e,
	}
}

// Start runs every module in its own routine and returns immediately.
func (e *Engine) Start() {
	for idx := range e.Modules {
		e.wg.Add(1)
		go func(m Module) {
			defer e.wg.Done()
			Logger.Log.Infof("start engine module %s", m.Name())
			RunModuleWithGracefulRestart(e.ctx, m)
			Logger.Log.Infof("Module %s finished execution.", m.Name())
		}(e.Modules[idx])
	}
}

// Shutdown stops all modules, closes the event bus and waits for the modules
// to return.
func (e *Engine) Shutdown() {
	Logger.Log.Infoln("shutting down engine modules")
	e.cancel()
	if err := e.EventBus.Close(); err != nil {
		Logger.Log.WithError(err).Warn("cannot close event bus")
	}
	e.wg.Wait()
}
