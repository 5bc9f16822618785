package hook

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/ayusman/formcheck/internal/session"
)

// Dispatcher forwards session events to subscribed hooks.
// Each run happens on its own goroutine so the counting loop never waits on a hook.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	log      *slog.Logger
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(m *Manager, e *Executor, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		manager:  m,
		executor: e,
		log:      logger.With("component", "hook"),
	}
}

// CountChanged implements session.Listener.
func (d *Dispatcher) CountChanged(e session.CountChangedEvent) {
	d.dispatch(EventCountChanged, e)
}

// SessionEnded implements session.Listener.
func (d *Dispatcher) SessionEnded(e session.EndedEvent) {
	d.dispatch(EventSessionEnded, e)
}

// Wait blocks until every started hook run has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) dispatch(event string, payload any) {
	hooks := d.manager.Subscribers(event)
	if len(hooks) == 0 {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		d.log.Error("failed to marshal event", "event", event, "error", err)
		return
	}

	for _, h := range hooks {
		req := &Request{Event: event, Payload: data, Config: h.Manifest.Config}
		d.wg.Add(1)
		go func(h *Hook) {
			defer d.wg.Done()
			resp, err := d.executor.Execute(context.Background(), h, req)
			if err != nil {
				d.log.Warn("hook run failed", "hook", h.Manifest.Name, "event", event, "error", err)
				return
			}
			if !resp.Success {
				d.log.Warn("hook reported failure", "hook", h.Manifest.Name, "event", event, "error", resp.Error)
				return
			}
			d.log.Debug("hook ran", "hook", h.Manifest.Name, "event", event)
		}(h)
	}
}
