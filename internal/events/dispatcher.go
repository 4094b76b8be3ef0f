package events

import (
	"log/slog"
	"sync"
)

// Type identifies an event stream, e.g. "deck:searching".
type Type string

// Event is a domain event delivered to observers. Data carries a typed
// payload owned by the publishing package.
type Event struct {
	Type Type
	Data any
}

// Observer receives dispatched events. The rendering layer implements
// this to be told about search phase changes and catalog updates.
type Observer interface {
	// OnEvent is called when an event is dispatched.
	OnEvent(event Event) error

	// Name returns a human-readable name for logging.
	Name() string

	// ShouldHandle lets an observer filter event types it cares about.
	ShouldHandle(eventType Type) bool
}

// Dispatcher distributes events to registered observers. Thread-safe.
type Dispatcher struct {
	observers []Observer
	mu        sync.RWMutex
	logger    *slog.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{logger: logger}
}

// Register adds an observer. It will receive all future events it
// accepts via ShouldHandle.
func (d *Dispatcher) Register(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.observers = append(d.observers, observer)
	d.logger.Debug("Registered observer", "name", observer.Name())
}

// Unregister removes an observer.
func (d *Dispatcher) Unregister(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, obs := range d.observers {
		if obs == observer {
			d.observers[i] = d.observers[len(d.observers)-1]
			d.observers = d.observers[:len(d.observers)-1]
			d.logger.Debug("Unregistered observer", "name", observer.Name())
			return
		}
	}
}

// Dispatch delivers the event to every interested observer. Observer
// errors are logged, never propagated: a broken renderer must not take
// the search pipeline down with it.
func (d *Dispatcher) Dispatch(event Event) {
	d.mu.RLock()
	observers := make([]Observer, len(d.observers))
	copy(observers, d.observers)
	d.mu.RUnlock()

	for _, obs := range observers {
		if !obs.ShouldHandle(event.Type) {
			continue
		}
		if err := obs.OnEvent(event); err != nil {
			d.logger.Warn("Observer failed to handle event",
				"observer", obs.Name(),
				"type", event.Type,
				"error", err)
		}
	}
}
