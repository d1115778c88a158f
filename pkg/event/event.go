// Package event provides a small synchronous/async event dispatcher.
//
// Controllers fire one event per successful write, named "<resource>.<action>"
// (for example "productos.created"). Listeners registered on "*" see every
// event; the websocket change feed is one of them.
package event

import (
	"sync"
	"time"
)

// Actions carried by change events.
const (
	Created = "created"
	Updated = "updated"
	Deleted = "deleted"
)

// Event describes a change to one row.
type Event struct {
	Name     string    `json:"evento"`
	Resource string    `json:"recurso"`
	Action   string    `json:"accion"`
	ID       uint      `json:"id"`
	At       time.Time `json:"fecha"`
}

// Change builds the event for action on resource row id.
func Change(resource, action string, id uint) Event {
	return Event{
		Name:     resource + "." + action,
		Resource: resource,
		Action:   action,
		ID:       id,
		At:       time.Now().UTC(),
	}
}

// Handler receives an event.
type Handler func(e Event)

// Wildcard listeners receive every event.
const Wildcard = "*"

// Dispatcher fans events out to listeners. The zero value is not usable;
// call NewDispatcher.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler

	// FireAsync queue, drained in order by at most one goroutine.
	qmu      sync.Mutex
	queue    []Event
	draining bool
	wg       sync.WaitGroup
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: map[string][]Handler{}}
}

// Listen registers a handler for the given event name, or Wildcard.
func (d *Dispatcher) Listen(name string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = append(d.handlers[name], h)
}

func (d *Dispatcher) listeners(name string) []Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	hs := make([]Handler, 0, len(d.handlers[name])+len(d.handlers[Wildcard]))
	hs = append(hs, d.handlers[name]...)
	if name != Wildcard {
		hs = append(hs, d.handlers[Wildcard]...)
	}
	return hs
}

// Fire dispatches e synchronously to every matching listener.
func (d *Dispatcher) Fire(e Event) {
	for _, h := range d.listeners(e.Name) {
		h(e)
	}
}

// FireAsync queues e and returns immediately. Queued events are delivered
// one at a time in the order they were fired, so listeners never see a
// later event before an earlier one. Wait blocks until the queue is empty.
func (d *Dispatcher) FireAsync(e Event) {
	d.wg.Add(1)
	d.qmu.Lock()
	d.queue = append(d.queue, e)
	start := !d.draining
	d.draining = true
	d.qmu.Unlock()

	if start {
		go d.drain()
	}
}

func (d *Dispatcher) drain() {
	for {
		d.qmu.Lock()
		if len(d.queue) == 0 {
			d.draining = false
			d.queue = nil
			d.qmu.Unlock()
			return
		}
		e := d.queue[0]
		d.queue = d.queue[1:]
		d.qmu.Unlock()

		d.Fire(e)
		d.wg.Done()
	}
}

// Wait blocks until every queued FireAsync event has been delivered.
func (d *Dispatcher) Wait() { d.wg.Wait() }

// Flush removes all listeners.
func (d *Dispatcher) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = map[string][]Handler{}
}
