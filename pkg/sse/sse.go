// Package sse streams the change feed as Server-Sent Events, for clients
// that cannot hold a websocket open.
//
//	broker := sse.NewBroker()
//	r.Get("/sse/cambios", "sse.cambios", broker.ServeHTTP)
//	broker.PublishJSON("productos.created", e)
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const (
	subscriberBuffer = 16
	heartbeat        = 25 * time.Second
)

// Stream is one open SSE response.
type Stream struct {
	w       http.ResponseWriter
	r       *http.Request
	flusher http.Flusher
}

// New sets the SSE headers on w. It returns nil, after answering 500, when
// w cannot flush.
func New(w http.ResponseWriter, r *http.Request) *Stream {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return nil
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no") // nginx

	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &Stream{w: w, r: r, flusher: flusher}
}

// SendRaw writes one event whose data is already encoded.
func (s *Stream) SendRaw(event string, data []byte) error {
	if event != "" {
		if _, err := fmt.Fprintf(s.w, "event: %s\n", event); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Send writes a named event with a JSON payload.
func (s *Stream) Send(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("sse: marshal: %w", err)
	}
	return s.SendRaw(event, payload)
}

// Comment writes a comment line, used as a keepalive.
func (s *Stream) Comment(msg string) error {
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", msg); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Done is closed when the client goes away.
func (s *Stream) Done() <-chan struct{} { return s.r.Context().Done() }

type message struct {
	event string
	data  []byte
}

// Broker fans published messages out to every connected stream. Slow
// subscribers lose messages rather than block publishers.
type Broker struct {
	mu   sync.Mutex
	subs map[chan message]struct{}

	done      chan struct{}
	closeOnce sync.Once
}

func NewBroker() *Broker {
	return &Broker{subs: map[chan message]struct{}{}, done: make(chan struct{})}
}

// Close ends every open stream. Streams opened afterwards return at once.
func (b *Broker) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}

func (b *Broker) subscribe() chan message {
	ch := make(chan message, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) unsubscribe(ch chan message) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

// Subscribers returns the number of open streams.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Publish queues data for every subscriber.
func (b *Broker) Publish(event string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- message{event: event, data: data}:
		default:
		}
	}
}

// PublishJSON encodes v and publishes it.
func (b *Broker) PublishJSON(event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("sse: marshal: %w", err)
	}
	b.Publish(event, data)
	return nil
}

// ServeHTTP holds the response open and relays published messages until
// the client disconnects or the broker is closed.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// The server's write timeout would otherwise cut the stream.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	stream := New(w, r)
	if stream == nil {
		return
	}

	ch := b.subscribe()
	defer b.unsubscribe(ch)

	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-stream.Done():
			return
		case <-b.done:
			return
		case m := <-ch:
			if err := stream.SendRaw(m.event, m.data); err != nil {
				return
			}
		case <-ticker.C:
			if err := stream.Comment("ping"); err != nil {
				return
			}
		}
	}
}
