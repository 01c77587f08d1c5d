// Package broadcast fans a stream of decoded signal maps out to
// subscriber channels in-process, so multiple trace-analysis consumers
// can observe the same decoded stream without re-decoding it. There are
// no network sockets here, channels only, with the same drop/kick
// backpressure policy a TCP fan-out hub would use for slow clients.
package broadcast

import (
	"sync"

	"github.com/kstaniek/go-vector-dbc/internal/logging"
	"github.com/kstaniek/go-vector-dbc/internal/metrics"
)

// Policy selects what happens when a subscriber's buffer is full.
type Policy int

const (
	PolicyDrop Policy = iota
	PolicyKick
)

// Decoded is one decoded frame: the owning message's name plus its
// decoded signal map, as returned by dbc.Message.Decode.
type Decoded struct {
	Message string
	Values  map[string]any
}

// Subscriber is a single fan-out destination.
type Subscriber struct {
	Out       chan Decoded
	Closed    chan struct{}
	closeOnce sync.Once
}

// Close signals the subscriber is closed. Idempotent.
func (s *Subscriber) Close() {
	s.closeOnce.Do(func() { close(s.Closed) })
}

// NewSubscriber creates a Subscriber with a buffered Out channel of size
// bufSize.
func NewSubscriber(bufSize int) *Subscriber {
	return &Subscriber{Out: make(chan Decoded, bufSize), Closed: make(chan struct{})}
}

// Broadcaster fans decoded frames out to every registered Subscriber.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[*Subscriber]struct{}
	Policy      Policy
}

// New creates an empty Broadcaster with the drop policy.
func New() *Broadcaster { return &Broadcaster{subscribers: make(map[*Subscriber]struct{})} }

// Subscribe registers a subscriber.
func (b *Broadcaster) Subscribe(s *Subscriber) {
	b.mu.Lock()
	prev := len(b.subscribers)
	b.subscribers[s] = struct{}{}
	cur := len(b.subscribers)
	b.mu.Unlock()
	if prev == 0 && cur == 1 {
		logging.L().Info("broadcast_first_subscriber")
	}
}

// Unsubscribe removes a subscriber and closes it. Safe to call more than
// once for the same subscriber.
func (b *Broadcaster) Unsubscribe(s *Subscriber) {
	b.mu.Lock()
	_, existed := b.subscribers[s]
	if existed {
		delete(b.subscribers, s)
	}
	cur := len(b.subscribers)
	b.mu.Unlock()
	select {
	case <-s.Closed:
	default:
		s.Close()
	}
	if existed && cur == 0 {
		logging.L().Info("broadcast_last_subscriber_removed")
	}
}

// Publish sends d to every subscriber honoring the backpressure policy: a
// full buffer either drops the frame for that subscriber (PolicyDrop) or
// kicks the subscriber (PolicyKick), closing it so the owner can clean up.
func (b *Broadcaster) Publish(d Decoded) {
	for _, s := range b.snapshot() {
		select {
		case s.Out <- d:
		default:
			if b.Policy == PolicyKick {
				s.Close()
			}
			metrics.IncBroadcastDropped()
		}
	}
}

func (b *Broadcaster) snapshot() []*Subscriber {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Subscriber, 0, len(b.subscribers))
	for s := range b.subscribers {
		out = append(out, s)
	}
	return out
}

// Count returns the number of active subscribers.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
