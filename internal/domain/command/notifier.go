package command

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GriffinCanCode/filedeck/internal/domain/tree"
)

// Event tells subscribers the view changed and should be re-rendered.
type Event struct {
	Seq       uint64    `json:"seq"`
	Reason    string    `json:"reason"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier fans change events out to subscribers. Slow subscribers miss
// events rather than block the publisher; each event carries a sequence
// number so a gap is detectable.
type Notifier struct {
	mu   sync.RWMutex
	subs map[string]chan Event
	seq  uint64
}

// NewNotifier creates a notifier with no subscribers.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[string]chan Event)}
}

// Subscribe registers a subscriber. The returned cancel func unregisters it
// and closes the channel.
func (n *Notifier) Subscribe(buffer int) (string, <-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	subID := uuid.NewString()
	ch := make(chan Event, buffer)

	n.mu.Lock()
	n.subs[subID] = ch
	n.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, subID)
			n.mu.Unlock()
			close(ch)
		})
	}
	return subID, ch, cancel
}

// Publish delivers an event to every subscriber without blocking.
func (n *Notifier) Publish(reason string, path tree.Path) Event {
	n.mu.Lock()
	n.seq++
	ev := Event{Seq: n.seq, Reason: reason, Path: path.String(), Timestamp: time.Now()}
	for _, ch := range n.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	n.mu.Unlock()
	return ev
}

// Subscribers returns the number of live subscribers.
func (n *Notifier) Subscribers() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}
