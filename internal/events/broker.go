// Package events fans job progress notifications out to live subscribers.
package events

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"contentstudio/internal/domain"
)

const subscriberBuffer = 16

// Event is one job progress change as published by the database.
type Event struct {
	JobID    string           `json:"job_id"`
	UserID   string           `json:"user_id"`
	Step     string           `json:"step"`
	Status   domain.JobStatus `json:"status"`
	Error    string           `json:"error,omitempty"`
	VideoURL string           `json:"video_url,omitempty"`
}

// Terminal reports whether no further events follow for the job.
func (e Event) Terminal() bool {
	return e.Status.Terminal()
}

// Decode parses a notification payload.
func Decode(payload []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, err
	}
	ev.JobID = strings.TrimSpace(ev.JobID)
	if ev.JobID == "" {
		return Event{}, errors.New("event without job id")
	}
	return ev, nil
}

type subscriber struct {
	ch chan Event
}

// Broker delivers events to subscribers of a job. Publishing never blocks:
// a subscriber whose buffer is full misses the event.
type Broker struct {
	mu     sync.Mutex
	subs   map[string]map[*subscriber]struct{}
	closed bool
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[*subscriber]struct{})}
}

// Subscribe returns a channel of events for jobID and a function that ends
// the subscription. The channel is closed when the subscription ends.
func (b *Broker) Subscribe(jobID string) (<-chan Event, func()) {
	s := &subscriber{ch: make(chan Event, subscriberBuffer)}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(s.ch)
		return s.ch, func() {}
	}
	set, ok := b.subs[jobID]
	if !ok {
		set = make(map[*subscriber]struct{})
		b.subs[jobID] = set
	}
	set[s] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return s.ch, func() {
		once.Do(func() { b.remove(jobID, s) })
	}
}

// Publish delivers ev to the subscribers of its job and returns how many
// received it.
func (b *Broker) Publish(ev Event) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	delivered := 0
	for s := range b.subs[ev.JobID] {
		select {
		case s.ch <- ev:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers returns the number of open subscriptions for jobID.
func (b *Broker) Subscribers(jobID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[jobID])
}

// Close ends every subscription.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for jobID, set := range b.subs {
		for s := range set {
			close(s.ch)
		}
		delete(b.subs, jobID)
	}
}

func (b *Broker) remove(jobID string, s *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.subs[jobID]
	if !ok {
		return
	}
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	close(s.ch)
	if len(set) == 0 {
		delete(b.subs, jobID)
	}
}
