package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ritzau/qconvert/pkg/logging"
)

// ErrClosed is returned once the feed has been closed.
var ErrClosed = errors.New("feed is closed")

// subscriberBuffer bounds how far a slow subscriber may fall behind before
// events are dropped for it.
const subscriberBuffer = 16

// Feed publishes the state of the served conversion graph. A new subscriber
// first receives the current graph, followed by the latest policy error if
// one was reported after that graph was published.
type Feed struct {
	mu      sync.Mutex
	subs    map[*Subscription]struct{}
	version int
	state   *Event // latest graph_updated
	failure *Event // latest policy_error since state
	closed  bool
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[*Subscription]struct{})}
}

// Subscription receives feed events until it is closed, its context ends,
// or the feed is closed. The events channel is closed in all three cases.
type Subscription struct {
	feed   *Feed
	events chan Event
}

// Events returns the channel of events.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close ends the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.feed.remove(s)
}

// Subscribe registers a subscriber and queues the current state for it.
func (f *Feed) Subscribe(ctx context.Context) (*Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrClosed
	}

	sub := &Subscription{feed: f, events: make(chan Event, subscriberBuffer)}
	f.subs[sub] = struct{}{}

	replayed := 0
	for _, e := range []*Event{f.state, f.failure} {
		if e != nil {
			sub.events <- *e
			replayed++
		}
	}
	logging.Debug("new graph subscriber", "replayed", replayed, "subscribers", len(f.subs))

	go func() {
		<-ctx.Done()
		sub.Close()
	}()
	return sub, nil
}

// PublishGraph announces a new served graph. It replaces the state replayed
// to later subscribers and clears any earlier policy error.
func (f *Feed) PublishGraph(update GraphUpdate) error {
	return f.publish(EventGraphUpdated, update)
}

// PublishPolicyError announces a failed policy reload.
func (f *Feed) PublishPolicyError(failure PolicyError) error {
	return f.publish(EventPolicyError, failure)
}

func (f *Feed) publish(eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}

	f.version++
	event := Event{Topic: TopicConversionGraph, Type: eventType, Data: payload, Version: f.version}
	switch eventType {
	case EventGraphUpdated:
		f.state, f.failure = &event, nil
	case EventPolicyError:
		f.failure = &event
	}

	logging.Debug("publishing event", "type", eventType, "version", event.Version, "subscribers", len(f.subs))
	for sub := range f.subs {
		select {
		case sub.events <- event:
		default:
			logging.Warn("subscriber is behind, dropping event", "type", eventType, "version", event.Version)
		}
	}
	return nil
}

// Subscribers returns the number of live subscriptions.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Close ends every subscription. Later calls to Subscribe and Publish fail.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.closed = true
	for sub := range f.subs {
		close(sub.events)
	}
	clear(f.subs)
}

func (f *Feed) remove(sub *Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.subs[sub]; ok {
		delete(f.subs, sub)
		close(sub.events)
	}
}
