// Package realtime pushes full list snapshots to live listeners.
package realtime

import (
	"context"
	"errors"
	"sync"
)

// Topic is a list a client can listen to.
type Topic string

const (
	TopicBrews   Topic = "brews"
	TopicBags    Topic = "bags"
	TopicProfile Topic = "profile"
	TopicMyBrews Topic = "my-brews"
)

// IsValid reports whether the topic is known.
func (t Topic) IsValid() bool {
	switch t {
	case TopicBrews, TopicBags, TopicProfile, TopicMyBrews:
		return true
	}
	return false
}

// Message types.
const (
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
	TypeSnapshot    = "snapshot"
	TypeError       = "error"
)

// Envelope is one frame on the wire in either direction.
type Envelope struct {
	Type  string `json:"type"`
	Topic Topic  `json:"topic,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// ErrSubscriberClosed is returned by Next once the subscriber is removed.
var ErrSubscriberClosed = errors.New("subscriber closed")

// Subscriber is one live connection. It keeps only the newest undelivered
// snapshot per topic, so a slow reader skips intermediate states.
type Subscriber struct {
	ID     string
	UserID string

	mu      sync.Mutex
	topics  map[Topic]uint64 // topic -> seq of the newest snapshot accepted
	pending map[Topic]Envelope
	errors  []Envelope
	closed  bool

	signal chan struct{}
	done   chan struct{}
}

func newSubscriber(id, userID string) *Subscriber {
	return &Subscriber{
		ID:      id,
		UserID:  userID,
		topics:  make(map[Topic]uint64),
		pending: make(map[Topic]Envelope),
		signal:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Topics returns the subscribed topics.
func (s *Subscriber) Topics() []Topic {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Topic, 0, len(s.topics))
	for t := range s.topics {
		out = append(out, t)
	}
	return out
}

func (s *Subscriber) subscribed(topic Topic) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.topics[topic]
	return ok
}

// add returns false if the topic was already subscribed.
func (s *Subscriber) add(topic Topic) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if _, ok := s.topics[topic]; ok {
		return false
	}
	s.topics[topic] = 0
	return true
}

// remove returns false if the topic was not subscribed.
func (s *Subscriber) remove(topic Topic) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.topics[topic]; !ok {
		return false
	}
	delete(s.topics, topic)
	delete(s.pending, topic)
	return true
}

// deliver queues a snapshot unless a newer one was already accepted.
func (s *Subscriber) deliver(env Envelope, seq uint64) bool {
	s.mu.Lock()
	last, ok := s.topics[env.Topic]
	if s.closed || !ok || seq <= last {
		s.mu.Unlock()
		return false
	}
	s.topics[env.Topic] = seq
	s.pending[env.Topic] = env
	s.mu.Unlock()

	s.wake()
	return true
}

// SendError queues an error frame for topic.
func (s *Subscriber) SendError(topic Topic, message string) {
	s.deliverError(Envelope{Type: TypeError, Topic: topic, Error: message})
}

func (s *Subscriber) deliverError(env Envelope) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.errors = append(s.errors, env)
	s.mu.Unlock()

	s.wake()
}

func (s *Subscriber) wake() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// Next blocks until there is something to send and returns it.
func (s *Subscriber) Next(ctx context.Context) ([]Envelope, error) {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return nil, ErrSubscriberClosed
		}
		if len(s.pending) > 0 || len(s.errors) > 0 {
			out := append([]Envelope(nil), s.errors...)
			for _, env := range s.pending {
				out = append(out, env)
			}
			s.errors = nil
			s.pending = make(map[Topic]Envelope)
			s.mu.Unlock()
			return out, nil
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.done:
			return nil, ErrSubscriberClosed
		case <-s.signal:
		}
	}
}

// close returns the number of topics that were subscribed.
func (s *Subscriber) close() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	s.closed = true
	n := len(s.topics)
	s.topics = map[Topic]uint64{}
	s.pending = map[Topic]Envelope{}
	close(s.done)
	return n
}
