package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/beanbook/beanbook/internal/metrics"
	"github.com/beanbook/beanbook/internal/model"
)

// DefaultLoadTimeout bounds one snapshot query.
const DefaultLoadTimeout = 10 * time.Second

// Loader builds the current snapshot of a topic for a user.
type Loader interface {
	LoadSnapshot(ctx context.Context, topic Topic, userID string) (any, error)
}

// ChangeDecoder parses a pub/sub payload into a change notice.
type ChangeDecoder func(payload string) (model.Change, error)

// Hub tracks subscribers and refreshes them when documents change.
type Hub struct {
	loader  Loader
	logger  *slog.Logger
	metrics metrics.Recorder
	timeout time.Duration
	seq     atomic.Uint64

	mu   sync.RWMutex
	subs map[string]*Subscriber
}

// NewHub creates a hub.
func NewHub(loader Loader, logger *slog.Logger, recorder metrics.Recorder) *Hub {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Hub{
		loader:  loader,
		logger:  logger.With("component", "realtime.hub"),
		metrics: recorder,
		timeout: DefaultLoadTimeout,
		subs:    make(map[string]*Subscriber),
	}
}

// Register adds a subscriber for a signed-in user.
func (h *Hub) Register(userID string) *Subscriber {
	sub := newSubscriber(uuid.NewString(), userID)

	h.mu.Lock()
	h.subs[sub.ID] = sub
	h.mu.Unlock()

	return sub
}

// Unregister removes a subscriber and all its topics.
func (h *Hub) Unregister(sub *Subscriber) {
	h.mu.Lock()
	delete(h.subs, sub.ID)
	h.mu.Unlock()

	if n := sub.close(); n > 0 {
		h.metrics.AddRealtimeSubscribers(-n)
	}
}

// Count returns the number of registered subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Subscribe adds a topic and queues its current snapshot.
func (h *Hub) Subscribe(ctx context.Context, sub *Subscriber, topic Topic) error {
	if !topic.IsValid() {
		return fmt.Errorf("unknown topic %q", topic)
	}
	if sub.add(topic) {
		h.metrics.AddRealtimeSubscribers(1)
	}
	h.refresh(ctx, sub, topic)
	return nil
}

// Unsubscribe drops a topic and any snapshot still queued for it.
func (h *Hub) Unsubscribe(sub *Subscriber, topic Topic) {
	if sub.remove(topic) {
		h.metrics.AddRealtimeSubscribers(-1)
	}
}

// refresh loads a snapshot for one subscriber and queues it.
func (h *Hub) refresh(ctx context.Context, sub *Subscriber, topic Topic) {
	seq := h.seq.Add(1)

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	data, err := h.loader.LoadSnapshot(ctx, topic, sub.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to load snapshot",
			"topic", topic,
			"subscriber_id", sub.ID,
			"error", err,
		)
		sub.deliverError(Envelope{Type: TypeError, Topic: topic, Error: "failed to load snapshot"})
		return
	}

	sub.deliver(Envelope{Type: TypeSnapshot, Topic: topic, Data: data}, seq)
}

// affected returns the topics a change touches for a given subscriber.
func affected(change model.Change, sub *Subscriber) []Topic {
	switch change.Collection {
	case model.CollectionBrews:
		topics := []Topic{TopicBrews}
		if change.OwnerID != "" && change.OwnerID == sub.UserID {
			topics = append(topics, TopicMyBrews)
		}
		return topics
	case model.CollectionBags:
		return []Topic{TopicBags}
	case model.CollectionUsers:
		if change.DocumentID == sub.UserID {
			return []Topic{TopicProfile}
		}
	}
	return nil
}

// Notify refreshes every subscriber whose topics the change touches.
// Shared lists are loaded once per notice.
func (h *Hub) Notify(ctx context.Context, change model.Change) {
	h.mu.RLock()
	subs := make([]*Subscriber, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	shared := make(map[Topic]Envelope)
	sharedSeq := make(map[Topic]uint64)

	for _, sub := range subs {
		for _, topic := range affected(change, sub) {
			if !sub.subscribed(topic) {
				continue
			}

			if topic == TopicBrews || topic == TopicBags {
				env, ok := shared[topic]
				if !ok {
					seq := h.seq.Add(1)
					env = h.loadShared(ctx, topic, sub.UserID)
					shared[topic] = env
					sharedSeq[topic] = seq
				}
				if env.Type == TypeError {
					sub.deliverError(env)
					continue
				}
				sub.deliver(env, sharedSeq[topic])
				continue
			}

			h.refresh(ctx, sub, topic)
		}
	}
}

func (h *Hub) loadShared(ctx context.Context, topic Topic, userID string) Envelope {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	data, err := h.loader.LoadSnapshot(ctx, topic, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to load shared snapshot", "topic", topic, "error", err)
		return Envelope{Type: TypeError, Topic: topic, Error: "failed to load snapshot"}
	}
	return Envelope{Type: TypeSnapshot, Topic: topic, Data: data}
}

// Listen consumes change notices from a Redis subscription until ctx is done.
func (h *Hub) Listen(ctx context.Context, sub *redis.PubSub, decode ChangeDecoder) {
	h.logger.Info("realtime hub listening for changes")
	ch := sub.Channel()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("realtime hub stopped")
			return
		case msg, ok := <-ch:
			if !ok {
				h.logger.Warn("change subscription closed")
				return
			}
			change, err := decode(msg.Payload)
			if err != nil {
				h.logger.Warn("dropping malformed change notice", "error", err)
				continue
			}
			h.Notify(ctx, change)
		}
	}
}

// Shutdown closes every subscriber so their connections wind down.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[string]*Subscriber)
	h.mu.Unlock()

	for _, sub := range subs {
		if n := sub.close(); n > 0 {
			h.metrics.AddRealtimeSubscribers(-n)
		}
	}
	return nil
}
