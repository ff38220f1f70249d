package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/beanbook/beanbook/internal/model"
)

// ChangesChannel is the pub/sub channel carrying document change notices
// between API instances.
const ChangesChannel = "beanbook:changes"

// PublishChange announces a document write to every instance.
func (c *Cache) PublishChange(ctx context.Context, change model.Change) error {
	data, err := encodeChange(change)
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, ChangesChannel, data).Err()
}

// SubscribeChanges opens a subscription to the change channel.
// The caller must close the returned PubSub.
func (c *Cache) SubscribeChanges(ctx context.Context) (*redis.PubSub, error) {
	sub := c.client.Subscribe(ctx, ChangesChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", ChangesChannel, err)
	}
	return sub, nil
}

func encodeChange(change model.Change) ([]byte, error) {
	data, err := json.Marshal(change)
	if err != nil {
		return nil, fmt.Errorf("marshal change: %w", err)
	}
	return data, nil
}

// DecodeChange parses a payload received on ChangesChannel.
func DecodeChange(payload string) (model.Change, error) {
	var change model.Change
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		return model.Change{}, fmt.Errorf("unmarshal change: %w", err)
	}
	if change.Collection == "" || change.DocumentID == "" {
		return model.Change{}, fmt.Errorf("incomplete change notice: %q", payload)
	}
	return change, nil
}
