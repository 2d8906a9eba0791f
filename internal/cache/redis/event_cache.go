package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/betledger/ledger/internal/domain"
	"github.com/redis/go-redis/v9"
)

// EventCache stores the generated catalog as one JSON value per house.
//
// Key schema:
//
//	betledger:events:{house} - JSON array of domain.Event
type EventCache struct {
	rdb *redis.Client
}

// NewEventCache creates an EventCache backed by the given Client.
func NewEventCache(c *Client) *EventCache {
	return &EventCache{rdb: c.rdb}
}

func eventsKey(house string) string { return "betledger:events:" + house }

// Get returns the cached events of a house. ok is false on a cache miss.
func (c *EventCache) Get(ctx context.Context, house string) ([]domain.Event, bool, error) {
	data, err := c.rdb.Get(ctx, eventsKey(house)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis: get events %s: %w", house, err)
	}

	var events []domain.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, false, fmt.Errorf("redis: unmarshal events %s: %w", house, err)
	}
	return events, true, nil
}

// Set stores the events of a house for ttl.
func (c *EventCache) Set(ctx context.Context, house string, events []domain.Event, ttl time.Duration) error {
	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("redis: marshal events %s: %w", house, err)
	}
	if err := c.rdb.Set(ctx, eventsKey(house), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set events %s: %w", house, err)
	}
	return nil
}
