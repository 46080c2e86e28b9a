package basket

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const holdKeyPrefix = "basket:hold:"

// HoldStore mirrors active holds into redis with a TTL matching the hold
// duration. The in-memory timers are authoritative while the process lives;
// the mirror lets the sweeper find in-progress appointments whose hold was
// lost to a restart.
type HoldStore struct {
	redis *redis.Client
}

// NewHoldStore builds a store backed by the provided client.
func NewHoldStore(client *redis.Client) *HoldStore {
	if client == nil {
		panic("basket: redis client cannot be nil")
	}
	return &HoldStore{redis: client}
}

// Put records the hold with the given TTL.
func (s *HoldStore) Put(ctx context.Context, holdID, appointmentID string, ttl time.Duration) error {
	if err := s.redis.Set(ctx, holdKey(holdID), appointmentID, ttl).Err(); err != nil {
		return fmt.Errorf("basket: persist hold: %w", err)
	}
	return nil
}

// Delete drops the hold mirror.
func (s *HoldStore) Delete(ctx context.Context, holdID string) error {
	if err := s.redis.Del(ctx, holdKey(holdID)).Err(); err != nil {
		return fmt.Errorf("basket: delete hold: %w", err)
	}
	return nil
}

// ActiveAppointmentIDs returns the appointment ids of every unexpired hold
// mirror across all processes.
func (s *HoldStore) ActiveAppointmentIDs(ctx context.Context) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	iter := s.redis.Scan(ctx, 0, holdKeyPrefix+"*", 100).Iterator()
	keys := make([]string, 0)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("basket: scan holds: %w", err)
	}
	if len(keys) == 0 {
		return out, nil
	}
	vals, err := s.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("basket: load holds: %w", err)
	}
	for _, v := range vals {
		if id, ok := v.(string); ok && strings.TrimSpace(id) != "" {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

func holdKey(id string) string {
	return holdKeyPrefix + id
}
