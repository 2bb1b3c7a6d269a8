// Package bus provides an optional cross-instance publish/subscribe
// bridge over Redis, used only as a sticky-room-routing hook (spec §9
// Design Notes). It is never required: a nil *Service puts every Room in
// single-instance mode, which is the only mode spec.md's Non-goals
// actually require.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethx42/tabula-room-service/internal/logging"
	"github.com/ethx42/tabula-room-service/internal/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// FramePayload is the envelope published to Redis for a room event.
type FramePayload struct {
	RoomID  string          `json:"roomId"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Service wraps a Redis client behind a circuit breaker so that a Redis
// outage degrades to single-instance behavior instead of blocking the
// room worker.
type Service struct {
	client *redis.Client
	cb     *gobreaker.CircuitBreaker
}

// NewService dials Redis at addr. Pass an empty addr to get a nil-safe,
// disabled Service (every method becomes a no-op).
func NewService(addr, password string) *Service {
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis-bus",
		MaxRequests: 5,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})

	return &Service{client: client, cb: cb}
}

// Publish republishes a room frame to the given room's Redis channel.
func (s *Service) Publish(ctx context.Context, roomID, frameType string, payload any) error {
	if s == nil || s.client == nil {
		return nil
	}

	_, err := s.cb.Execute(func() (interface{}, error) {
		innerBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		env := FramePayload{RoomID: roomID, Type: frameType, Payload: innerBytes}
		data, err := json.Marshal(env)
		if err != nil {
			return nil, fmt.Errorf("marshal envelope: %w", err)
		}
		channel := fmt.Sprintf("tabula:room:%s", roomID)
		return nil, s.client.Publish(ctx, channel, data).Err()
	})

	if err != nil {
		if err == gobreaker.ErrOpenState {
			metrics.CircuitBreakerFailures.WithLabelValues("redis-bus").Inc()
			logging.Warn(ctx, "redis circuit breaker open, dropping publish", zap.String("room_id", roomID))
			return nil
		}
		return err
	}
	return nil
}

// Subscribe listens for events published on roomID's channel by other
// instances and invokes handler for each. It runs in its own goroutine
// until ctx is cancelled.
func (s *Service) Subscribe(ctx context.Context, roomID string, handler func(FramePayload)) {
	if s == nil || s.client == nil {
		return
	}

	channel := fmt.Sprintf("tabula:room:%s", roomID)
	pubsub := s.client.Subscribe(ctx, channel)

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var payload FramePayload
				if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
					logging.Error(ctx, "failed to unmarshal bus message", zap.Error(err))
					continue
				}
				handler(payload)
			}
		}
	}()
}

// Ping checks Redis connectivity; used by the readiness health check.
func (s *Service) Ping(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.client.Ping(ctx).Err()
	})
	return err
}

// Close releases the underlying Redis connection.
func (s *Service) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
