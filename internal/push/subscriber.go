package push

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/PunisaRaicevic/hotelpark-tehnika-sub000/internal/taskcache"
	"github.com/coder/websocket"
)

const (
	minBackoff = 500 * time.Millisecond
	maxBackoff = 30 * time.Second
)

// Cache is the part of the task store the push channel writes to.
type Cache interface {
	Upsert(payload taskcache.Payload, options taskcache.UpsertOptions)
	Remove(id string)
	ScheduleHydration(delay time.Duration)
}

// Subscriber applies task events from the push channel to the cache and
// reconnects until its context ends.
type Subscriber struct {
	url            string
	cache          Cache
	hydrationDelay time.Duration
}

func NewSubscriber(url string, cache Cache, hydrationDelay time.Duration) *Subscriber {
	return &Subscriber{
		url:            url,
		cache:          cache,
		hydrationDelay: hydrationDelay,
	}
}

func (s *Subscriber) Run(ctx context.Context) {
	backoff := minBackoff
	for {
		connected, err := s.listen(ctx)
		if ctx.Err() != nil {
			return
		}
		if connected {
			backoff = minBackoff
		}
		slog.Warn("push channel disconnected", "url", s.url, "error", err, "retry_in", backoff)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

func (s *Subscriber) listen(ctx context.Context) (bool, error) {
	conn, _, err := websocket.Dial(ctx, s.url, nil)
	if err != nil {
		return false, fmt.Errorf("dialing push channel: %w", err)
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()
	slog.Info("push channel connected", "url", s.url)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return true, fmt.Errorf("reading push channel: %w", err)
		}
		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			slog.Warn("decoding push event", "error", err)
			continue
		}
		s.Handle(event)
	}
}

// Handle applies one event. New tasks go to the head of the list; updates
// merge in place. Both schedule a hydration check since push payloads may
// be partial.
func (s *Subscriber) Handle(event Event) {
	if event.Type != eventType {
		return
	}

	var payload taskcache.Payload
	if len(event.Payload) > 0 {
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			slog.Warn("decoding push payload", "op", event.Op, "error", err)
			return
		}
	}

	switch event.Op {
	case OpTaskAssigned:
		s.cache.Upsert(payload, taskcache.UpsertOptions{Prepend: true})
		s.cache.ScheduleHydration(s.hydrationDelay)
	case OpTaskUpdated:
		s.cache.Upsert(payload, taskcache.UpsertOptions{})
		s.cache.ScheduleHydration(s.hydrationDelay)
	case OpTaskDeleted:
		if id := payload.ID(); id != "" {
			s.cache.Remove(id)
		}
	default:
		slog.Debug("ignoring push event", "op", event.Op)
	}
}
