package events

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

// Backends soportados para publicar eventos.
const (
	BackendNone      = "none"
	BackendGoChannel = "gochannel"
	BackendRedis     = "redis"
)

// NewBackend builds the Watermill publisher for backend. rdb is only used
// by the redis backend. Returns nil for "none".
//
// gochannel solo entrega a suscriptores del mismo proceso y offerbot no
// tiene ninguno: sirve para tests y desarrollo, los eventos se descartan.
func NewBackend(backend string, rdb *redis.Client, logger *slog.Logger) (message.Publisher, error) {
	wlog := watermill.NewSlogLogger(logger)

	switch backend {
	case "", BackendNone:
		return nil, nil
	case BackendGoChannel:
		logger.Warn("events: gochannel backend has no subscribers in this process, events are dropped; use redis to consume them")
		return gochannel.NewGoChannel(gochannel.Config{}, wlog), nil
	case BackendRedis:
		if rdb == nil {
			return nil, fmt.Errorf("events.NewBackend: redis backend without redis client")
		}
		pub, err := redisstream.NewPublisher(redisstream.PublisherConfig{Client: rdb}, wlog)
		if err != nil {
			return nil, fmt.Errorf("events.NewBackend: redis publisher: %w", err)
		}
		return pub, nil
	}
	return nil, fmt.Errorf("events.NewBackend: unknown backend %q", backend)
}
