package main

import (
	"context"

	"github.com/cineloop/cineloop/common/logger"
	"github.com/redis/go-redis/v9"
)

// chainEventsChannel is where the API publishes accepted chain entries.
const chainEventsChannel = "chain:events"

// RedisSubscriber listens to Redis PubSub and forwards chain events to the Hub
type RedisSubscriber struct {
	redis *redis.Client
	hub   *Hub
	log   *logger.Logger
}

// NewRedisSubscriber creates a new RedisSubscriber instance
func NewRedisSubscriber(redisClient *redis.Client, hub *Hub, log *logger.Logger) *RedisSubscriber {
	return &RedisSubscriber{
		redis: redisClient,
		hub:   hub,
		log:   log,
	}
}

// Start begins listening for accepted chain entries. Blocks until ctx is done.
func (s *RedisSubscriber) Start(ctx context.Context) error {
	pubsub := s.redis.Subscribe(ctx, chainEventsChannel)
	defer pubsub.Close()

	// Wait for confirmation that subscription was successful
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	s.log.Info("Redis subscription confirmed", "channel", chainEventsChannel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("Redis subscriber stopping")
			return nil

		case msg := <-ch:
			if msg == nil {
				continue
			}

			s.log.Debug("received chain event", "size", len(msg.Payload))

			// Every viewer sees every entry
			s.hub.broadcast <- []byte(msg.Payload)
		}
	}
}
