package ws

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// PubSubManager bridges Redis change-event channels into the hub so that
// dashboards connected to this instance see writes made by any relay
// instance.
type PubSubManager struct {
	client   *redis.Client
	hub      *Hub
	channels []string
	logger   *logrus.Logger
}

// NewPubSubManager creates a bridge subscribed to the given channels
func NewPubSubManager(client *redis.Client, hub *Hub, channels ...string) *PubSubManager {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return &PubSubManager{
		client:   client,
		hub:      hub,
		channels: channels,
		logger:   logger,
	}
}

// Run subscribes and forwards messages until the context is cancelled.
// Call it in its own goroutine.
func (m *PubSubManager) Run(ctx context.Context) {
	pubsub := m.client.Subscribe(ctx, m.channels...)
	defer pubsub.Close()

	m.logger.WithFields(logrus.Fields{
		"channels": m.channels,
	}).Info("Redis bridge subscribed")

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			_ = m.hub.Publish(msg.Channel, []byte(msg.Payload))
		}
	}
}
