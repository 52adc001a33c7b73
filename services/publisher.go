package services

import (
	"context"
	"encoding/json"
	"time"

	"ea-dashboard/models"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// AccountsChannel is the channel dashboards subscribe to for change events
const AccountsChannel = "accounts"

// Sink delivers a serialized change event to its subscribers
type Sink interface {
	Publish(channel string, payload []byte) error
}

// RedisSink publishes change events to Redis so that a separately deployed
// WebSocket bridge (or a second relay instance) can fan them out.
type RedisSink struct {
	client *redis.Client
}

// NewRedisSink creates a Redis-backed sink
func NewRedisSink(client *redis.Client) *RedisSink {
	return &RedisSink{client: client}
}

// Publish sends the payload to the Redis channel
func (s *RedisSink) Publish(channel string, payload []byte) error {
	return s.client.Publish(context.Background(), channel, payload).Err()
}

// Publisher emits change events whenever stored state mutates. Publishing
// is best effort: a failed publish is logged and never fails the request
// that triggered it.
type Publisher struct {
	sink   Sink
	logger *logrus.Logger
}

// NewPublisher creates a publisher over the given sink
func NewPublisher(sink Sink) *Publisher {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return &Publisher{
		sink:   sink,
		logger: logger,
	}
}

// PublishEvent emits one change event for an account. payload is optional
// extra context (e.g. the new snapshot) and may be nil.
func (p *Publisher) PublishEvent(eventType, accountID string, payload interface{}) {
	if p == nil || p.sink == nil {
		return
	}

	event := models.ChangeEvent{
		Type:      eventType,
		AccountID: accountID,
		Timestamp: time.Now(),
	}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			p.logger.WithError(err).Warn("Failed to marshal change event payload")
		} else {
			event.Payload = raw
		}
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.WithError(err).Warn("Failed to marshal change event")
		return
	}

	if err := p.sink.Publish(AccountsChannel, data); err != nil {
		p.logger.WithFields(logrus.Fields{
			"type":       eventType,
			"account_id": accountID,
		}).WithError(err).Warn("Failed to publish change event")
	}
}
