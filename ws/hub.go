package ws

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// hubMessage is one payload bound for a channel's subscribers
type hubMessage struct {
	channel string
	payload []byte
}

// Hub tracks connected dashboard clients and fans change events out to
// the channels they subscribed to.
type Hub struct {
	clients       map[*Client]bool
	subscriptions map[string]map[*Client]bool
	subMutex      sync.RWMutex

	messages   chan hubMessage
	register   chan *Client
	unregister chan *Client

	logger *logrus.Logger
}

// NewHub creates a hub
func NewHub() *Hub {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return &Hub{
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		messages:      make(chan hubMessage, 256),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		logger:        logger,
	}
}

// Run drives the hub's main loop. Call it once, in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.WithFields(logrus.Fields{
				"remote": client.conn.RemoteAddr().String(),
			}).Info("Dashboard client connected")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.cleanUpSubscriptions(client)
				h.logger.WithFields(logrus.Fields{
					"remote": client.conn.RemoteAddr().String(),
				}).Info("Dashboard client disconnected")
			}

		case msg := <-h.messages:
			h.forward(msg.channel, msg.payload)
		}
	}
}

// Publish hands a payload to the hub for fanout. It implements the change
// event sink so the relay can feed the hub directly when Redis is not
// configured. A full hub queue drops the event; dashboards reconcile on
// their next fetch.
func (h *Hub) Publish(channel string, payload []byte) error {
	select {
	case h.messages <- hubMessage{channel: channel, payload: payload}:
	default:
		h.logger.WithFields(logrus.Fields{
			"channel": channel,
		}).Warn("Hub queue full, dropping change event")
	}
	return nil
}

// Subscribe adds the client to a channel
func (h *Hub) Subscribe(client *Client, channel string) {
	h.subMutex.Lock()
	defer h.subMutex.Unlock()
	if _, ok := h.subscriptions[channel]; !ok {
		h.subscriptions[channel] = make(map[*Client]bool)
	}
	h.subscriptions[channel][client] = true
}

// Unsubscribe removes the client from a channel
func (h *Hub) Unsubscribe(client *Client, channel string) {
	h.subMutex.Lock()
	defer h.subMutex.Unlock()
	if clients, ok := h.subscriptions[channel]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.subscriptions, channel)
		}
	}
}

// forward delivers a payload to every subscriber of the channel
func (h *Hub) forward(channel string, payload []byte) {
	h.subMutex.RLock()
	defer h.subMutex.RUnlock()

	for client := range h.subscriptions[channel] {
		select {
		case client.send <- payload:
		default:
			h.logger.WithFields(logrus.Fields{
				"remote": client.conn.RemoteAddr().String(),
			}).Warn("Client send buffer full, dropping message")
		}
	}
}

// cleanUpSubscriptions removes a disconnected client from every channel
func (h *Hub) cleanUpSubscriptions(client *Client) {
	h.subMutex.Lock()
	defer h.subMutex.Unlock()
	for channel := range client.subscriptions {
		if clients, ok := h.subscriptions[channel]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.subscriptions, channel)
			}
		}
	}
}

// subscriberCount reports how many clients follow a channel
func (h *Hub) subscriberCount(channel string) int {
	h.subMutex.RLock()
	defer h.subMutex.RUnlock()
	return len(h.subscriptions[channel])
}
