package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"plantguard/internal/domain"
	"plantguard/internal/metrics"
)

// Package-level websocket constants shared by hub and client.
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Feed clients only send control frames.
	maxMessageSize = 512

	sendBufferSize = 64
)

// HubMessage is what travels over the hub's internal channel.
type HubMessage struct {
	Type    string // "register", "unregister", "broadcast"
	Client  *Client
	RawData []byte
}

// FeedMessage is the JSON frame pushed to every feed client.
type FeedMessage struct {
	Type       string                  `json:"type"`
	Prediction domain.PredictionRecord `json:"prediction"`
}

// Hub fans newly recorded predictions out to connected dashboards.
// All client set mutations happen on the Run goroutine.
type Hub struct {
	messageChan chan HubMessage
	clients     map[*Client]bool
	count       int
	countMu     sync.RWMutex
	metrics     *metrics.Metrics
	done        chan struct{}
	closeOnce   sync.Once
}

// NewHub creates a hub; m may be nil.
func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		messageChan: make(chan HubMessage, 512),
		clients:     make(map[*Client]bool),
		metrics:     m,
		done:        make(chan struct{}),
	}
}

// Run is the hub's event loop. Run it in its own goroutine; it returns after Close.
func (h *Hub) Run() {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running...")

	for {
		select {
		case msg := <-h.messageChan:
			switch msg.Type {
			case "register":
				h.registerClient(msg.Client)
			case "unregister":
				h.unregisterClient(msg.Client)
			case "broadcast":
				h.broadcast(msg.RawData)
			default:
				log.Warnf("Hub: Received unknown message type: %s", msg.Type)
			}
		case <-h.done:
			for client := range h.clients {
				h.unregisterClient(client)
			}
			log.Info("Hub is shutting down...")
			return
		}
	}
}

// Close stops Run and disconnects every client.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Publish implements the recorder publisher: the record is serialised once
// and queued for broadcast. Never blocks.
func (h *Hub) Publish(record domain.PredictionRecord) {
	data, err := json.Marshal(FeedMessage{Type: "prediction", Prediction: record})
	if err != nil {
		logrus.WithError(err).Error("Hub: failed to marshal prediction for broadcast")
		return
	}
	h.QueueMessage(HubMessage{Type: "broadcast", RawData: data})
}

// ClientCount is the number of registered feed clients.
func (h *Hub) ClientCount() int {
	h.countMu.RLock()
	defer h.countMu.RUnlock()
	return h.count
}

func (h *Hub) registerClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: Attempted to register a nil client")
		return
	}
	h.clients[client] = true
	h.setCount(len(h.clients))
	h.metrics.FeedClientConnected()
	logrus.WithField("user_id", client.UserID()).Info("Feed client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	if client == nil {
		return
	}
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	// The write pump exits when send is closed.
	close(client.send)
	h.setCount(len(h.clients))
	h.metrics.FeedClientDisconnected()
	logrus.WithField("user_id", client.UserID()).Info("Feed client unregistered")
}

func (h *Hub) broadcast(message []byte) {
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			// A client that cannot keep up is dropped rather than slowing the feed.
			logrus.WithField("user_id", client.UserID()).Warn("Feed client send buffer full, disconnecting")
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) setCount(n int) {
	h.countMu.Lock()
	h.count = n
	h.countMu.Unlock()
}

// QueueMessage puts msg on the hub queue without blocking.
// It returns false when the queue is full or the hub is closed.
func (h *Hub) QueueMessage(msg HubMessage) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.messageChan <- msg:
		return true
	default:
		logrus.WithField("message_type", msg.Type).Warn("Hub message channel full, dropping message")
		return false
	}
}
