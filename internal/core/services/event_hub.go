package services

import (
	"log"
	"sync"

	"pustaka-desk/internal/core/dialog"
)

// Event topics
const (
	TopicDialog      = "dialog"
	TopicCirculation = "circulation"
)

// Circulation event names
const (
	EventLoanBorrowed  = "loan_borrowed"
	EventLoanReturned  = "loan_returned"
	EventOverdueReport = "overdue_report"
)

// HubEvent is one server-sent event
type HubEvent struct {
	Topic string      `json:"-"`
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// HubClient is a connected stream subscriber. An empty Topics set
// receives every topic.
type HubClient struct {
	ID      string
	UserID  uint
	Topics  map[string]bool
	Channel chan HubEvent
}

// NewHubClient creates a client with a buffered channel
func NewHubClient(id string, userID uint, topics ...string) *HubClient {
	set := make(map[string]bool, len(topics))
	for _, t := range topics {
		set[t] = true
	}
	return &HubClient{
		ID:      id,
		UserID:  userID,
		Topics:  set,
		Channel: make(chan HubEvent, 32),
	}
}

func (c *HubClient) wants(topic string) bool {
	return len(c.Topics) == 0 || c.Topics[topic]
}

// EventHub fans events out to SSE clients
type EventHub struct {
	mu      sync.RWMutex
	clients map[string]*HubClient
}

// NewEventHub creates a new hub
func NewEventHub() *EventHub {
	return &EventHub{
		clients: make(map[string]*HubClient),
	}
}

// Register adds a client
func (h *EventHub) Register(client *HubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	log.Printf("📡 SSE client registered: %s (user=%d) | total=%d", client.ID, client.UserID, len(h.clients))
}

// Unregister removes a client and closes its channel
func (h *EventHub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Channel)
		delete(h.clients, clientID)
		log.Printf("📡 SSE client unregistered: %s | total=%d", clientID, len(h.clients))
	}
}

// Publish delivers an event without blocking. Slow clients miss events.
func (h *EventHub) Publish(event HubEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if !client.wants(event.Topic) {
			continue
		}
		select {
		case client.Channel <- event:
		default:
			log.Printf("⚠️ SSE channel full for client %s, skipping %s", client.ID, event.Event)
		}
	}
}

// ClientCount returns the number of connected clients
func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// DialogObserver forwards coordinator events to the dialog topic
func (h *EventHub) DialogObserver() dialog.Observer {
	return func(e dialog.Event) {
		h.Publish(HubEvent{Topic: TopicDialog, Event: e.Type, Data: e})
	}
}
