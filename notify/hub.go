package notify

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Govind-619/RentSphere/utils"
)

const subscriberBuffer = 64

// Subscriber receives the events of one listing
type Subscriber struct {
	listingID string
	send      chan []byte
}

// Messages is closed when the hub drops the subscriber
func (s *Subscriber) Messages() <-chan []byte {
	return s.send
}

// Hub pushes booking events to live subscribers of a listing's availability. A
// subscriber whose buffer is full is dropped rather than slowing the sender down.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Subscriber]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{subscribers: make(map[string]map[*Subscriber]struct{})}
}

func (h *Hub) Name() string { return "websocket" }

// Subscribe registers a subscriber for listingID
func (h *Hub) Subscribe(listingID string) *Subscriber {
	sub := &Subscriber{listingID: listingID, send: make(chan []byte, subscriberBuffer)}

	h.mu.Lock()
	if h.subscribers[listingID] == nil {
		h.subscribers[listingID] = make(map[*Subscriber]struct{})
	}
	h.subscribers[listingID][sub] = struct{}{}
	h.mu.Unlock()

	utils.LogDebug("Listing %s subscriber connected (total: %d)", listingID, h.SubscriberCount(listingID))
	return sub
}

// Unsubscribe removes sub and closes its channel. It is safe to call more than once.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(sub)
}

func (h *Hub) remove(sub *Subscriber) {
	subs, ok := h.subscribers[sub.listingID]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	close(sub.send)
	if len(subs) == 0 {
		delete(h.subscribers, sub.listingID)
	}
}

// Send implements Sink by broadcasting e to the subscribers of its listing
func (h *Hub) Send(ctx context.Context, e Event) error {
	message, err := json.Marshal(e)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subscribers[e.Data.ListingID] {
		select {
		case sub.send <- message:
		default:
			utils.LogWarn("Dropping slow subscriber of listing %s", e.Data.ListingID)
			h.remove(sub)
		}
	}
	return nil
}

// SubscriberCount returns the number of live subscribers of listingID
func (h *Hub) SubscriberCount(listingID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[listingID])
}
