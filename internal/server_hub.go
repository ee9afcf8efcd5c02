package internal

import "sync"

// all active conversation feeds
type Hub struct {
	mutex sync.RWMutex
	feeds map[string]*Feed
}

// builds an empty hub ready to serve websocket requests
func NewHub() *Hub {
	return &Hub{feeds: make(map[string]*Feed)}
}

// takes a peek into the feed map. We use it for the lightweight /exists
func (hub *Hub) Exists(key string) bool {
	hub.mutex.RLock()
	defer hub.mutex.RUnlock()
	_, ok := hub.feeds[key]
	return ok
}

// ensures there is a live Feed for the given conversation key
func (hub *Hub) getOrCreateFeed(key string) *Feed {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	if feed, exists := hub.feeds[key]; exists {
		return feed
	}
	feed := newFeed(key)
	hub.feeds[key] = feed
	go feed.run()
	return feed
}

func (hub *Hub) getFeed(key string) *Feed {
	hub.mutex.RLock()
	defer hub.mutex.RUnlock()
	return hub.feeds[key]
}

func (hub *Hub) deleteFeedIfEmpty(key string) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	if feed, exists := hub.feeds[key]; exists {
		if feed.size() == 0 {
			delete(hub.feeds, key)
		}
	}
}

// Broadcast pushes a change event to every viewer of the conversation, if
// any are connected.
func (hub *Hub) Broadcast(key string, payload []byte) {
	if feed := hub.getFeed(key); feed != nil {
		feed.broadcast <- payload
	}
}
