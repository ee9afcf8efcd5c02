package internal

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// a feed fans change events out to every viewer of one conversation
type Feed struct {
	key        string
	viewers    map[*Viewer]bool
	register   chan *Viewer
	unregister chan *Viewer
	broadcast  chan []byte
	mutex      sync.RWMutex
}

func newFeed(key string) *Feed {
	return &Feed{
		key:        key,
		viewers:    make(map[*Viewer]bool),
		register:   make(chan *Viewer),
		unregister: make(chan *Viewer),
		broadcast:  make(chan []byte, 256),
	}
}

func (feed *Feed) size() int {
	feed.mutex.RLock()
	defer feed.mutex.RUnlock()
	return len(feed.viewers)
}

func (feed *Feed) run() {
	for {
		select {
		case viewer := <-feed.register:
			feed.mutex.Lock()
			feed.viewers[viewer] = true
			feed.mutex.Unlock()
		case viewer := <-feed.unregister:
			feed.mutex.Lock()
			if _, exists := feed.viewers[viewer]; exists {
				delete(feed.viewers, viewer)
				close(viewer.send)
			}
			feed.mutex.Unlock()
		case payload := <-feed.broadcast:
			// Fan out to every connected viewer. If one can't keep up we
			// close its send channel, which triggers cleanup in writePump.
			feed.mutex.Lock()
			for viewer := range feed.viewers {
				select {
				case viewer.send <- payload:
				default:
					close(viewer.send)
					delete(feed.viewers, viewer)
				}
			}
			feed.mutex.Unlock()
		}
	}
}

// Viewer wraps a single websocket connection subscribed to a feed. The feed
// is one-way: the server pushes change events, viewer payloads are ignored.
type Viewer struct {
	feed         *Feed
	conn         *websocket.Conn
	send         chan []byte
	userID       int64
	onDisconnect func()
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1024
)

func newViewer(feed *Feed, conn *websocket.Conn, userID int64, onDisconnect func()) *Viewer {
	return &Viewer{
		feed:         feed,
		conn:         conn,
		send:         make(chan []byte, 256),
		userID:       userID,
		onDisconnect: onDisconnect,
	}
}

func (viewer *Viewer) readPump(hub *Hub, feedKey string) {
	defer func() {
		viewer.feed.unregister <- viewer
		viewer.conn.Close()
		hub.deleteFeedIfEmpty(feedKey)
		if viewer.onDisconnect != nil {
			viewer.onDisconnect()
		}
	}()
	viewer.conn.SetReadLimit(maxMsgSize)
	_ = viewer.conn.SetReadDeadline(time.Now().Add(pongWait))
	viewer.conn.SetPongHandler(func(string) error {
		return viewer.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		// viewers don't speak; we read only to service pings and notice
		// disconnects
		if _, _, err := viewer.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (viewer *Viewer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		viewer.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-viewer.send:
			_ = viewer.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = viewer.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := viewer.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = viewer.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := viewer.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
