package internal

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWS upgrades the request and subscribes the connection to a
// conversation's change feed. The optional user query parameter marks the
// viewer online in the directory for as long as the socket lives.
func (s *Server) ServeWS(writer http.ResponseWriter, request *http.Request) {
	feedKey := request.URL.Query().Get("conversation")
	if feedKey == "" {
		http.Error(writer, "missing conversation query param", http.StatusBadRequest)
		return
	}
	userID, _ := strconv.ParseInt(request.URL.Query().Get("user"), 10, 64)

	websocketConn, err := upgrader.Upgrade(writer, request, nil)
	if err != nil {
		log.Printf("upgrade error: %v", err)
		return
	}

	var onDisconnect func()
	if userID != 0 {
		s.presence.Increment(userID)
		onDisconnect = func() {
			s.presence.Decrement(userID)
			s.metrics.DecConn()
		}
	} else {
		onDisconnect = s.metrics.DecConn
	}
	s.metrics.IncConn()

	feed := s.hub.getOrCreateFeed(feedKey)
	viewer := newViewer(feed, websocketConn, userID, onDisconnect)
	feed.register <- viewer

	go viewer.writePump()
	go viewer.readPump(s.hub, feedKey)
}
