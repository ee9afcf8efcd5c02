package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
)

func (model *TUIModel) scheduleReconnect() tea.Cmd {
	const retryDelay = 2 * time.Second
	// a future poke that nudges Update to try the connection again
	return tea.Tick(retryDelay, func(time.Time) tea.Msg {
		return reconnectMsg{}
	})
}

func (model *TUIModel) fetchTranscriptCmd() tea.Cmd {
	return func() tea.Msg {
		conversation, messages, err := model.api.FetchTranscript(model.conversationKey)
		return transcriptLoadedMsg{conversation: conversation, messages: messages, err: err}
	}
}

func (model *TUIModel) fetchDirectoryCmd() tea.Cmd {
	return func() tea.Msg {
		directory, err := model.api.FetchDirectory()
		return directoryLoadedMsg{directory: directory, err: err}
	}
}

// connectCmd dials the conversation's change feed.
func (model *TUIModel) connectCmd() tea.Cmd {
	return func() tea.Msg {
		feedURL, err := buildFeedURL(model.serverBaseURL, model.conversationKey, model.currentUserID)
		if err != nil {
			return connectFailedMsg{err: err}
		}
		conn, _, err := websocket.DefaultDialer.Dial(feedURL, http.Header{})
		if err != nil {
			return connectFailedMsg{err: err}
		}
		model.connMutex.Lock()
		model.websocketConn = conn
		model.connMutex.Unlock()
		return connectedMsg{}
	}
}

// readFeedCmd blocks on the next change event from the feed.
func (model *TUIModel) readFeedCmd() tea.Cmd {
	return func() tea.Msg {
		model.connMutex.Lock()
		conn := model.websocketConn
		model.connMutex.Unlock()
		if conn == nil {
			return feedClosedMsg{err: fmt.Errorf("feed not connected")}
		}
		for {
			messageType, payload, err := conn.ReadMessage()
			if err != nil {
				return feedClosedMsg{err: err}
			}
			if messageType != websocket.TextMessage {
				continue
			}
			var event ChangeEvent
			if err := json.Unmarshal(payload, &event); err != nil {
				continue
			}
			return feedEventMsg(event)
		}
	}
}

func buildFeedURL(baseURL, conversationKey string, userID int64) (string, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch parsed.Scheme {
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	case "ws", "wss":
		// already a websocket URL
	default:
		return "", fmt.Errorf("unsupported scheme %s", parsed.Scheme)
	}
	parsed.Path = "/ws"
	query := parsed.Query()
	query.Set("conversation", conversationKey)
	if userID != 0 {
		query.Set("user", strconv.FormatInt(userID, 10))
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// RunClient starts the transcript viewer against a running server.
func RunClient(serverBaseURL, conversationKey, username string) error {
	model := NewTUIModel(serverBaseURL, conversationKey, username)
	program := tea.NewProgram(model, tea.WithAltScreen())
	model.attachProgram(program)
	_, err := program.Run()
	return err
}
