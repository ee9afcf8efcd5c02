package internal

import (
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"chatpane/internal/transcript"
)

// tui model for the transcript viewer and its dialogs
type TUIModel struct {
	viewport  viewport.Model
	textInput textinput.Model

	api        *APIClient
	controller *transcript.Controller

	serverBaseURL   string
	conversationKey string
	username        string
	currentUserID   int64

	conversation transcript.Conversation
	messages     []transcript.Message
	units        []transcript.RenderUnit
	directory    transcript.Directory

	websocketConn   *websocket.Conn
	connMutex       sync.Mutex
	isConnected     bool
	connectionError error

	notices       []string
	selected      int // cursor over message units
	dropdownIndex int
	shareIndex    int

	width  int
	height int
	ready  bool

	send func(tea.Msg)
}

func NewTUIModel(serverBaseURL, conversationKey, username string) *TUIModel {
	input := textinput.New()
	input.CharLimit = 0
	input.Prompt = "> "

	if username == "" {
		username = defaultUsername()
	}

	model := &TUIModel{
		textInput:       input,
		api:             NewAPIClient(serverBaseURL),
		serverBaseURL:   serverBaseURL,
		conversationKey: conversationKey,
		username:        username,
		selected:        -1,
	}
	model.controller = transcript.NewController(model.callbacks(), model.notifyNotice)
	return model
}

// attachProgram wires the running program's Send into the model so goroutines
// spawned by callbacks can post messages back into the event loop.
func (model *TUIModel) attachProgram(program *tea.Program) {
	model.send = func(msg tea.Msg) {
		program.Send(msg)
	}
}

func (model *TUIModel) post(msg tea.Msg) {
	if model.send != nil {
		model.send(msg)
	}
}

func (model *TUIModel) notifyNotice(text string) {
	model.post(noticeMsg{text: text})
}

// callbacks implements the four interaction capabilities over HTTP. Each one
// returns immediately; the request runs in a goroutine that reports failures
// as notices and success as a transcript refresh.
func (model *TUIModel) callbacks() transcript.Callbacks {
	return transcript.Callbacks{
		UpdateMessage: func(messageID, newContent string) error {
			go func() {
				if err := model.api.UpdateMessage(messageID, newContent); err != nil {
					model.post(noticeMsg{text: fmt.Sprintf("Failed to update message: %v", err)})
					return
				}
				model.post(refreshMsg{})
			}()
			return nil
		},
		DeleteMessage: func(messageID string) error {
			go func() {
				if err := model.api.DeleteMessage(messageID); err != nil {
					model.post(noticeMsg{text: fmt.Sprintf("Failed to delete message: %v", err)})
					return
				}
				model.post(refreshMsg{})
			}()
			return nil
		},
		DeleteFile: func(messageID, fileID string) error {
			go func() {
				if err := model.api.DeleteFile(messageID, fileID); err != nil {
					model.post(noticeMsg{text: fmt.Sprintf("Failed to delete file: %v", err)})
					return
				}
				model.post(refreshMsg{})
			}()
			return nil
		},
		ShareMessage: func(target transcript.ShareTarget, user *transcript.User, group *transcript.Group) error {
			var userID, groupID int64
			recipient := ""
			if user != nil {
				userID = user.ID
				recipient = user.Username
			}
			if group != nil {
				groupID = group.ID
				recipient = group.Name
			}
			go func() {
				var err error
				switch {
				case target.Attachment != nil:
					err = model.api.ShareFile(target.Attachment.ID, userID, groupID)
				case target.Message != nil:
					err = model.api.ShareMessage(target.Message.ID, userID, groupID)
				}
				if err != nil {
					model.post(noticeMsg{text: fmt.Sprintf("Failed to share: %v", err)})
					return
				}
				model.post(noticeMsg{text: "Shared with " + recipient})
			}()
			return nil
		},
	}
}

func defaultUsername() string {
	if user := os.Getenv("CHATPANE_USER"); user != "" {
		return user
	}
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "anon"
}

func (model *TUIModel) Init() tea.Cmd {
	return tea.Batch(
		model.fetchTranscriptCmd(),
		model.fetchDirectoryCmd(),
		model.connectCmd(),
	)
}

// messageIndexes returns the positions of message units within the composed
// unit list, in order. The browse cursor moves over these.
func (model *TUIModel) messageIndexes() []int {
	indexes := make([]int, 0, len(model.units))
	for i, unit := range model.units {
		if unit.Kind == transcript.UnitMessage {
			indexes = append(indexes, i)
		}
	}
	return indexes
}

// selectedView returns the message view under the cursor, nil when the
// transcript is empty.
func (model *TUIModel) selectedView() *transcript.MessageView {
	indexes := model.messageIndexes()
	if len(indexes) == 0 {
		return nil
	}
	if model.selected < 0 || model.selected >= len(indexes) {
		return model.units[indexes[len(indexes)-1]].View
	}
	return model.units[indexes[model.selected]].View
}

// recompose rebuilds the render units from the current message list and
// refreshes the viewport, snapping to the newest unit.
func (model *TUIModel) recompose() {
	model.units = transcript.Compose(model.messages, model.currentUserID, model.conversation)
	indexes := model.messageIndexes()
	if len(indexes) == 0 {
		model.selected = -1
	} else if model.selected < 0 || model.selected >= len(indexes) {
		model.selected = len(indexes) - 1
	}
	if model.ready {
		model.viewport.SetContent(model.renderTranscript())
		// every list change scrolls to the latest unit, no matter the cause
		model.viewport.GotoBottom()
	}
}
