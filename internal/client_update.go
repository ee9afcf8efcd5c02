package internal

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"chatpane/internal/transcript"
)

type (
	transcriptLoadedMsg struct {
		conversation transcript.Conversation
		messages     []transcript.Message
		err          error
	}
	directoryLoadedMsg struct {
		directory transcript.Directory
		err       error
	}
	connectedMsg     struct{}
	connectFailedMsg struct{ err error }
	reconnectMsg     struct{}
	feedEventMsg     ChangeEvent
	feedClosedMsg    struct{ err error }
	refreshMsg       struct{}
	noticeMsg        struct{ text string }
)

const maxNotices = 3

func (model *TUIModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch typedMessage := message.(type) {
	case tea.WindowSizeMsg:
		model.width = typedMessage.Width
		model.height = typedMessage.Height
		viewportHeight := typedMessage.Height - chromeHeight
		if viewportHeight < 3 {
			viewportHeight = 3
		}
		if !model.ready {
			model.viewport = viewport.New(typedMessage.Width, viewportHeight)
			model.ready = true
		} else {
			model.viewport.Width = typedMessage.Width
			model.viewport.Height = viewportHeight
		}
		model.viewport.SetContent(model.renderTranscript())
		model.viewport.GotoBottom()
		return model, nil

	case tea.KeyMsg:
		if typedMessage.Type == tea.KeyCtrlC {
			model.closeFeed()
			return model, tea.Quit
		}
		switch model.controller.State().Kind {
		case transcript.StateIdle:
			return model.updateIdle(typedMessage)
		case transcript.StateDropdownOpen:
			return model.updateDropdown(typedMessage)
		case transcript.StateEditing:
			return model.updateEditing(typedMessage)
		case transcript.StateShareOpen:
			return model.updateShare(typedMessage)
		}
		return model, nil

	case transcriptLoadedMsg:
		if typedMessage.err != nil {
			model.pushNotice("Failed to load transcript: " + typedMessage.err.Error())
			return model, nil
		}
		model.conversation = typedMessage.conversation
		model.messages = typedMessage.messages
		model.recompose()
		return model, nil

	case directoryLoadedMsg:
		if typedMessage.err != nil {
			model.pushNotice("Failed to load directory: " + typedMessage.err.Error())
			return model, nil
		}
		model.directory = typedMessage.directory
		for _, user := range typedMessage.directory.Users {
			if user.Username == model.username {
				model.currentUserID = user.ID
				break
			}
		}
		model.recompose()
		return model, nil

	case connectedMsg:
		model.isConnected = true
		model.connectionError = nil
		return model, model.readFeedCmd()

	case feedEventMsg:
		// the envelope only says something changed; refetch either way
		return model, tea.Batch(model.readFeedCmd(), model.fetchTranscriptCmd())

	case feedClosedMsg:
		model.isConnected = false
		model.connectionError = typedMessage.err
		return model, model.scheduleReconnect()

	case connectFailedMsg:
		model.isConnected = false
		model.connectionError = typedMessage.err
		return model, model.scheduleReconnect()

	case reconnectMsg:
		if !model.isConnected {
			return model, model.connectCmd()
		}
		return model, nil

	case refreshMsg:
		return model, model.fetchTranscriptCmd()

	case noticeMsg:
		model.pushNotice(typedMessage.text)
		return model, nil
	}
	return model, nil
}

func (model *TUIModel) updateIdle(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	indexes := model.messageIndexes()
	switch key.String() {
	case "q", "esc":
		model.closeFeed()
		return model, tea.Quit
	case "up", "k":
		if model.selected > 0 {
			model.selected--
		}
		return model, nil
	case "down", "j":
		if model.selected < len(indexes)-1 {
			model.selected++
		}
		return model, nil
	case "pgup":
		model.viewport.HalfViewUp()
		return model, nil
	case "pgdown":
		model.viewport.HalfViewDown()
		return model, nil
	case "g":
		model.viewport.GotoTop()
		return model, nil
	case "G":
		model.viewport.GotoBottom()
		return model, nil
	case "r":
		return model, tea.Batch(model.fetchTranscriptCmd(), model.fetchDirectoryCmd())
	case "enter", "m":
		view := model.selectedView()
		if view == nil {
			return model, nil
		}
		model.dropdownIndex = 0
		model.controller.ToggleDropdown(view.Message.ID)
		return model, nil
	}
	return model, nil
}

func (model *TUIModel) updateDropdown(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	view := model.selectedView()
	if view == nil {
		model.controller.CloseDropdown()
		return model, nil
	}
	options := dropdownOptions(view)
	switch key.String() {
	case "esc":
		model.controller.CloseDropdown()
		return model, nil
	case "up", "k":
		if model.dropdownIndex > 0 {
			model.dropdownIndex--
		}
		return model, nil
	case "down", "j":
		if model.dropdownIndex < len(options)-1 {
			model.dropdownIndex++
		}
		return model, nil
	case "enter", "m":
		if model.dropdownIndex >= len(options) {
			return model, nil
		}
		model.applyDropdownOption(view, options[model.dropdownIndex])
		return model, nil
	}
	return model, nil
}

func (model *TUIModel) applyDropdownOption(view *transcript.MessageView, option dropdownOption) {
	switch option.action {
	case actionEdit:
		model.controller.StartEdit(view.Message.ID, view.Message.Content)
		model.textInput.SetValue(view.Message.Content)
		model.textInput.CursorEnd()
		model.textInput.Placeholder = "Edit message…"
		model.textInput.Focus()
	case actionDelete:
		messageID := view.Message.ID
		model.controller.CloseDropdown()
		model.controller.RequestDelete(messageID)
	case actionShareMessage:
		model.shareIndex = 0
		model.textInput.SetValue("")
		model.textInput.Placeholder = "Filter users and groups…"
		model.textInput.Focus()
		model.controller.OpenShareMessage(view.Message)
	case actionShareFile:
		model.shareIndex = 0
		model.textInput.SetValue("")
		model.textInput.Placeholder = "Filter users and groups…"
		model.textInput.Focus()
		model.controller.OpenShareAttachment(view.Message.Files[option.fileIndex])
	case actionDeleteFile:
		messageID := view.Message.ID
		fileID := view.Message.Files[option.fileIndex].ID
		model.controller.CloseDropdown()
		model.controller.RequestDeleteFile(messageID, fileID)
	}
}

func (model *TUIModel) updateEditing(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEsc:
		model.controller.CancelEdit()
		model.textInput.Blur()
		model.textInput.SetValue("")
		return model, nil
	case tea.KeyEnter:
		if !model.controller.SubmitEdit() {
			model.pushNotice("Nothing to save; the edit stays open until you type something or press Esc.")
			return model, nil
		}
		model.textInput.Blur()
		model.textInput.SetValue("")
		return model, nil
	}
	var cmd tea.Cmd
	model.textInput, cmd = model.textInput.Update(key)
	model.controller.SetDraft(strings.TrimSpace(model.textInput.Value()))
	return model, cmd
}

func (model *TUIModel) updateShare(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	entries := model.directory.PickerEntries(model.textInput.Value())
	switch key.Type {
	case tea.KeyEsc:
		model.controller.CloseShare()
		model.textInput.Blur()
		model.textInput.SetValue("")
		return model, nil
	case tea.KeyUp:
		if model.shareIndex > 0 {
			model.shareIndex--
		}
		return model, nil
	case tea.KeyDown:
		if model.shareIndex < len(entries)-1 {
			model.shareIndex++
		}
		return model, nil
	case tea.KeyEnter:
		if model.shareIndex >= len(entries) {
			return model, nil
		}
		entries[model.shareIndex].Resolve(model.controller)
		model.textInput.Blur()
		model.textInput.SetValue("")
		return model, nil
	}
	var cmd tea.Cmd
	model.textInput, cmd = model.textInput.Update(key)
	// the filtered list just changed shape under the cursor
	if filtered := model.directory.PickerEntries(model.textInput.Value()); model.shareIndex >= len(filtered) {
		model.shareIndex = 0
	}
	return model, cmd
}

func (model *TUIModel) pushNotice(text string) {
	model.notices = append(model.notices, text)
	if len(model.notices) > maxNotices {
		model.notices = model.notices[len(model.notices)-maxNotices:]
	}
}

func (model *TUIModel) closeFeed() {
	model.connMutex.Lock()
	defer model.connMutex.Unlock()
	if model.websocketConn != nil {
		_ = model.websocketConn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = model.websocketConn.Close()
		model.websocketConn = nil
	}
}

type dropdownAction int

const (
	actionEdit dropdownAction = iota
	actionDelete
	actionShareMessage
	actionShareFile
	actionDeleteFile
)

type dropdownOption struct {
	label     string
	action    dropdownAction
	fileIndex int
}

// dropdownOptions lists the affordances for one message: edit/delete on own
// messages, share on others, plus per-attachment entries.
func dropdownOptions(view *transcript.MessageView) []dropdownOption {
	var options []dropdownOption
	if view.Mine {
		if view.Message.Content != "" {
			options = append(options, dropdownOption{label: "Edit message", action: actionEdit})
		}
		options = append(options, dropdownOption{label: "Delete message", action: actionDelete})
		for i, file := range view.Attachments {
			options = append(options, dropdownOption{
				label:     "Delete file " + file.Name,
				action:    actionDeleteFile,
				fileIndex: i,
			})
		}
		return options
	}
	options = append(options, dropdownOption{label: "Share message", action: actionShareMessage})
	for i, file := range view.Attachments {
		options = append(options, dropdownOption{
			label:     "Share file " + file.Name,
			action:    actionShareFile,
			fileIndex: i,
		})
	}
	return options
}
