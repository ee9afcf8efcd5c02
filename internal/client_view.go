package internal

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"

	"chatpane/internal/transcript"
)

// rows taken by header, status, overlay, and hints around the viewport
const chromeHeight = 12

var (
	appTitleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213")).Padding(0, 1)
	chatHeaderStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213")).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("109"))
	connectedStyle     = statusStyle.Copy().Foreground(lipgloss.Color("42")).Bold(true)
	connectingStyle    = statusStyle.Copy().Foreground(lipgloss.Color("178")).Italic(true)
	errorStyle         = statusStyle.Copy().Foreground(lipgloss.Color("196")).Bold(true)
	dayMarkerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Bold(true).Padding(0, 2)
	messageBubbleStyle = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("60")).Padding(0, 1)
	selectedBubble     = messageBubbleStyle.Copy().BorderForeground(lipgloss.Color("213"))
	mineBubbleStyle    = messageBubbleStyle.Copy().BorderForeground(lipgloss.Color("63"))
	selectedMineBubble = mineBubbleStyle.Copy().BorderForeground(lipgloss.Color("213"))
	senderNameStyle    = lipgloss.NewStyle().Bold(true)
	clockStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	bodyStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("253"))
	attachmentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
	avatarStyle        = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	noticeBoxStyle     = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("95")).Padding(0, 1)
	systemNoticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Italic(true)
	dialogBoxStyle     = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
	dialogTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	optionStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).PaddingLeft(2)
	selectedOptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	hintStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	userColorPalette   = []lipgloss.Color{
		lipgloss.Color("45"),
		lipgloss.Color("81"),
		lipgloss.Color("141"),
		lipgloss.Color("98"),
		lipgloss.Color("63"),
		lipgloss.Color("135"),
		lipgloss.Color("32"),
	}
)

func (model *TUIModel) View() string {
	if !model.ready {
		return appTitleStyle.Render("chatpane") + "\n" + connectingStyle.Render("Loading…")
	}

	headerSegments := []string{"chatpane"}
	if model.conversationKey != "" {
		headerSegments = append(headerSegments, "Conversation "+model.conversationKey)
	}
	headerSegments = append(headerSegments, "User "+model.username)
	header := chatHeaderStyle.Render(strings.Join(headerSegments, "  |  "))

	var statusLine string
	switch {
	case model.connectionError != nil:
		statusLine = errorStyle.Render("Feed error: " + model.connectionError.Error() + " (retrying)")
	case model.isConnected:
		statusLine = connectedStyle.Render("Live")
	default:
		statusLine = connectingStyle.Render("Connecting…")
	}

	sections := []string{header, statusLine, model.viewport.View()}

	if overlay := model.renderOverlay(); overlay != "" {
		sections = append(sections, overlay)
	}
	if notices := model.renderNotices(); notices != "" {
		sections = append(sections, notices)
	}
	sections = append(sections, hintStyle.Render(model.hintLine()))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (model *TUIModel) hintLine() string {
	switch model.controller.State().Kind {
	case transcript.StateDropdownOpen:
		return "up/down select • Enter apply • Esc close"
	case transcript.StateEditing:
		return "Enter save • Esc cancel"
	case transcript.StateShareOpen:
		return "type to filter • up/down select • Enter share • Esc cancel"
	default:
		return "up/down move • Enter menu • r refresh • g/G top/bottom • q quit"
	}
}

// renderTranscript renders the composed units into the viewport body.
func (model *TUIModel) renderTranscript() string {
	if len(model.units) == 0 {
		return systemNoticeStyle.Render("No messages in this conversation yet.")
	}
	width := model.viewport.Width
	if width <= 0 {
		width = 80
	}

	var lines []string
	ordinal := 0
	for _, unit := range model.units {
		switch unit.Kind {
		case transcript.UnitDayMarker:
			marker := dayMarkerStyle.Render("— " + unit.Label + " —")
			lines = append(lines, lipgloss.PlaceHorizontal(width, lipgloss.Center, marker))
		case transcript.UnitMessage:
			selected := ordinal == model.selected
			lines = append(lines, model.renderMessage(unit.View, selected, width))
			ordinal++
		}
	}
	return strings.Join(lines, "\n")
}

func (model *TUIModel) renderMessage(view *transcript.MessageView, selected bool, width int) string {
	var inner []string
	if view.ShowSender {
		name := senderNameStyle.Copy().Foreground(colorForUser(view.Message.Sender.Username)).Render(view.Message.Sender.Username)
		inner = append(inner, name)
	}
	if view.Body != "" {
		inner = append(inner, bodyStyle.Render(view.Body))
	}
	for _, file := range view.Attachments {
		inner = append(inner, attachmentStyle.Render(attachmentLine(file)))
	}
	inner = append(inner, clockStyle.Render(view.Clock))

	style := messageBubbleStyle
	if view.Mine {
		style = mineBubbleStyle
		if selected {
			style = selectedMineBubble
		}
	} else if selected {
		style = selectedBubble
	}
	bubble := style.Render(lipgloss.JoinVertical(lipgloss.Left, inner...))

	if view.ShowAvatar {
		avatar := avatarStyle.Copy().
			Foreground(colorForUser(view.Message.Sender.Username)).
			Render(avatarGlyph(view.Message.Sender))
		bubble = lipgloss.JoinHorizontal(lipgloss.Top, avatar, bubble)
	}

	if view.Mine {
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, bubble)
	}
	return bubble
}

func attachmentLine(file transcript.AttachmentView) string {
	switch file.Kind {
	case transcript.KindImage:
		return fmt.Sprintf("[image] %s", file.Name)
	case transcript.KindVideo:
		return fmt.Sprintf("[video] %s", file.Name)
	case transcript.KindAudio:
		return fmt.Sprintf("[audio] %s", file.Name)
	default:
		return fmt.Sprintf("[file] %s ⇩", file.Name)
	}
}

// avatarGlyph falls back to the sender's first initial when there is no
// avatar reference.
func avatarGlyph(sender transcript.Sender) string {
	if sender.Avatar != "" {
		return "◉"
	}
	for _, r := range sender.Username {
		return string(unicode.ToUpper(r))
	}
	return "?"
}

func (model *TUIModel) renderOverlay() string {
	state := model.controller.State()
	switch state.Kind {
	case transcript.StateDropdownOpen:
		view := model.selectedView()
		if view == nil {
			return ""
		}
		options := dropdownOptions(view)
		lines := []string{dialogTitleStyle.Render("Message actions")}
		for i, option := range options {
			if i == model.dropdownIndex {
				lines = append(lines, selectedOptStyle.Render("➤ "+option.label))
			} else {
				lines = append(lines, optionStyle.Render(option.label))
			}
		}
		return dialogBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))

	case transcript.StateEditing:
		lines := []string{
			dialogTitleStyle.Render("Edit message"),
			model.textInput.View(),
		}
		return dialogBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))

	case transcript.StateShareOpen:
		title := "Share message"
		if state.Share != nil && state.Share.Attachment != nil {
			title = "Share file " + transcript.DisplayName(state.Share.Attachment.URL)
		}
		lines := []string{dialogTitleStyle.Render(title), model.textInput.View()}
		entries := model.directory.PickerEntries(model.textInput.Value())
		if len(entries) == 0 {
			lines = append(lines, optionStyle.Render("No matches."))
		}
		for i, entry := range entries {
			label := entry.Label()
			if entry.User != nil {
				label = presenceDot(entry.User.Online) + " " + label
			} else {
				label = "⊚ " + label
			}
			if i == model.shareIndex {
				lines = append(lines, selectedOptStyle.Render("➤ "+label))
			} else {
				lines = append(lines, optionStyle.Render(label))
			}
		}
		return dialogBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	}
	return ""
}

func (model *TUIModel) renderNotices() string {
	if len(model.notices) == 0 {
		return ""
	}
	styled := make([]string, 0, len(model.notices))
	for _, notice := range model.notices {
		styled = append(styled, systemNoticeStyle.Render(notice))
	}
	return noticeBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, styled...))
}

func presenceDot(online bool) string {
	if online {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render("○")
}

func colorForUser(name string) lipgloss.Color {
	if len(userColorPalette) == 0 {
		return lipgloss.Color("249")
	}
	if name == "" {
		return userColorPalette[0]
	}
	var sum int
	for _, r := range name {
		sum += int(r)
	}
	return userColorPalette[sum%len(userColorPalette)]
}
