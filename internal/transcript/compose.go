package transcript

// Compose is a pure function from (messages, currentUserID, conversation) to
// the ordered render unit sequence the presentation layer draws. It delegates
// day grouping to Group and then decides, per message and independent of any
// interaction state: the alignment side, whether avatar and sender name are
// shown, the wrapped body text, and the attachment render descriptors.
func Compose(messages []Message, currentUserID int64, conversation Conversation) []RenderUnit {
	units := GroupMessages(messages)
	for _, unit := range units {
		if unit.Kind != UnitMessage {
			continue
		}
		view := unit.View
		msg := view.Message

		view.Mine = msg.Sender.ID == currentUserID
		// avatar only next to other people's messages; the sender name
		// additionally requires a group conversation
		view.ShowAvatar = !view.Mine
		view.ShowSender = !view.Mine && conversation.IsGroup
		if msg.Content != "" {
			view.Body = Wrap(msg.Content, DefaultWrapWidth)
		}
		view.Clock = msg.Timestamp.Local().Format("15:04")

		if len(msg.Files) > 0 {
			view.Attachments = make([]AttachmentView, 0, len(msg.Files))
			for _, file := range msg.Files {
				view.Attachments = append(view.Attachments, AttachmentView{
					Attachment: file,
					Kind:       Classify(file.URL),
					Name:       DisplayName(file.URL),
				})
			}
		}
	}
	return units
}
