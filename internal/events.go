package internal

// event types pushed to transcript feeds when the stored conversation changes
const (
	EventMessagePosted  = "message_posted"
	EventMessageUpdated = "message_updated"
	EventMessageDeleted = "message_deleted"
	EventFileDeleted    = "file_deleted"
	EventMessageShared  = "message_shared"
)

// ChangeEvent is the json envelope the server pushes over the websocket feed
// whenever a conversation's content changes. Viewers refetch the transcript
// on any of them; the payload only says what happened, not the new state.
type ChangeEvent struct {
	Type            string `json:"type"`
	ConversationKey string `json:"conversation"`
	MessageID       string `json:"message_id,omitempty"`
	FileID          string `json:"file_id,omitempty"`
	Ts              int64  `json:"ts"`
}
