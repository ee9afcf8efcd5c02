// Package transcript turns an ordered list of chat messages into a grouped,
// word-wrapped, attachment-classified sequence of render units, and owns the
// single interaction state (dropdown / edit / share) for the whole transcript.
// It has no dependency on any UI or transport library; the host supplies
// message data and callback capabilities and consumes the composed output.
package transcript

import "time"

// Sender identifies the author of a message.
type Sender struct {
	ID       int64
	Username string
	Avatar   string // optional avatar reference, empty when none
}

// Attachment is a file carried by a message. The URL doubles as the location
// and as the source of the extension-based content kind; there is no MIME
// metadata beyond the extension.
type Attachment struct {
	ID  string
	URL string
}

// Message is one entry of the transcript. The caller owns the slice and the
// lifetime; this package never mutates a message, it only requests edits and
// deletes through callbacks and expects the caller to re-supply the list.
type Message struct {
	ID        string
	Sender    Sender
	Content   string
	Timestamp time.Time
	Files     []Attachment
}

// Conversation carries the context flags that influence rendering.
type Conversation struct {
	Key     string
	IsGroup bool
}

// User is a share-picker candidate from the caller's directory.
type User struct {
	ID       int64
	Username string
	Avatar   string
	Online   bool
}

// Group is a share-picker candidate group.
type Group struct {
	ID   int64
	Name string
}
