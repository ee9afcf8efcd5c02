package transcript

// StateKind discriminates the interaction state variants.
type StateKind int

const (
	// StateIdle means no dropdown, edit dialog, or share dialog is open.
	StateIdle StateKind = iota
	// StateDropdownOpen means the per-message or per-attachment menu for
	// TargetID is open.
	StateDropdownOpen
	// StateEditing means the edit dialog for EditID is open with Draft as
	// the working text.
	StateEditing
	// StateShareOpen means the share picker is open for Share.
	StateShareOpen
)

// ShareTarget is what a share gesture captured: either a whole message or a
// single attachment, never both. For attachments the parent message is not
// threaded through; resolving it is the callback implementer's concern.
type ShareTarget struct {
	Message    *Message
	Attachment *Attachment
}

// InteractionState is the single transient UI state for the whole transcript.
// Exactly one dropdown, edit dialog, or share dialog can be active at a time
// because there is only one of these values; every transition replaces it
// wholesale.
type InteractionState struct {
	Kind     StateKind
	TargetID string // open dropdown target, message or attachment id
	EditID   string // message being edited
	Draft    string // working edit text
	Share    *ShareTarget
}

// Callbacks are the capability interfaces the host injects. They may be
// asynchronous under the hood; the state machine never waits on them. Their
// results only matter to the host.
type Callbacks struct {
	DeleteMessage func(messageID string) error
	UpdateMessage func(messageID, newContent string) error
	ShareMessage  func(target ShareTarget, user *User, group *Group) error
	DeleteFile    func(messageID, fileID string) error
}

// Controller owns the transcript's interaction state and applies the
// transition rules. All entry points are synchronous and run to completion;
// in a single-threaded host that is all the serialization needed.
//
// Every callback invocation is guarded the same way: an error is reported
// through notify and the state transition proceeds regardless. Nothing is
// retried; the user repeats the gesture.
type Controller struct {
	state     InteractionState
	callbacks Callbacks
	notify    func(notice string)
}

// NewController returns a controller in the Idle state. notify receives
// user-visible failure notices and may be nil.
func NewController(callbacks Callbacks, notify func(string)) *Controller {
	if notify == nil {
		notify = func(string) {}
	}
	return &Controller{callbacks: callbacks, notify: notify}
}

// State returns a copy of the current interaction state.
func (c *Controller) State() InteractionState {
	return c.state
}

// ToggleDropdown opens the dropdown for id, closing whatever else was open.
// Toggling the already open dropdown closes it.
func (c *Controller) ToggleDropdown(id string) {
	if c.state.Kind == StateDropdownOpen && c.state.TargetID == id {
		c.state = InteractionState{}
		return
	}
	c.state = InteractionState{Kind: StateDropdownOpen, TargetID: id}
}

// CloseDropdown forces Idle if a dropdown is open. Other states are left
// alone.
func (c *Controller) CloseDropdown() {
	if c.state.Kind == StateDropdownOpen {
		c.state = InteractionState{}
	}
}

// StartEdit opens the edit dialog for messageID seeded with its current
// content. Any previously open dropdown, edit, or share dialog is replaced.
func (c *Controller) StartEdit(messageID, currentContent string) {
	c.state = InteractionState{Kind: StateEditing, EditID: messageID, Draft: currentContent}
}

// SetDraft replaces the working edit text. Ignored outside of an edit.
func (c *Controller) SetDraft(draft string) {
	if c.state.Kind == StateEditing {
		c.state.Draft = draft
	}
}

// CancelEdit closes the edit dialog without invoking anything.
func (c *Controller) CancelEdit() {
	if c.state.Kind == StateEditing {
		c.state = InteractionState{}
	}
}

// SubmitEdit fires the update callback with the current draft and returns to
// Idle immediately, without waiting for the callback to complete. An empty
// draft fires nothing and stays in the edit dialog. The return value reports
// whether the callback was invoked.
func (c *Controller) SubmitEdit() bool {
	if c.state.Kind != StateEditing || c.state.Draft == "" {
		return false
	}
	messageID, draft := c.state.EditID, c.state.Draft
	c.state = InteractionState{}
	if c.callbacks.UpdateMessage != nil {
		if err := c.callbacks.UpdateMessage(messageID, draft); err != nil {
			c.notify("Failed to update message: " + err.Error())
		}
	}
	return true
}

// RequestDelete fires the delete callback for a message. The dropdown the
// gesture came from is expected to be closed by the caller as part of the
// same action.
func (c *Controller) RequestDelete(messageID string) {
	if c.callbacks.DeleteMessage == nil {
		return
	}
	if err := c.callbacks.DeleteMessage(messageID); err != nil {
		c.notify("Failed to delete message: " + err.Error())
	}
}

// RequestDeleteFile fires the delete-file callback for one attachment of a
// message.
func (c *Controller) RequestDeleteFile(messageID, fileID string) {
	if c.callbacks.DeleteFile == nil {
		return
	}
	if err := c.callbacks.DeleteFile(messageID, fileID); err != nil {
		c.notify("Failed to delete file: " + err.Error())
	}
}

// OpenShareMessage opens the share picker with a whole message as target.
func (c *Controller) OpenShareMessage(msg Message) {
	c.state = InteractionState{Kind: StateShareOpen, Share: &ShareTarget{Message: &msg}}
}

// OpenShareAttachment opens the share picker with a single attachment as
// target.
func (c *Controller) OpenShareAttachment(file Attachment) {
	c.state = InteractionState{Kind: StateShareOpen, Share: &ShareTarget{Attachment: &file}}
}

// ResolveShareUser resolves the open share against a user, fires the share
// callback with (target, user, nil), and returns to Idle. The captured
// target is cleared.
func (c *Controller) ResolveShareUser(user User) {
	c.resolveShare(&user, nil)
}

// ResolveShareGroup resolves the open share against a group, firing the
// callback with (target, nil, group).
func (c *Controller) ResolveShareGroup(group Group) {
	c.resolveShare(nil, &group)
}

func (c *Controller) resolveShare(user *User, group *Group) {
	if c.state.Kind != StateShareOpen || c.state.Share == nil {
		return
	}
	target := *c.state.Share
	c.state = InteractionState{}
	if c.callbacks.ShareMessage != nil {
		if err := c.callbacks.ShareMessage(target, user, group); err != nil {
			c.notify("Failed to share: " + err.Error())
		}
	}
}

// CloseShare dismisses the share picker without firing anything. The target
// is transient and cleared on close.
func (c *Controller) CloseShare() {
	if c.state.Kind == StateShareOpen {
		c.state = InteractionState{}
	}
}
