package transcript

import "time"

// UnitKind discriminates the two render unit variants.
type UnitKind int

const (
	// UnitDayMarker is a centered day label separating calendar days.
	UnitDayMarker UnitKind = iota
	// UnitMessage is a single rendered message.
	UnitMessage
)

// RenderUnit is one atomic item of the composed transcript: a day marker
// carrying its label, or a message carrying its view.
type RenderUnit struct {
	Kind  UnitKind
	Label string       // set for UnitDayMarker
	View  *MessageView // set for UnitMessage
}

// MessageView is the presentation decision for one message. Group fills in
// only the Message; Compose decorates the rest.
type MessageView struct {
	Message Message

	// Mine is true when the message belongs to the viewing user. Own
	// messages render right-aligned with edit/delete affordances; foreign
	// messages render left-aligned with a share affordance only.
	Mine bool
	// ShowAvatar is true when the sender avatar (or its fallback initial)
	// is drawn next to the message.
	ShowAvatar bool
	// ShowSender is true when the sender name is drawn above the message.
	ShowSender bool
	// Body is the wrapped, display-ready message text.
	Body string
	// Clock is the message's local time of day, HH:MM.
	Clock string
	// Attachments are the ordered per-file render descriptors.
	Attachments []AttachmentView
}

// AttachmentView is the render descriptor for one attachment.
type AttachmentView struct {
	Attachment Attachment
	Kind       Kind
	// Name is the final path segment, used to label generic download links.
	Name string
}

// DayLabel formats a timestamp as the day heading shown between calendar
// days, in the viewer's local time zone.
func DayLabel(ts time.Time) string {
	return ts.Local().Format("Monday 2 January")
}

// Group walks an already chronologically ordered message list and emits a
// DayMarker before the first message of each calendar day. Grouping is driven
// purely by the formatted label, not by instant arithmetic: two instants that
// format to the same local day share a group even across midnight UTC. The
// result is recomputed from the full list on every call; no state is kept
// between renders.
func GroupMessages(messages []Message) []RenderUnit {
	units := make([]RenderUnit, 0, len(messages))
	previousLabel := ""
	for i := range messages {
		label := DayLabel(messages[i].Timestamp)
		if label != previousLabel {
			units = append(units, RenderUnit{Kind: UnitDayMarker, Label: label})
			previousLabel = label
		}
		units = append(units, RenderUnit{
			Kind: UnitMessage,
			View: &MessageView{Message: messages[i]},
		})
	}
	return units
}
