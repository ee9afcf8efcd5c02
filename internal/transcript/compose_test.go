package transcript

import (
	"strings"
	"testing"
	"time"
)

func TestComposeAlignmentAndIdentity(t *testing.T) {
	messages := []Message{
		{ID: "m1", Sender: Sender{ID: 7, Username: "me"}, Content: "mine", Timestamp: dayOne},
		{ID: "m2", Sender: Sender{ID: 8, Username: "ben"}, Content: "theirs", Timestamp: dayOne.Add(time.Minute)},
	}

	units := Compose(messages, 7, Conversation{Key: "general", IsGroup: true})

	var views []*MessageView
	for _, u := range units {
		if u.Kind == UnitMessage {
			views = append(views, u.View)
		}
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 message views, got %d", len(views))
	}

	mine, theirs := views[0], views[1]
	if !mine.Mine || mine.ShowAvatar || mine.ShowSender {
		t.Fatalf("own message view wrong: %+v", mine)
	}
	if theirs.Mine || !theirs.ShowAvatar || !theirs.ShowSender {
		t.Fatalf("foreign message view wrong: %+v", theirs)
	}
}

func TestComposeSenderNameOnlyInGroups(t *testing.T) {
	messages := []Message{
		{ID: "m1", Sender: Sender{ID: 8, Username: "ben"}, Content: "hello", Timestamp: dayOne},
	}
	units := Compose(messages, 7, Conversation{Key: "dm", IsGroup: false})
	for _, u := range units {
		if u.Kind != UnitMessage {
			continue
		}
		if !u.View.ShowAvatar {
			t.Fatal("avatar should show for foreign messages in DMs")
		}
		if u.View.ShowSender {
			t.Fatal("sender name should not show outside group conversations")
		}
	}
}

func TestComposeWrapsBody(t *testing.T) {
	long := strings.Repeat("chatter ", 20)
	messages := []Message{
		{ID: "m1", Sender: Sender{ID: 1, Username: "a"}, Content: strings.TrimSpace(long), Timestamp: dayOne},
	}
	units := Compose(messages, 1, Conversation{})
	for _, u := range units {
		if u.Kind != UnitMessage {
			continue
		}
		for _, line := range strings.Split(u.View.Body, "\n") {
			if len(line) > DefaultWrapWidth {
				t.Fatalf("body line %q exceeds wrap width", line)
			}
		}
	}
}

func TestComposeAttachmentDescriptors(t *testing.T) {
	messages := []Message{
		{
			ID:        "m1",
			Sender:    Sender{ID: 1, Username: "a"},
			Timestamp: dayOne,
			Files: []Attachment{
				{ID: "f1", URL: "https://cdn/x/photo.png"},
				{ID: "f2", URL: "https://cdn/x/clip.mp4"},
				{ID: "f3", URL: "https://cdn/x/note.mp3"},
				{ID: "f4", URL: "https://cdn/x/report.pdf"},
			},
		},
	}
	units := Compose(messages, 1, Conversation{})
	var view *MessageView
	for _, u := range units {
		if u.Kind == UnitMessage {
			view = u.View
		}
	}
	if view == nil || len(view.Attachments) != 4 {
		t.Fatalf("expected 4 attachment views, got %+v", view)
	}
	wantKinds := []Kind{KindImage, KindVideo, KindAudio, KindGeneric}
	for i, av := range view.Attachments {
		if av.Kind != wantKinds[i] {
			t.Errorf("attachment %d kind = %v, want %v", i, av.Kind, wantKinds[i])
		}
	}
	if view.Attachments[3].Name != "report.pdf" {
		t.Errorf("generic attachment name = %q, want report.pdf", view.Attachments[3].Name)
	}
}

func TestComposeIsPure(t *testing.T) {
	messages := []Message{
		{ID: "m1", Sender: Sender{ID: 1, Username: "a"}, Content: "hi", Timestamp: dayOne},
	}
	before := messages[0]
	_ = Compose(messages, 1, Conversation{})
	if messages[0].Content != before.Content || messages[0].ID != before.ID {
		t.Fatal("compose mutated the caller's messages")
	}
}
