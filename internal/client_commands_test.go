package internal

import (
	"testing"
	"time"

	"chatpane/internal/transcript"
)

func TestBuildFeedURL(t *testing.T) {
	cases := []struct {
		name    string
		base    string
		key     string
		userID  int64
		want    string
		wantErr bool
	}{
		{name: "http base", base: "http://localhost:8080", key: "demo", want: "ws://localhost:8080/ws?conversation=demo"},
		{name: "https base", base: "https://chat.example.com", key: "demo", want: "wss://chat.example.com/ws?conversation=demo"},
		{name: "user attached", base: "http://localhost:8080", key: "demo", userID: 7, want: "ws://localhost:8080/ws?conversation=demo&user=7"},
		{name: "already ws", base: "ws://localhost:8080", key: "demo", want: "ws://localhost:8080/ws?conversation=demo"},
		{name: "bad scheme", base: "ftp://nope", key: "demo", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := buildFeedURL(tc.base, tc.key, tc.userID)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDropdownOptions(t *testing.T) {
	msg := transcript.Message{
		ID:        "m1",
		Sender:    transcript.Sender{ID: 1, Username: "amira"},
		Content:   "hello",
		Timestamp: time.Now(),
		Files: []transcript.Attachment{
			{ID: "f1", URL: "https://example.com/pic.png"},
		},
	}

	mineUnits := transcript.Compose([]transcript.Message{msg}, 1, transcript.Conversation{Key: "demo"})
	mine := mineUnits[len(mineUnits)-1].View
	options := dropdownOptions(mine)
	labels := optionLabels(options)
	want := []string{"Edit message", "Delete message", "Delete file pic.png"}
	if !equalStrings(labels, want) {
		t.Fatalf("own message options = %v, want %v", labels, want)
	}

	foreignUnits := transcript.Compose([]transcript.Message{msg}, 2, transcript.Conversation{Key: "demo"})
	foreign := foreignUnits[len(foreignUnits)-1].View
	labels = optionLabels(dropdownOptions(foreign))
	want = []string{"Share message", "Share file pic.png"}
	if !equalStrings(labels, want) {
		t.Fatalf("foreign message options = %v, want %v", labels, want)
	}
}

func TestDropdownOptionsFileOnlyMessage(t *testing.T) {
	msg := transcript.Message{
		ID:        "m2",
		Sender:    transcript.Sender{ID: 1, Username: "amira"},
		Timestamp: time.Now(),
		Files: []transcript.Attachment{
			{ID: "f1", URL: "https://example.com/doc.pdf"},
		},
	}
	units := transcript.Compose([]transcript.Message{msg}, 1, transcript.Conversation{Key: "demo"})
	view := units[len(units)-1].View
	labels := optionLabels(dropdownOptions(view))
	// no edit entry without text content
	want := []string{"Delete message", "Delete file doc.pdf"}
	if !equalStrings(labels, want) {
		t.Fatalf("file-only options = %v, want %v", labels, want)
	}
}

func optionLabels(options []dropdownOption) []string {
	labels := make([]string, 0, len(options))
	for _, option := range options {
		labels = append(labels, option.label)
	}
	return labels
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
