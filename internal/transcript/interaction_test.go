package transcript

import (
	"errors"
	"testing"
)

type callbackLog struct {
	updates []string
	deletes []string
	shares  []ShareTarget
	users   []*User
	groups  []*Group
	files   []string
	fail    error
}

func (l *callbackLog) callbacks() Callbacks {
	return Callbacks{
		UpdateMessage: func(id, content string) error {
			l.updates = append(l.updates, id+"="+content)
			return l.fail
		},
		DeleteMessage: func(id string) error {
			l.deletes = append(l.deletes, id)
			return l.fail
		},
		ShareMessage: func(target ShareTarget, user *User, group *Group) error {
			l.shares = append(l.shares, target)
			l.users = append(l.users, user)
			l.groups = append(l.groups, group)
			return l.fail
		},
		DeleteFile: func(messageID, fileID string) error {
			l.files = append(l.files, messageID+"/"+fileID)
			return l.fail
		},
	}
}

func TestToggleDropdownSwitchesTargets(t *testing.T) {
	c := NewController(Callbacks{}, nil)

	c.ToggleDropdown("A")
	if s := c.State(); s.Kind != StateDropdownOpen || s.TargetID != "A" {
		t.Fatalf("state = %+v, want dropdown A", s)
	}

	// opening B implicitly closes A
	c.ToggleDropdown("B")
	if s := c.State(); s.Kind != StateDropdownOpen || s.TargetID != "B" {
		t.Fatalf("state = %+v, want dropdown B", s)
	}

	// toggling the open dropdown closes it
	c.ToggleDropdown("B")
	if s := c.State(); s.Kind != StateIdle {
		t.Fatalf("state = %+v, want idle", s)
	}
}

func TestCloseDropdownOnlyAffectsDropdowns(t *testing.T) {
	c := NewController(Callbacks{}, nil)
	c.StartEdit("m1", "text")
	c.CloseDropdown()
	if s := c.State(); s.Kind != StateEditing {
		t.Fatalf("close dropdown clobbered edit state: %+v", s)
	}
}

func TestMutualExclusion(t *testing.T) {
	c := NewController(Callbacks{}, nil)

	c.ToggleDropdown("m1")
	c.StartEdit("m1", "hello")
	if s := c.State(); s.Kind != StateEditing || s.TargetID != "" {
		t.Fatalf("edit did not replace dropdown: %+v", s)
	}

	c.OpenShareMessage(Message{ID: "m2"})
	if s := c.State(); s.Kind != StateShareOpen || s.EditID != "" {
		t.Fatalf("share did not replace edit: %+v", s)
	}

	c.ToggleDropdown("m3")
	if s := c.State(); s.Kind != StateDropdownOpen || s.Share != nil {
		t.Fatalf("dropdown did not replace share: %+v", s)
	}
}

func TestSubmitEditFiresOnceAndGoesIdle(t *testing.T) {
	log := &callbackLog{}
	c := NewController(log.callbacks(), nil)

	c.StartEdit("m1", "old")
	c.SetDraft("new text")
	if !c.SubmitEdit() {
		t.Fatal("expected submit to fire")
	}
	if s := c.State(); s.Kind != StateIdle {
		t.Fatalf("state after submit = %+v, want idle", s)
	}
	if len(log.updates) != 1 || log.updates[0] != "m1=new text" {
		t.Fatalf("updates = %v", log.updates)
	}
}

func TestSubmitEditEmptyDraftStaysEditing(t *testing.T) {
	log := &callbackLog{}
	c := NewController(log.callbacks(), nil)

	c.StartEdit("m1", "old")
	c.SetDraft("")
	if c.SubmitEdit() {
		t.Fatal("empty draft must not fire the callback")
	}
	if s := c.State(); s.Kind != StateEditing || s.EditID != "m1" {
		t.Fatalf("state = %+v, want still editing m1", s)
	}
	if len(log.updates) != 0 {
		t.Fatalf("updates = %v, want none", log.updates)
	}
}

func TestSubmitEditFailureStillCloses(t *testing.T) {
	log := &callbackLog{fail: errors.New("boom")}
	var notices []string
	c := NewController(log.callbacks(), func(n string) { notices = append(notices, n) })

	c.StartEdit("m1", "text")
	c.SubmitEdit()
	if s := c.State(); s.Kind != StateIdle {
		t.Fatalf("state = %+v, want idle even on failure", s)
	}
	if len(notices) != 1 {
		t.Fatalf("notices = %v, want one failure notice", notices)
	}
}

func TestCancelEdit(t *testing.T) {
	log := &callbackLog{}
	c := NewController(log.callbacks(), nil)
	c.StartEdit("m1", "text")
	c.CancelEdit()
	if s := c.State(); s.Kind != StateIdle {
		t.Fatalf("state = %+v, want idle", s)
	}
	if len(log.updates) != 0 {
		t.Fatal("cancel must not fire the update callback")
	}
}

func TestResolveShareUserAndGroup(t *testing.T) {
	log := &callbackLog{}
	c := NewController(log.callbacks(), nil)

	msg := Message{ID: "m1", Content: "hi"}
	c.OpenShareMessage(msg)
	c.ResolveShareUser(User{ID: 4, Username: "dana"})

	if s := c.State(); s.Kind != StateIdle || s.Share != nil {
		t.Fatalf("state = %+v, want idle with cleared target", s)
	}
	if len(log.shares) != 1 || log.shares[0].Message == nil || log.shares[0].Message.ID != "m1" {
		t.Fatalf("shares = %+v", log.shares)
	}
	if log.users[0] == nil || log.users[0].Username != "dana" || log.groups[0] != nil {
		t.Fatalf("user share passed (%v, %v), want (dana, nil)", log.users[0], log.groups[0])
	}

	c.OpenShareAttachment(Attachment{ID: "f1", URL: "a.png"})
	c.ResolveShareGroup(Group{ID: 2, Name: "ops"})

	if len(log.shares) != 2 || log.shares[1].Attachment == nil || log.shares[1].Attachment.ID != "f1" {
		t.Fatalf("attachment share target wrong: %+v", log.shares)
	}
	if log.users[1] != nil || log.groups[1] == nil || log.groups[1].Name != "ops" {
		t.Fatalf("group share passed (%v, %v), want (nil, ops)", log.users[1], log.groups[1])
	}
}

func TestCloseShareFiresNothing(t *testing.T) {
	log := &callbackLog{}
	c := NewController(log.callbacks(), nil)
	c.OpenShareMessage(Message{ID: "m1"})
	c.CloseShare()
	if s := c.State(); s.Kind != StateIdle || s.Share != nil {
		t.Fatalf("state = %+v, want idle", s)
	}
	if len(log.shares) != 0 {
		t.Fatal("close must not fire the share callback")
	}
}

func TestRequestDeleteGuarded(t *testing.T) {
	log := &callbackLog{fail: errors.New("offline")}
	var notices []string
	c := NewController(log.callbacks(), func(n string) { notices = append(notices, n) })

	c.RequestDelete("m1")
	c.RequestDeleteFile("m1", "f1")
	if len(log.deletes) != 1 || log.deletes[0] != "m1" {
		t.Fatalf("deletes = %v", log.deletes)
	}
	if len(log.files) != 1 || log.files[0] != "m1/f1" {
		t.Fatalf("file deletes = %v", log.files)
	}
	if len(notices) != 2 {
		t.Fatalf("notices = %v, want two failure notices", notices)
	}
}
