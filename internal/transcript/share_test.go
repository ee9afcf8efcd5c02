package transcript

import "testing"

func testDirectory() Directory {
	return Directory{
		Users: []User{
			{ID: 1, Username: "alice"},
			{ID: 2, Username: "ben"},
			{ID: 3, Username: "benedict"},
		},
		Groups: []Group{
			{ID: 1, Name: "ops"},
			{ID: 2, Name: "benchpress"},
		},
	}
}

func TestFilterUsers(t *testing.T) {
	dir := testDirectory()
	if got := dir.FilterUsers("BEN"); len(got) != 2 {
		t.Fatalf("FilterUsers(BEN) = %v, want ben and benedict", got)
	}
	if got := dir.FilterUsers(""); len(got) != 3 {
		t.Fatalf("empty query should return all users, got %d", len(got))
	}
	if got := dir.FilterUsers("zzz"); len(got) != 0 {
		t.Fatalf("expected no matches, got %v", got)
	}
}

func TestPickerEntriesUsersThenGroups(t *testing.T) {
	entries := testDirectory().PickerEntries("ben")
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].User == nil || entries[2].Group == nil {
		t.Fatalf("expected users before groups: %+v", entries)
	}
	if entries[2].Label() != "benchpress" {
		t.Fatalf("label = %q", entries[2].Label())
	}
}

func TestShareEntryResolve(t *testing.T) {
	log := &callbackLog{}
	c := NewController(log.callbacks(), nil)

	c.OpenShareMessage(Message{ID: "m1"})
	ShareEntry{User: &User{ID: 9, Username: "zoe"}}.Resolve(c)
	if len(log.users) != 1 || log.users[0].Username != "zoe" || log.groups[0] != nil {
		t.Fatalf("user resolve passed (%v, %v)", log.users[0], log.groups[0])
	}

	c.OpenShareMessage(Message{ID: "m2"})
	ShareEntry{Group: &Group{ID: 3, Name: "eng"}}.Resolve(c)
	if len(log.groups) != 2 || log.groups[1].Name != "eng" || log.users[1] != nil {
		t.Fatalf("group resolve passed (%v, %v)", log.users[1], log.groups[1])
	}
}
