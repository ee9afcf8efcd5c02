package transcript

import "strings"

// Directory is the read-only set of share candidates the host supplies. The
// picker never mutates it.
type Directory struct {
	Users  []User
	Groups []Group
}

// FilterUsers returns the users whose username contains query,
// case-insensitively. An empty query returns everyone.
func (d Directory) FilterUsers(query string) []User {
	if query == "" {
		return d.Users
	}
	needle := strings.ToLower(query)
	var matched []User
	for _, user := range d.Users {
		if strings.Contains(strings.ToLower(user.Username), needle) {
			matched = append(matched, user)
		}
	}
	return matched
}

// FilterGroups returns the groups whose name contains query,
// case-insensitively.
func (d Directory) FilterGroups(query string) []Group {
	if query == "" {
		return d.Groups
	}
	needle := strings.ToLower(query)
	var matched []Group
	for _, group := range d.Groups {
		if strings.Contains(strings.ToLower(group.Name), needle) {
			matched = append(matched, group)
		}
	}
	return matched
}

// ShareEntry is one selectable row of the share picker: a user or a group,
// flattened so the host can cursor through both lists as one.
type ShareEntry struct {
	User  *User
	Group *Group
}

// Label returns the display text for a picker row.
func (e ShareEntry) Label() string {
	if e.User != nil {
		return e.User.Username
	}
	if e.Group != nil {
		return e.Group.Name
	}
	return ""
}

// PickerEntries flattens the filtered directory into one selectable list,
// users first, then groups.
func (d Directory) PickerEntries(query string) []ShareEntry {
	users := d.FilterUsers(query)
	groups := d.FilterGroups(query)
	entries := make([]ShareEntry, 0, len(users)+len(groups))
	for i := range users {
		entries = append(entries, ShareEntry{User: &users[i]})
	}
	for i := range groups {
		entries = append(entries, ShareEntry{Group: &groups[i]})
	}
	return entries
}

// Resolve applies a picker selection to the controller: a user entry resolves
// the share with (target, user, nil), a group entry with (target, nil, group).
func (e ShareEntry) Resolve(controller *Controller) {
	switch {
	case e.User != nil:
		controller.ResolveShareUser(*e.User)
	case e.Group != nil:
		controller.ResolveShareGroup(*e.Group)
	}
}
