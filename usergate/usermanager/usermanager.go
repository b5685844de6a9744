package usermanager

import "context"

// UserEntry is one row of the live user database.
type UserEntry struct {
	Name string // login name
	UID  uint32 // user ID
	GID  uint32 // primary group ID
}

// GroupEntry is one row of the live group database.
type GroupEntry struct {
	Name    string   // group name
	GID     uint32   // group ID
	Members []string // supplementary member names
}

// UserDatabase is a read-only snapshot of the user database.
type UserDatabase struct {
	Entries []UserEntry
}

// UserForName returns the first entry with the given name.
func (d *UserDatabase) UserForName(name string) (UserEntry, bool) {
	for _, e := range d.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return UserEntry{}, false
}

// UserForID returns the first entry with the given user ID.
func (d *UserDatabase) UserForID(uid uint32) (UserEntry, bool) {
	for _, e := range d.Entries {
		if e.UID == uid {
			return e, true
		}
	}
	return UserEntry{}, false
}

// GroupDatabase is a read-only snapshot of the group database.
type GroupDatabase struct {
	Entries []GroupEntry
}

// GroupForName returns the first entry with the given name.
func (d *GroupDatabase) GroupForName(name string) (GroupEntry, bool) {
	for _, e := range d.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return GroupEntry{}, false
}

// GroupForID returns the first entry with the given group ID.
func (d *GroupDatabase) GroupForID(gid uint32) (GroupEntry, bool) {
	for _, e := range d.Entries {
		if e.GID == gid {
			return e, true
		}
	}
	return GroupEntry{}, false
}

// UserManager takes snapshots of a host's user and group databases.
type UserManager interface {
	// Lists all users
	ListUsers(ctx context.Context) (*UserDatabase, error)

	// Lists all groups
	ListGroups(ctx context.Context) (*GroupDatabase, error)
}
