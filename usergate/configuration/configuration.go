// Package configuration holds the desired state of users and groups and
// loads it from TOML or YAML files.
package configuration

import "sort"

// DefaultShell is assigned to users that do not declare one.
const DefaultShell = "/sbin/nologin"

// User is a desired user account.
type User struct {
	ID      uint32
	GroupID uint32
	Name    string
	Shell   string
}

// Group is a desired group. Members maps member names to users declared in
// the same configuration.
type Group struct {
	ID      uint32
	Name    string
	Members map[string]User
}

// MemberNames returns the member names in sorted order.
func (g Group) MemberNames() []string {
	names := make([]string, 0, len(g.Members))
	for name := range g.Members {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Equal reports whether two groups have the same id, name and members.
func (g Group) Equal(other Group) bool {
	if g.ID != other.ID || g.Name != other.Name || len(g.Members) != len(other.Members) {
		return false
	}
	for name, user := range g.Members {
		if o, ok := other.Members[name]; !ok || o != user {
			return false
		}
	}
	return true
}

// Configuration is the desired state. Order is declaration order.
type Configuration struct {
	Users  []User
	Groups []Group
}

// UserNamed returns the declared user with the given name.
func (c Configuration) UserNamed(name string) (User, bool) {
	for _, u := range c.Users {
		if u.Name == name {
			return u, true
		}
	}
	return User{}, false
}
