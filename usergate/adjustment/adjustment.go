// Package adjustment defines the closed set of changes that bring a host's
// user and group databases in line with a desired configuration.
//
// Every variant is an immutable value. Code that needs to handle each
// variant implements Visitor; adding a variant adds a Visitor method, so
// every handler has to be updated before the tree compiles again.
package adjustment

import (
	"fmt"

	"github.com/steelcutops/usergate/usergate/configuration"
)

// Kind names an adjustment variant.
type Kind string

const (
	KindGroupChangeGID  Kind = "group-change-gid"
	KindGroupChangeName Kind = "group-change-name"
	KindGroupCreate     Kind = "group-create"
	KindUserChangeUID   Kind = "user-change-uid"
	KindUserChangeName  Kind = "user-change-name"
	KindUserCreate      Kind = "user-create"
	KindUserChangeShell Kind = "user-change-shell"
)

// Adjustment is one required change.
type Adjustment interface {
	Kind() Kind
	// Accept calls the Visitor method matching the variant.
	Accept(v Visitor) error
	Equal(other Adjustment) bool
	String() string

	sealed()
}

// Visitor handles each adjustment variant.
type Visitor interface {
	GroupChangeGID(a GroupChangeGID) error
	GroupChangeName(a GroupChangeName) error
	GroupCreate(a GroupCreate) error
	UserChangeUID(a UserChangeUID) error
	UserChangeName(a UserChangeName) error
	UserCreate(a UserCreate) error
	UserChangeShell(a UserChangeShell) error
}

// GroupChangeGID changes the ID of the group named Group.Name to Group.ID.
type GroupChangeGID struct {
	Group configuration.Group
}

// GroupChangeName renames the group OldName to Group.Name.
type GroupChangeName struct {
	OldName string
	Group   configuration.Group
}

// GroupCreate creates Group.
type GroupCreate struct {
	Group configuration.Group
}

// UserChangeUID changes the ID of the user named User.Name to User.ID.
type UserChangeUID struct {
	User configuration.User
}

// UserChangeName renames the user OldName to User.Name.
type UserChangeName struct {
	OldName string
	User    configuration.User
}

// UserCreate creates User.
type UserCreate struct {
	User configuration.User
}

// UserChangeShell sets the login shell of User.Name to User.Shell.
type UserChangeShell struct {
	User configuration.User
}

func (GroupChangeGID) Kind() Kind  { return KindGroupChangeGID }
func (GroupChangeName) Kind() Kind { return KindGroupChangeName }
func (GroupCreate) Kind() Kind     { return KindGroupCreate }
func (UserChangeUID) Kind() Kind   { return KindUserChangeUID }
func (UserChangeName) Kind() Kind  { return KindUserChangeName }
func (UserCreate) Kind() Kind      { return KindUserCreate }
func (UserChangeShell) Kind() Kind { return KindUserChangeShell }

func (a GroupChangeGID) Accept(v Visitor) error  { return v.GroupChangeGID(a) }
func (a GroupChangeName) Accept(v Visitor) error { return v.GroupChangeName(a) }
func (a GroupCreate) Accept(v Visitor) error     { return v.GroupCreate(a) }
func (a UserChangeUID) Accept(v Visitor) error   { return v.UserChangeUID(a) }
func (a UserChangeName) Accept(v Visitor) error  { return v.UserChangeName(a) }
func (a UserCreate) Accept(v Visitor) error      { return v.UserCreate(a) }
func (a UserChangeShell) Accept(v Visitor) error { return v.UserChangeShell(a) }

func (a GroupChangeGID) Equal(other Adjustment) bool {
	o, ok := other.(GroupChangeGID)
	return ok && a.Group.Equal(o.Group)
}

func (a GroupChangeName) Equal(other Adjustment) bool {
	o, ok := other.(GroupChangeName)
	return ok && a.OldName == o.OldName && a.Group.Equal(o.Group)
}

func (a GroupCreate) Equal(other Adjustment) bool {
	o, ok := other.(GroupCreate)
	return ok && a.Group.Equal(o.Group)
}

func (a UserChangeUID) Equal(other Adjustment) bool {
	o, ok := other.(UserChangeUID)
	return ok && a == o
}

func (a UserChangeName) Equal(other Adjustment) bool {
	o, ok := other.(UserChangeName)
	return ok && a == o
}

func (a UserCreate) Equal(other Adjustment) bool {
	o, ok := other.(UserCreate)
	return ok && a == o
}

func (a UserChangeShell) Equal(other Adjustment) bool {
	o, ok := other.(UserChangeShell)
	return ok && a == o
}

func (a GroupChangeGID) String() string {
	return fmt.Sprintf("GroupChangeGID(%s, %d)", a.Group.Name, a.Group.ID)
}

func (a GroupChangeName) String() string {
	return fmt.Sprintf("GroupChangeName(%s -> %s, %d)", a.OldName, a.Group.Name, a.Group.ID)
}

func (a GroupCreate) String() string {
	return fmt.Sprintf("GroupCreate(%s, %d)", a.Group.Name, a.Group.ID)
}

func (a UserChangeUID) String() string {
	return fmt.Sprintf("UserChangeUID(%s, %d)", a.User.Name, a.User.ID)
}

func (a UserChangeName) String() string {
	return fmt.Sprintf("UserChangeName(%s -> %s, %d)", a.OldName, a.User.Name, a.User.ID)
}

func (a UserCreate) String() string {
	return fmt.Sprintf("UserCreate(%s, %d, %d)", a.User.Name, a.User.ID, a.User.GroupID)
}

func (a UserChangeShell) String() string {
	return fmt.Sprintf("UserChangeShell(%s, %s)", a.User.Name, a.User.Shell)
}

func (GroupChangeGID) sealed()  {}
func (GroupChangeName) sealed() {}
func (GroupCreate) sealed()     {}
func (UserChangeUID) sealed()   {}
func (UserChangeName) sealed()  {}
func (UserCreate) sealed()      {}
func (UserChangeShell) sealed() {}

// EqualLists reports whether two adjustment lists are equal element by
// element.
func EqualLists(a, b []Adjustment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
