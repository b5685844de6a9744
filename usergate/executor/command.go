package executor

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/steelcutops/usergate/usergate/adjustment"
)

var errNilAdjustment = errors.New("nil adjustment")

// Command returns the argument vector that applies a.
func Command(a adjustment.Adjustment) ([]string, error) {
	if a == nil {
		return nil, errNilAdjustment
	}
	b := &commandBuilder{}
	if err := a.Accept(b); err != nil {
		return nil, fmt.Errorf("render %s: %w", a, err)
	}
	return b.argv, nil
}

// Commands renders every adjustment, in order. Nothing is returned unless
// all of them render.
func Commands(adjustments []adjustment.Adjustment) ([][]string, error) {
	vectors := make([][]string, 0, len(adjustments))
	for i, a := range adjustments {
		argv, err := Command(a)
		if err != nil {
			return nil, fmt.Errorf("adjustment %d: %w", i, err)
		}
		vectors = append(vectors, argv)
	}
	return vectors, nil
}

type commandBuilder struct {
	argv []string
}

func (b *commandBuilder) GroupChangeGID(a adjustment.GroupChangeGID) error {
	b.argv = []string{"groupmod", "--gid", id(a.Group.ID), a.Group.Name}
	return nil
}

func (b *commandBuilder) GroupChangeName(a adjustment.GroupChangeName) error {
	b.argv = []string{"groupmod", "--new-name", a.Group.Name, a.OldName}
	return nil
}

func (b *commandBuilder) GroupCreate(a adjustment.GroupCreate) error {
	b.argv = []string{"groupadd", "--gid", id(a.Group.ID), a.Group.Name}
	return nil
}

func (b *commandBuilder) UserChangeUID(a adjustment.UserChangeUID) error {
	b.argv = []string{"usermod", "--uid", id(a.User.ID), a.User.Name}
	return nil
}

func (b *commandBuilder) UserChangeName(a adjustment.UserChangeName) error {
	b.argv = []string{"usermod", "--login", a.User.Name, a.OldName}
	return nil
}

func (b *commandBuilder) UserCreate(a adjustment.UserCreate) error {
	b.argv = []string{
		"useradd",
		"--uid", id(a.User.ID),
		"--gid", id(a.User.GroupID),
		"--no-create-home",
		a.User.Name,
	}
	return nil
}

func (b *commandBuilder) UserChangeShell(a adjustment.UserChangeShell) error {
	b.argv = []string{"usermod", "--shell", a.User.Shell, a.User.Name}
	return nil
}

func id(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}
