package usermanager

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	cm "github.com/steelcutops/usergate/usergate/commandmanager"
)

type LinuxUserManager struct {
	CommandManager cm.CommandManager
}

func (l *LinuxUserManager) ListUsers(ctx context.Context) (*UserDatabase, error) {
	output, err := l.getent(ctx, "passwd")
	if err != nil {
		return nil, err
	}

	entries, err := ParsePasswd(output)
	if err != nil {
		return nil, err
	}
	logrus.WithField("entries", len(entries)).Debug("Read user database")
	return &UserDatabase{Entries: entries}, nil
}

func (l *LinuxUserManager) ListGroups(ctx context.Context) (*GroupDatabase, error) {
	output, err := l.getent(ctx, "group")
	if err != nil {
		return nil, err
	}

	entries, err := ParseGroup(output)
	if err != nil {
		return nil, err
	}
	logrus.WithField("entries", len(entries)).Debug("Read group database")
	return &GroupDatabase{Entries: entries}, nil
}

func (l *LinuxUserManager) getent(ctx context.Context, database string) (string, error) {
	output, err := l.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "getent",
		Args:    []string{database},
	})
	if err != nil {
		return "", fmt.Errorf("getent %s: %w", database, err)
	}
	if output.ExitCode != 0 {
		return "", fmt.Errorf("getent %s: exit code %d: %s", database, output.ExitCode, strings.TrimSpace(output.STDERR))
	}
	return output.STDOUT, nil
}

// ParsePasswd parses passwd(5) formatted text. Only the name, uid and gid
// fields are kept.
func ParsePasswd(text string) ([]UserEntry, error) {
	entries := []UserEntry{}

	for n, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, ":")
		if len(parts) < 4 {
			return nil, fmt.Errorf("passwd line %d: unexpected format %q", n+1, line)
		}

		uid, err := parseID(parts[2])
		if err != nil {
			return nil, fmt.Errorf("passwd line %d: uid: %w", n+1, err)
		}
		gid, err := parseID(parts[3])
		if err != nil {
			return nil, fmt.Errorf("passwd line %d: gid: %w", n+1, err)
		}

		entries = append(entries, UserEntry{
			Name: parts[0],
			UID:  uid,
			GID:  gid,
		})
	}
	return entries, nil
}

// ParseGroup parses group(5) formatted text. Each line is
// name:passwd:gid:members; the passwd field is ignored.
func ParseGroup(text string) ([]GroupEntry, error) {
	entries := []GroupEntry{}

	for n, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, ":")
		if len(parts) < 3 {
			return nil, fmt.Errorf("group line %d: unexpected format %q", n+1, line)
		}

		gid, err := parseID(parts[2])
		if err != nil {
			return nil, fmt.Errorf("group line %d: gid: %w", n+1, err)
		}

		members := []string{}
		if len(parts) > 3 && parts[3] != "" {
			members = strings.Split(parts[3], ",")
		}

		entries = append(entries, GroupEntry{
			Name:    parts[0],
			GID:     gid,
			Members: members,
		})
	}
	return entries, nil
}

func parseID(field string) (uint32, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(field), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(id), nil
}
