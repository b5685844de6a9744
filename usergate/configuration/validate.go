package configuration

import (
	"fmt"
	"strings"

	multierror "github.com/hashicorp/go-multierror"
)

// resolve validates the decoded file and resolves group members against the
// declared users. Every problem found is reported.
func resolve(raw fileConfig) (Configuration, error) {
	var result *multierror.Error

	cfg := Configuration{
		Users:  make([]User, 0, len(raw.Users)),
		Groups: make([]Group, 0, len(raw.Groups)),
	}

	userIDs := map[uint32]string{}
	userNames := map[string]bool{}
	for i, fu := range raw.Users {
		name := strings.TrimSpace(fu.Name)
		if name == "" {
			result = multierror.Append(result, fmt.Errorf("users[%d]: name is required", i))
			continue
		}
		if fu.ID == nil {
			result = multierror.Append(result, fmt.Errorf("user %q: id is required", name))
			continue
		}
		if fu.GID == nil {
			result = multierror.Append(result, fmt.Errorf("user %q: gid is required", name))
			continue
		}
		if userNames[name] {
			result = multierror.Append(result, fmt.Errorf("user %q: duplicate user name", name))
			continue
		}
		if other, ok := userIDs[*fu.ID]; ok {
			result = multierror.Append(result, fmt.Errorf("user %q: id %d is already used by user %q", name, *fu.ID, other))
			continue
		}
		userNames[name] = true
		userIDs[*fu.ID] = name

		shell := strings.TrimSpace(fu.Shell)
		if shell == "" {
			shell = DefaultShell
		}
		cfg.Users = append(cfg.Users, User{ID: *fu.ID, GroupID: *fu.GID, Name: name, Shell: shell})
	}

	groupIDs := map[uint32]string{}
	groupNames := map[string]bool{}
	for i, fg := range raw.Groups {
		name := strings.TrimSpace(fg.Name)
		if name == "" {
			result = multierror.Append(result, fmt.Errorf("groups[%d]: name is required", i))
			continue
		}
		if fg.ID == nil {
			result = multierror.Append(result, fmt.Errorf("group %q: id is required", name))
			continue
		}
		if groupNames[name] {
			result = multierror.Append(result, fmt.Errorf("group %q: duplicate group name", name))
			continue
		}
		if other, ok := groupIDs[*fg.ID]; ok {
			result = multierror.Append(result, fmt.Errorf("group %q: id %d is already used by group %q", name, *fg.ID, other))
			continue
		}
		groupNames[name] = true
		groupIDs[*fg.ID] = name

		members := make(map[string]User, len(fg.Members))
		for _, member := range fg.Members {
			member = strings.TrimSpace(member)
			user, ok := cfg.UserNamed(member)
			if !ok {
				result = multierror.Append(result, fmt.Errorf("group %q: member %q is not a declared user", name, member))
				continue
			}
			members[member] = user
		}
		cfg.Groups = append(cfg.Groups, Group{ID: *fg.ID, Name: name, Members: members})
	}

	if err := result.ErrorOrNil(); err != nil {
		return Configuration{}, err
	}
	return cfg, nil
}
