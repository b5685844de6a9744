// Package reconcile computes the adjustments that turn an observed user and
// group database into the desired configuration.
//
// Reconcile is a pure function of its inputs. It performs no I/O, keeps no
// state between calls and may be called concurrently.
package reconcile

import (
	"strconv"

	"github.com/steelcutops/usergate/usergate/adjustment"
	"github.com/steelcutops/usergate/usergate/configuration"
	"github.com/steelcutops/usergate/usergate/failure"
	"github.com/steelcutops/usergate/usergate/usermanager"
)

type options struct {
	skipSatisfied bool
}

// Option configures Reconcile.
type Option func(*options)

// WithSatisfiedAsNoOp skips an entity whose name and id lookups both find
// the same observed row, which already has the declared name and id.
// Without it that entity is reported as a conflict like any other entity
// found by both name and id.
func WithSatisfiedAsNoOp() Option {
	return func(o *options) {
		o.skipSatisfied = true
	}
}

// Reconcile classifies every desired user and group against the observed
// databases and returns the adjustments in execution order:
//
//  1. group creations, in reverse declaration order;
//  2. user creations, renames and renumbers, in declaration order;
//  3. group renames and renumbers, in declaration order.
//
// Every entity is classified before Reconcile returns. If any entity is in
// conflict, no adjustments are returned and the error is a *failure.Error
// holding the first conflict, with the remaining conflicts as associated
// errors.
func Reconcile(
	users *usermanager.UserDatabase,
	groups *usermanager.GroupDatabase,
	cfg configuration.Configuration,
	opts ...Option,
) ([]adjustment.Adjustment, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if users == nil {
		users = &usermanager.UserDatabase{}
	}
	if groups == nil {
		groups = &usermanager.GroupDatabase{}
	}

	var (
		groupCreates []adjustment.Adjustment
		userChanges  []adjustment.Adjustment
		groupChanges []adjustment.Adjustment
		conflicts    []*failure.Error
	)

	for _, user := range cfg.Users {
		a, conflict := userAdjustment(users, user, o)
		switch {
		case conflict != nil:
			conflicts = append(conflicts, conflict)
		case a != nil:
			userChanges = append(userChanges, a)
		}
	}

	for _, group := range cfg.Groups {
		a, conflict := groupAdjustment(groups, group, o)
		switch {
		case conflict != nil:
			conflicts = append(conflicts, conflict)
		case a == nil:
		case a.Kind() == adjustment.KindGroupCreate:
			groupCreates = append([]adjustment.Adjustment{a}, groupCreates...)
		default:
			groupChanges = append(groupChanges, a)
		}
	}

	if len(conflicts) > 0 {
		return nil, failure.Aggregate(conflicts)
	}

	result := make([]adjustment.Adjustment, 0, len(groupCreates)+len(userChanges)+len(groupChanges))
	result = append(result, groupCreates...)
	result = append(result, userChanges...)
	result = append(result, groupChanges...)
	return result, nil
}

func userAdjustment(
	db *usermanager.UserDatabase,
	user configuration.User,
	o options,
) (adjustment.Adjustment, *failure.Error) {
	byName, hasName := db.UserForName(user.Name)
	byID, hasID := db.UserForID(user.ID)

	switch {
	case !hasName && !hasID:
		return adjustment.UserCreate{User: user}, nil
	case hasName && !hasID:
		return adjustment.UserChangeUID{User: user}, nil
	case !hasName && hasID:
		return adjustment.UserChangeName{OldName: byID.Name, User: user}, nil
	}

	if o.skipSatisfied && byName == byID {
		return nil, nil
	}

	return nil, failure.New(
		failure.CodeUserConflict,
		"Unsolvable user ID/Name conflict.",
		"Requested User ID", formatID(user.ID),
		"Requested User Name", user.Name,
		"Existing User (0) Name", byName.Name,
		"Existing User (0) ID", formatID(byName.UID),
		"Existing User (1) Name", byID.Name,
		"Existing User (1) ID", formatID(byID.UID),
	).WithRemediation("Remove one of the conflicting users.")
}

func groupAdjustment(
	db *usermanager.GroupDatabase,
	group configuration.Group,
	o options,
) (adjustment.Adjustment, *failure.Error) {
	byName, hasName := db.GroupForName(group.Name)
	byID, hasID := db.GroupForID(group.ID)

	switch {
	case !hasName && !hasID:
		return adjustment.GroupCreate{Group: group}, nil
	case hasName && !hasID:
		return adjustment.GroupChangeGID{Group: group}, nil
	case !hasName && hasID:
		return adjustment.GroupChangeName{OldName: byID.Name, Group: group}, nil
	}

	if o.skipSatisfied && byName.Name == byID.Name && byName.GID == byID.GID {
		return nil, nil
	}

	return nil, failure.New(
		failure.CodeGroupConflict,
		"Unsolvable group ID/Name conflict.",
		"Requested Group ID", formatID(group.ID),
		"Requested Group Name", group.Name,
		"Existing Group (0) Name", byName.Name,
		"Existing Group (0) ID", formatID(byName.GID),
		"Existing Group (1) Name", byID.Name,
		"Existing Group (1) ID", formatID(byID.GID),
	).WithRemediation("Remove one of the conflicting groups.")
}

func formatID(id uint32) string {
	return strconv.FormatUint(uint64(id), 10)
}
