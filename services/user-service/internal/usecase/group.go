package usecase

import (
	"context"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/platform-api/services/user-service/internal/audit"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/config"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/model"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/repository"
	"github.com/vasapolrittideah/platform-api/shared/validation"
)

// GroupUsecase defines the group and membership use cases.
type GroupUsecase interface {
	CreateGroup(ctx context.Context, params CreateGroupParams, actorID string) (*model.Group, error)
	FindGroup(ctx context.Context, id string) (*model.Group, error)
	ListGroups(ctx context.Context) ([]*model.Group, error)
	FindGroupMembers(ctx context.Context, groupID string) ([]*model.User, error)

	// SetGroupMembers makes userIDs the exact member list of the group.
	// Removals are applied before additions. Only administrators may call it.
	SetGroupMembers(ctx context.Context, groupID string, userIDs []string, actorID string) (*SyncResult, error)
}

// CreateGroupParams defines the parameters for creating a group.
type CreateGroupParams struct {
	Name  string `json:"name"  validate:"required,max=64"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

type groupUsecase struct {
	groupRepo repository.GroupRepository
	userRepo  repository.UserRepository
	txRunner  repository.TxRunner
	authz     *authorizer
	recorder  audit.Recorder
	validator *validation.Validator
	logger    *zerolog.Logger
}

func NewGroupUsecase(
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	txRunner repository.TxRunner,
	recorder audit.Recorder,
	validator *validation.Validator,
	userServiceCfg *config.UserServiceConfig,
	logger *zerolog.Logger,
) GroupUsecase {
	return &groupUsecase{
		groupRepo: groupRepo,
		userRepo:  userRepo,
		txRunner:  txRunner,
		authz:     newAuthorizer(userRepo, userServiceCfg.AdminRoleID),
		recorder:  recorder,
		validator: validator,
		logger:    logger,
	}
}

func (u *groupUsecase) CreateGroup(
	ctx context.Context,
	params CreateGroupParams,
	actorID string,
) (*model.Group, error) {
	if err := u.authz.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}

	if err := validateStruct(u.validator, params); err != nil {
		return nil, err
	}

	group, err := u.groupRepo.CreateGroup(ctx, &model.Group{Name: params.Name, Color: params.Color})
	if err != nil {
		if dupErr := duplicateKeyError(err, "name"); dupErr != nil {
			return nil, dupErr
		}
		return nil, &PersistenceError{Op: "create group", Err: err}
	}

	return group, nil
}

func (u *groupUsecase) FindGroup(ctx context.Context, id string) (*model.Group, error) {
	group, err := u.groupRepo.GetGroup(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrGroupNotFound
		}
		return nil, &PersistenceError{Op: "find group", Err: err}
	}

	return group, nil
}

func (u *groupUsecase) ListGroups(ctx context.Context) ([]*model.Group, error) {
	groups, err := u.groupRepo.ListGroups(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list groups", Err: err}
	}

	return groups, nil
}

func (u *groupUsecase) FindGroupMembers(ctx context.Context, groupID string) ([]*model.User, error) {
	if _, err := u.FindGroup(ctx, groupID); err != nil {
		return nil, err
	}

	users, err := u.userRepo.ListUsersByGroup(ctx, groupID, repository.GetUserOptions{})
	if err != nil {
		return nil, &PersistenceError{Op: "list group members", Err: err}
	}

	return users, nil
}

func (u *groupUsecase) SetGroupMembers(
	ctx context.Context,
	groupID string,
	userIDs []string,
	actorID string,
) (*SyncResult, error) {
	if err := u.authz.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}

	group, err := u.FindGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	desired, err := parseIDs("users", userIDs)
	if err != nil {
		return nil, err
	}

	// Soft-deleted users still carry the group id and are part of the diff.
	current, err := u.userRepo.ListUsersByGroup(ctx, groupID, repository.GetUserOptions{IncludeDeleted: true})
	if err != nil {
		return nil, &PersistenceError{Op: "list group members", Err: err}
	}

	changes := diffMembers(current, desired)
	if len(changes) == 0 {
		return &SyncResult{Added: []string{}, Removed: []string{}}, nil
	}

	// Unknown users are rejected before anything is written.
	for _, change := range changes {
		if change.Action != MembershipAdd {
			continue
		}
		if _, err := u.userRepo.GetUser(ctx, change.UserID, repository.GetUserOptions{}); err != nil {
			return nil, userLookupError("find user", err)
		}
	}

	var (
		applied []MembershipChange
		done    int
	)
	err = u.txRunner.WithTransaction(ctx, func(ctx context.Context) error {
		// The transaction callback may be retried.
		applied, done = applied[:0], 0
		for _, change := range changes {
			modified, err := u.applyChange(ctx, group.ID.Hex(), change)
			if err != nil {
				return err
			}
			done++
			if modified {
				applied = append(applied, change)
			}
		}
		return nil
	})
	if err != nil {
		if u.txRunner.Transactional() {
			return nil, &PersistenceError{Op: "synchronize group members", Err: err}
		}

		u.recordChanges(ctx, actorID, applied)
		return nil, &PartialSyncError{
			Applied: applied,
			Pending: changes[done:],
			Err:     err,
		}
	}

	u.recordChanges(ctx, actorID, applied)

	result := &SyncResult{Added: []string{}, Removed: []string{}}
	for _, change := range applied {
		if change.Action == MembershipAdd {
			result.Added = append(result.Added, change.UserID)
		} else {
			result.Removed = append(result.Removed, change.UserID)
		}
	}

	u.logger.Info().
		Str("group_id", groupID).
		Int("added", len(result.Added)).
		Int("removed", len(result.Removed)).
		Msg("group members synchronized")

	return result, nil
}

func (u *groupUsecase) applyChange(ctx context.Context, groupID string, change MembershipChange) (bool, error) {
	if change.Action == MembershipAdd {
		return u.userRepo.AddUserToGroup(ctx, change.UserID, groupID)
	}

	return u.userRepo.RemoveUserFromGroup(ctx, change.UserID, groupID)
}

func (u *groupUsecase) recordChanges(ctx context.Context, actorID string, changes []MembershipChange) {
	actor := actorObjectID(actorID)
	for _, change := range changes {
		subject, err := bson.ObjectIDFromHex(change.UserID)
		if err != nil {
			continue
		}

		action := model.AuditGroupMemberRemoved
		if change.Action == MembershipAdd {
			action = model.AuditGroupMemberAdded
		}
		u.recorder.Record(ctx, actor, subject, action)
	}
}

// diffMembers lists the removals of current members missing from desired,
// followed by the additions of desired users not yet members.
func diffMembers(current []*model.User, desired []bson.ObjectID) []MembershipChange {
	wanted := make(map[bson.ObjectID]struct{}, len(desired))
	for _, id := range desired {
		wanted[id] = struct{}{}
	}

	members := make(map[bson.ObjectID]struct{}, len(current))
	changes := make([]MembershipChange, 0)
	for _, user := range current {
		members[user.ID] = struct{}{}
		if _, ok := wanted[user.ID]; !ok {
			changes = append(changes, MembershipChange{UserID: user.ID.Hex(), Action: MembershipRemove})
		}
	}

	seen := make(map[bson.ObjectID]struct{}, len(desired))
	for _, id := range desired {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := members[id]; !ok {
			changes = append(changes, MembershipChange{UserID: id.Hex(), Action: MembershipAdd})
		}
	}

	return changes
}
