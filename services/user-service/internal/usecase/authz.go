package usecase

import (
	"context"

	"github.com/vasapolrittideah/platform-api/services/user-service/internal/repository"
)

// authorizer decides what an authenticated caller may do. An empty actor id
// is an in-process call with no HTTP caller behind it and is always allowed.
type authorizer struct {
	userRepo    repository.UserRepository
	adminRoleID string
}

func newAuthorizer(userRepo repository.UserRepository, adminRoleID string) *authorizer {
	return &authorizer{userRepo: userRepo, adminRoleID: adminRoleID}
}

// isAdmin reports whether actorID holds the administrator role. Unknown,
// deleted and inactive callers are rejected with ErrForbidden.
func (a *authorizer) isAdmin(ctx context.Context, actorID string) (bool, error) {
	if actorID == "" {
		return true, nil
	}

	actor, err := a.userRepo.GetUser(ctx, actorID, repository.GetUserOptions{})
	if err != nil {
		if isNotFound(err) {
			return false, ErrForbidden
		}
		return false, &PersistenceError{Op: "find caller", Err: err}
	}
	if !actor.Active {
		return false, ErrForbidden
	}

	return a.adminRoleID != "" && actor.Role != nil && actor.Role.Hex() == a.adminRoleID, nil
}

func (a *authorizer) requireAdmin(ctx context.Context, actorID string) error {
	admin, err := a.isAdmin(ctx, actorID)
	if err != nil {
		return err
	}
	if !admin {
		return ErrForbidden
	}

	return nil
}

// requireSelfOrAdmin lets a caller act on its own account and administrators
// act on any account.
func (a *authorizer) requireSelfOrAdmin(ctx context.Context, actorID, subjectID string) error {
	admin, err := a.isAdmin(ctx, actorID)
	if err != nil {
		return err
	}
	if !admin && actorID != subjectID {
		return ErrForbidden
	}

	return nil
}
