package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/platform-api/services/user-service/internal/audit"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/config"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/model"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/repository"
	"github.com/vasapolrittideah/platform-api/shared/security"
	"github.com/vasapolrittideah/platform-api/shared/validation"
)

// UserUsecase defines the account management use cases. Creating, deleting
// and reading the audit trail require an administrator; callers may update
// their own profile but only administrators change role, active or groups.
type UserUsecase interface {
	CreateUser(ctx context.Context, params CreateUserParams, actorID string) (*model.User, error)
	UpdateUser(ctx context.Context, id string, params UpdateUserParams, actorID string) (*model.User, error)
	DeleteUser(ctx context.Context, id, actorID string) (*DeleteResult, error)
	FindUser(ctx context.Context, id string, opts FindUserOptions) (*model.User, error)
	FindUserByUsername(ctx context.Context, username string) (*model.User, error)
	FindUsers(ctx context.Context, roles []string) ([]*model.User, error)
	PaginateUsers(ctx context.Context, params PaginateUsersParams) (*UserPage, error)
	FindUserAudit(ctx context.Context, id string, limit int64, actorID string) ([]*model.AuditRecord, error)
}

// CreateUserParams defines the parameters for creating a user.
type CreateUserParams struct {
	Username string   `json:"username" validate:"required,min=3,max=64,username"`
	Email    string   `json:"email"    validate:"required,email"`
	Password string   `json:"password" validate:"required"`
	Name     string   `json:"name"     validate:"required"`
	Phone    string   `json:"phone"    validate:"omitempty,max=32"`
	Active   *bool    `json:"active"`
	Role     string   `json:"role"     validate:"omitempty,mongodb"`
	Groups   []string `json:"groups"   validate:"omitempty,dive,mongodb"`
}

// UpdateUserParams defines the optional parameters for updating a user.
// Only the fields that are not nil will be updated.
type UpdateUserParams struct {
	Username *string  `json:"username" validate:"omitempty,min=3,max=64,username"`
	Email    *string  `json:"email"    validate:"omitempty,email"`
	Name     *string  `json:"name"     validate:"omitempty,min=1"`
	Phone    *string  `json:"phone"    validate:"omitempty,max=32"`
	Active   *bool    `json:"active"`
	Role     *string  `json:"role"     validate:"omitempty,mongodb"`
	Groups   []string `json:"groups"   validate:"omitempty,dive,mongodb"`
}

type FindUserOptions struct {
	IncludeDeleted bool
}

// PaginateUsersParams defines the parameters for searching users page by page.
type PaginateUsersParams struct {
	Limit     int64
	Page      int64
	Search    string
	OrderBy   string
	OrderDesc bool
	Roles     []string
}

type userUsecase struct {
	userRepo  repository.UserRepository
	auditRepo repository.AuditRepository
	authz     *authorizer
	recorder  audit.Recorder
	validator *validation.Validator
	logger    *zerolog.Logger
}

func NewUserUsecase(
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	recorder audit.Recorder,
	validator *validation.Validator,
	userServiceCfg *config.UserServiceConfig,
	logger *zerolog.Logger,
) UserUsecase {
	return &userUsecase{
		userRepo:  userRepo,
		auditRepo: auditRepo,
		authz:     newAuthorizer(userRepo, userServiceCfg.AdminRoleID),
		recorder:  recorder,
		validator: validator,
		logger:    logger,
	}
}

func (u *userUsecase) CreateUser(ctx context.Context, params CreateUserParams, actorID string) (*model.User, error) {
	if err := u.authz.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}

	if err := validateStruct(u.validator, params); err != nil {
		return nil, err
	}

	user := &model.User{
		Username: params.Username,
		Email:    params.Email,
		Name:     params.Name,
		Phone:    params.Phone,
		Active:   true,
	}
	if params.Active != nil {
		user.Active = *params.Active
	}
	if params.Role != "" {
		role, _ := bson.ObjectIDFromHex(params.Role)
		user.Role = &role
	}
	groups, err := parseIDs("groups", params.Groups)
	if err != nil {
		return nil, err
	}
	user.Groups = groups

	created, err := insertUser(ctx, u.userRepo, user, params.Password)
	if err != nil {
		return nil, err
	}

	u.recorder.Record(ctx, actorObjectID(actorID), created.ID, model.AuditUserCreated)

	return created, nil
}

func (u *userUsecase) UpdateUser(
	ctx context.Context,
	id string,
	params UpdateUserParams,
	actorID string,
) (*model.User, error) {
	if params.Role != nil || params.Active != nil || params.Groups != nil {
		if err := u.authz.requireAdmin(ctx, actorID); err != nil {
			return nil, err
		}
	} else if err := u.authz.requireSelfOrAdmin(ctx, actorID, id); err != nil {
		return nil, err
	}

	if err := validateStruct(u.validator, params); err != nil {
		return nil, err
	}

	updateParams := repository.UpdateUserParams{
		Username: params.Username,
		Email:    params.Email,
		Name:     params.Name,
		Phone:    params.Phone,
		Active:   params.Active,
	}
	if params.Role != nil {
		role, _ := bson.ObjectIDFromHex(*params.Role)
		updateParams.Role = &role
	}
	if params.Groups != nil {
		groups, err := parseIDs("groups", params.Groups)
		if err != nil {
			return nil, err
		}
		updateParams.Groups = &groups
	}

	if updateParams == (repository.UpdateUserParams{}) {
		return u.FindUser(ctx, id, FindUserOptions{})
	}

	user, err := u.userRepo.UpdateUser(ctx, id, updateParams)
	if err != nil {
		if dupErr := duplicateKeyError(err, "username", "email"); dupErr != nil {
			return nil, dupErr
		}
		return nil, userLookupError("update user", err)
	}

	u.recorder.Record(ctx, actorObjectID(actorID), user.ID, model.AuditUserModified)

	return user, nil
}

func (u *userUsecase) DeleteUser(ctx context.Context, id, actorID string) (*DeleteResult, error) {
	if err := u.authz.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}

	user, err := u.userRepo.SoftDeleteUser(ctx, id)
	if err != nil {
		return nil, userLookupError("delete user", err)
	}

	u.recorder.Record(ctx, actorObjectID(actorID), user.ID, model.AuditUserDeleted)

	return &DeleteResult{Success: true, ID: user.ID.Hex()}, nil
}

func (u *userUsecase) FindUser(ctx context.Context, id string, opts FindUserOptions) (*model.User, error) {
	user, err := u.userRepo.GetUser(ctx, id, repository.GetUserOptions{IncludeDeleted: opts.IncludeDeleted})
	if err != nil {
		return nil, userLookupError("find user", err)
	}

	return user, nil
}

func (u *userUsecase) FindUserByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := u.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, userLookupError("find user", err)
	}

	return user, nil
}

func (u *userUsecase) FindUsers(ctx context.Context, roles []string) ([]*model.User, error) {
	roleIDs, err := parseIDs("roles", roles)
	if err != nil {
		return nil, err
	}

	users, err := u.userRepo.ListUsers(ctx, repository.FilterUsersParams{Roles: roleIDs})
	if err != nil {
		return nil, &PersistenceError{Op: "list users", Err: err}
	}

	return users, nil
}

func (u *userUsecase) PaginateUsers(ctx context.Context, params PaginateUsersParams) (*UserPage, error) {
	roleIDs, err := parseIDs("roles", params.Roles)
	if err != nil {
		return nil, err
	}

	page := params.Page
	if page <= 0 {
		page = 1
	}

	users, total, err := u.userRepo.PaginateUsers(ctx, repository.PaginateUsersParams{
		Limit:     params.Limit,
		Page:      page,
		Search:    params.Search,
		OrderBy:   params.OrderBy,
		OrderDesc: params.OrderDesc,
		Roles:     roleIDs,
	})
	if err != nil {
		return nil, &PersistenceError{Op: "paginate users", Err: err}
	}

	return &UserPage{Users: users, TotalItems: total, Page: page}, nil
}

func (u *userUsecase) FindUserAudit(
	ctx context.Context,
	id string,
	limit int64,
	actorID string,
) ([]*model.AuditRecord, error) {
	if err := u.authz.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}

	if _, err := u.FindUser(ctx, id, FindUserOptions{IncludeDeleted: true}); err != nil {
		return nil, err
	}

	records, err := u.auditRepo.ListRecordsBySubject(ctx, id, limit)
	if err != nil {
		return nil, &PersistenceError{Op: "list audit records", Err: err}
	}

	return records, nil
}

// insertUser hashes password and stores user. Unique index violations are
// reported as field errors.
func insertUser(
	ctx context.Context,
	userRepo repository.UserRepository,
	user *model.User,
	password string,
) (*model.User, error) {
	passwordHash, err := security.HashPassword(password)
	if err != nil {
		if errors.Is(err, security.ErrEmptyPassword) {
			return nil, newValidationError("password", "password is a required field")
		}
		return nil, err
	}
	user.Password = passwordHash

	created, err := userRepo.CreateUser(ctx, user)
	if err != nil {
		if dupErr := duplicateKeyError(err, "username", "email"); dupErr != nil {
			return nil, dupErr
		}
		return nil, &PersistenceError{Op: "create user", Err: err}
	}

	return created, nil
}

func validateStruct(v *validation.Validator, s any) error {
	fields, err := v.Struct(s)
	if err != nil {
		return err
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	return nil
}

func parseIDs(field string, ids []string) ([]bson.ObjectID, error) {
	objectIDs := make([]bson.ObjectID, 0, len(ids))
	for _, id := range ids {
		objectID, err := bson.ObjectIDFromHex(id)
		if err != nil {
			return nil, newValidationError(field, field+" must contain valid ids")
		}
		objectIDs = append(objectIDs, objectID)
	}

	return objectIDs, nil
}
