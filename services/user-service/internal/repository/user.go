package repository

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/platform-api/services/user-service/internal/model"
)

// UserRepository defines the interface for user-related database operations.
// Lookups exclude soft-deleted users unless stated otherwise.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUser(ctx context.Context, id string, opts GetUserOptions) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	UpdateUser(ctx context.Context, id string, params UpdateUserParams) (*model.User, error)
	SoftDeleteUser(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context, params FilterUsersParams) ([]*model.User, error)
	PaginateUsers(ctx context.Context, params PaginateUsersParams) ([]*model.User, int64, error)
	ListUsersByGroup(ctx context.Context, groupID string, opts GetUserOptions) ([]*model.User, error)
	// AddUserToGroup reports whether the membership was added by this call.
	AddUserToGroup(ctx context.Context, userID, groupID string) (bool, error)
	// RemoveUserFromGroup reports whether the membership was removed by this call.
	RemoveUserFromGroup(ctx context.Context, userID, groupID string) (bool, error)
}

// GetUserOptions tunes a direct id lookup or a group member listing.
type GetUserOptions struct {
	IncludeDeleted bool
}

// UpdateUserParams defines the optional parameters for updating a user.
// Only the fields that are not nil will be updated.
type UpdateUserParams struct {
	Username  *string
	Email     *string
	Name      *string
	Phone     *string
	Active    *bool
	Role      *bson.ObjectID
	Groups    *[]bson.ObjectID
	Password  *string
	Avatar    *string
	AvatarURL *string
}

// FilterUsersParams defines the parameters for listing users.
type FilterUsersParams struct {
	Roles          []bson.ObjectID
	IncludeDeleted bool
}

// PaginateUsersParams defines the parameters for searching and paginating users.
type PaginateUsersParams struct {
	Limit     int64
	Page      int64
	Search    string
	OrderBy   string
	OrderDesc bool
	Roles     []bson.ObjectID
}

const (
	userCollection   = "users"
	defaultPageLimit = 10
)

// sortableUserFields maps client facing field names to document fields.
var sortableUserFields = map[string]string{
	"username":  "username",
	"name":      "name",
	"email":     "email",
	"phone":     "phone",
	"active":    "active",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

type userMongoRepository struct {
	db     *mongo.Database
	logger *zerolog.Logger
}

func NewUserMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) UserRepository {
	collection := db.Collection(userCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "groups", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "deleted", Value: 1}, {Key: "role", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create user indexes")
	}

	return &userMongoRepository{db: db, logger: logger}
}

func (r *userMongoRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Groups == nil {
		user.Groups = []bson.ObjectID{}
	}

	result, err := r.db.Collection(userCollection).InsertOne(ctx, user)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		user.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return user, nil
}

func (r *userMongoRepository) GetUser(ctx context.Context, id string, opts GetUserOptions) (*model.User, error) {
	objectID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	filter := activeUserFilter(opts.IncludeDeleted)
	filter["_id"] = objectID

	return r.findOne(ctx, filter)
}

func (r *userMongoRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	filter := activeUserFilter(false)
	filter["email"] = email

	return r.findOne(ctx, filter)
}

func (r *userMongoRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	filter := activeUserFilter(false)
	filter["username"] = username

	return r.findOne(ctx, filter)
}

func (r *userMongoRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	result := r.db.Collection(userCollection).FindOne(ctx, filter)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userMongoRepository) UpdateUser(
	ctx context.Context,
	id string,
	params UpdateUserParams,
) (*model.User, error) {
	objectID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	updateMap := buildUserUpdate(params)
	if len(updateMap) == 0 {
		return nil, errors.New("no user fields to update")
	}

	updateMap["updated_at"] = time.Now()

	filter := activeUserFilter(false)
	filter["_id"] = objectID

	return r.findOneAndUpdate(ctx, filter, bson.M{"$set": updateMap})
}

func (r *userMongoRepository) SoftDeleteUser(ctx context.Context, id string) (*model.User, error) {
	objectID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	filter := activeUserFilter(false)
	filter["_id"] = objectID

	return r.findOneAndUpdate(ctx, filter, bson.M{"$set": bson.M{
		"deleted":    true,
		"deleted_at": now,
		"updated_at": now,
	}})
}

func (r *userMongoRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*model.User, error) {
	result := r.db.Collection(userCollection).FindOneAndUpdate(
		ctx,
		filter,
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userMongoRepository) ListUsers(ctx context.Context, params FilterUsersParams) ([]*model.User, error) {
	filter := activeUserFilter(params.IncludeDeleted)
	if len(params.Roles) > 0 {
		filter["role"] = bson.M{"$in": params.Roles}
	}

	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
}

func (r *userMongoRepository) PaginateUsers(
	ctx context.Context,
	params PaginateUsersParams,
) ([]*model.User, int64, error) {
	filter := buildPaginateFilter(params)
	limit, skip := pageWindow(params.Limit, params.Page)

	findOptions := options.Find().
		SetLimit(limit).
		SetSkip(skip).
		SetSort(buildUserSort(params.OrderBy, params.OrderDesc))

	total, err := r.db.Collection(userCollection).CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	users, err := r.find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userMongoRepository) ListUsersByGroup(
	ctx context.Context,
	groupID string,
	opts GetUserOptions,
) ([]*model.User, error) {
	objectID, err := parseObjectID(groupID)
	if err != nil {
		return nil, err
	}

	filter := activeUserFilter(opts.IncludeDeleted)
	filter["groups"] = objectID

	return r.find(ctx, filter, options.Find())
}

func (r *userMongoRepository) AddUserToGroup(ctx context.Context, userID, groupID string) (bool, error) {
	return r.updateMembership(ctx, userID, groupID, "$addToSet")
}

func (r *userMongoRepository) RemoveUserFromGroup(ctx context.Context, userID, groupID string) (bool, error) {
	return r.updateMembership(ctx, userID, groupID, "$pull")
}

func (r *userMongoRepository) updateMembership(ctx context.Context, userID, groupID, operator string) (bool, error) {
	userObjectID, err := parseObjectID(userID)
	if err != nil {
		return false, err
	}
	groupObjectID, err := parseObjectID(groupID)
	if err != nil {
		return false, err
	}

	result, err := r.db.Collection(userCollection).UpdateOne(
		ctx,
		bson.M{"_id": userObjectID},
		bson.M{
			operator: bson.M{"groups": groupObjectID},
			"$set":   bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return false, err
	}

	if result.MatchedCount == 0 {
		return false, mongo.ErrNoDocuments
	}

	return result.ModifiedCount > 0, nil
}

func (r *userMongoRepository) find(
	ctx context.Context,
	filter bson.M,
	findOptions *options.FindOptionsBuilder,
) ([]*model.User, error) {
	cursor, err := r.db.Collection(userCollection).Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := make([]*model.User, 0)
	for cursor.Next(ctx) {
		var user model.User
		if err := cursor.Decode(&user); err != nil {
			return nil, err
		}
		users = append(users, &user)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

// activeUserFilter is the base filter of every user query. Soft-deleted users
// are only matched when includeDeleted is set.
func activeUserFilter(includeDeleted bool) bson.M {
	if includeDeleted {
		return bson.M{}
	}

	return bson.M{"deleted": bson.M{"$ne": true}}
}

func buildPaginateFilter(params PaginateUsersParams) bson.M {
	filter := activeUserFilter(false)

	if params.Search != "" {
		pattern := bson.Regex{Pattern: regexp.QuoteMeta(params.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"username": pattern},
			bson.M{"email": pattern},
			bson.M{"phone": pattern},
		}
	}

	if len(params.Roles) > 0 {
		filter["role"] = bson.M{"$in": params.Roles}
	}

	return filter
}

func buildUserSort(orderBy string, orderDesc bool) bson.D {
	field, ok := sortableUserFields[orderBy]
	if !ok {
		return bson.D{{Key: "_id", Value: 1}}
	}

	sortOrder := 1
	if orderDesc {
		sortOrder = -1
	}

	return bson.D{{Key: field, Value: sortOrder}, {Key: "_id", Value: 1}}
}

func pageWindow(limit, page int64) (int64, int64) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if page <= 0 {
		page = 1
	}

	return limit, (page - 1) * limit
}

func buildUserUpdate(params UpdateUserParams) bson.M {
	updateMap := bson.M{}
	if params.Username != nil {
		updateMap["username"] = *params.Username
	}
	if params.Email != nil {
		updateMap["email"] = *params.Email
	}
	if params.Name != nil {
		updateMap["name"] = *params.Name
	}
	if params.Phone != nil {
		updateMap["phone"] = *params.Phone
	}
	if params.Active != nil {
		updateMap["active"] = *params.Active
	}
	if params.Role != nil {
		updateMap["role"] = *params.Role
	}
	if params.Groups != nil {
		updateMap["groups"] = *params.Groups
	}
	if params.Password != nil {
		updateMap["password"] = *params.Password
	}
	if params.Avatar != nil {
		updateMap["avatar"] = *params.Avatar
	}
	if params.AvatarURL != nil {
		updateMap["avatar_url"] = *params.AvatarURL
	}

	return updateMap
}
