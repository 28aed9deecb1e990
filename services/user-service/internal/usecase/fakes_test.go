package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/platform-api/services/user-service/internal/config"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/model"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/repository"
	"github.com/vasapolrittideah/platform-api/shared/security"
	"github.com/vasapolrittideah/platform-api/shared/validation"
)

var errBoom = errors.New("boom")

var testAdminRole = bson.NewObjectID()

type fakeUserRepo struct {
	mu    sync.Mutex
	users []*model.User

	createErr error
	updateErr error
	// membershipFailAt makes the n-th membership update (1-based) fail.
	membershipFailAt int
	membershipCalls  int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{}
}

func cloneUser(u *model.User) *model.User {
	c := *u
	c.Groups = append([]bson.ObjectID(nil), u.Groups...)
	return &c
}

func (r *fakeUserRepo) seed(u *model.User) *model.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = bson.NewObjectID()
	}
	if u.Groups == nil {
		u.Groups = []bson.ObjectID{}
	}
	r.users = append(r.users, u)
	return cloneUser(u)
}

func (r *fakeUserRepo) find(id string) *model.User {
	for _, u := range r.users {
		if u.ID.Hex() == id {
			return u
		}
	}
	return nil
}

func (r *fakeUserRepo) get(id bson.ObjectID) *model.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u := r.find(id.Hex()); u != nil {
		return cloneUser(u)
	}
	return nil
}

func (r *fakeUserRepo) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.mu.Lock()
	for _, u := range r.users {
		if u.Username == user.Username {
			r.mu.Unlock()
			return nil, duplicateKeyException("username_1")
		}
		if u.Email == user.Email {
			r.mu.Unlock()
			return nil, duplicateKeyException("email_1")
		}
	}
	r.mu.Unlock()
	return r.seed(user), nil
}

func duplicateKeyException(index string) error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    11000,
		Message: "E11000 duplicate key error collection: platform.users index: " + index,
	}}}
}

func (r *fakeUserRepo) GetUser(_ context.Context, id string, opts repository.GetUserOptions) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.find(id)
	if u == nil || (u.Deleted && !opts.IncludeDeleted) {
		return nil, mongo.ErrNoDocuments
	}
	return cloneUser(u), nil
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	return r.findBy(func(u *model.User) bool { return u.Email == email })
}

func (r *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	return r.findBy(func(u *model.User) bool { return u.Username == username })
}

func (r *fakeUserRepo) findBy(match func(*model.User) bool) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if !u.Deleted && match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeUserRepo) UpdateUser(
	_ context.Context,
	id string,
	params repository.UpdateUserParams,
) (*model.User, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.find(id)
	if u == nil || u.Deleted {
		return nil, mongo.ErrNoDocuments
	}
	if params.Username != nil {
		u.Username = *params.Username
	}
	if params.Email != nil {
		u.Email = *params.Email
	}
	if params.Name != nil {
		u.Name = *params.Name
	}
	if params.Phone != nil {
		u.Phone = *params.Phone
	}
	if params.Active != nil {
		u.Active = *params.Active
	}
	if params.Role != nil {
		role := *params.Role
		u.Role = &role
	}
	if params.Groups != nil {
		u.Groups = append([]bson.ObjectID{}, *params.Groups...)
	}
	if params.Password != nil {
		u.Password = *params.Password
	}
	if params.Avatar != nil {
		u.Avatar = *params.Avatar
	}
	if params.AvatarURL != nil {
		u.AvatarURL = *params.AvatarURL
	}
	u.UpdatedAt = time.Now()
	return cloneUser(u), nil
}

func (r *fakeUserRepo) SoftDeleteUser(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.find(id)
	if u == nil || u.Deleted {
		return nil, mongo.ErrNoDocuments
	}
	now := time.Now()
	u.Deleted = true
	u.DeletedAt = &now
	return cloneUser(u), nil
}

func (r *fakeUserRepo) ListUsers(_ context.Context, params repository.FilterUsersParams) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]*model.User, 0)
	for _, u := range r.users {
		if u.Deleted && !params.IncludeDeleted {
			continue
		}
		if !hasRole(u, params.Roles) {
			continue
		}
		users = append(users, cloneUser(u))
	}
	return users, nil
}

func (r *fakeUserRepo) PaginateUsers(
	_ context.Context,
	params repository.PaginateUsersParams,
) ([]*model.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]*model.User, 0)
	search := strings.ToLower(params.Search)
	for _, u := range r.users {
		if u.Deleted || !hasRole(u, params.Roles) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Name), search) &&
			!strings.Contains(strings.ToLower(u.Username), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) &&
			!strings.Contains(strings.ToLower(u.Phone), search) {
			continue
		}
		matched = append(matched, cloneUser(u))
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 10
	}
	start := (params.Page - 1) * limit
	if start > int64(len(matched)) {
		start = int64(len(matched))
	}
	end := start + limit
	if end > int64(len(matched)) {
		end = int64(len(matched))
	}
	return matched[start:end], int64(len(matched)), nil
}

func hasRole(u *model.User, roles []bson.ObjectID) bool {
	if len(roles) == 0 {
		return true
	}
	for _, role := range roles {
		if u.Role != nil && *u.Role == role {
			return true
		}
	}
	return false
}

func (r *fakeUserRepo) ListUsersByGroup(
	_ context.Context,
	groupID string,
	opts repository.GetUserOptions,
) ([]*model.User, error) {
	gid, err := bson.ObjectIDFromHex(groupID)
	if err != nil {
		return nil, repository.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]*model.User, 0)
	for _, u := range r.users {
		if (!u.Deleted || opts.IncludeDeleted) && u.InGroup(gid) {
			users = append(users, cloneUser(u))
		}
	}
	return users, nil
}

func (r *fakeUserRepo) AddUserToGroup(_ context.Context, userID, groupID string) (bool, error) {
	return r.updateMembership(userID, groupID, true)
}

func (r *fakeUserRepo) RemoveUserFromGroup(_ context.Context, userID, groupID string) (bool, error) {
	return r.updateMembership(userID, groupID, false)
}

func (r *fakeUserRepo) updateMembership(userID, groupID string, add bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.membershipCalls++
	if r.membershipFailAt > 0 && r.membershipCalls == r.membershipFailAt {
		return false, errBoom
	}
	gid, _ := bson.ObjectIDFromHex(groupID)
	u := r.find(userID)
	if u == nil {
		return false, mongo.ErrNoDocuments
	}
	if add {
		if u.InGroup(gid) {
			return false, nil
		}
		u.Groups = append(u.Groups, gid)
		return true, nil
	}
	for i, g := range u.Groups {
		if g == gid {
			u.Groups = append(u.Groups[:i], u.Groups[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[bson.ObjectID]*model.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[bson.ObjectID]*model.Session{}}
}

func (r *fakeSessionRepo) CreateSession(_ context.Context, session *model.Session) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session.ID = bson.NewObjectID()
	c := *session
	r.sessions[session.ID] = &c
	return session, nil
}

func (r *fakeSessionRepo) GetSessionByUserID(_ context.Context, userID string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.UserID == userID {
			c := *s
			return &c, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeSessionRepo) UpdateTokens(
	_ context.Context,
	id string,
	params repository.UpdateTokensParams,
) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	oid, _ := bson.ObjectIDFromHex(id)
	s, ok := r.sessions[oid]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	s.AccessToken = params.AccessToken
	s.RefreshToken = params.RefreshToken
	s.AccessTokenExpiresAt = params.AccessTokenExpiresAt
	s.RefreshTokenExpiresAt = params.RefreshTokenExpiresAt
	c := *s
	return &c, nil
}

type fakeRecoveryTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*model.RecoveryToken
}

func newFakeRecoveryTokenRepo() *fakeRecoveryTokenRepo {
	return &fakeRecoveryTokenRepo{tokens: map[string]*model.RecoveryToken{}}
}

func (r *fakeRecoveryTokenRepo) CreateToken(_ context.Context, token *model.RecoveryToken) (*model.RecoveryToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token.ID = bson.NewObjectID()
	c := *token
	r.tokens[token.JTI] = &c
	return token, nil
}

func (r *fakeRecoveryTokenRepo) GetTokenByJTI(_ context.Context, jti string) (*model.RecoveryToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[jti]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	c := *t
	return &c, nil
}

func (r *fakeRecoveryTokenRepo) ClaimToken(_ context.Context, jti string, now time.Time) (*model.RecoveryToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[jti]
	if !ok || t.Used || !t.ExpiresAt.After(now) {
		return nil, mongo.ErrNoDocuments
	}
	t.Used = true
	c := *t
	return &c, nil
}

func (r *fakeRecoveryTokenRepo) InvalidateUserTokens(_ context.Context, userID bson.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.UserID == userID {
			t.Used = true
		}
	}
	return nil
}

type fakeGroupRepo struct {
	groups []*model.Group
}

func (r *fakeGroupRepo) CreateGroup(_ context.Context, group *model.Group) (*model.Group, error) {
	for _, g := range r.groups {
		if g.Name == group.Name {
			return nil, duplicateKeyException("name_1")
		}
	}
	group.ID = bson.NewObjectID()
	c := *group
	r.groups = append(r.groups, &c)
	return group, nil
}

func (r *fakeGroupRepo) GetGroup(_ context.Context, id string) (*model.Group, error) {
	for _, g := range r.groups {
		if g.ID.Hex() == id {
			c := *g
			return &c, nil
		}
	}
	if _, err := bson.ObjectIDFromHex(id); err != nil {
		return nil, repository.ErrInvalidID
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeGroupRepo) ListGroups(context.Context) ([]*model.Group, error) {
	return r.groups, nil
}

type fakeAuditRepo struct {
	records []*model.AuditRecord
}

func (r *fakeAuditRepo) CreateRecord(_ context.Context, record *model.AuditRecord) (*model.AuditRecord, error) {
	r.records = append(r.records, record)
	return record, nil
}

func (r *fakeAuditRepo) ListRecordsBySubject(_ context.Context, subjectID string, _ int64) ([]*model.AuditRecord, error) {
	records := make([]*model.AuditRecord, 0)
	for _, record := range r.records {
		if record.Subject.Hex() == subjectID {
			records = append(records, record)
		}
	}
	return records, nil
}

type recordedAudit struct {
	actor   *bson.ObjectID
	subject bson.ObjectID
	action  string
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []recordedAudit
}

func (r *fakeRecorder) Record(_ context.Context, actor *bson.ObjectID, subject bson.ObjectID, action string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, recordedAudit{actor: actor, subject: subject, action: action})
}

func (r *fakeRecorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	actions := make([]string, 0, len(r.records))
	for _, record := range r.records {
		actions = append(actions, record.action)
	}
	return actions
}

type fakeTxRunner struct {
	transactional bool
	calls         int
}

func (r *fakeTxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	r.calls++
	return fn(ctx)
}

func (r *fakeTxRunner) Transactional() bool {
	return r.transactional
}

type sentRecovery struct {
	address string
	link    string
}

type fakeRecoverySender struct {
	sent   []sentRecovery
	result bool
	err    error
}

func (s *fakeRecoverySender) SendRecoveryEmail(
	_ context.Context,
	address, link string,
	_ *model.User,
) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.sent = append(s.sent, sentRecovery{address: address, link: link})
	return s.result, nil
}

type fakeStorage struct {
	files     map[string][]byte
	saveErr   error
	removeErr error
	removed   []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{files: map[string][]byte{}}
}

func (s *fakeStorage) Save(_ context.Context, key, _ string, r io.Reader) (int64, error) {
	if s.saveErr != nil {
		return 0, s.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	s.files[key] = data
	return int64(len(data)), nil
}

func (s *fakeStorage) Remove(_ context.Context, key string) error {
	s.removed = append(s.removed, key)
	if s.removeErr != nil {
		return s.removeErr
	}
	delete(s.files, key)
	return nil
}

func testConfig() *config.UserServiceConfig {
	return &config.UserServiceConfig{
		AppWebURL:         "http://localhost:8080",
		AppAPIURL:         "http://localhost:5000",
		ServerName:        "platform",
		MinPasswordLength: 8,
		AdminRoleID:       testAdminRole.Hex(),
		Token: config.TokenConfig{
			Issuer:                 "platform-api",
			Audience:               "platform-api",
			AccessTokenSecret:      "access-secret",
			AccessTokenExpiresIn:   time.Hour,
			RefreshTokenSecret:     "refresh-secret",
			RefreshTokenExpiresIn:  24 * time.Hour,
			RecoveryTokenSecret:    "recovery-secret",
			RecoveryTokenExpiresIn: 24 * time.Hour,
		},
		Storage: config.StorageConfig{
			Backend:  config.StorageBackendLocal,
			BaseURL:  "http://localhost:5000/media/avatar",
			MaxBytes: 1024,
		},
	}
}

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func testValidator(t *testing.T) *validation.Validator {
	t.Helper()
	v, err := validation.New()
	require.NoError(t, err)
	return v
}

func seedUser(t *testing.T, repo *fakeUserRepo, username, password string) *model.User {
	t.Helper()
	hash, err := security.HashPassword(password)
	require.NoError(t, err)
	return repo.seed(&model.User{
		Username: username,
		Email:    username + "@example.com",
		Name:     strings.ToUpper(username[:1]) + username[1:],
		Password: hash,
		Active:   true,
	})
}

func seedAdmin(t *testing.T, repo *fakeUserRepo, username string) *model.User {
	t.Helper()
	user := seedUser(t, repo, username, "adminpass1")
	_, err := repo.UpdateUser(context.Background(), user.ID.Hex(), repositoryRole(testAdminRole))
	require.NoError(t, err)
	return repo.get(user.ID)
}

func strPtr(s string) *string {
	return &s
}

func repositoryRole(role bson.ObjectID) repository.UpdateUserParams {
	return repository.UpdateUserParams{Role: &role}
}

func repositoryActive(active bool) repository.UpdateUserParams {
	return repository.UpdateUserParams{Active: &active}
}
