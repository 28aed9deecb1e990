package handler

import (
	"context"
	"io"

	"github.com/vasapolrittideah/platform-api/services/user-service/internal/model"
	"github.com/vasapolrittideah/platform-api/services/user-service/internal/usecase"
	usertypes "github.com/vasapolrittideah/platform-api/services/user-service/pkg/types"
	"github.com/vasapolrittideah/platform-api/shared/utilities"
)

type stubAuthUsecase struct {
	login    func(usecase.LoginParams, utilities.ClientInfo) (*usertypes.Tokens, error)
	register func(usecase.RegisterParams) (*usertypes.Tokens, error)
}

func (s *stubAuthUsecase) Login(
	_ context.Context,
	params usecase.LoginParams,
	client utilities.ClientInfo,
) (*usertypes.Tokens, error) {
	return s.login(params, client)
}

func (s *stubAuthUsecase) Register(
	_ context.Context,
	params usecase.RegisterParams,
	_ utilities.ClientInfo,
) (*usertypes.Tokens, error) {
	return s.register(params)
}

type stubUserUsecase struct {
	usecase.UserUsecase

	findUser      func(id string, opts usecase.FindUserOptions) (*model.User, error)
	findUsers     func(roles []string) ([]*model.User, error)
	paginateUsers func(params usecase.PaginateUsersParams) (*usecase.UserPage, error)
	createUser    func(params usecase.CreateUserParams, actorID string) (*model.User, error)
	deleteUser    func(id, actorID string) (*usecase.DeleteResult, error)
}

func (s *stubUserUsecase) FindUser(_ context.Context, id string, opts usecase.FindUserOptions) (*model.User, error) {
	return s.findUser(id, opts)
}

func (s *stubUserUsecase) FindUsers(_ context.Context, roles []string) ([]*model.User, error) {
	return s.findUsers(roles)
}

func (s *stubUserUsecase) PaginateUsers(
	_ context.Context,
	params usecase.PaginateUsersParams,
) (*usecase.UserPage, error) {
	return s.paginateUsers(params)
}

func (s *stubUserUsecase) CreateUser(
	_ context.Context,
	params usecase.CreateUserParams,
	actorID string,
) (*model.User, error) {
	return s.createUser(params, actorID)
}

func (s *stubUserUsecase) DeleteUser(_ context.Context, id, actorID string) (*usecase.DeleteResult, error) {
	return s.deleteUser(id, actorID)
}

type stubRecoveryUsecase struct {
	request  func(address string) (*usecase.OperationResult, error)
	validate func(token string) error
	consume  func(token, newPassword string) (*usecase.OperationResult, error)
}

func (s *stubRecoveryUsecase) RequestRecovery(_ context.Context, address string) (*usecase.OperationResult, error) {
	return s.request(address)
}

func (s *stubRecoveryUsecase) ValidateRecoveryToken(_ context.Context, token string) error {
	return s.validate(token)
}

func (s *stubRecoveryUsecase) ConsumeRecovery(
	_ context.Context,
	token, newPassword string,
	_ utilities.ClientInfo,
) (*usecase.OperationResult, error) {
	return s.consume(token, newPassword)
}

type stubPasswordUsecase struct {
	adminChange func(id, password, confirmation, actorID string) (*usecase.OperationResult, error)
	change      func(id, current, next, actorID string) (*usecase.OperationResult, error)
}

func (s *stubPasswordUsecase) AdminChangePassword(
	_ context.Context,
	id, password, confirmation, actorID string,
) (*usecase.OperationResult, error) {
	return s.adminChange(id, password, confirmation, actorID)
}

func (s *stubPasswordUsecase) ChangePassword(
	_ context.Context,
	id, current, next, actorID string,
) (*usecase.OperationResult, error) {
	return s.change(id, current, next, actorID)
}

type stubGroupUsecase struct {
	usecase.GroupUsecase

	setMembers func(groupID string, userIDs []string, actorID string) (*usecase.SyncResult, error)
}

func (s *stubGroupUsecase) SetGroupMembers(
	_ context.Context,
	groupID string,
	userIDs []string,
	actorID string,
) (*usecase.SyncResult, error) {
	return s.setMembers(groupID, userIDs, actorID)
}

type stubAvatarUsecase struct {
	userID  string
	file    usecase.AvatarFile
	content string
	err     error
}

func (s *stubAvatarUsecase) UploadAvatar(
	_ context.Context,
	userID string,
	file usecase.AvatarFile,
) (*usecase.AvatarResult, error) {
	data, err := io.ReadAll(file.Content)
	if err != nil {
		return nil, err
	}
	s.userID, s.file, s.content = userID, file, string(data)
	if s.err != nil {
		return nil, s.err
	}

	return &usecase.AvatarResult{
		Filename: file.Filename,
		Mimetype: file.Mimetype,
		Encoding: file.Encoding,
		URL:      "http://localhost:5000/media/avatar/" + file.Filename,
	}, nil
}
