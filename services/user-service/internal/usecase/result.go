package usecase

import "github.com/vasapolrittideah/platform-api/services/user-service/internal/model"

// OperationResult is the outcome of an operation that can soft fail.
type OperationResult struct {
	Status    bool   `json:"status"`
	Message   string `json:"message"`
	Operation string `json:"operation,omitempty"`
	Token     string `json:"token,omitempty"`
}

type DeleteResult struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// UserPage is one page of a user search.
type UserPage struct {
	Users      []*model.User `json:"users"`
	TotalItems int64         `json:"totalItems"`
	Page       int64         `json:"page"`
}

type AvatarResult struct {
	Filename string `json:"filename"`
	Mimetype string `json:"mimetype"`
	Encoding string `json:"encoding"`
	URL      string `json:"url"`
}

// SyncResult lists the membership changes a synchronization applied.
type SyncResult struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}
