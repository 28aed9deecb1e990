package usecase

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/platform-api/services/user-service/internal/repository"
	"github.com/vasapolrittideah/platform-api/shared/auth"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrUserNotFound       = errors.New("user not found")
	ErrGroupNotFound      = errors.New("group not found")
	ErrWrongCredential    = errors.New("wrong credential")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user is inactive")
	ErrForbidden          = errors.New("operation not permitted for the caller")
	ErrRecoveryDelivery   = errors.New("failed to deliver recovery email")

	ErrInvalidToken = auth.ErrInvalidToken
	ErrTokenExpired = auth.ErrTokenExpired

	ErrTokenNotFound    = fmt.Errorf("%w: recovery token not found", ErrInvalidToken)
	ErrTokenAlreadyUsed = fmt.Errorf("%w: recovery token has already been used", ErrInvalidToken)
)

// Message keys returned to clients.
const (
	MessageOperationSuccess = "common.operation.success"
	MessageOperationFail    = "common.operation.fail"
	MessageUserNotFound     = "user.notFound"
	MessageWrongPassword    = "auth.wrongPassword"
	MessageUnique           = "validation.unique"
)

// ValidationError carries one message per offending input field.
type ValidationError struct {
	Fields map[string]string
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	return fmt.Sprintf("validation failed: %s", strings.Join(fields, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// WrongCredentialError reports a credential that did not verify.
type WrongCredentialError struct {
	Field   string
	Message string
}

func (e *WrongCredentialError) Error() string {
	return fmt.Sprintf("wrong credential for %s", e.Field)
}

func (e *WrongCredentialError) Is(target error) bool {
	return target == ErrWrongCredential
}

// PersistenceError wraps a storage failure with the operation that hit it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// MembershipChange is one user entering or leaving a group.
type MembershipChange struct {
	UserID string `json:"userId"`
	Action string `json:"action"`
}

const (
	MembershipAdd    = "add"
	MembershipRemove = "remove"
)

// PartialSyncError reports a membership synchronization that stopped midway.
// Applied changes are persisted, Pending ones were never attempted.
type PartialSyncError struct {
	Applied []MembershipChange
	Pending []MembershipChange
	Err     error
}

func (e *PartialSyncError) Error() string {
	return fmt.Sprintf(
		"group sync stopped after %d of %d changes: %v",
		len(e.Applied), len(e.Applied)+len(e.Pending), e.Err,
	)
}

func (e *PartialSyncError) Unwrap() error {
	return e.Err
}

func isNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments) || errors.Is(err, repository.ErrInvalidID)
}

// userLookupError maps a repository error of a user lookup.
func userLookupError(op string, err error) error {
	if isNotFound(err) {
		return ErrUserNotFound
	}

	return &PersistenceError{Op: op, Err: err}
}

// duplicateKeyError turns a unique index violation into a field error.
func duplicateKeyError(err error, fields ...string) error {
	if !mongo.IsDuplicateKeyError(err) {
		return nil
	}

	msg := err.Error()
	for _, field := range fields {
		if strings.Contains(msg, field) {
			return newValidationError(field, MessageUnique)
		}
	}

	return newValidationError(fields[0], MessageUnique)
}
