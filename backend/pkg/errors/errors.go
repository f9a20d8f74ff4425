package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeNotFound represents a referenced User or Post that does not exist
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeNoSuchRequest represents an accept/decline with no pending friend request
	ErrorTypeNoSuchRequest ErrorType = "no_such_request"
	// ErrorTypeDuplicateEntity represents registration of an already-taken user name
	ErrorTypeDuplicateEntity ErrorType = "duplicate_entity"
	// ErrorTypeInvalidPredicate represents an attribute key outside the allow-list
	ErrorTypeInvalidPredicate ErrorType = "invalid_predicate"
	// ErrorTypeStoreUnavailable represents an unreachable store or an aborted transaction
	ErrorTypeStoreUnavailable ErrorType = "store_unavailable"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// ErrUserNotFound is returned when a user cannot be found by name
type ErrUserNotFound struct {
	*BaseError
	Name string
}

func NewUserNotFound(name string) *ErrUserNotFound {
	return &ErrUserNotFound{
		BaseError: NewBaseError(ErrorTypeNotFound, fmt.Sprintf("user not found: %s", name), nil),
		Name:      name,
	}
}

// ErrPostNotFound is returned when a post cannot be found by its store identifier
type ErrPostNotFound struct {
	*BaseError
	PostID string
}

func NewPostNotFound(postID string) *ErrPostNotFound {
	return &ErrPostNotFound{
		BaseError: NewBaseError(ErrorTypeNotFound, fmt.Sprintf("post not found: %s", postID), nil),
		PostID:    postID,
	}
}

// ErrNoSuchRequest is returned when no pending friend request exists for the pair
type ErrNoSuchRequest struct {
	*BaseError
	From string
	To   string
}

func NewNoSuchRequest(from, to string) *ErrNoSuchRequest {
	return &ErrNoSuchRequest{
		BaseError: NewBaseError(ErrorTypeNoSuchRequest, fmt.Sprintf("no pending friend request from %s to %s", from, to), nil),
		From:      from,
		To:        to,
	}
}

// ErrDuplicateUser is returned when registering a name that already exists
type ErrDuplicateUser struct {
	*BaseError
	Name string
}

func NewDuplicateUser(name string) *ErrDuplicateUser {
	return &ErrDuplicateUser{
		BaseError: NewBaseError(ErrorTypeDuplicateEntity, fmt.Sprintf("user already exists: %s", name), nil),
		Name:      name,
	}
}

// ErrInvalidPredicate is returned when an attribute key is outside the allow-list
type ErrInvalidPredicate struct {
	*BaseError
	Key string
}

func NewInvalidPredicate(key, reason string) *ErrInvalidPredicate {
	return &ErrInvalidPredicate{
		BaseError: NewBaseError(ErrorTypeInvalidPredicate, fmt.Sprintf("invalid predicate %q: %s", key, reason), nil),
		Key:       key,
	}
}

// ErrStoreUnavailable is returned when the graph store is unreachable or a transaction aborts
type ErrStoreUnavailable struct {
	*BaseError
	Operation string
}

func NewStoreUnavailable(operation string, err error) *ErrStoreUnavailable {
	return &ErrStoreUnavailable{
		BaseError: NewBaseError(ErrorTypeStoreUnavailable, fmt.Sprintf("store operation failed: %s", operation), err),
		Operation: operation,
	}
}

// Helper functions

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if baseErr, ok := err.(*BaseError); ok {
			return baseErr.Type == errType
		}
		if typed, ok := err.(interface{ base() *BaseError }); ok {
			return typed.base().Type == errType
		}
		err = errors.Unwrap(err)
	}
	return false
}

func (e *BaseError) base() *BaseError { return e }

// IsRetryable checks if an error is worth retrying by the caller.
// The core never retries on its own.
func IsRetryable(err error) bool {
	return IsErrorType(err, ErrorTypeStoreUnavailable)
}
