package services

import "errors"

// Error kinds. Every error a service returns on purpose wraps exactly one of these,
// so the HTTP layer can pick a status with errors.Is.
var (
	ErrInvalidOperation = errors.New("invalid operation")
	ErrConflict         = errors.New("conflict")
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrUnauthorized     = errors.New("unauthorized")
)

// Error is a domain error with a message that is safe to show to clients.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	ErrSelfFriendRequest    = newError(ErrInvalidOperation, "You can't send friend request to yourself")
	ErrRecipientNotFound    = newError(ErrNotFound, "Recipient not found")
	ErrAlreadyFriends       = newError(ErrConflict, "You are already friends with this user")
	ErrRequestExists        = newError(ErrConflict, "A friend request already exists between you and this user")
	ErrRequestNotFound      = newError(ErrNotFound, "Friend request not found")
	ErrNotRequestRecipient  = newError(ErrForbidden, "You are not authorized to accept this request")
	ErrRequestNotPending    = newError(ErrConflict, "Friend request already accepted")
	ErrUserNotFound         = newError(ErrNotFound, "User not found")
	ErrEmailTaken           = newError(ErrConflict, "Email already exists, please use a different one")
	ErrInvalidCredentials   = newError(ErrUnauthorized, "Invalid email or password")
	ErrNotificationNotFound = newError(ErrNotFound, "Notification not found")
)
