package store

import "errors"

var (
	ErrDuplicateAccount   = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoSession          = errors.New("not signed in")
	ErrNotOwner           = errors.New("post belongs to another account")
	ErrPostNotFound       = errors.New("post not found")
	ErrTooManyHashtags    = errors.New("too many hashtags")
	ErrInvalidVisibility  = errors.New("invalid visibility")
)
