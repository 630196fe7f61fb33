package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrAlreadyRequested   = errors.New("friend request already sent")
	ErrAlreadyFriends     = errors.New("already friends")
	ErrSelfFriendship     = errors.New("cannot send a friend request to yourself")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrCatalogUnavailable = errors.New("catalog provider unavailable")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func requireUser(userID string) error {
	if userID == "" {
		return ErrNotAuthenticated
	}
	return nil
}
