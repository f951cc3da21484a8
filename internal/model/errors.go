package model

import "errors"

var (
	// Session related errors
	ErrNoRefreshToken = errors.New("no refresh token available")
	ErrUnauthorized   = errors.New("unauthorized")

	// Storage related errors
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrItemNotFound       = errors.New("storage item not found")
	ErrSealedStorage      = errors.New("storage file is sealed with a different secret")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)
