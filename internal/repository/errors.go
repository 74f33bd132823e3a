package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrTokenConsumed indicates a single-use token was already redeemed.
	ErrTokenConsumed = errors.New("repository: token already consumed")
	// ErrDuplicate indicates an insert violated a uniqueness constraint.
	ErrDuplicate = errors.New("repository: duplicate record")
)
