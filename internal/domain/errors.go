package domain

import "errors"

var (
	ErrUnauthenticated = errors.New("no acting identity")
	ErrUserNotFound    = errors.New("user not found")
	ErrPostNotFound    = errors.New("post not found")
	ErrNotPostOwner    = errors.New("post owned by another user")
)
