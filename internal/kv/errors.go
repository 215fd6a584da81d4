package kv

import "errors"

var (
	ErrInvalidConfig  = errors.New("invalid store configuration")
	ErrInvalidBackend = errors.New("invalid store backend")
	ErrClosed         = errors.New("store closed")
)
