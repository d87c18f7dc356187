package model

import "errors"

// ErrRejected marks a write the store refused: validation failure or a stale
// task id. Callers test with errors.Is to tell it apart from transport errors.
var ErrRejected = errors.New("rejected")

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidStatus = errors.New("invalid task status")
	ErrInvalidTask   = errors.New("invalid task")
)
