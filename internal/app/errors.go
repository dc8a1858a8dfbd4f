package app

import "errors"

// ErrCorruptState and related errors describe validation and runtime failures.
var (
	ErrCorruptState    = errors.New("corrupt persisted state")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)
