package domain

import "errors"

var (
	ErrInvalidID         = errors.New("invalid id")
	ErrInvalidText       = errors.New("invalid text")
	ErrInvalidTeamMember = errors.New("invalid team member")
	ErrInvalidPriority   = errors.New("invalid priority")
	ErrInvalidFilter     = errors.New("invalid filter")
	ErrInvalidSortMode   = errors.New("invalid sort mode")
)
