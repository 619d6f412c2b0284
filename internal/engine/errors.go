package engine

import "errors"

var (
	ErrNoConditions     = errors.New("rule has no conditions")
	ErrInvalidOperator  = errors.New("invalid comparison operator")
	ErrStateUnavailable = errors.New("rule state store unavailable")
)
