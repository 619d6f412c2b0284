package notify

import "errors"

var (
	ErrNoSender     = errors.New("no sender registered for channel type")
	ErrNilInstance  = errors.New("nil alert instance")
	ErrLimiterState = errors.New("frequency counter store unavailable")
)
