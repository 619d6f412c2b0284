package aggregate

import "errors"

var (
	ErrUnknownFunction = errors.New("unknown aggregation function")
)
