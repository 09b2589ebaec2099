package metrics

import "errors"

var (
	ErrNilLog         = errors.New("metrics: execution log is nil")
	ErrLogUnavailable = errors.New("metrics: execution log unavailable")
	ErrInvalidRecord  = errors.New("metrics: invalid execution record")
)
