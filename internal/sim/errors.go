package sim

import "errors"

var (
	ErrInvalidConfig = errors.New("sim: invalid config")
	ErrNoDriver      = errors.New("sim: loop has no driver")
)
