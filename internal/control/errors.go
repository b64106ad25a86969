package control

import "errors"

// ErrUnknownParam is returned by SetParam for a name the controller does not expose.
var ErrUnknownParam = errors.New("control: unknown parameter")
