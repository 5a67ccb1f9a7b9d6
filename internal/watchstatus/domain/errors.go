package domain

import "errors"

// ErrInvalidStatus is returned when a status name cannot be parsed.
var ErrInvalidStatus = errors.New("invalid watch status")
