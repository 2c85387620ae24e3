package services

import "errors"

// ErrUnknownField is returned when a filter is requested for a column the
// sheet does not have
var ErrUnknownField = errors.New("unknown field")
