package repository

import "errors"

// ErrNotFound is returned when a query targets a row that does not exist or
// is not visible to the requesting user.
var ErrNotFound = errors.New("record not found")
