package store

import "errors"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateLoginID is returned when a member insert violates the
// login-id uniqueness constraint.
var ErrDuplicateLoginID = errors.New("login id already exists")
