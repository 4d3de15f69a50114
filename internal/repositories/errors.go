package repositories

import "errors"

var (
	// ErrNotFound is wrapped by every lookup that matches no record.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is wrapped when a unique index rejects a write.
	ErrDuplicate = errors.New("duplicate record")
)
