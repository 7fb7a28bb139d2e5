package domain

import (
	"errors"
	"fmt"
)

var (
	ErrProductIDRequired = errors.New("product id is empty")
	ErrPriceNegative     = errors.New("price must be non-negative")
	ErrQuantityInvalid   = errors.New("quantity must be at least 1")
	ErrDuplicateItem     = errors.New("duplicate item in cart")

	// ErrSnapshotCorrupt is returned when a stored snapshot cannot be turned back into a Cart.
	ErrSnapshotCorrupt = errors.New("cart snapshot is corrupt")

	// ErrNoStoreScope is returned when a cart handle is requested outside of an active store scope.
	ErrNoStoreScope = errors.New("cart handle must be obtained within an active cart store scope")

	ErrStoreClosed        = errors.New("cart store is closed")
	ErrAlreadyInitialized = errors.New("cart store is already initialized")
)

// PersistenceError wraps a failure of the snapshot storage.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("storage.%s[%s]: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
