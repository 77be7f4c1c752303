package cache

import (
	"errors"
	"fmt"
)

// Sentinel errors for the cache.
var (
	// ErrNilOwner is returned when a nil owner is provided.
	ErrNilOwner = errors.New("owner cannot be nil")

	// ErrNilKey is returned when a nil feature key is provided.
	ErrNilKey = errors.New("feature key cannot be nil")

	// ErrNilConstructor is returned when a nil constructor is provided.
	ErrNilConstructor = errors.New("constructor cannot be nil")

	// ErrNilSource is returned when a constructor returns a nil source without an error.
	ErrNilSource = errors.New("constructor returned a nil source")

	// ErrOwnerClosed is returned when the owner is closed or released.
	ErrOwnerClosed = errors.New("owner is closed")

	// ErrClosed is returned when the cache itself has been closed.
	ErrClosed = errors.New("cache is closed")

	// ErrKeyTypeMismatch is returned by Get when a slot holds a source of another type.
	ErrKeyTypeMismatch = errors.New("cached source has unexpected type")
)

// ConstructError wraps a constructor failure with the slot it was for.
type ConstructError struct {
	// Key is the feature key whose source failed to construct.
	Key *Key

	// OwnerID identifies the owner.
	OwnerID string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ConstructError) Error() string {
	return fmt.Sprintf("constructing %s source for %s: %v", e.Key, e.OwnerID, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConstructError) Unwrap() error {
	return e.Err
}
