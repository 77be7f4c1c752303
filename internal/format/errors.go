package format

import "errors"

// Sentinel errors for format lookups.
var (
	// ErrUnknownClassification is returned when a classification name is not registered.
	ErrUnknownClassification = errors.New("unknown classification type")

	// ErrInvalidName is returned when registering an empty classification name.
	ErrInvalidName = errors.New("invalid classification name")

	// ErrNilView is returned when a format map is requested for a nil view.
	ErrNilView = errors.New("view cannot be nil")

	// ErrViewClosed is returned when a format map is requested for a closed view.
	ErrViewClosed = errors.New("view is closed")

	// ErrInvalidColor is returned when a theme color cannot be parsed.
	ErrInvalidColor = errors.New("invalid color")
)
