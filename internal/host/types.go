package host

import "errors"

// Errors returned by host objects.
var (
	// ErrClosed is returned when an edit is attempted on a closed buffer.
	ErrClosed = errors.New("buffer is closed")

	// ErrOffsetOutOfRange is returned when an edit offset is outside the buffer.
	ErrOffsetOutOfRange = errors.New("offset out of range")
)

// ContentType identifies the kind of content a buffer holds.
type ContentType string

// Known content types.
const (
	ContentTypeAny       ContentType = "any"
	ContentTypeText      ContentType = "text"
	ContentTypeDirectory ContentType = "directory"
)

// Matches reports whether c satisfies the wanted content type.
// ContentTypeAny matches everything.
func (c ContentType) Matches(want ContentType) bool {
	return want == ContentTypeAny || c == want
}

// Role describes how a view is used.
type Role string

// Known view roles.
const (
	RoleInteractive Role = "interactive"
	RoleEditable    Role = "editable"
	RoleDocument    Role = "document"
	RolePreview     Role = "preview"
)

// DefaultRoles are the roles given to a view created without explicit roles.
func DefaultRoles() []Role {
	return []Role{RoleInteractive, RoleEditable, RoleDocument}
}
