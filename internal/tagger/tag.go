package tagger

import (
	"slices"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/tagsource/internal/format"
	"github.com/dshills/tagsource/internal/text"
)

// TagKind identifies a capability a tagger can provide.
type TagKind uint8

const (
	// KindNone is the zero kind; nothing supports it.
	KindNone TagKind = iota

	// KindAdornment tags replace or decorate text with an inline adornment.
	KindAdornment

	// KindClassification tags assign a classification type to text.
	KindClassification
)

// String returns the string representation of the kind.
func (k TagKind) String() string {
	switch k {
	case KindAdornment:
		return "adornment"
	case KindClassification:
		return "classification"
	default:
		return "none"
	}
}

// Supports reports whether want is one of kinds.
func Supports(kinds []TagKind, want TagKind) bool {
	return want != KindNone && slices.Contains(kinds, want)
}

// Tag is a piece of information attached to a span.
type Tag interface {
	Kind() TagKind
}

// AdornmentTag is an inline adornment drawn in place of, or next to, text.
type AdornmentTag struct {
	// Text is the adornment content.
	Text string

	// Width is the display width of Text in cells.
	Width int

	// Style is the style the adornment is drawn with.
	Style tcell.Style

	// Replaces is true when the adornment hides the tagged text.
	Replaces bool
}

// Kind implements Tag.
func (AdornmentTag) Kind() TagKind { return KindAdornment }

// ClassificationTag assigns a classification type to a span.
type ClassificationTag struct {
	Type *format.ClassificationType
}

// Kind implements Tag.
func (ClassificationTag) Kind() TagKind { return KindClassification }

// TagSpan is a tag applied to a span.
type TagSpan struct {
	Span text.Span
	Tag  Tag
}

// ChangeEvent reports that tags over Span must be recomputed.
// An empty span means every tag may have changed.
type ChangeEvent struct {
	Span text.Span
}

// All reports whether the event covers everything.
func (e ChangeEvent) All() bool {
	return e.Span.IsEmpty()
}

// Overlaps reports whether the event affects span.
func (e ChangeEvent) Overlaps(span text.Span) bool {
	return e.All() || e.Span.Overlaps(span)
}
