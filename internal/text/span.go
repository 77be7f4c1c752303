// Package text provides byte-span and line helpers shared by tagger sources.
package text

import "fmt"

// Span represents a byte range in a buffer.
// Start is inclusive, End is exclusive: [Start, End).
type Span struct {
	Start int // Inclusive start offset
	End   int // Exclusive end offset
}

// NewSpan creates a new Span from start and end offsets.
func NewSpan(start, end int) Span {
	return Span{Start: start, End: end}
}

// String returns a human-readable representation of the span.
func (s Span) String() string {
	return fmt.Sprintf("[%d:%d)", s.Start, s.End)
}

// Len returns the length of the span in bytes.
func (s Span) Len() int {
	return s.End - s.Start
}

// IsEmpty returns true if the span has zero length.
func (s Span) IsEmpty() bool {
	return s.Start == s.End
}

// IsValid returns true if the span is non-negative and Start <= End.
func (s Span) IsValid() bool {
	return s.Start >= 0 && s.Start <= s.End
}

// Contains returns true if the given offset is within the span.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// ContainsSpan returns true if the given span is entirely within this span.
func (s Span) ContainsSpan(other Span) bool {
	return other.Start >= s.Start && other.End <= s.End
}

// Overlaps returns true if this span overlaps with another span.
// An empty span overlaps a span that contains its position.
func (s Span) Overlaps(other Span) bool {
	if s.IsEmpty() {
		return other.Contains(s.Start)
	}
	if other.IsEmpty() {
		return s.Contains(other.Start)
	}
	return s.Start < other.End && other.Start < s.End
}

// Intersect returns the intersection of two spans.
// The second result is false when the spans don't overlap.
func (s Span) Intersect(other Span) (Span, bool) {
	start := max(s.Start, other.Start)
	end := min(s.End, other.End)
	if start > end {
		return Span{Start: start, End: start}, false
	}
	return Span{Start: start, End: end}, true
}

// Union returns the smallest span that contains both spans.
func (s Span) Union(other Span) Span {
	return Span{Start: min(s.Start, other.Start), End: max(s.End, other.End)}
}

// Clamp limits the span to [0, n).
func (s Span) Clamp(n int) Span {
	start := min(max(s.Start, 0), n)
	end := min(max(s.End, start), n)
	return Span{Start: start, End: end}
}
