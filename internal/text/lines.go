package text

import "strings"

// Line is a single line of text within a larger string.
type Line struct {
	// Number is the zero-based line number.
	Number int

	// Span covers the line content, excluding the line terminator.
	Span Span

	// Text is the line content, excluding the line terminator.
	Text string
}

// Lines returns the lines of s that overlap span.
// A line overlaps when any part of it, including its terminator position,
// falls within span. Invalid spans yield no lines.
func Lines(s string, span Span) []Line {
	if !span.IsValid() || span.Start > len(s) {
		return nil
	}
	span = span.Clamp(len(s))

	var lines []Line
	number := 0
	start := 0
	for start <= len(s) {
		end := len(s)
		next := len(s) + 1
		if i := strings.IndexByte(s[start:], '\n'); i >= 0 {
			end = start + i
			next = end + 1
		}
		content := end
		if content > start && s[content-1] == '\r' {
			content--
		}

		if end >= span.Start && (start < span.End || (span.IsEmpty() && start == span.Start)) {
			lines = append(lines, Line{
				Number: number,
				Span:   Span{Start: start, End: content},
				Text:   s[start:content],
			})
		}
		if start > span.End || (start == span.End && !span.IsEmpty()) {
			break
		}

		start = next
		number++
	}
	return lines
}

// LineSpan returns the span covering every line touched by span,
// excluding the terminator of the last line.
func LineSpan(s string, span Span) Span {
	lines := Lines(s, span)
	if len(lines) == 0 {
		return Span{}
	}
	return Span{Start: lines[0].Span.Start, End: lines[len(lines)-1].Span.End}
}
