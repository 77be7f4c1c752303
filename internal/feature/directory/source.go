package directory

import (
	"strings"

	"github.com/dshills/tagsource/internal/format"
	"github.com/dshills/tagsource/internal/host"
	"github.com/dshills/tagsource/internal/notify"
	"github.com/dshills/tagsource/internal/tagger"
	"github.com/dshills/tagsource/internal/text"
)

// Source classifies subdirectory lines of one buffer.
type Source struct {
	tagger.Base

	buffer *host.Buffer
	tag    tagger.ClassificationTag
	sub    *notify.Subscription
}

// NewSource creates a source over buffer tagging lines with classType.
func NewSource(buffer *host.Buffer, classType *format.ClassificationType) *Source {
	s := &Source{
		buffer: buffer,
		tag:    tagger.ClassificationTag{Type: classType},
	}
	s.sub = buffer.OnChanged(func(c host.Change) {
		s.RaiseChanged(text.LineSpan(buffer.Text(), c.Span))
	})
	return s
}

// Tags classifies every subdirectory line overlapping spans.
// A line is reported once even when several spans touch it.
func (s *Source) Tags(spans []text.Span) []tagger.TagSpan {
	if s.IsDisposed() {
		return nil
	}

	content := s.buffer.Text()
	var tags []tagger.TagSpan
	seen := make(map[int]bool)
	for _, span := range tagger.ValidSpans(spans, len(content)) {
		for _, line := range text.Lines(content, span) {
			if seen[line.Number] || !isDirectory(line.Text) {
				continue
			}
			seen[line.Number] = true
			tags = append(tags, tagger.TagSpan{Span: line.Span, Tag: s.tag})
		}
	}
	return tags
}

// Close stops following buffer edits.
func (s *Source) Close() error {
	return s.Dispose(func() error {
		s.sub.Unsubscribe()
		return nil
	})
}

func isDirectory(line string) bool {
	return strings.HasSuffix(strings.TrimRight(line, " \t"), "/")
}
