package chardisplay

import (
	"slices"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/dshills/tagsource/internal/format"
	"github.com/dshills/tagsource/internal/host"
	"github.com/dshills/tagsource/internal/notify"
	"github.com/dshills/tagsource/internal/tagger"
	"github.com/dshills/tagsource/internal/text"
)

// Source produces control character adornments for one view.
type Source struct {
	tagger.Base

	view    *host.View
	buffer  *host.Buffer
	fmap    *format.Map
	display *Display

	subs []*notify.Subscription
}

// NewSource creates a source over view's buffer. It follows buffer edits,
// format map updates and display setting changes until closed.
func NewSource(view *host.View, fmap *format.Map, display *Display) *Source {
	s := &Source{
		view:    view,
		buffer:  view.Buffer(),
		fmap:    fmap,
		display: display,
	}
	s.subs = []*notify.Subscription{
		s.buffer.OnChanged(s.bufferChanged),
		fmap.OnChanged(s.formatChanged),
		display.OnChanged(s.RaiseAllChanged),
	}
	return s
}

// Tags returns one adornment per displayable character within spans.
// Only the first rune of each grapheme cluster is considered, so joiners
// inside a cluster are left alone.
func (s *Source) Tags(spans []text.Span) []tagger.TagSpan {
	if s.IsDisposed() || !s.display.Enabled() {
		return nil
	}

	content := s.buffer.Text()
	spans = mergeSpans(tagger.ValidSpans(spans, len(content)))
	if len(spans) == 0 {
		return nil
	}

	style := s.fmap.Style(format.ClassControlChar)

	var tags []tagger.TagSpan
	for _, span := range spans {
		rest := content[span.Start:span.End]
		offset := span.Start
		state := -1
		for len(rest) > 0 {
			var cluster string
			cluster, rest, _, state = uniseg.StepString(rest, state)

			r, size := utf8.DecodeRuneInString(cluster)
			if label, ok := s.display.Text(r); ok {
				tags = append(tags, tagger.TagSpan{
					Span: text.NewSpan(offset, offset+size),
					Tag: tagger.AdornmentTag{
						Text:     label,
						Width:    runewidth.StringWidth(label),
						Style:    style,
						Replaces: true,
					},
				})
			}
			offset += len(cluster)
		}
	}
	return tags
}

// Close detaches the source from the view, format map and display.
func (s *Source) Close() error {
	return s.Dispose(func() error {
		for _, sub := range s.subs {
			sub.Unsubscribe()
		}
		return nil
	})
}

func (s *Source) bufferChanged(c host.Change) {
	s.RaiseChanged(text.LineSpan(s.buffer.Text(), c.Span))
}

func (s *Source) formatChanged(c format.MapChange) {
	if len(c.Names) == 0 || slices.Contains(c.Names, format.ClassControlChar) {
		s.RaiseAllChanged()
	}
}

// mergeSpans sorts spans and joins the overlapping ones so that no
// character is reported twice.
func mergeSpans(spans []text.Span) []text.Span {
	if len(spans) < 2 {
		return spans
	}
	slices.SortFunc(spans, func(a, b text.Span) int { return a.Start - b.Start })

	out := spans[:1]
	for _, s := range spans[1:] {
		last := &out[len(out)-1]
		if s.Start <= last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		out = append(out, s)
	}
	return out
}
