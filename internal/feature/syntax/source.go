package syntax

import (
	"fmt"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/cespare/xxhash/v2"

	"github.com/dshills/tagsource/internal/format"
	"github.com/dshills/tagsource/internal/host"
	"github.com/dshills/tagsource/internal/notify"
	"github.com/dshills/tagsource/internal/tagger"
	"github.com/dshills/tagsource/internal/text"
)

// maxCachedLines bounds the line token cache. The cache is reset when full.
const maxCachedLines = 4096

// token is a classified range within a line.
type token struct {
	start, end int
	class      string
}

// Source classifies the lines of one buffer with a chroma lexer.
type Source struct {
	tagger.Base

	buffer *host.Buffer
	lexer  chroma.Lexer
	tags   map[string]tagger.ClassificationTag
	sub    *notify.Subscription

	mu    sync.Mutex
	lines map[uint64][]token
}

// NewSource creates a source over buffer using lexer. Every syntax
// classification must be registered in registry.
func NewSource(buffer *host.Buffer, lexer chroma.Lexer, registry *format.Registry) (*Source, error) {
	tags := make(map[string]tagger.ClassificationTag, len(classNames))
	for _, name := range classNames {
		ct, err := registry.Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("syntax classification: %w", err)
		}
		tags[name] = tagger.ClassificationTag{Type: ct}
	}

	s := &Source{
		buffer: buffer,
		lexer:  chroma.Coalesce(lexer),
		tags:   tags,
		lines:  make(map[uint64][]token),
	}
	s.sub = buffer.OnChanged(func(c host.Change) {
		s.RaiseChanged(text.LineSpan(buffer.Text(), c.Span))
	})
	return s, nil
}

// Lexer returns the name of the lexer in use.
func (s *Source) Lexer() string {
	return s.lexer.Config().Name
}

// Tags classifies the tokens of every line overlapping spans.
func (s *Source) Tags(spans []text.Span) []tagger.TagSpan {
	if s.IsDisposed() {
		return nil
	}

	content := s.buffer.Text()
	var out []tagger.TagSpan
	seen := make(map[int]bool)
	for _, span := range tagger.ValidSpans(spans, len(content)) {
		for _, line := range text.Lines(content, span) {
			if seen[line.Number] {
				continue
			}
			seen[line.Number] = true

			for _, tok := range s.tokens(line.Text) {
				ts := text.NewSpan(line.Span.Start+tok.start, line.Span.Start+tok.end)
				if !span.IsEmpty() && !ts.Overlaps(span) {
					continue
				}
				out = append(out, tagger.TagSpan{Span: ts, Tag: s.tags[tok.class]})
			}
		}
	}
	return out
}

// CachedLines returns the number of distinct lines held in the token cache.
func (s *Source) CachedLines() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Close stops following the buffer and drops the token cache.
func (s *Source) Close() error {
	return s.Dispose(func() error {
		s.sub.Unsubscribe()
		s.mu.Lock()
		s.lines = nil
		s.mu.Unlock()
		return nil
	})
}

func (s *Source) tokens(line string) []token {
	if line == "" {
		return nil
	}
	h := xxhash.Sum64String(line)

	s.mu.Lock()
	toks, ok := s.lines[h]
	s.mu.Unlock()
	if ok {
		return toks
	}

	toks = s.tokenise(line)

	s.mu.Lock()
	if s.lines != nil {
		if len(s.lines) >= maxCachedLines {
			clear(s.lines)
		}
		s.lines[h] = toks
	}
	s.mu.Unlock()
	return toks
}

func (s *Source) tokenise(line string) []token {
	it, err := s.lexer.Tokenise(nil, line)
	if err != nil {
		return nil
	}

	var toks []token
	offset := 0
	for _, t := range it.Tokens() {
		start := offset
		offset += len(t.Value)
		if start >= len(line) {
			break
		}
		end := min(offset, len(line))
		class := classFor(t.Type)
		if class == "" || end <= start {
			continue
		}
		toks = append(toks, token{start: start, end: end, class: class})
	}
	return toks
}
