package tagger

import (
	"errors"
	"testing"

	"github.com/dshills/tagsource/internal/format"
	"github.com/dshills/tagsource/internal/text"
)

// mixedSource returns one tag of each kind per span.
type mixedSource struct {
	Base
	ct      *format.ClassificationType
	queries int
}

func (s *mixedSource) Tags(spans []text.Span) []TagSpan {
	s.queries++
	var out []TagSpan
	for _, span := range spans {
		out = append(out,
			TagSpan{Span: span, Tag: AdornmentTag{Text: "^@", Width: 2, Replaces: true}},
			TagSpan{Span: span, Tag: ClassificationTag{Type: s.ct}},
		)
	}
	return out
}

func (s *mixedSource) Close() error {
	return s.Dispose(nil)
}

func newMixedSource(t *testing.T) *mixedSource {
	t.Helper()
	ct, err := format.DefaultRegistry().Lookup(format.ClassDirectory)
	if err != nil {
		t.Fatal(err)
	}
	return &mixedSource{ct: ct}
}

func TestTagKindString(t *testing.T) {
	tests := []struct {
		kind TagKind
		want string
	}{
		{KindNone, "none"},
		{KindAdornment, "adornment"},
		{KindClassification, "classification"},
		{TagKind(99), "none"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestSupports(t *testing.T) {
	kinds := []TagKind{KindAdornment}

	if !Supports(kinds, KindAdornment) {
		t.Error("expected adornment to be supported")
	}
	if Supports(kinds, KindClassification) || Supports(kinds, KindNone) {
		t.Error("unexpected support")
	}
}

func TestTagger_FiltersByKind(t *testing.T) {
	src := newMixedSource(t)
	tg := NewTagger(src, KindAdornment)
	defer tg.Close()

	tags := tg.Tags([]text.Span{text.NewSpan(0, 1)})
	if len(tags) != 1 {
		t.Fatalf("expected 1 adornment tag, got %d", len(tags))
	}
	if tags[0].Tag.Kind() != KindAdornment || tg.Kind() != KindAdornment {
		t.Errorf("unexpected tag %+v", tags[0])
	}
}

func TestTagger_RelaysChanges(t *testing.T) {
	src := newMixedSource(t)
	a := NewTagger(src, KindAdornment)
	b := NewTagger(src, KindAdornment)

	var gotA, gotB []ChangeEvent
	a.OnTagsChanged(func(e ChangeEvent) { gotA = append(gotA, e) })
	b.OnTagsChanged(func(e ChangeEvent) { gotB = append(gotB, e) })

	src.RaiseChanged(text.NewSpan(3, 7))
	if len(gotA) != 1 || len(gotB) != 1 || gotA[0].Span != text.NewSpan(3, 7) {
		t.Fatalf("expected both adapters to relay, got %v and %v", gotA, gotB)
	}

	a.Close()
	src.RaiseAllChanged()
	if len(gotA) != 1 {
		t.Error("closed adapter should stop relaying")
	}
	if len(gotB) != 2 || !gotB[1].All() {
		t.Errorf("open adapter should keep relaying, got %v", gotB)
	}
	if src.changed.Len() != 1 {
		t.Errorf("closed adapter should unsubscribe from the source, %d observers remain", src.changed.Len())
	}
	b.Close()
}

func TestTagger_CloseDoesNotDisposeSource(t *testing.T) {
	src := newMixedSource(t)
	tg := NewTagger(src, KindAdornment)

	tg.Close()
	tg.Close()

	if src.IsDisposed() {
		t.Error("adapter close disposed the source")
	}
	if tags := tg.Tags([]text.Span{text.NewSpan(0, 1)}); tags != nil {
		t.Errorf("closed tagger should return nil, got %v", tags)
	}
}

func TestTagger_AfterSourceDisposed(t *testing.T) {
	src := newMixedSource(t)
	tg := NewTagger(src, KindAdornment)

	_ = src.Close()

	if tags := tg.Tags([]text.Span{text.NewSpan(0, 1)}); tags != nil {
		t.Errorf("expected nil after disposal, got %v", tags)
	}
	if src.queries != 0 {
		t.Error("adapter should not query a disposed source")
	}
	tg.Close()
}

func TestClassifier(t *testing.T) {
	src := newMixedSource(t)
	c := NewClassifier(src)

	spans := c.ClassificationSpans(text.NewSpan(2, 5))
	if len(spans) != 1 {
		t.Fatalf("expected 1 classification, got %d", len(spans))
	}
	if spans[0].Span != text.NewSpan(2, 5) || spans[0].Type.Name() != format.ClassDirectory {
		t.Errorf("unexpected classification %+v", spans[0])
	}

	var changes int
	c.OnClassificationChanged(func(ChangeEvent) { changes++ })
	src.RaiseAllChanged()
	if changes != 1 {
		t.Errorf("expected 1 change, got %d", changes)
	}

	c.Close()
	if spans := c.ClassificationSpans(text.NewSpan(2, 5)); spans != nil {
		t.Errorf("closed classifier should return nil, got %v", spans)
	}
}

func TestBase_Dispose(t *testing.T) {
	var b Base
	var releases int
	release := func() error {
		releases++
		return errors.New("release error")
	}

	var changes int
	b.OnChanged(func(ChangeEvent) { changes++ })

	if err := b.Dispose(release); err == nil {
		t.Error("expected release error on first dispose")
	}
	if err := b.Dispose(release); err != nil {
		t.Errorf("second dispose should be a no-op, got %v", err)
	}
	if releases != 1 || !b.IsDisposed() {
		t.Errorf("expected release once, got %d", releases)
	}

	b.RaiseAllChanged()
	if changes != 0 {
		t.Error("disposed base must not raise changes")
	}
}

func TestChangeEvent(t *testing.T) {
	all := ChangeEvent{}
	if !all.All() || !all.Overlaps(text.NewSpan(10, 20)) {
		t.Error("empty event should cover everything")
	}

	e := ChangeEvent{Span: text.NewSpan(0, 5)}
	if e.All() || e.Overlaps(text.NewSpan(5, 9)) || !e.Overlaps(text.NewSpan(4, 9)) {
		t.Error("unexpected overlap result")
	}
}

func TestValidSpans(t *testing.T) {
	spans := ValidSpans([]text.Span{
		text.NewSpan(0, 3),
		text.NewSpan(5, 2),
		text.NewSpan(-1, 2),
		text.NewSpan(8, 40),
		text.NewSpan(20, 30),
	}, 10)

	want := []text.Span{text.NewSpan(0, 3), text.NewSpan(8, 10)}
	if len(spans) != len(want) {
		t.Fatalf("expected %v, got %v", want, spans)
	}
	for i := range want {
		if spans[i] != want[i] {
			t.Errorf("span %d: expected %s, got %s", i, want[i], spans[i])
		}
	}
}
