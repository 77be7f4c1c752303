package app

import (
	"cmp"
	"slices"
	"strings"

	"github.com/dshills/tagsource/internal/tagger"
	"github.com/dshills/tagsource/internal/text"
)

// Annotation is one tag found in a document.
type Annotation struct {
	Span text.Span

	// Line and Column locate the span start, both one-based.
	// Column counts bytes.
	Line   int
	Column int

	Kind tagger.TagKind

	// Label is the adornment text or the classification name.
	Label string

	// Feature names the feature that produced the tag.
	Feature string
}

// Annotate collects every adornment and classification over the whole of
// doc, ordered by position. Features that fail are reported together in
// the returned error, alongside the annotations of those that succeeded.
func (app *Application) Annotate(doc *Document) ([]Annotation, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	if app.isClosed() {
		return nil, ErrClosed
	}

	content := doc.Buffer.Text()
	whole := text.NewSpan(0, len(content))
	errs := &ErrorList{}

	var anns []Annotation
	add := func(feature string, span text.Span, kind tagger.TagKind, label string) {
		anns = append(anns, Annotation{
			Span:    span,
			Line:    strings.Count(content[:span.Start], "\n") + 1,
			Column:  span.Start - strings.LastIndexByte(content[:span.Start], '\n'),
			Kind:    kind,
			Label:   label,
			Feature: feature,
		})
	}

	tg, err := app.charDisplay.CreateTagger(tagger.KindAdornment, doc.View, doc.Buffer)
	errs.Add(wrap("chardisplay", err))
	if tg != nil {
		for _, ts := range tg.Tags([]text.Span{whole}) {
			if tag, ok := ts.Tag.(tagger.AdornmentTag); ok {
				add("chardisplay", ts.Span, tagger.KindAdornment, tag.Text)
			}
		}
		tg.Close()
	}

	for _, feature := range []struct {
		name     string
		classify func() (*tagger.Classifier, error)
	}{
		{"directory", func() (*tagger.Classifier, error) { return app.directory.Classifier(doc.Buffer) }},
		{"syntax", func() (*tagger.Classifier, error) { return app.syntax.Classifier(doc.Buffer) }},
		{"script", func() (*tagger.Classifier, error) { return app.script.Classifier(doc.Buffer) }},
	} {
		cl, err := feature.classify()
		errs.Add(wrap(feature.name, err))
		if cl == nil {
			continue
		}
		for _, cs := range cl.ClassificationSpans(whole) {
			add(feature.name, cs.Span, tagger.KindClassification, cs.Type.Name())
		}
		cl.Close()
	}

	slices.SortStableFunc(anns, func(a, b Annotation) int {
		return cmp.Or(
			cmp.Compare(a.Span.Start, b.Span.Start),
			cmp.Compare(a.Kind, b.Kind),
			cmp.Compare(a.Span.End, b.Span.End),
		)
	})
	return anns, errs.AsError()
}

func wrap(feature string, err error) error {
	if err == nil {
		return nil
	}
	return NewOperationError("annotate", feature, err)
}
