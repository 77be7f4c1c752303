package tagger

import (
	"github.com/dshills/tagsource/internal/format"
	"github.com/dshills/tagsource/internal/notify"
	"github.com/dshills/tagsource/internal/text"
)

// ClassificationSpan is a classification applied to a span.
type ClassificationSpan struct {
	Span text.Span
	Type *format.ClassificationType
}

// Classifier is the caller-facing classification adapter over a Source.
type Classifier struct {
	tagger *Tagger
}

// NewClassifier wraps source, exposing its classification tags.
func NewClassifier(source Source) *Classifier {
	return &Classifier{tagger: NewTagger(source, KindClassification)}
}

// ClassificationSpans returns the classifications overlapping span.
func (c *Classifier) ClassificationSpans(span text.Span) []ClassificationSpan {
	tags := c.tagger.Tags([]text.Span{span})
	if len(tags) == 0 {
		return nil
	}

	spans := make([]ClassificationSpan, 0, len(tags))
	for _, ts := range tags {
		tag, ok := ts.Tag.(ClassificationTag)
		if !ok || tag.Type == nil {
			continue
		}
		spans = append(spans, ClassificationSpan{Span: ts.Span, Type: tag.Type})
	}
	return spans
}

// OnClassificationChanged registers an observer for change events.
func (c *Classifier) OnClassificationChanged(fn func(ChangeEvent)) *notify.Subscription {
	return c.tagger.OnTagsChanged(fn)
}

// Close detaches the classifier from its source.
func (c *Classifier) Close() {
	c.tagger.Close()
}
