// Package tagger defines tag sources and the adapters handed to callers.
//
// A Source is a stateful object that computes tags over spans of one view
// or buffer. Sources are expensive and shared: the cache package keeps at
// most one per owner and feature, and disposes it when the owner goes
// away. Callers never see a Source directly; each request gets its own
// Tagger or Classifier adapter that forwards queries and relays change
// notifications. Adapters never dispose the Source they wrap.
//
// Basic usage:
//
//	src, err := cache.Get(c, view, key, func() (*MySource, error) {
//		return NewMySource(view)
//	})
//	if err != nil {
//		return nil, err
//	}
//	t := tagger.NewTagger(src, tagger.KindAdornment)
//	defer t.Close()
//	for _, ts := range t.Tags([]text.Span{{Start: 0, End: 100}}) {
//		// render ts.Tag over ts.Span
//	}
package tagger
