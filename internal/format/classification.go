package format

import (
	"fmt"
	"slices"
	"sync"
)

// Well-known classification names.
const (
	ClassText        = "text"
	ClassDirectory   = "directory"
	ClassControlChar = "control-char"

	ClassSyntaxKeyword     = "syntax.keyword"
	ClassSyntaxString      = "syntax.string"
	ClassSyntaxComment     = "syntax.comment"
	ClassSyntaxNumber      = "syntax.number"
	ClassSyntaxOperator    = "syntax.operator"
	ClassSyntaxPunctuation = "syntax.punctuation"
	ClassSyntaxName        = "syntax.name"
	ClassSyntaxFunction    = "syntax.function"
	ClassSyntaxType        = "syntax.type"
	ClassSyntaxLiteral     = "syntax.literal"
)

// ClassificationType is a named classification, optionally derived from
// base classifications.
type ClassificationType struct {
	name  string
	bases []*ClassificationType
}

// Name returns the classification name.
func (c *ClassificationType) Name() string {
	return c.name
}

// Bases returns the direct base classifications.
func (c *ClassificationType) Bases() []*ClassificationType {
	return slices.Clone(c.bases)
}

// IsOfType reports whether c is name or derives from it.
func (c *ClassificationType) IsOfType(name string) bool {
	if c == nil {
		return false
	}
	if c.name == name {
		return true
	}
	for _, base := range c.bases {
		if base.IsOfType(name) {
			return true
		}
	}
	return false
}

// String returns the classification name.
func (c *ClassificationType) String() string {
	if c == nil {
		return "<nil>"
	}
	return c.name
}

// Registry manages classification types by name.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*ClassificationType
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types: make(map[string]*ClassificationType),
	}
}

// DefaultRegistry returns a registry with the built-in classifications.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.mustRegister(ClassText)
	r.mustRegister(ClassDirectory, ClassText)
	r.mustRegister(ClassControlChar, ClassText)
	r.mustRegister(ClassSyntaxLiteral, ClassText)
	for _, name := range []string{
		ClassSyntaxKeyword,
		ClassSyntaxComment,
		ClassSyntaxOperator,
		ClassSyntaxPunctuation,
		ClassSyntaxName,
	} {
		r.mustRegister(name, ClassText)
	}
	r.mustRegister(ClassSyntaxString, ClassSyntaxLiteral)
	r.mustRegister(ClassSyntaxNumber, ClassSyntaxLiteral)
	r.mustRegister(ClassSyntaxFunction, ClassSyntaxName)
	r.mustRegister(ClassSyntaxType, ClassSyntaxName)
	return r
}

// Register adds a classification derived from the named bases.
// Registering an existing name returns the existing type.
func (r *Registry) Register(name string, bases ...string) (*ClassificationType, error) {
	if name == "" {
		return nil, ErrInvalidName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.types[name]; ok {
		return existing, nil
	}

	ct := &ClassificationType{name: name}
	for _, baseName := range bases {
		base, ok := r.types[baseName]
		if !ok {
			return nil, fmt.Errorf("base %q of %q: %w", baseName, name, ErrUnknownClassification)
		}
		ct.bases = append(ct.bases, base)
	}
	r.types[name] = ct
	return ct, nil
}

func (r *Registry) mustRegister(name string, bases ...string) {
	if _, err := r.Register(name, bases...); err != nil {
		panic(err)
	}
}

// Lookup returns the classification registered under name.
func (r *Registry) Lookup(name string) (*ClassificationType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ct, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownClassification)
	}
	return ct, nil
}

// Names returns all registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
