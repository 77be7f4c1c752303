// Package policy decides whether a feature should attach to a view.
package policy

import (
	"fmt"
	"sync/atomic"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/dshills/tagsource/internal/host"
	"github.com/dshills/tagsource/internal/logging"
)

// Policy answers whether a feature should be active for a view.
type Policy interface {
	ShouldActivate(view *host.View) bool
}

// Func adapts a function to Policy.
type Func func(view *host.View) bool

// ShouldActivate implements Policy.
func (f Func) ShouldActivate(view *host.View) bool {
	return f(view)
}

// Always activates for every open view.
var Always Policy = Func(func(view *host.View) bool {
	return view != nil && !view.IsClosed()
})

// Never activates for no view.
var Never Policy = Func(func(*host.View) bool { return false })

// Env is the environment an activation expression is evaluated against.
type Env struct {
	ContentType string   `expr:"contentType"`
	Roles       []string `expr:"roles"`
	Name        string   `expr:"name"`
	Length      int      `expr:"length"`
	ReadOnly    bool     `expr:"readOnly"`
}

// EnvFor builds the expression environment for view.
func EnvFor(view *host.View) Env {
	buf := view.Buffer()
	roles := view.Roles()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return Env{
		ContentType: string(buf.ContentType()),
		Roles:       names,
		Name:        buf.Name(),
		Length:      buf.Len(),
		ReadOnly:    buf.ReadOnly(),
	}
}

// Expr is a policy backed by a compiled expr-lang expression.
type Expr struct {
	source  string
	program *vm.Program
	logger  *logging.Logger
}

// Compile compiles an activation expression. The expression must
// evaluate to a boolean, for example:
//
//	"editable" in roles && contentType != "directory"
func Compile(source string, logger *logging.Logger) (*Expr, error) {
	if source == "" {
		return nil, fmt.Errorf("activation expression must not be empty")
	}
	program, err := expr.Compile(source, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compiling activation expression %q: %w", source, err)
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Expr{
		source:  source,
		program: program,
		logger:  logger.WithComponent("policy"),
	}, nil
}

// String returns the expression source.
func (e *Expr) String() string {
	return e.source
}

// ShouldActivate implements Policy. Closed views and evaluation errors
// yield false.
func (e *Expr) ShouldActivate(view *host.View) bool {
	if view == nil || view.IsClosed() {
		return false
	}

	out, err := expr.Run(e.program, EnvFor(view))
	if err != nil {
		e.logger.Warn("evaluating %q: %v", e.source, err)
		return false
	}
	ok, _ := out.(bool)
	return ok
}

// Dynamic is a policy whose implementation can be swapped at runtime,
// for example when configuration reloads.
type Dynamic struct {
	current atomic.Pointer[Policy]
}

// NewDynamic creates a dynamic policy starting with p.
func NewDynamic(p Policy) *Dynamic {
	d := &Dynamic{}
	d.Set(p)
	return d
}

// Set replaces the active policy. A nil policy means Always.
func (d *Dynamic) Set(p Policy) {
	if p == nil {
		p = Always
	}
	d.current.Store(&p)
}

// ShouldActivate implements Policy.
func (d *Dynamic) ShouldActivate(view *host.View) bool {
	p := d.current.Load()
	if p == nil {
		return Always.ShouldActivate(view)
	}
	return (*p).ShouldActivate(view)
}
