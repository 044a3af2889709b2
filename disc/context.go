// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package disc implements the finite volume discretization of expression graphs
package disc

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/cpmech/gobamm/mesh"
	"github.com/cpmech/gobamm/sym"
	"github.com/cpmech/gosl/chk"
)

// errors
var (
	ErrMissingBoundaryCondition = errors.New("missing boundary condition")
	ErrUnknownVariable          = errors.New("unknown variable")
)

// BcKind defines the kind of boundary condition
type BcKind int

const (
	NoBc      BcKind = iota // no condition
	Dirichlet               // prescribed value
	Neumann                 // prescribed flux (gradient)
)

// BcKindByName returns the kind with the given name
func BcKindByName(name string) (BcKind, error) {
	switch name {
	case "dirichlet", "value":
		return Dirichlet, nil
	case "neumann", "flux":
		return Neumann, nil
	}
	return NoBc, chk.Err("unknown boundary condition kind %q", name)
}

// String returns the name of the kind
func (o BcKind) String() string {
	switch o {
	case Dirichlet:
		return "dirichlet"
	case Neumann:
		return "neumann"
	}
	return "none"
}

// Condition holds the kind and the scalar value expression of a boundary condition
type Condition struct {
	Kind  BcKind    // Dirichlet or Neumann
	Value *sym.Node // scalar expression; may depend on time, parameters and states
}

// Boundary holds the conditions at both ends of a domain
type Boundary struct {
	Left  *Condition // at xmin
	Right *Condition // at xmax
}

// at returns the condition at side
func (o Boundary) at(side sym.Side) *Condition {
	if side == sym.Left {
		return o.Left
	}
	return o.Right
}

// kind returns the kind of condition at side
func (o Boundary) kind(side sym.Side) BcKind {
	if c := o.at(side); c != nil {
		return c.Kind
	}
	return NoBc
}

// BCs maps a variable name or a domain key (see sym.Domain.Key) to boundary conditions.
// Variable names are looked up first
type BCs map[string]Boundary

// opKey identifies a discrete operator
type opKey struct {
	kind   sym.Kind // Gradient, Divergence, ...
	domain string   // domain key
	left   BcKind   // kind of condition at xmin
	right  BcKind   // kind of condition at xmax
	side   sym.Side // for boundary values
}

// Operator holds a discrete linear operator L and the coefficients of the boundary values,
// such that the discrete result is L u + Left a + Right b
type Operator struct {
	L     *sym.Node // Matrix node
	Left  *sym.Node // coefficients of the left value; nil if not used
	Right *sym.Node // coefficients of the right value; nil if not used
}

// Context holds the mesh and the cache of discrete operators. Operators are built once per
// (kind, domain, boundary kinds) and then shared by every graph discretized with this context.
// The cache is safe for concurrent use
type Context struct {
	Mesh *mesh.Mesh // mesh; read-only

	mutex  sync.RWMutex
	ops    map[opKey]*Operator
	hits   atomic.Int64
	misses atomic.Int64
}

// NewContext returns a new discretization context
func NewContext(m *mesh.Mesh) *Context {
	return &Context{Mesh: m, ops: make(map[opKey]*Operator)}
}

// Stats returns the number of cache hits and misses
func (o *Context) Stats() (hits, misses int) {
	return int(o.hits.Load()), int(o.misses.Load())
}

// Len returns the number of cached operators
func (o *Context) Len() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return len(o.ops)
}

// Clear drops all cached operators; e.g. when the session ends
func (o *Context) Clear() {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.ops = make(map[opKey]*Operator)
}

// operator returns the cached operator or builds it on the combined submesh of dom
func (o *Context) operator(key opKey, dom sym.Domain, build func(s *mesh.Submesh) *Operator) (*Operator, error) {

	// read
	o.mutex.RLock()
	op, ok := o.ops[key]
	o.mutex.RUnlock()
	if ok {
		o.hits.Add(1)
		return op, nil
	}

	// check again and insert
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if op, ok = o.ops[key]; ok {
		o.hits.Add(1)
		return op, nil
	}
	s, err := o.Mesh.Combine(dom)
	if err != nil {
		return nil, err
	}
	op = build(s)
	o.ops[key] = op
	o.misses.Add(1)
	return op, nil
}

// submesh returns the combined submesh of dom
func (o *Context) submesh(dom sym.Domain) (*mesh.Submesh, error) {
	return o.Mesh.Combine(dom)
}
