// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cpmech/gobamm/deriv"
	"github.com/cpmech/gobamm/disc"
	"github.com/cpmech/gobamm/event"
	"github.com/cpmech/gobamm/kern"
	"github.com/cpmech/gobamm/mesh"
	"github.com/cpmech/gobamm/simp"
	"github.com/cpmech/gobamm/solver"
	"github.com/cpmech/gobamm/sym"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"
)

// Options holds options for Build
type Options struct {
	Backend string // kernel backend: "frozen" or "interp"
	Serial  bool   // derive and evaluate Jacobian blocks in the calling goroutine
	Verbose bool   // show messages
}

// SetDefault sets default values
func (o *Options) SetDefault() {
	if o.Backend == "" {
		o.Backend = "frozen"
	}
}

// Built holds the numeric system of a model. It implements solver.System
type Built struct {
	Model      *Model        // symbolic model
	Mapping    *disc.Mapping // state vector mapping
	Context    *disc.Context // mesh and operator cache
	ParamNames []string      // names of parameters in the order of Params
	Params     []float64     // parameter vector
	Y0         []float64     // initial state
	Rows       []*sym.Node   // discretized and simplified equations
	Sizes      []int         // number of rows of each equation

	residual *kern.Kernel      // stacked equations
	jacobian *kern.JacKernel   // block Jacobian
	mass     []float64         // diagonal of the mass matrix
	events   []*event.Compiled // compiled events
	sevents  []solver.Event    // events as seen by the solver
}

// Build simplifies, discretizes and compiles a model on a mesh. prms overrides the default
// values in m.Params
func Build(m *Model, msh *mesh.Mesh, prms map[string]float64, opts *Options) (o *Built, err error) {

	// check
	if opts == nil {
		opts = new(Options)
	}
	opts.SetDefault()
	err = m.Check()
	if err != nil {
		return
	}
	start := time.Now()

	// parameters
	o = &Built{Model: m}
	values := make(map[string]float64)
	for key, v := range m.Params {
		values[key] = v
	}
	for key, v := range prms {
		values[key] = v
	}
	for key := range values {
		o.ParamNames = append(o.ParamNames, key)
	}
	sort.Strings(o.ParamNames)
	o.Params = make([]float64, len(o.ParamNames))
	for i, key := range o.ParamNames {
		o.Params[i] = values[key]
	}

	// mapping
	eqs := m.Equations()
	vars := make([]*sym.Node, len(eqs))
	for i, eq := range eqs {
		vars[i] = eq.Var
	}
	o.Mapping, err = disc.NewMapping(msh, vars)
	if err != nil {
		return nil, err
	}
	n := o.Mapping.Size()

	// discretize
	o.Context = disc.NewContext(msh)
	d := disc.New(o.Context, o.Mapping, m.BCs)
	s := simp.New()
	s.Verbose = opts.Verbose
	cols := make([]*sym.Node, len(eqs))
	o.Rows = make([]*sym.Node, len(eqs))
	o.Sizes = make([]int, len(eqs))
	for i, eq := range eqs {
		cols[i], err = o.Mapping.StateSlice(eq.Var.Name())
		if err != nil {
			return nil, err
		}
		o.Rows[i], err = o.lower(s, d, eq.Expr, cols[i].Rows())
		if err != nil {
			return nil, fmt.Errorf("cannot discretize equation of %q: %w", eq.Var.Name(), err)
		}
		o.Sizes[i] = cols[i].Rows()
	}

	// residual kernel
	kopts := &kern.Options{Backend: opts.Backend, Params: o.ParamNames, Verbose: opts.Verbose}
	stack, err := sym.Stack(o.Rows...)
	if err != nil {
		return nil, err
	}
	o.residual, err = kern.Compile(stack, kopts)
	if err != nil {
		return nil, err
	}

	// Jacobian kernel
	blocks, err := deriv.Jacobian(o.Rows, cols, !opts.Serial)
	if err != nil {
		return nil, err
	}
	o.jacobian, err = kern.CompileJacobian(blocks.Rows, blocks.Cols, blocks.B, kopts)
	if err != nil {
		return nil, err
	}
	o.jacobian.Parallel = !opts.Serial

	// mass matrix
	o.mass = make([]float64, n)
	for _, eq := range m.Rhs {
		for _, i := range mustLookup(o.Mapping, eq.Var.Name()).Indices() {
			o.mass[i] = 1
		}
	}

	// initial state
	o.Y0 = make([]float64, n)
	for i, eq := range eqs {
		if eq.Initial == nil {
			continue
		}
		ic, err := o.lower(s, d, eq.Initial, o.Sizes[i])
		if err != nil {
			return nil, fmt.Errorf("cannot discretize initial condition of %q: %w", eq.Var.Name(), err)
		}
		if sym.HasKind(ic, sym.KindStateSlice) {
			return nil, chk.Err("initial condition of %q cannot depend on states", eq.Var.Name())
		}
		k, err := kern.Compile(ic, kopts)
		if err != nil {
			return nil, err
		}
		v := k.Eval(0, o.Y0, o.Params)
		if err = kern.Finite(v); err != nil {
			return nil, chk.Err("initial condition of %q is invalid: %v", eq.Var.Name(), err)
		}
		copy(o.Mapping.Slice(o.Y0, eq.Var.Name()), v)
	}

	// events
	lowered := make([]*event.Event, len(m.Events))
	for i, ev := range m.Events {
		expr, err := o.lower(s, d, ev.Expr, 1)
		if err != nil {
			return nil, fmt.Errorf("cannot discretize event %q: %w", ev.Name, err)
		}
		lowered[i] = &event.Event{Name: ev.Name, Expr: expr, Kind: ev.Kind}
	}
	o.events, err = event.CompileAll(lowered, kopts, o.Params)
	if err != nil {
		return nil, err
	}
	for _, ev := range o.events {
		o.sevents = append(o.sevents, ev)
	}

	// message
	if opts.Verbose {
		hits, misses := o.Context.Stats()
		io.Pf("model %q: %d states, %d equations, %d events, %d Jacobian blocks, %d nodes\n", m.Name, n, len(eqs), len(o.events), blocks.Nonzero(), sym.Count(stack))
		io.Pf("operators: %d built, %d reused. elapsed time = %v\n", misses, hits, time.Since(start))
	}
	return
}

// Size returns the number of equations
func (o *Built) Size() int { return o.Mapping.Size() }

// Residual computes the right-hand sides and algebraic residuals
func (o *Built) Residual(f []float64, t float64, y []float64) error {
	v := o.residual.Eval(t, y, o.Params)
	if err := kern.Finite(v); err != nil {
		return fmt.Errorf("%w: residual at t=%g: %w", solver.ErrNonFiniteEvaluation, t, err)
	}
	copy(f, v)
	return nil
}

// Jacobian adds α ∂f/∂y into T
func (o *Built) Jacobian(T *la.Triplet, α, t float64, y []float64) error {
	err := o.jacobian.Eval(t, y, o.Params)
	if errors.Is(err, kern.ErrNonFinite) {
		return fmt.Errorf("%w: Jacobian at t=%g: %w", solver.ErrNonFiniteEvaluation, t, err)
	}
	if err != nil {
		return err
	}
	o.jacobian.AddTo(T, α)
	return nil
}

// JacobianNnz returns the number of structural entries of the Jacobian
func (o *Built) JacobianNnz() int { return o.jacobian.MaxNnz() }

// Mass returns the diagonal of the mass matrix
func (o *Built) Mass() []float64 { return o.mass }

// Events returns the compiled events
func (o *Built) Events() []solver.Event { return o.sevents }

// Pattern returns the block sparsity of the Jacobian
func (o *Built) Pattern() [][]bool { return o.jacobian.Pattern() }

// Solve integrates the system from Y0
func (o *Built) Solve(ctx context.Context, cfg *solver.Config) (*solver.Solution, error) {
	return solver.Run(ctx, o, o.Y0, cfg)
}

// Clean releases the operator cache
func (o *Built) Clean() {
	if o.Context != nil {
		o.Context.Clear()
	}
}

// auxiliary ////////////////////////////////////////////////////////////////////////////////////

// lower simplifies and discretizes an expression with the given number of rows. Scalars are
// broadcast over the rows of domain variables
func (o *Built) lower(s *simp.Simplifier, d *disc.Discretizer, expr *sym.Node, rows int) (res *sym.Node, err error) {
	res, err = s.Simplify(expr)
	if err != nil {
		return
	}
	res, err = d.Discretize(res)
	if err != nil {
		return
	}
	if res.Shape().Scalar() && rows > 1 {
		res, err = sym.Broadcast(res, nil, rows, false)
		if err != nil {
			return
		}
	}
	if res.Rows() != rows || res.Cols() != 1 {
		return nil, fmt.Errorf("%w: expression %v has %d x %d values; %d x 1 are required", sym.ErrShapeMismatch, expr, res.Rows(), res.Cols(), rows)
	}
	return s.Simplify(res)
}

// mustLookup returns the entry of a mapped variable
func mustLookup(m *disc.Mapping, name string) disc.Entry {
	e, ok := m.Lookup(name)
	if !ok {
		chk.Panic("variable %q is not mapped", name)
	}
	return e
}
