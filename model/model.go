// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package model assembles symbolic models into numeric systems and drives simulations
package model

import (
	"github.com/cpmech/gobamm/disc"
	"github.com/cpmech/gobamm/event"
	"github.com/cpmech/gobamm/sym"
	"github.com/cpmech/gosl/chk"
)

// Equation holds the equation of one state variable
type Equation struct {
	Var     *sym.Node // Variable node
	Expr    *sym.Node // right-hand side (dy/dt = Expr) or algebraic residual (0 = Expr)
	Initial *sym.Node // initial condition; may depend on parameters and space but not on states
}

// Model holds the symbolic description of a semi-explicit DAE system
type Model struct {
	Name      string             // name of model
	Rhs       []*Equation        // differential equations
	Algebraic []*Equation        // algebraic equations
	BCs       disc.BCs           // boundary conditions
	Events    []*event.Event     // monitored events
	Params    map[string]float64 // default values of parameters
}

// New returns an empty model
func New(name string) *Model {
	return &Model{Name: name, BCs: make(disc.BCs), Params: make(map[string]float64)}
}

// AddRhs adds dv/dt = f with v(0) = ic
func (o *Model) AddRhs(v, f, ic *sym.Node) {
	o.Rhs = append(o.Rhs, &Equation{v, f, ic})
}

// AddAlgebraic adds 0 = g with initial guess v(0) = ic
func (o *Model) AddAlgebraic(v, g, ic *sym.Node) {
	o.Algebraic = append(o.Algebraic, &Equation{v, g, ic})
}

// AddEvent adds an event
func (o *Model) AddEvent(name string, expr *sym.Node, kind event.Kind) {
	o.Events = append(o.Events, &event.Event{Name: name, Expr: expr, Kind: kind})
}

// Merge appends the equations, conditions, events and parameters of other models
func (o *Model) Merge(others ...*Model) {
	for _, m := range others {
		o.Rhs = append(o.Rhs, m.Rhs...)
		o.Algebraic = append(o.Algebraic, m.Algebraic...)
		o.Events = append(o.Events, m.Events...)
		for key, bc := range m.BCs {
			o.BCs[key] = bc
		}
		for key, v := range m.Params {
			o.Params[key] = v
		}
	}
}

// Equations returns the differential equations followed by the algebraic ones. This is the
// order of variables in the state vector
func (o *Model) Equations() []*Equation {
	return append(append([]*Equation{}, o.Rhs...), o.Algebraic...)
}

// Check checks that each variable has one equation
func (o *Model) Check() (err error) {
	seen := make(map[string]bool)
	for _, eq := range o.Equations() {
		if eq.Var == nil || eq.Var.Kind() != sym.KindVariable {
			return chk.Err("model %q: equations must be associated with variables; got %v", o.Name, eq.Var)
		}
		if eq.Expr == nil {
			return chk.Err("model %q: equation of %q has no expression", o.Name, eq.Var.Name())
		}
		if seen[eq.Var.Name()] {
			return chk.Err("model %q: variable %q has more than one equation", o.Name, eq.Var.Name())
		}
		seen[eq.Var.Name()] = true
	}
	if len(seen) == 0 {
		return chk.Err("model %q has no equations", o.Name)
	}
	return
}
