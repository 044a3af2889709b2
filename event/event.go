// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package event implements scalar conditions monitored during time integration
package event

import (
	"fmt"
	"math"

	"github.com/cpmech/gobamm/kern"
	"github.com/cpmech/gobamm/sym"
	"github.com/cpmech/gosl/chk"
)

// Kind defines what happens when an event crosses zero
type Kind int

const (
	Terminate Kind = iota // stop the integration at the crossing
	Record                // log the crossing and continue
)

// KindByName returns the kind with the given name
func KindByName(name string) (Kind, error) {
	switch name {
	case "", "terminate", "stop":
		return Terminate, nil
	case "record", "log":
		return Record, nil
	}
	return 0, chk.Err("unknown kind of event %q", name)
}

// String returns the name of the kind
func (o Kind) String() string {
	if o == Record {
		return "record"
	}
	return "terminate"
}

// Event holds a named scalar expression. The event fires when the expression changes sign
type Event struct {
	Name string    // label
	Expr *sym.Node // scalar expression; discretized before Compile
	Kind Kind      // Terminate or Record
}

// Compiled holds the kernel of an event bound to a parameter vector
type Compiled struct {
	Event
	k    *kern.Kernel // scalar kernel
	prms []float64    // parameters
}

// Compile compiles a discretized event. prms is the parameter vector in the order of opts.Params
func Compile(ev *Event, opts *kern.Options, prms []float64) (o *Compiled, err error) {
	if !ev.Expr.Shape().Scalar() {
		return nil, fmt.Errorf("%w: event %q must be a scalar; got %v", sym.ErrShapeMismatch, ev.Name, ev.Expr)
	}
	k, err := kern.Compile(ev.Expr, opts)
	if err != nil {
		return nil, chk.Err("cannot compile event %q:\n%v", ev.Name, err)
	}
	return &Compiled{Event: *ev, k: k, prms: prms}, nil
}

// CompileAll compiles a list of events
func CompileAll(evs []*Event, opts *kern.Options, prms []float64) (res []*Compiled, err error) {
	names := make(map[string]bool)
	for _, ev := range evs {
		if names[ev.Name] {
			return nil, chk.Err("event %q is defined more than once", ev.Name)
		}
		names[ev.Name] = true
		c, err := Compile(ev, opts, prms)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return
}

// Label returns the name of the event
func (o *Compiled) Label() string { return o.Name }

// Terminal tells whether the event stops the integration
func (o *Compiled) Terminal() bool { return o.Kind == Terminate }

// Value evaluates the event expression
func (o *Compiled) Value(t float64, y []float64) float64 {
	return o.k.EvalScalar(t, y, o.prms)
}

// Clone returns a compiled event with its own buffers
func (o *Compiled) Clone() *Compiled {
	return &Compiled{Event: o.Event, k: o.k.Clone(), prms: o.prms}
}

// Crossed tells whether the value changed sign from prev to cur. Reaching zero counts as a
// crossing; leaving zero does not
func Crossed(prev, cur float64) bool {
	if math.IsNaN(prev) || math.IsNaN(cur) || prev == 0 {
		return false
	}
	return cur == 0 || math.Signbit(prev) != math.Signbit(cur)
}
