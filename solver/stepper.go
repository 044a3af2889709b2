// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"fmt"
	"math"
	"sort"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
)

// Stepper advances the state of a system by one time step
type Stepper interface {

	// Init allocates buffers
	Init(sys System, cfg *Config) error

	// Step computes y1 at t+Δt from y0 at t; y0 is not modified
	Step(t, Δt float64, y0, y1 []float64) (nit int, err error)

	// Free releases buffers
	Free()
}

// allocators holds all available steppers
var allocators = make(map[string]func(cfg *Config) Stepper)

// Methods returns the names of the available steppers
func Methods() (names []string) {
	for name := range allocators {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

// NewStepper allocates a stepper by name
func NewStepper(cfg *Config) (Stepper, error) {
	alloc, ok := allocators[cfg.Method]
	if !ok {
		return nil, chk.Err("cannot find stepper named %q. available: %v", cfg.Method, Methods())
	}
	return alloc(cfg), nil
}

// thetaMethod implements the θ-method with Newton iterations:
//
//	M (y1 - y0) = Δt θ f(t1, y1) + Δt (1-θ) M f(t0, y0)
//
// Algebraic equations (zero mass) are enforced at t1
type thetaMethod struct {
	θ    float64         // weight of the new state
	sys  System          // system
	cfg  *Config         // control
	mass []float64       // diagonal of M
	f0   []float64       // f(t0, y0)
	f1   []float64       // f(t1, y1)
	r    []float64       // minus the residual of the nonlinear problem
	δ    []float64       // Newton increment
	T    la.Triplet      // iteration matrix M - θ Δt ∂f/∂y
	ls   la.SparseSolver // linear solver
	lsok bool            // ls has been initialised with T
}

// add steppers to factory
func init() {
	allocators["theta"] = func(cfg *Config) Stepper {
		if cfg.Theta <= 0 || cfg.Theta > 1 {
			chk.Panic("θ must be in (0, 1]. θ = %g is invalid", cfg.Theta)
		}
		return &thetaMethod{θ: cfg.Theta}
	}
	allocators["be"] = func(cfg *Config) Stepper {
		return &thetaMethod{θ: 1}
	}
}

// Init allocates buffers
func (o *thetaMethod) Init(sys System, cfg *Config) (err error) {
	n := sys.Size()
	o.sys, o.cfg = sys, cfg
	o.mass = sys.Mass()
	if len(o.mass) != n {
		return chk.Err("mass diagonal has %d entries but the system has %d equations", len(o.mass), n)
	}
	o.f0 = make([]float64, n)
	o.f1 = make([]float64, n)
	o.r = make([]float64, n)
	o.δ = make([]float64, n)
	o.T.Init(n, n, n+sys.JacobianNnz())
	o.ls = la.NewSparseSolver(cfg.LinSol)
	o.lsok = false
	return
}

// Step computes y1 with the Newton-Raphson method using y0 as initial guess
func (o *thetaMethod) Step(t, Δt float64, y0, y1 []float64) (nit int, err error) {

	// explicit part
	if o.θ < 1 {
		err = o.sys.Residual(o.f0, t, y0)
		if err != nil {
			return
		}
	}

	// iterations
	t1 := t + Δt
	copy(y1, y0)
	for nit = 1; nit <= o.cfg.NmaxIt; nit++ {

		// residual
		err = o.sys.Residual(o.f1, t1, y1)
		if err != nil {
			return
		}
		for i, m := range o.mass {
			o.r[i] = m*(y1[i]-y0[i]) - Δt*o.θ*o.f1[i]
			if o.θ < 1 {
				o.r[i] -= Δt * (1 - o.θ) * m * o.f0[i]
			}
			o.r[i] = -o.r[i]
		}

		// iteration matrix
		o.T.Start()
		for i, m := range o.mass {
			if m != 0 {
				o.T.Put(i, i, m)
			}
		}
		err = o.sys.Jacobian(&o.T, -o.θ*Δt, t1, y1)
		if err != nil {
			return
		}
		err = o.factorise(t1)
		if err != nil {
			return
		}

		// update
		o.ls.Solve(o.δ, o.r, false)
		var nrm float64
		for i, d := range o.δ {
			if math.IsNaN(d) || math.IsInf(d, 0) {
				return nit, fmt.Errorf("%w: Newton increment at t=%g", ErrNonFiniteEvaluation, t1)
			}
			y1[i] += d
			nrm = max(nrm, math.Abs(d)/(o.cfg.Atol+o.cfg.Rtol*math.Abs(y1[i])))
		}
		if nrm <= 1 {
			return
		}
	}
	return o.cfg.NmaxIt, fmt.Errorf("%w: %d iterations at t=%g", ErrNoConvergence, o.cfg.NmaxIt, t1)
}

// Free releases buffers
func (o *thetaMethod) Free() {
	o.sys = nil
	o.f0, o.f1, o.r, o.δ = nil, nil, nil, nil
	if o.ls != nil {
		o.ls.Free()
		o.ls = nil
	}
}

// factorise factorises the iteration matrix. The linear solver panics on singular matrices
func (o *thetaMethod) factorise(t float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: cannot factorise iteration matrix at t=%g: %v", ErrNoConvergence, t, r)
		}
	}()
	if !o.lsok {
		o.ls.Init(&o.T, nil)
		o.lsok = true
	}
	o.ls.Fact()
	return
}
