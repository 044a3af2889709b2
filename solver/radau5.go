// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"fmt"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/ode"
)

// radau5 advances each step with the Radau IIA method of order 5 and internal error control.
// The singular mass matrix of algebraic equations is handled by the method
type radau5 struct {
	sys  System      // system
	n    int         // number of equations
	M    la.Triplet  // mass matrix
	conf *ode.Config // configuration of the ODE solver
	ode  *ode.Solver // ODE solver
	err  error       // failure of the system within the last step
}

// add stepper to factory
func init() {
	allocators["radau5"] = func(cfg *Config) Stepper {
		return new(radau5)
	}
}

// Init allocates the ODE solver
func (o *radau5) Init(sys System, cfg *Config) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = chk.Err("cannot initialise radau5 stepper: %v", r)
		}
	}()
	o.sys, o.n = sys, sys.Size()
	mass := sys.Mass()
	if len(mass) != o.n {
		return chk.Err("mass diagonal has %d entries but the system has %d equations", len(mass), o.n)
	}
	o.M.Init(o.n, o.n, o.n)
	for i, m := range mass {
		if m != 0 {
			o.M.Put(i, i, m)
		}
	}
	o.conf = ode.NewConfig("radau5", cfg.LinSol, nil)
	o.conf.SetTols(cfg.Atol, cfg.Rtol)
	o.conf.Hmin = cfg.DtMin
	o.ode = ode.NewSolver(o.n, o.conf, o.fcn, o.jac, &o.M)
	return
}

// Step integrates from (t, y0) to t+Δt
func (o *radau5) Step(t, Δt float64, y0, y1 []float64) (nit int, err error) {
	defer func() {
		if r := recover(); r != nil {
			if o.err != nil {
				err = o.err
				return
			}
			err = fmt.Errorf("%w: radau5 at t=%g: %v", ErrNoConvergence, t, r)
		}
	}()
	o.err = nil
	o.conf.IniH = Δt
	copy(y1, y0)
	o.ode.Solve(y1, t, t+Δt)
	return o.ode.Stat.Nitmax, nil
}

// Free releases the linear solvers
func (o *radau5) Free() {
	if o.ode != nil {
		o.ode.Free()
		o.ode = nil
	}
	o.sys = nil
}

// auxiliary ////////////////////////////////////////////////////////////////////////////////////

// fcn computes f(x, y). Failures stop the ODE solver
func (o *radau5) fcn(f la.Vector, h, x float64, y la.Vector) {
	if err := o.sys.Residual(f, x, y); err != nil {
		o.err = err
		panic(err)
	}
}

// jac computes ∂f/∂y
func (o *radau5) jac(dfdy *la.Triplet, h, x float64, y la.Vector) {
	if dfdy.Max() == 0 {
		dfdy.Init(o.n, o.n, o.sys.JacobianNnz())
	}
	dfdy.Start()
	if err := o.sys.Jacobian(dfdy, 1, x, y); err != nil {
		o.err = err
		panic(err)
	}
}
