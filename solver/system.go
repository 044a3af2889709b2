// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package solver drives the time integration of semi-explicit DAE systems M dy/dt = f(t, y)
// with diagonal mass matrices
package solver

import (
	"github.com/cpmech/gosl/fun/dbf"
	"github.com/cpmech/gosl/la"
)

// System defines the interface of the integrated system
type System interface {

	// Size returns the number of equations
	Size() int

	// Residual computes f(t, y). Failures wrapping ErrNonFiniteEvaluation are retried
	Residual(f []float64, t float64, y []float64) error

	// Jacobian adds α ∂f/∂y into T
	Jacobian(T *la.Triplet, α, t float64, y []float64) error

	// JacobianNnz returns an upper bound of the number of entries of ∂f/∂y
	JacobianNnz() int

	// Mass returns the diagonal of M: 1 for differential and 0 for algebraic equations
	Mass() []float64

	// Events returns the monitored events
	Events() []Event
}

// Event defines a scalar condition monitored after each accepted step
type Event interface {
	Label() string                        // name of event
	Terminal() bool                       // stop at the crossing
	Value(t float64, y []float64) float64 // value of the condition
}

// RetryLimit decides whether a failed step is tried again and with which step size
type RetryLimit interface {
	Next(attempt int, Δt float64, cause error) (Δtnew float64, ok bool)
}

// Halving retries with half the step size
type Halving struct {
	MaxRetries int     // maximum number of retries per step
	DtMin      float64 // minimum step size
}

// Next returns Δt/2 unless the limits are reached
func (o Halving) Next(attempt int, Δt float64, cause error) (float64, bool) {
	if attempt >= o.MaxRetries || Δt/2 < o.DtMin {
		return 0, false
	}
	return Δt / 2, true
}

// Config holds the control parameters of Run
type Config struct {
	Method     string     // stepper: "theta", "be" or "radau5"
	Theta      float64    // θ of the "theta" stepper
	LinSol     string     // linear solver: "umfpack" or "mumps"
	T0         float64    // initial time
	Tf         float64    // final time
	Dt         float64    // maximum (and initial) step size
	DtMin      float64    // minimum step size
	DtOut      float64    // output interval; 0 means every step
	DtFunc     dbf.T      // maximum step size as a function of time; overrides Dt [may be nil]
	DtOutFunc  dbf.T      // output interval as a function of time; overrides DtOut [may be nil]
	Atol       float64    // absolute tolerance of the nonlinear iterations
	Rtol       float64    // relative tolerance of the nonlinear iterations
	NmaxIt     int        // maximum number of nonlinear iterations
	MaxRetries int        // maximum number of retries per step
	EventTol   float64    // tolerance on the location of terminal events
	EventMaxIt int        // maximum number of bisections
	Retry      RetryLimit // retry policy; Halving by default
	Verbose    bool       // show messages
}

// SetDefault sets default values
func (o *Config) SetDefault() {
	if o.Method == "" {
		o.Method = "theta"
	}
	if o.Theta == 0 {
		o.Theta = 0.5
	}
	if o.LinSol == "" {
		o.LinSol = "umfpack"
	}
	if o.Dt == 0 && o.DtFunc != nil {
		o.Dt = o.DtFunc.F(o.T0, nil)
	}
	if o.Dt == 0 {
		o.Dt = (o.Tf - o.T0) / 100
	}
	if o.DtMin == 0 {
		o.DtMin = 1e-10 * o.Dt
	}
	if o.Atol == 0 {
		o.Atol = 1e-10
	}
	if o.Rtol == 0 {
		o.Rtol = 1e-8
	}
	if o.NmaxIt == 0 {
		o.NmaxIt = 20
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = 10
	}
	if o.EventTol == 0 {
		o.EventTol = 1e-10
	}
	if o.EventMaxIt == 0 {
		o.EventMaxIt = 100
	}
	if o.Retry == nil {
		o.Retry = Halving{MaxRetries: o.MaxRetries, DtMin: o.DtMin}
	}
}

// dt returns the maximum step size at t
func (o *Config) dt(t float64) float64 {
	if o.DtFunc != nil {
		return o.DtFunc.F(t, nil)
	}
	return o.Dt
}

// dtout returns the output interval at t
func (o *Config) dtout(t float64) float64 {
	if o.DtOutFunc != nil {
		return o.DtOutFunc.F(t, nil)
	}
	return o.DtOut
}
