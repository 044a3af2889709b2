// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"context"
	"fmt"
	"math"

	"github.com/cpmech/gobamm/event"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// Crossing holds the location of an event
type Crossing struct {
	Name     string    // event label
	T        float64   // time of crossing
	Y        []float64 // state at crossing
	Terminal bool      // the integration stopped here
}

// Solution holds the output of Run
type Solution struct {
	T           []float64   // output times
	Y           [][]float64 // [len(T)][size] states
	Termination string      // "final time" or "event: <name>"
	Crossings   []Crossing  // located events in chronological order
	Approximate bool        // a terminal event was located within less than EventTol
	Warnings    []error     // non-fatal problems
	Nsteps      int         // number of accepted steps
	Nretries    int         // number of rejected steps
	Nit         int         // total number of nonlinear iterations
}

// Final returns the last time and state
func (o *Solution) Final() (t float64, y []float64) {
	n := len(o.T)
	if n == 0 {
		return
	}
	return o.T[n-1], o.Y[n-1]
}

// Run integrates sys from y0 at cfg.T0 to cfg.Tf. Failed steps wrapping a retryable error are
// retried with the step sizes given by cfg.Retry. Terminal failures are returned as *SolveError
// together with the solution computed so far
func Run(ctx context.Context, sys System, y0 []float64, cfg *Config) (sol *Solution, err error) {

	// check
	if cfg == nil {
		cfg = new(Config)
	}
	cfg.SetDefault()
	n := sys.Size()
	if len(y0) != n {
		return nil, chk.Err("initial state has %d entries but the system has %d equations", len(y0), n)
	}
	if cfg.Tf < cfg.T0 {
		return nil, chk.Err("final time %g must not be smaller than initial time %g", cfg.Tf, cfg.T0)
	}

	// stepper
	stp, err := NewStepper(cfg)
	if err != nil {
		return
	}
	err = stp.Init(sys, cfg)
	if err != nil {
		return
	}
	defer stp.Free()

	// control
	t := cfg.T0
	y := clone(y0)
	ynew := make([]float64, n)
	evs := sys.Events()
	g := make([]float64, len(evs))
	gnew := make([]float64, len(evs))
	for k, ev := range evs {
		g[k] = ev.Value(t, y)
	}

	// first output
	sol = new(Solution)
	sol.add(t, y)
	tout := t + cfg.dtout(t)

	// time loop; Δt caps the step size after retries
	Δt := math.Inf(1)
	for step := 0; t < cfg.Tf; step++ {

		// cancellation
		select {
		case <-ctx.Done():
			return sol, &SolveError{T: t, Y: clone(y), Step: step, Err: fmt.Errorf("%w: %w", ErrAborted, ctx.Err())}
		default:
		}

		// step size
		dtmax := cfg.dt(t)
		if !(dtmax > 0) {
			return sol, &SolveError{T: t, Y: clone(y), Step: step, Err: chk.Err("step size must be positive. Δt(%g) = %g", t, dtmax)}
		}

		// step with retries
		h, lasttimestep := min(Δt, dtmax), false
		if t+h >= cfg.Tf-cfg.DtMin {
			h, lasttimestep = cfg.Tf-t, true
		}
		for attempt := 0; ; attempt++ {
			nit, e := stp.Step(t, h, y, ynew)
			sol.Nit += nit
			if e == nil {
				break
			}
			if !Retryable(e) {
				return sol, &SolveError{T: t, Y: clone(y), Step: step, Err: e}
			}
			hnew, ok := cfg.Retry.Next(attempt, h, e)
			if !ok {
				err = fmt.Errorf("%w after %d attempts with Δt=%g: %w", ErrRetriesExhausted, attempt+1, h, e)
				return sol, &SolveError{T: t, Y: clone(y), Step: step, Err: err}
			}
			if cfg.Verbose {
				io.Pfyel("t=%g: step rejected (%v). retrying with Δt=%g\n", t, e, hnew)
			}
			sol.Nretries++
			h, Δt = hnew, hnew
			lasttimestep = false
		}
		t1 := t + h
		if lasttimestep {
			t1 = cfg.Tf
		}

		// events
		for k, ev := range evs {
			gnew[k] = ev.Value(t1, ynew)
		}
		stop, tstop, ystop, werr := locateTerminal(stp, evs, t, h, y, ynew, g, gnew, cfg)
		if werr != nil {
			sol.Warnings = append(sol.Warnings, werr)
			sol.Approximate = true
			if cfg.Verbose {
				io.Pfyel("%v\n", werr)
			}
		}
		for k, ev := range evs {
			if ev.Terminal() || !event.Crossed(g[k], gnew[k]) {
				continue
			}
			α := g[k] / (g[k] - gnew[k])
			tc := t + α*h
			if stop >= 0 && tc > tstop {
				continue
			}
			yc := make([]float64, n)
			for i := range yc {
				yc[i] = y[i] + α*(ynew[i]-y[i])
			}
			sol.Crossings = append(sol.Crossings, Crossing{Name: ev.Label(), T: tc, Y: yc})
			if cfg.Verbose {
				io.Pfcyan("event %q recorded at t=%g\n", ev.Label(), tc)
			}
		}
		sol.Nsteps++
		if stop >= 0 {
			sol.Crossings = append(sol.Crossings, Crossing{Name: evs[stop].Label(), T: tstop, Y: ystop, Terminal: true})
			sol.Termination = "event: " + evs[stop].Label()
			sol.add(tstop, ystop)
			if cfg.Verbose {
				io.Pfcyan("event %q stopped the integration at t=%g\n", evs[stop].Label(), tstop)
			}
			return
		}

		// accept
		t = t1
		y, ynew = ynew, y
		g, gnew = gnew, g
		if h == Δt {
			Δt *= 2
			if Δt >= cfg.dt(t) {
				Δt = math.Inf(1)
			}
		}

		// message
		if cfg.Verbose {
			io.PfWhite("%30.15f\r", t)
		}

		// output
		if t >= tout-cfg.DtMin || lasttimestep {
			sol.add(t, y)
			tout += cfg.dtout(t)
		}
	}
	sol.Termination = "final time"
	return
}

// add appends an output sample
func (o *Solution) add(t float64, y []float64) {
	o.T = append(o.T, t)
	o.Y = append(o.Y, clone(y))
}

// auxiliary ////////////////////////////////////////////////////////////////////////////////////

// locateTerminal bisects all terminal events crossed within [t, t+h] by re-stepping from (t, y).
// y1 is the accepted state at t+h. It returns the index of the earliest event or -1.
// werr is not nil if a location is approximate
func locateTerminal(stp Stepper, evs []Event, t, h float64, y, y1, g, gnew []float64, cfg *Config) (stop int, tstop float64, ystop []float64, werr error) {
	stop = -1
	ym := make([]float64, len(y))
	for k, ev := range evs {
		if !ev.Terminal() || !event.Crossed(g[k], gnew[k]) {
			continue
		}
		a, b := 0.0, h
		var yb []float64
		converged := false
		var serr error
		for it := 0; it < cfg.EventMaxIt; it++ {
			if b-a <= cfg.EventTol {
				converged = true
				break
			}
			mid := (a + b) / 2
			_, serr = stp.Step(t, mid, y, ym)
			if serr != nil {
				break
			}
			if event.Crossed(g[k], ev.Value(t+mid, ym)) {
				b = mid
				yb = clone(ym)
			} else {
				a = mid
			}
		}
		if !converged && b-a <= cfg.EventTol {
			converged = true
		}
		if yb == nil {
			yb = clone(y1)
		}
		if !converged {
			werr = fmt.Errorf("%w: event %q bracketed in [%g, %g]", ErrEventLocalization, ev.Label(), t+a, t+b)
			if serr != nil {
				werr = fmt.Errorf("%w: %w", werr, serr)
			}
		}
		if stop < 0 || t+b < tstop {
			stop, tstop, ystop = k, t+b, yb
		}
	}
	return
}

// clone returns a copy of y
func clone(y []float64) []float64 { return append([]float64(nil), y...) }
