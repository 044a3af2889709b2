// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

import (
	"github.com/cpmech/gobamm/disc"
	"github.com/cpmech/gobamm/event"
	"github.com/cpmech/gobamm/sym"
)

// DiffusionOptions holds the options of the diffusion submodel
//
//	∂c/∂t = ∇·(D ∇c) + s
type DiffusionOptions struct {
	Variable    string          // name of variable; default "c"
	Domain      string          // name of domain; default "x"
	Diffusivity string          // name of the diffusivity parameter; default "D"
	D           float64         // default value of the diffusivity; default 1
	Left        *disc.Condition // condition at xmin; default zero flux
	Right       *disc.Condition // condition at xmax; default zero flux
	Source      *sym.Node       // source term; may be nil
	Initial     *sym.Node       // initial condition; default 0
}

// SetDefault sets default values
func (o *DiffusionOptions) SetDefault() {
	if o.Variable == "" {
		o.Variable = "c"
	}
	if o.Domain == "" {
		o.Domain = "x"
	}
	if o.Diffusivity == "" {
		o.Diffusivity = "D"
	}
	if o.D == 0 {
		o.D = 1
	}
	if o.Left == nil {
		o.Left = &disc.Condition{Kind: disc.Neumann}
	}
	if o.Right == nil {
		o.Right = &disc.Condition{Kind: disc.Neumann}
	}
	if o.Initial == nil {
		o.Initial = sym.Scalar(0)
	}
}

// Diffusion returns the diffusion submodel
func Diffusion(opts *DiffusionOptions) (o *Model, err error) {
	if opts == nil {
		opts = new(DiffusionOptions)
	}
	opts.SetDefault()
	c := sym.Variable(opts.Variable, sym.NewDomain(opts.Domain))
	grad, err := sym.Grad(c)
	if err != nil {
		return
	}
	flux, err := sym.Mul(sym.Parameter(opts.Diffusivity), grad)
	if err != nil {
		return
	}
	rhs, err := sym.Divergence(flux)
	if err != nil {
		return
	}
	if opts.Source != nil {
		rhs, err = sym.Add(rhs, opts.Source)
		if err != nil {
			return
		}
	}
	o = New("diffusion of " + opts.Variable)
	o.AddRhs(c, rhs, opts.Initial)
	o.BCs[opts.Variable] = disc.Boundary{Left: opts.Left, Right: opts.Right}
	o.Params[opts.Diffusivity] = opts.D
	return
}

// ParticleOptions holds the options of the spherical particle submodel
//
//	∂c/∂t = ∇·(D ∇c)        with  ∂c/∂r(0) = 0  and  D ∂c/∂r(R) = -j
//	0 = j - j₀ sinh(α η)
//
// The surface flux j is an algebraic variable. With K = 0 the exchange coefficient j₀ is a
// parameter; otherwise it depends on the surface concentration c(R):
//
//	j₀ = k √(c_e c(R) (c_max - c(R)))
//
// The integration stops when the surface concentration reaches c_min
type ParticleOptions struct {
	Variable string  // name of concentration; default "c_s"
	Flux     string  // name of the surface flux; default "j"
	Domain   string  // name of domain; default "particle"
	D        float64 // diffusivity (parameter "D_s"); default 1
	J0       float64 // exchange coefficient (parameter "j0"); default 1
	K        float64 // reaction rate (parameter "k"); 0 means constant j0
	Ce       float64 // electrolyte concentration (parameter "c_e"); default 1
	CMax     float64 // maximum concentration (parameter "c_max"); default 2 C0
	Alpha    float64 // transfer coefficient (parameter "alpha"); default 1
	Eta      float64 // overpotential (parameter "eta"); default 0
	C0       float64 // initial concentration; default 1
	CMin     float64 // minimum surface concentration (parameter "c_min"); default 0
	Record   float64 // record when the average concentration crosses this value; 0 means none
}

// SetDefault sets default values
func (o *ParticleOptions) SetDefault() {
	if o.Variable == "" {
		o.Variable = "c_s"
	}
	if o.Flux == "" {
		o.Flux = "j"
	}
	if o.Domain == "" {
		o.Domain = "particle"
	}
	if o.D == 0 {
		o.D = 1
	}
	if o.J0 == 0 {
		o.J0 = 1
	}
	if o.Alpha == 0 {
		o.Alpha = 1
	}
	if o.C0 == 0 {
		o.C0 = 1
	}
	if o.Ce == 0 {
		o.Ce = 1
	}
	if o.CMax == 0 {
		o.CMax = 2 * o.C0
	}
}

// Particle returns the spherical particle submodel
func Particle(opts *ParticleOptions) (o *Model, err error) {
	if opts == nil {
		opts = new(ParticleOptions)
	}
	opts.SetDefault()
	c := sym.Variable(opts.Variable, sym.NewDomain(opts.Domain))
	j := sym.Variable(opts.Flux, nil)
	D := sym.Parameter("D_s")

	// diffusion
	grad, err := sym.Grad(c)
	if err != nil {
		return
	}
	flux, err := sym.Mul(D, grad)
	if err != nil {
		return
	}
	rhs, err := sym.Divergence(flux)
	if err != nil {
		return
	}

	// exchange coefficient at the surface and at the start
	surf, err := sym.BoundaryValue(c, sym.Right)
	if err != nil {
		return
	}
	j0, j0ini := sym.Parameter("j0"), sym.Parameter("j0")
	if opts.K != 0 {
		j0, err = exchange(surf)
		if err != nil {
			return
		}
		j0ini, err = exchange(sym.Scalar(opts.C0))
		if err != nil {
			return
		}
	}

	// surface flux
	αη, err := sym.Mul(sym.Parameter("alpha"), sym.Parameter("eta"))
	if err != nil {
		return
	}
	kinetics, err := sym.Mul(j0, sym.Sinh(αη))
	if err != nil {
		return
	}
	initial, err := sym.Mul(j0ini, sym.Sinh(αη))
	if err != nil {
		return
	}
	residual, err := sym.Sub(j, kinetics)
	if err != nil {
		return
	}
	slope, err := sym.Div(sym.Neg(j), D)
	if err != nil {
		return
	}

	// events
	depletion, err := sym.Sub(surf, sym.Parameter("c_min"))
	if err != nil {
		return
	}

	// model
	o = New("particle " + opts.Variable)
	o.AddRhs(c, rhs, sym.Scalar(opts.C0))
	o.AddAlgebraic(j, residual, initial)
	o.BCs[opts.Variable] = disc.Boundary{
		Left:  &disc.Condition{Kind: disc.Neumann},
		Right: &disc.Condition{Kind: disc.Neumann, Value: slope},
	}
	o.AddEvent("minimum surface concentration", depletion, event.Terminate)
	if opts.Record != 0 {
		avg, err := sym.XAverage(c)
		if err != nil {
			return nil, err
		}
		crossing, err := sym.Sub(avg, sym.Scalar(opts.Record))
		if err != nil {
			return nil, err
		}
		o.AddEvent("average concentration", crossing, event.Record)
	}
	o.Params["D_s"] = opts.D
	if opts.K != 0 {
		o.Params["k"] = opts.K
		o.Params["c_e"] = opts.Ce
		o.Params["c_max"] = opts.CMax
	} else {
		o.Params["j0"] = opts.J0
	}
	o.Params["alpha"] = opts.Alpha
	o.Params["eta"] = opts.Eta
	o.Params["c_min"] = opts.CMin
	return
}

// exchange returns the exchange coefficient k √(c_e c (c_max - c))
func exchange(c *sym.Node) (*sym.Node, error) {
	free, err := sym.Sub(sym.Parameter("c_max"), c)
	if err != nil {
		return nil, err
	}
	prod, err := sym.Mul(sym.Parameter("c_e"), c)
	if err != nil {
		return nil, err
	}
	prod, err = sym.Mul(prod, free)
	if err != nil {
		return nil, err
	}
	return sym.Mul(sym.Parameter("k"), sym.Sqrt(prod))
}
