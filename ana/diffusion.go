// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package ana implements analytical solutions of diffusion problems
package ana

import (
	"math"

	"github.com/cpmech/gosl/chk"
)

// Slab computes the concentration in a slab with fixed concentrations at both ends,
// starting from a uniform concentration:
//
//	∂u/∂t = D ∂²u/∂x²    0 ≤ x ≤ L
//	u(0,t) = uL    u(L,t) = uR    u(x,0) = u0
//
//	u = s(x) + Σ bₙ sin(nπx/L) exp(-D (nπ/L)² t)
//	s = uL + (uR - uL) x / L
//	bₙ = 2/(nπ) [(u0 - uL)(1 - (-1)ⁿ) + (uR - uL)(-1)ⁿ]
type Slab struct {
	D      float64 // diffusivity
	L      float64 // length
	U0     float64 // initial concentration
	UL     float64 // concentration at x = 0
	UR     float64 // concentration at x = L
	Nterms int     // number of terms in series; default 200
}

// Init initialises this structure
func (o *Slab) Init(D, L, u0, uL, uR float64) {
	if D <= 0 || L <= 0 {
		chk.Panic("Slab requires positive diffusivity and length; got D=%g and L=%g", D, L)
	}
	o.D, o.L, o.U0, o.UL, o.UR = D, L, u0, uL, uR
	if o.Nterms == 0 {
		o.Nterms = 200
	}
}

// Steady computes the steady state concentration
func (o Slab) Steady(x float64) float64 {
	return o.UL + (o.UR-o.UL)*x/o.L
}

// Calc computes the concentration at (x,t)
func (o Slab) Calc(x, t float64) (u float64) {
	u = o.Steady(x)
	sgn := 1.0
	for n := 1; n <= o.Nterms; n++ {
		sgn = -sgn
		nπ := float64(n) * math.Pi
		b := 2.0 / nπ * ((o.U0-o.UL)*(1-sgn) + (o.UR-o.UL)*sgn)
		k := nπ / o.L
		u += b * math.Sin(k*x) * math.Exp(-o.D*k*k*t)
	}
	return
}
