// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ana

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/gosl/num"
)

// SphereFlux computes the concentration in a sphere losing a constant flux through its
// surface, starting from a uniform concentration:
//
//	∂c/∂t = D/r² ∂/∂r (r² ∂c/∂r)    0 ≤ r ≤ R
//	∂c/∂r(0,t) = 0    D ∂c/∂r(R,t) = -j    c(r,0) = c0
//
//	c = c0 - jR/D [3Dt/R² + r²/(2R²) - 3/10 - 2R/r Σ sin(αₙr) / (αₙ²R² sin(αₙR)) exp(-Dαₙ²t)]
//
// where αₙR are the positive roots of tan(x) = x
type SphereFlux struct {
	D     float64   // diffusivity
	R     float64   // radius
	C0    float64   // initial concentration
	J     float64   // outward flux
	roots []float64 // αₙ
}

// Init initialises this structure. nterms is the number of terms in the series; 0 means 50
func (o *SphereFlux) Init(D, R, c0, j float64, nterms int) {
	if D <= 0 || R <= 0 {
		chk.Panic("SphereFlux requires positive diffusivity and radius; got D=%g and R=%g", D, R)
	}
	o.D, o.R, o.C0, o.J = D, R, c0, j
	if nterms == 0 {
		nterms = 50
	}
	o.roots = make([]float64, nterms)
	for n := range o.roots {
		o.roots[n] = tanroot(n+1) / R
	}
}

// Roots returns the eigenvalues αₙ
func (o SphereFlux) Roots() []float64 { return o.roots }

// Calc computes the concentration at (r,t)
func (o SphereFlux) Calc(r, t float64) float64 {
	R := o.R
	sum := 0.0
	for _, α := range o.roots {
		var sr float64 // sin(αr)/r
		if r < 1e-14*R {
			sr = α
		} else {
			sr = math.Sin(α*r) / r
		}
		sum += sr / (α * α * R * R * math.Sin(α*R)) * math.Exp(-o.D*α*α*t)
	}
	return o.C0 - o.J*R/o.D*(3*o.D*t/(R*R)+r*r/(2*R*R)-0.3-2*R*sum)
}

// Average computes the volume average of the concentration
func (o SphereFlux) Average(t float64) float64 {
	return o.C0 - 3*o.J*t/o.R
}

// Surface computes the concentration at r = R
func (o SphereFlux) Surface(t float64) float64 {
	return o.Calc(o.R, t)
}

// Depletion computes the time when the surface concentration reaches cmin
func (o SphereFlux) Depletion(cmin float64) (t float64, err error) {
	if o.J <= 0 || cmin >= o.C0 {
		return 0, chk.Err("the surface concentration never reaches %g", cmin)
	}
	f := func(t float64) float64 { return o.Surface(t) - cmin }
	tmax := 2*(o.C0-cmin)*o.R/(3*o.J) + o.R*o.R/o.D
	if f(tmax) >= 0 {
		return 0, chk.Err("the surface concentration does not reach %g before t=%g", cmin, tmax)
	}
	return root(f, 0, tmax), nil
}

// auxiliary /////////////////////////////////////////////////////////////////////////////////////

// tanroot returns the n-th positive root of tan(x) = x, which lies in (nπ, (n+½)π)
func tanroot(n int) float64 {
	a := float64(n) * math.Pi
	return root(func(x float64) float64 { return math.Sin(x) - x*math.Cos(x) }, a, a+math.Pi/2)
}

// root finds the root of f bracketed by [a, b] with Brent's method
func root(f fun.Ss, a, b float64) float64 {
	solver := num.NewBrent(f, nil)
	solver.Tol = 1e-14
	return solver.Root(a, b)
}
