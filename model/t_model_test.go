// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/cpmech/gobamm/ana"
	"github.com/cpmech/gobamm/disc"
	"github.com/cpmech/gobamm/event"
	"github.com/cpmech/gobamm/inp"
	"github.com/cpmech/gobamm/kern"
	"github.com/cpmech/gobamm/mesh"
	"github.com/cpmech/gobamm/out"
	"github.com/cpmech/gobamm/solver"
	"github.com/cpmech/gobamm/sym"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/google/go-cmp/cmp"
)

func verbose() {
	io.Verbose = true
	chk.Verbose = true
}

// slab returns the diffusion model with u(0) = 0 and u(1) = 1 on a uniform mesh
func slab(tst *testing.T, ncells int) (*Model, *mesh.Mesh) {
	m, err := Diffusion(&DiffusionOptions{
		Variable: "u",
		Left:     &disc.Condition{Kind: disc.Dirichlet, Value: sym.Scalar(0)},
		Right:    &disc.Condition{Kind: disc.Dirichlet, Value: sym.Scalar(1)},
	})
	if err != nil {
		tst.Fatalf("%v", err)
	}
	s, err := mesh.Uniform("x", mesh.Cartesian, 0, 1, ncells)
	if err != nil {
		tst.Fatalf("%v", err)
	}
	msh, err := mesh.New(s)
	if err != nil {
		tst.Fatalf("%v", err)
	}
	return m, msh
}

// sphere returns the particle model discharged at j = 0.1 on a spherical mesh
func sphere(tst *testing.T, ncells int, record float64) (*Model, *mesh.Mesh) {
	m, err := Particle(&ParticleOptions{J0: 0.1, Eta: math.Asinh(1), CMin: 0.5, Record: record})
	if err != nil {
		tst.Fatalf("%v", err)
	}
	s, err := mesh.Uniform("particle", mesh.Spherical, 0, 1, ncells)
	if err != nil {
		tst.Fatalf("%v", err)
	}
	msh, err := mesh.New(s)
	if err != nil {
		tst.Fatalf("%v", err)
	}
	return m, msh
}

func Test_model01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("model01. model checks")

	m := New("empty")
	if err := m.Check(); err == nil {
		tst.Errorf("model without equations should fail")
		return
	}
	u := sym.Variable("u", nil)
	m.AddRhs(u, sym.Neg(u), sym.Scalar(1))
	m.AddAlgebraic(u, u, nil)
	if err := m.Check(); err == nil {
		tst.Errorf("repeated variable should fail")
		return
	}
	m = New("no expression")
	m.AddRhs(u, nil, nil)
	if err := m.Check(); err == nil {
		tst.Errorf("missing expression should fail")
		return
	}

	// merge keeps differential equations first
	a, _ := sphere(tst, 4, 0)
	b, _ := slab(tst, 4)
	m = New("both")
	m.Merge(a, b)
	var names []string
	for _, eq := range m.Equations() {
		names = append(names, eq.Var.Name())
	}
	if diff := cmp.Diff([]string{"c_s", "u", "j"}, names); diff != "" {
		tst.Errorf("equations mismatch (-want +got):\n%s", diff)
		return
	}
	chk.Int(tst, "number of conditions", len(m.BCs), 2)
	chk.Int(tst, "number of parameters", len(m.Params), 6)
	chk.Int(tst, "number of events", len(m.Events), 1)
}

func Test_model02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("model02. diffusion reaches the linear steady state")

	m, msh := slab(tst, 10)
	b, err := Build(m, msh, nil, &Options{Verbose: chk.Verbose})
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	defer b.Clean()
	chk.Int(tst, "size", b.Size(), 10)
	if diff := cmp.Diff([]string{"D"}, b.ParamNames); diff != "" {
		tst.Errorf("parameters mismatch (-want +got):\n%s", diff)
		return
	}
	chk.Array(tst, "y0", 1e-15, b.Y0, make([]float64, 10))
	chk.Array(tst, "mass", 1e-15, b.Mass(), []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1})

	// tridiagonal Jacobian
	if diff := cmp.Diff([][]bool{{true}}, b.Pattern()); diff != "" {
		tst.Errorf("pattern mismatch (-want +got):\n%s", diff)
		return
	}
	if b.JacobianNnz() < 28 {
		tst.Errorf("Jacobian must hold the 28 tridiagonal entries; got %d", b.JacobianNnz())
		return
	}

	// solve
	sol, err := b.Solve(context.Background(), &solver.Config{Method: "be", Tf: 5, Dt: 0.05, DtOut: 0.5})
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	chk.String(tst, sol.Termination, "final time")
	res := out.New(b.Mapping, msh, sol)
	s, _ := msh.Get("x")
	chk.Array(tst, "u(x,5)", 1e-8, res.Final("u"), s.Nodes)
	chk.Float64(tst, "final time", 1e-14, res.Times()[len(res.Times())-1], 5)
	io.Pforan("steps = %d, iterations = %d\n", sol.Nsteps, sol.Nit)
}

func Test_model03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("model03. transient diffusion against series solution")

	var exact ana.Slab
	exact.Init(1, 1, 0, 0, 1)

	m, msh := slab(tst, 40)
	s, _ := msh.Get("x")
	results := make(map[string][]float64)
	for _, backend := range kern.Backends() {
		b, err := Build(m, msh, nil, &Options{Backend: backend})
		if err != nil {
			tst.Errorf("%v", err)
			return
		}
		sol, err := b.Solve(context.Background(), &solver.Config{Method: "be", Tf: 0.1, Dt: 1e-3, DtOut: 0.05})
		b.Clean()
		if err != nil {
			tst.Errorf("%v", err)
			return
		}
		res := out.New(b.Mapping, msh, sol)
		t, _ := sol.Final()
		for i, x := range s.Nodes {
			chk.Float64(tst, io.Sf("%s: u(%g)", backend, x), 2e-2, res.Final("u")[i], exact.Calc(x, t))
		}
		results[backend] = res.Final("u")
	}
	chk.Array(tst, "frozen vs interp", 1e-12, results["frozen"], results["interp"])
}

func Test_model04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("model04. particle against analytical solution")

	var exact ana.SphereFlux
	exact.Init(1, 1, 1, 0.1, 0)

	m, msh := sphere(tst, 20, 0.8)
	b, err := Build(m, msh, map[string]float64{"c_min": 0}, &Options{Serial: true})
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	defer b.Clean()
	chk.Int(tst, "size", b.Size(), 21)
	mass := b.Mass()
	chk.Float64(tst, "mass of c", 1e-15, mass[0], 1)
	chk.Float64(tst, "mass of j", 1e-15, mass[20], 0)
	chk.Float64(tst, "initial flux", 1e-14, b.Y0[20], 0.1)
	chk.Int(tst, "number of events", len(b.Events()), 2)

	// without c_min the particle is discharged until the final time
	sol, err := b.Solve(context.Background(), &solver.Config{Tf: 1.5, Dt: 0.01, DtOut: 0.25})
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	chk.String(tst, sol.Termination, "final time")
	res := out.New(b.Mapping, msh, sol)
	s, _ := msh.Get("particle")
	for i, t := range res.Times() {
		avg, err := res.Average(i, "c_s")
		if err != nil {
			tst.Errorf("%v", err)
			return
		}
		chk.Float64(tst, io.Sf("average at t=%g", t), 1e-9, avg, exact.Average(t))
		chk.Float64(tst, io.Sf("flux at t=%g", t), 1e-12, res.At(i, "j")[0], 0.1)
		if t < 0.25 {
			continue
		}
		for k, r := range s.Nodes {
			chk.Float64(tst, io.Sf("c(%g,%g)", r, t), 2e-3, res.At(i, "c_s")[k], exact.Calc(r, t))
		}
	}

	// record event
	chk.Int(tst, "number of crossings", len(sol.Crossings), 1)
	cross := sol.Crossings[0]
	chk.String(tst, cross.Name, "average concentration")
	if cross.Terminal {
		tst.Errorf("average concentration is a record event")
		return
	}
	chk.Float64(tst, "time of average 0.8", 1e-8, cross.T, 2.0/3.0)
}

func Test_model05(tst *testing.T) {

	//verbose()
	chk.PrintTitle("model05. particle stops at the minimum surface concentration")

	var exact ana.SphereFlux
	exact.Init(1, 1, 1, 0.1, 0)
	tstop, err := exact.Depletion(0.5)
	if err != nil {
		tst.Errorf("%v", err)
		return
	}

	m, msh := sphere(tst, 20, 0)
	b, err := Build(m, msh, nil, nil)
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	defer b.Clean()
	sol, err := b.Solve(context.Background(), &solver.Config{Tf: 3, Dt: 0.01, DtOut: 0.5, EventTol: 1e-8})
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	chk.String(tst, sol.Termination, "event: minimum surface concentration")
	if sol.Approximate {
		tst.Errorf("event should be located within tolerance: %v", sol.Warnings)
		return
	}
	t, y := sol.Final()
	io.Pforan("stopped at t = %.8f; analytical = %.8f\n", t, tstop)
	chk.Float64(tst, "stop time", 5e-3, t, tstop)
	chk.Int(tst, "number of crossings", len(sol.Crossings), 1)
	chk.Float64(tst, "crossing time", 1e-15, sol.Crossings[0].T, t)
	if !sol.Crossings[0].Terminal {
		tst.Errorf("crossing should be terminal")
		return
	}

	// surface value at the stop
	var surface *event.Compiled
	for _, ev := range b.events {
		if ev.Name == "minimum surface concentration" {
			surface = ev
		}
	}
	if surface == nil {
		tst.Errorf("event is missing")
		return
	}
	chk.Float64(tst, "c(R) - c_min", 1e-6, surface.Value(t, y), 0)
}

func Test_model06(tst *testing.T) {

	//verbose()
	chk.PrintTitle("model06. build errors")

	// missing boundary condition
	m, msh := slab(tst, 4)
	m.BCs = make(disc.BCs)
	_, err := Build(m, msh, nil, nil)
	if !errors.Is(err, disc.ErrMissingBoundaryCondition) {
		tst.Errorf("error should be ErrMissingBoundaryCondition; got %v", err)
		return
	}
	io.Pforan("%v\n", err)

	// unknown domain
	m, _ = slab(tst, 4)
	s, _ := mesh.Uniform("y", mesh.Cartesian, 0, 1, 4)
	other, _ := mesh.New(s)
	if _, err = Build(m, other, nil, nil); err == nil {
		tst.Errorf("variable without submesh should fail")
		return
	}

	// initial condition depending on states
	m, msh = slab(tst, 4)
	m.Rhs[0].Initial = m.Rhs[0].Var
	if _, err = Build(m, msh, nil, nil); err == nil {
		tst.Errorf("initial condition depending on states should fail")
		return
	}

	// vector event
	m, msh = slab(tst, 4)
	m.AddEvent("vector", m.Rhs[0].Var, event.Record)
	_, err = Build(m, msh, nil, nil)
	if !errors.Is(err, sym.ErrShapeMismatch) {
		tst.Errorf("error should be ErrShapeMismatch; got %v", err)
	}
}

func Test_model07(tst *testing.T) {

	//verbose()
	chk.PrintTitle("model07. non-finite residual and cancellation")

	// du/dt = -(log(u) + 2) evaluated at a negative state
	u := sym.Variable("u", nil)
	l := sym.Log(u)
	m := New("log")
	m.AddRhs(u, sym.Neg(sym.Must(sym.Add(l, sym.Scalar(2)))), sym.Scalar(1))
	msh, _ := mesh.New()
	b, err := Build(m, msh, nil, nil)
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	f := make([]float64, 1)
	err = b.Residual(f, 0, []float64{-1})
	if !errors.Is(err, solver.ErrNonFiniteEvaluation) || !errors.Is(err, kern.ErrNonFinite) {
		tst.Errorf("error should be ErrNonFiniteEvaluation; got %v", err)
		return
	}

	// cancelled context
	ms, msh2 := slab(tst, 10)
	b, err = Build(ms, msh2, nil, nil)
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = b.Solve(ctx, &solver.Config{Tf: 1})
	if !errors.Is(err, solver.ErrAborted) {
		tst.Errorf("error should be ErrAborted; got %v", err)
	}
}

func Test_model08(tst *testing.T) {

	//verbose()
	chk.PrintTitle("model08. main with input files")

	// json
	sim, err := inp.ReadSim("../inp/data/diffusion.sim")
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	res, err := Main(context.Background(), sim, chk.Verbose)
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	s, _ := res.Mesh.Get("x")
	chk.Array(tst, "u(x,5)", 1e-8, res.Final("u"), s.Nodes)
	chk.Int(tst, "number of outputs", len(res.Times()), 11)
	chk.Int(tst, "index of t=2.5", res.TimeIndex(2.5), 5)

	// hcl
	sim, err = inp.ReadSimHCL("../inp/data/particle.hcl")
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	res, err = Main(context.Background(), sim, chk.Verbose)
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	chk.String(tst, res.Solution.Termination, "final time")
	i := len(res.Times()) - 1
	t := res.Times()[i]
	chk.Float64(tst, "final time", 1e-12, t, 4/math.Pi)
	avg, err := res.Average(i, "c_s")
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	chk.Float64(tst, "final average", 1e-9, avg, 1-0.3*t)
	err = res.Save(tst.TempDir(), sim.Key)
	if err != nil {
		tst.Errorf("%v", err)
		return
	}

	// unknown submodel
	sim.Models[0].Type = "electrolyte"
	if _, err = Main(context.Background(), sim, false); err == nil {
		tst.Errorf("unknown submodel should fail")
	}
}

func Test_model09(tst *testing.T) {

	//verbose()
	chk.PrintTitle("model09. exchange coefficient depending on the surface concentration")

	m, err := Particle(&ParticleOptions{K: 0.1, Eta: math.Asinh(1)})
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	if diff := cmp.Diff(map[string]float64{"D_s": 1, "k": 0.1, "c_e": 1, "c_max": 2, "alpha": 1, "eta": math.Asinh(1), "c_min": 0}, m.Params); diff != "" {
		tst.Errorf("parameters mismatch (-want +got):\n%s", diff)
		return
	}
	s, err := mesh.Uniform("particle", mesh.Spherical, 0, 1, 20)
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	msh, err := mesh.New(s)
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	b, err := Build(m, msh, nil, nil)
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	defer b.Clean()
	chk.Float64(tst, "initial flux", 1e-14, b.Y0[20], 0.1)

	// j = k √(c_e c(R) (c_max - c(R))) sinh(α η) with c(R) extrapolated with slope -j/D
	n, R := s.N(), s.Edges[s.N()]
	tols := map[string]float64{"theta": 1e-8, "radau5": 1e-6}
	for _, method := range []string{"theta", "radau5"} {
		sol, err := b.Solve(context.Background(), &solver.Config{Method: method, Tf: 2, Dt: 0.01, DtOut: 0.25})
		if err != nil {
			tst.Errorf("%s: %v", method, err)
			return
		}
		chk.String(tst, sol.Termination, "final time")
		res := out.New(b.Mapping, msh, sol)
		jprev := 0.1
		for i, t := range res.Times() {
			if i == 0 {
				continue
			}
			c, j := res.At(i, "c_s"), res.At(i, "j")[0]
			surf := c[n-1] - (R-s.Nodes[n-1])*j
			io.Pforan("%s: t=%5.2f c(R)=%.6f j=%.8f\n", method, t, surf, j)
			chk.Float64(tst, io.Sf("%s: j at t=%g", method, t), tols[method], j, 0.1*math.Sqrt(surf*(2-surf)))
			if j >= jprev {
				tst.Errorf("%s: flux must decrease with the surface concentration. j(%g) = %g >= %g", method, t, j, jprev)
				return
			}
			jprev = j
		}
		if jprev > 0.095 {
			tst.Errorf("%s: final flux is too large: %g", method, jprev)
			return
		}
	}
}
