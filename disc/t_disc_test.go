// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package disc

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/cpmech/gobamm/kern"
	"github.com/cpmech/gobamm/mesh"
	"github.com/cpmech/gobamm/sym"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/google/go-cmp/cmp"
)

func verbose() {
	io.Verbose = true
	chk.Verbose = true
}

// setup returns a context and the mapping of the variable u on [xmin, xmax] with n cells
func setup(tst *testing.T, coord mesh.Coord, xmin, xmax float64, n int) (ctx *Context, mp *Mapping, u *sym.Node, s *mesh.Submesh) {
	s, err := mesh.Uniform("x", coord, xmin, xmax, n)
	if err != nil {
		tst.Fatalf("%v", err)
	}
	m, err := mesh.New(s)
	if err != nil {
		tst.Fatalf("%v", err)
	}
	u = sym.Variable("u", sym.NewDomain("x"))
	mp, err = NewMapping(m, []*sym.Node{u})
	if err != nil {
		tst.Fatalf("%v", err)
	}
	return NewContext(m), mp, u, s
}

// evaluate discretizes and evaluates g with state y
func evaluate(tst *testing.T, d *Discretizer, g *sym.Node, y []float64) []float64 {
	r, err := d.Discretize(g)
	if err != nil {
		tst.Fatalf("%v", err)
	}
	k, err := kern.Compile(r, nil)
	if err != nil {
		tst.Fatalf("%v", err)
	}
	return k.Eval(0, y, nil)
}

func Test_disc01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("disc01. state vector mapping")

	m, err := mesh.FromEdges(map[string][]float64{
		"x": {0, 0.25, 0.5, 0.75, 1},
		"y": {1, 1.5, 1.75, 2},
	})
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	a := sym.Variable("a", sym.NewDomain("x"))
	b := sym.Variable("b", nil)
	c := sym.Variable("c", sym.NewDomain("x", "y"))
	mp, err := NewMapping(m, []*sym.Node{a, b, c})
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	correct := []Entry{
		{"a", sym.Domain{"x"}, 0, 4},
		{"b", nil, 4, 5},
		{"c", sym.Domain{"x", "y"}, 5, 12},
	}
	if diff := cmp.Diff(correct, mp.Entries()); diff != "" {
		tst.Errorf("entries mismatch (-want +got):\n%s", diff)
		return
	}
	chk.Int(tst, "size", mp.Size(), 12)
	chk.Int(tst, "len", mp.Len(), 3)

	// disjoint ranges covering [0, size)
	owner := make([]int, mp.Size())
	for i := range owner {
		owner[i] = -1
	}
	for k, e := range mp.Entries() {
		for _, i := range e.Indices() {
			if owner[i] >= 0 {
				tst.Errorf("index %d belongs to %q and %q", i, mp.Entries()[owner[i]].Name, e.Name)
				return
			}
			owner[i] = k
		}
	}
	chk.Ints(tst, "owners", owner, []int{0, 0, 0, 0, 1, 2, 2, 2, 2, 2, 2, 2})

	// slices and state nodes
	y := seq(12)
	chk.Array(tst, "y[b]", 1e-15, mp.Slice(y, "b"), []float64{4})
	sc, err := mp.StateSlice("c")
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	chk.Int(tst, "start of c", sc.Start(), 5)
	chk.Int(tst, "end of c", sc.End(), 12)
	_, err = mp.StateSlice("d")
	if !errors.Is(err, ErrUnknownVariable) {
		tst.Errorf("unknown variable should fail. err = %v", err)
	}

	// invalid
	if _, err = NewMapping(m, []*sym.Node{a, a}); err == nil {
		tst.Errorf("repeated variables should fail")
	}
	if _, err = NewMapping(m, []*sym.Node{sym.Variable("z", sym.NewDomain("y", "x"))}); err == nil {
		tst.Errorf("non-adjacent domains should fail")
	}
	if _, err = NewMapping(m, []*sym.Node{sym.Parameter("p")}); err == nil {
		tst.Errorf("parameters cannot be mapped")
	}
}

func Test_disc02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("disc02. convergence of gradient and divergence")

	// u = exp(x) with Dirichlet values at both ends
	bcs := BCs{"u": {
		Left:  &Condition{Dirichlet, sym.Scalar(1)},
		Right: &Condition{Dirichlet, sym.Scalar(math.E)},
	}}
	var eint, ebry, ediv []float64
	for _, n := range []int{10, 20, 40, 80} {
		ctx, mp, u, s := setup(tst, mesh.Cartesian, 0, 1, n)
		d := New(ctx, mp, bcs)
		y := make([]float64, n)
		for i, x := range s.Nodes {
			y[i] = math.Exp(x)
		}

		// gradient
		g := evaluate(tst, d, sym.Must(sym.Grad(u)), y)
		chk.Int(tst, "len(grad)", len(g), n+1)
		e := 0.0
		for k := 1; k < n; k++ {
			e = math.Max(e, math.Abs(g[k]-math.Exp(s.Edges[k])))
		}
		eint = append(eint, e)
		ebry = append(ebry, math.Max(math.Abs(g[0]-1), math.Abs(g[n]-math.E)))

		// divergence of the flux N = exp(x) sampled on the edges
		flux := make([]float64, n+1)
		for k, x := range s.Edges {
			flux[k] = math.Exp(x)
		}
		N := sym.Vector(flux, sym.NewDomain("x"), true)
		v := evaluate(tst, d, sym.Must(sym.Divergence(N)), y)
		e = 0.0
		for i, x := range s.Nodes {
			e = math.Max(e, math.Abs(v[i]-math.Exp(x)))
		}
		ediv = append(ediv, e)
	}
	io.Pforan("interior gradient errors = %v\n", eint)
	io.Pforan("boundary gradient errors = %v\n", ebry)
	io.Pforan("divergence errors        = %v\n", ediv)
	for i := 1; i < len(eint); i++ {
		ri, rb, rd := eint[i-1]/eint[i], ebry[i-1]/ebry[i], ediv[i-1]/ediv[i]
		if ri < 3.6 || ri > 4.4 {
			tst.Errorf("interior gradient should be second order. ratio = %g", ri)
		}
		if rb < 1.8 || rb > 2.2 {
			tst.Errorf("boundary gradient should be first order. ratio = %g", rb)
		}
		if rd < 3.6 || rd > 4.4 {
			tst.Errorf("divergence should be second order. ratio = %g", rd)
		}
	}

	// spherical divergence of N = r is exactly 3
	ctx, mp, _, s := setup(tst, mesh.Spherical, 0, 1, 5)
	N := sym.Vector(s.Edges, sym.NewDomain("x"), true)
	v := evaluate(tst, New(ctx, mp, nil), sym.Must(sym.Divergence(N)), make([]float64, 5))
	chk.Array(tst, "div(r)", 1e-13, v, []float64{3, 3, 3, 3, 3})
}

func Test_disc03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("disc03. boundary values, integrals and Neumann conditions")

	ctx, mp, u, s := setup(tst, mesh.Cartesian, 0, 2, 8)
	y := make([]float64, 8)
	for i, x := range s.Nodes {
		y[i] = 2*x + 1
	}

	// without conditions: linear extrapolation is exact for linear functions
	d := New(ctx, mp, nil)
	chk.Float64(tst, "u(0)", 1e-14, evaluate(tst, d, sym.Must(sym.BoundaryValue(u, sym.Left)), y)[0], 1)
	chk.Float64(tst, "u(2)", 1e-14, evaluate(tst, d, sym.Must(sym.BoundaryValue(u, sym.Right)), y)[0], 5)
	chk.Float64(tst, "∫u", 1e-14, evaluate(tst, d, sym.Must(sym.Integral(u)), y)[0], 6)
	chk.Float64(tst, "avg(u)", 1e-14, evaluate(tst, d, sym.Must(sym.XAverage(u)), y)[0], 3)

	// Dirichlet at the left end, prescribed flux at the right end
	p := sym.Parameter("p")
	bcs := BCs{"u": {
		Left:  &Condition{Dirichlet, sym.Scalar(1)},
		Right: &Condition{Neumann, p},
	}}
	d = New(ctx, mp, bcs)
	r, err := d.Discretize(sym.Must(sym.BoundaryValue(u, sym.Left)))
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	if !r.IsConstant(1) {
		tst.Errorf("boundary value at a Dirichlet end must be the prescribed value. got %v", r)
		return
	}
	r, err = d.Discretize(sym.Must(sym.BoundaryValue(u, sym.Right)))
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	k, err := kern.Compile(r, &kern.Options{Params: []string{"p"}})
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	chk.Float64(tst, "u(2) with flux", 1e-14, k.EvalScalar(0, y, []float64{2}), 5)

	// gradient: Neumann row is the prescribed flux
	r, err = d.Discretize(sym.Must(sym.Grad(u)))
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	k, err = kern.Compile(r, &kern.Options{Params: []string{"p"}})
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	g := k.Eval(0, y, []float64{-7})
	chk.Float64(tst, "flux at right end", 1e-15, g[8], -7)
	chk.Float64(tst, "flux at left end", 1e-13, g[0], 2)
	chk.Float64(tst, "interior", 1e-13, g[4], 2)

	// spherical integral of 1 is the volume of the ball
	ctx, mp, u, _ = setup(tst, mesh.Spherical, 0, 1, 6)
	one := sym.Must(sym.Broadcast(sym.Scalar(1), u.Domain(), sym.Unknown, false))
	vol := evaluate(tst, New(ctx, mp, nil), sym.Must(sym.Integral(one)), make([]float64, 6))
	chk.Float64(tst, "4π/3", 1e-14, vol[0], 4*math.Pi/3)

	// edge average of a linear function is exact at interior edges
	ctx, mp, u, s = setup(tst, mesh.Cartesian, 0, 1, 4)
	for i, x := range s.Nodes {
		y[i] = 3 * x
	}
	ea := evaluate(tst, New(ctx, mp, nil), sym.Must(sym.EdgeAverage(u)), y[:4])
	chk.Array(tst, "edge average", 1e-15, ea, []float64{3 * s.Nodes[0], 0.75, 1.5, 2.25, 3 * s.Nodes[3]})

	// spatial variables
	x, err := sym.SpatialVariable("x", u.Domain(), true)
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	chk.Array(tst, "x on edges", 1e-15, evaluate(tst, New(ctx, mp, nil), x, y[:4]), s.Edges)
}

func Test_disc04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("disc04. errors")

	ctx, mp, u, _ := setup(tst, mesh.Cartesian, 0, 1, 5)

	// no conditions
	_, err := New(ctx, mp, nil).Discretize(sym.Must(sym.Laplacian(u)))
	if !errors.Is(err, ErrMissingBoundaryCondition) {
		tst.Errorf("gradient without conditions should fail. err = %v", err)
		return
	}
	io.Pforan("err = %v\n", err)

	// one end only
	bcs := BCs{"x": {Left: &Condition{Dirichlet, sym.Scalar(0)}}}
	_, err = New(ctx, mp, bcs).Discretize(sym.Must(sym.Grad(u)))
	if !errors.Is(err, ErrMissingBoundaryCondition) {
		tst.Errorf("gradient with a single condition should fail. err = %v", err)
		return
	}

	// conditions found by domain
	bcs["x"] = Boundary{Left: bcs["x"].Left, Right: &Condition{Neumann, nil}}
	if _, err = New(ctx, mp, bcs).Discretize(sym.Must(sym.Grad(u))); err != nil {
		tst.Errorf("conditions given by domain should be found: %v", err)
		return
	}

	// unknown variable
	w := sym.Variable("w", u.Domain())
	_, err = New(ctx, mp, nil).Discretize(sym.Must(sym.Add(u, w)))
	if !errors.Is(err, ErrUnknownVariable) {
		tst.Errorf("unknown variable should fail. err = %v", err)
		return
	}

	// non-scalar boundary value
	bcs = BCs{"u": {Left: &Condition{Dirichlet, u}, Right: &Condition{Dirichlet, sym.Scalar(1)}}}
	_, err = New(ctx, mp, bcs).Discretize(sym.Must(sym.Grad(u)))
	if !errors.Is(err, sym.ErrShapeMismatch) {
		tst.Errorf("field as boundary value should fail. err = %v", err)
	}

	// unknown domain
	q := sym.Variable("q", sym.NewDomain("y"))
	if _, err = NewMapping(ctx.Mesh, []*sym.Node{q}); err == nil {
		tst.Errorf("variable on a domain without mesh should fail")
	}
	_, err = BcKindByName("robin")
	if err == nil {
		tst.Errorf("unknown kind of condition should fail")
	}
}

func Test_disc05(tst *testing.T) {

	//verbose()
	chk.PrintTitle("disc05. operator cache")

	ctx, mp, u, _ := setup(tst, mesh.Cartesian, 0, 1, 6)
	bcs := BCs{"u": {
		Left:  &Condition{Dirichlet, sym.Scalar(0)},
		Right: &Condition{Dirichlet, sym.Scalar(1)},
	}}

	// gradient matrix of a graph
	gradMatrix := func(r *sym.Node) *sym.Matrix {
		for _, n := range sym.PostOrder(r) {
			if n.Kind() == sym.KindMatrix && n.Rows() == 7 {
				return n.Matrix()
			}
		}
		return nil
	}

	// same operator in different graphs
	r1, err := New(ctx, mp, bcs).Discretize(sym.Must(sym.Laplacian(u)))
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	r2, err := New(ctx, mp, bcs).Discretize(sym.Must(sym.Mul(sym.Scalar(2), sym.Must(sym.Grad(u)))))
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	G1, G2 := gradMatrix(r1), gradMatrix(r2)
	if G1 == nil || G1 != G2 {
		tst.Errorf("gradient matrices must be shared: %p != %p", G1, G2)
		return
	}
	hits, misses := ctx.Stats()
	chk.Int(tst, "hits", hits, 1)
	chk.Int(tst, "misses", misses, 2)
	chk.Int(tst, "len", ctx.Len(), 2)

	// concurrent discretizations share one operator
	ctx.Clear()
	chk.Int(tst, "len after clear", ctx.Len(), 0)
	const ngo = 8
	res := make([]*sym.Matrix, ngo)
	errs := make([]error, ngo)
	var wg sync.WaitGroup
	for i := 0; i < ngo; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := New(ctx, mp, bcs).Discretize(sym.Must(sym.Grad(u)))
			errs[i] = err
			if err == nil {
				res[i] = gradMatrix(r)
			}
		}()
	}
	wg.Wait()
	for i := 0; i < ngo; i++ {
		if errs[i] != nil {
			tst.Errorf("%v", errs[i])
			return
		}
		if res[i] == nil || res[i] != res[0] {
			tst.Errorf("goroutine %d got another gradient matrix", i)
			return
		}
	}
	_, misses2 := ctx.Stats()
	chk.Int(tst, "new misses", misses2-misses, 1)
	if res[0] == G1 {
		tst.Errorf("operators must be rebuilt after Clear")
	}
}

// seq returns 0, 1, ... n-1
func seq(n int) (v []float64) {
	v = make([]float64, n)
	for i := range v {
		v[i] = float64(i)
	}
	return
}
