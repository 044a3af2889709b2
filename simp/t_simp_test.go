// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package simp

import (
	"math"
	"testing"

	"github.com/cpmech/gobamm/kern"
	"github.com/cpmech/gobamm/sym"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

func verbose() {
	io.Verbose = true
	chk.Verbose = true
}

// simplified returns the simplified graph or fails the test
func simplified(tst *testing.T, g *sym.Node) *sym.Node {
	res, err := Simplify(g)
	if err != nil {
		tst.Fatalf("%v", err)
	}
	return res
}

func Test_simp01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("simp01. rewrite rules")

	x := sym.Parameter("x")
	y := sym.Parameter("y")

	// identities
	if r := simplified(tst, sym.Must(sym.Add(x, sym.Scalar(0)))); r != x {
		tst.Errorf("x + 0 should give x. got %v", r)
	}
	if r := simplified(tst, sym.Must(sym.Mul(sym.Scalar(1), x))); r != x {
		tst.Errorf("1 * x should give x. got %v", r)
	}
	if r := simplified(tst, sym.Must(sym.Div(x, sym.Scalar(1)))); r != x {
		tst.Errorf("x / 1 should give x. got %v", r)
	}
	if r := simplified(tst, sym.Neg(sym.Neg(x))); r != x {
		tst.Errorf("--x should give x. got %v", r)
	}
	if r := simplified(tst, sym.Must(sym.Pow(x, sym.Scalar(1)))); r != x {
		tst.Errorf("x^1 should give x. got %v", r)
	}

	// zeros
	r := simplified(tst, sym.Must(sym.Mul(sym.Scalar(0), x)))
	if !r.IsZero() || r.Shape() != x.Shape() {
		tst.Errorf("0 * x should give the zero sentinel. got %v", r)
	}
	r = simplified(tst, sym.Must(sym.Sub(sym.Scalar(0), x)))
	if r.Kind() != sym.KindNeg || r.Child(0) != x {
		tst.Errorf("0 - x should give -x. got %v", r)
	}

	// folding
	r = simplified(tst, sym.Must(sym.Mul(sym.Must(sym.Add(sym.Scalar(2), sym.Scalar(3))), sym.Exp(sym.Scalar(0)))))
	if r.Kind() != sym.KindScalar {
		tst.Errorf("constant subgraph should be folded. got %v", r)
		return
	}
	chk.Float64(tst, "(2+3)·exp(0)", 1e-15, r.Value(), 5)
	r = simplified(tst, sym.Must(sym.Pow(y, sym.Scalar(0))))
	if !r.IsConstant(1) {
		tst.Errorf("y^0 should give 1. got %v", r)
	}
	v := sym.Vector([]float64{1, 2, 3}, nil, false)
	r = simplified(tst, sym.Must(sym.Mul(sym.Scalar(2), v)))
	chk.Array(tst, "2·[1,2,3]", 1e-15, r.Data(), []float64{2, 4, 6})

	// rules needing nonzero proofs are never applied
	r = simplified(tst, sym.Must(sym.Div(x, x)))
	if r.Kind() != sym.KindDiv {
		tst.Errorf("x/x must not be simplified. got %v", r)
	}
	r = simplified(tst, sym.Must(sym.Div(sym.Scalar(0), y)))
	if r.Kind() != sym.KindDiv {
		tst.Errorf("0/y must not be simplified. got %v", r)
	}
}

func Test_simp02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("simp02. common subexpressions")

	x := sym.Parameter("x")
	y := sym.Parameter("y")

	// two syntactically identical branches
	left := sym.Must(sym.Mul(sym.Exp(x), y))
	right := sym.Must(sym.Mul(sym.Exp(x), y))
	g := sym.Must(sym.Add(left, right))
	chk.Int(tst, "nodes before", sym.Count(g), 7)

	s := New()
	r, err := s.Simplify(g)
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	if r.Child(0) != r.Child(1) {
		tst.Errorf("identical branches must collapse into one node:\n%s", sym.Format(r))
		return
	}
	chk.Int(tst, "nodes after", sym.Count(r), 5)
	io.Pforan("%s", sym.Format(r))

	// the same simplifier returns the same nodes for equivalent graphs
	again, err := s.Simplify(sym.Must(sym.Mul(sym.Exp(x), y)))
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	if again != r.Child(0) {
		tst.Errorf("interned node must be reused")
	}
}

func Test_simp03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("simp03. idempotence and invariance of shapes")

	dom := sym.NewDomain("electrode")
	u := sym.Must(sym.StateSlice("u", 0, 4, dom))
	p := sym.Parameter("p")
	one := sym.Vector([]float64{1, 1, 1, 1}, dom, false)
	A := sym.MatrixNode(sym.NewMatrix(4, 4, []int{0, 1, 2, 3, 3}, []int{0, 1, 2, 3, 0}, []float64{2, 2, 2, 2, 1}), dom, false)
	B := sym.MatrixNode(sym.Identity(4), dom, false)

	// A (B (u·1 + 0·p)) + exp(p)·(u - 0)
	inner := sym.Must(sym.Add(sym.Must(sym.Mul(u, one)), sym.Must(sym.Mul(sym.Scalar(0), p))))
	g := sym.Must(sym.Add(
		sym.Must(sym.MatVec(A, sym.Must(sym.MatVec(B, inner)))),
		sym.Must(sym.Mul(sym.Exp(p), sym.Must(sym.Sub(u, sym.ZeroLike(u))))),
	))

	r1 := simplified(tst, g)
	if r1.Shape() != g.Shape() || !r1.Domain().Equal(g.Domain()) {
		tst.Errorf("simplification changed shape or domain: %v => %v", g, r1)
		return
	}
	if r1.Child(0).Kind() != sym.KindMatVec || r1.Child(0).Child(1) != u {
		tst.Errorf("chained operators should be merged and applied to u:\n%s", sym.Format(r1))
		return
	}
	chk.Float64(tst, "(AB)[3][0]", 1e-15, r1.Child(0).Child(0).Matrix().Get(3, 0), 1)

	// node-for-node
	r2 := simplified(tst, r1)
	if r2 != r1 {
		tst.Errorf("simplify is not idempotent:\n%s\n%s", sym.Format(r1), sym.Format(r2))
		return
	}
	n1, n2 := sym.PostOrder(r1), sym.PostOrder(r2)
	chk.Int(tst, "nodes", len(n2), len(n1))
	for i := range n1 {
		if n1[i] != n2[i] {
			tst.Errorf("node %d differs: %v != %v", i, n1[i], n2[i])
			return
		}
	}
}

func Test_simp04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("simp04. soundness")

	y := sym.Must(sym.StateSlice("y", 0, 3, nil))
	p := sym.Parameter("p")
	t := sym.Time()

	// (y·1 + 0)·exp(p) + (2+3)·y - --y + y/y + 0·t - sqrt(4)·t
	terms := []*sym.Node{
		sym.Must(sym.Mul(sym.Must(sym.Add(sym.Must(sym.Mul(y, sym.Scalar(1))), sym.Scalar(0))), sym.Exp(p))),
		sym.Must(sym.Mul(sym.Must(sym.Add(sym.Scalar(2), sym.Scalar(3))), y)),
		sym.Neg(sym.Neg(y)),
		sym.Must(sym.Div(y, y)),
		sym.Must(sym.Mul(sym.Scalar(0), t)),
		sym.Must(sym.Mul(sym.Sqrt(sym.Scalar(4)), t)),
	}
	g := terms[0]
	for i, a := range terms[1:] {
		if i == 1 || i == 4 {
			g = sym.Must(sym.Sub(g, a))
			continue
		}
		g = sym.Must(sym.Add(g, a))
	}
	r := simplified(tst, g)
	io.Pforan("before:\n%s\nafter:\n%s", sym.Format(g), sym.Format(r))
	if sym.Count(r) >= sym.Count(g) {
		tst.Errorf("simplified graph should be smaller: %d >= %d", sym.Count(r), sym.Count(g))
	}

	opts := &kern.Options{Backend: "interp", Params: []string{"p"}}
	k0, err := kern.Compile(g, opts)
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	k1, err := kern.Compile(r, opts)
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	for _, tt := range []float64{0, 0.3, 2} {
		for _, pp := range []float64{-1, 0.5} {
			yy := []float64{0.1, -2, 3.5}
			chk.Array(tst, io.Sf("t=%g p=%g", tt, pp), 1e-13, k1.Eval(tt, yy, []float64{pp}), k0.Eval(tt, yy, []float64{pp}))
		}
	}

	// runtime 0/0 stays NaN in the simplified graph
	v := k1.Eval(0, []float64{0, 1, 1}, []float64{0})
	if !math.IsNaN(v[0]) {
		tst.Errorf("y/y at y=0 should be NaN. got %g", v[0])
	}
}
