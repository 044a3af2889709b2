// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package deriv implements symbolic differentiation of expression graphs
package deriv

import (
	"errors"
	"fmt"

	"github.com/cpmech/gobamm/sym"
	"github.com/cpmech/gosl/chk"
)

// ErrNotDifferentiable is returned when the derivative cannot be represented
var ErrNotDifferentiable = errors.New("not differentiable")

// rule returns the derivative of n given the derivatives d of its children. Derivatives of
// children may be zero sentinels
type rule func(o *differentiator, n *sym.Node, d []*sym.Node) (*sym.Node, error)

// rules holds the rule of each kind
var rules [sym.NumKinds]rule

func init() {
	for k := sym.Kind(0); k < sym.NumKinds; k++ {
		switch k.Info().Class {
		case sym.ClassLeaf:
			rules[k] = diffLeaf
		case sym.ClassSpatial:
			rules[k] = diffLinear
		}
	}
	rules[sym.KindAdd] = diffAddSub
	rules[sym.KindSub] = diffAddSub
	rules[sym.KindMul] = diffMul
	rules[sym.KindDiv] = diffDiv
	rules[sym.KindPow] = diffPow
	rules[sym.KindNeg] = diffNeg
	rules[sym.KindAbs] = diffAbs
	rules[sym.KindFunction] = diffFunction
	rules[sym.KindConcatenation] = diffConcat
	rules[sym.KindBroadcast] = diffBroadcast
	rules[sym.KindMatVec] = diffMatVec
	for k, r := range rules {
		if r == nil {
			chk.Panic("deriv: kind %v has no differentiation rule", sym.Kind(k))
		}
	}
}

// differentiator holds the variable of differentiation
type differentiator struct {
	wrt  *sym.Node // StateSlice, Parameter or scalar Variable
	size int       // number of columns of every derivative
}

// Diff returns the graph of the partial derivative of f with respect to wrt. f must be a
// column; wrt must be a StateSlice, a Parameter or a Variable without domain. The result
// has rows(f) x size(wrt) shape. Subgraphs independent of wrt give the zero sentinel
func Diff(f, wrt *sym.Node) (*sym.Node, error) {
	o := &differentiator{wrt: wrt}
	switch wrt.Kind() {
	case sym.KindStateSlice:
		o.size = wrt.Rows()
	case sym.KindParameter:
		o.size = 1
	case sym.KindVariable:
		if !wrt.Domain().Empty() {
			return nil, fmt.Errorf("%w: cannot differentiate with respect to %v: discretize first", ErrNotDifferentiable, wrt)
		}
		o.size = 1
	default:
		return nil, fmt.Errorf("%w: cannot differentiate with respect to %v", ErrNotDifferentiable, wrt)
	}
	if f.Cols() != 1 {
		return nil, fmt.Errorf("%w: %v is not a column", ErrNotDifferentiable, f)
	}
	return sym.Transform(f, func(n *sym.Node, d []*sym.Node) (*sym.Node, error) {
		return rules[n.Kind()](o, n, d)
	})
}

// leaves and linear operators ///////////////////////////////////////////////////////////////////

func diffLeaf(o *differentiator, n *sym.Node, d []*sym.Node) (*sym.Node, error) {
	w := o.wrt
	switch n.Kind() {
	case sym.KindParameter, sym.KindVariable:
		if n.Kind() == w.Kind() && n.Name() == w.Name() && n.Domain().Empty() {
			return sym.Scalar(1), nil
		}
	case sym.KindStateSlice:
		if w.Kind() == sym.KindStateSlice {
			return o.selection(n), nil
		}
	}
	return o.zero(n), nil
}

// selection returns the derivative of the slice n with respect to the slice wrt
func (o *differentiator) selection(n *sym.Node) *sym.Node {
	w := o.wrt
	a, b := max(n.Start(), w.Start()), min(n.End(), w.End())
	if a >= b {
		return o.zero(n)
	}
	var I, J []int
	var X []float64
	for k := a; k < b; k++ {
		I = append(I, k-n.Start())
		J = append(J, k-w.Start())
		X = append(X, 1)
	}
	return sym.MatrixNode(sym.NewMatrix(n.Rows(), o.size, I, J, X), n.Domain(), false)
}

// diffLinear differentiates spatial operators: L(x)' = L(x')
func diffLinear(o *differentiator, n *sym.Node, d []*sym.Node) (*sym.Node, error) {
	if d[0].IsZero() {
		return o.zero(n), nil
	}
	if o.size != 1 {
		return nil, fmt.Errorf("%w: %v must be discretized before differentiating with respect to %v", ErrNotDifferentiable, n, o.wrt)
	}
	return n.WithChildren([]*sym.Node{o.lift(d[0], n.Child(0))})
}

func diffMatVec(o *differentiator, n *sym.Node, d []*sym.Node) (*sym.Node, error) {
	if d[1].IsZero() {
		return o.zero(n), nil
	}
	return sym.MatVec(n.Child(0), o.lift(d[1], n.Child(1)))
}

func diffBroadcast(o *differentiator, n *sym.Node, d []*sym.Node) (*sym.Node, error) {
	if d[0].IsZero() {
		return o.zero(n), nil
	}
	return sym.Broadcast(d[0], n.Domain(), n.Rows(), n.OnEdges())
}

func diffConcat(o *differentiator, n *sym.Node, d []*sym.Node) (*sym.Node, error) {
	allZero, concrete := true, true
	parts := make([]*sym.Node, len(d))
	for i, c := range n.Children() {
		parts[i] = o.lift(d[i], c)
		allZero = allZero && parts[i].IsZero()
		concrete = concrete && c.Shape().Concrete()
	}
	if allZero {
		return o.zero(n), nil
	}
	if concrete {
		return sym.Stack(parts...)
	}
	return sym.Concatenate(parts...)
}

// arithmetic /////////////////////////////////////////////////////////////////////////////////////

func diffAddSub(o *differentiator, n *sym.Node, d []*sym.Node) (*sym.Node, error) {
	da, db := o.lift(d[0], n), o.lift(d[1], n)
	switch {
	case da.IsZero() && db.IsZero():
		return o.zero(n), nil
	case db.IsZero():
		return da, nil
	case da.IsZero():
		if n.Kind() == sym.KindSub {
			return sym.Neg(db), nil
		}
		return db, nil
	}
	return sym.BinaryOp(n.Kind(), da, db)
}

// diffMul implements (a b)' = b a' + a b'
func diffMul(o *differentiator, n *sym.Node, d []*sym.Node) (*sym.Node, error) {
	a, b := n.Child(0), n.Child(1)
	var terms []*sym.Node
	if !d[0].IsZero() {
		t, err := sym.Mul(b, o.lift(d[0], n))
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	if !d[1].IsZero() {
		t, err := sym.Mul(a, o.lift(d[1], n))
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	return o.sum(n, terms)
}

// diffDiv implements (a/b)' = a'/b - (a/b)/b b'
func diffDiv(o *differentiator, n *sym.Node, d []*sym.Node) (*sym.Node, error) {
	b := n.Child(1)
	var terms []*sym.Node
	if !d[0].IsZero() {
		t, err := sym.Div(o.lift(d[0], n), b)
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	if !d[1].IsZero() {
		q, err := sym.Div(n, b)
		if err != nil {
			return nil, err
		}
		t, err := sym.Mul(q, o.lift(d[1], n))
		if err != nil {
			return nil, err
		}
		terms = append(terms, sym.Neg(t))
	}
	return o.sum(n, terms)
}

// diffPow implements (a^b)' = b a^(b-1) a' + a^b log(a) b'
func diffPow(o *differentiator, n *sym.Node, d []*sym.Node) (*sym.Node, error) {
	a, b := n.Child(0), n.Child(1)
	var terms []*sym.Node
	if !d[0].IsZero() {
		bm1, err := sym.Sub(b, sym.Scalar(1))
		if err != nil {
			return nil, err
		}
		p, err := sym.Pow(a, bm1)
		if err != nil {
			return nil, err
		}
		f, err := sym.Mul(b, p)
		if err != nil {
			return nil, err
		}
		t, err := sym.Mul(f, o.lift(d[0], n))
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	if !d[1].IsZero() {
		f, err := sym.Mul(n, sym.Log(a))
		if err != nil {
			return nil, err
		}
		t, err := sym.Mul(f, o.lift(d[1], n))
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	return o.sum(n, terms)
}

func diffNeg(o *differentiator, n *sym.Node, d []*sym.Node) (*sym.Node, error) {
	if d[0].IsZero() {
		return o.zero(n), nil
	}
	return sym.Neg(d[0]), nil
}

func diffAbs(o *differentiator, n *sym.Node, d []*sym.Node) (*sym.Node, error) {
	if d[0].IsZero() {
		return o.zero(n), nil
	}
	return sym.Mul(sym.Apply(sym.FuncSign, n.Child(0)), d[0])
}

// diffFunction implements the chain rule f(a)' = f'(a) a'
func diffFunction(o *differentiator, n *sym.Node, d []*sym.Node) (*sym.Node, error) {
	if d[0].IsZero() || n.Func() == sym.FuncSign {
		return o.zero(n), nil
	}
	a := n.Child(0)
	var f *sym.Node
	var err error
	switch n.Func() {
	case sym.FuncExp:
		f = n
	case sym.FuncLog:
		f, err = sym.Div(sym.Scalar(1), a)
	case sym.FuncSqrt:
		f, err = sym.Div(sym.Scalar(0.5), n)
	case sym.FuncSin:
		f = sym.Apply(sym.FuncCos, a)
	case sym.FuncCos:
		f = sym.Neg(sym.Apply(sym.FuncSin, a))
	case sym.FuncTanh:
		var n2 *sym.Node
		if n2, err = sym.Mul(n, n); err == nil {
			f, err = sym.Sub(sym.Scalar(1), n2)
		}
	case sym.FuncSinh:
		f = sym.Apply(sym.FuncCosh, a)
	case sym.FuncCosh:
		f = sym.Apply(sym.FuncSinh, a)
	case sym.FuncArcsinh:
		var a2, s *sym.Node
		if a2, err = sym.Mul(a, a); err == nil {
			if s, err = sym.Add(a2, sym.Scalar(1)); err == nil {
				f, err = sym.Div(sym.Scalar(1), sym.Sqrt(s))
			}
		}
	default:
		chk.Panic("deriv: derivative of function %q is not available", n.Func().Name())
	}
	if err != nil {
		return nil, err
	}
	return sym.Mul(f, d[0])
}

// auxiliary ///////////////////////////////////////////////////////////////////////////////////////

// zero returns the zero sentinel for the derivative of n
func (o *differentiator) zero(n *sym.Node) *sym.Node {
	return sym.Zero(sym.Shape{Rows: n.Rows(), Cols: o.size}, n.Domain(), n.OnEdges())
}

// lift repeats the derivative d of a scalar over the rows of n. Zero sentinels are reshaped
func (o *differentiator) lift(d, n *sym.Node) *sym.Node {
	if d.Rows() == n.Rows() {
		return d
	}
	if d.IsZero() {
		return o.zero(n)
	}
	return sym.Must(sym.Broadcast(d, n.Domain(), n.Rows(), n.OnEdges()))
}

// sum adds terms, returning the zero sentinel if there are none
func (o *differentiator) sum(n *sym.Node, terms []*sym.Node) (*sym.Node, error) {
	switch len(terms) {
	case 0:
		return o.zero(n), nil
	case 1:
		return terms[0], nil
	}
	return sym.Add(terms[0], terms[1])
}
