// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package simp

import (
	"github.com/cpmech/gobamm/sym"
	"github.com/cpmech/gosl/chk"
)

// rule returns a replacement of n, or n itself when the rule does not apply
type rule func(o *Simplifier, n *sym.Node) (*sym.Node, error)

// rules holds the rules of each kind. Kinds without rules are kept as they are
var rules [sym.NumKinds]rule

func init() {
	rules[sym.KindAdd] = ruleAdd
	rules[sym.KindSub] = ruleSub
	rules[sym.KindMul] = ruleMul
	rules[sym.KindDiv] = ruleDiv
	rules[sym.KindPow] = rulePow
	rules[sym.KindNeg] = ruleNeg
	rules[sym.KindAbs] = ruleUnary
	rules[sym.KindFunction] = ruleUnary
	rules[sym.KindBroadcast] = ruleBroadcast
	rules[sym.KindConcatenation] = ruleConcat
	rules[sym.KindMatVec] = ruleMatVec
	for k := sym.Kind(0); k < sym.NumKinds; k++ {
		if rules[k] != nil && k.Info().Class == sym.ClassLeaf {
			chk.Panic("simp: leaves cannot have rules. kind = %v", k)
		}
	}
}

// rewrite applies the rule of the kind of n
func (o *Simplifier) rewrite(n *sym.Node) (*sym.Node, error) {
	if r := rules[n.Kind()]; r != nil {
		return r(o, n)
	}
	return n, nil
}

// rules ///////////////////////////////////////////////////////////////////////////////////////////

func ruleAdd(o *Simplifier, n *sym.Node) (*sym.Node, error) {
	a, b := n.Child(0), n.Child(1)
	switch {
	case isZero(b) && sameSlot(a, n):
		return a, nil
	case isZero(a) && sameSlot(b, n):
		return b, nil
	}
	return o.fold(n)
}

func ruleSub(o *Simplifier, n *sym.Node) (*sym.Node, error) {
	a, b := n.Child(0), n.Child(1)
	switch {
	case isZero(b) && sameSlot(a, n):
		return a, nil
	case isZero(a) && sameSlot(b, n):
		return sym.Neg(b), nil
	}
	return o.fold(n)
}

func ruleMul(o *Simplifier, n *sym.Node) (*sym.Node, error) {
	a, b := n.Child(0), n.Child(1)
	switch {
	case isZero(a) || isZero(b):
		return sym.ZeroLike(n), nil
	case constant(a, 1) && sameSlot(b, n):
		return b, nil
	case constant(b, 1) && sameSlot(a, n):
		return a, nil
	case constant(a, -1) && sameSlot(b, n):
		return sym.Neg(b), nil
	case constant(b, -1) && sameSlot(a, n):
		return sym.Neg(a), nil
	}
	return o.fold(n)
}

// ruleDiv never simplifies 0/x or x/x since x may be zero
func ruleDiv(o *Simplifier, n *sym.Node) (*sym.Node, error) {
	a, b := n.Child(0), n.Child(1)
	if constant(b, 1) && sameSlot(a, n) {
		return a, nil
	}
	return o.fold(n)
}

func rulePow(o *Simplifier, n *sym.Node) (*sym.Node, error) {
	a, b := n.Child(0), n.Child(1)
	switch {
	case constant(b, 1) && sameSlot(a, n):
		return a, nil
	case constant(b, 0) || constant(a, 1):
		if c := o.constantLike(n, 1); c != nil {
			return c, nil
		}
	}
	return o.fold(n)
}

func ruleNeg(o *Simplifier, n *sym.Node) (*sym.Node, error) {
	a := n.Child(0)
	switch {
	case a.IsZero():
		return a, nil
	case a.Kind() == sym.KindNeg:
		return a.Child(0), nil
	}
	return ruleUnary(o, n)
}

// ruleUnary folds unary operators applied to literals
func ruleUnary(o *Simplifier, n *sym.Node) (*sym.Node, error) {
	a := n.Child(0)
	if !foldable(a) || !column(n) {
		return n, nil
	}
	return o.literal(n, func(i int) float64 {
		return sym.Unary(n.Kind(), n.Func(), valueAt(a, i))
	}), nil
}

func ruleBroadcast(o *Simplifier, n *sym.Node) (*sym.Node, error) {
	a := n.Child(0)
	switch {
	case a.IsZero():
		return sym.ZeroLike(n), nil
	case foldable(a) && column(n):
		return o.literal(n, func(i int) float64 { return valueAt(a, 0) }), nil
	}
	return n, nil
}

func ruleConcat(o *Simplifier, n *sym.Node) (*sym.Node, error) {
	allZero, allLit := true, column(n)
	for _, c := range n.Children() {
		allZero = allZero && c.IsZero()
		allLit = allLit && foldable(c)
	}
	switch {
	case allZero:
		return sym.ZeroLike(n), nil
	case allLit:
		data := make([]float64, 0, n.Rows())
		for _, c := range n.Children() {
			for i := 0; i < c.Rows(); i++ {
				data = append(data, valueAt(c, i))
			}
		}
		return o.literal(n, func(i int) float64 { return data[i] }), nil
	}
	return n, nil
}

func ruleMatVec(o *Simplifier, n *sym.Node) (*sym.Node, error) {
	A, x := n.Child(0), n.Child(1)
	switch {
	case x.IsZero() || A.Matrix().Nnz() == 0:
		return sym.ZeroLike(n), nil

	// constant operand
	case foldable(x) && column(n):
		u := make([]float64, x.Rows())
		for i := range u {
			u[i] = valueAt(x, i)
		}
		v := make([]float64, n.Rows())
		A.Matrix().Apply(v, u)
		return o.literal(n, func(i int) float64 { return v[i] }), nil

	// product of constant matrices
	case x.Kind() == sym.KindMatrix:
		return o.product(A, x, n.Domain(), n.OnEdges()), nil

	// chained operators
	case x.Kind() == sym.KindMatVec:
		AB := o.product(A, x.Child(0), A.Domain(), A.OnEdges())
		return sym.MatVec(AB, x.Child(1))
	}
	return n, nil
}

// auxiliary ///////////////////////////////////////////////////////////////////////////////////////

// fold evaluates binary nodes with literal operands
func (o *Simplifier) fold(n *sym.Node) (*sym.Node, error) {
	a, b := n.Child(0), n.Child(1)
	if !foldable(a) || !foldable(b) || !column(n) {
		return n, nil
	}
	return o.literal(n, func(i int) float64 {
		return sym.Binary(n.Kind(), valueAt(a, i), valueAt(b, i))
	}), nil
}

// product returns the interned matrix node with A B
func (o *Simplifier) product(A, B *sym.Node, dom sym.Domain, edges bool) *sym.Node {
	key := [2]int64{A.Matrix().Id(), B.Matrix().Id()}
	if p, ok := o.products[key]; ok {
		return p
	}
	p := o.intern(sym.MatrixNode(A.Matrix().Mul(B.Matrix()), dom, edges))
	o.products[key] = p
	return p
}

// literal returns a literal with the shape, domain and location of n
func (o *Simplifier) literal(n *sym.Node, value func(i int) float64) *sym.Node {
	if n.Shape().Scalar() && n.Domain().Empty() {
		return sym.Scalar(value(0))
	}
	data := make([]float64, n.Rows())
	for i := range data {
		data[i] = value(i)
	}
	return sym.Vector(data, n.Domain(), n.OnEdges())
}

// constantLike returns a node equal to c everywhere with the shape of n, or nil when n is
// not a column
func (o *Simplifier) constantLike(n *sym.Node, c float64) *sym.Node {
	switch {
	case n.Cols() != 1:
		return nil
	case n.Shape().Concrete():
		return o.literal(n, func(int) float64 { return c })
	}
	b, err := sym.Broadcast(o.intern(sym.Scalar(c)), n.Domain(), n.Rows(), n.OnEdges())
	if err != nil {
		return nil
	}
	return b
}

// foldable tells whether n is a Scalar, Vector or Zero literal column with concrete shape
func foldable(n *sym.Node) bool {
	return n.IsLiteral() && column(n)
}

// column tells whether n is a column with concrete shape
func column(n *sym.Node) bool {
	return n.Shape().Concrete() && n.Cols() == 1
}

// valueAt returns the i-th value of a literal column, repeating scalars
func valueAt(n *sym.Node, i int) float64 {
	switch n.Kind() {
	case sym.KindScalar:
		return n.Value()
	case sym.KindVector:
		if n.Rows() == 1 {
			return n.Data()[0]
		}
		return n.Data()[i]
	}
	return 0
}

// constant tells whether n is equal to c everywhere: a literal or a broadcast literal
func constant(n *sym.Node, c float64) bool {
	if n.Kind() == sym.KindBroadcast {
		return n.Child(0).IsConstant(c)
	}
	return n.IsConstant(c)
}

// isZero tells whether n is the zero sentinel or equal to zero everywhere
func isZero(n *sym.Node) bool {
	return n.IsZero() || constant(n, 0)
}

// sameSlot tells whether a can replace n without changing shape, domain or location
func sameSlot(a, n *sym.Node) bool {
	return a.Shape() == n.Shape() && a.Domain().Equal(n.Domain()) && a.OnEdges() == n.OnEdges()
}
