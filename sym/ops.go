// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sym

import "fmt"

// Add returns a + b
func Add(a, b *Node) (*Node, error) { return binary(KindAdd, a, b) }

// Sub returns a - b
func Sub(a, b *Node) (*Node, error) { return binary(KindSub, a, b) }

// Mul returns a * b
func Mul(a, b *Node) (*Node, error) { return binary(KindMul, a, b) }

// Div returns a / b. A literal zero denominator fails with ErrDivisionByZeroConstant
func Div(a, b *Node) (*Node, error) { return binary(KindDiv, a, b) }

// Pow returns a ^ b
func Pow(a, b *Node) (*Node, error) { return binary(KindPow, a, b) }

// BinaryOp returns the node of a binary arithmetic kind
func BinaryOp(k Kind, a, b *Node) (*Node, error) {
	switch k {
	case KindAdd, KindSub, KindMul, KindDiv, KindPow:
		return binary(k, a, b)
	}
	return nil, fmt.Errorf("%w: %v is not a binary arithmetic kind", ErrShapeMismatch, k)
}

// Neg returns -a
func Neg(a *Node) *Node {
	return newNode(KindNeg, []*Node{a}, a.domain, a.shape, a.edges, nil)
}

// Abs returns |a|
func Abs(a *Node) *Node {
	return newNode(KindAbs, []*Node{a}, a.domain, a.shape, a.edges, nil)
}

// Apply returns fn(a) elementwise
func Apply(fn Func, a *Node) *Node {
	return newNode(KindFunction, []*Node{a}, a.domain, a.shape, a.edges, func(n *Node) { n.fn = fn })
}

// Exp returns exp(a)
func Exp(a *Node) *Node { return Apply(FuncExp, a) }

// Log returns log(a)
func Log(a *Node) *Node { return Apply(FuncLog, a) }

// Sqrt returns sqrt(a)
func Sqrt(a *Node) *Node { return Apply(FuncSqrt, a) }

// Sinh returns sinh(a)
func Sinh(a *Node) *Node { return Apply(FuncSinh, a) }

// Arcsinh returns arcsinh(a)
func Arcsinh(a *Node) *Node { return Apply(FuncArcsinh, a) }

// Broadcast repeats the row a (1 x c) over rows rows of the domain dom. rows is Unknown
// before discretization
func Broadcast(a *Node, dom Domain, rows int, edges bool) (*Node, error) {
	if a.shape.Rows != 1 {
		return nil, fmt.Errorf("%w: cannot broadcast %v: it must have a single row", ErrShapeMismatch, a)
	}
	if !a.domain.Empty() && !a.domain.Equal(dom) {
		return nil, fmt.Errorf("%w: cannot broadcast %v onto %v", ErrDomainMismatch, a, dom)
	}
	if rows == Unknown && dom.Empty() {
		return nil, fmt.Errorf("%w: cannot broadcast %v: target has neither domain nor size", ErrDomainMismatch, a)
	}
	if rows != Unknown && rows < 1 {
		return nil, fmt.Errorf("%w: cannot broadcast %v onto %d rows", ErrShapeMismatch, a, rows)
	}
	return newNode(KindBroadcast, []*Node{a}, dom, Shape{rows, a.shape.Cols}, edges, nil), nil
}

// Concatenate stacks node-valued column vectors living on distinct domains. The domain of
// the result lists the regions in order; e.g. ["negative electrode", "separator"]
func Concatenate(children ...*Node) (*Node, error) {
	if len(children) == 0 {
		return nil, fmt.Errorf("%w: cannot concatenate zero nodes", ErrShapeMismatch)
	}
	var dom Domain
	seen := make(map[string]bool)
	rows := 0
	for _, c := range children {
		if c.domain.Empty() || c.edges {
			return nil, fmt.Errorf("%w: cannot concatenate %v: child must live on the nodes of a domain", ErrDomainMismatch, c)
		}
		if c.shape.Cols != 1 {
			return nil, fmt.Errorf("%w: cannot concatenate %v: child must be a column", ErrShapeMismatch, c)
		}
		for _, d := range c.domain {
			if seen[d] {
				return nil, fmt.Errorf("%w: cannot concatenate %v: region %q appears twice", ErrDomainMismatch, c, d)
			}
			seen[d] = true
			dom = append(dom, d)
		}
		if rows != Unknown {
			if c.shape.Concrete() {
				rows += c.shape.Rows
			} else {
				rows = Unknown
			}
		}
	}
	return newNode(KindConcatenation, append([]*Node{}, children...), dom, Shape{rows, 1}, false, nil), nil
}

// Stack stacks discretized nodes with concrete shapes and equal number of columns regardless
// of domains. The result has no domain
func Stack(children ...*Node) (*Node, error) {
	if len(children) == 0 {
		return nil, fmt.Errorf("%w: cannot stack zero nodes", ErrShapeMismatch)
	}
	cols := children[0].shape.Cols
	rows := 0
	for _, c := range children {
		if !c.shape.Concrete() || c.shape.Cols != cols {
			return nil, fmt.Errorf("%w: cannot stack %v: shape must be concrete with %d columns", ErrShapeMismatch, c, cols)
		}
		rows += c.shape.Rows
	}
	return newNode(KindConcatenation, append([]*Node{}, children...), nil, Shape{rows, cols}, false, func(n *Node) { n.name = stackName }), nil
}

// stackName marks concatenations built by Stack
const stackName = "stack"

// MatVec returns A * x where A is a Matrix node. x may have many columns
func MatVec(A, x *Node) (*Node, error) {
	if A.kind != KindMatrix {
		return nil, fmt.Errorf("%w: left operand of matvec must be a matrix; got %v", ErrShapeMismatch, A)
	}
	if !x.shape.Concrete() || x.shape.Rows != A.shape.Cols {
		return nil, fmt.Errorf("%w: cannot multiply %v by %v", ErrShapeMismatch, A, x)
	}
	return newNode(KindMatVec, []*Node{A, x}, A.domain, Shape{A.shape.Rows, x.shape.Cols}, A.edges, nil), nil
}

// auxiliary ///////////////////////////////////////////////////////////////////////////////////////

// binary validates and allocates a binary arithmetic node
func binary(k Kind, a, b *Node) (*Node, error) {

	// domains
	dom := a.domain
	if dom.Empty() {
		dom = b.domain
	} else if !b.domain.Empty() && !a.domain.Equal(b.domain) {
		return nil, fmt.Errorf("%w: cannot %s %v and %v", ErrDomainMismatch, k, a, b)
	}

	// shapes
	var shape Shape
	edges := a.edges || b.edges
	switch {
	case a.shape == b.shape:
		if a.edges != b.edges && !a.shape.Scalar() {
			return nil, fmt.Errorf("%w: cannot %s node values %v and edge values %v", ErrDomainMismatch, k, a, b)
		}
		shape = a.shape
	case a.shape.Scalar():
		shape, edges = b.shape, b.edges
	case b.shape.Scalar():
		shape, edges = a.shape, a.edges
	case (k == KindMul || k == KindDiv) && a.shape.Cols == 1 && a.shape.Rows == b.shape.Rows:
		shape = b.shape
	case (k == KindMul || k == KindDiv) && b.shape.Cols == 1 && a.shape.Rows == b.shape.Rows:
		shape = a.shape
	default:
		return nil, fmt.Errorf("%w: cannot %s %v and %v", ErrShapeMismatch, k, a, b)
	}

	// literal zero denominators
	if k == KindDiv && hasLiteralZero(b) {
		return nil, fmt.Errorf("%w: denominator %v of %v", ErrDivisionByZeroConstant, b, a)
	}
	return newNode(k, []*Node{a, b}, dom, shape, edges, nil), nil
}

// hasLiteralZero tells whether a literal, or a broadcast literal, has a zero entry
func hasLiteralZero(a *Node) bool {
	switch a.kind {
	case KindZero:
		return true
	case KindBroadcast:
		return hasLiteralZero(a.children[0])
	case KindScalar:
		return a.value == 0
	case KindVector:
		for _, v := range a.data {
			if v == 0 {
				return true
			}
		}
	}
	return false
}
