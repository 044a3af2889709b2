// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sym

import "fmt"

// Grad returns the gradient of a node-valued column a. The result lives on the edges
func Grad(a *Node) (*Node, error) {
	if err := checkNodeValued(KindGradient, a); err != nil {
		return nil, err
	}
	return newNode(KindGradient, []*Node{a}, a.domain, Shape{plus(a.shape.Rows, 1), 1}, true, nil), nil
}

// Divergence returns the divergence of an edge-valued column (flux) a. The result lives on
// the cell centres
func Divergence(a *Node) (*Node, error) {
	if a.domain.Empty() || !a.edges {
		return nil, fmt.Errorf("%w: divergence requires a flux on the edges of a domain; got %v", ErrDomainMismatch, a)
	}
	if a.shape.Cols != 1 {
		return nil, fmt.Errorf("%w: divergence requires a column; got %v", ErrShapeMismatch, a)
	}
	return newNode(KindDivergence, []*Node{a}, a.domain, Shape{plus(a.shape.Rows, -1), 1}, false, nil), nil
}

// Laplacian returns div(grad(a))
func Laplacian(a *Node) (*Node, error) {
	g, err := Grad(a)
	if err != nil {
		return nil, err
	}
	return Divergence(g)
}

// BoundaryValue returns the value of a at the left or right boundary of its domain
func BoundaryValue(a *Node, side Side) (*Node, error) {
	if err := checkNodeValued(KindBoundaryValue, a); err != nil {
		return nil, err
	}
	return newNode(KindBoundaryValue, []*Node{a}, nil, scalarShape, false, func(n *Node) { n.side = side }), nil
}

// Integral returns the integral of a over its domain (volume integral in spherical coordinates)
func Integral(a *Node) (*Node, error) {
	if err := checkNodeValued(KindIntegral, a); err != nil {
		return nil, err
	}
	return newNode(KindIntegral, []*Node{a}, nil, scalarShape, false, nil), nil
}

// EdgeAverage returns the average of adjacent node values of a on the edges
func EdgeAverage(a *Node) (*Node, error) {
	if err := checkNodeValued(KindEdgeAverage, a); err != nil {
		return nil, err
	}
	return newNode(KindEdgeAverage, []*Node{a}, a.domain, Shape{plus(a.shape.Rows, 1), 1}, true, nil), nil
}

// XAverage returns the integral of a divided by the integral of one over the domain of a
func XAverage(a *Node) (*Node, error) {
	num, err := Integral(a)
	if err != nil {
		return nil, err
	}
	one, err := Broadcast(Scalar(1), a.domain, a.shape.Rows, false)
	if err != nil {
		return nil, err
	}
	den, err := Integral(one)
	if err != nil {
		return nil, err
	}
	return Div(num, den)
}

// auxiliary ///////////////////////////////////////////////////////////////////////////////////////

// checkNodeValued checks that a is a column on the cell centres of a domain
func checkNodeValued(k Kind, a *Node) error {
	if a.domain.Empty() || a.edges {
		return fmt.Errorf("%w: %s requires values on the nodes of a domain; got %v", ErrDomainMismatch, k, a)
	}
	if a.shape.Cols != 1 {
		return fmt.Errorf("%w: %s requires a column; got %v", ErrShapeMismatch, k, a)
	}
	return nil
}

// plus adds d to a possibly Unknown number of rows
func plus(rows, d int) int {
	if rows == Unknown {
		return Unknown
	}
	return rows + d
}
