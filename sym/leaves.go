// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sym

import (
	"fmt"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"
)

// Scalar returns a literal scalar
func Scalar(v float64) *Node {
	return newNode(KindScalar, nil, nil, scalarShape, false, func(n *Node) { n.value = v })
}

// Vector returns a literal column vector. The data is copied
func Vector(data []float64, dom Domain, edges bool) *Node {
	if len(data) == 0 {
		chk.Panic("sym: vector literal must have at least one value")
	}
	cpy := make([]float64, len(data))
	copy(cpy, data)
	return newNode(KindVector, nil, dom, Shape{len(data), 1}, edges, func(n *Node) { n.data = cpy })
}

// MatrixNode returns a literal sparse matrix living on the output domain dom
func MatrixNode(m *Matrix, dom Domain, edges bool) *Node {
	return newNode(KindMatrix, nil, dom, Shape{m.M, m.N}, edges, func(n *Node) { n.mat = m })
}

// Zero returns the structural zero with the given shape. Downstream assembly skips it
func Zero(shape Shape, dom Domain, edges bool) *Node {
	return newNode(KindZero, nil, dom, shape, edges, nil)
}

// ZeroLike returns the structural zero with the same shape, domain and location as a
func ZeroLike(a *Node) *Node {
	return Zero(a.shape, a.domain, a.edges)
}

// Parameter returns a named scalar parameter
func Parameter(name string) *Node {
	return newNode(KindParameter, nil, nil, scalarShape, false, func(n *Node) { n.name = name })
}

// Variable returns a named variable. Variables without domain are scalars
func Variable(name string, dom Domain) *Node {
	shape := scalarShape
	if !dom.Empty() {
		shape = Shape{Unknown, 1}
	}
	return newNode(KindVariable, nil, dom, shape, false, func(n *Node) { n.name = name })
}

// StateSlice returns a reference to y[start:start+size]
func StateSlice(name string, start, size int, dom Domain) (*Node, error) {
	if start < 0 || size < 1 {
		return nil, fmt.Errorf("%w: invalid state slice %q [%d, %d)", ErrShapeMismatch, name, start, start+size)
	}
	return newNode(KindStateSlice, nil, dom, Shape{size, 1}, false, func(n *Node) {
		n.name = name
		n.start = start
	}), nil
}

// Time returns the time symbol
func Time() *Node {
	return newNode(KindTime, nil, nil, scalarShape, false, nil)
}

// SpatialVariable returns the coordinate of a domain at cell centres or edges
func SpatialVariable(name string, dom Domain, edges bool) (*Node, error) {
	if dom.Empty() {
		return nil, fmt.Errorf("%w: spatial variable %q needs a domain", ErrDomainMismatch, name)
	}
	return newNode(KindSpatialVariable, nil, dom, Shape{Unknown, 1}, edges, func(n *Node) { n.name = name }), nil
}

// TimeFunction returns f(t) where f is taken from the functions database. Functions are
// identified by name: two nodes with the same name must wrap the same function
func TimeFunction(name string, f dbf.T) *Node {
	return newNode(KindTimeFunction, nil, nil, scalarShape, false, func(n *Node) {
		n.name = name
		n.tf = f
	})
}
