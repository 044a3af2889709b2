// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package disc

import (
	"github.com/cpmech/gobamm/mesh"
	"github.com/cpmech/gobamm/sym"
	"github.com/cpmech/gosl/la"
)

// gradient returns the (n+1) x n operator mapping cell values to edge gradients. Interior rows
// are central differences between adjacent nodes. Boundary rows:
//
//	Dirichlet: (u₀ - a) / (x₀ - e₀)  and  (b - uₙ₋₁) / (eₙ - xₙ₋₁)
//	Neumann:   the prescribed flux g
func gradient(s *mesh.Submesh, dom sym.Domain, left, right BcKind) *Operator {
	n := s.N()
	A := la.NewTriplet(n+1, n, 2*n)
	for k := 1; k < n; k++ {
		h := s.DNodes[k-1]
		A.Put(k, k-1, -1/h)
		A.Put(k, k, 1/h)
	}
	op := new(Operator)
	switch left {
	case Dirichlet:
		h := s.Nodes[0] - s.Edges[0]
		A.Put(0, 0, 1/h)
		op.Left = unit(n+1, 0, -1/h, dom, true)
	case Neumann:
		op.Left = unit(n+1, 0, 1, dom, true)
	}
	switch right {
	case Dirichlet:
		h := s.Edges[n] - s.Nodes[n-1]
		A.Put(n, n-1, -1/h)
		op.Right = unit(n+1, n, 1/h, dom, true)
	case Neumann:
		op.Right = unit(n+1, n, 1, dom, true)
	}
	op.L = sym.MatrixNode(sym.FromTriplet(A), dom, true)
	return op
}

// divergence returns the n x (n+1) operator mapping edge fluxes to cell values. In spherical
// coordinates the fluxes are weighted by r² and divided by the shell volume over 4π
func divergence(s *mesh.Submesh, dom sym.Domain) *Operator {
	n := s.N()
	A := la.NewTriplet(n, n+1, 2*n)
	for k := 0; k < n; k++ {
		a, b := s.Area(k), s.Area(k+1)
		v := s.DEdges[k]
		if s.Coord == mesh.Spherical {
			r0, r1 := s.Edges[k], s.Edges[k+1]
			v = (r1*r1*r1 - r0*r0*r0) / 3
		}
		A.Put(k, k, -a/v)
		A.Put(k, k+1, b/v)
	}
	return &Operator{L: sym.MatrixNode(sym.FromTriplet(A), dom, false)}
}

// boundaryValue returns the 1 x n operator giving the value at one end. With a Neumann
// condition g the value is extrapolated from the nearest node with slope g; without
// condition the two nearest nodes are extrapolated linearly
func boundaryValue(s *mesh.Submesh, side sym.Side, kind BcKind) *Operator {
	n := s.N()
	A := la.NewTriplet(1, n, 2)
	op := new(Operator)
	first, second, e := 0, 1, s.Edges[0]
	if side == sym.Right {
		first, second, e = n-1, n-2, s.Edges[n]
	}
	x0 := s.Nodes[first]
	switch {
	case kind == Neumann:
		A.Put(0, first, 1)
		op.Left = sym.Scalar(e - x0)
	case n == 1:
		A.Put(0, first, 1)
	default:
		x1 := s.Nodes[second]
		w := (e - x0) / (x1 - x0)
		A.Put(0, first, 1-w)
		A.Put(0, second, w)
	}
	op.L = sym.MatrixNode(sym.FromTriplet(A), nil, false)
	return op
}

// integral returns the 1 x n operator with the cell measures (volumes in spherical coordinates)
func integral(s *mesh.Submesh) *Operator {
	n := s.N()
	A := la.NewTriplet(1, n, n)
	for k := 0; k < n; k++ {
		A.Put(0, k, s.Volume(k))
	}
	return &Operator{L: sym.MatrixNode(sym.FromTriplet(A), nil, false)}
}

// edgeAverage returns the (n+1) x n operator interpolating cell values linearly onto the
// interior edges and copying the nearest value onto the boundary edges
func edgeAverage(s *mesh.Submesh, dom sym.Domain) *Operator {
	n := s.N()
	A := la.NewTriplet(n+1, n, 2*n)
	A.Put(0, 0, 1)
	for k := 1; k < n; k++ {
		w := (s.Edges[k] - s.Nodes[k-1]) / s.DNodes[k-1]
		A.Put(k, k-1, 1-w)
		A.Put(k, k, w)
	}
	A.Put(n, n-1, 1)
	return &Operator{L: sym.MatrixNode(sym.FromTriplet(A), dom, true)}
}

// unit returns a literal column of size m with value x at row i
func unit(m, i int, x float64, dom sym.Domain, edges bool) *sym.Node {
	data := make([]float64, m)
	data[i] = x
	return sym.Vector(data, dom, edges)
}
