// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package disc

import (
	"fmt"

	"github.com/cpmech/gobamm/mesh"
	"github.com/cpmech/gobamm/sym"
)

// Discretizer replaces variables by state slices and spatial operators by discrete linear
// operators. Shared subgraphs are discretized once
type Discretizer struct {
	ctx     *Context // mesh and operator cache
	mapping *Mapping // state vector mapping
	bcs     BCs      // boundary conditions
	memo    sym.Memo // original id => discretized node
}

// New returns a new Discretizer
func New(ctx *Context, mapping *Mapping, bcs BCs) *Discretizer {
	if bcs == nil {
		bcs = make(BCs)
	}
	return &Discretizer{ctx: ctx, mapping: mapping, bcs: bcs, memo: make(sym.Memo)}
}

// Mapping returns the state vector mapping
func (o *Discretizer) Mapping() *Mapping { return o.mapping }

// Discretize returns the discretized graph. The result has concrete shapes and no Variable,
// SpatialVariable or spatial operator nodes
func (o *Discretizer) Discretize(root *sym.Node) (*sym.Node, error) {
	return sym.TransformMemo(root, o.memo, o.visit)
}

// visit discretizes one node whose children are already discretized
func (o *Discretizer) visit(n *sym.Node, children []*sym.Node) (*sym.Node, error) {
	switch n.Kind() {

	case sym.KindVariable:
		return o.mapping.StateSlice(n.Name())

	case sym.KindSpatialVariable:
		s, err := o.ctx.submesh(n.Domain())
		if err != nil {
			return nil, err
		}
		if n.OnEdges() {
			return sym.Vector(s.Edges, n.Domain(), true), nil
		}
		return sym.Vector(s.Nodes, n.Domain(), false), nil

	case sym.KindGradient:
		return o.gradient(n, children[0])

	case sym.KindDivergence:
		op, err := o.ctx.operator(opKey{kind: sym.KindDivergence, domain: n.Domain().Key()}, n.Domain(), func(s *mesh.Submesh) *Operator {
			return divergence(s, n.Domain())
		})
		if err != nil {
			return nil, err
		}
		return sym.MatVec(op.L, children[0])

	case sym.KindBoundaryValue:
		return o.boundaryValue(n, children[0])

	case sym.KindIntegral:
		op, err := o.ctx.operator(opKey{kind: sym.KindIntegral, domain: n.Child(0).Domain().Key()}, n.Child(0).Domain(), integral)
		if err != nil {
			return nil, err
		}
		return sym.MatVec(op.L, children[0])

	case sym.KindEdgeAverage:
		op, err := o.ctx.operator(opKey{kind: sym.KindEdgeAverage, domain: n.Domain().Key()}, n.Domain(), func(s *mesh.Submesh) *Operator {
			return edgeAverage(s, n.Domain())
		})
		if err != nil {
			return nil, err
		}
		return sym.MatVec(op.L, children[0])

	case sym.KindBroadcast:
		if n.Shape().Concrete() {
			return n.WithChildren(children)
		}
		s, err := o.ctx.submesh(n.Domain())
		if err != nil {
			return nil, err
		}
		rows := s.N()
		if n.OnEdges() {
			rows++
		}
		return sym.Broadcast(children[0], n.Domain(), rows, n.OnEdges())
	}
	return n.WithChildren(children)
}

// gradient returns G u + a·Left + b·Right
func (o *Discretizer) gradient(n, u *sym.Node) (*sym.Node, error) {
	operand := n.Child(0)
	bc, ok := o.boundary(operand)
	if !ok || bc.kind(sym.Left) == NoBc || bc.kind(sym.Right) == NoBc {
		return nil, fmt.Errorf("%w: gradient %v of %v needs conditions at both ends of %v", ErrMissingBoundaryCondition, n, operand, operand.Domain())
	}
	key := opKey{kind: sym.KindGradient, domain: n.Domain().Key(), left: bc.Left.Kind, right: bc.Right.Kind}
	op, err := o.ctx.operator(key, n.Domain(), func(s *mesh.Submesh) *Operator {
		return gradient(s, n.Domain(), bc.Left.Kind, bc.Right.Kind)
	})
	if err != nil {
		return nil, err
	}
	res, err := sym.MatVec(op.L, u)
	if err != nil {
		return nil, err
	}
	res, err = o.addBoundaryTerm(res, bc.Left, op.Left)
	if err != nil {
		return nil, err
	}
	return o.addBoundaryTerm(res, bc.Right, op.Right)
}

// boundaryValue returns the value of u at one end
func (o *Discretizer) boundaryValue(n, u *sym.Node) (*sym.Node, error) {
	operand := n.Child(0)
	bc, _ := o.boundary(operand)
	side := n.Side()
	kind := bc.kind(side)
	if kind == Dirichlet {
		return o.bcValue(bc.at(side))
	}
	key := opKey{kind: sym.KindBoundaryValue, domain: operand.Domain().Key(), side: side}
	if side == sym.Left {
		key.left = kind
	} else {
		key.right = kind
	}
	op, err := o.ctx.operator(key, operand.Domain(), func(s *mesh.Submesh) *Operator {
		return boundaryValue(s, side, kind)
	})
	if err != nil {
		return nil, err
	}
	res, err := sym.MatVec(op.L, u)
	if err != nil {
		return nil, err
	}
	return o.addBoundaryTerm(res, bc.at(side), op.Left)
}

// addBoundaryTerm returns res + value·coef
func (o *Discretizer) addBoundaryTerm(res *sym.Node, c *Condition, coef *sym.Node) (*sym.Node, error) {
	if c == nil || coef == nil {
		return res, nil
	}
	v, err := o.bcValue(c)
	if err != nil {
		return nil, err
	}
	if v.IsZero() || v.IsConstant(0) {
		return res, nil
	}
	term, err := sym.Mul(v, coef)
	if err != nil {
		return nil, err
	}
	return sym.Add(res, term)
}

// bcValue returns the discretized value of a condition
func (o *Discretizer) bcValue(c *Condition) (*sym.Node, error) {
	if c.Value == nil {
		return sym.Scalar(0), nil
	}
	v, err := o.Discretize(c.Value)
	if err != nil {
		return nil, err
	}
	if !v.Shape().Scalar() {
		return nil, fmt.Errorf("%w: boundary value %v must be a scalar", sym.ErrShapeMismatch, c.Value)
	}
	return v, nil
}

// boundary returns the conditions for the operand of a spatial operator, looking up the name
// of the variable first and then the domain key
func (o *Discretizer) boundary(operand *sym.Node) (bc Boundary, ok bool) {
	if operand.Kind() == sym.KindVariable {
		if bc, ok = o.bcs[operand.Name()]; ok {
			return
		}
	}
	bc, ok = o.bcs[operand.Domain().Key()]
	return
}
