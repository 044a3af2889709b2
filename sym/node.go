// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sym

import (
	"math"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/cpmech/gosl/fun/dbf"
	"github.com/cpmech/gosl/io"
)

// lastId holds the last identifier given to a node or matrix
var lastId atomic.Int64

// newId returns a new unique identifier
func newId() int64 { return lastId.Add(1) }

// Node is one element of the expression graph. Nodes are immutable after construction
// and may be shared by many parents; the graph is a DAG
type Node struct {

	// structure
	id       int64   // unique identity
	kind     Kind    // node kind
	children []*Node // ordered children
	domain   Domain  // regions the values live on; empty for no domain
	shape    Shape   // rows x cols
	edges    bool    // values live on edges (fluxes) instead of cell centres

	// payload
	name  string    // Parameter, Variable, StateSlice, SpatialVariable, TimeFunction
	value float64   // Scalar
	data  []float64 // Vector
	mat   *Matrix   // Matrix
	fn    Func      // Function
	side  Side      // BoundaryValue
	start int       // StateSlice
	tf    dbf.T     // TimeFunction

	// derived
	key string // content key: kind, payload, shape, domain and child ids
}

// accessors ///////////////////////////////////////////////////////////////////////////////////////

// Id returns the unique identity of the node
func (o *Node) Id() int64 { return o.id }

// Kind returns the kind
func (o *Node) Kind() Kind { return o.kind }

// Children returns the children. The slice must not be modified
func (o *Node) Children() []*Node { return o.children }

// Child returns the i-th child
func (o *Node) Child(i int) *Node { return o.children[i] }

// Domain returns the domain. The slice must not be modified
func (o *Node) Domain() Domain { return o.domain }

// Shape returns the shape
func (o *Node) Shape() Shape { return o.shape }

// Rows returns the number of rows (or Unknown)
func (o *Node) Rows() int { return o.shape.Rows }

// Cols returns the number of columns
func (o *Node) Cols() int { return o.shape.Cols }

// OnEdges tells whether the values live on edges
func (o *Node) OnEdges() bool { return o.edges }

// Name returns the name of Parameter, Variable, StateSlice, SpatialVariable and TimeFunction nodes
func (o *Node) Name() string { return o.name }

// Value returns the value of a Scalar node
func (o *Node) Value() float64 { return o.value }

// Data returns the values of a Vector node. The slice must not be modified
func (o *Node) Data() []float64 { return o.data }

// Matrix returns the matrix of a Matrix node
func (o *Node) Matrix() *Matrix { return o.mat }

// Func returns the function of a Function node
func (o *Node) Func() Func { return o.fn }

// Side returns the side of a BoundaryValue node
func (o *Node) Side() Side { return o.side }

// Start returns the first index of a StateSlice node
func (o *Node) Start() int { return o.start }

// End returns one past the last index of a StateSlice node
func (o *Node) End() int { return o.start + o.shape.Rows }

// TimeFunc returns the function of a TimeFunction node
func (o *Node) TimeFunc() dbf.T { return o.tf }

// Key returns the content key used for structural equality. Two nodes with the same key
// compute the same values
func (o *Node) Key() string { return o.key }

// IsZero tells whether the node is the structural zero
func (o *Node) IsZero() bool { return o.kind == KindZero }

// IsLiteral tells whether the node is a Scalar, Vector or Zero literal
func (o *Node) IsLiteral() bool {
	return o.kind == KindScalar || o.kind == KindVector || o.kind == KindZero
}

// IsConstant tells whether the node is a literal equal to c everywhere
func (o *Node) IsConstant(c float64) bool {
	switch o.kind {
	case KindScalar:
		return o.value == c
	case KindZero:
		return c == 0
	case KindVector:
		for _, v := range o.data {
			if v != c {
				return false
			}
		}
		return len(o.data) > 0
	}
	return false
}

// String returns a short description such as "#12 add [negative electrode] ?x1"
func (o *Node) String() string {
	l := io.Sf("#%d %s", o.id, o.kind)
	if o.name != "" {
		l += io.Sf(" %q", o.name)
	}
	if !o.domain.Empty() {
		l += " " + o.domain.String()
	}
	l += " " + o.shape.String()
	if o.edges {
		l += " edges"
	}
	return l
}

// auxiliary ///////////////////////////////////////////////////////////////////////////////////////

// newNode allocates a node and computes its key
func newNode(kind Kind, children []*Node, domain Domain, shape Shape, edges bool, setPayload func(n *Node)) *Node {
	o := &Node{id: newId(), kind: kind, children: children, domain: domain, shape: shape, edges: edges}
	if setPayload != nil {
		setPayload(o)
	}
	o.key = o.computeKey()
	return o
}

// computeKey returns the content key
func (o *Node) computeKey() string {
	var b strings.Builder
	b.WriteString(o.kind.String())
	b.WriteByte('|')
	b.WriteString(o.domain.Key())
	b.WriteByte('|')
	b.WriteString(o.shape.String())
	if o.edges {
		b.WriteString("|e")
	}
	b.WriteByte('|')
	switch o.kind {
	case KindScalar:
		b.WriteString(strconv.FormatUint(math.Float64bits(o.value), 16))
	case KindVector:
		for _, v := range o.data {
			b.WriteString(strconv.FormatUint(math.Float64bits(v), 16))
			b.WriteByte(',')
		}
	case KindMatrix:
		b.WriteString(o.mat.Key())
	case KindFunction:
		b.WriteString(o.fn.Name())
	case KindBoundaryValue:
		b.WriteString(o.side.String())
	case KindStateSlice:
		b.WriteString(o.name)
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(o.start))
	default:
		b.WriteString(o.name)
	}
	for _, c := range o.children {
		b.WriteByte('|')
		b.WriteString(strconv.FormatInt(c.id, 10))
	}
	return b.String()
}
