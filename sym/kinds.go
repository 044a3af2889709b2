// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package sym implements the expression graph: immutable nodes with shapes and domains
package sym

import "github.com/cpmech/gosl/chk"

// Kind defines the node kinds. The set is closed; per-kind tables in this and other
// packages are indexed by Kind and checked for completeness at init time
type Kind int

const (
	KindScalar          Kind = iota // literal scalar
	KindVector                      // literal column vector
	KindMatrix                      // literal sparse matrix (operand of MatVec only)
	KindZero                        // structural zero
	KindParameter                   // named scalar parameter
	KindVariable                    // named variable (before discretization)
	KindStateSlice                  // contiguous slice of the state vector
	KindTime                        // time t
	KindSpatialVariable             // coordinate on a domain
	KindTimeFunction                // f(t) from the functions database
	KindAdd                         // a + b
	KindSub                         // a - b
	KindMul                         // a * b (elementwise, scalar or row scaling)
	KindDiv                         // a / b
	KindPow                         // a ^ b
	KindNeg                         // -a
	KindAbs                         // |a|
	KindFunction                    // f(a) with f in Func
	KindGradient                    // spatial gradient
	KindDivergence                  // spatial divergence
	KindBoundaryValue               // value at the left or right boundary
	KindIntegral                    // integral over the domain
	KindEdgeAverage                 // average of node values onto edges
	KindConcatenation               // vertical stack over adjacent domains
	KindBroadcast                   // scalar (or row) repeated over a domain
	KindMatVec                      // A * x with A constant and sparse
	NumKinds                        // number of kinds
)

// kind classes
const (
	ClassLeaf    = iota // no children
	ClassBinary         // two children
	ClassUnary          // one child
	ClassSpatial        // one child; removed by discretization
	ClassNary           // any number of children
)

// KindInfo holds information about a kind
type KindInfo struct {
	Name    string // name used in messages and keys
	Class   int    // ClassLeaf, ClassBinary, ...
	Arity   int    // number of children; -1 means any
	Spatial bool   // kind must be replaced by the discretizer before compiling
}

// kinds holds information of all kinds
var kinds = [NumKinds]KindInfo{
	KindScalar:          {"scalar", ClassLeaf, 0, false},
	KindVector:          {"vector", ClassLeaf, 0, false},
	KindMatrix:          {"matrix", ClassLeaf, 0, false},
	KindZero:            {"zero", ClassLeaf, 0, false},
	KindParameter:       {"parameter", ClassLeaf, 0, false},
	KindVariable:        {"variable", ClassLeaf, 0, true},
	KindStateSlice:      {"slice", ClassLeaf, 0, false},
	KindTime:            {"time", ClassLeaf, 0, false},
	KindSpatialVariable: {"spatial", ClassLeaf, 0, true},
	KindTimeFunction:    {"tfunc", ClassLeaf, 0, false},
	KindAdd:             {"add", ClassBinary, 2, false},
	KindSub:             {"sub", ClassBinary, 2, false},
	KindMul:             {"mul", ClassBinary, 2, false},
	KindDiv:             {"div", ClassBinary, 2, false},
	KindPow:             {"pow", ClassBinary, 2, false},
	KindNeg:             {"neg", ClassUnary, 1, false},
	KindAbs:             {"abs", ClassUnary, 1, false},
	KindFunction:        {"func", ClassUnary, 1, false},
	KindGradient:        {"grad", ClassSpatial, 1, true},
	KindDivergence:      {"divergence", ClassSpatial, 1, true},
	KindBoundaryValue:   {"bvalue", ClassSpatial, 1, true},
	KindIntegral:        {"integral", ClassSpatial, 1, true},
	KindEdgeAverage:     {"edgeavg", ClassSpatial, 1, true},
	KindConcatenation:   {"concat", ClassNary, -1, false},
	KindBroadcast:       {"broadcast", ClassUnary, 1, false},
	KindMatVec:          {"matvec", ClassBinary, 2, false},
}

func init() {
	for k, info := range kinds {
		if info.Name == "" {
			chk.Panic("sym: kind %d has no entry in the kinds table", k)
		}
	}
}

// Info returns the information about this kind
func (k Kind) Info() KindInfo {
	if k < 0 || k >= NumKinds {
		chk.Panic("sym: invalid kind %d", int(k))
	}
	return kinds[k]
}

// String returns the name of this kind
func (k Kind) String() string { return k.Info().Name }

// Side selects a boundary of a one-dimensional domain
type Side int

const (
	Left  Side = iota // x = xmin
	Right             // x = xmax
)

// String returns "left" or "right"
func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}
