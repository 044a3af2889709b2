// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sym

import (
	"errors"
	"strings"

	"github.com/cpmech/gosl/io"
)

// errors
var (
	ErrDomainMismatch         = errors.New("domain mismatch")
	ErrShapeMismatch          = errors.New("shape mismatch")
	ErrDivisionByZeroConstant = errors.New("division by zero constant")
)

// Domain holds the ordered names of the regions a node lives on. An empty Domain
// means "no domain" (scalars, parameters and time)
type Domain []string

// NewDomain returns a new domain
func NewDomain(names ...string) Domain {
	return append(Domain{}, names...)
}

// Empty tells whether the domain has no regions
func (o Domain) Empty() bool { return len(o) == 0 }

// Key returns the names joined by "+"; e.g. "negative electrode+separator"
func (o Domain) Key() string { return strings.Join(o, "+") }

// Equal compares two domains
func (o Domain) Equal(b Domain) bool {
	if len(o) != len(b) {
		return false
	}
	for i := range o {
		if o[i] != b[i] {
			return false
		}
	}
	return true
}

// String returns a representation for messages
func (o Domain) String() string {
	if len(o) == 0 {
		return "[]"
	}
	return "[" + strings.Join(o, ", ") + "]"
}

// Unknown marks the number of rows of a domain-sized node before discretization
const Unknown = -1

// Shape holds rows and columns. Rows are Unknown before discretization for nodes
// living on a domain
type Shape struct {
	Rows int // number of rows or Unknown
	Cols int // number of columns
}

// scalar shape
var scalarShape = Shape{1, 1}

// Concrete tells whether the number of rows is known
func (o Shape) Concrete() bool { return o.Rows != Unknown }

// Scalar tells whether the shape is 1x1
func (o Shape) Scalar() bool { return o.Rows == 1 && o.Cols == 1 }

// Size returns rows*cols or Unknown
func (o Shape) Size() int {
	if o.Rows == Unknown {
		return Unknown
	}
	return o.Rows * o.Cols
}

// String returns "rows x cols"
func (o Shape) String() string {
	if o.Rows == Unknown {
		return io.Sf("?x%d", o.Cols)
	}
	return io.Sf("%dx%d", o.Rows, o.Cols)
}
