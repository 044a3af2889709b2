// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package deriv

import (
	"fmt"

	"github.com/cpmech/gobamm/simp"
	"github.com/cpmech/gobamm/sym"
	"golang.org/x/sync/errgroup"
)

// Blocks holds the block structure of the Jacobian of a stacked residual. Row block i is
// the residual of the i-th state variable; column block j is the j-th state slice
type Blocks struct {
	Rows []*sym.Node   // residual pieces (discretized columns)
	Cols []*sym.Node   // state slices
	B    [][]*sym.Node // [nrows][ncols] simplified derivatives; nil for zero blocks
}

// Jacobian differentiates each residual piece with respect to each state slice. Every row
// block is simplified with its own Simplifier; with parallel = true row blocks are derived
// concurrently since they share no mutable state
func Jacobian(rows, cols []*sym.Node, parallel bool) (o *Blocks, err error) {
	for _, c := range cols {
		if c.Kind() != sym.KindStateSlice {
			return nil, fmt.Errorf("%w: Jacobian columns must be state slices; got %v", ErrNotDifferentiable, c)
		}
	}
	o = &Blocks{Rows: rows, Cols: cols, B: make([][]*sym.Node, len(rows))}
	var g errgroup.Group
	if !parallel {
		g.SetLimit(1)
	}
	for i := range rows {
		i := i
		g.Go(func() error {
			return o.deriveRow(i)
		})
	}
	err = g.Wait()
	return
}

// deriveRow computes the blocks of row i
func (o *Blocks) deriveRow(i int) error {
	s := simp.New()
	o.B[i] = make([]*sym.Node, len(o.Cols))
	for j, c := range o.Cols {
		d, err := Diff(o.Rows[i], c)
		if err != nil {
			return err
		}
		d, err = s.Simplify(d)
		if err != nil {
			return err
		}
		if !d.IsZero() {
			o.B[i][j] = d
		}
	}
	return nil
}

// Nonzero returns the number of blocks that are not the zero sentinel
func (o *Blocks) Nonzero() (n int) {
	for _, row := range o.B {
		for _, b := range row {
			if b != nil {
				n++
			}
		}
	}
	return
}

// Sensitivity returns the simplified derivative of f with respect to a parameter
func Sensitivity(f *sym.Node, param string) (*sym.Node, error) {
	d, err := Diff(f, sym.Parameter(param))
	if err != nil {
		return nil, err
	}
	return simp.Simplify(d)
}
