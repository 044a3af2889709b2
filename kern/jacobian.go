// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kern

import (
	"fmt"
	"runtime"

	"github.com/cpmech/gobamm/sym"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
	"golang.org/x/sync/errgroup"
)

// jblock holds the kernel of one nonzero Jacobian block and its structural entries
type jblock struct {
	r0, c0 int       // offsets of the block
	k      *Kernel   // kernel of the block (rows x cols)
	pos    []int     // positions of structural entries in the buffer of the kernel
	I, J   []int     // global indices of structural entries
	X      []float64 // values of structural entries
}

// JacKernel evaluates a block-structured Jacobian. Zero blocks are skipped. Blocks write
// to disjoint ranges, so they are evaluated concurrently when Parallel is set
type JacKernel struct {
	Parallel bool      // evaluate blocks concurrently
	m, n     int       // dimensions
	blocks   []*jblock // nonzero blocks
	pattern  [][]bool  // [nrows][ncols] nonzero blocks
}

// CompileJacobian compiles the nonzero blocks B[i][j] = ∂rows[i]/∂cols[j]; nil marks a zero
// block. Row offsets follow the order of rows; column offsets are the starts of the state
// slices in cols
func CompileJacobian(rows, cols []*sym.Node, B [][]*sym.Node, opts *Options) (o *JacKernel, err error) {
	o = &JacKernel{Parallel: true}
	for _, col := range cols {
		if col.Kind() != sym.KindStateSlice {
			return nil, chk.Err("columns of the Jacobian must be state slices; got %v", col)
		}
		o.n = max(o.n, col.End())
	}
	o.pattern = make([][]bool, len(rows))
	r0 := 0
	for i, row := range rows {
		o.pattern[i] = make([]bool, len(cols))
		for j, col := range cols {
			if B[i][j] == nil {
				continue
			}
			k, err := Compile(B[i][j], opts)
			if err != nil {
				return nil, err
			}
			if k.Rows() != row.Rows() || k.Cols() != col.Rows() {
				return nil, fmt.Errorf("%w: block (%d,%d) is %dx%d; expected %dx%d", ErrNotDiscretized, i, j, k.Rows(), k.Cols(), row.Rows(), col.Rows())
			}
			o.pattern[i][j] = true
			o.blocks = append(o.blocks, newBlock(r0, col.Start(), k, structure(B[i][j])))
		}
		r0 += row.Rows()
	}
	o.m = r0
	return
}

// Eval evaluates all blocks. It fails with ErrNonFinite if any entry is not finite
func (o *JacKernel) Eval(t float64, y, p []float64) error {
	var g errgroup.Group
	if o.Parallel {
		g.SetLimit(runtime.GOMAXPROCS(0))
	} else {
		g.SetLimit(1)
	}
	for _, blk := range o.blocks {
		blk := blk
		g.Go(func() error {
			return blk.eval(t, y, p)
		})
	}
	return g.Wait()
}

// eval evaluates one block and gathers its structural entries
func (o *jblock) eval(t float64, y, p []float64) error {
	v := o.k.Eval(t, y, p)
	for k, i := range o.pos {
		o.X[k] = v[i]
	}
	if err := Finite(o.X); err != nil {
		return fmt.Errorf("Jacobian block at (%d,%d): %w", o.r0, o.c0, err)
	}
	return nil
}

// AddTo puts α J into the triplet. Eval must be called first
func (o *JacKernel) AddTo(T *la.Triplet, α float64) {
	for _, blk := range o.blocks {
		for k, x := range blk.X {
			T.Put(blk.I[k], blk.J[k], α*x)
		}
	}
}

// Nnz returns the number of structural entries. AddTo puts exactly Nnz entries, some of
// which may have zero values
func (o *JacKernel) Nnz() (nnz int) {
	for _, blk := range o.blocks {
		nnz += len(blk.pos)
	}
	return
}

// MaxNnz returns the number of entries AddTo puts into a triplet
func (o *JacKernel) MaxNnz() int { return o.Nnz() }

// Pattern returns the block sparsity pattern: true for blocks that are not structurally zero
func (o *JacKernel) Pattern() [][]bool { return o.pattern }

// Dense returns the dense Jacobian computed by the last Eval
func (o *JacKernel) Dense() [][]float64 {
	J := make([][]float64, o.m)
	for i := range J {
		J[i] = make([]float64, o.n)
	}
	for _, blk := range o.blocks {
		for k, x := range blk.X {
			J[blk.I[k]][blk.J[k]] += x
		}
	}
	return J
}

// Clone returns a Jacobian kernel with independent block kernels
func (o *JacKernel) Clone() *JacKernel {
	c := &JacKernel{Parallel: o.Parallel, m: o.m, n: o.n, pattern: o.pattern}
	for _, blk := range o.blocks {
		c.blocks = append(c.blocks, &jblock{r0: blk.r0, c0: blk.c0, k: blk.k.Clone(), pos: blk.pos, I: blk.I, J: blk.J, X: make([]float64, len(blk.X))})
	}
	return c
}

// auxiliary ///////////////////////////////////////////////////////////////////////////////////////

// newBlock allocates a block with the structural entries given by mask (rows x cols)
func newBlock(r0, c0 int, k *Kernel, mask []bool) (o *jblock) {
	o = &jblock{r0: r0, c0: c0, k: k}
	c := k.Cols()
	for i, nz := range mask {
		if nz {
			o.pos = append(o.pos, i)
			o.I = append(o.I, r0+i/c)
			o.J = append(o.J, c0+i%c)
		}
	}
	o.X = make([]float64, len(o.pos))
	return
}

// structure returns the row-major mask of entries of n that may be nonzero. Entries outside
// the mask vanish whenever the operands are finite and denominators nonzero
func structure(n *sym.Node) []bool {
	masks := make(map[int64][]bool)
	for _, a := range sym.PostOrder(n) {
		masks[a.Id()] = mask(a, masks)
	}
	return masks[n.Id()]
}

// mask returns the mask of n given the masks of its children
func mask(n *sym.Node, masks map[int64][]bool) (out []bool) {
	r, c := n.Rows(), n.Cols()
	out = make([]bool, r*c)
	child := func(i int) []bool { return masks[n.Child(i).Id()] }
	switch n.Kind() {
	case sym.KindZero:
	case sym.KindScalar:
		out[0] = n.Value() != 0
	case sym.KindVector:
		for i, x := range n.Data() {
			out[i] = x != 0
		}
	case sym.KindMatrix:
		m := n.Matrix()
		for i := 0; i < m.M; i++ {
			cols, vals := m.Row(i)
			for k, j := range cols {
				out[i*c+j] = vals[k] != 0
			}
		}
	case sym.KindAdd, sym.KindSub, sym.KindMul, sym.KindDiv:
		x, y := child(0), child(1)
		xa, ya := accessMode(n.Child(0), n), accessMode(n.Child(1), n)
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				a, b := x[at(xa, i, j, c)], y[at(ya, i, j, c)]
				switch n.Kind() {
				case sym.KindAdd, sym.KindSub:
					out[i*c+j] = a || b
				case sym.KindMul:
					out[i*c+j] = a && b
				default:
					out[i*c+j] = a
				}
			}
		}
	case sym.KindNeg, sym.KindAbs:
		copy(out, child(0))
	case sym.KindConcatenation:
		pos := 0
		for i := range n.Children() {
			pos += copy(out[pos:], child(i))
		}
	case sym.KindBroadcast:
		for i := 0; i < r; i++ {
			copy(out[i*c:(i+1)*c], child(0))
		}
	case sym.KindMatVec:
		m, x := n.Child(0).Matrix(), child(1)
		for i := 0; i < m.M; i++ {
			cols, _ := m.Row(i)
			for _, k := range cols {
				for j := 0; j < c; j++ {
					out[i*c+j] = out[i*c+j] || x[k*c+j]
				}
			}
		}
	default:
		for i := range out {
			out[i] = true
		}
	}
	return
}
