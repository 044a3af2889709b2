// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sym

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
)

// Matrix is an immutable sparse matrix stored by rows (CSR). Discrete operators and the
// derivatives of state slices are Matrices
type Matrix struct {
	id     int64     // identity
	key    string    // content key
	M, N   int       // dimensions
	rowPtr []int     // [M+1] start of each row
	colIdx []int     // [nnz] column indices, increasing within each row
	vals   []float64 // [nnz] values

	// compressed-column copy used with la.SpMatVecMul
	once sync.Once
	cc   *la.CCMatrix
}

// NewMatrix returns a new m x n matrix from coordinates. Repeated (i, j) pairs are summed and
// exact zeros are dropped
func NewMatrix(m, n int, I, J []int, X []float64) *Matrix {
	if len(I) != len(J) || len(I) != len(X) {
		chk.Panic("sym: NewMatrix: coordinate arrays must have the same length. %d, %d, %d", len(I), len(J), len(X))
	}
	type entry struct {
		j int
		x float64
	}
	rows := make([][]entry, m)
	for k := range I {
		if I[k] < 0 || I[k] >= m || J[k] < 0 || J[k] >= n {
			chk.Panic("sym: NewMatrix: entry (%d,%d) is outside %d x %d", I[k], J[k], m, n)
		}
		rows[I[k]] = append(rows[I[k]], entry{J[k], X[k]})
	}
	o := &Matrix{id: newId(), M: m, N: n, rowPtr: make([]int, m+1)}
	for i, row := range rows {
		sort.SliceStable(row, func(a, b int) bool { return row[a].j < row[b].j })
		for k := 0; k < len(row); {
			j, x := row[k].j, 0.0
			for ; k < len(row) && row[k].j == j; k++ {
				x += row[k].x
			}
			if x != 0 {
				o.colIdx = append(o.colIdx, j)
				o.vals = append(o.vals, x)
			}
		}
		o.rowPtr[i+1] = len(o.colIdx)
	}
	o.key = o.contentKey()
	return o
}

// FromTriplet returns a new matrix with the entries of T. Repeated entries are summed
func FromTriplet(T *la.Triplet) *Matrix {
	if T.Len() == 0 {
		D := T.ToDense()
		return NewMatrix(D.M, D.N, nil, nil, nil)
	}
	cc := T.ToMatrix(nil)
	D := cc.ToDense()
	var I, J []int
	var X []float64
	for i := 0; i < D.M; i++ {
		for j := 0; j < D.N; j++ {
			if x := D.Get(i, j); x != 0 {
				I, J, X = append(I, i), append(J, j), append(X, x)
			}
		}
	}
	o := NewMatrix(D.M, D.N, I, J, X)
	o.once.Do(func() { o.cc = cc })
	return o
}

// Identity returns the n x n identity
func Identity(n int) *Matrix {
	return Selection(n, n, 0)
}

// Selection returns the m x n matrix picking columns offset, offset+1, ... offset+m-1; i.e.
// the derivative of y[offset:offset+m] with respect to y[0:n]
func Selection(m, n, offset int) *Matrix {
	I, J, X := make([]int, m), make([]int, m), make([]float64, m)
	for i := 0; i < m; i++ {
		I[i], J[i], X[i] = i, offset+i, 1
	}
	return NewMatrix(m, n, I, J, X)
}

// Id returns the identity of the matrix
func (o *Matrix) Id() int64 { return o.id }

// Key returns the content key; equal matrices have equal keys
func (o *Matrix) Key() string { return o.key }

// Nnz returns the number of stored entries
func (o *Matrix) Nnz() int { return len(o.vals) }

// Get returns the (i, j) entry
func (o *Matrix) Get(i, j int) float64 {
	for k := o.rowPtr[i]; k < o.rowPtr[i+1]; k++ {
		if o.colIdx[k] == j {
			return o.vals[k]
		}
	}
	return 0
}

// Row returns the column indices and values of row i. The slices must not be modified
func (o *Matrix) Row(i int) (cols []int, vals []float64) {
	a, b := o.rowPtr[i], o.rowPtr[i+1]
	return o.colIdx[a:b], o.vals[a:b]
}

// CC returns the compressed-column form. It is built once and shared
func (o *Matrix) CC() *la.CCMatrix {
	o.once.Do(func() {
		var t la.Triplet
		t.Init(o.M, o.N, len(o.vals))
		for i := 0; i < o.M; i++ {
			for k := o.rowPtr[i]; k < o.rowPtr[i+1]; k++ {
				t.Put(i, o.colIdx[k], o.vals[k])
			}
		}
		o.cc = t.ToMatrix(nil)
	})
	return o.cc
}

// Apply computes v := A u with u and v column vectors
func (o *Matrix) Apply(v, u []float64) {
	if len(o.vals) == 0 {
		for i := range v {
			v[i] = 0
		}
		return
	}
	la.SpMatVecMul(v, 1, o.CC(), u)
}

// ApplyCols computes V := A U where U (N x c) and V (M x c) are stored by rows
func (o *Matrix) ApplyCols(V, U []float64, c int) {
	if c == 1 {
		o.Apply(V, U)
		return
	}
	for i := 0; i < o.M; i++ {
		vi := V[i*c : (i+1)*c]
		for j := range vi {
			vi[j] = 0
		}
		for k := o.rowPtr[i]; k < o.rowPtr[i+1]; k++ {
			a, uk := o.vals[k], U[o.colIdx[k]*c:(o.colIdx[k]+1)*c]
			for j := range vi {
				vi[j] += a * uk[j]
			}
		}
	}
}

// Mul returns A B
func (o *Matrix) Mul(b *Matrix) *Matrix {
	if o.N != b.M {
		chk.Panic("sym: cannot multiply %d x %d matrix by %d x %d matrix", o.M, o.N, b.M, b.N)
	}
	var I, J []int
	var X []float64
	for i := 0; i < o.M; i++ {
		for k := o.rowPtr[i]; k < o.rowPtr[i+1]; k++ {
			a, r := o.vals[k], o.colIdx[k]
			for l := b.rowPtr[r]; l < b.rowPtr[r+1]; l++ {
				I = append(I, i)
				J = append(J, b.colIdx[l])
				X = append(X, a*b.vals[l])
			}
		}
	}
	return NewMatrix(o.M, b.N, I, J, X)
}

// Dense returns the dense form
func (o *Matrix) Dense() [][]float64 {
	res := make([][]float64, o.M)
	for i := range res {
		res[i] = make([]float64, o.N)
		for k := o.rowPtr[i]; k < o.rowPtr[i+1]; k++ {
			res[i][o.colIdx[k]] = o.vals[k]
		}
	}
	return res
}

// contentKey encodes the dimensions and entries
func (o *Matrix) contentKey() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(o.M))
	b.WriteByte('x')
	b.WriteString(strconv.Itoa(o.N))
	for i := 0; i < o.M; i++ {
		b.WriteByte(';')
		for k := o.rowPtr[i]; k < o.rowPtr[i+1]; k++ {
			b.WriteString(strconv.Itoa(o.colIdx[k]))
			b.WriteByte(':')
			b.WriteString(strconv.FormatUint(math.Float64bits(o.vals[k]), 16))
			b.WriteByte(',')
		}
	}
	return b.String()
}
