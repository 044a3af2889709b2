// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kern

import (
	"math"

	"github.com/cpmech/gobamm/sym"
	"github.com/cpmech/gosl/chk"
)

// env holds the arguments of one call
type env struct {
	t float64   // time
	y []float64 // state vector
	p []float64 // parameters
}

// evalFunc computes the buffer of instruction in given the buffers of its arguments
type evalFunc func(in *instr, b [][]float64, e *env)

// evaluators holds the evaluator of each kind; nil for kinds removed by discretization
var evaluators [sym.NumKinds]evalFunc

// binops holds the arithmetic of binary kinds. Division by zero gives NaN
var binops [sym.NumKinds]func(a, b float64) float64

func init() {
	evaluators[sym.KindScalar] = func(in *instr, b [][]float64, e *env) { b[in.self][0] = in.node.Value() }
	evaluators[sym.KindVector] = func(in *instr, b [][]float64, e *env) { copy(b[in.self], in.node.Data()) }
	evaluators[sym.KindMatrix] = evalMatrix
	evaluators[sym.KindZero] = func(in *instr, b [][]float64, e *env) { fill(b[in.self], 0) }
	evaluators[sym.KindParameter] = func(in *instr, b [][]float64, e *env) { b[in.self][0] = e.p[in.param] }
	evaluators[sym.KindStateSlice] = func(in *instr, b [][]float64, e *env) { copy(b[in.self], e.y[in.node.Start():in.node.End()]) }
	evaluators[sym.KindTime] = func(in *instr, b [][]float64, e *env) { b[in.self][0] = e.t }
	evaluators[sym.KindTimeFunction] = func(in *instr, b [][]float64, e *env) { b[in.self][0] = in.node.TimeFunc().F(e.t, nil) }
	evaluators[sym.KindAdd] = evalBinary
	evaluators[sym.KindSub] = evalBinary
	evaluators[sym.KindMul] = evalBinary
	evaluators[sym.KindDiv] = evalBinary
	evaluators[sym.KindPow] = evalBinary
	evaluators[sym.KindNeg] = evalUnary
	evaluators[sym.KindAbs] = evalUnary
	evaluators[sym.KindFunction] = evalUnary
	evaluators[sym.KindConcatenation] = evalConcat
	evaluators[sym.KindBroadcast] = evalBroadcast
	evaluators[sym.KindMatVec] = evalMatVec
	for k := sym.Kind(0); k < sym.NumKinds; k++ {
		if evaluators[k] == nil && !k.Info().Spatial {
			chk.Panic("kern: kind %v has no evaluator", k)
		}
	}
	binops[sym.KindAdd] = func(a, b float64) float64 { return a + b }
	binops[sym.KindSub] = func(a, b float64) float64 { return a - b }
	binops[sym.KindMul] = func(a, b float64) float64 { return a * b }
	binops[sym.KindDiv] = func(a, b float64) float64 {
		if b == 0 {
			return math.NaN()
		}
		return a / b
	}
	binops[sym.KindPow] = math.Pow
}

// evaluators ///////////////////////////////////////////////////////////////////////////////////////

func evalMatrix(in *instr, b [][]float64, e *env) {
	out, m := b[in.self], in.node.Matrix()
	fill(out, 0)
	for i := 0; i < m.M; i++ {
		cols, vals := m.Row(i)
		for k, j := range cols {
			out[i*m.N+j] = vals[k]
		}
	}
}

// evalBinary handles equal shapes, 1x1 operands and row scaling by columns
func evalBinary(in *instr, b [][]float64, e *env) {
	out, x, y := b[in.self], b[in.args[0]], b[in.args[1]]
	op := binops[in.node.Kind()]
	if len(x) == len(out) && len(y) == len(out) {
		for i := range out {
			out[i] = op(x[i], y[i])
		}
		return
	}
	c := in.cols
	xa, ya := in.access[0], in.access[1]
	for i := 0; i < in.rows; i++ {
		for j := 0; j < c; j++ {
			out[i*c+j] = op(x[at(xa, i, j, c)], y[at(ya, i, j, c)])
		}
	}
}

func evalUnary(in *instr, b [][]float64, e *env) {
	out, x := b[in.self], b[in.args[0]]
	switch in.node.Kind() {
	case sym.KindNeg:
		for i, v := range x {
			out[i] = -v
		}
	case sym.KindAbs:
		for i, v := range x {
			out[i] = math.Abs(v)
		}
	default:
		f := in.node.Func()
		for i, v := range x {
			out[i] = f.Eval(v)
		}
	}
}

func evalConcat(in *instr, b [][]float64, e *env) {
	out, pos := b[in.self], 0
	for _, a := range in.args {
		pos += copy(out[pos:], b[a])
	}
}

func evalBroadcast(in *instr, b [][]float64, e *env) {
	out, x := b[in.self], b[in.args[0]]
	for i := 0; i < in.rows; i++ {
		copy(out[i*in.cols:(i+1)*in.cols], x)
	}
}

func evalMatVec(in *instr, b [][]float64, e *env) {
	in.node.Child(0).Matrix().ApplyCols(b[in.self], b[in.args[1]], in.cols)
}

// auxiliary ///////////////////////////////////////////////////////////////////////////////////////

// access modes of binary operands
const (
	accessFull   = iota // same shape as the result
	accessScalar        // 1x1
	accessRow           // column scaling the rows of the result
)

// at returns the index of (i, j) in an operand with the given access mode
func at(mode, i, j, c int) int {
	switch mode {
	case accessScalar:
		return 0
	case accessRow:
		return i
	}
	return i*c + j
}

// fill sets all values of v to x
func fill(v []float64, x float64) {
	for i := range v {
		v[i] = x
	}
}
