// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sym

import (
	"math"

	"github.com/cpmech/gosl/chk"
)

// Func defines the unary functions available to KindFunction nodes
type Func int

const (
	FuncExp Func = iota
	FuncLog
	FuncSqrt
	FuncSin
	FuncCos
	FuncTanh
	FuncSinh
	FuncCosh
	FuncArcsinh
	FuncSign
	NumFuncs
)

// funcs holds names and implementations
var funcs = [NumFuncs]struct {
	name string
	f    func(x float64) float64
}{
	FuncExp:     {"exp", math.Exp},
	FuncLog:     {"log", math.Log},
	FuncSqrt:    {"sqrt", math.Sqrt},
	FuncSin:     {"sin", math.Sin},
	FuncCos:     {"cos", math.Cos},
	FuncTanh:    {"tanh", math.Tanh},
	FuncSinh:    {"sinh", math.Sinh},
	FuncCosh:    {"cosh", math.Cosh},
	FuncArcsinh: {"arcsinh", math.Asinh},
	FuncSign:    {"sign", sign},
}

func init() {
	for i, f := range funcs {
		if f.f == nil {
			chk.Panic("sym: function %d is not implemented", i)
		}
	}
}

// Name returns the name of the function
func (f Func) Name() string { return funcs[f].name }

// Eval evaluates the function at x
func (f Func) Eval(x float64) float64 { return funcs[f].f(x) }

// FuncByName returns the function with the given name
func FuncByName(name string) (f Func, ok bool) {
	for i, g := range funcs {
		if g.name == name {
			return Func(i), true
		}
	}
	return
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// Binary applies the arithmetic of a binary kind to two numbers. Division by zero
// returns NaN
func Binary(k Kind, a, b float64) float64 {
	switch k {
	case KindAdd:
		return a + b
	case KindSub:
		return a - b
	case KindMul:
		return a * b
	case KindDiv:
		if b == 0 {
			return math.NaN()
		}
		return a / b
	case KindPow:
		return math.Pow(a, b)
	}
	chk.Panic("sym: %v is not an arithmetic kind", k)
	return 0
}

// Unary applies a unary kind to a number
func Unary(k Kind, fn Func, a float64) float64 {
	switch k {
	case KindNeg:
		return -a
	case KindAbs:
		return math.Abs(a)
	case KindFunction:
		return fn.Eval(a)
	}
	chk.Panic("sym: %v is not a unary kind", k)
	return 0
}
