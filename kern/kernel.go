// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package kern compiles discretized expression graphs into reusable numeric kernels
package kern

import (
	"errors"
	"fmt"
	"math"

	"github.com/cpmech/gobamm/sym"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// errors
var (
	ErrNotDiscretized = errors.New("graph is not discretized")
	ErrNonFinite      = errors.New("non-finite value")
)

// Options holds compilation options
type Options struct {
	Backend string   // "interp" or "frozen"
	Params  []string // names of parameters in the order of the parameter vector
	Verbose bool     // show messages
}

// SetDefault sets default values
func (o *Options) SetDefault() {
	if o.Backend == "" {
		o.Backend = "frozen"
	}
}

// instr holds the evaluation of one node
type instr struct {
	node   *sym.Node // node
	eval   evalFunc  // evaluator of the kind of node
	self   int       // index of own buffer
	args   []int     // indices of the buffers of children
	access []int     // access mode of each argument of binary kinds
	rows   int       // number of rows
	cols   int       // number of columns
	param  int       // index in the parameter vector (Parameter nodes)
}

// program holds the immutable result of compilation. It is shared by cloned kernels
type program struct {
	instrs  []*instr    // all instructions in topological order
	needed  []bool      // instruction owns a buffer
	frozen  [][]float64 // buffers computed at compile time; nil if computed per call
	run     []int       // instructions evaluated per call
	root    int         // index of root
	ny      int         // minimum length of the state vector
	np      int         // length of the parameter vector
	backend string      // name of backend
}

// Kernel evaluates one graph. The buffers belong to the instance: use Clone to evaluate the
// same graph from another goroutine
type Kernel struct {
	prog *program   // compiled program
	bufs [][]float64 // one buffer per instruction
	env  env        // arguments of the current call
}

// Compile lowers a discretized graph into a kernel. The graph is ordered once; each distinct
// node is evaluated at most once per call
func Compile(root *sym.Node, opts *Options) (o *Kernel, err error) {

	// options
	var cfg Options
	if opts != nil {
		cfg = *opts
	}
	cfg.SetDefault()
	backend, ok := backends[cfg.Backend]
	if !ok {
		return nil, chk.Err("cannot find kernel backend named %q", cfg.Backend)
	}
	pindex := make(map[string]int)
	for i, name := range cfg.Params {
		pindex[name] = i
	}

	// instructions
	order := sym.PostOrder(root)
	p := &program{backend: cfg.Backend, np: len(cfg.Params)}
	index := make(map[int64]int, len(order))
	for i, n := range order {
		ev := evaluators[n.Kind()]
		if ev == nil || !n.Shape().Concrete() {
			return nil, fmt.Errorf("%w: cannot compile %v", ErrNotDiscretized, n)
		}
		in := &instr{node: n, eval: ev, self: i, rows: n.Rows(), cols: n.Cols(), param: -1}
		for _, c := range n.Children() {
			in.args = append(in.args, index[c.Id()])
		}
		switch n.Kind() {
		case sym.KindParameter:
			k, ok := pindex[n.Name()]
			if !ok {
				return nil, chk.Err("parameter %q is not in the parameter vector %v", n.Name(), cfg.Params)
			}
			in.param = k
		case sym.KindStateSlice:
			p.ny = max(p.ny, n.End())
		case sym.KindAdd, sym.KindSub, sym.KindMul, sym.KindDiv, sym.KindPow:
			for _, c := range n.Children() {
				in.access = append(in.access, accessMode(c, n))
			}
		}
		index[n.Id()] = i
		p.instrs = append(p.instrs, in)
	}
	p.root = index[root.Id()]

	// matrices used only as operators do not need buffers
	p.needed = make([]bool, len(p.instrs))
	p.needed[p.root] = true
	for _, in := range p.instrs {
		for k, a := range in.args {
			if in.node.Kind() == sym.KindMatVec && k == 0 {
				continue
			}
			p.needed[a] = true
		}
	}

	// backend
	backend(p)
	o = newKernel(p)
	if cfg.Verbose {
		io.Pf("kern: %s backend. %d nodes. %d evaluated per call\n", p.backend, len(p.instrs), len(p.run))
	}
	return
}

// newKernel allocates the buffers of a kernel
func newKernel(p *program) (o *Kernel) {
	o = &Kernel{prog: p, bufs: make([][]float64, len(p.instrs))}
	for i, in := range p.instrs {
		switch {
		case p.frozen != nil && p.frozen[i] != nil:
			o.bufs[i] = p.frozen[i]
		case p.needed[i]:
			o.bufs[i] = make([]float64, in.rows*in.cols)
		}
	}
	return
}

// Eval computes the values of the graph. The result is row-major (rows x cols) and is
// overwritten by the next call
func (o *Kernel) Eval(t float64, y, p []float64) []float64 {
	if len(y) < o.prog.ny || len(p) < o.prog.np {
		chk.Panic("kern: state vector and parameters must have at least %d and %d values; got %d and %d", o.prog.ny, o.prog.np, len(y), len(p))
	}
	o.env = env{t, y, p}
	for _, i := range o.prog.run {
		in := o.prog.instrs[i]
		in.eval(in, o.bufs, &o.env)
	}
	return o.bufs[o.prog.root]
}

// EvalScalar evaluates a kernel with 1x1 output
func (o *Kernel) EvalScalar(t float64, y, p []float64) float64 {
	return o.Eval(t, y, p)[0]
}

// Clone returns a kernel sharing the compiled program but with its own buffers
func (o *Kernel) Clone() *Kernel { return newKernel(o.prog) }

// Rows returns the number of rows of the output
func (o *Kernel) Rows() int { return o.prog.instrs[o.prog.root].rows }

// Cols returns the number of columns of the output
func (o *Kernel) Cols() int { return o.prog.instrs[o.prog.root].cols }

// Backend returns the name of the backend
func (o *Kernel) Backend() string { return o.prog.backend }

// Nodes returns the number of distinct nodes in the graph
func (o *Kernel) Nodes() int { return len(o.prog.instrs) }

// Steps returns the number of nodes evaluated per call
func (o *Kernel) Steps() int { return len(o.prog.run) }

// Finite checks that all values are finite
func Finite(v []float64) error {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: value[%d] = %g", ErrNonFinite, i, x)
		}
	}
	return nil
}

// accessMode returns how the operand c is indexed by the binary node n
func accessMode(c, n *sym.Node) int {
	switch {
	case c.Shape() == n.Shape():
		return accessFull
	case c.Shape().Scalar():
		return accessScalar
	}
	return accessRow
}
