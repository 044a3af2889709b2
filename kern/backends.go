// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kern

import "github.com/cpmech/gobamm/sym"

// backends holds all available backends. A backend decides which instructions are evaluated
// per call and which are computed once at compile time
var backends = make(map[string]func(p *program))

func init() {
	backends["interp"] = interpreted
	backends["frozen"] = frozen
}

// Backends returns the names of the available backends
func Backends() []string { return []string{"frozen", "interp"} }

// interpreted evaluates every needed node per call
func interpreted(p *program) {
	for i := range p.instrs {
		if p.needed[i] {
			p.run = append(p.run, i)
		}
	}
}

// frozen evaluates constant subgraphs once at compile time. A node is constant if it is a
// literal or if all its children are constant
func frozen(p *program) {
	constant := make([]bool, len(p.instrs))
	for i, in := range p.instrs {
		switch in.node.Kind() {
		case sym.KindScalar, sym.KindVector, sym.KindMatrix, sym.KindZero:
			constant[i] = true
		default:
			if in.node.Kind().Info().Class == sym.ClassLeaf {
				continue
			}
			constant[i] = true
			for _, a := range in.args {
				constant[i] = constant[i] && constant[a]
			}
		}
	}

	// evaluate constants with an empty environment
	p.frozen = make([][]float64, len(p.instrs))
	bufs := make([][]float64, len(p.instrs))
	var e env
	for i, in := range p.instrs {
		if !p.needed[i] {
			continue
		}
		if constant[i] {
			bufs[i] = make([]float64, in.rows*in.cols)
			in.eval(in, bufs, &e)
			p.frozen[i] = bufs[i]
			continue
		}
		p.run = append(p.run, i)
	}
}
