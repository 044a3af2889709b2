// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package disc

import (
	"fmt"

	"github.com/cpmech/gobamm/mesh"
	"github.com/cpmech/gobamm/sym"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/utl"
)

// Entry holds the index range of one state variable
type Entry struct {
	Name   string     // name of variable
	Domain sym.Domain // domain of variable; empty for scalars
	Start  int        // first index in the state vector
	End    int        // one past the last index
}

// Size returns the number of values of the variable
func (o Entry) Size() int { return o.End - o.Start }

// Indices returns Start, Start+1, ... End-1
func (o Entry) Indices() (idx []int) {
	idx = utl.IntRange(o.Size())
	for i := range idx {
		idx[i] += o.Start
	}
	return
}

// Mapping assigns disjoint contiguous ranges of the state vector to named variables. The
// ranges follow the order of the variables and cover [0, Size()). Mapping is immutable
type Mapping struct {
	entries []Entry        // ordered entries
	index   map[string]int // name => position in entries
	size    int            // total size
}

// NewMapping returns the mapping of vars, which must be Variable nodes with distinct names.
// Variables on a domain get one value per cell of the (combined) submesh
func NewMapping(m *mesh.Mesh, vars []*sym.Node) (o *Mapping, err error) {
	o = &Mapping{index: make(map[string]int)}
	for _, v := range vars {
		if v.Kind() != sym.KindVariable {
			return nil, chk.Err("state mapping requires variables; got %v", v)
		}
		if _, ok := o.index[v.Name()]; ok {
			return nil, chk.Err("variable %q appears more than once in the state vector", v.Name())
		}
		size := 1
		if !v.Domain().Empty() {
			s, err := m.Combine(v.Domain())
			if err != nil {
				return nil, chk.Err("cannot map variable %q:\n%v", v.Name(), err)
			}
			size = s.N()
		}
		o.index[v.Name()] = len(o.entries)
		o.entries = append(o.entries, Entry{v.Name(), v.Domain(), o.size, o.size + size})
		o.size += size
	}
	return
}

// Size returns the size of the state vector
func (o *Mapping) Size() int { return o.size }

// Len returns the number of variables
func (o *Mapping) Len() int { return len(o.entries) }

// Lookup returns the entry of a variable
func (o *Mapping) Lookup(name string) (e Entry, ok bool) {
	i, ok := o.index[name]
	if ok {
		e = o.entries[i]
	}
	return
}

// Entries returns a copy of the entries in state-vector order
func (o *Mapping) Entries() []Entry {
	return append([]Entry{}, o.entries...)
}

// Slice returns the part of y holding the variable. The result shares memory with y
func (o *Mapping) Slice(y []float64, name string) []float64 {
	e, ok := o.Lookup(name)
	if !ok {
		chk.Panic("variable %q is not in the state vector", name)
	}
	return y[e.Start:e.End]
}

// StateSlice returns the graph node referencing the variable in the state vector
func (o *Mapping) StateSlice(name string) (*sym.Node, error) {
	e, ok := o.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	return sym.StateSlice(e.Name, e.Start, e.Size(), e.Domain)
}
