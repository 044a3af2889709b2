// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package out implements the decoding of trajectories into named quantities
package out

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"

	"github.com/cpmech/gobamm/disc"
	"github.com/cpmech/gobamm/mesh"
	"github.com/cpmech/gobamm/solver"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// constants
var (
	TolT = 1e-8 // tolerance to compare times
)

// Results holds a trajectory and the mapping needed to slice it
type Results struct {
	Mapping  *disc.Mapping    // state vector mapping
	Mesh     *mesh.Mesh       // mesh; may be nil if averages are not needed
	Solution *solver.Solution // output of the solver
}

// New returns new results
func New(mapping *disc.Mapping, msh *mesh.Mesh, sol *solver.Solution) *Results {
	return &Results{Mapping: mapping, Mesh: msh, Solution: sol}
}

// Times returns the output times
func (o *Results) Times() []float64 { return o.Solution.T }

// Names returns the names of variables in state vector order
func (o *Results) Names() (names []string) {
	for _, e := range o.Mapping.Entries() {
		names = append(names, e.Name)
	}
	return
}

// At returns the values of a variable at output i. The result shares memory with the solution
func (o *Results) At(i int, name string) []float64 {
	return o.Mapping.Slice(o.Solution.Y[i], name)
}

// Get returns the values of a variable at all outputs
func (o *Results) Get(name string) (res [][]float64) {
	res = make([][]float64, len(o.Solution.T))
	for i := range res {
		res[i] = o.At(i, name)
	}
	return
}

// Final returns the values of a variable at the last output
func (o *Results) Final(name string) []float64 {
	return o.At(len(o.Solution.T)-1, name)
}

// Scalar returns the time series of a scalar variable
func (o *Results) Scalar(name string) (res []float64) {
	e, ok := o.Mapping.Lookup(name)
	if !ok || e.Size() != 1 {
		chk.Panic("variable %q is not a scalar in the state vector", name)
	}
	res = make([]float64, len(o.Solution.T))
	for i, y := range o.Solution.Y {
		res[i] = y[e.Start]
	}
	return
}

// TimeIndex returns the index of the output at time t within TolT; -1 if not found
func (o *Results) TimeIndex(t float64) int {
	for i, τ := range o.Solution.T {
		if math.Abs(τ-t) < TolT {
			return i
		}
	}
	return -1
}

// Average returns the volume average of a variable on a domain at output i
func (o *Results) Average(i int, name string) (avg float64, err error) {
	e, ok := o.Mapping.Lookup(name)
	if !ok {
		return 0, chk.Err("cannot find variable %q", name)
	}
	if e.Domain.Empty() {
		return o.Solution.Y[i][e.Start], nil
	}
	if o.Mesh == nil {
		return 0, chk.Err("mesh is required to average %q", name)
	}
	s, err := o.Mesh.Combine(e.Domain)
	if err != nil {
		return
	}
	var vol float64
	for k, v := range o.At(i, name) {
		avg += v * s.Volume(k)
		vol += s.Volume(k)
	}
	return avg / vol, nil
}

// Save writes the results to dirout/fnkey.json
func (o *Results) Save(dirout, fnkey string) (err error) {
	dat := struct {
		T           []float64              `json:"t"`
		Vars        map[string][][]float64 `json:"vars"`
		Termination string                 `json:"termination"`
		Approximate bool                   `json:"approximate"`
		Crossings   []solver.Crossing      `json:"crossings"`
	}{o.Solution.T, make(map[string][][]float64), o.Solution.Termination, o.Solution.Approximate, o.Solution.Crossings}
	for _, name := range o.Names() {
		dat.Vars[name] = o.Get(name)
	}
	b, err := json.Marshal(&dat)
	if err != nil {
		return chk.Err("cannot encode results:\n%v", err)
	}
	err = os.MkdirAll(dirout, 0777)
	if err != nil {
		return chk.Err("cannot create directory for output results (%s): %v", dirout, err)
	}
	fn := filepath.Join(dirout, fnkey+".json")
	err = os.WriteFile(fn, b, 0644)
	if err != nil {
		return chk.Err("cannot write results file %q: %v", fn, err)
	}
	io.Pfblue2("file <%s> written\n", fn)
	return
}
