// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

import (
	"context"
	"errors"

	"github.com/cpmech/gobamm/disc"
	"github.com/cpmech/gobamm/inp"
	"github.com/cpmech/gobamm/out"
	"github.com/cpmech/gobamm/solver"
	"github.com/cpmech/gobamm/sym"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// allocators holds all available submodels
var allocators = make(map[string]func(sim *inp.Simulation, dat *inp.ModelData) (*Model, error))

// add submodels to factory
func init() {
	allocators["diffusion"] = func(sim *inp.Simulation, dat *inp.ModelData) (*Model, error) {
		opts := &DiffusionOptions{Variable: dat.Variable, Domain: dat.Domain, Initial: sym.Scalar(dat.Initial)}
		var err error
		if dat.Left != nil {
			opts.Left, err = condition(sim, dat.Left)
			if err != nil {
				return nil, err
			}
		}
		if dat.Right != nil {
			opts.Right, err = condition(sim, dat.Right)
			if err != nil {
				return nil, err
			}
		}
		return Diffusion(opts)
	}
	allocators["particle"] = func(sim *inp.Simulation, dat *inp.ModelData) (*Model, error) {
		if dat.Left != nil || dat.Right != nil {
			return nil, chk.Err("the particle submodel sets its own boundary conditions")
		}
		opts := &ParticleOptions{Variable: dat.Variable, Domain: dat.Domain, C0: dat.Initial}
		if k, ok := sim.ParamMap()["k"]; ok {
			opts.K = k
		}
		return Particle(opts)
	}
}

// FromInput returns the model combining all submodels of a simulation
func FromInput(sim *inp.Simulation) (o *Model, err error) {
	o = New(sim.Key)
	for _, dat := range sim.Models {
		alloc, ok := allocators[dat.Type]
		if !ok {
			return nil, chk.Err("cannot find submodel named %q", dat.Type)
		}
		m, err := alloc(sim, dat)
		if err != nil {
			return nil, chk.Err("cannot allocate submodel %q:\n%v", dat.Type, err)
		}
		o.Merge(m)
	}
	return
}

// Main runs a simulation. The results computed so far are returned even if the solver fails
func Main(ctx context.Context, sim *inp.Simulation, verbose bool) (res *out.Results, err error) {

	// message
	if verbose {
		io.Pf("> Building model %q\n", sim.Key)
	}

	// mesh and model
	msh, err := sim.Mesh()
	if err != nil {
		return
	}
	m, err := FromInput(sim)
	if err != nil {
		return
	}
	b, err := Build(m, msh, sim.ParamMap(), &Options{Backend: sim.Data.Backend, Serial: sim.Data.Serial, Verbose: verbose})
	if err != nil {
		return
	}
	defer b.Clean()

	// run
	if verbose {
		io.Pf("> Running solver\n")
	}
	sol, err := b.Solve(ctx, sim.SolverConfig(verbose))
	if sol != nil {
		res = out.New(b.Mapping, msh, sol)
	}
	if err != nil {
		if verbose {
			var se *solver.SolveError
			if errors.As(err, &se) {
				io.PfRed("solver failed after t=%g\n", se.T)
			}
		}
		return
	}

	// message
	if verbose {
		io.Pf("> Finished: %s after %d steps (%d retries)\n", sol.Termination, sol.Nsteps, sol.Nretries)
		for _, w := range sol.Warnings {
			io.Pfyel("warning: %v\n", w)
		}
	}
	return
}

// condition converts boundary condition data
func condition(sim *inp.Simulation, bc *inp.BcData) (c *disc.Condition, err error) {
	kind, err := disc.BcKindByName(bc.Kind)
	if err != nil {
		return
	}
	c = &disc.Condition{Kind: kind, Value: sym.Scalar(bc.Value)}
	if bc.Fcn == "" {
		return
	}
	f, err := sim.Functions.Get(bc.Fcn)
	if err != nil {
		return
	}
	scale := bc.Value
	if scale == 0 {
		scale = 1
	}
	c.Value, err = sym.Mul(sym.Scalar(scale), sym.TimeFunction(bc.Fcn, f))
	return
}
