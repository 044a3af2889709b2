// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package inp implements the input data read from (.sim) JSON or (.hcl) HCL files
package inp

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cpmech/gobamm/mesh"
	"github.com/cpmech/gobamm/solver"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"
	"github.com/cpmech/gosl/io"
)

// Data holds global data for simulations
type Data struct {
	Desc    string `json:"desc" hcl:"desc,optional"`       // description of simulation
	DirOut  string `json:"dirout" hcl:"dirout,optional"`   // directory for output; e.g. /tmp/gobamm
	Backend string `json:"backend" hcl:"backend,optional"` // kernel backend: "frozen" or "interp"
	Serial  bool   `json:"serial" hcl:"serial,optional"`   // derive and evaluate Jacobian blocks sequentially
}

// SolverData holds time integration data
type SolverData struct {

	// stepper
	Method     string  `json:"method" hcl:"method,optional"`         // "theta", "be" or "radau5"
	Theta      float64 `json:"theta" hcl:"theta,optional"`           // θ-method
	ThGalerkin bool    `json:"thgalerkin" hcl:"thgalerkin,optional"` // use θ = 2/3
	ThLiniger  bool    `json:"thliniger" hcl:"thliniger,optional"`   // use θ = 0.878

	// nonlinear solver
	LinSol string  `json:"linsol" hcl:"linsol,optional"` // linear solver: "umfpack" or "mumps"
	NmaxIt int     `json:"nmaxit" hcl:"nmaxit,optional"` // number of max iterations
	Atol   float64 `json:"atol" hcl:"atol,optional"`     // absolute tolerance
	Rtol   float64 `json:"rtol" hcl:"rtol,optional"`     // relative tolerance

	// step control
	DtMin      float64 `json:"dtmin" hcl:"dtmin,optional"`           // minimum value of Dt
	MaxRetries int     `json:"maxretries" hcl:"maxretries,optional"` // maximum number of retries with halved Dt

	// events
	EventTol   float64 `json:"eventtol" hcl:"eventtol,optional"`     // tolerance on the time of terminal events
	EventMaxIt int     `json:"eventmaxit" hcl:"eventmaxit,optional"` // maximum number of bisections
}

// TimeControl holds data for defining the simulation time
type TimeControl struct {
	Tf     float64 `json:"tf" hcl:"tf,optional"`         // final time
	Dt     float64 `json:"dt" hcl:"dt,optional"`         // time step size (if constant)
	DtOut  float64 `json:"dtout" hcl:"dtout,optional"`   // time step size for output
	DtFcn  string  `json:"dtfcn" hcl:"dtfcn,optional"`   // time step size (function name)
	DtoFcn string  `json:"dtofcn" hcl:"dtofcn,optional"` // time step size for output (function name)
}

// MeshData holds the mesh of one domain
type MeshData struct {
	Domain string    `json:"domain" hcl:"domain,label"`    // name of domain
	Coord  string    `json:"coord" hcl:"coord,optional"`   // "cartesian" or "spherical"
	Xmin   float64   `json:"xmin" hcl:"xmin,optional"`     // first edge
	Xmax   float64   `json:"xmax" hcl:"xmax,optional"`     // last edge
	Ncells int       `json:"ncells" hcl:"ncells,optional"` // number of cells of uniform meshes
	Edges  []float64 `json:"edges" hcl:"edges,optional"`   // edges of non-uniform meshes; overrides the above
}

// ParamData holds the value of one parameter
type ParamData struct {
	Name  string  `json:"n" hcl:"name,label"` // name of parameter
	Value float64 `json:"v" hcl:"value"`      // value
}

// BcData holds the condition at one end of a domain
type BcData struct {
	Kind  string  `json:"kind" hcl:"kind"`            // "dirichlet" or "neumann"
	Value float64 `json:"value" hcl:"value,optional"` // value; scales Fcn if given (0 means 1)
	Fcn   string  `json:"fcn" hcl:"fcn,optional"`     // name of function of time
}

// ModelData holds the data of one submodel
type ModelData struct {
	Type     string  `json:"type" hcl:"type,label"`            // "diffusion" or "particle"
	Variable string  `json:"variable" hcl:"variable,optional"` // name of variable
	Domain   string  `json:"domain" hcl:"domain,optional"`     // name of domain
	Initial  float64 `json:"initial" hcl:"initial,optional"`   // initial value
	Left     *BcData `json:"left" hcl:"left,block"`            // condition at xmin
	Right    *BcData `json:"right" hcl:"right,block"`          // condition at xmax
}

// Simulation holds all simulation data
type Simulation struct {

	// input
	Data      *Data        `json:"data" hcl:"data,block"`          // stores global simulation data
	Functions FuncsData    `json:"functions" hcl:"function,block"` // stores all boundary condition functions
	Meshes    []*MeshData  `json:"meshes" hcl:"mesh,block"`        // stores meshes of all domains
	Params    []*ParamData `json:"params" hcl:"param,block"`       // stores parameters overriding the defaults of models
	Models    []*ModelData `json:"models" hcl:"model,block"`       // stores submodels
	Solver    *SolverData  `json:"solver" hcl:"solver,block"`      // solver data
	Control   TimeControl  `json:"control" hcl:"control,block"`    // time control

	// derived
	Key     string // simulation key; e.g. mysim01.sim => mysim01
	DirOut  string // directory to save results
	DtFunc  dbf.T  // time step size function
	DtoFunc dbf.T  // output time step size function
}

// ReadSim reads all simulation data from a .sim JSON file
func ReadSim(simfilepath string) (o *Simulation, err error) {

	// new sim
	o = new(Simulation)
	o.Data = new(Data)
	o.Solver = new(SolverData)
	o.Solver.SetDefault()

	// read file
	b, err := io.ReadFile(simfilepath)
	if err != nil {
		return nil, chk.Err("ReadSim: cannot read simulation file %q", simfilepath)
	}

	// decode
	err = json.Unmarshal(b, o)
	if err != nil {
		return nil, chk.Err("ReadSim: cannot unmarshal simulation file %q:\n%v", simfilepath, err)
	}
	err = o.PostProcess(simfilepath)
	return
}

// PostProcess sets defaults, derived values and checks the data
func (o *Simulation) PostProcess(simfilepath string) (err error) {

	// key and output directory
	fnkey := io.FnKey(filepath.Base(simfilepath))
	o.Key = fnkey
	if o.Data == nil {
		o.Data = new(Data)
	}
	o.DirOut = os.ExpandEnv(o.Data.DirOut)
	if o.DirOut == "" {
		o.DirOut = "/tmp/gobamm/" + fnkey
	}

	// solver
	if o.Solver == nil {
		o.Solver = new(SolverData)
	}
	o.Solver.SetDefault()
	o.Solver.PostProcess()

	// functions
	for _, f := range o.Functions {
		f.PostProcess()
	}

	// time control
	if o.Control.Tf < 1e-14 {
		o.Control.Tf = 1
	}
	if o.Control.DtFcn == "" {
		if o.Control.Dt < 1e-14 {
			o.Control.Dt = o.Control.Tf / 100
		}
		o.DtFunc = constant(o.Control.Dt)
	} else {
		o.DtFunc, err = o.Functions.Get(o.Control.DtFcn)
		if err != nil {
			return
		}
		o.Control.Dt = o.DtFunc.F(0, nil)
	}
	if o.Control.DtoFcn == "" {
		if o.Control.DtOut < 1e-14 {
			o.Control.DtOut = 0
		}
		o.DtoFunc = constant(o.Control.DtOut)
	} else {
		o.DtoFunc, err = o.Functions.Get(o.Control.DtoFcn)
		if err != nil {
			return
		}
		o.Control.DtOut = o.DtoFunc.F(0, nil)
	}

	// check
	if len(o.Meshes) == 0 {
		return chk.Err("simulation %q has no meshes", o.Key)
	}
	if len(o.Models) == 0 {
		return chk.Err("simulation %q has no models", o.Key)
	}
	names := make(map[string]bool)
	for _, p := range o.Params {
		if names[p.Name] {
			return chk.Err("parameter %q is defined more than once", p.Name)
		}
		names[p.Name] = true
	}
	return
}

// Mesh builds the mesh of all domains
func (o *Simulation) Mesh() (*mesh.Mesh, error) {
	subs := make([]*mesh.Submesh, len(o.Meshes))
	for i, m := range o.Meshes {
		coord, err := mesh.CoordByName(m.Coord)
		if err != nil {
			return nil, err
		}
		if len(m.Edges) > 0 {
			subs[i], err = mesh.NewSubmesh(m.Domain, coord, m.Edges)
		} else {
			subs[i], err = mesh.Uniform(m.Domain, coord, m.Xmin, m.Xmax, m.Ncells)
		}
		if err != nil {
			return nil, err
		}
	}
	return mesh.New(subs...)
}

// ParamMap returns the parameters as a map
func (o *Simulation) ParamMap() map[string]float64 {
	res := make(map[string]float64)
	for _, p := range o.Params {
		res[p.Name] = p.Value
	}
	return res
}

// SolverConfig returns the configuration of the time integration
func (o *Simulation) SolverConfig(verbose bool) *solver.Config {
	return &solver.Config{
		Method:     o.Solver.Method,
		Theta:      o.Solver.Theta,
		Tf:         o.Control.Tf,
		Dt:         o.Control.Dt,
		DtMin:      o.Solver.DtMin,
		DtOut:      o.Control.DtOut,
		DtFunc:     o.DtFunc,
		DtOutFunc:  o.DtoFunc,
		LinSol:     o.Solver.LinSol,
		Atol:       o.Solver.Atol,
		Rtol:       o.Solver.Rtol,
		NmaxIt:     o.Solver.NmaxIt,
		MaxRetries: o.Solver.MaxRetries,
		EventTol:   o.Solver.EventTol,
		EventMaxIt: o.Solver.EventMaxIt,
		Verbose:    verbose,
	}
}

// SetDefault sets default values of zero fields
func (o *SolverData) SetDefault() {
	if o.Method == "" {
		o.Method = "theta"
	}
	if o.Theta < 1e-10 {
		o.Theta = 0.5
	}
	if o.NmaxIt == 0 {
		o.NmaxIt = 20
	}
	if o.Atol < 1e-20 {
		o.Atol = 1e-10
	}
	if o.Rtol < 1e-20 {
		o.Rtol = 1e-8
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = 10
	}
	if o.EventTol < 1e-20 {
		o.EventTol = 1e-10
	}
	if o.EventMaxIt == 0 {
		o.EventMaxIt = 100
	}
}

// PostProcess performs a post-processing of the just read json file
func (o *SolverData) PostProcess() {
	if o.ThGalerkin {
		o.Theta = 2.0 / 3.0
	}
	if o.ThLiniger {
		o.Theta = 0.878
	}
	if o.Method == "be" {
		o.Theta = 1
	}
}
