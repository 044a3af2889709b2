// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import (
	"sort"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"
	"github.com/cpmech/gosl/io"
)

// FuncData holds function definition
type FuncData struct {
	Name string     `json:"name" hcl:"name,label"` // name of function. ex: zero, load, myfunction1, etc.
	Type string     `json:"type" hcl:"type"`       // type of function. ex: cte, rmp
	Prms dbf.Params `json:"prms"`                  // parameters

	// parameters given as name = value in HCL files
	Values map[string]float64 `json:"-" hcl:"prms,optional"`
}

// Funcs holds functions
type FuncsData []*FuncData

// PostProcess converts the parameters given as a map into Prms
func (o *FuncData) PostProcess() {
	if len(o.Values) == 0 {
		return
	}
	names := make([]string, 0, len(o.Values))
	for name := range o.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		o.Prms = append(o.Prms, &dbf.P{N: name, V: o.Values[name]})
	}
	o.Values = nil
}

// Get returns function by name
func (o FuncsData) Get(name string) (fcn dbf.T, err error) {
	if name == "zero" || name == "none" {
		fcn = constant(0)
		return
	}
	for _, f := range o {
		if f.Name == name {
			fcn, err = dbf.New(f.Type, f.Prms)
			if err != nil {
				err = chk.Err("cannot get function named %q because of the following error:\n%v", name, err)
			}
			return
		}
	}
	err = chk.Err("cannot find function named %q\n", name)
	return
}

// auxiliary //////////////////////////////////////////////////////////////////////////////////////////

// constant returns a constant function; zero gives the shared dbf.Zero
func constant(c float64) dbf.T {
	if c == 0 {
		return &dbf.Zero
	}
	return &dbf.Cte{C: c}
}

// String prints one function
func (o FuncData) String() string {
	l := io.Sf("    {\n      \"name\":%q, \"type\":%q, \"prms\" : [", o.Name, o.Type)
	for i, p := range o.Prms {
		if i > 0 {
			l += ","
		}
		l += io.Sf("\n        {\"n\":%q, \"v\":%g}", p.N, p.V)
	}
	return l + "\n      ]\n    }"
}

// String prints functions
func (o FuncsData) String() string {
	if len(o) == 0 {
		return "  \"functions\" : []"
	}
	l := "  \"functions\" : [\n"
	for i, f := range o {
		if i > 0 {
			l += ",\n"
		}
		l += io.Sf("%v", f)
	}
	l += "\n  ]"
	return l
}
