// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// ReadSimHCL reads all simulation data from a .hcl file
func ReadSimHCL(simfilepath string) (o *Simulation, err error) {
	b, err := io.ReadFile(simfilepath)
	if err != nil {
		return nil, chk.Err("ReadSimHCL: cannot read simulation file %q", simfilepath)
	}
	return DecodeSimHCL(b, simfilepath)
}

// DecodeSimHCL decodes simulation data in HCL format. Expressions may use the constants pi
// and e; expressions outside param blocks may also use param.<name>. filename is used in
// messages and to set the simulation key
func DecodeSimHCL(src []byte, filename string) (o *Simulation, err error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, chk.Err("ReadSimHCL: cannot parse %q:\n%v", filename, diags)
	}

	// parameters
	var prms paramBlocks
	diags = gohcl.DecodeBody(file.Body, evalContext(nil), &prms)
	if diags.HasErrors() {
		return nil, chk.Err("ReadSimHCL: cannot decode parameters of %q:\n%v", filename, diags)
	}

	// all data
	o = new(Simulation)
	diags = gohcl.DecodeBody(file.Body, evalContext(prms.Params), o)
	if diags.HasErrors() {
		return nil, chk.Err("ReadSimHCL: cannot decode %q:\n%v", filename, diags)
	}
	err = o.PostProcess(filename)
	return
}

// paramBlocks holds the param blocks of a file
type paramBlocks struct {
	Params []*ParamData `hcl:"param,block"` // parameters
	Remain hcl.Body     `hcl:",remain"`     // other blocks and attributes
}

// evalContext returns the variables available to HCL expressions
func evalContext(prms []*ParamData) *hcl.EvalContext {
	values := make(map[string]cty.Value, len(prms))
	for _, p := range prms {
		values[p.Name] = cty.NumberFloatVal(p.Value)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"pi":    cty.NumberFloatVal(math.Pi),
			"e":     cty.NumberFloatVal(math.E),
			"param": cty.ObjectVal(values),
		},
	}
}
