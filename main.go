// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/cpmech/gobamm/inp"
	"github.com/cpmech/gobamm/model"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/utl"
)

func main() {

	// catch errors
	defer func() {
		if err := recover(); err != nil {
			io.PfRed("\nERROR: %v", err)
			io.Pf("See location of error below:\n")
			chk.Verbose = true
			for i := 5; i > 3; i-- {
				chk.CallerInfo(i)
			}
			os.Exit(1)
		}
	}()

	// read input parameters
	fnamepath, _ := io.ArgToFilename(0, "", ".sim", true)
	verbose := io.ArgToBool(1, true)
	save := io.ArgToBool(2, true)
	doprof := io.ArgToInt(3, 0)

	// message
	if verbose {
		io.PfWhite("\nGobamm -- Go Battery Mathematical Modelling\n")
		io.Pf("Copyright 2016 The Gofem Authors. All rights reserved.\n")
		io.Pf("Use of this source code is governed by a BSD-style\n")
		io.Pf("license that can be found in the LICENSE file.\n")

		io.Pf("\n%v\n", io.ArgsTable("INPUT ARGUMENTS",
			"filename path", "fnamepath", fnamepath,
			"show messages", "verbose", verbose,
			"save results", "save", save,
			"profiling: 0=none 1=CPU 2=MEM", "doprof", doprof,
		))
	}

	// profiling?
	if doprof > 0 {
		defer utl.DoProf(false, doprof)()
	}

	// simulation data
	var sim *inp.Simulation
	var err error
	if filepath.Ext(fnamepath) == ".hcl" {
		sim, err = inp.ReadSimHCL(fnamepath)
	} else {
		sim, err = inp.ReadSim(fnamepath)
	}
	if err != nil {
		chk.Panic("cannot read simulation:\n%v", err)
	}

	// run simulation; interrupt stops the time loop
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	res, err := model.Main(ctx, sim, verbose)
	if res != nil && save {
		if e := res.Save(sim.DirOut, sim.Key); e != nil {
			io.PfRed("%v\n", e)
		}
	}
	if err != nil {
		chk.Panic("Run failed:\n%v", err)
	}
}
