// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package event

import (
	"errors"
	"math"
	"testing"

	"github.com/cpmech/gobamm/kern"
	"github.com/cpmech/gobamm/sym"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

func verbose() {
	io.Verbose = true
	chk.Verbose = true
}

func Test_event01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("event01. crossings")

	for _, c := range []struct {
		prev, cur float64
		crossed   bool
	}{
		{1, -1, true},
		{-1, 1, true},
		{0.5, 0, true},
		{0, 0.5, false},
		{0, 0, false},
		{2, 1, false},
		{-2, -1e-300, false},
		{1, math.NaN(), false},
		{math.NaN(), -1, false},
	} {
		if Crossed(c.prev, c.cur) != c.crossed {
			tst.Errorf("Crossed(%g, %g) should be %v", c.prev, c.cur, c.crossed)
		}
	}

	k, err := KindByName("record")
	if err != nil || k != Record {
		tst.Errorf("cannot find record kind: %v", err)
	}
	chk.String(tst, Terminate.String(), "terminate")
	if _, err = KindByName("pause"); err == nil {
		tst.Errorf("unknown kind should fail")
	}
}

func Test_event02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("event02. compiled events")

	y := sym.Must(sym.StateSlice("c", 0, 3, sym.NewDomain("particle")))
	last := sym.MatrixNode(sym.NewMatrix(1, 3, []int{0}, []int{2}, []float64{1}), nil, false)
	surf := sym.Must(sym.MatVec(last, y))
	expr := sym.Must(sym.Sub(surf, sym.Parameter("cmin")))

	opts := &kern.Options{Params: []string{"cmin"}}
	evs, err := CompileAll([]*Event{
		{Name: "minimum surface concentration", Expr: expr, Kind: Terminate},
		{Name: "half time", Expr: sym.Must(sym.Sub(sym.Time(), sym.Scalar(0.5))), Kind: Record},
	}, opts, []float64{0.1})
	if err != nil {
		tst.Errorf("%v", err)
		return
	}
	chk.Int(tst, "number of events", len(evs), 2)
	if !evs[0].Terminal() || evs[1].Terminal() {
		tst.Errorf("wrong kinds")
		return
	}
	chk.String(tst, evs[0].Label(), "minimum surface concentration")
	chk.Float64(tst, "c(R) - cmin", 1e-15, evs[0].Value(0, []float64{1, 2, 0.3}), 0.2)
	chk.Float64(tst, "t - 0.5", 1e-15, evs[1].Value(2, []float64{1, 2, 0.3}), 1.5)
	c := evs[0].Clone()
	chk.Float64(tst, "clone", 1e-15, c.Value(0, []float64{0, 0, 0}), -0.1)

	// events must be scalars
	_, err = Compile(&Event{Name: "vector", Expr: y}, opts, []float64{0.1})
	if !errors.Is(err, sym.ErrShapeMismatch) {
		tst.Errorf("vector event should fail. err = %v", err)
	}

	// names are unique
	_, err = CompileAll([]*Event{{Name: "a", Expr: expr}, {Name: "a", Expr: expr}}, opts, []float64{0.1})
	if err == nil {
		tst.Errorf("repeated names should fail")
	}
}
