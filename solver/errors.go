// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"errors"

	"github.com/cpmech/gosl/io"
)

// errors
var (
	ErrNonFiniteEvaluation = errors.New("non-finite evaluation")               // retryable
	ErrNoConvergence       = errors.New("nonlinear iterations diverged")       // retryable
	ErrRetriesExhausted    = errors.New("retries exhausted")                   // terminal
	ErrAborted             = errors.New("solve aborted")                       // terminal
	ErrEventLocalization   = errors.New("event localization did not converge") // warning
)

// Retryable tells whether a failed step may be tried again with a smaller step
func Retryable(err error) bool {
	return errors.Is(err, ErrNonFiniteEvaluation) || errors.Is(err, ErrNoConvergence)
}

// SolveError holds a terminal failure and the last accepted state
type SolveError struct {
	T    float64   // time of the last accepted state
	Y    []float64 // last accepted state
	Step int       // index of the step that failed
	Err  error     // cause
}

// Error returns the message
func (o *SolveError) Error() string {
	return io.Sf("solve failed at step %d after t=%g: %v", o.Step, o.T, o.Err)
}

// Unwrap returns the cause
func (o *SolveError) Unwrap() error { return o.Err }
