// Package testerr helps tests simulate failing dependencies.
package testerr

import (
	"errors"
	"fmt"
)

// Err is a generic error used by tests to inject failures.
var Err = errors.New("test error")

// Calltracker counts calls to a dependency and fails some of them.
// Calls are counted from zero. The zero value never fails.
type Calltracker struct {
	// Err is returned instead of calling through.
	Err error
	// FailAt is the index of the first failing call.
	FailAt int
	// Sticky makes every call after FailAt fail as well. Otherwise only
	// the call at FailAt fails.
	Sticky bool

	calls int
}

// FailingTrackers returns trackers that together fail each of the first
// n calls, once as a single failure and once as a sticky failure.
func FailingTrackers(err error, n int) []*Calltracker {
	trackers := make([]*Calltracker, 0, n*2)
	for i := 0; i < n; i++ {
		trackers = append(trackers,
			&Calltracker{Err: err, FailAt: i},
			&Calltracker{Err: err, FailAt: i, Sticky: true},
		)
	}
	return trackers
}

// Calls returns the number of calls tracked so far.
func (ct *Calltracker) Calls() int {
	return ct.calls
}

func (ct *Calltracker) String() string {
	if ct.Err == nil {
		return "never fails"
	}
	if ct.Sticky {
		return fmt.Sprintf("fails from call %d", ct.FailAt)
	}
	return fmt.Sprintf("fails at call %d", ct.FailAt)
}

// track registers a call and returns the error it should fail with, if any.
func (ct *Calltracker) track() error {
	i := ct.calls
	ct.calls++

	switch {
	case ct.Err == nil:
		return nil
	case i == ct.FailAt, ct.Sticky && i > ct.FailAt:
		return ct.Err
	default:
		return nil
	}
}

// Call calls f unless the tracker decides this call fails.
func Call(ct *Calltracker, f func() error) error {
	if err := ct.track(); err != nil {
		return err
	}
	return f()
}

// CallValue is Call for functions that also return a value.
func CallValue[T any](ct *Calltracker, f func() (T, error)) (T, error) {
	if err := ct.track(); err != nil {
		var zero T
		return zero, err
	}
	return f()
}
