// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package arraysim

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"
)

// An Array is a chain of boards stepped in lock-step.
//
// Boards are distributed among worker goroutines; each worker only ever
// touches its own boards, so a Device is never updated concurrently. Between
// calls to Step, the caller may freely use the Devices.
//
type Array struct {
	devs  []*Device
	steps uint64

	wc []chan struct{}
	wg sync.WaitGroup
}

// NewArray builds a new Array from the given devices.
//
// workers is the number of goroutines used to update the devices each step
// of the simulation. If less or equal to 0, the value of GOMAXPROCS will be
// used. There are never more workers than devices.
//
// Callers must make sure to call Dispose() once the array is no longer needed
// in order to release allocated resources.
//
func NewArray(workers int, devs ...*Device) (*Array, error) {
	if len(devs) == 0 {
		return nil, errors.New("empty device list")
	}
	for i, d := range devs {
		if d == nil {
			return nil, errors.Errorf("device %d is nil", i)
		}
	}

	a := &Array{devs: devs}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(-1)
	}
	if workers > len(devs) {
		workers = len(devs)
	}
	ds := devs
	for len(ds) > 0 {
		size := len(ds) / workers
		if size*workers < len(ds) {
			size++
		}
		wc := make(chan struct{}, 1)
		a.wc = append(a.wc, wc)
		go worker(a, ds[:size], wc)
		ds = ds[size:]
		workers--
	}

	return a, nil
}

func worker(a *Array, ds []*Device, wc <-chan struct{}) {
	for {
		_, ok := <-wc
		if !ok {
			a.wg.Done()
			return
		}
		for _, d := range ds {
			d.Update()
		}
		a.wg.Done()
	}
}

// Dispose releases all resources allocated for an array and stops
// worker goroutines. Calling Dispose more than once is a no-op.
//
func (a *Array) Dispose() {
	if a.wc == nil {
		return
	}
	a.wg.Add(len(a.wc))
	for _, wc := range a.wc {
		close(wc)
	}
	a.wg.Wait()
	a.wc = nil
}

// Step advances all devices by one step. It panics if the array has been
// disposed of.
//
func (a *Array) Step() {
	if a.wc == nil {
		panic("Step called on a disposed Array")
	}
	a.wg.Add(len(a.wc))
	for _, wc := range a.wc {
		wc <- struct{}{}
	}
	a.wg.Wait()
	a.steps++
}

// Run calls Step n times.
//
func (a *Array) Run(n int) {
	for ; n > 0; n-- {
		a.Step()
	}
}

// Steps returns the value of the step counter.
//
func (a *Array) Steps() uint64 { return a.steps }

// Len returns the number of devices.
//
func (a *Array) Len() int { return len(a.devs) }

// Device returns the i-th device.
//
func (a *Array) Device(i int) *Device { return a.devs[i] }

// Workers returns the number of worker goroutines.
//
func (a *Array) Workers() int { return len(a.wc) }
