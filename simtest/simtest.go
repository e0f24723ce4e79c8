// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package simtest provides utility functions for testing simulated devices.
//
package simtest

import (
	"fmt"
	"math"
	"testing"

	"github.com/db47h/arraysim"
)

// Fill returns a slice of n copies of v, suitable for the Set* methods of a
// Device.
//
func Fill(n int, v uint8) []uint8 {
	out := make([]uint8, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Envelope returns the peak absolute output of channel ch over the last
// window steps. It panics if fewer than window samples are retained.
//
func Envelope(d *arraysim.Device, ch int, window int) float64 {
	var p float64
	for i := 0; i < window; i++ {
		v, ok := d.OutputWhen(ch, float64(i)*arraysim.TimeStep)
		if !ok {
			panic(fmt.Sprintf("sample %d of channel %d not retained", i, ch))
		}
		if a := math.Abs(v); a > p {
			p = a
		}
	}
	return p
}

// Trace returns the last n outputs of channel ch, oldest first.
//
func Trace(d *arraysim.Device, ch int, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		v, ok := d.OutputWhen(ch, float64(n-1-i)*arraysim.TimeStep)
		if !ok {
			panic(fmt.Sprintf("sample %d of channel %d not retained", n-1-i, ch))
		}
		out[i] = v
	}
	return out
}

// CompareDevices runs two devices side by side for the given number of steps
// and checks that every channel produces the same output at every step.
//
// If set is not nil, it is called on both devices before each step with the
// step number, so that both can be driven with the same commands.
//
func CompareDevices(t testing.TB, steps int, d1, d2 *arraysim.Device, set func(step int, d *arraysim.Device)) {
	t.Helper()
	if d1.Channels() != d2.Channels() {
		t.Fatalf("channel count mismatch: %d != %d", d1.Channels(), d2.Channels())
	}
	for s := 0; s < steps; s++ {
		if set != nil {
			set(s, d1)
			set(s, d2)
		}
		d1.Update()
		d2.Update()
		for ch := 0; ch < d1.Channels(); ch++ {
			v1, _ := d1.OutputWhen(ch, 0)
			v2, _ := d2.OutputWhen(ch, 0)
			if v1 != v2 {
				t.Fatalf("step %d, channel %d: %g != %g", s, ch, v1, v2)
			}
		}
	}
}
