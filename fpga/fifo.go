// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fpga

// DelayedFifo delays the duty command of a channel by a whole number of
// cycles.
//
// It behaves like the board's shift register: until it has been fed more than
// Delay() values, its output is 0.
//
//	Function: out(t) = in(t-delay), 0 before the register is primed.
//
// The zero value is a DelayedFifo with no delay.
//
type DelayedFifo struct {
	q     []uint8
	delay int
}

// Set sets the delay depth in cycles. A depth of 0 means no delay.
//
// Entries already queued are kept; a shallower delay drops the oldest ones on
// the next Update.
//
func (f *DelayedFifo) Set(delay uint8) {
	f.delay = int(delay)
}

// Update pushes duty into the delay line and returns the value pushed Delay()
// calls ago, or 0 if the line has not been fed that many values yet.
//
func (f *DelayedFifo) Update(duty uint8) uint8 {
	f.q = append(f.q, duty)
	if len(f.q) <= f.delay {
		return 0
	}
	if n := len(f.q) - (f.delay + 1); n > 0 {
		// shift in place, the queue never holds more than delay+1 values.
		copy(f.q, f.q[n:])
		f.q = f.q[:f.delay+1]
	}
	return f.q[0]
}

// Delay returns the configured delay depth.
//
func (f *DelayedFifo) Delay() int { return f.delay }

// Len returns the number of queued values. It is never more than Delay()+1.
//
func (f *DelayedFifo) Len() int { return len(f.q) }

// Reset empties the delay line.
//
func (f *DelayedFifo) Reset() { f.q = f.q[:0] }
