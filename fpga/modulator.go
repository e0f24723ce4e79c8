// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fpga

// A Modulator applies a slow, periodic amplitude envelope to the duty
// commands of all channels of a board.
//
// Each modulation sample is held for Divider() cycles. The zero value is not
// usable, use NewModulator.
//
type Modulator struct {
	samples []uint8
	div     int
	cnt     int // cycles spent on the current sample
	idx     int
}

// NewModulator returns a Modulator with a single full scale sample, that is
// a modulator that leaves duty commands untouched.
//
func NewModulator() *Modulator {
	m := new(Modulator)
	m.Set(nil, 1)
	return m
}

// Set replaces the modulation buffer and clock divider and resets the
// modulation cursor to the first sample.
//
// An empty samples slice is replaced by a single full scale sample and a
// divider less than 1 is treated as 1. samples is copied.
//
func (m *Modulator) Set(samples []uint8, div int) {
	if len(samples) == 0 {
		samples = []uint8{0xff}
	}
	if div < 1 {
		div = 1
	}
	m.samples = append(m.samples[:0], samples...)
	m.div = div
	m.cnt = 0
	m.idx = 0
}

// Modulate scales duty by the current modulation sample.
//
//	Function: floor(duty * (sample+1) / 256)
//
func (m *Modulator) Modulate(duty uint8) uint8 {
	return uint8(uint16(duty) * (uint16(m.samples[m.idx]) + 1) >> 8)
}

// Update must be called once at the end of every PWM cycle.
//
func (m *Modulator) Update() {
	m.cnt++
	if m.cnt < m.div {
		return
	}
	m.cnt = 0
	m.idx++
	if m.idx >= len(m.samples) {
		m.idx = 0
	}
}

// Index returns the position of the modulation cursor.
//
func (m *Modulator) Index() int { return m.idx }

// Len returns the length of the modulation buffer.
//
func (m *Modulator) Len() int { return len(m.samples) }

// Divider returns the number of cycles each sample is held.
//
func (m *Modulator) Divider() int { return m.div }
