// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fpga

// PulseWindow returns the first step of the "on" window of a pulse and its
// width in steps.
//
// The width is duty+offset, clamped to Cycle. The window is centered on step
// (255-phase)*2 (phase is inverted: 255 is the earliest pulse), with the floor
// half of the width before the center and the ceil half after it. rise is
// reduced modulo Cycle, the window may wrap around the end of the cycle.
//
func PulseWindow(duty, phase, offset uint8) (rise, width int) {
	width = int(duty) + int(offset)
	if width > Cycle {
		width = Cycle
	}
	center := (255 - int(phase)) * 2 % Cycle
	rise = (center - width/2 + Cycle) % Cycle
	return rise, width
}

// Pwm returns the half-bridge output voltage at step t (0 <= t < Cycle) of
// a cycle driven with the given duty, phase and duty offset.
//
//	Function: +DriveVoltage if t is within PulseWindow(duty, phase, offset)
//	          -DriveVoltage otherwise
//
func Pwm(t int, duty, phase, offset uint8) float64 {
	if on(t, duty, phase, offset) {
		return DriveVoltage
	}
	return -DriveVoltage
}

func on(t int, duty, phase, offset uint8) bool {
	rise, width := PulseWindow(duty, phase, offset)
	// distance from rise going forward, modulo Cycle.
	d := (t - rise) % Cycle
	if d < 0 {
		d += Cycle
	}
	return d < width
}
