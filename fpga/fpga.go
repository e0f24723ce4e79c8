// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package fpga provides the digital parts of the driver board: the PWM pulse
// generator and the per-cycle drive pipeline (modulator, silent filter and
// delay line).
//
// All parts work on the raw 8 bit drive commands the board receives. They are
// clocked once per PWM cycle (Modulator, SilentFilter, DelayedFifo) or
// evaluated once per simulation step (Pwm) by the caller; none of them keeps
// track of time on its own.
//
// This package is licensed under the MIT license. See license text in the LICENSE file.
//
package fpga

// Hardware constants.
//
const (
	// Cycle is the PWM period in simulation steps.
	Cycle = 512
	// DriveVoltage is the magnitude of the half-bridge output voltage.
	DriveVoltage = 12.0
	// MaxDelay is the deepest delay supported by the board's shift registers.
	MaxDelay = 63
)
