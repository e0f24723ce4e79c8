/*
Package arraysim provides a cycle accurate simulator of an ultrasound phased
array driver board.

A Device reproduces, step by step, what the board's PWM outputs and the
piezoelectric transducers attached to them do for a given set of drive
commands (duty, phase, delay, modulation and silent mode). Each PWM cycle is
Cycle steps long and lasts CycleDuration seconds of simulated time.

Drive commands are latched: values set while a cycle is in progress only take
effect at the start of the next cycle, as on the real hardware. At that point
the requested duty of every channel goes through the board's pipeline:

	duty -> Modulator -> SilentFilter (silent mode only) -> DelayedFifo

The resulting duty and phase drive the channel's pulse generator for the whole
cycle, and every step the pulse generator output is fed to a transducer model
whose output current is recorded in a bounded per-channel history.

A typical simulation loop looks like this:

	d, err := arraysim.New(100000)
	if err != nil {
		// handle error
	}
	duties := make([]uint8, d.Channels())
	for i := range duties {
		duties[i] = 255
	}
	d.SetDuties(duties)
	d.Run(100000)
	v, ok := d.OutputWhen(0, 0) // most recent sample of channel 0

Several boards driven in lock-step can be grouped in an Array.

*/
package arraysim
