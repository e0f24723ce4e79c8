// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package arraysim

import (
	"math"
	"strconv"

	"github.com/db47h/arraysim/fpga"
	"github.com/db47h/arraysim/transducer"
	"github.com/pkg/errors"
)

// Board constants.
//
const (
	// Cycle is the PWM period in simulation steps.
	Cycle = fpga.Cycle
	// CycleDuration is the PWM period in seconds (40 kHz).
	CycleDuration = 25e-6
	// TimeStep is the simulated time between two steps, in seconds.
	TimeStep = CycleDuration / Cycle
	// NumTransducers is the number of transducers on a board.
	NumTransducers = 249
	// DefaultOffset is the duty offset of a channel after New or Clear.
	DefaultOffset = 1
)

// An Option configures a Device.
//
type Option func(*config)

type config struct {
	channels  int
	tr        transducer.Params
	dutyStep  uint8
	phaseStep uint8
}

// WithChannels sets the number of channels of the device. The default is
// NumTransducers.
//
func WithChannels(n int) Option {
	return func(c *config) { c.channels = n }
}

// WithTransducer sets the equivalent circuit of the transducers. The default
// is transducer.DefaultParams.
//
func WithTransducer(p transducer.Params) Option {
	return func(c *config) { c.tr = p }
}

// WithSilencer sets the per cycle duty and phase steps of the silent filters.
// A step of 0 selects the default.
//
func WithSilencer(dutyStep, phaseStep uint8) Option {
	return func(c *config) { c.dutyStep, c.phaseStep = dutyStep, phaseStep }
}

// Device simulates one driver board.
//
// A Device is not safe for concurrent use. Distinct Devices share no state.
//
type Device struct {
	chs    []channel
	mod    *fpga.Modulator
	silent bool
	time   int    // step within the current cycle
	steps  uint64 // total steps run
}

// New returns a new Device that retains the last maxBufSize output samples of
// each channel.
//
// All channels start with duty 0, phase 0 and offset DefaultOffset, silent
// mode is on, and modulation is disabled (a single full scale sample).
//
func New(maxBufSize int, opts ...Option) (*Device, error) {
	cfg := config{channels: NumTransducers, tr: transducer.DefaultParams}
	for _, o := range opts {
		o(&cfg)
	}
	if maxBufSize < 1 {
		return nil, errors.Errorf("invalid history size %d", maxBufSize)
	}
	if cfg.channels < 1 {
		return nil, errors.Errorf("invalid channel count %d", cfg.channels)
	}

	d := &Device{
		chs:    make([]channel, cfg.channels),
		mod:    fpga.NewModulator(),
		silent: true,
	}
	for i := range d.chs {
		c := &d.chs[i]
		tr, err := transducer.New(cfg.tr, TimeStep)
		if err != nil {
			return nil, errors.Wrap(err, "channel "+strconv.Itoa(i))
		}
		c.tr = tr
		c.silent = fpga.NewSilentFilter(cfg.dutyStep, cfg.phaseStep)
		c.history = newHistory(maxBufSize)
		c.pending.offset = DefaultOffset
	}
	return d, nil
}

func (d *Device) checkLen(what string, n int) {
	if n != len(d.chs) {
		panic(what + ": got " + strconv.Itoa(n) + " values for " + strconv.Itoa(len(d.chs)) + " channels")
	}
}

func (d *Device) channel(ch int) *channel {
	if ch < 0 || ch >= len(d.chs) {
		panic("channel " + strconv.Itoa(ch) + " does not exist")
	}
	return &d.chs[ch]
}

// SetDuties sets the requested duty of every channel, effective at the next
// cycle start. len(duties) must be equal to Channels().
//
func (d *Device) SetDuties(duties []uint8) {
	d.checkLen("SetDuties", len(duties))
	for i, v := range duties {
		d.chs[i].pending.duty = v
	}
}

// SetPhases sets the requested phase of every channel, effective at the next
// cycle start. len(phases) must be equal to Channels().
//
func (d *Device) SetPhases(phases []uint8) {
	d.checkLen("SetPhases", len(phases))
	for i, v := range phases {
		d.chs[i].pending.phase = v
	}
}

// SetOffsets sets the duty offset of every channel, effective at the next
// cycle start. len(offsets) must be equal to Channels().
//
func (d *Device) SetOffsets(offsets []uint8) {
	d.checkLen("SetOffsets", len(offsets))
	for i, v := range offsets {
		d.chs[i].pending.offset = v
	}
}

// SetDelay sets the delay, in cycles, of every channel's delay line.
// len(delays) must be equal to Channels().
//
func (d *Device) SetDelay(delays []uint8) {
	d.checkLen("SetDelay", len(delays))
	for i, v := range delays {
		d.chs[i].fifo.Set(v)
	}
}

// SetMod replaces the modulation waveform. Each sample is held for div
// cycles. See fpga.Modulator.Set.
//
func (d *Device) SetMod(samples []uint8, div int) {
	d.mod.Set(samples, div)
}

// SetSilentMode enables or disables the silent filters, effective at the next
// cycle start.
//
func (d *Device) SetSilentMode(silent bool) {
	d.silent = silent
}

// Clear resets the requested duty and phase of all channels to 0 and their
// offset to DefaultOffset. The transducers and the output history are left
// untouched.
//
func (d *Device) Clear() {
	for i := range d.chs {
		d.chs[i].pending = drive{offset: DefaultOffset}
	}
}

// Update advances the simulation by one step.
//
func (d *Device) Update() {
	if d.time == 0 {
		for i := range d.chs {
			d.chs[i].latch(d.mod, d.silent)
		}
	}
	for i := range d.chs {
		d.chs[i].step(d.time)
	}
	d.steps++
	d.time++
	if d.time == Cycle {
		d.time = 0
		d.mod.Update()
	}
}

// Run calls Update n times.
//
func (d *Device) Run(n int) {
	for ; n > 0; n-- {
		d.Update()
	}
}

// OutputWhen returns the output of channel ch as it was elapsed seconds
// before the most recent step. The elapsed time is rounded to the nearest
// step. It returns false if that sample is not in the retained history.
//
func (d *Device) OutputWhen(ch int, elapsed float64) (float64, bool) {
	h := d.channel(ch).history
	back := math.Round(elapsed / TimeStep)
	if !(back >= 0) || back >= float64(h.len()) {
		return 0, false
	}
	return h.at(int(back)), true
}

// Channels returns the number of channels.
//
func (d *Device) Channels() int { return len(d.chs) }

// Buffered returns the number of samples retained for channel ch.
//
func (d *Device) Buffered(ch int) int { return d.channel(ch).history.len() }

// Active returns the drive values applied to channel ch during the current
// cycle.
//
func (d *Device) Active(ch int) (duty, phase, offset uint8) {
	a := d.channel(ch).active
	return a.duty, a.phase, a.offset
}

// SilentMode returns true if silent mode is enabled.
//
func (d *Device) SilentMode() bool { return d.silent }

// Modulator returns the device's modulator.
//
func (d *Device) Modulator() *fpga.Modulator { return d.mod }

// Steps returns the value of the step counter.
//
func (d *Device) Steps() uint64 { return d.steps }

// Time returns the position of the next step within the current cycle.
//
func (d *Device) Time() int { return d.time }

// Cycles returns the number of completed cycles.
//
func (d *Device) Cycles() uint64 { return d.steps / Cycle }

// Elapsed returns the simulated time in seconds.
//
func (d *Device) Elapsed() float64 { return float64(d.steps) * TimeStep }

// AtCycleStart returns true if the next call to Update starts a new cycle,
// i.e. if commands set now take effect with the next step.
//
func (d *Device) AtCycleStart() bool { return d.time == 0 }
