// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package arraysim

import (
	"github.com/db47h/arraysim/fpga"
	"github.com/db47h/arraysim/transducer"
)

// drive is the set of commands that control a channel's pulse generator.
//
type drive struct {
	duty   uint8
	phase  uint8
	offset uint8
}

// channel holds the per-element state of a board.
//
// Commands are written to pending at any time. latch moves them through the
// drive pipeline into active at the start of a cycle, active is then frozen
// until the next cycle start.
//
type channel struct {
	pending drive
	active  drive

	fifo    fpga.DelayedFifo
	silent  *fpga.SilentFilter
	tr      *transducer.Transducer
	history *history
}

// latch computes the active drive for the next cycle.
//
func (c *channel) latch(m *fpga.Modulator, silent bool) {
	duty, phase := m.Modulate(c.pending.duty), c.pending.phase
	if silent {
		duty, phase = c.silent.Update(duty, phase)
	}
	c.active = drive{
		duty:   c.fifo.Update(duty),
		phase:  phase,
		offset: c.pending.offset,
	}
}

// step runs the pulse generator and transducer for step t of the current
// cycle and records the output.
//
func (c *channel) step(t int) {
	v := fpga.Pwm(t, c.active.duty, c.active.phase, c.active.offset)
	c.history.push(c.tr.Update(v))
}
