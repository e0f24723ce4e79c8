// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package scenario

import (
	"context"

	"github.com/db47h/arraysim"
	"github.com/db47h/arraysim/internal/drive"
	"github.com/pkg/errors"
)

// runChunk is the number of steps run between two context checks.
const runChunk = 64 * arraysim.Cycle

// commands shadows the pending drive commands of a device so that partial
// assignments only change the channels they name.
//
type commands struct {
	duties, phases, offsets, delays []uint8
}

func newCommands(n int) *commands {
	c := &commands{
		duties:  make([]uint8, n),
		phases:  make([]uint8, n),
		offsets: make([]uint8, n),
		delays:  make([]uint8, n),
	}
	c.clear()
	return c
}

func (c *commands) clear() {
	for i := range c.duties {
		c.duties[i] = 0
		c.phases[i] = 0
		c.offsets[i] = arraysim.DefaultOffset
	}
}

// A setter updates one of the command slices of a device.
type setter func(dst []uint8) error

func assign(spec string) setter {
	return func(dst []uint8) error { return drive.Apply(spec, dst) }
}

// session holds the devices of a running scenario.
//
type session struct {
	ctx  context.Context
	devs []*arraysim.Device
	cmds []*commands
	arr  *arraysim.Array
	res  *Result
}

func newSession(ctx context.Context, name string, cfg DeviceConfig) (*session, error) {
	devs, err := cfg.newDevices()
	if err != nil {
		return nil, err
	}
	s := &session{
		ctx:  ctx,
		devs: devs,
		res:  &Result{Name: name},
	}
	for _, d := range devs {
		s.cmds = append(s.cmds, newCommands(d.Channels()))
	}
	if len(devs) > 1 {
		s.arr, err = arraysim.NewArray(cfg.Workers, devs...)
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *session) close() {
	if s.arr != nil {
		s.arr.Dispose()
		s.arr = nil
	}
}

// targets returns the indices of the devices selected by dev. A negative dev
// selects all devices.
//
func (s *session) targets(dev int) ([]int, error) {
	if dev >= len(s.devs) {
		return nil, errors.Errorf("device %d out of range [0, %d]", dev, len(s.devs)-1)
	}
	if dev >= 0 {
		return []int{dev}, nil
	}
	all := make([]int, len(s.devs))
	for i := range all {
		all[i] = i
	}
	return all, nil
}

func (s *session) each(dev int, fn func(d *arraysim.Device, c *commands) error) error {
	ts, err := s.targets(dev)
	if err != nil {
		return err
	}
	for _, i := range ts {
		if err := fn(s.devs[i], s.cmds[i]); err != nil {
			return errors.Wrapf(err, "device %d", i)
		}
	}
	return nil
}

func (s *session) setDuties(dev int, set setter) error {
	return s.each(dev, func(d *arraysim.Device, c *commands) error {
		if err := set(c.duties); err != nil {
			return errors.Wrap(err, "duties")
		}
		d.SetDuties(c.duties)
		return nil
	})
}

func (s *session) setPhases(dev int, set setter) error {
	return s.each(dev, func(d *arraysim.Device, c *commands) error {
		if err := set(c.phases); err != nil {
			return errors.Wrap(err, "phases")
		}
		d.SetPhases(c.phases)
		return nil
	})
}

func (s *session) setOffsets(dev int, set setter) error {
	return s.each(dev, func(d *arraysim.Device, c *commands) error {
		if err := set(c.offsets); err != nil {
			return errors.Wrap(err, "offsets")
		}
		d.SetOffsets(c.offsets)
		return nil
	})
}

func (s *session) setDelays(dev int, set setter) error {
	return s.each(dev, func(d *arraysim.Device, c *commands) error {
		if err := set(c.delays); err != nil {
			return errors.Wrap(err, "delays")
		}
		d.SetDelay(c.delays)
		return nil
	})
}

func (s *session) setMod(dev int, m Mod) error {
	return s.each(dev, func(d *arraysim.Device, _ *commands) error {
		d.SetMod(m.Samples, m.Div)
		return nil
	})
}

func (s *session) setSilent(dev int, silent bool) error {
	return s.each(dev, func(d *arraysim.Device, _ *commands) error {
		d.SetSilentMode(silent)
		return nil
	})
}

func (s *session) clear(dev int) error {
	return s.each(dev, func(d *arraysim.Device, c *commands) error {
		c.clear()
		d.Clear()
		return nil
	})
}

// run advances all devices by n steps.
//
func (s *session) run(n int) error {
	if n < 0 {
		return errors.Errorf("negative run count %d", n)
	}
	for n > 0 {
		if err := s.ctx.Err(); err != nil {
			return err
		}
		k := n
		if k > runChunk {
			k = runChunk
		}
		if s.arr != nil {
			s.arr.Run(k)
		} else {
			s.devs[0].Run(k)
		}
		n -= k
	}
	return nil
}

// steps returns the number of steps run so far.
//
func (s *session) steps() uint64 {
	return s.devs[0].Steps()
}

// sample returns the output of a channel elapsed seconds ago.
//
func (s *session) sample(dev, ch int, elapsed float64) (float64, bool, error) {
	d, err := s.device(dev, ch)
	if err != nil {
		return 0, false, err
	}
	v, ok := d.OutputWhen(ch, elapsed)
	return v, ok, nil
}

func (s *session) device(dev, ch int) (*arraysim.Device, error) {
	if dev < 0 || dev >= len(s.devs) {
		return nil, errors.Errorf("device %d out of range [0, %d]", dev, len(s.devs)-1)
	}
	d := s.devs[dev]
	if ch < 0 || ch >= d.Channels() {
		return nil, errors.Errorf("channel %d out of range [0, %d]", ch, d.Channels()-1)
	}
	return d, nil
}

// probe records the last p.Window samples of the probed channels.
//
func (s *session) probe(p Probe) error {
	w := p.Window
	if w == 0 {
		w = arraysim.Cycle
	}
	if w < 0 {
		return errors.Errorf("probe %q: invalid window %d", p.Name, w)
	}
	for _, ch := range p.Channels {
		d, err := s.device(p.Device, ch)
		if err != nil {
			return errors.Wrapf(err, "probe %q", p.Name)
		}
		if n := d.Buffered(ch); n < w {
			return errors.Errorf("probe %q: window of %d steps but only %d samples retained", p.Name, w, n)
		}
		sr := Series{
			Name:    p.Name,
			Device:  p.Device,
			Channel: ch,
			End:     d.Steps(),
			Samples: make([]float64, w),
		}
		for i := range sr.Samples {
			sr.Samples[i], _ = d.OutputWhen(ch, float64(w-1-i)*arraysim.TimeStep)
		}
		s.res.Probes = append(s.res.Probes, sr)
	}
	return nil
}

func stepDevice(st *Step) int {
	if st.Device == nil {
		return -1
	}
	return *st.Device
}

// exec runs one YAML step.
//
func (s *session) exec(st *Step) error {
	dev := stepDevice(st)
	if st.Clear {
		if err := s.clear(dev); err != nil {
			return err
		}
	}
	for _, f := range []struct {
		spec string
		set  func(int, setter) error
	}{
		{st.Duties, s.setDuties},
		{st.Phases, s.setPhases},
		{st.Offsets, s.setOffsets},
		{st.Delays, s.setDelays},
	} {
		if f.spec == "" {
			continue
		}
		if err := f.set(dev, assign(f.spec)); err != nil {
			return err
		}
	}
	if st.Mod != nil {
		if err := s.setMod(dev, *st.Mod); err != nil {
			return err
		}
	}
	if st.Silent != nil {
		if err := s.setSilent(dev, *st.Silent); err != nil {
			return err
		}
	}
	if err := s.run(st.Run); err != nil {
		return err
	}
	if st.Probe != nil {
		return s.probe(*st.Probe)
	}
	return nil
}

// Run runs the scenario and returns the recorded probes.
//
func (sc *Scenario) Run(ctx context.Context) (*Result, error) {
	if sc.kind == Lua {
		return sc.runLua(ctx)
	}
	s, err := newSession(ctx, sc.Name, sc.Device)
	if err != nil {
		return nil, errors.Wrap(err, sc.Name)
	}
	defer s.close()
	for i := range sc.Steps {
		if err := s.exec(&sc.Steps[i]); err != nil {
			return nil, errors.Wrapf(err, "%s: step %d", sc.Name, i)
		}
	}
	s.res.Steps = s.steps()
	return s.res, nil
}
