// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package scenario

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/db47h/arraysim"
	"github.com/pkg/errors"
	lua "github.com/yuin/gopher-lua"
)

// Lua scenarios drive the devices from a script. The following globals are
// available:
//
//	configure{max_buf_size=N, channels=N, count=N, workers=N,
//	          transducer={l=, cs=, r=, rd=, cp=},
//	          silencer={duty_step=, phase_step=}}
//	duties(x [, dev])     -- x: number, assignment string or table of values
//	phases(x [, dev])
//	offsets(x [, dev])
//	delays(x [, dev])
//	mod(samples, div [, dev])
//	silent(bool [, dev])
//	clear([dev])
//	run(n)
//	probe(name, ch [, window [, dev]])
//	sample(ch, seconds [, dev]) -- number, or nil if not retained
//	steps()
//	channels()
//	CYCLE, TIME_STEP
//
// configure may only be called before any other function. dev defaults to -1
// (all devices) for commands and 0 for queries.
//
type luaRunner struct {
	sc  *Scenario
	ctx context.Context
	cfg DeviceConfig
	s   *session
}

func (r *luaRunner) session(L *lua.LState) *session {
	if r.s == nil {
		s, err := newSession(r.ctx, r.sc.Name, r.cfg)
		if err != nil {
			L.RaiseError("%s", err.Error())
		}
		r.s = s
	}
	return r.s
}

func check(L *lua.LState, err error) {
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
}

// luaByte converts v to a drive value. It fails on non numbers, fractions and
// values outside [0, 255].
//
func luaByte(v lua.LValue) (uint8, bool) {
	x, ok := v.(lua.LNumber)
	if !ok {
		return 0, false
	}
	f := float64(x)
	if f != math.Trunc(f) || f < 0 || f > 255 {
		return 0, false
	}
	return uint8(f), true
}

func luaSetter(L *lua.LState, n int) setter {
	switch v := L.Get(n).(type) {
	case lua.LNumber:
		x, ok := luaByte(v)
		if !ok {
			L.ArgError(n, "integer in [0, 255] expected, got "+v.String())
		}
		return assign("*=" + strconv.Itoa(int(x)))
	case lua.LString:
		return assign(string(v))
	case *lua.LTable:
		return func(dst []uint8) error {
			if v.Len() != len(dst) {
				return errors.Errorf("table has %d values for %d channels", v.Len(), len(dst))
			}
			vals := make([]uint8, len(dst))
			for i := range vals {
				x, ok := luaByte(v.RawGetInt(i + 1))
				if !ok {
					return errors.Errorf("invalid value %v at index %d", v.RawGetInt(i+1), i+1)
				}
				vals[i] = x
			}
			copy(dst, vals)
			return nil
		}
	}
	L.ArgError(n, "number, assignment string or table expected")
	return nil
}

func tableInt(t *lua.LTable, key string, dst *int) {
	if v, ok := t.RawGetString(key).(lua.LNumber); ok {
		*dst = int(v)
	}
}

func tableFloat(t *lua.LTable, key string, dst *float64) {
	if v, ok := t.RawGetString(key).(lua.LNumber); ok {
		*dst = float64(v)
	}
}

func tableUint8(t *lua.LTable, key string, dst *uint8) {
	if v, ok := luaByte(t.RawGetString(key)); ok {
		*dst = v
	}
}

func (r *luaRunner) configure(L *lua.LState) int {
	if r.s != nil {
		L.RaiseError("configure called after the devices were started")
	}
	t := L.CheckTable(1)
	c := &r.cfg
	tableInt(t, "max_buf_size", &c.MaxBufSize)
	tableInt(t, "channels", &c.Channels)
	tableInt(t, "count", &c.Count)
	tableInt(t, "workers", &c.Workers)
	if tr, ok := t.RawGetString("transducer").(*lua.LTable); ok {
		tableFloat(tr, "l", &c.Transducer.L)
		tableFloat(tr, "cs", &c.Transducer.Cs)
		tableFloat(tr, "r", &c.Transducer.R)
		tableFloat(tr, "rd", &c.Transducer.Rd)
		tableFloat(tr, "cp", &c.Transducer.Cp)
	}
	if sl, ok := t.RawGetString("silencer").(*lua.LTable); ok {
		tableUint8(sl, "duty_step", &c.Silencer.DutyStep)
		tableUint8(sl, "phase_step", &c.Silencer.PhaseStep)
	}
	return 0
}

func (r *luaRunner) setterFn(set func(*session) func(int, setter) error) lua.LGFunction {
	return func(L *lua.LState) int {
		s := r.session(L)
		fn := luaSetter(L, 1)
		check(L, set(s)(L.OptInt(2, -1), fn))
		return 0
	}
}

func (r *luaRunner) mod(L *lua.LState) int {
	s := r.session(L)
	t := L.CheckTable(1)
	m := Mod{Div: L.OptInt(2, 1)}
	for i := 1; i <= t.Len(); i++ {
		x, ok := luaByte(t.RawGetInt(i))
		if !ok {
			L.ArgError(1, "modulation samples must be integers in [0, 255]")
		}
		m.Samples = append(m.Samples, x)
	}
	check(L, s.setMod(L.OptInt(3, -1), m))
	return 0
}

func (r *luaRunner) silent(L *lua.LState) int {
	s := r.session(L)
	check(L, s.setSilent(L.OptInt(2, -1), L.CheckBool(1)))
	return 0
}

func (r *luaRunner) clear(L *lua.LState) int {
	check(L, r.session(L).clear(L.OptInt(1, -1)))
	return 0
}

func (r *luaRunner) run(L *lua.LState) int {
	check(L, r.session(L).run(L.CheckInt(1)))
	return 0
}

func (r *luaRunner) probe(L *lua.LState) int {
	p := Probe{
		Name:     L.CheckString(1),
		Channels: []int{L.CheckInt(2)},
		Window:   L.OptInt(3, 0),
		Device:   L.OptInt(4, 0),
	}
	check(L, r.session(L).probe(p))
	return 0
}

func (r *luaRunner) sample(L *lua.LState) int {
	ch := L.CheckInt(1)
	t := float64(L.CheckNumber(2))
	v, ok, err := r.session(L).sample(L.OptInt(3, 0), ch, t)
	check(L, err)
	if !ok {
		L.Push(lua.LNil)
	} else {
		L.Push(lua.LNumber(v))
	}
	return 1
}

func (r *luaRunner) steps(L *lua.LState) int {
	L.Push(lua.LNumber(r.session(L).steps()))
	return 1
}

func (r *luaRunner) channels(L *lua.LState) int {
	L.Push(lua.LNumber(r.session(L).devs[0].Channels()))
	return 1
}

func (sc *Scenario) runLua(ctx context.Context) (*Result, error) {
	r := &luaRunner{sc: sc, ctx: ctx, cfg: sc.Device}
	defer func() {
		if r.s != nil {
			r.s.close()
		}
	}()

	L := lua.NewState()
	defer L.Close()
	L.SetContext(ctx)

	for name, fn := range map[string]lua.LGFunction{
		"configure": r.configure,
		"duties":    r.setterFn(func(s *session) func(int, setter) error { return s.setDuties }),
		"phases":    r.setterFn(func(s *session) func(int, setter) error { return s.setPhases }),
		"offsets":   r.setterFn(func(s *session) func(int, setter) error { return s.setOffsets }),
		"delays":    r.setterFn(func(s *session) func(int, setter) error { return s.setDelays }),
		"mod":       r.mod,
		"silent":    r.silent,
		"clear":     r.clear,
		"run":       r.run,
		"probe":     r.probe,
		"sample":    r.sample,
		"steps":     r.steps,
		"channels":  r.channels,
	} {
		L.SetGlobal(name, L.NewFunction(fn))
	}
	L.SetGlobal("CYCLE", lua.LNumber(arraysim.Cycle))
	L.SetGlobal("TIME_STEP", lua.LNumber(arraysim.TimeStep))

	fn, err := L.Load(strings.NewReader(sc.script), sc.Name)
	if err != nil {
		return nil, errors.Wrap(err, sc.Name)
	}
	L.Push(fn)
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		return nil, errors.Wrap(err, sc.Name)
	}

	if r.s == nil {
		// script did not touch the devices.
		if r.s, err = newSession(ctx, sc.Name, r.cfg); err != nil {
			return nil, errors.Wrap(err, sc.Name)
		}
	}
	r.s.res.Steps = r.s.steps()
	return r.s.res, nil
}
