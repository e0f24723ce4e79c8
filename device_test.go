package arraysim_test

import (
	"math"
	"testing"

	"github.com/db47h/arraysim"
	"github.com/db47h/arraysim/simtest"
	"github.com/db47h/arraysim/transducer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDevice(t *testing.T, bufSize, channels int) *arraysim.Device {
	t.Helper()
	d, err := arraysim.New(bufSize, arraysim.WithChannels(channels))
	require.NoError(t, err)
	return d
}

// activeDuties runs n cycles starting at a cycle boundary and returns the
// duty applied to channel 0 during each of them.
func activeDuties(d *arraysim.Device, n int) []uint8 {
	out := make([]uint8, n)
	for i := range out {
		d.Update()
		out[i], _, _ = d.Active(0)
		d.Run(arraysim.Cycle - 1)
	}
	return out
}

func TestNew(t *testing.T) {
	d, err := arraysim.New(10)
	require.NoError(t, err)
	assert.Equal(t, arraysim.NumTransducers, d.Channels())
	assert.True(t, d.SilentMode())
	assert.True(t, d.AtCycleStart())
	assert.Equal(t, 48.828125e-9, arraysim.TimeStep)

	d.Update()
	duty, phase, offset := d.Active(0)
	assert.Zero(t, duty)
	assert.Zero(t, phase)
	assert.Equal(t, uint8(arraysim.DefaultOffset), offset)

	_, err = arraysim.New(0)
	assert.Error(t, err)
	_, err = arraysim.New(10, arraysim.WithChannels(0))
	assert.Error(t, err)
	p := transducer.DefaultParams
	p.Cp = -1
	_, err = arraysim.New(10, arraysim.WithTransducer(p))
	assert.Error(t, err)
}

func TestDevice_contract(t *testing.T) {
	d := newDevice(t, 10, 4)
	assert.Panics(t, func() { d.SetDuties(make([]uint8, 3)) })
	assert.Panics(t, func() { d.SetPhases(make([]uint8, 5)) })
	assert.Panics(t, func() { d.SetDelay(nil) })
	assert.Panics(t, func() { d.SetOffsets(make([]uint8, 1)) })
	assert.Panics(t, func() { d.OutputWhen(4, 0) })
	assert.Panics(t, func() { d.OutputWhen(-1, 0) })
}

func TestDevice_latch(t *testing.T) {
	d := newDevice(t, 10, 2)
	d.SetSilentMode(false)
	d.Update()
	d.SetDuties(simtest.Fill(2, 200))
	d.SetPhases(simtest.Fill(2, 17))
	d.Run(arraysim.Cycle - 2)
	duty, phase, _ := d.Active(1)
	require.Zero(t, duty, "mid-cycle duty must not be applied")
	require.Zero(t, phase, "mid-cycle phase must not be applied")

	d.Update()
	require.True(t, d.AtCycleStart())
	duty, _, _ = d.Active(1)
	require.Zero(t, duty, "latch happens on the first step of the next cycle")

	d.Update()
	duty, phase, _ = d.Active(1)
	require.Equal(t, uint8(200), duty)
	require.Equal(t, uint8(17), phase)

	// commands set anywhere within a cycle produce the same output.
	d1, d2 := newDevice(t, 10, 2), newDevice(t, 10, 2)
	simtest.CompareDevices(t, 3*arraysim.Cycle, d1, d2, func(step int, d *arraysim.Device) {
		if d == d1 && step == 100 || d == d2 && step == arraysim.Cycle-1 {
			d.SetDuties(simtest.Fill(2, 255))
			d.SetPhases([]uint8{0, 128})
		}
	})
}

func TestDevice_silent(t *testing.T) {
	d := newDevice(t, 10, 1)
	d.SetDuties([]uint8{255})
	got := activeDuties(d, 4)
	require.Equal(t, []uint8{10, 20, 30, 40}, got)

	d.SetSilentMode(false)
	got = activeDuties(d, 1)
	require.Equal(t, []uint8{255}, got)

	d2, err := arraysim.New(10, arraysim.WithChannels(1), arraysim.WithSilencer(100, 0))
	require.NoError(t, err)
	d2.SetDuties([]uint8{255})
	require.Equal(t, []uint8{100, 200, 255}, activeDuties(d2, 3))
}

func TestDevice_delay(t *testing.T) {
	d := newDevice(t, 10, 2)
	d.SetSilentMode(false)
	d.SetDelay([]uint8{3, 0})
	d.SetDuties(simtest.Fill(2, 255))
	require.Equal(t, []uint8{0, 0, 0, 255, 255}, activeDuties(d, 5))

	d.Update()
	duty, _, _ := d.Active(1)
	require.Equal(t, uint8(255), duty, "channel 1 is not delayed")
}

func TestDevice_modulation(t *testing.T) {
	d := newDevice(t, 10, 1)
	d.SetSilentMode(false)
	d.SetDuties([]uint8{255})
	d.SetMod([]uint8{127, 255}, 2)
	require.Equal(t, []uint8{127, 127, 255, 255, 127}, activeDuties(d, 5))
	require.Equal(t, 0, d.Modulator().Index())
}

func TestDevice_clear(t *testing.T) {
	d := newDevice(t, arraysim.Cycle, 1)
	d.SetSilentMode(false)
	d.SetDuties([]uint8{255})
	d.SetPhases([]uint8{3})
	d.SetOffsets([]uint8{5})
	d.Run(arraysim.Cycle)
	before := d.Buffered(0)
	s := simtest.Envelope(d, 0, arraysim.Cycle)

	d.Clear()
	require.Equal(t, before, d.Buffered(0), "Clear must not touch the history")
	require.Equal(t, s, simtest.Envelope(d, 0, arraysim.Cycle))

	d.Update()
	duty, phase, offset := d.Active(0)
	require.Zero(t, duty)
	require.Zero(t, phase)
	require.Equal(t, uint8(arraysim.DefaultOffset), offset)
}

func TestDevice_OutputWhen(t *testing.T) {
	d := newDevice(t, 100, 1)
	_, ok := d.OutputWhen(0, 0)
	require.False(t, ok, "empty history")

	d.SetSilentMode(false)
	d.SetDuties([]uint8{255})
	d.Run(150)
	require.Equal(t, 100, d.Buffered(0))
	require.Equal(t, uint64(150), d.Steps())
	require.InDelta(t, 150*arraysim.TimeStep, d.Elapsed(), 1e-15)

	tr := simtest.Trace(d, 0, 100)
	for back := 0; back < 100; back++ {
		v, ok := d.OutputWhen(0, float64(back)*arraysim.TimeStep)
		require.True(t, ok)
		require.Equal(t, tr[99-back], v)
	}
	// rounding to the nearest step.
	v, ok := d.OutputWhen(0, 2.4*arraysim.TimeStep)
	require.True(t, ok)
	require.Equal(t, tr[97], v)
	v, ok = d.OutputWhen(0, 2.6*arraysim.TimeStep)
	require.True(t, ok)
	require.Equal(t, tr[96], v)

	_, ok = d.OutputWhen(0, 100*arraysim.TimeStep)
	require.False(t, ok)
	_, ok = d.OutputWhen(0, -arraysim.TimeStep)
	require.False(t, ok)
	_, ok = d.OutputWhen(0, math.NaN())
	require.False(t, ok)
}

func TestDevice_clock(t *testing.T) {
	d := newDevice(t, 16, 1)
	require.Zero(t, d.Time())
	require.Zero(t, d.Cycles())
	d.Run(150)
	require.Equal(t, 150, d.Time())
	require.Zero(t, d.Cycles())
	require.False(t, d.AtCycleStart())
	d.Run(2*arraysim.Cycle - 150)
	require.Zero(t, d.Time())
	require.Equal(t, uint64(2), d.Cycles())
	require.True(t, d.AtCycleStart())
	d.Run(10)
	require.Equal(t, 10, d.Time())
	require.Equal(t, uint64(2), d.Cycles())
	require.Equal(t, uint64(2*arraysim.Cycle+10), d.Steps())
}

func TestDevice_endToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("long simulation")
	}
	const n = 100000
	d := newDevice(t, n, 8)
	d.SetSilentMode(false)
	d.SetDuties(simtest.Fill(8, 255))
	d.SetPhases(simtest.Fill(8, 0))
	d.SetDelay(simtest.Fill(8, 0))
	d.Run(n)

	v, ok := d.OutputWhen(0, 0)
	require.True(t, ok)
	require.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	on := simtest.Envelope(d, 0, arraysim.Cycle)
	require.Greater(t, on, 0.0)

	d.SetDuties(simtest.Fill(8, 0))
	d.Run(4 * arraysim.Cycle)
	early := simtest.Envelope(d, 0, arraysim.Cycle)
	d.Run(n - 4*arraysim.Cycle)
	late := simtest.Envelope(d, 0, arraysim.Cycle)

	require.Less(t, early, on, "output must start decaying")
	require.Less(t, late, early, "output must keep decaying")
	require.Less(t, late, on/10)
	v0, _ := d.OutputWhen(0, 0)
	for ch := 1; ch < 8; ch++ {
		v1, _ := d.OutputWhen(ch, 0)
		require.Equal(t, v0, v1, "identical channels must produce identical output")
	}
}
