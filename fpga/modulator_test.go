package fpga_test

import (
	"testing"
	"testing/quick"

	"github.com/db47h/arraysim/fpga"
	"github.com/stretchr/testify/require"
)

func TestModulator_bounds(t *testing.T) {
	m := fpga.NewModulator()
	for s := 0; s < 256; s++ {
		m.Set([]uint8{uint8(s)}, 1)
		for duty := 0; duty < 256; duty++ {
			got := m.Modulate(uint8(duty))
			require.LessOrEqual(t, int(got), duty, "sample %d", s)
			require.Equal(t, duty*(s+1)/256, int(got), "sample %d, duty %d", s, duty)
			if s == 255 {
				require.Equal(t, uint8(duty), got)
			}
		}
	}
}

func TestModulator_default(t *testing.T) {
	m := fpga.NewModulator()
	require.Equal(t, 1, m.Len())
	require.Equal(t, 1, m.Divider())
	require.Equal(t, uint8(200), m.Modulate(200))

	m.Set(nil, 0)
	require.Equal(t, 1, m.Len(), "empty buffer becomes a single full scale sample")
	require.Equal(t, 1, m.Divider())
	require.Equal(t, uint8(255), m.Modulate(255))
}

func TestModulator_divider(t *testing.T) {
	m := fpga.NewModulator()
	m.Set([]uint8{255, 127, 0}, 3)
	exp := []int{0, 0, 0, 1, 1, 1, 2, 2, 2, 0, 0}
	for i, e := range exp {
		require.Equal(t, e, m.Index(), "cycle %d", i)
		m.Update()
	}

	// Set resets the cursor.
	m.Set([]uint8{1, 2}, 1)
	require.Equal(t, 0, m.Index())
}

func TestModulator_periodic(t *testing.T) {
	f := func(samples []uint8, div uint8, warmup uint8) bool {
		m := fpga.NewModulator()
		m.Set(samples, int(div))
		for i := 0; i < int(warmup); i++ {
			m.Update()
		}
		start := m.Index()
		n := m.Len() * m.Divider()
		for i := 0; i < n; i++ {
			m.Update()
		}
		return m.Index() == start
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}

func TestModulator_copy(t *testing.T) {
	buf := []uint8{0}
	m := fpga.NewModulator()
	m.Set(buf, 1)
	buf[0] = 255
	require.Equal(t, uint8(0), m.Modulate(100), "Set must copy the samples")
}
