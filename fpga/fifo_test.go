package fpga_test

import (
	"testing"

	"github.com/db47h/arraysim/fpga"
	"golang.org/x/exp/rand"
)

func TestDelayedFifo_priming(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for k := 0; k <= fpga.MaxDelay; k++ {
		var f fpga.DelayedFifo
		f.Set(uint8(k))
		in := make([]uint8, k+50)
		for i := range in {
			in[i] = uint8(rnd.Intn(255) + 1)
		}
		for i, v := range in {
			out := f.Update(v)
			switch {
			case i < k:
				if out != 0 {
					t.Fatalf("delay %d: call %d returned %d before priming", k, i+1, out)
				}
			default:
				if out != in[i-k] {
					t.Fatalf("delay %d: call %d returned %d, expected %d", k, i+1, out, in[i-k])
				}
			}
			if f.Len() > k+1 {
				t.Fatalf("delay %d: queue length %d", k, f.Len())
			}
		}
	}
}

func TestDelayedFifo_zero(t *testing.T) {
	var f fpga.DelayedFifo
	if f.Delay() != 0 {
		t.Fatalf("zero value: expected delay 0, got %d", f.Delay())
	}
	for _, v := range []uint8{3, 7, 255, 0, 1} {
		if out := f.Update(v); out != v {
			t.Fatalf("no delay: expected %d, got %d", v, out)
		}
	}
}

func TestDelayedFifo_shrink(t *testing.T) {
	var f fpga.DelayedFifo
	f.Set(4)
	for i := 1; i <= 5; i++ {
		f.Update(uint8(i))
	}
	// queue is 1..5; shrinking to 1 keeps the two newest values.
	f.Set(1)
	if f.Delay() != 1 {
		t.Fatalf("expected delay 1, got %d", f.Delay())
	}
	if out := f.Update(6); out != 5 {
		t.Fatalf("expected 5, got %d", out)
	}
	if f.Len() != 2 {
		t.Fatalf("expected length 2, got %d", f.Len())
	}
	f.Reset()
	if out := f.Update(9); out != 0 {
		t.Fatalf("expected 0 after Reset, got %d", out)
	}
}
