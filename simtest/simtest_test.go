package simtest_test

import (
	"testing"

	"github.com/db47h/arraysim"
	"github.com/db47h/arraysim/simtest"
)

func TestCompareDevices(t *testing.T) {
	d1, err := arraysim.New(arraysim.Cycle, arraysim.WithChannels(4))
	if err != nil {
		t.Fatal(err)
	}
	d2, err := arraysim.New(arraysim.Cycle, arraysim.WithChannels(4))
	if err != nil {
		t.Fatal(err)
	}
	simtest.CompareDevices(t, 4*arraysim.Cycle, d1, d2, func(step int, d *arraysim.Device) {
		if step == arraysim.Cycle {
			d.SetDuties(simtest.Fill(4, 200))
		}
	})
	if e := simtest.Envelope(d1, 0, arraysim.Cycle); e == 0 {
		t.Fatal("expected a non zero output")
	}
	if tr := simtest.Trace(d1, 0, 3); len(tr) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(tr))
	}
}
