// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package scenario

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/db47h/arraysim"
	"github.com/pkg/errors"
)

// Series is a window of consecutive output samples of one channel.
//
type Series struct {
	Name    string
	Device  int
	Channel int
	End     uint64    // step count when the probe was taken
	Samples []float64 // oldest first; the last one is the output of step End-1
}

// Step returns the step number of sample i.
//
func (s *Series) Step(i int) uint64 {
	return s.End - uint64(len(s.Samples)) + uint64(i)
}

// Result holds the outcome of a scenario run.
//
type Result struct {
	Name   string
	Steps  uint64 // total steps run
	Probes []Series
}

// Probe returns the first series recorded by the named probe for the given
// channel, or nil.
//
func (r *Result) Probe(name string, ch int) *Series {
	for i := range r.Probes {
		if p := &r.Probes[i]; p.Name == name && p.Channel == ch {
			return p
		}
	}
	return nil
}

// WriteCSV writes all recorded samples to w as CSV with the columns probe,
// device, channel, step, time (seconds) and value.
//
func (r *Result) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"probe", "device", "channel", "step", "time", "value"}); err != nil {
		return errors.Wrap(err, "write csv")
	}
	rec := make([]string, 6)
	for _, p := range r.Probes {
		rec[0] = p.Name
		rec[1] = strconv.Itoa(p.Device)
		rec[2] = strconv.Itoa(p.Channel)
		for i, v := range p.Samples {
			step := p.Step(i)
			rec[3] = strconv.FormatUint(step, 10)
			rec[4] = strconv.FormatFloat(float64(step)*arraysim.TimeStep, 'g', -1, 64)
			rec[5] = strconv.FormatFloat(v, 'g', -1, 64)
			if err := cw.Write(rec); err != nil {
				return errors.Wrap(err, "write csv")
			}
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "write csv")
}
