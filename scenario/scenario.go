// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package scenario runs drive command scenarios against simulated devices.
//
// A scenario is either a YAML file listing configuration and steps, or a Lua
// script calling drive functions. Both record probes: windows of output
// samples of selected channels, returned in a Result.
//
// YAML scenarios look like this:
//
//	name: decay
//	device:
//	  max_buf_size: 100000
//	  channels: 249
//	steps:
//	  - duties: "*=255"
//	    silent: false
//	    run: 100000
//	    probe: {name: on, channels: [0], window: 512}
//	  - duties: "*=0"
//	    run: 100000
//	    probe: {name: off, channels: [0], window: 512}
//
// Channel values (duties, phases, offsets, delays) use the assignment syntax
// "*=0, 0..9=255, 12=128".
//
package scenario

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/db47h/arraysim"
	"github.com/db47h/arraysim/fpga"
	"github.com/db47h/arraysim/transducer"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Kind is the format of a scenario.
//
type Kind int

// Scenario formats.
//
const (
	YAML Kind = iota
	Lua
)

// DefaultBufSize is the history size of devices when max_buf_size is not set.
//
const DefaultBufSize = 64 * arraysim.Cycle

// DeviceConfig describes the simulated boards.
//
type DeviceConfig struct {
	MaxBufSize int               `yaml:"max_buf_size"`
	Channels   int               `yaml:"channels"`
	Count      int               `yaml:"count"`   // number of chained boards
	Workers    int               `yaml:"workers"` // see arraysim.NewArray
	Transducer transducer.Params `yaml:"transducer"`
	Silencer   struct {
		DutyStep  uint8 `yaml:"duty_step"`
		PhaseStep uint8 `yaml:"phase_step"`
	} `yaml:"silencer"`
}

// DefaultDeviceConfig returns the configuration of a single board with
// default parameters.
//
func DefaultDeviceConfig() DeviceConfig {
	c := DeviceConfig{
		MaxBufSize: DefaultBufSize,
		Channels:   arraysim.NumTransducers,
		Count:      1,
		Transducer: transducer.DefaultParams,
	}
	c.Silencer.DutyStep = fpga.DefaultDutyStep
	c.Silencer.PhaseStep = fpga.DefaultPhaseStep
	return c
}

func (c *DeviceConfig) newDevices() ([]*arraysim.Device, error) {
	if c.Count < 1 {
		return nil, errors.Errorf("invalid device count %d", c.Count)
	}
	devs := make([]*arraysim.Device, c.Count)
	for i := range devs {
		d, err := arraysim.New(c.MaxBufSize,
			arraysim.WithChannels(c.Channels),
			arraysim.WithTransducer(c.Transducer),
			arraysim.WithSilencer(c.Silencer.DutyStep, c.Silencer.PhaseStep))
		if err != nil {
			return nil, errors.Wrapf(err, "device %d", i)
		}
		devs[i] = d
	}
	return devs, nil
}

// Mod is a modulation waveform.
//
type Mod struct {
	Samples []uint8 `yaml:"samples"`
	Div     int     `yaml:"div"`
}

// Probe selects output samples to record.
//
type Probe struct {
	Name     string `yaml:"name"`
	Device   int    `yaml:"device"`
	Channels []int  `yaml:"channels"`
	Window   int    `yaml:"window"` // number of most recent samples, defaults to one cycle
}

// Step is one step of a YAML scenario. Fields are applied in declaration
// order; unset fields are left alone.
//
type Step struct {
	// Device selects the board the commands apply to. Nil or negative
	// means all boards.
	Device  *int   `yaml:"device"`
	Clear   bool   `yaml:"clear"`
	Duties  string `yaml:"duties"`
	Phases  string `yaml:"phases"`
	Offsets string `yaml:"offsets"`
	Delays  string `yaml:"delays"`
	Mod     *Mod   `yaml:"mod"`
	Silent  *bool  `yaml:"silent"`
	Run     int    `yaml:"run"`
	Probe   *Probe `yaml:"probe"`
}

// Scenario is a loaded scenario, ready to run.
//
type Scenario struct {
	Name   string       `yaml:"name"`
	Device DeviceConfig `yaml:"device"`
	Steps  []Step       `yaml:"steps"`

	kind   Kind
	script string
}

// Kind returns the format of the scenario.
//
func (s *Scenario) Kind() Kind { return s.kind }

// Parse parses a scenario of the given kind.
//
// Lua scripts are only compiled when the scenario is run.
//
func Parse(data []byte, kind Kind) (*Scenario, error) {
	s := &Scenario{Device: DefaultDeviceConfig(), kind: kind}
	switch kind {
	case YAML:
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, errors.Wrap(err, "parse scenario")
		}
		for i, st := range s.Steps {
			if st.Run < 0 {
				return nil, errors.Errorf("step %d: negative run count %d", i, st.Run)
			}
		}
	case Lua:
		s.script = string(data)
	default:
		return nil, errors.Errorf("unknown scenario kind %d", kind)
	}
	return s, nil
}

// KindOf returns the scenario kind for a file name based on its extension.
//
func KindOf(filename string) (Kind, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".yaml", ".yml":
		return YAML, nil
	case ".lua":
		return Lua, nil
	default:
		return 0, errors.Errorf("unsupported scenario file extension %q", ext)
	}
}

// Load loads a scenario file. The kind is selected by the file extension:
// .yaml or .yml for YAML, .lua for Lua. The scenario name defaults to the
// base name of the file.
//
func Load(filename string) (*Scenario, error) {
	kind, err := KindOf(filename)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "load scenario")
	}
	s, err := Parse(data, kind)
	if err != nil {
		return nil, errors.Wrap(err, filename)
	}
	if s.Name == "" {
		base := filepath.Base(filename)
		s.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return s, nil
}
