// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fpga

// Default silent filter step sizes, in duty/phase units per cycle.
//
const (
	DefaultDutyStep  = 10
	DefaultPhaseStep = 10
)

// A SilentFilter smooths the duty and phase commands of a channel so that
// large steps are spread over several cycles, which suppresses the audible
// clicks caused by abrupt changes of the ultrasound envelope.
//
// Each call to Update moves the output toward the requested values by at most
// DutyStep (duty) and PhaseStep (phase). Phase is circular: it moves along the
// shortest way round, wrapping between 255 and 0. The output never overshoots.
//
// The zero value is a filter with step sizes of 0 which never moves; use
// NewSilentFilter.
//
type SilentFilter struct {
	DutyStep  uint8
	PhaseStep uint8

	duty  uint8
	phase uint8
}

// NewSilentFilter returns a filter with the given step sizes. Step sizes of 0
// are replaced by DefaultDutyStep and DefaultPhaseStep.
//
func NewSilentFilter(dutyStep, phaseStep uint8) *SilentFilter {
	if dutyStep == 0 {
		dutyStep = DefaultDutyStep
	}
	if phaseStep == 0 {
		phaseStep = DefaultPhaseStep
	}
	return &SilentFilter{DutyStep: dutyStep, PhaseStep: phaseStep}
}

// Update feeds the requested duty and phase for the next cycle and returns
// the filtered values.
//
func (f *SilentFilter) Update(duty, phase uint8) (uint8, uint8) {
	f.duty = approach(f.duty, duty, f.DutyStep)

	// signed shortest distance on the phase circle, in [-128, 127].
	d := int8(phase - f.phase)
	switch {
	case d > 0 && int(d) > int(f.PhaseStep):
		f.phase += f.PhaseStep
	case d < 0 && -int(d) > int(f.PhaseStep):
		f.phase -= f.PhaseStep
	default:
		f.phase = phase
	}
	return f.duty, f.phase
}

// Output returns the last filtered duty and phase.
//
func (f *SilentFilter) Output() (duty, phase uint8) { return f.duty, f.phase }

// Reset sets the filter output back to duty 0, phase 0.
//
func (f *SilentFilter) Reset() {
	f.duty, f.phase = 0, 0
}

func approach(cur, target, step uint8) uint8 {
	switch {
	case target > cur && target-cur > step:
		return cur + step
	case target < cur && cur-target > step:
		return cur - step
	}
	return target
}
