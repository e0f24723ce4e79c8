// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package transducer models the electrical response of a piezoelectric
// ultrasound transducer driven by a half-bridge.
//
// The transducer is represented by its Butterworth-Van Dyke equivalent: a
// series RLC branch (L, Cs, R) in parallel with the clamped capacitance Cp,
// fed through the driver's output resistance Rd. The state (charge Q on Cs,
// current Is through the series branch, current Ip through Cp) is integrated
// with a fixed step classical Runge-Kutta scheme:
//
//	dQ/dt  = Is
//	dIs/dt = (-Q/Cs - (R+Rd)·Is - Rd·Ip + v) / L
//	dIp/dt = (Q/Cs + (R+Rd)·Is + (Rd - L/(Rd·Cp))·Ip + L·dv/dt/Rd - v) / L
//
// The series current Is is proportional to the vibration velocity of the
// element, hence to its acoustic output.
//
package transducer

import (
	"math"

	"github.com/pkg/errors"
)

// Params holds the equivalent circuit values of a transducer.
//
type Params struct {
	L  float64 `yaml:"l"`  // motional inductance (H)
	Cs float64 `yaml:"cs"` // motional capacitance (F)
	R  float64 `yaml:"r"`  // motional resistance (Ω)
	Rd float64 `yaml:"rd"` // driver output resistance (Ω)
	Cp float64 `yaml:"cp"` // clamped capacitance (F)
}

// DefaultParams is a 40 kHz transducer.
//
var DefaultParams = Params{
	L:  79.157e-3,
	Cs: 200e-12,
	R:  500,
	Rd: 20,
	Cp: 2.2e-9,
}

// maxStiffness bounds h/(Rd·Cp). The Cp branch is by far the fastest mode of
// the system and classical RK4 diverges past h·|λ| ≈ 2.78.
const maxStiffness = 2.5

// Validate checks that all values are strictly positive and finite and that
// the fast Cp mode can be integrated with a step of h seconds.
//
func (p Params) Validate(h float64) error {
	for _, v := range []struct {
		name string
		v    float64
	}{
		{"l", p.L}, {"cs", p.Cs}, {"r", p.R}, {"rd", p.Rd}, {"cp", p.Cp}, {"time step", h},
	} {
		if !(v.v > 0) || math.IsInf(v.v, 0) {
			return errors.Errorf("invalid %s value %g: must be positive and finite", v.name, v.v)
		}
	}
	if s := h / (p.Rd * p.Cp); s >= maxStiffness {
		return errors.Errorf("time step %g too large for rd·cp = %g (ratio %.2f, max %.2f)", h, p.Rd*p.Cp, s, maxStiffness)
	}
	return nil
}

// ResonantFrequency returns the series resonance frequency in Hz.
//
func (p Params) ResonantFrequency() float64 {
	return 1 / (2 * math.Pi * math.Sqrt(p.L*p.Cs))
}

// State is the electrical state of a transducer.
//
type State struct {
	Q  float64 // charge on Cs
	Is float64 // series branch current
	Ip float64 // clamped capacitance current
}

func (s State) add(d State, k float64) State {
	return State{s.Q + d.Q*k, s.Is + d.Is*k, s.Ip + d.Ip*k}
}

// A Transducer integrates the response of one element. It is not safe for
// concurrent use.
//
type Transducer struct {
	p Params
	h float64
	s State
	v [4]float64 // applied voltage history, v[0] is the newest sample

	// constant terms of the derivatives.
	invL, invCs, rs, kp, kdv float64
}

// New returns a Transducer at rest, integrated with a step of h seconds.
//
func New(p Params, h float64) (*Transducer, error) {
	if err := p.Validate(h); err != nil {
		return nil, errors.Wrap(err, "invalid transducer parameters")
	}
	return &Transducer{
		p:     p,
		h:     h,
		invL:  1 / p.L,
		invCs: 1 / p.Cs,
		rs:    p.R + p.Rd,
		kp:    p.Rd - p.L/(p.Rd*p.Cp),
		kdv:   p.L / (h * p.Rd),
	}, nil
}

// deriv evaluates the state derivative for an applied voltage v and a
// voltage difference dv over one step.
//
func (t *Transducer) deriv(s State, v, dv float64) State {
	q := s.Q * t.invCs
	return State{
		Q:  s.Is,
		Is: (-q - t.rs*s.Is - t.p.Rd*s.Ip + v) * t.invL,
		Ip: (q + t.rs*s.Is + t.kp*s.Ip + t.kdv*dv - v) * t.invL,
	}
}

// Update applies voltage v for the next step and returns the resulting
// series current.
//
func (t *Transducer) Update(v float64) float64 {
	copy(t.v[1:], t.v[:3])
	t.v[0] = v

	h := t.h
	// k1 at the start of the step sees the previous sample and the change
	// that led to it. Midpoint stages see the mean input and the change over
	// this step, the last stage the new sample.
	vm := (t.v[0] + t.v[1]) / 2
	dv := t.v[0] - t.v[1]
	k1 := t.deriv(t.s, t.v[1], t.v[1]-t.v[2])
	k2 := t.deriv(t.s.add(k1, h/2), vm, dv)
	k3 := t.deriv(t.s.add(k2, h/2), vm, dv)
	k4 := t.deriv(t.s.add(k3, h), t.v[0], dv)

	t.s = State{
		Q:  t.s.Q + h/6*(k1.Q+2*k2.Q+2*k3.Q+k4.Q),
		Is: t.s.Is + h/6*(k1.Is+2*k2.Is+2*k3.Is+k4.Is),
		Ip: t.s.Ip + h/6*(k1.Ip+2*k2.Ip+2*k3.Ip+k4.Ip),
	}
	return t.s.Is
}

// State returns the current electrical state.
//
func (t *Transducer) State() State { return t.s }

// Voltages returns the last four applied voltages, newest first.
//
func (t *Transducer) Voltages() [4]float64 { return t.v }

// Params returns the equivalent circuit values.
//
func (t *Transducer) Params() Params { return t.p }

// Reset puts the transducer back at rest.
//
func (t *Transducer) Reset() {
	t.s = State{}
	t.v = [4]float64{}
}
