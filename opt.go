// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.14
//

package gpsekf

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

var ErrConfig = errors.New("invalid filter configuration")

// EkfOpt contains the tuning constants and initial priors of the filter
// Process noise follows Brown & Hwang: one 2x2 block per position/velocity pair,
// one for clock bias/drift.
type EkfOpt struct {
	T        float64   `yaml:"interval"` // Positioning interval [s]
	Sigma    float64   `yaml:"sigma"`    // Process noise of each axis (state transition std)
	Sf       float64   `yaml:"sf"`       // Clock bias (white frequency) noise
	Sg       float64   `yaml:"sg"`       // Clock drift (random walk frequency) noise
	P0       float64   `yaml:"p0"`       // Initial diagonal of the state covariance
	R0       float64   `yaml:"r0"`       // Diagonal of the pseudorange noise covariance [m^2]
	Pos      []float64 `yaml:"pos"`      // Initial receiver position (ECEF X, Y, Z) [m]
	Vel      []float64 `yaml:"vel"`      // Initial receiver velocity [m/s]
	ClkBias  float64   `yaml:"clkBias"`  // Initial receiver clock bias [m]
	ClkDrift float64   `yaml:"clkDrift"` // Initial receiver clock drift [m/s]
}

// NewEkfOpt creates a new EkfOpt with default values
func NewEkfOpt() *EkfOpt {
	return &EkfOpt{
		T:     1,    // 1 second epochs
		Sigma: 5,    // [m]
		Sf:    36,   // Clock bias noise
		Sg:    0.01, // Clock drift noise
		P0:    10,   // Initial covariance
		R0:    36,   // 6m pseudorange std

		// Near the first fix of the sample data
		Pos:      []float64{-2.168816181271560e+006, 4.386648549091666e+006, 4.077161596428751e+006},
		Vel:      []float64{0, 0, 0},
		ClkBias:  3.575261153706439e+006,
		ClkDrift: 4.549246345845814e+001,
	}
}

// LoadEkfOpt reads YAML overrides on top of the defaults.
// Keys that are not present keep their default values.
func LoadEkfOpt(r io.Reader) (*EkfOpt, error) {
	opt := NewEkfOpt()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(opt); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	return opt, nil
}

// Validate checks the values that would make the filter meaningless
func (opt *EkfOpt) Validate() error {
	if !(opt.T > 0) {
		return fmt.Errorf("%w: interval must be positive, got %v", ErrConfig, opt.T)
	}
	if opt.Sigma < 0 || opt.Sf < 0 || opt.Sg < 0 {
		return fmt.Errorf("%w: process noise must not be negative", ErrConfig)
	}
	if !(opt.P0 > 0) || !(opt.R0 > 0) {
		return fmt.Errorf("%w: p0 and r0 must be positive", ErrConfig)
	}
	if len(opt.Pos) != 3 {
		return fmt.Errorf("%w: pos needs 3 elements, got %d", ErrConfig, len(opt.Pos))
	}
	if len(opt.Vel) != 3 {
		return fmt.Errorf("%w: vel needs 3 elements, got %d", ErrConfig, len(opt.Vel))
	}
	if !isFinite(opt.T, opt.Sigma, opt.Sf, opt.Sg, opt.P0, opt.R0, opt.ClkBias, opt.ClkDrift) ||
		!isFinite(opt.Pos...) || !isFinite(opt.Vel...) {
		return fmt.Errorf("%w: values must be finite", ErrConfig)
	}
	return nil
}
