// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.15
//

// Filter state that is carried between invocations.

package gpsekf

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// NavState is the whole memory of the filter.
// Only X and P are changed by a filter step; T, Q and R stay as initialized.
type NavState struct {
	T float64             // Positioning interval [s]
	X [NSTA]float64       // State: posX, velX, posY, velY, posZ, velZ, clock bias, clock drift
	P [NSTA][NSTA]float64 // Estimation error covariance
	Q [NSTA][NSTA]float64 // Process noise covariance
	R [NOBS][NOBS]float64 // Measurement noise covariance
}

// Epoch holds the per-epoch input and output of a filter step
type Epoch struct {
	SvPos [NOBS][3]float64 // Satellite positions (ECEF) [m]
	SvRho [NOBS]float64    // Pseudoranges [m]
	Pos   [3]float64       // Filtered receiver position (output) [m]
}

// Frame is everything exchanged with one invocation, in wire order
type Frame struct {
	State NavState
	Epoch Epoch
}

// NewNavState creates the initial filter state from the priors in opt
func NewNavState(opt *EkfOpt) (*NavState, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	st := &NavState{T: opt.T}
	T := opt.T

	// Process noise, see R G Brown, P Y C Hwang, "Introduction to random signals and applied Kalman filtering"
	s2 := SQ(opt.Sigma)
	qxyz := [4]float64{s2 * T * T * T / 3, s2 * T * T / 2, s2 * T * T / 2, s2 * T}
	qb := [4]float64{opt.Sf*T + opt.Sg*T*T*T/3, opt.Sg * T * T / 2, opt.Sg * T * T / 2, opt.Sg * T}
	st.blkfill(qxyz, 0)
	st.blkfill(qxyz, 1)
	st.blkfill(qxyz, 2)
	st.blkfill(qb, 3)

	for i := range NSTA {
		st.P[i][i] = opt.P0
	}
	for i := range NOBS {
		st.R[i][i] = opt.R0
	}

	st.X[IPX], st.X[IPY], st.X[IPZ] = opt.Pos[0], opt.Pos[1], opt.Pos[2]
	st.X[IVX], st.X[IVY], st.X[IVZ] = opt.Vel[0], opt.Vel[1], opt.Vel[2]
	st.X[ICB] = opt.ClkBias
	st.X[ICD] = opt.ClkDrift

	return st, nil
}

// Set a 2x2 block (row-major a) on the diagonal of Q
func (st *NavState) blkfill(a [4]float64, off int) {
	off *= 2
	st.Q[off][off] = a[0]
	st.Q[off][off+1] = a[1]
	st.Q[off+1][off] = a[2]
	st.Q[off+1][off+1] = a[3]
}

// Seed overwrites the position and clock bias priors, e.g. with a least squares fix
func (st *NavState) Seed(pos PosXYZ, clkBias float64) error {
	if !isFinite(pos.X, pos.Y, pos.Z, clkBias) {
		return fmt.Errorf("%w: seed position %v, clock bias %v", ErrNonFinite, pos, clkBias)
	}
	st.X[IPX], st.X[IPY], st.X[IPZ] = pos.X, pos.Y, pos.Z
	st.X[ICB] = clkBias
	return nil
}

// Position returns the receiver position part of the state
func (st *NavState) Position() PosXYZ {
	return PosXYZ{X: st.X[IPX], Y: st.X[IPY], Z: st.X[IPZ]}
}

// ------------------------------------
// Conversion to and from gonum
// ------------------------------------

func vecOf(v []float64) *mat.VecDense {
	d := make([]float64, len(v))
	copy(d, v)
	return mat.NewVecDense(len(d), d)
}

func denseOf8(a *[NSTA][NSTA]float64) *mat.Dense {
	d := mat.NewDense(NSTA, NSTA, nil)
	for i := range NSTA {
		for j := range NSTA {
			d.Set(i, j, a[i][j])
		}
	}
	return d
}

func denseOf4(a *[NOBS][NOBS]float64) *mat.Dense {
	d := mat.NewDense(NOBS, NOBS, nil)
	for i := range NOBS {
		for j := range NOBS {
			d.Set(i, j, a[i][j])
		}
	}
	return d
}

func denseOfH(a *[NOBS][NSTA]float64) *mat.Dense {
	d := mat.NewDense(NOBS, NSTA, nil)
	for i := range NOBS {
		for j := range NSTA {
			d.Set(i, j, a[i][j])
		}
	}
	return d
}
