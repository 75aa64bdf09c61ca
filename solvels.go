// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package gpsekf

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var ErrNotConverged = errors.New("least squares did not converge")

// Calculation constants for the least squares fix
const (
	MAX_LOOP_COUNT        = 10    // Maximum number of iteration loops
	CONVERGENCE_THRESHOLD = 0.001 // Convergence threshold [m]
)

// Solve the observation equation using weighted least squares
// - dx = (G^t W G)^-1 G^t W dr
// - Return the error covariance matrix (G^t W G)^-1 as cov
func SolveLS(G mat.Matrix, dr mat.Vector, W mat.Matrix) (dx mat.Vector, cov mat.Matrix, err error) {

	n1, m1 := G.Dims()
	n2, m2 := W.Dims()
	if n1 != n2 {
		return nil, nil, fmt.Errorf("%w: G^T(%d x %d), W(%d x %d)", ErrDimension, m1, n1, n2, m2)
	}
	l1 := dr.Len()
	if l1 != m2 {
		return nil, nil, fmt.Errorf("%w: W(%d x %d), dr(%d x 1)", ErrDimension, n2, m2, l1)
	}

	// A (G^t W G)
	var WG mat.Dense
	WG.Mul(W, G)
	var A mat.Dense
	A.Mul(G.T(), &WG)

	// b (G^t W dr)
	var GtW mat.Dense
	GtW.Mul(G.T(), W)
	var b mat.VecDense
	b.MulVec(&GtW, dr)

	// Solve for x (x = A^-1 b)
	var x mat.VecDense
	if err = x.SolveVec(&A, &b); err != nil {
		return nil, nil, fmt.Errorf("%w: G^T W G, %v", ErrSingular, err)
	}
	dx = &x

	// Set (G^T W G)^-1 as the covariance matrix
	var c mat.Dense
	if err = c.Inverse(&A); err != nil {
		return nil, nil, fmt.Errorf("%w: G^T W G, %v", ErrSingular, err)
	}
	cov = &c

	return
}

// SeedFix computes a single epoch position and clock bias from the pseudoranges
// by iterating least squares from the centre of the earth.
// It gives the filter a prior when no hard-coded one fits the data.
func SeedFix(sv [NOBS][3]float64, rho [NOBS]float64) (upos PosXYZ, clk float64, err error) {

	// Equal weights
	w := make([]float64, NOBS)
	for i := range w {
		w[i] = 1
	}
	W := mat.NewDiagDense(NOBS, w)

	for loop := range MAX_LOOP_COUNT {

		G := mat.NewDense(NOBS, 4, nil)
		dr := mat.NewVecDense(NOBS, nil)

		for i := range NOBS {
			spos := PosXYZ{X: sv[i][0], Y: sv[i][1], Z: sv[i][2]}
			u, ri := LineOfSight(&spos, &upos)
			if ri == 0 {
				return upos, clk, fmt.Errorf("%w: satellite %d", ErrZeroRange, i)
			}
			G.Set(i, 0, u.X)
			G.Set(i, 1, u.Y)
			G.Set(i, 2, u.Z)
			G.Set(i, 3, 1)
			dr.SetVec(i, rho[i]-(ri+clk))
		}

		dx, _, err := SolveLS(G, dr, W)
		if err != nil {
			return upos, clk, fmt.Errorf("SolveLS() failed: %w", err)
		}

		upos.X += dx.AtVec(0)
		upos.Y += dx.AtVec(1)
		upos.Z += dx.AtVec(2)
		clk += dx.AtVec(3)

		Log.Debugf("seed loop %d: XYZ= %.3f %.3f %.3f, clk=%.3f", loop+1, upos.X, upos.Y, upos.Z, clk)

		if !isFinite(upos.X, upos.Y, upos.Z, clk) {
			return upos, clk, fmt.Errorf("%w: seed position", ErrNonFinite)
		}

		// Check convergence (position update < 1mm)
		if math.Abs(dx.AtVec(0)) < CONVERGENCE_THRESHOLD &&
			math.Abs(dx.AtVec(1)) < CONVERGENCE_THRESHOLD &&
			math.Abs(dx.AtVec(2)) < CONVERGENCE_THRESHOLD {
			return upos, clk, nil
		}
	}

	return upos, clk, fmt.Errorf("%w: %d loops", ErrNotConverged, MAX_LOOP_COUNT)
}
