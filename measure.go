// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.16
//

// Pseudorange measurement model and satellite geometry.

package gpsekf

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var ErrZeroRange = errors.New("receiver coincides with satellite")

// PredictRange computes the predicted pseudoranges hx for the predicted state fx
// and the satellite positions sv, with the observation Jacobian H.
//
// hx[i] = |p - s_i| + clock bias
// H[i]  = unit line of sight (p - s_i)/|p - s_i| in the position slots, 1 for the clock bias
//
// A zero geometric range has no line of sight and is reported as ErrZeroRange.
func PredictRange(fx [NSTA]float64, sv [NOBS][3]float64) (hx [NOBS]float64, H [NOBS][NSTA]float64, err error) {

	upos := PosXYZ{X: fx[IPX], Y: fx[IPY], Z: fx[IPZ]}

	for i := range NOBS {
		spos := PosXYZ{X: sv[i][0], Y: sv[i][1], Z: sv[i][2]}
		u, r := LineOfSight(&spos, &upos)
		if r == 0 {
			return hx, H, fmt.Errorf("%w: satellite %d", ErrZeroRange, i)
		}
		if !isFinite(r) {
			return hx, H, fmt.Errorf("%w: range to satellite %d", ErrNonFinite, i)
		}
		hx[i] = r + fx[ICB]
		H[i][IPX] = u.X
		H[i][IPY] = u.Y
		H[i][IPZ] = u.Z
		H[i][ICB] = 1
	}

	return hx, H, nil
}

// Dop holds dilution of precision values of one epoch
type Dop struct {
	G float64 // Geometric
	P float64 // Position
	H float64 // Horizontal
	V float64 // Vertical
}

// CalcDop calculates DOP values from the observation Jacobian H at receiver position upos.
// The line of sight is rotated to ENU at upos so that HDOP and VDOP are meaningful.
func CalcDop(H *[NOBS][NSTA]float64, upos PosXYZ) (Dop, error) {

	// Design matrix in the ENU system
	llh := upos.ToLLH()
	G := mat.NewDense(NOBS, 4, nil)
	for i := range NOBS {
		los := rotENU(H[i][IPX], H[i][IPY], H[i][IPZ], llh)
		G.Set(i, 0, los.E)
		G.Set(i, 1, los.N)
		G.Set(i, 2, los.U)
		G.Set(i, 3, H[i][ICB])
	}

	var GtG mat.Dense
	GtG.Mul(G.T(), G)
	var cov mat.Dense
	if err := cov.Inverse(&GtG); err != nil {
		return Dop{}, fmt.Errorf("%w: G^T G, %v", ErrSingular, err)
	}
	return Dop{
		G: math.Sqrt(cov.At(0, 0) + cov.At(1, 1) + cov.At(2, 2) + cov.At(3, 3)),
		P: math.Sqrt(cov.At(0, 0) + cov.At(1, 1) + cov.At(2, 2)),
		H: math.Sqrt(cov.At(0, 0) + cov.At(1, 1)),
		V: math.Sqrt(cov.At(2, 2)),
	}, nil
}
