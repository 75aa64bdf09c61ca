// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.16
//

// Implements the generic extended Kalman filter recursion.

package gpsekf

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrSingular  = errors.New("singular matrix")
	ErrNonFinite = errors.New("non-finite value")
	ErrDimension = errors.New("dimension mismatch")
)

// Ekf is one predict/update cycle of an extended Kalman filter.
// The models are evaluated outside; Ekf only receives their values and Jacobians.
type Ekf struct {
	X *mat.VecDense // State
	P *mat.Dense    // Estimation error covariance
	Q mat.Matrix    // Process noise covariance
	R mat.Matrix    // Measurement noise covariance

	Inn *mat.VecDense // Innovation of the last update
	K   *mat.Dense    // Kalman gain of the last update
}

// NewEkf creates a filter working on x and P in place
func NewEkf(x *mat.VecDense, P *mat.Dense, Q, R mat.Matrix) (*Ekf, error) {
	n := x.Len()
	if r, c := P.Dims(); r != n || c != n {
		return nil, fmt.Errorf("%w: x(%d), P(%d x %d)", ErrDimension, n, r, c)
	}
	if r, c := Q.Dims(); r != n || c != n {
		return nil, fmt.Errorf("%w: x(%d), Q(%d x %d)", ErrDimension, n, r, c)
	}
	if r, c := R.Dims(); r != c {
		return nil, fmt.Errorf("%w: R(%d x %d) is not square", ErrDimension, r, c)
	}
	return &Ekf{X: x, P: P, Q: Q, R: R}, nil
}

// Predict performs the time update
// - x = f(x)
// - P = F P F^T + Q
func (k *Ekf) Predict(fx mat.Vector, F mat.Matrix) error {
	n := k.X.Len()
	if fx.Len() != n {
		return fmt.Errorf("%w: x(%d), f(x)(%d)", ErrDimension, n, fx.Len())
	}
	if r, c := F.Dims(); r != n || c != n {
		return fmt.Errorf("%w: x(%d), F(%d x %d)", ErrDimension, n, r, c)
	}

	k.X.CopyVec(fx)

	var FP, FPFt mat.Dense
	FP.Mul(F, k.P)
	FPFt.Mul(&FP, F.T())
	k.P.Add(&FPFt, k.Q)

	LogMat("P (predicted)", k.P)
	return nil
}

// Update performs the measurement update with measurement z
// - S = H P H^T + R
// - K = P H^T S^-1
// - x = x + K (z - h(x))
// - P = P - K H P, symmetrized
//
// A singular S is returned as ErrSingular and x, P are left unchanged.
func (k *Ekf) Update(z, hx mat.Vector, H mat.Matrix) error {
	n := k.X.Len()
	m := z.Len()
	if hx.Len() != m {
		return fmt.Errorf("%w: z(%d), h(x)(%d)", ErrDimension, m, hx.Len())
	}
	if r, c := H.Dims(); r != m || c != n {
		return fmt.Errorf("%w: H(%d x %d), want (%d x %d)", ErrDimension, r, c, m, n)
	}
	if r, _ := k.R.Dims(); r != m {
		return fmt.Errorf("%w: z(%d), R(%d x %d)", ErrDimension, m, r, r)
	}

	// Innovation
	inn := mat.NewVecDense(m, nil)
	inn.SubVec(z, hx)

	// Innovation covariance
	var PHt, S mat.Dense
	PHt.Mul(k.P, H.T())
	S.Mul(H, &PHt)
	S.Add(&S, k.R)
	LogMat("S", &S)

	var Sinv mat.Dense
	if err := Sinv.Inverse(&S); err != nil {
		return fmt.Errorf("%w: innovation covariance, %v", ErrSingular, err)
	}

	// Kalman gain
	K := mat.NewDense(n, m, nil)
	K.Mul(&PHt, &Sinv)
	LogMat("K", K)

	// Corrected state
	var dx mat.VecDense
	dx.MulVec(K, inn)
	x2 := mat.NewVecDense(n, nil)
	x2.AddVec(k.X, &dx)

	// Corrected covariance
	var HP, KHP mat.Dense
	HP.Mul(H, k.P)
	KHP.Mul(K, &HP)
	P2 := mat.NewDense(n, n, nil)
	P2.Sub(k.P, &KHP)

	// Keep P symmetric against rounding
	for i := range n {
		for j := i + 1; j < n; j++ {
			v := 0.5 * (P2.At(i, j) + P2.At(j, i))
			P2.Set(i, j, v)
			P2.Set(j, i, v)
		}
	}

	if !isFiniteVec(x2) || !isFiniteMat(P2) {
		return fmt.Errorf("%w: state after update", ErrNonFinite)
	}

	k.X.CopyVec(x2)
	k.P.Copy(P2)
	k.Inn = inn
	k.K = K
	return nil
}

func isFiniteVec(v mat.Vector) bool {
	for i := range v.Len() {
		if x := v.AtVec(i); math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func isFiniteMat(a mat.Matrix) bool {
	r, c := a.Dims()
	for i := range r {
		for j := range c {
			if x := a.At(i, j); math.IsNaN(x) || math.IsInf(x, 0) {
				return false
			}
		}
	}
	return true
}
