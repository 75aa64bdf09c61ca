// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.15
//

package gpsekf

// PredictState advances the state by one interval T with a constant velocity model
// and returns the predicted state fx and its Jacobian F.
// Each position/velocity pair (X, Y, Z and clock bias/drift) is propagated independently.
func PredictState(x [NSTA]float64, T float64) (fx [NSTA]float64, F [NSTA][NSTA]float64) {
	for j := 0; j < NSTA; j += 2 {
		fx[j] = x[j] + T*x[j+1]
		fx[j+1] = x[j+1]
	}

	for j := range NSTA {
		F[j][j] = 1
	}
	for j := range NSTA / 2 {
		F[2*j][2*j+1] = T
	}
	return
}
