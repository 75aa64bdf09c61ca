// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package gpsekf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

func TestPredictState(t *testing.T) {
	tests := []struct {
		name   string
		x      [NSTA]float64
		T      float64
		wantFx [NSTA]float64
	}{
		{
			name:   "unit interval",
			x:      [NSTA]float64{0, 1, 0, 2, 0, 3, 0, 0},
			T:      1,
			wantFx: [NSTA]float64{1, 1, 2, 2, 3, 3, 0, 0},
		},
		{
			name:   "clock drift",
			x:      [NSTA]float64{10, -1, 20, 0.5, 30, 0, 100, 4},
			T:      2,
			wantFx: [NSTA]float64{8, -1, 21, 0.5, 30, 0, 108, 4},
		},
		{
			name:   "zero interval",
			x:      [NSTA]float64{1, 2, 3, 4, 5, 6, 7, 8},
			T:      0,
			wantFx: [NSTA]float64{1, 2, 3, 4, 5, 6, 7, 8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx, F := PredictState(tt.x, tt.T)
			assert.Equal(t, tt.wantFx, fx)

			for i := range NSTA {
				for j := range NSTA {
					want := 0.0
					switch {
					case i == j:
						want = 1
					case i%2 == 0 && j == i+1:
						want = tt.T
					}
					assert.Equal(t, want, F[i][j], "F[%d][%d]", i, j)
				}
			}
		})
	}
}

// F must be the exact Jacobian of the transition
func TestPredictStateJacobian(t *testing.T) {
	x0 := []float64{-2.1e6, 3.5, 4.3e6, -1.2, 4.0e6, 0.8, 3.5e6, 45}
	T := 1.5

	f := func(y, x []float64) {
		var xa [NSTA]float64
		copy(xa[:], x)
		fx, _ := PredictState(xa, T)
		copy(y, fx[:])
	}
	J := mat.NewDense(NSTA, NSTA, nil)
	fd.Jacobian(J, f, x0, &fd.JacobianSettings{Formula: fd.Central, Step: 1})

	var xa [NSTA]float64
	copy(xa[:], x0)
	_, F := PredictState(xa, T)
	assert.True(t, mat.EqualApprox(J, denseOf8(&F), 1e-6))
}
