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
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSolveLS(t *testing.T) {
	// Straight line fit y = 2 + 3x
	G := mat.NewDense(4, 2, []float64{1, 0, 1, 1, 1, 2, 1, 3})
	dr := mat.NewVecDense(4, []float64{2, 5, 8, 11})
	W := mat.NewDiagDense(4, []float64{1, 1, 1, 1})

	dx, cov, err := SolveLS(G, dr, W)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, dx.AtVec(0), 1e-12)
	assert.InDelta(t, 3.0, dx.AtVec(1), 1e-12)

	// (G^T G)^-1 = [[0.7, -0.3], [-0.3, 0.2]]
	assert.InDelta(t, 0.7, cov.At(0, 0), 1e-12)
	assert.InDelta(t, -0.3, cov.At(0, 1), 1e-12)
	assert.InDelta(t, 0.2, cov.At(1, 1), 1e-12)
}

func TestSolveLSErrors(t *testing.T) {
	G := mat.NewDense(3, 2, []float64{1, 1, 1, 1, 1, 1})
	W := mat.NewDiagDense(3, []float64{1, 1, 1})

	_, _, err := SolveLS(G, mat.NewVecDense(3, nil), W)
	assert.ErrorIs(t, err, ErrSingular)

	_, _, err = SolveLS(G, mat.NewVecDense(2, nil), W)
	assert.ErrorIs(t, err, ErrDimension)

	_, _, err = SolveLS(G, mat.NewVecDense(3, nil), mat.NewDiagDense(2, []float64{1, 1}))
	assert.ErrorIs(t, err, ErrDimension)
}

func TestSeedFix(t *testing.T) {
	truth, bias := testTruth()

	upos, clk, err := SeedFix(testSvPos, testSvRho)
	require.NoError(t, err)
	assert.InDelta(t, truth.X, upos.X, 1e-3)
	assert.InDelta(t, truth.Y, upos.Y, 1e-3)
	assert.InDelta(t, truth.Z, upos.Z, 1e-3)
	assert.InDelta(t, bias, clk, 1e-3)
}

func TestSeedFixZeroRange(t *testing.T) {
	// A satellite at the earth center, where the iteration starts
	sv := testSvPos
	sv[1] = [3]float64{}
	_, _, err := SeedFix(sv, testSvRho)
	assert.ErrorIs(t, err, ErrZeroRange)
}
