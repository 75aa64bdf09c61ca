// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package gpsekf

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Synthetic epoch: four satellites and pseudoranges to a receiver offset from the
// default prior by (12.5, -7.25, 4.0) m, with clock bias prior + drift + 3 m.
var (
	testSvPos = [NOBS][3]float64{
		{-1.0e7, 1.5e7, 1.9e7},
		{1.2e7, 1.6e7, 1.6e7},
		{-2.2e7, 4.0e6, 1.3e7},
		{-1.5e7, 2.1e7, 3.0e6},
	}
	testSvRho = [NOBS]float64{
		23491684.95225966,
		25433467.809413202,
		25324857.06030398,
		24594433.605481964,
	}
)

// Truth of the synthetic epoch
func testTruth() (PosXYZ, float64) {
	opt := NewEkfOpt()
	return PosXYZ{X: opt.Pos[0] + 12.5, Y: opt.Pos[1] - 7.25, Z: opt.Pos[2] + 4.0}, opt.ClkBias + opt.ClkDrift + 3.0
}

func testEpoch() Epoch {
	return Epoch{SvPos: testSvPos, SvRho: testSvRho}
}

func testState(t *testing.T) *NavState {
	t.Helper()
	st, err := NewNavState(NewEkfOpt())
	require.NoError(t, err)
	return st
}

func testFrameBytes(t *testing.T) []byte {
	t.Helper()
	f := Frame{State: *testState(t), Epoch: testEpoch()}
	b, err := f.MarshalBinary()
	require.NoError(t, err)
	return b
}

// CSV text of the given epochs with a header line
func testCsv(epochs ...Epoch) string {
	var sb strings.Builder
	sb.WriteString("SV1_X,SV1_Y,SV1_Z,SV2_X,SV2_Y,SV2_Z,SV3_X,SV3_Y,SV3_Z,SV4_X,SV4_Y,SV4_Z,Rho1,Rho2,Rho3,Rho4\n")
	for _, ep := range epochs {
		f := []string{}
		for i := range NOBS {
			for j := range 3 {
				f = append(f, strconv.FormatFloat(ep.SvPos[i][j], 'g', -1, 64))
			}
		}
		for i := range NOBS {
			f = append(f, strconv.FormatFloat(ep.SvRho[i], 'g', -1, 64))
		}
		sb.WriteString(strings.Join(f, ",") + "\n")
	}
	return sb.String()
}

func isSymmetric(P *[NSTA][NSTA]float64, tol float64) bool {
	for i := range NSTA {
		for j := range NSTA {
			d := P[i][j] - P[j][i]
			if d > tol || d < -tol {
				return false
			}
		}
	}
	return true
}
