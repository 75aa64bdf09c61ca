// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.12
//

package gpsekf

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/exp/slices"
)

// ------------------------------------
// Mini functions
// ------------------------------------

func SQ(x float64) float64 {
	return x * x
}

func EucDist(a, b *PosXYZ) float64 {
	return math.Sqrt(SQ(a.X-b.X) + SQ(a.Y-b.Y) + SQ(a.Z-b.Z))
}

// LineOfSight returns the unit vector from a to b and the distance.
// The vector is not defined (NaN) when r is zero.
func LineOfSight(a, b *PosXYZ) (u PosXYZ, r float64) {
	r = EucDist(a, b)
	return PosXYZ{X: (b.X - a.X) / r, Y: (b.Y - a.Y) / r, Z: (b.Z - a.Z) / r}, r
}

func ToDeg(rad float64) float64 {
	return rad / PI * 180.0
}

func ToRad(deg float64) float64 {
	return deg / 180.0 * PI
}

func isFinite(v ...float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// ------------------------------------
// For command argument parsing
// ------------------------------------

// Sub-command of the gpsekf command
type Mode int

const (
	STEP Mode = iota // Run one filter step on a frame read from stdin
	INIT             // Write an initial frame
	CSV              // Run the filter over a CSV file of epochs
)

var modeNames = []string{"step", "init", "csv"}

func (p *Mode) Set(s string) error {
	i := slices.Index(modeNames, strings.ToLower(s))
	if i < 0 {
		return fmt.Errorf("unknown mode %q, want one of %s", s, strings.Join(modeNames, ", "))
	}
	*p = Mode(i)
	return nil
}

func (p *Mode) String() string {
	if int(*p) < 0 || int(*p) >= len(modeNames) {
		return "UNKNOWN!"
	}
	return modeNames[*p]
}
