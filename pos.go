// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.19
//

package gpsekf

import (
	"fmt"
	"math"
)

// Derived ellipsoid parameters
var (
	semiMinor = Re * (1 - Fe)       // Semi-minor axis [m]
	eccSq     = Fe * (2 - Fe)       // First eccentricity squared
	eccSq2    = eccSq / (1 - eccSq) // Second eccentricity squared
	polarLat  = ToRad(45.0)         // Above this latitude the height is taken from Z
)

// Radius of curvature in the prime vertical
func primeVertical(lat float64) float64 {
	s := math.Sin(lat)
	return Re / math.Sqrt(1-eccSq*s*s)
}

//-------------------------------------------------------------------
// PosLLH
//-------------------------------------------------------------------

// Geodetic position. Lat and Lon in radians, Hei in meters above the ellipsoid.
type PosLLH struct {
	Lat float64
	Lon float64
	Hei float64
}

func (llh *PosLLH) ToXYZ() PosXYZ {
	n := primeVertical(llh.Lat)
	cl := math.Cos(llh.Lat)
	return PosXYZ{
		X: (n + llh.Hei) * cl * math.Cos(llh.Lon),
		Y: (n + llh.Hei) * cl * math.Sin(llh.Lon),
		Z: (n*(1-eccSq) + llh.Hei) * math.Sin(llh.Lat),
	}
}

// Convert to string (degrees)
func (llh *PosLLH) String() string {
	return fmt.Sprintf("%.8f %.8f %.4f", ToDeg(llh.Lat), ToDeg(llh.Lon), llh.Hei)
}

//-------------------------------------------------------------------
// PosXYZ
//-------------------------------------------------------------------

// ECEF position [m]
type PosXYZ struct {
	X float64
	Y float64
	Z float64
}

func NewPosXYZ(x, y, z float64) *PosXYZ {
	return &PosXYZ{X: x, Y: y, Z: z}
}

// ToLLH converts with Bowring's closed form, good to well under a millimeter near the surface
func (pos *PosXYZ) ToLLH() PosLLH {
	// Earth center has no defined latitude
	if pos.X == 0 && pos.Y == 0 && pos.Z == 0 {
		return PosLLH{Lat: 0, Lon: 0, Hei: -Re}
	}

	p := math.Hypot(pos.X, pos.Y)
	th := math.Atan2(pos.Z*Re, p*semiMinor) // Parametric latitude
	st, ct := math.Sin(th), math.Cos(th)

	lat := math.Atan2(pos.Z+eccSq2*semiMinor*st*st*st, p-eccSq*Re*ct*ct*ct)
	n := primeVertical(lat)

	var hei float64
	if math.Abs(lat) < polarLat {
		hei = p/math.Cos(lat) - n
	} else {
		hei = pos.Z/math.Sin(lat) - n*(1-eccSq)
	}
	return PosLLH{Lat: lat, Lon: math.Atan2(pos.Y, pos.X), Hei: hei}
}

// ToENU gives the position relative to base in the local frame of base
func (pos *PosXYZ) ToENU(base PosXYZ) PosENU {
	return rotENU(pos.X-base.X, pos.Y-base.Y, pos.Z-base.Z, base.ToLLH())
}

// Elevation of sat seen from usr [rad]
func (usr *PosXYZ) Elevation(sat PosXYZ) float64 {
	enu := sat.ToENU(*usr)
	return enu.Elevation()
}

// Rotate an ECEF vector to ENU at the given geodetic position
func rotENU(x, y, z float64, llh PosLLH) PosENU {
	so, co := math.Sin(llh.Lon), math.Cos(llh.Lon)
	sa, ca := math.Sin(llh.Lat), math.Cos(llh.Lat)

	return PosENU{
		E: -so*x + co*y,
		N: -sa*co*x - sa*so*y + ca*z,
		U: ca*co*x + ca*so*y + sa*z,
	}
}

//-------------------------------------------------------------------
// PosENU
//-------------------------------------------------------------------

type PosENU struct {
	E float64
	N float64
	U float64
}

func (enu *PosENU) Elevation() float64 {
	return math.Atan2(enu.U, math.Hypot(enu.E, enu.N))
}
