// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.12
//

package gpsekf

const (
	PI = 3.1415926535897932  // Pi
	Re = 6378137.0           // Earth's radius [m]
	Fe = 1.0 / 298.257223563 // Earth's flattening
)

// Filter dimensions
const (
	NSTA = 8 // Number of state elements
	NOBS = 4 // Number of satellites (pseudoranges) per epoch
)

// Index of each element in the state vector
const (
	IPX = 0 // Position X [m]
	IVX = 1 // Velocity X [m/s]
	IPY = 2 // Position Y [m]
	IVY = 3 // Velocity Y [m/s]
	IPZ = 4 // Position Z [m]
	IVZ = 5 // Velocity Z [m/s]
	ICB = 6 // Receiver clock bias [m]
	ICD = 7 // Receiver clock drift [m/s]
)
