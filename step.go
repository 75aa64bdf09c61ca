// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.17
//

// Implements one stateless filter invocation.

package gpsekf

import (
	"fmt"
	"io"
)

// Step runs one predict/update cycle of the filter for a single epoch
// It updates X and P of st and stores the filtered position in ep.Pos.
//
// Parameters:
//   - st: Filter state (T, Q and R are read only)
//   - ep: Satellite positions and pseudoranges of the epoch
//
// Returns:
//   - error: Any error encountered during processing. st and ep are not modified in that case.
func Step(st *NavState, ep *Epoch) error {

	// Process model
	fx, F := PredictState(st.X, st.T)

	// Measurement model at the predicted state
	hx, H, err := PredictRange(fx, ep.SvPos)
	if err != nil {
		return fmt.Errorf("PredictRange() failed: %w", err)
	}

	if debugEnabled() {
		upos := PosXYZ{X: fx[IPX], Y: fx[IPY], Z: fx[IPZ]}
		for i := range NOBS {
			elv := upos.Elevation(PosXYZ{X: ep.SvPos[i][0], Y: ep.SvPos[i][1], Z: ep.SvPos[i][2]})
			Log.Debugf("sv%d: x=%16.3f, y=%16.3f, z=%16.3f, elev=%8.3f, rho=%14.3f, hx=%14.3f, res=%10.3f",
				i, ep.SvPos[i][0], ep.SvPos[i][1], ep.SvPos[i][2], ToDeg(elv), ep.SvRho[i], hx[i], ep.SvRho[i]-hx[i])
		}
		if dop, err := CalcDop(&H, upos); err == nil {
			Log.Debugf("gdop=%.3f, pdop=%.3f, hdop=%.3f, vdop=%.3f", dop.G, dop.P, dop.H, dop.V)
		} else {
			Log.Debugf("dop not available: %v", err)
		}
	}

	// The filter works on copies so that a failed step leaves st untouched
	f, err := NewEkf(vecOf(st.X[:]), denseOf8(&st.P), denseOf8(&st.Q), denseOf4(&st.R))
	if err != nil {
		return err
	}
	if err := f.Predict(vecOf(fx[:]), denseOf8(&F)); err != nil {
		return fmt.Errorf("Predict() failed: %w", err)
	}
	if err := f.Update(vecOf(ep.SvRho[:]), vecOf(hx[:]), denseOfH(&H)); err != nil {
		return fmt.Errorf("Update() failed: %w", err)
	}

	// Write back
	for i := range NSTA {
		st.X[i] = f.X.AtVec(i)
		for j := range NSTA {
			st.P[i][j] = f.P.At(i, j)
		}
	}

	// Grab positions, ignoring velocities
	for k := range 3 {
		ep.Pos[k] = st.X[2*k]
	}

	if debugEnabled() {
		upos := st.Position()
		llh := upos.ToLLH()
		Log.Debugf("pos: LLH= %.9f %.9f %.4f, XYZ= %.3f %.3f %.3f, clk=%.3f, drift=%.6f",
			ToDeg(llh.Lat), ToDeg(llh.Lon), llh.Hei, st.X[IPX], st.X[IPY], st.X[IPZ], st.X[ICB], st.X[ICD])
		LogMat("innovation", f.Inn)
	}

	return nil
}

// Invoke reads one frame from r, runs Step on it and writes the updated frame to w.
// The output depends only on the input bytes. Nothing is written when reading or
// the step fails.
func Invoke(r io.Reader, w io.Writer) error {
	f, err := ReadFrame(r)
	if err != nil {
		return err
	}
	if err := Step(&f.State, &f.Epoch); err != nil {
		return err
	}
	return WriteFrame(w, f)
}
