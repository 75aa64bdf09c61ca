// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

// CSV ingestion of epochs and output of the filtered position trail.

package gpsekf

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrCsvRow = errors.New("malformed csv row")

// Number of numeric fields in a row: satellite positions followed by pseudoranges
const csvFields = NOBS*3 + NOBS

// ReadEpochs reads all epochs from r.
// The first line is a header and is skipped. Each row holds the X, Y, Z of the
// four satellites followed by the four pseudoranges.
func ReadEpochs(r io.Reader, parse FloatParser) ([]Epoch, error) {
	if parse == nil {
		parse = parseStd
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	// Skip CSV header
	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	epochs := []Epoch{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCsvRow, err)
		}
		line, _ := cr.FieldPos(0)
		ep, err := parseRow(rec, parse)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrCsvRow, line, err)
		}
		epochs = append(epochs, ep)
	}
	return epochs, nil
}

func parseRow(rec []string, parse FloatParser) (ep Epoch, err error) {

	// Ignore trailing empty fields (e.g. a trailing comma)
	n := len(rec)
	for n > 0 && strings.TrimSpace(rec[n-1]) == "" {
		n--
	}
	if n != csvFields {
		return ep, fmt.Errorf("%d fields, want %d", n, csvFields)
	}

	v := [csvFields]float64{}
	for k := range csvFields {
		if strings.TrimSpace(rec[k]) == "" {
			return ep, fmt.Errorf("field %d is empty", k+1)
		}
		v[k], err = parse(rec[k])
		if err != nil {
			return ep, fmt.Errorf("field %d: %v", k+1, err)
		}
	}

	for i := range NOBS {
		for j := range 3 {
			ep.SvPos[i][j] = v[i*3+j]
		}
	}
	for j := range NOBS {
		ep.SvRho[j] = v[NOBS*3+j]
	}
	return ep, nil
}

// TrailOpt controls the output of the position trail
type TrailOpt struct {
	Center bool // Subtract the mean position of the whole run
	LLH    bool // Write latitude [deg], longitude [deg], ellipsoidal height [m] instead of X, Y, Z
}

// WriteTrail writes one comma-separated position per line
func WriteTrail(w io.Writer, pos [][3]float64, opt TrailOpt) error {

	// Means of filtered positions
	var mean [3]float64
	if opt.Center && !opt.LLH && len(pos) > 0 {
		for _, p := range pos {
			for k := range 3 {
				mean[k] += p[k]
			}
		}
		for k := range 3 {
			mean[k] /= float64(len(pos))
		}
	}

	for _, p := range pos {
		var err error
		if opt.LLH {
			llh := NewPosXYZ(p[0], p[1], p[2]).ToLLH()
			_, err = fmt.Fprintf(w, "%.9f,%.9f,%.4f\n", ToDeg(llh.Lat), ToDeg(llh.Lon), llh.Hei)
		} else {
			_, err = fmt.Fprintf(w, "%f,%f,%f\n", p[0]-mean[0], p[1]-mean[1], p[2]-mean[2])
		}
		if err != nil {
			return fmt.Errorf("failed to write trail: %w", err)
		}
	}
	return nil
}
