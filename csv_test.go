// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package gpsekf

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadEpochs(t *testing.T) {
	ep2 := testEpoch()
	ep2.SvRho[3] += 45.5

	for _, name := range ParserNames() {
		t.Run(name, func(t *testing.T) {
			parse, err := ParserByName(name)
			require.NoError(t, err)

			epochs, err := ReadEpochs(strings.NewReader(testCsv(testEpoch(), ep2)), parse)
			require.NoError(t, err)
			require.Len(t, epochs, 2)
			for n, want := range []Epoch{testEpoch(), ep2} {
				for i := range NOBS {
					assert.InDeltaSlice(t, want.SvPos[i][:], epochs[n].SvPos[i][:], 1e-6)
				}
				assert.InDeltaSlice(t, want.SvRho[:], epochs[n].SvRho[:], 1e-6)
			}
		})
	}
}

func TestReadEpochsLayout(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{
			name:  "empty file",
			input: "",
			want:  0,
		},
		{
			name:  "header only",
			input: "a,b,c\n",
			want:  0,
		},
		{
			name:  "trailing comma",
			input: "h\n1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16,\n",
			want:  1,
		},
		{
			name:  "spaces and CRLF",
			input: "h\r\n 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16\r\n",
			want:  1,
		},
		{
			name:  "no final newline",
			input: "h\n1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16",
			want:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			epochs, err := ReadEpochs(strings.NewReader(tt.input), nil)
			require.NoError(t, err)
			require.Len(t, epochs, tt.want)
			if tt.want > 0 {
				assert.Equal(t, [3]float64{4, 5, 6}, epochs[0].SvPos[1])
				assert.Equal(t, [NOBS]float64{13, 14, 15, 16}, epochs[0].SvRho)
			}
		})
	}
}

func TestReadEpochsErrors(t *testing.T) {
	tests := []struct {
		name    string
		row     string
		wantMsg string
	}{
		{
			name:    "too few fields",
			row:     "1,2,3,4,5,6,7,8,9,10,11,12,13,14,15",
			wantMsg: "15 fields",
		},
		{
			name:    "too many fields",
			row:     "1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16,17",
			wantMsg: "17 fields",
		},
		{
			name:    "not a number",
			row:     "1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,x",
			wantMsg: "field 16",
		},
		{
			name:    "empty field",
			row:     "1,2,,4,5,6,7,8,9,10,11,12,13,14,15,16",
			wantMsg: "field 3 is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := "h\n1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16\n" + tt.row + "\n"
			_, err := ReadEpochs(strings.NewReader(input), nil)
			require.ErrorIs(t, err, ErrCsvRow)
			assert.Contains(t, err.Error(), "line 3")
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestParsers(t *testing.T) {
	tests := []struct {
		parser  string
		input   string
		want    float64
		wantErr bool
	}{
		{parser: "std", input: "-2.168816181271560e+006", want: -2.168816181271560e6},
		{parser: "std", input: " 36 ", want: 36},
		{parser: "std", input: "1.5D3", wantErr: true},
		{parser: "fast", input: "23491684.95225966", want: 23491684.95225966},
		{parser: "fast", input: "4.549246345845814e+001", want: 45.49246345845814},
		{parser: "fast", input: "abc", wantErr: true},
		{parser: "rinex", input: "1.5D3", want: 1500},
		{parser: "rinex", input: "-2.5d-02", want: -0.025},
		{parser: "rinex", input: "12.25", want: 12.25},
		{parser: "RINEX", input: "0.1D+01", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.parser+"/"+tt.input, func(t *testing.T) {
			parse, err := ParserByName(tt.parser)
			require.NoError(t, err)
			got, err := parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	_, err := ParserByName("slow")
	assert.ErrorIs(t, err, ErrUnknownParser)
	assert.Equal(t, []string{"fast", "rinex", "std"}, ParserNames())
}

func TestWriteTrail(t *testing.T) {
	pos := [][3]float64{
		{10, 20, 30},
		{12, 18, 33},
	}

	tests := []struct {
		name string
		opt  TrailOpt
		want string
	}{
		{
			name: "raw",
			opt:  TrailOpt{},
			want: "10.000000,20.000000,30.000000\n12.000000,18.000000,33.000000\n",
		},
		{
			name: "centered",
			opt:  TrailOpt{Center: true},
			want: "-1.000000,1.000000,-1.500000\n1.000000,-1.000000,1.500000\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteTrail(&buf, pos, tt.opt))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriteTrailLLH(t *testing.T) {
	llh := PosLLH{Lat: ToRad(35.5), Lon: ToRad(139.25), Hei: 42}
	xyz := llh.ToXYZ()

	var buf bytes.Buffer
	require.NoError(t, WriteTrail(&buf, [][3]float64{{xyz.X, xyz.Y, xyz.Z}}, TrailOpt{Center: true, LLH: true}))
	assert.Equal(t, "35.500000000,139.250000000,42.0000\n", buf.String())
}
