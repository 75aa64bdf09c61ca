// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package gpsekf

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/valyala/fastjson/fastfloat"
	"golang.org/x/exp/slices"
)

var ErrUnknownParser = errors.New("unknown float parser")

// FloatParser converts one numeric field of the input to float64
type FloatParser func(string) (float64, error)

var parsers = map[string]FloatParser{
	"std":   parseStd,
	"fast":  parseFast,
	"rinex": parseRinex,
}

// ParserByName returns the registered parser with the given name
func ParserByName(name string) (FloatParser, error) {
	p, ok := parsers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q, want one of %s", ErrUnknownParser, name, strings.Join(ParserNames(), ", "))
	}
	return p, nil
}

// ParserNames returns the names of the registered parsers in sorted order
func ParserNames() []string {
	names := make([]string, 0, len(parsers))
	for k := range parsers {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

func parseStd(str string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(str), 64)
}

// Faster than strconv for plain decimal input
func parseFast(str string) (float64, error) {
	return fastfloat.Parse(strings.TrimSpace(str))
}

// Read real values by absorbing variations in exponential notation within RINEX files
func parseRinex(str string) (float64, error) {
	s := strings.TrimSpace(str)
	if strings.ContainsAny(s, "Dd") {
		s = strings.Replace(s, "D", "E", 1)
		s = strings.Replace(s, "d", "e", 1)
	}
	return strconv.ParseFloat(s, 64)
}
