// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.19
//

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	m "github.com/mkhts/gpsekf"
)

func main() {

	// Parse command line arguments
	args, err := parseArgs(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "err=%s\n", err.Error())
		os.Exit(1)
	}

	if _, err := m.InitLogger(args.logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "err=%s\n", err.Error())
		os.Exit(1)
	}
	defer m.SyncLogger()

	// Run the main application
	if err := runApplication(args, os.Stdin, os.Stdout); err != nil {
		m.Log.Errorf("%s failed: %v", args.mode.String(), err)
		m.SyncLogger()
		os.Exit(1)
	}
}

// Structure to hold command line argument information
type cmdOpt struct {
	mode     m.Mode
	csvFn    string
	cfgFn    string
	outFn    string
	parser   string
	seed     bool
	noCenter bool
	llh      bool
	logLevel string
}

// Parse command line arguments
func parseArgs(argv []string) (a cmdOpt, err error) {
	fs := flag.NewFlagSet(filepath.Base(os.Args[0]), flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), `
[Usage]
	%s [Options] step            < frame.bin > frame.bin  (one filter step)
	%s [Options] init [gps.csv]  > frame.bin              (initial frame)
	%s [Options] csv gps.csv                              (filter a whole CSV file)

[Options]
`, fs.Name(), fs.Name(), fs.Name())
		fs.PrintDefaults()
	}
	fs.StringVar(&a.cfgFn, "c", "", "YAML file overriding the filter priors and noise settings")
	fs.StringVar(&a.outFn, "o", "", "Output file path. If not specified, output to stdout.")
	fs.StringVar(&a.parser, "parser", "std", "Number parser for CSV input: "+strings.Join(m.ParserNames(), ", "))
	fs.BoolVar(&a.seed, "seed", false, "init: replace the position and clock bias priors with a least squares fix of the first CSV epoch")
	fs.BoolVar(&a.noCenter, "nc", false, "csv: do not subtract the mean position from the trail")
	fs.BoolVar(&a.llh, "llh", false, "csv: output latitude, longitude [deg] and height [m] instead of X, Y, Z")
	fs.StringVar(&a.logLevel, "log", "", "Log level: debug, info, warn, error. Default is $LOG_LEVEL or info.")
	if err = fs.Parse(argv); err != nil {
		return a, err
	}
	if err = a.setArgs(fs.Args()); err != nil {
		fs.Usage()
		return a, err
	}
	return a, nil
}

// Set the mode and the file arguments that follow it
func (a *cmdOpt) setArgs(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("no mode specified")
	}
	if err := a.mode.Set(args[0]); err != nil {
		return err
	}
	switch a.mode {
	case m.STEP:
		if len(args) != 1 {
			return fmt.Errorf("step takes no arguments")
		}
	case m.INIT:
		if len(args) > 2 {
			return fmt.Errorf("too many arguments")
		}
		if len(args) == 2 {
			a.csvFn = args[1]
		}
		if a.seed && a.csvFn == "" {
			return fmt.Errorf("-seed needs a CSV file")
		}
	case m.CSV:
		if len(args) != 2 {
			return fmt.Errorf("csv needs exactly one CSV file")
		}
		a.csvFn = args[1]
	}
	return nil
}

// Main application processing
func runApplication(args cmdOpt, stdin io.Reader, stdout io.Writer) (err error) {

	// Prepare output file
	out, err := prepareOutput(args, stdout)
	if err != nil {
		return fmt.Errorf("failed to prepare output: %w", err)
	}
	defer func() {
		if cerr := closeOutput(out); cerr != nil && err == nil {
			err = cerr
		}
	}()

	switch args.mode {
	case m.STEP:
		return m.Invoke(stdin, out)
	case m.INIT:
		return runInit(args, out)
	case m.CSV:
		return runCsv(args, out)
	}
	return fmt.Errorf("unknown mode %d", args.mode)
}

// Write an initial frame
func runInit(args cmdOpt, out io.Writer) error {

	st, err := newNavState(args)
	if err != nil {
		return err
	}

	if !args.seed && args.csvFn != "" {
		m.Log.Warnf("%s is only read with -seed", args.csvFn)
	}
	if args.seed {
		epochs, err := readEpochs(args)
		if err != nil {
			return err
		}
		if len(epochs) == 0 {
			return fmt.Errorf("no epochs in %s", args.csvFn)
		}
		upos, clk, err := m.SeedFix(epochs[0].SvPos, epochs[0].SvRho)
		if err != nil {
			return fmt.Errorf("failed to seed the prior: %w", err)
		}
		if err := st.Seed(upos, clk); err != nil {
			return err
		}
		llh := upos.ToLLH()
		m.Log.Infof("seeded prior: %s, clk=%.3f", llh.String(), clk)
	}

	return m.WriteFrame(out, &m.Frame{State: *st})
}

// Filter every epoch of the CSV file and write the position trail
func runCsv(args cmdOpt, out io.Writer) error {

	st, err := newNavState(args)
	if err != nil {
		return err
	}
	epochs, err := readEpochs(args)
	if err != nil {
		return err
	}
	m.Log.Infof("%d epochs read from %s", len(epochs), args.csvFn)

	// Every epoch goes through the frame encoding, as it would between separate invocations
	blob, err := (&m.Frame{State: *st}).MarshalBinary()
	if err != nil {
		return err
	}
	pos := make([][3]float64, 0, len(epochs))
	for j, ep := range epochs {
		var f m.Frame
		if err := f.UnmarshalBinary(blob); err != nil {
			return err
		}
		f.Epoch = ep
		if err := m.Step(&f.State, &f.Epoch); err != nil {
			return fmt.Errorf("epoch %d: %w", j+1, err)
		}
		pos = append(pos, f.Epoch.Pos)
		if blob, err = f.MarshalBinary(); err != nil {
			return err
		}
	}

	return m.WriteTrail(out, pos, m.TrailOpt{Center: !args.noCenter, LLH: args.llh})
}

func newNavState(args cmdOpt) (*m.NavState, error) {
	opt := m.NewEkfOpt()
	if args.cfgFn != "" {
		f, err := os.Open(args.cfgFn)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if opt, err = m.LoadEkfOpt(f); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", args.cfgFn, err)
		}
	}
	return m.NewNavState(opt)
}

func readEpochs(args cmdOpt) ([]m.Epoch, error) {
	parse, err := m.ParserByName(args.parser)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(args.csvFn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	epochs, err := m.ReadEpochs(f, parse)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", args.csvFn, err)
	}
	return epochs, nil
}

// Prepare output file
func prepareOutput(args cmdOpt, stdout io.Writer) (io.WriteCloser, error) {

	// Use stdout if no output file is specified
	if len(args.outFn) == 0 {
		return &nopCloser{stdout}, nil
	}

	// Create output file
	posf, err := os.Create(args.outFn)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return posf, nil
}

// Close output file. A failed close may lose buffered output.
func closeOutput(out io.WriteCloser) error {
	if out == nil {
		return nil
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	return nil
}

// nopCloser - WriteCloser that ignores close operations
type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
