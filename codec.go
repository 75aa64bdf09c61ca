// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.17
//

// Binary frame exchanged between invocations.
//
// A frame is a 16 byte header followed by four segments of little endian float64:
//
//	header  magic "GEKF", version, nsta, nobs, flags (uint16 each), payload length (uint32)
//	state   T, X[8], P[8][8], Q[8][8], R[4][4] (row-major)
//	svpos   satellite positions [4][3] (satellite-major)
//	svrho   pseudoranges [4]
//	pos     filtered position [3]

package gpsekf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	FrameVersion = 1
	HeaderSize   = 16
)

var frameMagic = [4]byte{'G', 'E', 'K', 'F'}

var (
	ErrShortRead  = errors.New("short read")
	ErrShortWrite = errors.New("short write")
	ErrBadMagic   = errors.New("not a filter frame")
	ErrBadHeader  = errors.New("incompatible frame header")
	ErrTrailing   = errors.New("trailing bytes after frame")
)

type frameHeader struct {
	Magic   [4]byte
	Version uint16
	NSta    uint16
	NObs    uint16
	Flags   uint16 // Reserved, zero
	Length  uint32 // Number of bytes after the header
}

// A named part of the frame, in wire order
type segment struct {
	name string
	data any
}

func (f *Frame) segments() []segment {
	return []segment{
		{"state", &f.State},
		{"svpos", &f.Epoch.SvPos},
		{"svrho", &f.Epoch.SvRho},
		{"pos", &f.Epoch.Pos},
	}
}

// PayloadSize is the number of bytes that follow the header
func PayloadSize() int {
	var f Frame
	n := 0
	for _, s := range f.segments() {
		n += binary.Size(s.data)
	}
	return n
}

// FrameSize is the total encoded size of a frame
func FrameSize() int {
	return HeaderSize + PayloadSize()
}

func newFrameHeader() frameHeader {
	return frameHeader{
		Magic:   frameMagic,
		Version: FrameVersion,
		NSta:    NSTA,
		NObs:    NOBS,
		Length:  uint32(PayloadSize()),
	}
}

func (h *frameHeader) check() error {
	if h.Magic != frameMagic {
		return fmt.Errorf("%w: magic %q", ErrBadMagic, h.Magic[:])
	}
	want := newFrameHeader()
	switch {
	case h.Version != want.Version:
		return fmt.Errorf("%w: version %d, want %d", ErrBadHeader, h.Version, want.Version)
	case h.NSta != want.NSta || h.NObs != want.NObs:
		return fmt.Errorf("%w: dimensions %d/%d, want %d/%d", ErrBadHeader, h.NSta, h.NObs, want.NSta, want.NObs)
	case h.Flags != 0:
		return fmt.Errorf("%w: flags 0x%04x", ErrBadHeader, h.Flags)
	case h.Length != want.Length:
		return fmt.Errorf("%w: payload length %d, want %d", ErrBadHeader, h.Length, want.Length)
	}
	return nil
}

func readSegment(r io.Reader, name string, data any) error {
	err := binary.Read(r, binary.LittleEndian, data)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s segment needs %d bytes", ErrShortRead, name, binary.Size(data))
	}
	if err != nil {
		return fmt.Errorf("failed to read %s segment: %w", name, err)
	}
	return nil
}

// ReadFrame reads one frame from r.
// Any segment with fewer bytes than its fixed size is an ErrShortRead.
func ReadFrame(r io.Reader) (*Frame, error) {
	var h frameHeader
	if err := readSegment(r, "header", &h); err != nil {
		return nil, err
	}
	if err := h.check(); err != nil {
		return nil, err
	}

	f := new(Frame)
	for _, s := range f.segments() {
		if err := readSegment(r, s.name, s.data); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// WriteFrame encodes f and writes it to w with a single Write call
func WriteFrame(w io.Writer, f *Frame) error {
	b, err := f.MarshalBinary()
	if err != nil {
		return err
	}
	n, err := w.Write(b)
	if err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	if n != len(b) {
		return fmt.Errorf("%w: %d of %d bytes", ErrShortWrite, n, len(b))
	}
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler
func (f *Frame) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(FrameSize())
	h := newFrameHeader()
	if err := binary.Write(&buf, binary.LittleEndian, &h); err != nil {
		return nil, err
	}
	for _, s := range f.segments() {
		if err := binary.Write(&buf, binary.LittleEndian, s.data); err != nil {
			return nil, fmt.Errorf("failed to encode %s segment: %w", s.name, err)
		}
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
// Unlike ReadFrame, bytes after the frame are an error.
func (f *Frame) UnmarshalBinary(b []byte) error {
	r := bytes.NewReader(b)
	f2, err := ReadFrame(r)
	if err != nil {
		return err
	}
	if r.Len() > 0 {
		return fmt.Errorf("%w: %d bytes", ErrTrailing, r.Len())
	}
	*f = *f2
	return nil
}
