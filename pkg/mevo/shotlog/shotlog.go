// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package shotlog persists captured shot records to disk as a
// length-prefixed stream of CBOR-encoded records, for offline review and
// regression fixtures. It has nothing to do with the wire protocol
// itself, which is fixed-offset binary end to end.
package shotlog

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// Record is the flattened, serialization-friendly shape of a captured
// shot: physical units only, no raw device bytes.
type Record struct {
	SequenceNumber uint64  `cbor:"0,keyasint"`
	UnixTimeMs     int64   `cbor:"1,keyasint"`
	BallSpeedMS    float64 `cbor:"2,keyasint"`
	LaunchAngleDeg float64 `cbor:"3,keyasint"`
	AzimuthDeg     float64 `cbor:"4,keyasint"`
	BackSpinRPM    float64 `cbor:"5,keyasint"`
	SideSpinRPM    float64 `cbor:"6,keyasint"`
	CarryDistanceM float64 `cbor:"7,keyasint"`
	TotalDistanceM float64 `cbor:"8,keyasint"`
	ClubSpeedMS    float64 `cbor:"9,keyasint,omitempty"`
	Mode           uint8   `cbor:"10,keyasint"`
}

// Writer appends length-prefixed CBOR records to an underlying file.
type Writer struct {
	f   *os.File
	seq uint64
}

// Create opens path for append, creating it if necessary.
func Create(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("shotlog: open %s: %w", path, err)
	}
	return &Writer{f: f}, nil
}

// Append encodes rec as CBOR and writes it with a 4-byte big-endian
// length prefix, stamping SequenceNumber if unset.
func (w *Writer) Append(rec Record) error {
	w.seq++
	if rec.SequenceNumber == 0 {
		rec.SequenceNumber = w.seq
	}
	data, err := cbor.Marshal(rec)
	if err != nil {
		return fmt.Errorf("shotlog: encode: %w", err)
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := w.f.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("shotlog: write length: %w", err)
	}
	if _, err := w.f.Write(data); err != nil {
		return fmt.Errorf("shotlog: write record: %w", err)
	}
	return nil
}

func (w *Writer) Close() error { return w.f.Close() }

// Reader reads a stream of records written by Writer.
type Reader struct {
	f *os.File
}

// Open opens path for reading.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("shotlog: open %s: %w", path, err)
	}
	return &Reader{f: f}, nil
}

// Next reads one record, returning io.EOF when the file is exhausted.
func (r *Reader) Next() (Record, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r.f, lenBuf[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return Record{}, fmt.Errorf("shotlog: truncated length prefix")
		}
		return Record{}, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.f, buf); err != nil {
		return Record{}, fmt.Errorf("shotlog: truncated record: %w", err)
	}
	var rec Record
	if err := cbor.Unmarshal(buf, &rec); err != nil {
		return Record{}, fmt.Errorf("shotlog: decode: %w", err)
	}
	return rec, nil
}

func (r *Reader) Close() error { return r.f.Close() }

// ReadAll drains the remainder of the file into a slice.
func (r *Reader) ReadAll() ([]Record, error) {
	var out []Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}
