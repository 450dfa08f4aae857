// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mevo

// Wire framing: 0xF0 [stuffed( dest src type payload... cs_hi cs_lo )] 0xF1.

const (
	wireStart = 0xF0
	wireEnd   = 0xF1
	wireEsc   = 0xFD
)

// Frame is a decoded logical frame: bus addressing plus a typed payload.
type Frame struct {
	Dest    BusAddr
	Src     BusAddr
	TypeID  byte
	Payload []byte
}

// stuffBytes escapes 0xF0, 0xF1, 0xFD, 0xFA.
func stuffBytes(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for _, b := range data {
		switch b {
		case 0xF0:
			out = append(out, wireEsc, 0x01)
		case 0xF1:
			out = append(out, wireEsc, 0x02)
		case 0xFD:
			out = append(out, wireEsc, 0x03)
		case 0xFA:
			out = append(out, wireEsc, 0x04)
		default:
			out = append(out, b)
		}
	}
	return out
}

// sum16 computes a 16-bit wrapping sum.
func sum16(data []byte) uint16 {
	var sum uint16
	for _, b := range data {
		sum += uint16(b)
	}
	return sum
}

// encodeFrame builds a complete wire frame with byte stuffing and checksum.
func encodeFrame(dest, src BusAddr, typeID byte, payload []byte) []byte {
	raw := make([]byte, 0, 3+len(payload))
	raw = append(raw, byte(dest), byte(src), typeID)
	raw = append(raw, payload...)

	stuffedData := stuffBytes(raw)
	cs := sum16(stuffedData)
	csBytes := []byte{byte(cs >> 8), byte(cs)}
	stuffedCs := stuffBytes(csBytes)

	wire := make([]byte, 0, 2+len(stuffedData)+len(stuffedCs))
	wire = append(wire, wireStart)
	wire = append(wire, stuffedData...)
	wire = append(wire, stuffedCs...)
	wire = append(wire, wireEnd)
	return wire
}

// decodedByte records a decoded byte and the wire offset (within the interior,
// i.e. excluding the leading 0xF0) it was decoded from, so the checksum
// boundary can be expressed in stuffed-byte terms.
type decodedByte struct {
	val byte
	pos int
}

// decodeFrame parses a complete wire frame (including the 0xF0/0xF1
// markers) into a Frame.
func decodeFrame(wire []byte) (Frame, error) {
	if len(wire) < 7 {
		return Frame{}, &FramingError{Kind: FramingTooShort}
	}
	if wire[0] != wireStart {
		return Frame{}, &FramingError{Kind: FramingTooShort, Detail: "missing start marker"}
	}
	if wire[len(wire)-1] != wireEnd {
		return Frame{}, &FramingError{Kind: FramingUnterminatedFrame}
	}

	interior := wire[1 : len(wire)-1]

	unstuffed := make([]decodedByte, 0, len(interior))
	i := 0
	for i < len(interior) {
		if interior[i] == wireEsc {
			if i+1 >= len(interior) {
				return Frame{}, &FramingError{Kind: FramingMalformedEscape, Detail: "trailing escape"}
			}
			var decoded byte
			switch interior[i+1] {
			case 0x01:
				decoded = 0xF0
			case 0x02:
				decoded = 0xF1
			case 0x03:
				decoded = 0xFD
			case 0x04:
				decoded = 0xFA
			default:
				return Frame{}, &FramingError{Kind: FramingMalformedEscape}
			}
			unstuffed = append(unstuffed, decodedByte{decoded, i})
			i += 2
		} else {
			unstuffed = append(unstuffed, decodedByte{interior[i], i})
			i++
		}
	}

	if len(unstuffed) < 5 {
		return Frame{}, &FramingError{Kind: FramingTooShort}
	}

	n := len(unstuffed)
	csReceived := uint16(unstuffed[n-2].val)<<8 | uint16(unstuffed[n-1].val)

	dataEnd := unstuffed[n-2].pos
	csComputed := sum16(interior[:dataEnd])

	if csReceived != csComputed {
		return Frame{}, &FramingError{Kind: FramingChecksumMismatch}
	}

	dest, err := ParseBusAddr(unstuffed[0].val)
	if err != nil {
		return Frame{}, err
	}
	src, err := ParseBusAddr(unstuffed[1].val)
	if err != nil {
		return Frame{}, err
	}
	typeID := unstuffed[2].val
	payload := make([]byte, n-2-3)
	for k := 3; k < n-2; k++ {
		payload[k-3] = unstuffed[k].val
	}

	return Frame{Dest: dest, Src: src, TypeID: typeID, Payload: payload}, nil
}

// Filter selects which frames satisfy a pending wait in ReceiveBuffer's
// NextMatching. A nil pointer field means "don't care".
type Filter struct {
	Dest     *BusAddr
	Src      *BusAddr
	Types    map[byte]bool
	SkipText bool
}

func busFilter(src BusAddr, types ...byte) Filter {
	set := make(map[byte]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return Filter{Src: &src, Types: set, SkipText: true}
}

func (f Filter) matches(fr Frame) bool {
	if f.Dest != nil && *f.Dest != fr.Dest {
		return false
	}
	if f.Src != nil && *f.Src != fr.Src {
		return false
	}
	if len(f.Types) > 0 && !f.Types[fr.TypeID] {
		return false
	}
	return true
}

// ReceiveBuffer accumulates bytes from the byte-stream, splits them into
// wire frames on 0xF0/0xF1 markers, decodes each into a Frame, and offers a
// bus/type-filtered lookahead with an overflow queue for frames that arrive
// out of order relative to what the caller is currently waiting for.
type ReceiveBuffer struct {
	buf      []byte
	overflow []Frame
}

// NewReceiveBuffer returns an empty ReceiveBuffer.
func NewReceiveBuffer() *ReceiveBuffer {
	return &ReceiveBuffer{buf: make([]byte, 0, 512)}
}

// Push appends newly read bytes.
func (r *ReceiveBuffer) Push(data []byte) {
	r.buf = append(r.buf, data...)
}

// extractWire pulls the next complete 0xF0..0xF1 wire frame out of buf,
// discarding any garbage bytes before the first 0xF0. Returns ok=false if
// no complete frame is currently buffered.
func (r *ReceiveBuffer) extractWire() (wire []byte, ok bool) {
	for {
		start := -1
		for idx, b := range r.buf {
			if b == wireStart {
				start = idx
				break
			}
		}
		if start == -1 {
			r.buf = r.buf[:0]
			return nil, false
		}
		if start > 0 {
			r.buf = r.buf[start:]
		}
		end := -1
		for idx := 1; idx < len(r.buf); idx++ {
			if r.buf[idx] == wireEnd {
				end = idx
				break
			}
		}
		if end == -1 {
			return nil, false
		}
		frame := make([]byte, end+1)
		copy(frame, r.buf[:end+1])
		r.buf = r.buf[end+1:]
		return frame, true
	}
}

// NextFrame returns the next fully-framed, checksum-valid, parsable frame.
// ready is false when there are not enough bytes buffered yet. A malformed
// frame is reported via the returned error (with ready=true) and
// is skipped without disturbing bytes past the following 0xF1, so the
// caller should keep calling NextFrame to drain subsequent frames.
func (r *ReceiveBuffer) NextFrame() (fr Frame, err error, ready bool) {
	wire, ok := r.extractWire()
	if !ok {
		return Frame{}, nil, false
	}
	fr, err = decodeFrame(wire)
	if err != nil {
		return Frame{}, err, true
	}
	return fr, nil, true
}

// NextMatching drains buffered frames (and the overflow queue first) for
// the first one satisfying filter. Non-matching frames are parked on the
// overflow queue in FIFO order, except plain TEXT frames when
// filter.SkipText is set, which are discarded entirely (TEXT is emitted so
// frequently that queueing it would starve real responses). Framing errors
// encountered along the way are returned immediately so the caller can
// surface them as events and call again.
func (r *ReceiveBuffer) NextMatching(filter Filter) (fr Frame, err error, ready bool) {
	for i, f := range r.overflow {
		if filter.matches(f) {
			r.overflow = append(r.overflow[:i], r.overflow[i+1:]...)
			return f, nil, true
		}
	}
	for {
		f, ferr, ok := r.NextFrame()
		if ferr != nil {
			return Frame{}, ferr, true
		}
		if !ok {
			return Frame{}, nil, false
		}
		if filter.matches(f) {
			return f, nil, true
		}
		if filter.SkipText && f.TypeID == TypeText {
			continue
		}
		r.overflow = append(r.overflow, f)
	}
}

// Overflow returns the buffered-but-unmatched frames, FIFO order, for
// draining by the session driver (e.g. drain_until helpers).
func (r *ReceiveBuffer) Overflow() []Frame {
	return r.overflow
}

// requeue puts a frame back on the front of the overflow queue, for a
// caller that pulled it via NextMatching but decided it wasn't the
// response it was waiting for.
func (r *ReceiveBuffer) requeue(f Frame) {
	r.overflow = append([]Frame{f}, r.overflow...)
}

// PopOverflow removes and returns the oldest overflow frame, if any.
func (r *ReceiveBuffer) PopOverflow() (Frame, bool) {
	if len(r.overflow) == 0 {
		return Frame{}, false
	}
	f := r.overflow[0]
	r.overflow = r.overflow[1:]
	return f, true
}
