// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mevo

import "testing"

func TestStatusPollWireBytes(t *testing.T) {
	wire := encodeFrame(AddrDsp, AddrApp, 0xAA, []byte{0x01, 0x01})
	want := []byte{0xF0, 0x40, 0x10, 0xAA, 0x01, 0x01, 0x00, 0xFC, 0xF1}
	if !bytesEqual(wire, want) {
		t.Fatalf("encodeFrame = % X, want % X", wire, want)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	dest, src, typeID := AddrAvr, AddrDsp, byte(0x42)
	payload := []byte{0x01, 0x02, 0x03, 0xAA, 0xBB}

	wire := encodeFrame(dest, src, typeID, payload)
	fr, err := decodeFrame(wire)
	if err != nil {
		t.Fatalf("decodeFrame: %v", err)
	}
	if fr.Dest != dest || fr.Src != src || fr.TypeID != typeID {
		t.Errorf("got dest=%v src=%v type=0x%02X", fr.Dest, fr.Src, fr.TypeID)
	}
	if !bytesEqual(fr.Payload, payload) {
		t.Errorf("payload = % X, want % X", fr.Payload, payload)
	}
}

func TestFrameRoundTripWithEscapedBytes(t *testing.T) {
	payload := []byte{0xF0, 0xFD, 0xFA, 0xF1}
	wire := encodeFrame(AddrApp, AddrPi, 0x01, payload)

	interior := wire[1 : len(wire)-1]
	stuffedPayload := interior[3:11]
	wantStuffed := []byte{0xFD, 0x01, 0xFD, 0x03, 0xFD, 0x04, 0xFD, 0x02}
	if !bytesEqual(stuffedPayload, wantStuffed) {
		t.Fatalf("stuffed payload = % X, want % X", stuffedPayload, wantStuffed)
	}

	fr, err := decodeFrame(wire)
	if err != nil {
		t.Fatalf("decodeFrame: %v", err)
	}
	if !bytesEqual(fr.Payload, payload) {
		t.Errorf("round trip payload = % X, want % X", fr.Payload, payload)
	}
}

func TestMinimumFrameDecodes(t *testing.T) {
	// F0 DEST SRC TYPE <no payload> CS_HI CS_LO F1, checksum over dest+src+type.
	interior := []byte{byte(AddrDsp), byte(AddrApp), 0x01}
	cs := sum16(interior)
	wire := []byte{0xF0, byte(AddrDsp), byte(AddrApp), 0x01, byte(cs >> 8), byte(cs), 0xF1}

	fr, err := decodeFrame(wire)
	if err != nil {
		t.Fatalf("decodeFrame: %v", err)
	}
	if len(fr.Payload) != 0 {
		t.Errorf("expected empty payload, got % X", fr.Payload)
	}
}

func TestShortFrameRejected(t *testing.T) {
	wire := []byte{0xF0, 0x40, 0x10, 0x01, 0x00, 0xF1}
	_, err := decodeFrame(wire)
	fe, ok := err.(*FramingError)
	if !ok || fe.Kind != FramingTooShort {
		t.Fatalf("expected FramingTooShort, got %v", err)
	}
}

func TestChecksumMismatchRejected(t *testing.T) {
	wire := encodeFrame(AddrDsp, AddrApp, 0xAA, []byte{0x01, 0x01})
	corrupted := append([]byte(nil), wire...)
	corrupted[len(corrupted)-2]-- // cs_lo off by one (0xFC -> 0xFB); flipping bit 0 would yield the 0xFD escape byte

	_, err := decodeFrame(corrupted)
	fe, ok := err.(*FramingError)
	if !ok || fe.Kind != FramingChecksumMismatch {
		t.Fatalf("expected FramingChecksumMismatch, got %v", err)
	}
}

func TestConfigAckParse(t *testing.T) {
	fr := Frame{Dest: AddrApp, Src: AddrAvr, TypeID: TypeConfigAck, Payload: []byte{0x02, 0x30, 0x3F}}
	msg, err := decodeMessage(fr)
	if err != nil {
		t.Fatalf("decodeMessage: %v", err)
	}
	ack, ok := msg.(ConfigAck)
	if !ok {
		t.Fatalf("expected ConfigAck, got %T", msg)
	}
	if ack.AckedCmd != 0x3F {
		t.Errorf("AckedCmd = 0x%02X, want 0x3F", ack.AckedCmd)
	}
}

func TestReceiveBufferNextFrame(t *testing.T) {
	rb := NewReceiveBuffer()
	wire := encodeFrame(AddrDsp, AddrApp, 0xAA, []byte{0x01, 0x01})
	rb.Push(wire)

	fr, err, ready := rb.NextFrame()
	if err != nil || !ready {
		t.Fatalf("NextFrame: err=%v ready=%v", err, ready)
	}
	if fr.TypeID != 0xAA {
		t.Errorf("TypeID = 0x%02X, want 0xAA", fr.TypeID)
	}

	_, _, ready = rb.NextFrame()
	if ready {
		t.Errorf("expected no further frames buffered")
	}
}

func TestReceiveBufferSkipsGarbageBeforeSync(t *testing.T) {
	rb := NewReceiveBuffer()
	wire := encodeFrame(AddrDsp, AddrApp, 0xAA, []byte{0x01, 0x01})
	rb.Push(append([]byte{0x00, 0x11, 0x22}, wire...))

	fr, err, ready := rb.NextFrame()
	if err != nil || !ready {
		t.Fatalf("NextFrame: err=%v ready=%v", err, ready)
	}
	if fr.TypeID != 0xAA {
		t.Errorf("TypeID = 0x%02X, want 0xAA", fr.TypeID)
	}
}

func TestReceiveBufferNeverPanicsOnRandomBytes(t *testing.T) {
	rb := NewReceiveBuffer()
	// A grab-bag of bytes including start/end/escape markers in awkward
	// positions; the buffer should degrade to "no frame ready" rather
	// than panicking, per spec.md §8.4.
	rb.Push([]byte{0xF0, 0xFD, 0xF0, 0xFD, 0xFD, 0xF1, 0xF0, 0xFF, 0xF1, 0xFD})
	for i := 0; i < 10; i++ {
		_, _, _ = rb.NextFrame()
	}
}

func TestReceiveBufferNextMatchingParksNonMatchingFrame(t *testing.T) {
	rb := NewReceiveBuffer()
	dspStatus := encodeFrame(AddrApp, AddrDsp, TypeStatus, make([]byte, 129))
	avrAck := encodeFrame(AddrApp, AddrAvr, TypeConfigAck, []byte{0x02, 0x30, 0x3F})
	rb.Push(dspStatus)
	rb.Push(avrAck)

	filter := busFilter(AddrAvr, TypeConfigAck)

	// First pass: DSP status arrives first but doesn't match; it should be
	// queued to overflow, not lost, exactly as spec.md's duplicate-status
	// scenario requires.
	fr, err, ready := rb.NextMatching(filter)
	if err != nil {
		t.Fatalf("NextMatching: %v", err)
	}
	if !ready {
		t.Fatalf("expected AVR ack to be found on the second buffered frame")
	}
	if fr.Src != AddrAvr || fr.TypeID != TypeConfigAck {
		t.Fatalf("got src=%v type=0x%02X, want AVR/ConfigAck", fr.Src, fr.TypeID)
	}

	overflow := rb.Overflow()
	if len(overflow) != 1 || overflow[0].Src != AddrDsp {
		t.Fatalf("expected DSP status parked in overflow, got %+v", overflow)
	}
}
