// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mevo

import "testing"

func buildFlightResultPayload(fields [52]int32) []byte {
	p := make([]byte, 1+52*3)
	p[0] = 0x9C
	for i, v := range fields {
		copy(p[1+i*3:], writeInt24(nil, v))
	}
	return p
}

func TestDecodeFlightResultScaling(t *testing.T) {
	var fields [52]int32
	fields[0] = 45000   // BallSpeedMS = 45.0
	fields[6] = 220000  // CarryDistanceM = 220.0
	fields[23] = 12345  // CarrySideTotalM, unscaled
	fields[24] = -7     // CalibrationResidual, unscaled
	fields[25] = 42     // ClubPathDeg, unscaled
	fields[36] = 2000   // PolyScaleFactor
	fields[37] = 4000   // PolyCoeffsX[0] = 4000/2000 = 2.0

	fr, err := decodeFlightResult(buildFlightResultPayload(fields))
	if err != nil {
		t.Fatalf("decodeFlightResult: %v", err)
	}
	if fr.BallSpeedMS != 45.0 {
		t.Errorf("BallSpeedMS = %v, want 45.0", fr.BallSpeedMS)
	}
	if fr.CarryDistanceM != 220.0 {
		t.Errorf("CarryDistanceM = %v, want 220.0", fr.CarryDistanceM)
	}
	if fr.CarrySideTotalM != 12345 || fr.CalibrationResidual != -7 || fr.ClubPathDeg != 42 {
		t.Errorf("unreliable span = %v/%v/%v, want 12345/-7/42",
			fr.CarrySideTotalM, fr.CalibrationResidual, fr.ClubPathDeg)
	}
	if fr.PolyScaleFactor != 2000 {
		t.Errorf("PolyScaleFactor = %v, want 2000", fr.PolyScaleFactor)
	}
	if fr.PolyCoeffsX[0] != 2.0 {
		t.Errorf("PolyCoeffsX[0] = %v, want 2.0", fr.PolyCoeffsX[0])
	}
	if len(fr.Extra) != 23 {
		t.Errorf("len(Extra) = %d, want 23", len(fr.Extra))
	}
}

func TestDecodeFlightResultZeroPolyScaleFallsBackToOne(t *testing.T) {
	var fields [52]int32
	fields[37] = 5 // PolyCoeffsX[0] should stay 5.0 since scale falls back to 1.0
	fr, err := decodeFlightResult(buildFlightResultPayload(fields))
	if err != nil {
		t.Fatalf("decodeFlightResult: %v", err)
	}
	if fr.PolyScaleFactor != 1.0 {
		t.Errorf("PolyScaleFactor = %v, want 1.0", fr.PolyScaleFactor)
	}
	if fr.PolyCoeffsX[0] != 5.0 {
		t.Errorf("PolyCoeffsX[0] = %v, want 5.0", fr.PolyCoeffsX[0])
	}
}

func TestDecodeFlightResultRejectsShortPayload(t *testing.T) {
	_, err := decodeFlightResult([]byte{0x9C, 0x00, 0x00})
	if err == nil {
		t.Fatal("expected error for short FlightResult payload")
	}
}

func TestDecodeFlightResultV1PolyScaleClampedToOne(t *testing.T) {
	// 8 base fields + a poly-scale field (index 8) of 0, which must clamp to 1.0
	// rather than the FlightResult-style zero-fallback.
	fields := make([]int32, 9)
	fields[0] = 40000 // BallSpeedMS = 40.0
	fields[7] = 300000 // DragCoefficient = 0.3
	p := make([]byte, 1+len(fields)*3)
	for i, v := range fields {
		copy(p[1+i*3:], writeInt24(nil, v))
	}

	fr, err := decodeFlightResultV1(p)
	if err != nil {
		t.Fatalf("decodeFlightResultV1: %v", err)
	}
	if fr.BallSpeedMS != 40.0 {
		t.Errorf("BallSpeedMS = %v, want 40.0", fr.BallSpeedMS)
	}
	if fr.DragCoefficient != 0.3 {
		t.Errorf("DragCoefficient = %v, want 0.3", fr.DragCoefficient)
	}
	if fr.PolyScaleFactor != 1.0 {
		t.Errorf("PolyScaleFactor = %v, want 1.0 (clamped)", fr.PolyScaleFactor)
	}
}

func buildSpinResultPayload() []byte {
	p := make([]byte, 138)
	p[0] = 0x89
	off := 1
	for i := 0; i < 5; i++ {
		copy(p[off:], writeInt16(nil, int16(1000+i)))
		copy(p[off+2:], writeInt24(nil, int32(2000+i)))
		copy(p[off+5:], writeInt16(nil, int16(30+i)))
		off += 7
	}
	copy(p[108:], writeInt16(nil, 2500))
	copy(p[132:], writeInt16(nil, 125)) // 12.5 degrees at scale 10
	return p
}

func TestDecodeSpinResult(t *testing.T) {
	sr, err := decodeSpinResult(buildSpinResultPayload())
	if err != nil {
		t.Fatalf("decodeSpinResult: %v", err)
	}
	if sr.Antennas[0].SpinRPM != 1000 {
		t.Errorf("Antennas[0].SpinRPM = %d, want 1000", sr.Antennas[0].SpinRPM)
	}
	if sr.Antennas[0].Peak != 2.0 {
		t.Errorf("Antennas[0].Peak = %v, want 2.0", sr.Antennas[0].Peak)
	}
	if sr.PMSpinFinal != 2500 {
		t.Errorf("PMSpinFinal = %d, want 2500", sr.PMSpinFinal)
	}
	if sr.SpinAxisDeg != 12.5 {
		t.Errorf("SpinAxisDeg = %v, want 12.5 (no sign inversion)", sr.SpinAxisDeg)
	}
}

func TestDecodeSpinResultRejectsWrongVersion(t *testing.T) {
	p := buildSpinResultPayload()
	p[0] = 0x01
	_, err := decodeSpinResult(p)
	de, ok := err.(*DecodeError)
	if !ok || de.TypeID != TypeSpinResult {
		t.Fatalf("expected DecodeError for unsupported version, got %v", err)
	}
}

func TestDecodePrcDataRejectsUnsupportedStride(t *testing.T) {
	p := []byte{0x04, 0x00, 0x01} // (4-3) % 60 != 0
	_, err := decodePrcData(p)
	de, ok := err.(*DecodeError)
	if !ok || de.Kind != DecodeUnsupportedPrcVersion {
		t.Fatalf("expected DecodeUnsupportedPrcVersion, got %v", err)
	}
}

func TestDecodeClubPrcRejectsUnsupportedStride(t *testing.T) {
	p := []byte{0x04, 0x00, 0x01} // (4-3) % 76 != 0
	_, err := decodeClubPrc(p)
	de, ok := err.(*DecodeError)
	if !ok || de.Kind != DecodeUnsupportedPrcVersion {
		t.Fatalf("expected DecodeUnsupportedPrcVersion, got %v", err)
	}
}

func TestDecodePrcDataCapturesSequence(t *testing.T) {
	p := make([]byte, 3+60)
	p[0] = 0x3F // (63-3)/60 = 1 record
	p[1] = 0x00
	p[2] = 0x05 // sequence = 5
	d, err := decodePrcData(p)
	if err != nil {
		t.Fatalf("decodePrcData: %v", err)
	}
	if d.Sequence != 5 {
		t.Errorf("Sequence = %d, want 5", d.Sequence)
	}
	if len(d.Points) != 1 {
		t.Errorf("len(Points) = %d, want 1", len(d.Points))
	}
}

func TestDecodeSpeedProfileStubForShortPayload(t *testing.T) {
	sp, err := decodeSpeedProfile([]byte{0x00, 0x00})
	if err != nil {
		t.Fatalf("decodeSpeedProfile: %v", err)
	}
	if len(sp.Samples) != 0 || sp.ScaleFactor != 1.0 {
		t.Errorf("expected stub SpeedProfile, got %+v", sp)
	}
}
