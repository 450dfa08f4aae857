// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mevo

// Shot result messages. FLIGHT_RESULT's wire layout is a one-byte length
// prefix (0x9C = 156) followed by 52 INT24 fields; most are physical
// quantities scaled by /1000, except the poly-scale factor itself (field
// 36, raw) and the 15 polynomial coefficients that follow it (fields
// 37-51, scaled by the poly-scale factor instead). Fields 23-25 (wire
// offsets 70, 73, 76, the start of the span flagged unreliable in
// WIRE.md) are surfaced unscaled, per the Open Question resolution in
// SPEC_FULL.md; fields 26-27 (offsets 79, 82, the rest of that span) land
// in Extra scaled by /1000 like the other unnamed fields.
const (
	flightResultFieldCount = 52
	flightPolyScaleIdx     = 36
	flightPolyCoeffCount   = 15
)

type FlightResult struct {
	BallSpeedMS      float64
	ClubSpeedMS      float64
	LaunchAngleDeg   float64
	AzimuthDeg       float64
	BackSpinRPM      float64
	SideSpinRPM      float64
	CarryDistanceM   float64
	TotalDistanceM   float64
	ApexHeightM      float64
	DescentAngleDeg  float64

	// Offsets 70-78 of the unreliable span (WIRE.md offsets 70-84),
	// surfaced raw/unscaled; offsets 79-84 are in Extra, scaled by /1000.
	CarrySideTotalM      float64
	CalibrationResidual  float64
	ClubPathDeg          float64

	// Remaining fields not individually named by WIRE.md, in wire order.
	Extra []float64

	PolyScaleFactor float64
	PolyCoeffsX     [5]float64
	PolyCoeffsY     [5]float64
	PolyCoeffsZ     [5]float64
}

func (FlightResult) WireType() byte { return TypeFlightResult }

func decodeFlightResult(p []byte) (FlightResult, error) {
	if err := checkLen(p, 0, 1+flightResultFieldCount*3, "FlightResult"); err != nil {
		return FlightResult{}, err
	}
	var raw [flightResultFieldCount]int32
	for i := 0; i < flightResultFieldCount; i++ {
		v, err := readInt24(p, 1+i*3)
		if err != nil {
			return FlightResult{}, err
		}
		raw[i] = v
	}
	scale := func(i int) float64 { return float64(raw[i]) / 1000.0 }

	out := FlightResult{
		BallSpeedMS:     scale(0),
		ClubSpeedMS:     scale(1),
		LaunchAngleDeg:  scale(2),
		AzimuthDeg:      scale(3),
		BackSpinRPM:     scale(4),
		SideSpinRPM:     scale(5),
		CarryDistanceM:  scale(6),
		TotalDistanceM:  scale(7),
		ApexHeightM:     scale(8),
		DescentAngleDeg: scale(9),

		CarrySideTotalM:     float64(raw[23]),
		CalibrationResidual: float64(raw[24]),
		ClubPathDeg:         float64(raw[25]),
	}

	for _, i := range []int{10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 26, 27, 28, 29, 30, 31, 32, 33, 34, 35} {
		out.Extra = append(out.Extra, scale(i))
	}

	polyScale := float64(raw[flightPolyScaleIdx])
	if polyScale == 0 {
		polyScale = 1.0
	}
	out.PolyScaleFactor = polyScale
	for i := 0; i < flightPolyCoeffCount; i++ {
		v := float64(raw[37+i]) / polyScale
		switch {
		case i < 5:
			out.PolyCoeffsX[i] = v
		case i < 10:
			out.PolyCoeffsY[i-5] = v
		default:
			out.PolyCoeffsZ[i-10] = v
		}
	}
	return out, nil
}

// FlightResultV1 is the legacy/short FLIGHT_RESULT shape: fewer fields,
// drag scaled by 1,000,000, and a poly-scale factor that is clamped to a
// minimum of 1.0 rather than defaulting when zero.
type FlightResultV1 struct {
	BallSpeedMS     float64
	LaunchAngleDeg  float64
	AzimuthDeg      float64
	BackSpinRPM     float64
	SideSpinRPM     float64
	CarryDistanceM  float64
	TotalDistanceM  float64
	DragCoefficient float64
	PolyScaleFactor float64
	Extra           []float64
}

func (FlightResultV1) WireType() byte { return TypeFlightResultV1 }

func decodeFlightResultV1(p []byte) (FlightResultV1, error) {
	if err := checkLen(p, 0, 1+9*3, "FlightResultV1"); err != nil {
		return FlightResultV1{}, err
	}
	n := (len(p) - 1) / 3
	raw := make([]int32, n)
	for i := 0; i < n; i++ {
		v, err := readInt24(p, 1+i*3)
		if err != nil {
			return FlightResultV1{}, err
		}
		raw[i] = v
	}
	scale := func(i int) float64 { return float64(raw[i]) / 1000.0 }
	out := FlightResultV1{
		BallSpeedMS:     scale(0),
		LaunchAngleDeg:  scale(1),
		AzimuthDeg:      scale(2),
		BackSpinRPM:     scale(3),
		SideSpinRPM:     scale(4),
		CarryDistanceM:  scale(5),
		TotalDistanceM:  scale(6),
		DragCoefficient: float64(raw[7]) / 1_000_000.0,
	}
	polyScale := float64(raw[8])
	if polyScale < 1.0 {
		polyScale = 1.0
	}
	out.PolyScaleFactor = polyScale
	for i := 9; i < n; i++ {
		out.Extra = append(out.Extra, float64(raw[i])/polyScale)
	}
	return out, nil
}

// ClubResult (0xED) carries club-head tracking data: a point count, status
// flags, 14 scalar fields, a poly-scale factor, and 12x3 polynomial
// coefficients (pre/post x/y/z/velocity/yaw-crossing). Up to two
// CLUB_RESULT frames arrive per shot; the second must be byte-identical to
// the first (shot assembler invariant, checked by the caller).
type ClubResult struct {
	NumClubPrcPoints byte
	Flags            byte
	Scalars          [14]float64
	PolyScaleFactor  float64
	PolyCoeffs       [12][3]float64
	HasTiming        bool
	Timing           [3]float64
	Raw              []byte
}

func (ClubResult) WireType() byte { return TypeClubResult }

func decodeClubResult(p []byte) (ClubResult, error) {
	if err := checkLen(p, 0, 2+14*3+3, "ClubResult"); err != nil {
		return ClubResult{}, err
	}
	out := ClubResult{NumClubPrcPoints: p[0], Flags: p[1], Raw: clonePayload(p)}
	off := 2
	for i := 0; i < 14; i++ {
		v, err := readInt24(p, off)
		if err != nil {
			return ClubResult{}, err
		}
		out.Scalars[i] = float64(v) / 1000.0
		off += 3
	}
	scaleRaw, err := readInt24(p, off)
	if err != nil {
		return ClubResult{}, err
	}
	off += 3
	polyScale := float64(scaleRaw)
	if polyScale == 0 {
		polyScale = 1.0
	}
	out.PolyScaleFactor = polyScale
	for i := 0; i < 12 && off+3 <= len(p); i++ {
		for axis := 0; axis < 3 && off+3 <= len(p); axis++ {
			v, err := readInt24(p, off)
			if err != nil {
				return ClubResult{}, err
			}
			out.PolyCoeffs[i][axis] = float64(v) / polyScale
			off += 3
		}
	}
	if len(p) >= 167 {
		out.HasTiming = true
		for i := 0; i < 3 && off+3 <= len(p); i++ {
			v, err := readInt24(p, off)
			if err != nil {
				return ClubResult{}, err
			}
			out.Timing[i] = float64(v) / 1000.0
			off += 3
		}
	}
	return out, nil
}

// SameAs reports whether two CLUB_RESULT decodes are the byte-identical
// duplicate the shot assembler expects.
func (c ClubResult) SameAs(other ClubResult) bool {
	if len(c.Raw) != len(other.Raw) {
		return false
	}
	for i := range c.Raw {
		if c.Raw[i] != other.Raw[i] {
			return false
		}
	}
	return true
}

// AntennaElement is one of the five radar antenna readings in SPIN_RESULT.
type AntennaElement struct {
	SpinRPM int16
	Peak    float64 // INT24 / 1000
	SNR     int16
}

// SpinResult (0xEF) reports ball spin. Only firmware version 0x89 is
// supported; PMSpinFinal is the authoritative total spin (not any of the
// per-antenna readings) and SpinAxisDeg is in tenths of a degree on the
// wire.
type SpinResult struct {
	Version     byte
	Antennas    [5]AntennaElement
	PMSpinFinal int16
	SpinAxisDeg float64
	Raw         []byte
}

func (SpinResult) WireType() byte { return TypeSpinResult }

func decodeSpinResult(p []byte) (SpinResult, error) {
	if err := checkLen(p, 0, 138, "SpinResult"); err != nil {
		return SpinResult{}, err
	}
	if p[0] != 0x89 {
		return SpinResult{}, &DecodeError{TypeID: TypeSpinResult, Reason: "unsupported SPIN_RESULT version"}
	}
	out := SpinResult{Version: p[0], Raw: clonePayload(p)}
	off := 1
	for i := 0; i < 5; i++ {
		rpm, err := readInt16(p, off)
		if err != nil {
			return SpinResult{}, err
		}
		peak, err := readInt24Scaled(p, off+2, 1000.0)
		if err != nil {
			return SpinResult{}, err
		}
		snr, err := readInt16(p, off+5)
		if err != nil {
			return SpinResult{}, err
		}
		out.Antennas[i] = AntennaElement{SpinRPM: rpm, Peak: peak, SNR: snr}
		off += 7
	}
	pmSpin, err := readInt16(p, 108)
	if err != nil {
		return SpinResult{}, err
	}
	out.PMSpinFinal = pmSpin
	axis, err := readInt16Scaled(p, 132, 10.0)
	if err != nil {
		return SpinResult{}, err
	}
	out.SpinAxisDeg = axis
	return out, nil
}

// SpeedProfile (0xD9) carries a club/ball speed sample trace. A 2-byte
// payload (length byte only) is the stub form and parses to an empty
// sample vector.
type SpeedProfile struct {
	ScaleFactor float64
	Samples     []float64
}

func (SpeedProfile) WireType() byte { return TypeSpeedProfile }

func decodeSpeedProfile(p []byte) (SpeedProfile, error) {
	if len(p) < 12 {
		return SpeedProfile{ScaleFactor: 1.0}, nil
	}
	scaleRaw, err := readInt16(p, 8)
	if err != nil {
		return SpeedProfile{}, err
	}
	scale := float64(scaleRaw)
	if scale == 0 {
		scale = 1.0
	}
	out := SpeedProfile{ScaleFactor: scale}
	for off := 12; off+2 <= len(p); off += 2 {
		v, err := readInt16(p, off)
		if err != nil {
			return SpeedProfile{}, err
		}
		out.Samples = append(out.Samples, float64(v)/scale)
	}
	return out, nil
}

// TrackingStatus (0xE9) is a multi-phase shot-progress update; each
// arrival is appended by the shot assembler in receipt order. Fields
// beyond the processing-iteration byte are only meaningful once
// ProcessingIteration() reaches 2 ("processed"), so the payload is kept
// raw and interpreted lazily.
type TrackingStatus struct {
	Payload []byte
}

func (TrackingStatus) WireType() byte { return TypeTrackingStatus }

func decodeTrackingStatus(p []byte) (TrackingStatus, error) {
	if err := checkLen(p, 0, 48, "TrackingStatus"); err != nil {
		return TrackingStatus{}, err
	}
	return TrackingStatus{Payload: clonePayload(p)}, nil
}

// ProcessingIteration returns the phase byte at wire offset 47.
func (t TrackingStatus) ProcessingIteration() byte {
	if len(t.Payload) > 47 {
		return t.Payload[47]
	}
	return 0
}

// IsProcessed reports whether this update is the final "processed" phase.
func (t TrackingStatus) IsProcessed() bool { return t.ProcessingIteration() == 2 }

// PrcPoint is one 60-byte PRC sub-record, retained raw: the per-sample
// field layout is proprietary and not required for shot assembly, only
// faithful collection and ordering.
type PrcPoint struct {
	Raw []byte
}

// prcScale converts the device's fixed-point PRC position encoding to
// physical units: 10000.0 / 2^23.
const prcScale = 10000.0 / (1 << 23)

// PrcData (0xEC) is a page of ball-tracking sub-records, stride 60.
// Sequence identifies the page for dedup against AVR-side retransmission
// (§4.7): a page is uniquely keyed by (Sequence, sub-record count).
type PrcData struct {
	Sequence int16
	Points   []PrcPoint
}

func (PrcData) WireType() byte { return TypePrcData }

// SubCount is the dedup key's second component: the number of sub-records
// in this page.
func (d PrcData) SubCount() int { return len(d.Points) }

func decodeStridedRecords(p []byte, stride int) (int16, [][]byte, error) {
	if len(p) < 1 {
		return 0, nil, &DecodeError{Reason: "empty PRC payload"}
	}
	header := int(p[0])
	if (header-3)%stride != 0 {
		return 0, nil, &DecodeError{Kind: DecodeUnsupportedPrcVersion, Reason: "unsupported PRC stride"}
	}
	seq, _ := readInt16(p, 1)
	n := (header - 3) / stride
	var recs [][]byte
	off := 3
	for i := 0; i < n && off+stride <= len(p); i++ {
		recs = append(recs, clonePayload(p[off:off+stride]))
		off += stride
	}
	return seq, recs, nil
}

func decodePrcData(p []byte) (PrcData, error) {
	seq, recs, err := decodeStridedRecords(p, 60)
	if err != nil {
		return PrcData{}, err
	}
	out := PrcData{Sequence: seq, Points: make([]PrcPoint, len(recs))}
	for i, r := range recs {
		out.Points[i] = PrcPoint{Raw: r}
	}
	return out, nil
}

// ClubPrcPoint is one 76-byte CLUB_PRC sub-record, retained raw.
type ClubPrcPoint struct {
	Raw []byte
}

// ClubPrc (0xEE) is a page of club-tracking sub-records, stride 76.
// Sequence plays the same dedup role as PrcData.Sequence.
type ClubPrc struct {
	Sequence int16
	Points   []ClubPrcPoint
}

func (ClubPrc) WireType() byte { return TypeClubPrc }

// SubCount is the dedup key's second component: the number of sub-records
// in this page.
func (c ClubPrc) SubCount() int { return len(c.Points) }

func decodeClubPrc(p []byte) (ClubPrc, error) {
	seq, recs, err := decodeStridedRecords(p, 76)
	if err != nil {
		return ClubPrc{}, err
	}
	out := ClubPrc{Sequence: seq, Points: make([]ClubPrcPoint, len(recs))}
	for i, r := range recs {
		out.Points[i] = ClubPrcPoint{Raw: r}
	}
	return out, nil
}

// ClubPrcPageReq requests one page of club-tracking sub-records starting
// at startIndex. encode emits a 77-byte payload: StartIndex big-endian in
// the first two bytes, the remaining 75 bytes zero. This layout is a
// placeholder and has not been checked against a device.
type ClubPrcPageReq struct {
	StartIndex uint16
}

func (c ClubPrcPageReq) wireType() byte { return TypeClubPrc }
func (c ClubPrcPageReq) encode() []byte {
	buf := make([]byte, 77)
	buf[0] = byte(c.StartIndex >> 8)
	buf[1] = byte(c.StartIndex)
	return buf
}

// ShotText (0xE5) is a shot-progress text line, e.g. "PROCESSING" /
// "PROCESSED" / "IDLE" / "BALL TRIGGER".
type ShotText struct {
	Value string
}

func (ShotText) WireType() byte { return TypeShotText }

func decodeShotText(p []byte) (ShotText, error) {
	t, err := decodeText(p)
	if err != nil {
		return ShotText{}, err
	}
	return ShotText{Value: t.Value}, nil
}

func (t ShotText) IsProcessed() bool { return containsSubstr(t.Value, "PROCESSED") }
func (t ShotText) IsIdle() bool      { return containsSubstr(t.Value, "IDLE") }
func (t ShotText) IsTrigger() bool   { return containsSubstr(t.Value, "TRIGGER") }

func containsSubstr(s, substr string) bool {
	return len(substr) == 0 || indexOf(s, substr) >= 0
}

func indexOf(s, substr string) int {
	n, m := len(s), len(substr)
	if m == 0 {
		return 0
	}
	for i := 0; i+m <= n; i++ {
		if s[i:i+m] == substr {
			return i
		}
	}
	return -1
}
