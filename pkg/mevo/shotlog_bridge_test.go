// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mevo

import "testing"

func TestToRecordPrefersFlightResultOverV1(t *testing.T) {
	fr := FlightResult{BallSpeedMS: 45.0, CarryDistanceM: 220.0}
	frv1 := FlightResultV1{BallSpeedMS: 99.0}
	ev := ShotEvent{FlightResult: &fr, FlightResultV1: &frv1}

	rec := ToRecord(ev, 7, 1234, ModeOutdoor)
	if rec.BallSpeedMS != 45.0 {
		t.Errorf("BallSpeedMS = %v, want the FlightResult value 45.0", rec.BallSpeedMS)
	}
	if rec.SequenceNumber != 7 || rec.UnixTimeMs != 1234 || rec.Mode != ModeOutdoor {
		t.Errorf("bookkeeping fields not preserved: %+v", rec)
	}
}

func TestToRecordFallsBackToV1(t *testing.T) {
	frv1 := FlightResultV1{BallSpeedMS: 30.0, CarryDistanceM: 180.0}
	ev := ShotEvent{FlightResultV1: &frv1}

	rec := ToRecord(ev, 1, 0, ModeIndoor)
	if rec.BallSpeedMS != 30.0 || rec.CarryDistanceM != 180.0 {
		t.Errorf("expected FlightResultV1 fields to populate the record, got %+v", rec)
	}
}

func TestToRecordZeroValueWhenNeitherArrived(t *testing.T) {
	rec := ToRecord(ShotEvent{}, 1, 0, ModeOutdoor)
	if rec.BallSpeedMS != 0 || rec.CarryDistanceM != 0 {
		t.Errorf("expected zero-value record, got %+v", rec)
	}
}
