// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mevo

import "github.com/divotmaker/ironsight/pkg/mevo/shotlog"

// ToRecord flattens a ShotEvent into the physical-units-only shape
// shotlog persists. Fields whose source message never arrived are left
// zero rather than guessed.
func ToRecord(ev ShotEvent, seq uint64, unixTimeMs int64, mode byte) shotlog.Record {
	rec := shotlog.Record{
		SequenceNumber: seq,
		UnixTimeMs:     unixTimeMs,
		Mode:           mode,
	}
	if ev.FlightResult != nil {
		fr := ev.FlightResult
		rec.BallSpeedMS = fr.BallSpeedMS
		rec.LaunchAngleDeg = fr.LaunchAngleDeg
		rec.AzimuthDeg = fr.AzimuthDeg
		rec.BackSpinRPM = fr.BackSpinRPM
		rec.SideSpinRPM = fr.SideSpinRPM
		rec.CarryDistanceM = fr.CarryDistanceM
		rec.TotalDistanceM = fr.TotalDistanceM
		rec.ClubSpeedMS = fr.ClubSpeedMS
	} else if ev.FlightResultV1 != nil {
		fr := ev.FlightResultV1
		rec.BallSpeedMS = fr.BallSpeedMS
		rec.LaunchAngleDeg = fr.LaunchAngleDeg
		rec.AzimuthDeg = fr.AzimuthDeg
		rec.BackSpinRPM = fr.BackSpinRPM
		rec.SideSpinRPM = fr.SideSpinRPM
		rec.CarryDistanceM = fr.CarryDistanceM
		rec.TotalDistanceM = fr.TotalDistanceM
	}
	return rec
}
