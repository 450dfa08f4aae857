// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mevo

import "strings"

// StatusPollCmd is the periodic keepalive/handshake status poll, sent with
// a bus-specific second byte: 0x01 for DSP and AVR, 0x03 for PI.
type StatusPollCmd struct {
	Second byte
}

func NewStatusPoll(second byte) StatusPollCmd { return StatusPollCmd{Second: second} }

func (StatusPollCmd) wireType() byte        { return TypeStatus }
func (c StatusPollCmd) encode() []byte      { return []byte{0x01, c.Second} }

// AvrStatus is the AVR's periodic status push: firmware version, IMU tilt
// and roll, full application ID, and board temperature.
type AvrStatus struct {
	Version     byte
	State       byte
	HwIDHi      byte
	HwIDLo      byte
	FullAppID   int32
	Temperature float64 // degrees C
	Tilt        float64 // degrees
	Roll        float64 // degrees
}

func (AvrStatus) WireType() byte { return TypeStatus }

func decodeAvrStatus(p []byte) (AvrStatus, error) {
	if err := checkLen(p, 0, 25, "AvrStatus"); err != nil {
		return AvrStatus{}, err
	}
	fullAppID, err := readInt24(p, 8)
	if err != nil {
		return AvrStatus{}, err
	}
	temp, err := readFloat40(p, 10)
	if err != nil {
		return AvrStatus{}, err
	}
	tilt, err := readFloat40(p, 15)
	if err != nil {
		return AvrStatus{}, err
	}
	roll, err := readFloat40(p, 20)
	if err != nil {
		return AvrStatus{}, err
	}
	return AvrStatus{
		Version:     p[0],
		State:       p[1],
		HwIDHi:      p[2],
		HwIDLo:      p[3],
		FullAppID:   fullAppID,
		Temperature: temp,
		Tilt:        tilt,
		Roll:        roll,
	}, nil
}

// DspStatus is the versioned-enum DSP status push: firmware generations
// differ in payload shape, dispatched on payload[0] (0x80 = current
// layout). Callers use the interface's helper methods rather than
// switching on the concrete type, so an unrecognised version degrades to
// zero-value defaults instead of a decode failure.
type DspStatus interface {
	Message
	BatteryPercent() uint8
	ExternalPower() bool
	TemperatureC() float64
}

// DspStatusV80 is the current (0x80) DSP status layout.
type DspStatusV80 struct {
	State            byte
	InputVoltageUSB  int16
	SystemVoltage    int16
	BatteryCurrent   int16
	TemperatureRaw   int16
	BatteryVoltage   int16
	BatteryVoltage2  int16
	PowerLevel       int16
	ExternalPowerSet bool
}

func (DspStatusV80) WireType() byte         { return TypeStatus }
func (d DspStatusV80) TemperatureC() float64 { return float64(d.TemperatureRaw) / 100.0 }
func (d DspStatusV80) BatteryPercent() uint8  { return uint8(uint16(d.PowerLevel) >> 8) }
func (d DspStatusV80) ExternalPower() bool    { return d.ExternalPowerSet }

// DspStatusV46 is an older/short DSP status layout; fields beyond state and
// version are not decoded and the raw payload is retained for debugging.
type DspStatusV46 struct {
	State   byte
	Version byte
	Payload []byte
}

func (DspStatusV46) WireType() byte          { return TypeStatus }
func (DspStatusV46) TemperatureC() float64    { return 0 }
func (DspStatusV46) BatteryPercent() uint8    { return 0 }
func (DspStatusV46) ExternalPower() bool      { return false }

func decodeDspStatus(p []byte) (DspStatus, error) {
	if len(p) > 0 && p[0] == 0x80 {
		if err := checkLen(p, 0, 64, "DspStatusV80"); err != nil {
			return nil, err
		}
		inputV, err := readInt16(p, 4)
		if err != nil {
			return nil, err
		}
		sysV, err := readInt16(p, 8)
		if err != nil {
			return nil, err
		}
		batCurrent, err := readInt16(p, 18)
		if err != nil {
			return nil, err
		}
		tempRaw, err := readInt16(p, 40)
		if err != nil {
			return nil, err
		}
		batV, err := readInt16(p, 53)
		if err != nil {
			return nil, err
		}
		batV2, err := readInt16(p, 57)
		if err != nil {
			return nil, err
		}
		power, err := readInt16(p, 61)
		if err != nil {
			return nil, err
		}
		return DspStatusV80{
			State:            p[1],
			InputVoltageUSB:  inputV,
			SystemVoltage:    sysV,
			BatteryCurrent:   batCurrent,
			TemperatureRaw:   tempRaw,
			BatteryVoltage:   batV,
			BatteryVoltage2:  batV2,
			PowerLevel:       power,
			ExternalPowerSet: p[63] != 0,
		}, nil
	}
	if err := checkLen(p, 0, 2, "DspStatusV46"); err != nil {
		return nil, err
	}
	return DspStatusV46{State: p[0], Version: p[1], Payload: clonePayload(p)}, nil
}

// PiStatus is the PI's periodic status push; the payload layout is not
// publicly documented so it is retained raw.
type PiStatus struct {
	Payload []byte
}

func (PiStatus) WireType() byte { return TypeStatus }

func decodePiStatus(p []byte) (PiStatus, error) {
	return PiStatus{Payload: clonePayload(p)}, nil
}

// ConfigAck acknowledges a previously sent command, identified by its low 7
// bits (the ack type is the request type with the high bit stripped). Nack
// is set when this decoded a TYPE_CONFIG_NACK frame instead.
type ConfigAck struct {
	BusAddr  byte
	AckedCmd byte
	Nack     bool
}

func (ConfigAck) WireType() byte { return TypeConfigAck }

func decodeConfigAck(p []byte) (ConfigAck, error) {
	if err := checkLen(p, 0, 3, "ConfigAck"); err != nil {
		return ConfigAck{}, err
	}
	return ConfigAck{BusAddr: p[1], AckedCmd: p[2] & 0x7F}, nil
}

// ModeAck echoes a MODE_SET / arm commit; payload is always [02 00 00].
type ModeAck struct{}

func (ModeAck) WireType() byte { return TypeModeAck }

func decodeModeAck(p []byte) (ModeAck, error) {
	if err := checkLen(p, 0, 3, "ModeAck"); err != nil {
		return ModeAck{}, err
	}
	return ModeAck{}, nil
}

// Text is a human-readable status/event line pushed by AVR or DSP (e.g.
// "ARMED DetectionMode", "BALL TRIGGER", "PROCESSED", "IDLE"). Leading and
// trailing control bytes (<0x20) are stripped.
type Text struct {
	Value string
}

func (Text) WireType() byte { return TypeText }

func decodeText(p []byte) (Text, error) {
	start := 0
	for start < len(p) && p[start] < 0x20 {
		start++
	}
	end := len(p)
	for end > start && p[end-1] < 0x20 {
		end--
	}
	return Text{Value: string(p[start:end])}, nil
}

// Contains reports whether the text contains substr, a convenience used
// throughout the handshake/session drivers for matching against the
// device's free-form status lines.
func (t Text) Contains(substr string) bool {
	return strings.Contains(t.Value, substr)
}
