// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mevo

// ModeSet pushes (or echoes) the active detection mode (commsIndex).
type ModeSet struct {
	Mode byte
}

func (ModeSet) WireType() byte   { return TypeModeSet }
func (ModeSet) wireType() byte   { return TypeModeSet }
func (m ModeSet) encode() []byte { return []byte{0x02, 0x00, m.Mode} }

func decodeModeSet(p []byte) (ModeSet, error) {
	if err := checkLen(p, 0, 3, "ModeSet"); err != nil {
		return ModeSet{}, err
	}
	return ModeSet{Mode: p[2]}, nil
}

// AvrConfigCmd is dual-purpose on the wire: Arm=false commits a batch of
// parameter writes, Arm=true is the arm trigger that ends handshake phase 6
// and re-arms after a shot.
type AvrConfigCmd struct {
	Arm bool
}

func (AvrConfigCmd) wireType() byte { return TypeAvrConfigCmd }
func (c AvrConfigCmd) encode() []byte {
	if c.Arm {
		return []byte{0x01, 0x01}
	}
	return []byte{0x01, 0x00}
}

// ParamReadReq requests the current value of a numbered AVR/PI parameter.
type ParamReadReq struct {
	ParamID byte
}

func (c ParamReadReq) wireType() byte { return TypeParamReadReq }
func (c ParamReadReq) encode() []byte { return []byte{0x03, 0x00, 0x00, c.ParamID} }

// ParamData is the value carried by a PARAM_VALUE message: either a scaled
// integer or a FLOAT40, selected by a one-byte discriminator on the wire
// (0x06 = INT24, 0x08 = FLOAT40).
type ParamData struct {
	IsFloat bool
	Int     int32
	Float   float64
}

func IntParam(v int32) ParamData     { return ParamData{IsFloat: false, Int: v} }
func FloatParam(v float64) ParamData { return ParamData{IsFloat: true, Float: v} }

// ParamValue both requests (as a Command) and reports (as a Message) a
// parameter's value.
type ParamValue struct {
	ParamID byte
	Value   ParamData
}

func (ParamValue) WireType() byte { return TypeParamValue }
func (ParamValue) wireType() byte { return TypeParamValue }

func (m ParamValue) encode() []byte {
	buf := make([]byte, 0, 9)
	if m.Value.IsFloat {
		buf = append(buf, 0x08, 0x00, 0x00, m.ParamID)
		buf = writeFloat40(buf, m.Value.Float)
		return buf
	}
	buf = append(buf, 0x06, 0x00, 0x00, m.ParamID)
	buf = writeInt24(buf, m.Value.Int)
	return buf
}

func decodeParamValue(p []byte) (ParamValue, error) {
	if len(p) == 0 {
		return ParamValue{}, &DecodeError{TypeID: TypeParamValue, Reason: "empty payload"}
	}
	switch p[0] {
	case 0x06:
		if err := checkLen(p, 0, 7, "ParamValue/INT24"); err != nil {
			return ParamValue{}, err
		}
		v, err := readInt24(p, 4)
		if err != nil {
			return ParamValue{}, err
		}
		return ParamValue{ParamID: p[3], Value: IntParam(v)}, nil
	case 0x08:
		if err := checkLen(p, 0, 9, "ParamValue/FLOAT40"); err != nil {
			return ParamValue{}, err
		}
		v, err := readFloat40(p, 4)
		if err != nil {
			return ParamValue{}, err
		}
		return ParamValue{ParamID: p[3], Value: FloatParam(v)}, nil
	default:
		return ParamValue{}, &DecodeError{TypeID: TypeParamValue, Reason: "unknown value encoding byte"}
	}
}

// RadarCal configures the radar's expected ball range and sensor height.
type RadarCal struct {
	RangeMM  uint16
	HeightMM byte
}

func (RadarCal) WireType() byte { return TypeRadarCal }
func (RadarCal) wireType() byte { return TypeRadarCal }
func (c RadarCal) encode() []byte {
	buf := []byte{0x06, byte(c.RangeMM >> 8), byte(c.RangeMM), 0x00, c.HeightMM, 0x00, 0x00}
	return buf
}

func decodeRadarCal(p []byte) (RadarCal, error) {
	if err := checkLen(p, 0, 5, "RadarCal"); err != nil {
		return RadarCal{}, err
	}
	rangeMM, err := readUint16(p, 1)
	if err != nil {
		return RadarCal{}, err
	}
	return RadarCal{RangeMM: rangeMM, HeightMM: p[4]}, nil
}

// ConfigResp is the full AVR parameter table snapshot: a one-byte size
// prefix followed by 34 INT16 parameter values.
type ConfigResp struct {
	Params [34]int16
}

func (ConfigResp) WireType() byte { return TypeConfigResp }

func decodeConfigResp(p []byte) (ConfigResp, error) {
	if err := checkLen(p, 0, 69, "ConfigResp"); err != nil {
		return ConfigResp{}, err
	}
	var out ConfigResp
	for i := 0; i < 34; i++ {
		v, err := readInt16(p, 1+i*2)
		if err != nil {
			return ConfigResp{}, err
		}
		out.Params[i] = v
	}
	return out, nil
}

// AvrConfigResp is the AVR firmware configuration response; layout beyond
// the version byte is firmware-internal and retained raw.
type AvrConfigResp struct {
	Payload []byte
}

func (AvrConfigResp) WireType() byte { return TypeAvrConfigResp }

// Version returns the AVR hardware generation (1 = Mevo+, 2 = Gen2).
func (m AvrConfigResp) Version() byte {
	if len(m.Payload) > 1 {
		return m.Payload[1]
	}
	return 0
}

func decodeAvrConfigResp(p []byte) (AvrConfigResp, error) {
	return AvrConfigResp{Payload: clonePayload(p)}, nil
}
