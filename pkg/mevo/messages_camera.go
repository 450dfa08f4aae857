// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mevo

// CamState pushes (or echoes) the camera subsystem's activation state.
type CamState struct {
	State byte
}

func (CamState) WireType() byte { return TypeCamState }
func (CamState) wireType() byte { return TypeCamState }
func (c CamState) encode() []byte {
	return []byte{0x01, c.State}
}

func decodeCamState(p []byte) (CamState, error) {
	if err := checkLen(p, 0, 2, "CamState"); err != nil {
		return CamState{}, err
	}
	return CamState{State: p[1]}, nil
}

// CamConfig is the camera subsystem configuration block: resolution,
// exposure, ring-buffer timing, and the raw/fusion sub-sampling knobs.
// Field order mirrors the reference default configuration; two fields
// (RawShutterSpeedMax, BufferSubSamplingSwitchTimeOffset) are FLOAT40, the
// rest are small fixed-width integers/booleans.
type CamConfig struct {
	DynamicConfig                         bool
	ResolutionWidth                       uint16
	ResolutionHeight                      uint16
	Rotation                              byte
	EV                                    int8
	Quality                               byte
	Framerate                             byte
	StreamingFramerate                    byte
	RingbufferPretimeMs                   uint16
	RingbufferPosttimeMs                  uint16
	RawCameraMode                         byte
	FusionCameraMode                      bool
	RawShutterSpeedMax                    float64
	RawEvRoiX                             uint16
	RawEvRoiY                             uint16
	RawEvRoiWidth                         uint16
	RawEvRoiHeight                        uint16
	RawXOffset                            uint16
	RawBin44                              bool
	RawLivePreviewWriteIntervalMs         uint16
	RawYOffset                            uint16
	BufferSubSamplingPreTriggerDiv        byte
	BufferSubSamplingPostTriggerDiv       byte
	BufferSubSamplingSwitchTimeOffset     float64
	BufferSubSamplingTotalBufferSize      uint16
	BufferSubSamplingPreTriggerBufferSize uint16
}

func (CamConfig) WireType() byte { return TypeCamConfig }
func (CamConfig) wireType() byte { return TypeCamConfig }

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// encode prepends a size marker byte (0x33, matching the device's own
// push framing) before the field sequence.
func (c CamConfig) encode() []byte {
	buf := make([]byte, 0, 48)
	buf = append(buf, 0x33)
	buf = append(buf, boolByte(c.DynamicConfig))
	buf = writeUint16(buf, c.ResolutionWidth)
	buf = writeUint16(buf, c.ResolutionHeight)
	buf = append(buf, c.Rotation, byte(c.EV), c.Quality, c.Framerate, c.StreamingFramerate)
	buf = writeUint16(buf, c.RingbufferPretimeMs)
	buf = writeUint16(buf, c.RingbufferPosttimeMs)
	buf = append(buf, c.RawCameraMode, boolByte(c.FusionCameraMode))
	buf = writeFloat40(buf, c.RawShutterSpeedMax)
	buf = writeUint16(buf, c.RawEvRoiX)
	buf = writeUint16(buf, c.RawEvRoiY)
	buf = writeUint16(buf, c.RawEvRoiWidth)
	buf = writeUint16(buf, c.RawEvRoiHeight)
	buf = writeUint16(buf, c.RawXOffset)
	buf = append(buf, boolByte(c.RawBin44))
	buf = writeUint16(buf, c.RawLivePreviewWriteIntervalMs)
	buf = writeUint16(buf, c.RawYOffset)
	buf = append(buf, c.BufferSubSamplingPreTriggerDiv, c.BufferSubSamplingPostTriggerDiv)
	buf = writeFloat40(buf, c.BufferSubSamplingSwitchTimeOffset)
	buf = writeUint16(buf, c.BufferSubSamplingTotalBufferSize)
	buf = writeUint16(buf, c.BufferSubSamplingPreTriggerBufferSize)
	return buf
}

func decodeCamConfig(p []byte) (CamConfig, error) {
	if err := checkLen(p, 0, 48, "CamConfig"); err != nil {
		return CamConfig{}, err
	}
	off := 1
	readU16 := func() (uint16, error) {
		v, err := readUint16(p, off)
		off += 2
		return v, err
	}
	readF40 := func() (float64, error) {
		v, err := readFloat40(p, off)
		off += 5
		return v, err
	}
	var c CamConfig
	c.DynamicConfig = p[off] != 0
	off++
	var err error
	if c.ResolutionWidth, err = readU16(); err != nil {
		return CamConfig{}, err
	}
	if c.ResolutionHeight, err = readU16(); err != nil {
		return CamConfig{}, err
	}
	c.Rotation, c.EV, c.Quality, c.Framerate, c.StreamingFramerate = p[off], int8(p[off+1]), p[off+2], p[off+3], p[off+4]
	off += 5
	if c.RingbufferPretimeMs, err = readU16(); err != nil {
		return CamConfig{}, err
	}
	if c.RingbufferPosttimeMs, err = readU16(); err != nil {
		return CamConfig{}, err
	}
	c.RawCameraMode, c.FusionCameraMode = p[off], p[off+1] != 0
	off += 2
	if c.RawShutterSpeedMax, err = readF40(); err != nil {
		return CamConfig{}, err
	}
	if c.RawEvRoiX, err = readU16(); err != nil {
		return CamConfig{}, err
	}
	if c.RawEvRoiY, err = readU16(); err != nil {
		return CamConfig{}, err
	}
	if c.RawEvRoiWidth, err = readU16(); err != nil {
		return CamConfig{}, err
	}
	if c.RawEvRoiHeight, err = readU16(); err != nil {
		return CamConfig{}, err
	}
	if c.RawXOffset, err = readU16(); err != nil {
		return CamConfig{}, err
	}
	c.RawBin44 = p[off] != 0
	off++
	if c.RawLivePreviewWriteIntervalMs, err = readU16(); err != nil {
		return CamConfig{}, err
	}
	if c.RawYOffset, err = readU16(); err != nil {
		return CamConfig{}, err
	}
	c.BufferSubSamplingPreTriggerDiv, c.BufferSubSamplingPostTriggerDiv = p[off], p[off+1]
	off += 2
	if c.BufferSubSamplingSwitchTimeOffset, err = readF40(); err != nil {
		return CamConfig{}, err
	}
	if c.BufferSubSamplingTotalBufferSize, err = readU16(); err != nil {
		return CamConfig{}, err
	}
	if c.BufferSubSamplingPreTriggerBufferSize, err = readU16(); err != nil {
		return CamConfig{}, err
	}
	return c, nil
}

// CamConfigReq requests the current camera configuration; always [02 01 05].
type CamConfigReq struct{}

func (CamConfigReq) wireType() byte { return TypeCamConfigReq }
func (CamConfigReq) encode() []byte { return []byte{0x02, 0x01, 0x05} }

// CamImageAvail reports whether streaming/fusion/video capture buffers are
// ready, with optional ISO timestamps for the long form (67 bytes,
// payload[0] == 0x42). The short form (2 bytes) carries only the
// streaming flag.
type CamImageAvail struct {
	StreamingAvailable bool
	FusionAvailable    bool
	VideoAvailable     bool
	StreamingTimestamp string // empty if not present
	FusionTimestamp    string
}

func (CamImageAvail) WireType() byte { return TypeCamImageAvail }

func parseNullPadded(slot []byte) string {
	end := len(slot)
	for i, b := range slot {
		if b == 0 {
			end = i
			break
		}
	}
	return string(slot[:end])
}

func decodeCamImageAvail(p []byte) (CamImageAvail, error) {
	if len(p) >= 67 && p[0] == 0x42 {
		flags := p[1]
		out := CamImageAvail{
			StreamingAvailable: flags&0x01 != 0,
			FusionAvailable:    flags&0x02 != 0,
			VideoAvailable:     flags&0x04 != 0,
		}
		out.StreamingTimestamp = parseNullPadded(p[3:35])
		out.FusionTimestamp = parseNullPadded(p[35:67])
		return out, nil
	}
	if err := checkLen(p, 0, 1, "CamImageAvail"); err != nil {
		return CamImageAvail{}, err
	}
	return CamImageAvail{StreamingAvailable: p[0] != 0}, nil
}

// SensorAct pushes one chunk of the radar sensor-activation certificate
// exchange (12 chunks during handshake phase 3); payload is opaque.
type SensorAct struct {
	Payload []byte
}

func (c SensorAct) wireType() byte { return TypeSensorAct }
func (c SensorAct) encode() []byte { return c.Payload }

// SensorActResp carries the device's base64-encoded activation certificate
// response, retained raw.
type SensorActResp struct {
	Payload []byte
}

func (SensorActResp) WireType() byte { return TypeSensorActResp }

func decodeSensorActResp(p []byte) (SensorActResp, error) {
	return SensorActResp{Payload: clonePayload(p)}, nil
}
