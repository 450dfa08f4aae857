// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mevo

import "time"

// handshakeDriver runs the six-phase handshake state machine from §4.5,
// one sequencer step at a time. A single failure in any phase is fatal;
// the caller (Client) transitions to Faulted.
type handshakeDriver struct {
	c       *Client
	phase   Phase
	seq     *sequencer
	results handshakeResults
}

// handshakeResults accumulates values later phases (or the session
// driver) need: the device generation detected in phase 1, the Pi's
// param readback, etc.
type handshakeResults struct {
	deviceGen DeviceGen
}

func newHandshakeDriver(c *Client) *handshakeDriver {
	d := &handshakeDriver{c: c, phase: PhaseDsp}
	d.seq = buildHandshakePhase(c, &d.results, PhaseDsp)
	return d
}

func nextHandshakePhase(p Phase) Phase {
	switch p {
	case PhaseDsp:
		return PhaseAvr
	case PhaseAvr:
		return PhasePi
	case PhasePi:
		return PhasePostSyncConfig
	case PhasePostSyncConfig:
		return PhasePiPostConfig
	case PhasePiPostConfig:
		return PhaseArming
	default:
		return PhaseArmed
	}
}

// advance performs one unit of work. done=true means the whole handshake
// (all six phases) completed and the client should transition to Armed.
func (d *handshakeDriver) advance() ([]Event, bool, error) {
	outcome, err := d.seq.advance(d.c)
	if err != nil {
		return nil, false, err
	}
	if outcome != seqAllDone {
		return nil, false, nil
	}
	if d.phase == PhaseArming {
		return nil, true, nil
	}
	d.phase = nextHandshakePhase(d.phase)
	d.seq = buildHandshakePhase(d.c, &d.results, d.phase)
	return nil, false, nil
}

func respType(id byte) func(fr Frame) bool {
	return func(fr Frame) bool { return fr.TypeID == id }
}

func anyOf(ids ...byte) func(fr Frame) bool {
	set := make(map[byte]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return func(fr Frame) bool { return set[fr.TypeID] }
}

func buildHandshakePhase(c *Client, res *handshakeResults, phase Phase) *sequencer {
	wait := c.cfg.ExchangeTimeout
	switch phase {
	case PhaseDsp:
		return newSequencer(dspPhaseSteps(res), wait)
	case PhaseAvr:
		return newSequencer(avrPhaseSteps(), wait)
	case PhasePi:
		return newSequencer(piPhaseSteps(c.cfg), wait)
	case PhasePostSyncConfig:
		return newSequencer(postSyncConfigSteps(c.cfg), wait)
	case PhasePiPostConfig:
		return newSequencer(piPostConfigSteps(), wait)
	default: // Arming
		return newSequencer(armingSteps(), wait)
	}
}

// dspPhaseSteps implements §4.5 phase 1.
func dspPhaseSteps(res *handshakeResults) []step {
	return []step{
		{bus: AddrDsp, build: func() Command { return NewStatusPoll(0x01) }, match: respType(TypeStatus)},
		{bus: AddrDsp, build: func() Command { return dspQueryCmd{} }, match: respType(TypeDspQueryResp),
			onRecv: func(fr Frame, m Message) {
				if q, ok := m.(DspQueryResp); ok {
					res.deviceGen = q.DeviceGen()
				}
			}},
		{bus: AddrDsp, build: func() Command { return devInfoReqCmd{} }, match: respType(TypeDevInfoResp)},
		{bus: AddrDsp, build: func() Command { return ProdInfoReq{SubQuery: 0x00} }, match: respType(TypeProdInfo)},
		{bus: AddrDsp, build: func() Command { return ProdInfoReq{SubQuery: 0x08} }, match: respType(TypeProdInfo)},
		{bus: AddrDsp, build: func() Command { return ProdInfoReq{SubQuery: 0x09} }, match: respType(TypeProdInfo)},
		{bus: AddrDsp, build: func() Command { return configQueryCmd{} }, match: respType(TypeConfigResp)},
	}
}

// avrPhaseSteps implements §4.5 phase 2.
func avrPhaseSteps() []step {
	return []step{
		{bus: AddrAvr, build: func() Command { return NewStatusPoll(0x01) }, match: respType(TypeStatus)},
		{bus: AddrAvr, build: func() Command { return NewStatusPoll(0x01) }, match: respType(TypeStatus)},
		{bus: AddrAvr, build: func() Command { return devInfoReqCmd{} }, match: respType(TypeDevInfoResp)},
		{bus: AddrAvr, build: func() Command { return devInfoReqCmd{} }, match: respType(TypeDevInfoResp)},
		{bus: AddrAvr, build: func() Command { return ParamReadReq{ParamID: 0x0C} }, match: respType(TypeParamValue)},
		{bus: AddrAvr, build: func() Command { return ParamReadReq{ParamID: 0x0D} }, match: respType(TypeParamValue)},
		{bus: AddrAvr, build: func() Command { return configQueryCmd{} }, match: respType(TypeConfigResp)},
		{bus: AddrAvr, build: func() Command { return NewFactoryCalDataReq() }, match: respType(TypeCalDataResp)},
		{bus: AddrAvr, build: func() Command { return CalParamReq{} }, match: respType(TypeCalParamResp)},
		{bus: AddrAvr, build: func() Command { return avrConfigQueryCmd{} }, match: respType(TypeAvrConfigResp)},
		{bus: AddrAvr, build: func() Command { return ParamReadReq{ParamID: 0x64} }, match: respType(TypeParamValue)},
		{bus: AddrAvr, build: func() Command { return TimeSync{Epoch: uint32(time.Now().Unix())} }, match: respType(TypeConfigAck)},
	}
}

// piPhaseSteps implements §4.5 phase 3. The Pi's first status response is
// exempt from the nominal timeout budget (up to ~120ms is expected).
func piPhaseSteps(cfg Config) []step {
	steps := []step{
		{bus: AddrPi, build: func() Command { return NewStatusPoll(0x03) }, match: respType(TypeStatus), timeout: 200 * time.Millisecond},
		{bus: AddrPi, build: func() Command { return devInfoReqCmd{} }, match: respType(TypeDevInfoResp)},
		{bus: AddrPi, build: func() Command { return ParamReadReq{ParamID: 0x0A} }, match: respType(TypeParamValue)},
		{bus: AddrPi, build: func() Command { return CamConfigReq{} }, match: respType(TypeCamConfig)},
		{bus: AddrPi, build: func() Command { return CamConfigReq{} }, match: respType(TypeCamConfig)},
		{bus: AddrPi, build: func() Command { return NetConfigReq{QueryPassword: false} }, match: respType(TypeNetConfig)},
		{bus: AddrPi, build: func() Command { return NetConfigReq{QueryPassword: true} }, match: respType(TypeNetConfig)},
	}
	for i := 0; i < 12; i++ {
		steps = append(steps, step{
			bus:   AddrPi,
			build: func() Command { return SensorAct{Payload: []byte{byte(i)}} },
			match: respType(TypeSensorActResp),
			skip:  func() bool { return cfg.SkipSensorActivation },
		})
	}
	steps = append(steps, step{
		bus:   AddrPi,
		build: func() Command { return wifiScanReqCmd{} },
		match: respType(TypeWifiScan),
		skip:  func() bool { return cfg.SkipWifiScan },
	})
	for _, id := range []byte{0x0B, 0x03, 0x04, 0x05} {
		pid := id
		steps = append(steps, step{bus: AddrPi, build: func() Command { return ParamReadReq{ParamID: pid} }, match: respType(TypeParamValue)})
	}
	return steps
}

// postSyncConfigSteps implements §4.5 phase 4: apply writable parameters,
// set mode, set radar calibration, each gated by a CONFIG_ACK. Timeouts
// retry with backoff 200/300/600 ms.
func postSyncConfigSteps(cfg Config) []step {
	backoff := []time.Duration{200 * time.Millisecond, 300 * time.Millisecond, 600 * time.Millisecond}
	configAck := func(expect byte) func(fr Frame) bool {
		return func(fr Frame) bool {
			if fr.TypeID != TypeConfigAck || len(fr.Payload) < 3 {
				return false
			}
			return fr.Payload[2]&0x7F == expect
		}
	}

	writeParam := func(id byte, val ParamData) []step {
		return []step{
			{bus: AddrAvr, build: func() Command { return ParamValue{ParamID: id, Value: val} },
				match: configAck(0x3F), timeout: 200 * time.Millisecond, backoff: backoff},
			{bus: AddrAvr, build: func() Command { return commitConfigCmd{} },
				match: configAck(0x30), timeout: 200 * time.Millisecond, backoff: backoff},
		}
	}

	var steps []step
	steps = append(steps, writeParam(0x06, IntParam(int32(cfg.BallType)))...)
	steps = append(steps, writeParam(0x0F, FloatParam(cfg.MinTrackPercent))...)
	steps = append(steps, writeParam(0x26, FloatParam(cfg.TeeHeightM))...)

	steps = append(steps,
		step{bus: AddrAvr, build: func() Command { return ModeSet{Mode: cfg.Mode} }, match: anyOf(TypeModeSet)},
		step{bus: AddrAvr, build: func() Command { return commitConfigCmd{} }, match: configAck(0x30), timeout: 200 * time.Millisecond, backoff: backoff},
		step{bus: AddrAvr, build: func() Command { return RadarCal{RangeMM: uint16(cfg.SensorToTeeMM), HeightMM: byte(cfg.SurfaceHeightInches * 25.4)} }, match: anyOf(TypeRadarCal)},
		step{bus: AddrAvr, build: func() Command { return commitConfigCmd{} }, match: configAck(0x30), timeout: 200 * time.Millisecond, backoff: backoff},
	)
	return steps
}

// piPostConfigSteps implements §4.5 phase 5.
func piPostConfigSteps() []step {
	configAck := func(expect byte) func(fr Frame) bool {
		return func(fr Frame) bool {
			if fr.TypeID != TypeConfigAck || len(fr.Payload) < 3 {
				return false
			}
			return fr.Payload[2]&0x7F == expect
		}
	}
	cfgStep := func() []step {
		return []step{
			{bus: AddrPi, build: func() Command { return defaultCamConfig() }, match: configAck(0x02)},
			{bus: AddrPi, build: func() Command { return CamConfigReq{} }, match: respType(TypeCamConfig)},
			{bus: AddrPi, build: func() Command { return CamState{State: 0x01} }, match: configAck(0x01)},
		}
	}
	steps := cfgStep()
	steps = append(steps, cfgStep()...)
	steps = append(steps, step{
		bus:   AddrPi,
		build: func() Command { return ParamValue{ParamID: 0x02, Value: IntParam(10)} },
		match: configAck(0x3F),
	})
	return steps
}

// armingSteps implements §4.5 phase 6.
func armingSteps() []step {
	return []step{
		{bus: AddrDsp, build: func() Command { return NewStatusPoll(0x01) }, match: respType(TypeStatus)},
		{bus: AddrAvr, build: func() Command { return armConfigCmd{} }, match: respType(TypeConfigAck)},
		{bus: AddrPi, build: func() Command { return NewStatusPoll(0x03) }, match: respType(TypeStatus)},
		{bus: AddrAvr, match: func(fr Frame) bool {
			if fr.TypeID != TypeText {
				return false
			}
			t, err := decodeText(fr.Payload)
			return err == nil && t.Contains("ARMED DetectionMode")
		}},
	}
}

// The handshake sends a handful of request shapes that have no
// dedicated Message type because the response is decoded by a sibling
// type (status poll's reply is AvrStatus/DspStatus/PiStatus keyed on
// TYPE_STATUS + source bus, not on the request).

type dspQueryCmd struct{}

func (dspQueryCmd) wireType() byte { return TypeDspQuery }
func (dspQueryCmd) encode() []byte { return []byte{0x00} }

type devInfoReqCmd struct{}

func (devInfoReqCmd) wireType() byte { return TypeDevInfoReq }
func (devInfoReqCmd) encode() []byte { return []byte{0x00} }

type configQueryCmd struct{}

func (configQueryCmd) wireType() byte { return TypeConfigQuery }
func (configQueryCmd) encode() []byte { return []byte{0x00} }

type avrConfigQueryCmd struct{}

func (avrConfigQueryCmd) wireType() byte { return TypeAvrConfigQuery }
func (avrConfigQueryCmd) encode() []byte { return []byte{0x00} }

type wifiScanReqCmd struct{}

func (wifiScanReqCmd) wireType() byte { return TypeWifiScan }
func (wifiScanReqCmd) encode() []byte { return []byte{0x00} }

// commitConfigCmd is CONFIG [01 00]: commit a previously written
// parameter without arming.
type commitConfigCmd struct{}

func (commitConfigCmd) wireType() byte { return TypeAvrConfigCmd }
func (commitConfigCmd) encode() []byte { return []byte{0x01, 0x00} }

// armConfigCmd is CONFIG [01 01]: the arm trigger.
type armConfigCmd struct{}

func (armConfigCmd) wireType() byte { return TypeAvrConfigCmd }
func (armConfigCmd) encode() []byte { return []byte{0x01, 0x01} }

// defaultCamConfig is the camera configuration pushed during phase 5,
// matching the reference default profile (1080p, 30fps capture with a
// faster streaming preview, default ring-buffer timing).
func defaultCamConfig() CamConfig {
	return CamConfig{
		DynamicConfig:                         true,
		ResolutionWidth:                       1920,
		ResolutionHeight:                      1080,
		Rotation:                              0,
		EV:                                    0,
		Quality:                               90,
		Framerate:                             30,
		StreamingFramerate:                    60,
		RingbufferPretimeMs:                   500,
		RingbufferPosttimeMs:                  500,
		RawCameraMode:                         1,
		FusionCameraMode:                      true,
		RawShutterSpeedMax:                    2000.0,
		RawEvRoiX:                             0,
		RawEvRoiY:                             0,
		RawEvRoiWidth:                         1920,
		RawEvRoiHeight:                        1080,
		RawXOffset:                            0,
		RawBin44:                              false,
		RawLivePreviewWriteIntervalMs:         33,
		RawYOffset:                            0,
		BufferSubSamplingPreTriggerDiv:        1,
		BufferSubSamplingPostTriggerDiv:       1,
		BufferSubSamplingSwitchTimeOffset:     0.0,
		BufferSubSamplingTotalBufferSize:      300,
		BufferSubSamplingPreTriggerBufferSize: 100,
	}
}
