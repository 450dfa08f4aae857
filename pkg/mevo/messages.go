// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mevo

// Message is any device->APP message this client understands or retains
// in raw form. Implementations are value types produced by decodeMessage.
type Message interface {
	WireType() byte
}

// Command is any APP->device message this client can send.
type Command interface {
	wireType() byte
	encode() []byte
}

// BuildFrame encodes a Command addressed to dest, from the APP.
func BuildFrame(dest BusAddr, cmd Command) []byte {
	return encodeFrame(dest, AddrApp, cmd.wireType(), cmd.encode())
}

// Unknown retains the raw bytes of a frame whose type this client does not
// recognise, so forward-compatible callers can still observe it.
type Unknown struct {
	TypeID  byte
	Src     BusAddr
	Payload []byte
}

func (Unknown) WireType() byte { return 0 }

// DspDebug carries Gen2 DSP debug output (VT100 terminal text). Logged and
// otherwise ignored by the session driver.
type DspDebug struct {
	Payload []byte
}

func (DspDebug) WireType() byte { return TypeDspDebug }

// WifiScan carries a single page of a paginated WiFi scan response. Raw;
// the handshake driver only needs to know pagination completed.
type WifiScan struct {
	Payload []byte
}

func (WifiScan) WireType() byte { return TypeWifiScan }

// DecodeMessage exposes decodeMessage to callers outside the package that
// need to inspect arbitrary frames directly (diagnostics, raw logging)
// rather than going through a Client's session/handshake drivers.
func DecodeMessage(fr Frame) (Message, error) {
	return decodeMessage(fr)
}

// decodeMessage decodes a Frame's payload into its typed Message, dispatching
// on type ID (and, for TYPE_STATUS, on source bus). Unrecognised type IDs
// decode to Unknown rather than failing: per spec.md §7,
// Decode.UnknownType is not an error.
func decodeMessage(fr Frame) (Message, error) {
	p := fr.Payload
	switch fr.TypeID {
	case TypeStatus:
		switch fr.Src {
		case AddrAvr:
			return decodeAvrStatus(p)
		case AddrDsp:
			return decodeDspStatus(p)
		case AddrPi:
			return decodePiStatus(p)
		default:
			return Unknown{TypeID: fr.TypeID, Src: fr.Src, Payload: clonePayload(p)}, nil
		}
	case TypeConfigAck:
		m, err := decodeConfigAck(p)
		return m, err
	case TypeConfigNack:
		m, err := decodeConfigAck(p)
		if err != nil {
			return nil, err
		}
		m.Nack = true
		return m, nil
	case TypeModeAck:
		return decodeModeAck(p)
	case TypeText:
		return decodeText(p)
	case TypeModeSet:
		return decodeModeSet(p)
	case TypeParamValue:
		return decodeParamValue(p)
	case TypeRadarCal:
		return decodeRadarCal(p)
	case TypeConfigResp:
		return decodeConfigResp(p)
	case TypeAvrConfigResp:
		return decodeAvrConfigResp(p)
	case TypeDspQueryResp:
		return decodeDspQueryResp(p)
	case TypeDevInfoResp:
		return decodeDevInfoResp(p)
	case TypeProdInfo:
		return decodeProdInfoResp(p)
	case TypeNetConfig:
		return decodeNetConfigResp(p)
	case TypeCalParamResp:
		return decodeCalParamResp(p)
	case TypeCalDataResp:
		return decodeCalDataResp(p)
	case TypeTimeSync:
		return decodeTimeSync(p)
	case TypeCamState:
		return decodeCamState(p)
	case TypeCamConfig:
		return decodeCamConfig(p)
	case TypeCamImageAvail:
		return decodeCamImageAvail(p)
	case TypeSensorActResp:
		return decodeSensorActResp(p)
	case TypeWifiScan:
		return WifiScan{Payload: clonePayload(p)}, nil
	case TypeFlightResult:
		return decodeFlightResult(p)
	case TypeFlightResultV1:
		return decodeFlightResultV1(p)
	case TypeClubResult:
		return decodeClubResult(p)
	case TypeSpinResult:
		return decodeSpinResult(p)
	case TypeSpeedProfile:
		return decodeSpeedProfile(p)
	case TypeTrackingStatus:
		return decodeTrackingStatus(p)
	case TypePrcData:
		return decodePrcData(p)
	case TypeClubPrc:
		return decodeClubPrc(p)
	case TypeShotText:
		return decodeShotText(p)
	case TypeDspDebug:
		return DspDebug{Payload: clonePayload(p)}, nil
	default:
		return Unknown{TypeID: fr.TypeID, Src: fr.Src, Payload: clonePayload(p)}, nil
	}
}

func clonePayload(p []byte) []byte {
	out := make([]byte, len(p))
	copy(out, p)
	return out
}
