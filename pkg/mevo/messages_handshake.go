// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mevo

import "fmt"

func decodeCstr(slot []byte) string {
	end := len(slot)
	for i, b := range slot {
		if b == 0 {
			end = i
			break
		}
	}
	return string(slot[:end])
}

// DeviceGen is the hardware generation detected from the DSP query's
// dspType byte.
type DeviceGen byte

const (
	DeviceGenMevoPlus DeviceGen = 0x80
	DeviceGenGen2     DeviceGen = 0xC0
)

// Label returns a short name for logging and display.
func (g DeviceGen) Label() string {
	switch g {
	case DeviceGenMevoPlus:
		return "Mevo+"
	case DeviceGenGen2:
		return "Mevo Gen2"
	default:
		return "Unknown"
	}
}

func (g DeviceGen) String() string {
	switch g {
	case DeviceGenMevoPlus:
		return "Mevo+ (0x80)"
	case DeviceGenGen2:
		return "Mevo Gen2 (0xC0)"
	default:
		return fmt.Sprintf("Unknown (0x%02X)", byte(g))
	}
}

// DspQueryResp reports firmware version, device generation and PCB
// revision: [version, dspType, pcb].
type DspQueryResp struct {
	Version byte
	DspType byte
	Pcb     byte
}

func (DspQueryResp) WireType() byte { return TypeDspQueryResp }

// DeviceGen detects the device generation from the dspType byte.
func (m DspQueryResp) DeviceGen() DeviceGen { return DeviceGen(m.DspType) }

func decodeDspQueryResp(p []byte) (DspQueryResp, error) {
	if err := checkLen(p, 0, 3, "DspQueryResp"); err != nil {
		return DspQueryResp{}, err
	}
	return DspQueryResp{Version: p[0], DspType: p[1], Pcb: p[2]}, nil
}

// DevInfoResp concatenates the non-empty 16-byte text slots of a device
// info response (version/serial/build info; exact meaning of each slot
// varies by bus). DSP payloads are 76 bytes with slots starting at 28; AVR
// and PI are 75 bytes with slots starting at 27.
type DevInfoResp struct {
	Text string
}

func (DevInfoResp) WireType() byte { return TypeDevInfoResp }

func decodeDevInfoResp(p []byte) (DevInfoResp, error) {
	slotStart := 27
	if len(p) >= 76 {
		slotStart = 28
	}
	var parts []string
	for i := 0; i < 3; i++ {
		offset := slotStart + i*16
		if offset+16 <= len(p) {
			s := decodeCstr(p[offset : offset+16])
			if s != "" {
				parts = append(parts, s)
			}
		}
	}
	text := ""
	for i, s := range parts {
		if i > 0 {
			text += " "
		}
		text += s
	}
	return DevInfoResp{Text: text}, nil
}

// ProdInfoReq requests a product-info sub-field: 0x00, 0x08 or 0x09.
type ProdInfoReq struct {
	SubQuery byte
}

func (c ProdInfoReq) wireType() byte { return TypeProdInfo }
func (c ProdInfoReq) encode() []byte { return []byte{0x01, c.SubQuery} }

// ProdInfoResp carries a single null-terminated text field (Pi hardware ID
// or camera model, depending on which sub-query was sent).
type ProdInfoResp struct {
	Text string
}

func (ProdInfoResp) WireType() byte { return TypeProdInfo }

func decodeProdInfoResp(p []byte) (ProdInfoResp, error) {
	return ProdInfoResp{Text: decodeCstr(p)}, nil
}

// NetConfigReq asks the PI for WiFi SSID (QueryPassword=false) or SSID +
// password (QueryPassword=true).
type NetConfigReq struct {
	QueryPassword bool
}

func (c NetConfigReq) wireType() byte { return TypeNetConfig }
func (c NetConfigReq) encode() []byte {
	if c.QueryPassword {
		return []byte{0x01, 0x08}
	}
	return []byte{0x01, 0x00}
}

// NetConfigResp carries the SSID (offset 21) and, for a password query,
// also the password (offset 37), joined with a NUL the caller can split on.
type NetConfigResp struct {
	Text string
}

func (NetConfigResp) WireType() byte { return TypeNetConfig }

func decodeNetConfigResp(p []byte) (NetConfigResp, error) {
	var parts []string
	for _, offset := range [2]int{21, 37} {
		if offset+16 <= len(p) {
			s := decodeCstr(p[offset : offset+16])
			if s != "" {
				parts = append(parts, s)
			}
		}
	}
	text := ""
	for i, s := range parts {
		if i > 0 {
			text += "\x00"
		}
		text += s
	}
	return NetConfigResp{Text: text}, nil
}

// CalParamReq requests the IF calibration parameter block; always [02 00 08].
type CalParamReq struct{}

func (CalParamReq) wireType() byte   { return TypeCalParamReq }
func (CalParamReq) encode() []byte   { return []byte{0x02, 0x00, 0x08} }

// CalParamResp is the IF calibration parameter response (242 bytes:
// calibrator name, date, INT16 gain/offset arrays). Retained raw.
type CalParamResp struct {
	Payload []byte
}

func (CalParamResp) WireType() byte { return TypeCalParamResp }

func decodeCalParamResp(p []byte) (CalParamResp, error) {
	return CalParamResp{Payload: clonePayload(p)}, nil
}

// CalDataReq requests calibration data; SubCmd 0x03 is the factory
// calibration info fetched during handshake, 0x07 is the post-shot
// parameter dump.
type CalDataReq struct {
	SubCmd  byte
	Payload []byte
}

func (c CalDataReq) wireType() byte { return TypeCalDataReq }
func (c CalDataReq) encode() []byte { return c.Payload }

// NewFactoryCalDataReq builds the handshake-time factory calibration request.
func NewFactoryCalDataReq() CalDataReq {
	return CalDataReq{SubCmd: 0x03, Payload: []byte{0x09, 0x00, 0x00, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0xA5}}
}

// NewPostShotCalDataReq builds the post-shot parameter dump request.
func NewPostShotCalDataReq() CalDataReq {
	return CalDataReq{SubCmd: 0x07, Payload: []byte{0x09, 0x00, 0x00, 0x07, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}}
}

// CalDataResp is the (possibly paginated) calibration data response,
// retained raw.
type CalDataResp struct {
	Payload []byte
}

func (CalDataResp) WireType() byte { return TypeCalDataResp }

func decodeCalDataResp(p []byte) (CalDataResp, error) {
	return CalDataResp{Payload: clonePayload(p)}, nil
}

// TimeSync carries a Unix epoch timestamp plus a session byte and a
// direction-specific two-byte tail.
type TimeSync struct {
	Epoch   uint32
	Session byte
	Tail    [2]byte
}

func (TimeSync) WireType() byte { return TypeTimeSync }
func (TimeSync) wireType() byte { return TypeTimeSync }

func (c TimeSync) encode() []byte {
	buf := []byte{0x08, 0x00}
	buf = writeUint32(buf, c.Epoch)
	buf = append(buf, c.Session, c.Tail[0], c.Tail[1])
	return buf
}

func decodeTimeSync(p []byte) (TimeSync, error) {
	if err := checkLen(p, 0, 9, "TimeSync"); err != nil {
		return TimeSync{}, err
	}
	epoch, err := readUint32(p, 2)
	if err != nil {
		return TimeSync{}, err
	}
	return TimeSync{Epoch: epoch, Session: p[6], Tail: [2]byte{p[7], p[8]}}, nil
}
