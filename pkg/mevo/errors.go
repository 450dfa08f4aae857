// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mevo

import "fmt"

// FramingKind distinguishes the ways a single wire frame can fail to parse.
// A framing error discards one frame and the receive buffer resyncs on the
// next start byte; it is never fatal by itself.
type FramingKind int

const (
	FramingMalformedEscape FramingKind = iota
	FramingTooShort
	FramingChecksumMismatch
	FramingUnterminatedFrame
	FramingUnknownBusAddr
)

func (k FramingKind) String() string {
	switch k {
	case FramingMalformedEscape:
		return "malformed-escape"
	case FramingTooShort:
		return "too-short"
	case FramingChecksumMismatch:
		return "checksum-mismatch"
	case FramingUnterminatedFrame:
		return "unterminated-frame"
	case FramingUnknownBusAddr:
		return "unknown-bus-addr"
	default:
		return "unknown"
	}
}

// FramingError reports a single malformed wire frame.
type FramingError struct {
	Kind   FramingKind
	Detail string
}

func (e *FramingError) Error() string {
	if e.Detail == "" {
		return "mevo: framing: " + e.Kind.String()
	}
	return fmt.Sprintf("mevo: framing: %s: %s", e.Kind, e.Detail)
}

// DecodeKind distinguishes the ways a recognised frame's payload can fail
// to decode into its message type.
type DecodeKind int

const (
	DecodeInvalidPayload DecodeKind = iota
	DecodeUnsupportedPrcVersion
)

func (k DecodeKind) String() string {
	switch k {
	case DecodeInvalidPayload:
		return "invalid-payload"
	case DecodeUnsupportedPrcVersion:
		return "unsupported-prc-version"
	default:
		return "unknown"
	}
}

// DecodeError reports a recognised frame whose payload could not be decoded
// into its message type.
type DecodeError struct {
	Kind   DecodeKind
	TypeID byte
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("mevo: decode: type 0x%02X: %s: %s", e.TypeID, e.Kind, e.Reason)
}

// ProtocolKind distinguishes session/handshake-level protocol failures.
type ProtocolKind int

const (
	ProtocolTimeout ProtocolKind = iota
	ProtocolUnexpectedMessage
	ProtocolDeviceDormant
)

func (k ProtocolKind) String() string {
	switch k {
	case ProtocolTimeout:
		return "timeout"
	case ProtocolUnexpectedMessage:
		return "unexpected-message"
	case ProtocolDeviceDormant:
		return "device-dormant"
	default:
		return "unknown"
	}
}

// ProtocolError reports a handshake/session-level failure.
type ProtocolError struct {
	Kind     ProtocolKind
	Phase    string
	Expected string
	Got      string
}

func (e *ProtocolError) Error() string {
	switch e.Kind {
	case ProtocolTimeout:
		return fmt.Sprintf("mevo: protocol: timeout waiting for %s in phase %s", e.Expected, e.Phase)
	case ProtocolUnexpectedMessage:
		return fmt.Sprintf("mevo: protocol: unexpected message %s in state %s", e.Got, e.Phase)
	case ProtocolDeviceDormant:
		return "mevo: protocol: device dormant, reconnect required"
	default:
		return "mevo: protocol: error"
	}
}

// IsFatal reports whether the error should force the client out of its
// current session (Faulted/DeviceDormant), per the propagation policy in
// the error handling design: Io and DeviceDormant are always fatal;
// framing/decode errors are locally recovered; other protocol errors are
// fatal only during the handshake, which the caller tracks itself.
func (e *ProtocolError) IsFatal() bool {
	return e.Kind == ProtocolDeviceDormant
}

// ConfigKind distinguishes caller-supplied configuration errors.
type ConfigKind int

const (
	ConfigInvalidFloat ConfigKind = iota
	ConfigOutOfRange
)

// ConfigError reports a value that cannot be encoded onto the wire.
type ConfigError struct {
	Kind  ConfigKind
	Field string
	Value any
}

func (e *ConfigError) Error() string {
	switch e.Kind {
	case ConfigInvalidFloat:
		return fmt.Sprintf("mevo: config: %s: value %v is not representable as FLOAT40", e.Field, e.Value)
	case ConfigOutOfRange:
		return fmt.Sprintf("mevo: config: %s: value %v out of range", e.Field, e.Value)
	default:
		return "mevo: config: invalid value"
	}
}

// IoError wraps an underlying byte-stream failure (read/write/dial). It is
// always fatal.
type IoError struct {
	Op    string
	Cause error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("mevo: io: %s: %v", e.Op, e.Cause)
}

func (e *IoError) Unwrap() error {
	return e.Cause
}
