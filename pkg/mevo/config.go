// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mevo

import "time"

// Config is the caller-supplied session configuration: detection mode,
// ball/club geometry, and the timing knobs the handshake and session
// drivers use for keepalive and exchange deadlines.
type Config struct {
	Mode                 byte
	BallType             byte
	TeeHeightM           float64
	MinTrackPercent      float64
	SensorToTeeMM        float64
	SurfaceHeightInches  float64
	SkipSensorActivation bool
	SkipWifiScan         bool
	KeepaliveInterval    time.Duration
	ExchangeTimeout      time.Duration
	DialTimeout          time.Duration
}

// DefaultConfig returns the default configuration: outdoor mode, the
// sensor-activation and WiFi-scan handshake steps skipped (§6.5), a ~1s
// keepalive cadence, a 1s per-exchange protocol deadline, and a 5s
// DialTimeout. The CLI passes DialTimeout to OpenTransport, which uses it
// as the transport's write deadline; the TCP dial itself always uses a
// fixed 10s deadline.
func DefaultConfig() Config {
	return Config{
		Mode:                 ModeOutdoor,
		BallType:             0,
		TeeHeightM:           0.04,
		MinTrackPercent:      1.0,
		SensorToTeeMM:        0,
		SurfaceHeightInches:  0,
		SkipSensorActivation: true,
		SkipWifiScan:         true,
		KeepaliveInterval:    1000 * time.Millisecond,
		ExchangeTimeout:      1000 * time.Millisecond,
		DialTimeout:          5 * time.Second,
	}
}

// Validate reports a ConfigError for any out-of-range field.
func (c Config) Validate() error {
	if c.KeepaliveInterval <= 0 {
		return &ConfigError{Kind: ConfigOutOfRange, Field: "KeepaliveInterval", Value: c.KeepaliveInterval}
	}
	if c.ExchangeTimeout <= 0 {
		return &ConfigError{Kind: ConfigOutOfRange, Field: "ExchangeTimeout", Value: c.ExchangeTimeout}
	}
	if c.DialTimeout <= 0 {
		return &ConfigError{Kind: ConfigOutOfRange, Field: "DialTimeout", Value: c.DialTimeout}
	}
	if c.TeeHeightM < 0 {
		return &ConfigError{Kind: ConfigOutOfRange, Field: "TeeHeightM", Value: c.TeeHeightM}
	}
	if c.MinTrackPercent < 0.6 || c.MinTrackPercent > 1.0 {
		return &ConfigError{Kind: ConfigOutOfRange, Field: "MinTrackPercent", Value: c.MinTrackPercent}
	}
	return nil
}
