// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/divotmaker/ironsight/pkg/mevo"
)

// sessionConfig is the YAML-facing shape of mevo.Config; field names
// mirror the wire-facing struct but stay in plain units (ms, inches)
// rather than time.Duration / FLOAT40 on disk.
type sessionConfig struct {
	Mode                 int     `yaml:"mode"`
	BallType             int     `yaml:"ballType"`
	TeeHeightM           float64 `yaml:"teeHeightM"`
	MinTrackPercent      float64 `yaml:"minTrackPercent"`
	SensorToTeeMM        int     `yaml:"sensorToTeeMM"`
	SurfaceHeightInches  float64 `yaml:"surfaceHeightInches"`
	SkipSensorActivation bool    `yaml:"skipSensorActivation"`
	SkipWifiScan         bool    `yaml:"skipWifiScan"`
	KeepaliveIntervalMs  int     `yaml:"keepaliveIntervalMs"`
	ExchangeTimeoutMs    int     `yaml:"exchangeTimeoutMs"`
	DialTimeoutMs        int     `yaml:"dialTimeoutMs"`
}

func loadSessionConfig(path string) (mevo.Config, error) {
	cfg := mevo.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	var raw sessionConfig
	raw.Mode = int(cfg.Mode)
	raw.BallType = int(cfg.BallType)
	raw.TeeHeightM = cfg.TeeHeightM
	raw.MinTrackPercent = cfg.MinTrackPercent
	raw.SensorToTeeMM = int(cfg.SensorToTeeMM)
	raw.SurfaceHeightInches = cfg.SurfaceHeightInches
	raw.KeepaliveIntervalMs = int(cfg.KeepaliveInterval / time.Millisecond)
	raw.ExchangeTimeoutMs = int(cfg.ExchangeTimeout / time.Millisecond)
	raw.DialTimeoutMs = int(cfg.DialTimeout / time.Millisecond)
	raw.SkipSensorActivation = cfg.SkipSensorActivation
	raw.SkipWifiScan = cfg.SkipWifiScan

	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&raw); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.Mode = byte(raw.Mode)
	cfg.BallType = byte(raw.BallType)
	cfg.TeeHeightM = raw.TeeHeightM
	cfg.MinTrackPercent = raw.MinTrackPercent
	cfg.SensorToTeeMM = float64(raw.SensorToTeeMM)
	cfg.SurfaceHeightInches = raw.SurfaceHeightInches
	cfg.SkipSensorActivation = raw.SkipSensorActivation
	cfg.SkipWifiScan = raw.SkipWifiScan
	cfg.KeepaliveInterval = msToDuration(raw.KeepaliveIntervalMs)
	cfg.ExchangeTimeout = msToDuration(raw.ExchangeTimeoutMs)
	cfg.DialTimeout = msToDuration(raw.DialTimeoutMs)
	return cfg, cfg.Validate()
}

func msToDuration(ms int) time.Duration {
	if ms <= 0 {
		return 1000 * time.Millisecond
	}
	return time.Duration(ms) * time.Millisecond
}
