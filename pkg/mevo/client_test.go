// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mevo

import "testing"

func TestNewClientRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.KeepaliveInterval = 0
	_, err := NewClient(&fakeTransport{}, cfg)
	if err == nil {
		t.Fatal("expected NewClient to reject an invalid config")
	}
}

func TestNewClientStartsInDspPhase(t *testing.T) {
	c, err := NewClient(&fakeTransport{}, DefaultConfig())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.phase != PhaseDsp {
		t.Errorf("phase = %v, want Dsp", c.phase)
	}
}

func TestPollDispatchesToHandshakeBeforeArmed(t *testing.T) {
	ft := &fakeTransport{}
	c, err := NewClient(ft, DefaultConfig())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.Poll(); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	// The DSP phase's first step (a status poll) should have been sent.
	if len(ft.written) != 1 {
		t.Fatalf("expected Poll to drive the handshake and send one frame, got %d writes", len(ft.written))
	}
}

func TestRequestModeChangeRejectedOutsideArmed(t *testing.T) {
	c, err := NewClient(&fakeTransport{}, DefaultConfig())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if err := c.RequestModeChange(ModeIndoor); err == nil {
		t.Fatal("expected RequestModeChange to fail before the client is Armed")
	}
}

func TestRequestSettingsChangeRejectedOutsideArmed(t *testing.T) {
	c, err := NewClient(&fakeTransport{}, DefaultConfig())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if err := c.RequestSettingsChange(DefaultConfig()); err == nil {
		t.Fatal("expected RequestSettingsChange to fail before the client is Armed")
	}
}

func TestPhaseStringCoversAllValues(t *testing.T) {
	phases := []Phase{
		PhaseDsp, PhaseAvr, PhasePi, PhasePostSyncConfig, PhasePiPostConfig,
		PhaseArming, PhaseArmed, PhaseShotInFlight, PhasePostShot, PhaseDisarmed, PhaseFaulted,
	}
	seen := make(map[string]bool)
	for _, p := range phases {
		s := p.String()
		if s == "" {
			t.Errorf("Phase(%d).String() is empty", p)
		}
		seen[s] = true
	}
	if len(seen) != len(phases) {
		t.Errorf("expected %d distinct phase labels, got %d: %v", len(phases), len(seen), seen)
	}
}

func TestDisconnectClosesTransport(t *testing.T) {
	ft := &fakeTransport{}
	c, err := NewClient(ft, DefaultConfig())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if err := c.Disconnect(); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if !ft.closed {
		t.Error("expected Disconnect to close the transport")
	}
}
