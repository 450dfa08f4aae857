// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mevo

import (
	"testing"
	"time"
)

func TestNextHandshakePhaseOrdering(t *testing.T) {
	want := []Phase{PhaseAvr, PhasePi, PhasePostSyncConfig, PhasePiPostConfig, PhaseArming, PhaseArmed}
	from := []Phase{PhaseDsp, PhaseAvr, PhasePi, PhasePostSyncConfig, PhasePiPostConfig, PhaseArming}
	for i, p := range from {
		got := nextHandshakePhase(p)
		if got != want[i] {
			t.Errorf("nextHandshakePhase(%v) = %v, want %v", p, got, want[i])
		}
	}
}

// respondTo feeds ft one frame that satisfies the current pending step of
// seq, addressed from bus back to AddrApp, with the given response type
// and payload.
func respondTo(ft *fakeTransport, bus BusAddr, typeID byte, payload []byte) {
	ft.toRead = append(ft.toRead, encodeFrame(AddrApp, bus, typeID, payload))
}

func TestDspPhaseCapturesDeviceGen(t *testing.T) {
	ft := &fakeTransport{}
	c := newTestClient(ft)
	var res handshakeResults
	seq := newSequencer(dspPhaseSteps(&res), DefaultConfig().ExchangeTimeout)

	responses := []struct {
		typeID  byte
		payload []byte
	}{
		{TypeStatus, make([]byte, 129)},
		{TypeDspQueryResp, []byte{0x02, byte(DeviceGenGen2), 0x01}},
		{TypeDevInfoResp, make([]byte, 20)},
		{TypeProdInfo, []byte{0x00}},
		{TypeProdInfo, []byte{0x08}},
		{TypeProdInfo, []byte{0x09}},
		{TypeConfigResp, make([]byte, 69)},
	}

	for _, r := range responses {
		if _, err := seq.advance(c); err != nil {
			t.Fatalf("advance (send): %v", err)
		}
		respondTo(ft, AddrDsp, r.typeID, r.payload)
		if err := c.pump(); err != nil {
			t.Fatalf("pump: %v", err)
		}
		outcome, err := seq.advance(c)
		if err != nil {
			t.Fatalf("advance (match, type=0x%02X): %v", r.typeID, err)
		}
		if outcome != seqStepDone && outcome != seqAllDone {
			t.Fatalf("outcome = %v for type=0x%02X, want seqStepDone/seqAllDone", outcome, r.typeID)
		}
	}

	if !seq.done() {
		t.Fatal("expected all dsp phase steps to have completed")
	}
	if res.deviceGen != DeviceGenGen2 {
		t.Errorf("deviceGen = %v, want DeviceGenGen2", res.deviceGen)
	}
}

func TestHandshakeDriverAdvancesPhaseOnSeqAllDone(t *testing.T) {
	ft := &fakeTransport{}
	c := newTestClient(ft)
	c.cfg = DefaultConfig()
	hs := newHandshakeDriver(c)

	responses := []struct {
		typeID  byte
		payload []byte
	}{
		{TypeStatus, make([]byte, 129)},
		{TypeDspQueryResp, []byte{0x02, byte(DeviceGenGen2), 0x01}},
		{TypeDevInfoResp, make([]byte, 20)},
		{TypeProdInfo, []byte{0x00}},
		{TypeProdInfo, []byte{0x08}},
		{TypeProdInfo, []byte{0x09}},
		{TypeConfigResp, make([]byte, 69)},
	}

	for _, r := range responses {
		if _, _, err := hs.advance(); err != nil {
			t.Fatalf("advance (send): %v", err)
		}
		respondTo(ft, AddrDsp, r.typeID, r.payload)
		if err := c.pump(); err != nil {
			t.Fatalf("pump: %v", err)
		}
		if _, _, err := hs.advance(); err != nil {
			t.Fatalf("advance (match): %v", err)
		}
	}

	if hs.phase != PhaseAvr {
		t.Fatalf("phase = %v, want Avr after the DSP phase completes", hs.phase)
	}
}

func TestArmingStepsWaitForArmedText(t *testing.T) {
	ft := &fakeTransport{}
	c := newTestClient(ft)
	seq := newSequencer(armingSteps(), DefaultConfig().ExchangeTimeout)

	steps := []struct {
		bus     BusAddr
		typeID  byte
		payload []byte
	}{
		{AddrDsp, TypeStatus, make([]byte, 129)},
		{AddrAvr, TypeConfigAck, []byte{0x02, 0x30, 0x01}},
		{AddrPi, TypeStatus, make([]byte, 40)},
		{AddrAvr, TypeText, []byte("ARMED DetectionMode 1")},
	}

	var outcome seqOutcome
	var err error
	for _, s := range steps {
		if _, err = seq.advance(c); err != nil {
			t.Fatalf("advance (send): %v", err)
		}
		respondTo(ft, s.bus, s.typeID, s.payload)
		if perr := c.pump(); perr != nil {
			t.Fatalf("pump: %v", perr)
		}
		outcome, err = seq.advance(c)
		if err != nil {
			t.Fatalf("advance (match): %v", err)
		}
	}
	if outcome != seqAllDone {
		t.Errorf("outcome = %v, want seqAllDone once ARMED text arrives", outcome)
	}
}

func TestPostSyncConfigStepsUseBackoffTimeouts(t *testing.T) {
	cfg := DefaultConfig()
	steps := postSyncConfigSteps(cfg)
	if len(steps) == 0 {
		t.Fatal("expected at least one step")
	}
	for i, st := range steps {
		if st.timeout == 0 {
			continue
		}
		if st.timeout != 200*time.Millisecond {
			t.Errorf("step %d timeout = %v, want 200ms", i, st.timeout)
		}
		want := []time.Duration{200 * time.Millisecond, 300 * time.Millisecond, 600 * time.Millisecond}
		if len(st.backoff) != len(want) {
			t.Fatalf("step %d backoff = %v, want %v", i, st.backoff, want)
		}
		for j := range want {
			if st.backoff[j] != want[j] {
				t.Errorf("step %d backoff[%d] = %v, want %v", i, j, st.backoff[j], want[j])
			}
		}
	}
}

func TestPiPhaseStepsSkipSensorActivationWhenConfigured(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SkipSensorActivation = true
	steps := piPhaseSteps(cfg)

	skippedAny := false
	for _, st := range steps {
		if st.skip != nil && st.skip() {
			skippedAny = true
		}
	}
	if !skippedAny {
		t.Error("expected sensor-activation steps to report skip=true")
	}
}
