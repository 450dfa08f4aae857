// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mevo

import (
	"sort"
	"time"
)

const keepaliveTimeout = 1000 * time.Millisecond
const idleDrainTimeout = 1 * time.Second

// sessionDriver runs the armed-loop state machine from §4.6: keepalive
// while Armed, shot collection while ShotInFlight, the atomic post-shot
// sequence, and caller-requested mode/settings changes.
type sessionDriver struct {
	c     *Client
	phase Phase

	keepalive     *sequencer
	lastKeepalive time.Time

	assembler *shotAssembler

	postShot *postShotRunner

	pendingMode     *byte
	pendingSettings *Config
	changeSeq       *sequencer
}

func newSessionDriver(c *Client) *sessionDriver {
	return &sessionDriver{c: c, phase: PhaseArmed, lastKeepalive: time.Now()}
}

func (s *sessionDriver) requestModeChange(mode byte) {
	s.pendingMode = &mode
}

func (s *sessionDriver) requestSettingsChange(cfg Config) {
	s.pendingSettings = &cfg
}

// advance performs one unit of work appropriate to the current state and
// returns whatever events resulted.
func (s *sessionDriver) advance() ([]Event, error) {
	switch s.phase {
	case PhaseArmed:
		return s.advanceArmed()
	case PhaseShotInFlight:
		return s.advanceShotInFlight()
	case PhasePostShot:
		return s.advancePostShot()
	default:
		return nil, nil
	}
}

func (s *sessionDriver) advanceArmed() ([]Event, error) {
	if s.changeSeq != nil {
		return s.advanceChangeSequence()
	}
	if s.pendingMode != nil || s.pendingSettings != nil {
		s.changeSeq = newSequencer(modeOrSettingsChangeSteps(s.c.cfg, s.pendingMode, s.pendingSettings), s.c.cfg.ExchangeTimeout)
		return nil, nil
	}

	// Shot trigger takes priority over keepalive: check overflow/incoming
	// frames for TEXT "BALL TRIGGER" first.
	if fr, ferr, ready := s.c.recv.NextMatching(Filter{Types: map[byte]bool{TypeText: true}}); ready {
		if ferr != nil {
			return nil, ferr
		}
		t, err := decodeText(fr.Payload)
		if err == nil && t.Contains("BALL TRIGGER") {
			s.phase = PhaseShotInFlight
			s.assembler = newShotAssembler()
			return []Event{{Kind: EventText, Text: t.Value}}, nil
		}
		if err == nil {
			return []Event{{Kind: EventText, Text: t.Value}}, nil
		}
	}

	return s.advanceKeepalive()
}

func (s *sessionDriver) advanceKeepalive() ([]Event, error) {
	if s.keepalive == nil {
		if time.Since(s.lastKeepalive) < s.c.cfg.KeepaliveInterval {
			return nil, nil
		}
		s.keepalive = newSequencer(keepaliveSteps(), keepaliveTimeout)
	}
	outcome, err := s.keepalive.advance(s.c)
	if err != nil {
		return nil, err
	}
	if outcome == seqAllDone {
		s.keepalive = nil
		s.lastKeepalive = time.Now()
	}
	return nil, nil
}

func keepaliveSteps() []step {
	return []step{
		{bus: AddrDsp, build: func() Command { return NewStatusPoll(0x01) }, match: respType(TypeStatus)},
		{bus: AddrAvr, build: func() Command { return NewStatusPoll(0x01) }, match: respType(TypeStatus)},
		{bus: AddrPi, build: func() Command { return NewStatusPoll(0x03) }, match: respType(TypeStatus)},
	}
}

func (s *sessionDriver) advanceShotInFlight() ([]Event, error) {
	fr, ferr, ready := s.c.recv.NextMatching(Filter{})
	if ferr != nil {
		return nil, ferr
	}
	if !ready {
		return nil, nil
	}
	msg, err := decodeMessage(fr)
	if err != nil {
		return nil, nil // non-fatal decode error: drop and keep collecting
	}
	if t, ok := msg.(Text); ok {
		s.assembler.addText(t.Value)
		if t.Contains("PROCESSED") {
			s.phase = PhasePostShot
			s.postShot = newPostShotRunner()
			return []Event{{Kind: EventText, Text: t.Value}}, nil
		}
		return nil, nil
	}
	if err := s.assembler.add(msg); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *sessionDriver) advancePostShot() ([]Event, error) {
	done, err := s.postShot.advance(s.c)
	if err != nil {
		return nil, err
	}
	if !done {
		return nil, nil
	}
	shot := s.assembler.finish()
	s.phase = PhaseArmed
	s.assembler = nil
	s.postShot = nil
	s.lastKeepalive = time.Now()
	return []Event{{Kind: EventShot, Shot: shot}, {Kind: EventArmed}}, nil
}

func (s *sessionDriver) advanceChangeSequence() ([]Event, error) {
	outcome, err := s.changeSeq.advance(s.c)
	if err != nil {
		return nil, err
	}
	if outcome == seqAllDone {
		s.changeSeq = nil
		s.pendingMode = nil
		s.pendingSettings = nil
		return []Event{{Kind: EventArmed}}, nil
	}
	return nil, nil
}

// modeOrSettingsChangeSteps implements the §4.6 "mode/settings change"
// sequence: the same parameter-write + mode-set + radar-cal shape as
// phase 4 (minus MODE_SET for a pure settings change), followed by
// re-arm and an "ARMED DetectionMode" wait.
func modeOrSettingsChangeSteps(cfg Config, mode *byte, settings *Config) []step {
	effective := cfg
	if settings != nil {
		effective = *settings
	}
	if mode != nil {
		effective.Mode = *mode
	}
	steps := postSyncConfigSteps(effective)
	if mode == nil {
		// Drop the MODE_SET + its commit (the last two pairs added by
		// postSyncConfigSteps are MODE_SET/commit then RADAR_CAL/commit;
		// for a pure settings change we keep RADAR_CAL but skip MODE_SET).
		steps = dropModeSetStep(steps)
	}
	steps = append(steps,
		step{bus: AddrAvr, build: func() Command { return armConfigCmd{} }, match: respType(TypeConfigAck)},
		step{bus: AddrAvr, match: func(fr Frame) bool {
			if fr.TypeID != TypeText {
				return false
			}
			t, err := decodeText(fr.Payload)
			return err == nil && t.Contains("ARMED DetectionMode")
		}},
	)
	return steps
}

func dropModeSetStep(steps []step) []step {
	out := make([]step, 0, len(steps))
	skipNext := false
	for _, st := range steps {
		if skipNext {
			skipNext = false
			continue
		}
		if st.build != nil {
			if cmd := st.build(); cmd != nil {
				if _, ok := cmd.(ModeSet); ok {
					skipNext = true
					continue
				}
			}
		}
		out = append(out, st)
	}
	return out
}

// shotAssembler accumulates the messages pushed during ShotInFlight per
// the invariants in §4.7: single-valued fields keep the first arrival,
// CLUB_RESULT allows one byte-identical duplicate (checked via SameAs),
// TRACKING_STATUS accumulates in arrival order, and PRC_DATA/CLUB_PRC
// pages are deduplicated by (sequence, sub-record count) before being
// appended in sequence order.
type shotAssembler struct {
	ev ShotEvent

	prcPages     []prcPage
	clubPrcPages []clubPrcPage
	seenPrc      map[prcPageKey]bool
	seenClubPrc  map[prcPageKey]bool
}

// prcPageKey is the dedup key from §4.7: a PRC_DATA/CLUB_PRC page is
// uniquely identified by its frame sequence number and sub-record count,
// since the AVR retransmits whole pages verbatim.
type prcPageKey struct {
	sequence int16
	subCount int
}

type prcPage struct {
	sequence int16
	points   []PrcPoint
}

type clubPrcPage struct {
	sequence int16
	points   []ClubPrcPoint
}

func newShotAssembler() *shotAssembler {
	return &shotAssembler{
		seenPrc:     make(map[prcPageKey]bool),
		seenClubPrc: make(map[prcPageKey]bool),
	}
}

func (a *shotAssembler) addText(text string) {
	a.ev.Texts = append(a.ev.Texts, text)
}

// add folds one shot-in-flight message into the event under assembly. A
// non-nil error reports a violated invariant (a CLUB_RESULT duplicate
// that isn't byte-identical); the caller decides whether that is fatal.
func (a *shotAssembler) add(msg Message) error {
	switch m := msg.(type) {
	case FlightResult:
		if a.ev.FlightResult == nil {
			a.ev.FlightResult = &m
		}
	case FlightResultV1:
		if a.ev.FlightResultV1 == nil {
			a.ev.FlightResultV1 = &m
		}
	case ClubResult:
		if a.ev.ClubResult == nil {
			a.ev.ClubResult = &m
		} else if !m.SameAs(*a.ev.ClubResult) {
			return &ProtocolError{Kind: ProtocolUnexpectedMessage, Phase: "ShotInFlight", Expected: "byte-identical CLUB_RESULT duplicate", Got: "CLUB_RESULT"}
		}
	case SpinResult:
		if a.ev.SpinResult == nil {
			a.ev.SpinResult = &m
		}
	case SpeedProfile:
		if a.ev.SpeedProfile == nil {
			a.ev.SpeedProfile = &m
		}
	case CamImageAvail:
		if a.ev.CamImageAvail == nil {
			a.ev.CamImageAvail = &m
		}
	case TrackingStatus:
		a.ev.Tracking = append(a.ev.Tracking, m)
	case PrcData:
		key := prcPageKey{sequence: m.Sequence, subCount: m.SubCount()}
		if !a.seenPrc[key] {
			a.seenPrc[key] = true
			a.prcPages = append(a.prcPages, prcPage{sequence: m.Sequence, points: m.Points})
		}
	case ClubPrc:
		key := prcPageKey{sequence: m.Sequence, subCount: m.SubCount()}
		if !a.seenClubPrc[key] {
			a.seenClubPrc[key] = true
			a.clubPrcPages = append(a.clubPrcPages, clubPrcPage{sequence: m.Sequence, points: m.Points})
		}
	}
	return nil
}

// finish orders the deduplicated PRC/CLUB_PRC pages by frame sequence
// number (§4.7) and flattens them into the returned event.
func (a *shotAssembler) finish() ShotEvent {
	sort.SliceStable(a.prcPages, func(i, j int) bool { return a.prcPages[i].sequence < a.prcPages[j].sequence })
	for _, page := range a.prcPages {
		a.ev.Prc = append(a.ev.Prc, page.points...)
	}
	sort.SliceStable(a.clubPrcPages, func(i, j int) bool { return a.clubPrcPages[i].sequence < a.clubPrcPages[j].sequence })
	for _, page := range a.clubPrcPages {
		a.ev.ClubPrc = append(a.ev.ClubPrc, page.points...)
	}
	return a.ev
}

// postShotRunner drives the atomic post-shot sequence from §4.6:
// double SHOT_DATA_ACK, drain to IDLE (or 1s timeout), CONFIG_QUERY
// collecting both MODE_ACK and CONFIG_RESP in either order, a
// best-effort SHOT_RESULT_REQ, then the re-arm steps (rearmSteps) run by
// this runner's own sequencer.
type postShotRunner struct {
	step       int
	drainStart time.Time
	sentAt     time.Time
	gotModeAck bool
	gotCfgResp bool
	rearm      *sequencer
}

func newPostShotRunner() *postShotRunner { return &postShotRunner{} }

const (
	psSendAck1 = iota
	psSendAck2
	psDrainIdle
	psSendConfigQuery
	psCollectBoth
	psSendShotResultReq
	psWaitShotResult
	psRearm
	psDone
)

func (p *postShotRunner) advance(c *Client) (bool, error) {
	switch p.step {
	case psSendAck1:
		if err := c.send(AddrAvr, shotDataAckCmd{}); err != nil {
			return false, err
		}
		p.step = psSendAck2
		return false, nil
	case psSendAck2:
		if err := c.send(AddrAvr, shotDataAckCmd{}); err != nil {
			return false, err
		}
		p.step = psDrainIdle
		p.drainStart = time.Now()
		return false, nil
	case psDrainIdle:
		fr, ferr, ready := c.recv.NextMatching(Filter{Types: map[byte]bool{TypeText: true}})
		if ferr != nil {
			return false, ferr
		}
		if ready {
			t, err := decodeText(fr.Payload)
			if err == nil && t.Contains("IDLE") {
				p.step = psSendConfigQuery
				return false, nil
			}
			return false, nil
		}
		if time.Since(p.drainStart) > idleDrainTimeout {
			p.step = psSendConfigQuery
		}
		return false, nil
	case psSendConfigQuery:
		if err := c.send(AddrAvr, configQueryCmd{}); err != nil {
			return false, err
		}
		p.step = psCollectBoth
		p.sentAt = time.Now()
		return false, nil
	case psCollectBoth:
		fr, ferr, ready := c.recv.NextMatching(busFilter(AddrAvr))
		if ferr != nil {
			return false, ferr
		}
		if ready {
			switch fr.TypeID {
			case TypeModeAck:
				p.gotModeAck = true
			case TypeConfigResp:
				p.gotCfgResp = true
			default:
				c.recv.requeue(fr)
			}
		}
		if p.gotModeAck && p.gotCfgResp {
			p.step = psSendShotResultReq
			return false, nil
		}
		if time.Since(p.sentAt) > c.cfg.ExchangeTimeout {
			// Proceed regardless, per §4.6 step 3's spirit of forward
			// progress; a stalled ack does not block re-arming.
			p.step = psSendShotResultReq
		}
		return false, nil
	case psSendShotResultReq:
		if err := c.send(AddrAvr, shotResultReqCmd{}); err != nil {
			return false, err
		}
		p.step = psWaitShotResult
		p.sentAt = time.Now()
		return false, nil
	case psWaitShotResult:
		_, ferr, ready := c.recv.NextMatching(busFilter(AddrAvr))
		if ferr != nil {
			return false, ferr
		}
		if ready || time.Since(p.sentAt) > c.cfg.ExchangeTimeout {
			p.step = psRearm
			p.rearm = newSequencer(rearmSteps(), c.cfg.ExchangeTimeout)
		}
		return false, nil
	case psRearm:
		outcome, err := p.rearm.advance(c)
		if err != nil {
			if _, ok := err.(*ProtocolError); ok {
				return false, &ProtocolError{Kind: ProtocolDeviceDormant}
			}
			return false, err
		}
		if outcome == seqAllDone {
			p.step = psDone
			return true, nil
		}
		return false, nil
	default:
		return true, nil
	}
}

// rearmSteps is step 5 of the post-shot sequence: re-arm and wait for the
// device to confirm. If this never completes the device is left dormant
// (surfaced as ProtocolDeviceDormant by the caller).
func rearmSteps() []step {
	return []step{
		{bus: AddrAvr, build: func() Command { return armConfigCmd{} }, match: respType(TypeConfigAck)},
		{bus: AddrAvr, match: func(fr Frame) bool {
			if fr.TypeID != TypeText {
				return false
			}
			t, err := decodeText(fr.Payload)
			return err == nil && t.Contains("ARMED DetectionMode")
		}},
	}
}

type shotDataAckCmd struct{}

func (shotDataAckCmd) wireType() byte { return TypeShotDataAck }
func (shotDataAckCmd) encode() []byte { return nil }

type shotResultReqCmd struct{}

func (shotResultReqCmd) wireType() byte { return TypeShotResultReq }
func (shotResultReqCmd) encode() []byte { return nil }
