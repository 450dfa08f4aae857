// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mevo

import "time"

// Phase is the client's top-level lifecycle state: the six handshake
// phases followed by the session driver's states.
type Phase int

const (
	PhaseDsp Phase = iota
	PhaseAvr
	PhasePi
	PhasePostSyncConfig
	PhasePiPostConfig
	PhaseArming
	PhaseArmed
	PhaseShotInFlight
	PhasePostShot
	PhaseDisarmed
	PhaseFaulted
)

func (p Phase) String() string {
	switch p {
	case PhaseDsp:
		return "Dsp"
	case PhaseAvr:
		return "Avr"
	case PhasePi:
		return "Pi"
	case PhasePostSyncConfig:
		return "PostSyncConfig"
	case PhasePiPostConfig:
		return "PiPostConfig"
	case PhaseArming:
		return "Arming"
	case PhaseArmed:
		return "Armed"
	case PhaseShotInFlight:
		return "ShotInFlight"
	case PhasePostShot:
		return "PostShot"
	case PhaseDisarmed:
		return "Disarmed"
	default:
		return "Faulted"
	}
}

// Client is the single owner of the receive buffer, outbound state, and
// handshake/session state machines. All advancement happens inside Poll;
// there is no background goroutine.
type Client struct {
	t      Transport
	cfg    Config
	recv   *ReceiveBuffer
	phase  Phase
	fault  error

	hs  *handshakeDriver
	sess *sessionDriver

	deviceGen DeviceGen
}

// NewClient constructs a client around an already-open Transport. Call
// ConnectAndHandshake to drive it through the six-phase handshake before
// polling for session events.
func NewClient(t Transport, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		t:     t,
		cfg:   cfg,
		recv:  NewReceiveBuffer(),
		phase: PhaseDsp,
	}
	c.hs = newHandshakeDriver(c)
	return c, nil
}

func (c *Client) send(dest BusAddr, cmd Command) error {
	return c.t.Write(BuildFrame(dest, cmd))
}

// pump reads whatever bytes are currently available into the receive
// buffer. It never blocks.
func (c *Client) pump() error {
	data, err := c.t.ReadAvailable()
	if err != nil {
		return err
	}
	if len(data) > 0 {
		c.recv.Push(data)
	}
	return nil
}

// ConnectAndHandshake drives phases 1-6 to completion, blocking the
// caller's goroutine (not the client's internals) in a tight poll loop.
// Library users embedded in an existing event loop should prefer calling
// Poll directly instead.
func (c *Client) ConnectAndHandshake(pollInterval time.Duration) error {
	for c.phase != PhaseArmed {
		if c.phase == PhaseFaulted {
			return c.fault
		}
		events, err := c.Poll()
		if err != nil {
			return err
		}
		for _, ev := range events {
			if ev.Kind == EventProtocolError {
				return ev.Err
			}
		}
		time.Sleep(pollInterval)
	}
	return nil
}

// Poll performs at most one unit of work and returns zero or more events,
// per §4.8. The caller is expected to call Poll in a loop; Poll itself
// never blocks beyond the transport's small internal read-poll deadline.
func (c *Client) Poll() ([]Event, error) {
	if err := c.pump(); err != nil {
		if ioErr, ok := err.(*IoError); ok {
			c.phase = PhaseFaulted
			c.fault = ioErr
			return []Event{{Kind: EventProtocolError, Err: ioErr}}, nil
		}
		return nil, err
	}

	switch c.phase {
	case PhaseDsp, PhaseAvr, PhasePi, PhasePostSyncConfig, PhasePiPostConfig, PhaseArming:
		return c.pollHandshake()
	case PhaseArmed, PhaseShotInFlight, PhasePostShot, PhaseDisarmed:
		return c.pollSession()
	default: // Faulted
		return []Event{{Kind: EventProtocolError, Err: c.fault}}, nil
	}
}

func (c *Client) pollHandshake() ([]Event, error) {
	events, done, err := c.hs.advance()
	if err != nil {
		var protoErr *ProtocolError
		if pe, ok := err.(*ProtocolError); ok {
			protoErr = pe
		} else {
			protoErr = &ProtocolError{Kind: ProtocolUnexpectedMessage, Phase: c.phase.String(), Got: err.Error()}
		}
		c.phase = PhaseFaulted
		c.fault = protoErr
		return append(events, Event{Kind: EventProtocolError, Err: protoErr}), nil
	}
	if done {
		c.phase = PhaseArmed
		c.sess = newSessionDriver(c)
		events = append(events, Event{Kind: EventArmed})
	} else {
		c.phase = c.hs.phase
	}
	return events, nil
}

func (c *Client) pollSession() ([]Event, error) {
	events, err := c.sess.advance()
	if err != nil {
		var protoErr *ProtocolError
		if pe, ok := err.(*ProtocolError); ok {
			protoErr = pe
		} else {
			protoErr = &ProtocolError{Kind: ProtocolUnexpectedMessage, Phase: c.phase.String(), Got: err.Error()}
		}
		if protoErr.IsFatal() {
			c.phase = PhaseFaulted
			c.fault = protoErr
			return append(events, Event{Kind: EventDormant}, Event{Kind: EventProtocolError, Err: protoErr}), nil
		}
		return append(events, Event{Kind: EventProtocolError, Err: protoErr}), nil
	}
	c.phase = c.sess.phase
	return events, nil
}

// RequestModeChange asks the session driver to switch detection mode
// (commsIndex) at the next opportunity. Only valid while Armed.
func (c *Client) RequestModeChange(mode byte) error {
	if c.sess == nil || c.phase != PhaseArmed {
		return &ProtocolError{Kind: ProtocolUnexpectedMessage, Phase: c.phase.String(), Expected: "Armed"}
	}
	c.sess.requestModeChange(mode)
	return nil
}

// RequestSettingsChange asks the session driver to push a new
// configuration (ball type, tee height, etc.) at the next opportunity.
func (c *Client) RequestSettingsChange(cfg Config) error {
	if c.sess == nil || c.phase != PhaseArmed {
		return &ProtocolError{Kind: ProtocolUnexpectedMessage, Phase: c.phase.String(), Expected: "Armed"}
	}
	c.sess.requestSettingsChange(cfg)
	return nil
}

// Disconnect closes the underlying transport. It is the only
// cancellation primitive; a handshake or shot collection in progress is
// abandoned mid-transcript.
func (c *Client) Disconnect() error {
	return c.t.Close()
}
