// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/divotmaker/ironsight/pkg/mevo"
)

type logEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

type monitorModel struct {
	client        *mevo.Client
	phase         string
	shotCount     int
	lastShot      *mevo.ShotEvent
	log           []logEntry
	maxLogEntries int
	width, height int
	quitting      bool
}

type pollTickMsg time.Time

func newMonitorModel(client *mevo.Client) monitorModel {
	return monitorModel{
		client:        client,
		phase:         "connecting",
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

func pollTickCmd() tea.Cmd {
	return tea.Tick(30*time.Millisecond, func(t time.Time) tea.Msg { return pollTickMsg(t) })
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(pollTickCmd(), tea.EnterAltScreen)
}

func (m *monitorModel) addLog(message string, isError bool) {
	m.log = append(m.log, logEntry{timestamp: time.Now(), message: message, isError: isError})
	if len(m.log) > m.maxLogEntries {
		m.log = m.log[len(m.log)-m.maxLogEntries:]
	}
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case pollTickMsg:
		events, err := m.client.Poll()
		if err != nil {
			m.addLog(fmt.Sprintf("poll error: %v", err), true)
			return m, pollTickCmd()
		}
		for _, ev := range events {
			switch ev.Kind {
			case mevo.EventArmed:
				m.phase = "armed"
				m.addLog("armed", false)
			case mevo.EventDisarmed:
				m.phase = "disarmed"
				m.addLog("disarmed", false)
			case mevo.EventShot:
				m.shotCount++
				shot := ev.Shot
				m.lastShot = &shot
				m.addLog(fmt.Sprintf("shot #%d captured", m.shotCount), false)
			case mevo.EventProtocolError:
				m.addLog(fmt.Sprintf("protocol error: %v", ev.Err), true)
			case mevo.EventText:
				m.addLog("text: "+ev.Text, false)
			case mevo.EventDormant:
				m.phase = "dormant"
				m.addLog("device dormant, reconnect required", true)
			}
		}
		return m, pollTickCmd()
	}
	return m, nil
}

func (m monitorModel) View() string {
	if m.quitting {
		return ""
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle := lipgloss.NewStyle().Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	boxStyle := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

	var b strings.Builder
	fmt.Fprintln(&b, titleStyle.Render("ironsight — Mevo+/Gen2 monitor"))
	fmt.Fprintf(&b, "%s %s   %s %d\n\n",
		labelStyle.Render("phase:"), valueStyle.Render(m.phase),
		labelStyle.Render("shots:"), m.shotCount)

	if m.lastShot != nil && m.lastShot.FlightResult != nil {
		fr := m.lastShot.FlightResult
		fmt.Fprintf(&b, "%s\n", boxStyle.Render(fmt.Sprintf(
			"ball speed  %6.1f m/s\nlaunch      %6.1f deg\ncarry       %6.1f m\ntotal       %6.1f m\nback spin   %6.0f rpm\nside spin   %6.0f rpm",
			fr.BallSpeedMS, fr.LaunchAngleDeg, fr.CarryDistanceM, fr.TotalDistanceM, fr.BackSpinRPM, fr.SideSpinRPM)))
	}

	b.WriteString("\n")
	start := 0
	if len(m.log) > 10 {
		start = len(m.log) - 10
	}
	for _, e := range m.log[start:] {
		line := fmt.Sprintf("%s  %s", e.timestamp.Format("15:04:05"), e.message)
		if e.isError {
			line = errorStyle.Render(line)
		}
		fmt.Fprintln(&b, line)
	}

	b.WriteString("\n(q to quit)\n")
	return b.String()
}
