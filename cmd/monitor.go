// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/divotmaker/ironsight/pkg/mevo"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Connect and show a live TUI of handshake progress and shots",
	RunE:  runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	setupLogging()

	cfg, err := loadSessionConfig(cfgFile)
	if err != nil {
		return err
	}

	t, connInfo, err := OpenTransport(int(cfg.DialTimeout / time.Millisecond))
	if err != nil {
		return err
	}
	defer t.Close()
	logger.Printf("connected via %s", connInfo)

	client, err := mevo.NewClient(t, cfg)
	if err != nil {
		return err
	}

	m := newMonitorModel(client)
	m.addLog(fmt.Sprintf("connected via %s, starting handshake", connInfo), false)

	p := tea.NewProgram(m)
	_, err = p.Run()
	return err
}
