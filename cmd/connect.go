// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/divotmaker/ironsight/pkg/mevo"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect, run the handshake, and report whether the device armed",
	RunE:  runConnect,
}

func init() {
	rootCmd.AddCommand(connectCmd)
}

func runConnect(cmd *cobra.Command, args []string) error {
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

	if err := client.ConnectAndHandshake(20 * time.Millisecond); err != nil {
		return fmt.Errorf("handshake failed: %w", err)
	}

	fmt.Println("handshake complete, device armed")
	return client.Disconnect()
}
