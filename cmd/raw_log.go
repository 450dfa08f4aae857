// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/divotmaker/ironsight/pkg/mevo"
)

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display raw frames in human-readable form as they arrive",
	Long: `Continuously decode and display frames as they arrive on the wire,
showing timestamp, bus, message type, and decoded payload. Does not run
the handshake or session driver, so it works against a device in any
state.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
}

func runRawLog(cmd *cobra.Command, args []string) error {
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

	fmt.Printf("ironsight - raw frame log\n")
	fmt.Printf("connection: %s\n", connInfo)
	fmt.Printf("ctrl-c to exit\n\n")

	recv := mevo.NewReceiveBuffer()

	for {
		data, err := t.ReadAvailable()
		if err != nil {
			return err
		}
		if len(data) > 0 {
			recv.Push(data)
		}

		for {
			fr, ferr, ready := recv.NextFrame()
			if ferr != nil {
				fmt.Printf("[%s] [ERROR] %v\n", time.Now().Format("15:04:05.000"), ferr)
				continue
			}
			if !ready {
				break
			}

			msg, derr := mevo.DecodeMessage(fr)
			if derr != nil {
				fmt.Printf("[%s] bus=%s type=0x%02X [DECODE ERROR] %v\n",
					time.Now().Format("15:04:05.000"), fr.Src, fr.TypeID, derr)
				continue
			}
			fmt.Printf("[%s] bus=%s type=0x%02X %T %+v\n",
				time.Now().Format("15:04:05.000"), fr.Src, fr.TypeID, msg, msg)
		}

		time.Sleep(5 * time.Millisecond)
	}
}
