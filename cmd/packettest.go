// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/divotmaker/ironsight/pkg/mevo"
)

var packetTestTimeout int

var packetTestCmd = &cobra.Command{
	Use:   "packet_test",
	Short: "Test connectivity by waiting for a single valid frame",
	Long: `Open a connection and wait for any single well-formed frame, ignoring
invalid bytes. Does not run the handshake, so it reports transport-level
connectivity rather than protocol-level readiness.

Exit codes:
  0 - a frame was received before timeout
  1 - timeout reached without a valid frame
  2 - connection error`,
	RunE: runPacketTest,
}

func init() {
	packetTestCmd.Flags().IntVar(&packetTestTimeout, "timeout", 10, "Seconds to wait for a frame")
	rootCmd.AddCommand(packetTestCmd)
}

func runPacketTest(cmd *cobra.Command, args []string) error {
	cfg, err := loadSessionConfig(cfgFile)
	if err != nil {
		return err
	}

	t, connInfo, err := OpenTransport(int(cfg.DialTimeout / time.Millisecond))
	if err != nil {
		fmt.Fprintf(os.Stderr, "connection error: %v\n", err)
		os.Exit(2)
	}
	defer t.Close()

	fmt.Printf("ironsight - packet test\n")
	fmt.Printf("connection: %s\n", connInfo)
	fmt.Printf("timeout: %ds\n", packetTestTimeout)
	fmt.Printf("waiting for a valid frame...\n\n")

	recv := mevo.NewReceiveBuffer()
	deadline := time.Now().Add(time.Duration(packetTestTimeout) * time.Second)
	skipped := 0

	for time.Now().Before(deadline) {
		data, err := t.ReadAvailable()
		if err != nil {
			fmt.Fprintf(os.Stderr, "read error: %v\n", err)
			os.Exit(2)
		}
		if len(data) > 0 {
			recv.Push(data)
		}

		fr, ferr, ready := recv.NextFrame()
		if ferr != nil {
			skipped++
			continue
		}
		if ready {
			if skipped > 0 {
				fmt.Printf("(skipped %d malformed frames before sync)\n", skipped)
			}
			fmt.Printf("SUCCESS: received a frame\n")
			fmt.Printf("  bus:  %s\n", fr.Src)
			fmt.Printf("  type: 0x%02X\n", fr.TypeID)
			fmt.Printf("  len:  %d bytes\n", len(fr.Payload))
			return nil
		}

		time.Sleep(5 * time.Millisecond)
	}

	fmt.Fprintf(os.Stderr, "TIMEOUT: no valid frame received within %ds\n", packetTestTimeout)
	os.Exit(1)
	return nil
}
