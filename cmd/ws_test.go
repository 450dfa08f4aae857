// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var wsTestCmd = &cobra.Command{
	Use:   "ws_test",
	Short: "Test raw connection stability without speaking the wire protocol",
	Long: `Open the configured connection and just poll it, logging any bytes
received or errors encountered. Useful for debugging connection stability
independent of handshake/session state.

Exit codes:
  0 - test completed normally
  1 - test failed
  2 - connection error`,
	RunE: runWsTest,
}

var wsTestDuration int

func init() {
	wsTestCmd.Flags().IntVar(&wsTestDuration, "duration", 30, "Test duration in seconds")
	rootCmd.AddCommand(wsTestCmd)
}

func runWsTest(cmd *cobra.Command, args []string) error {
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

	fmt.Printf("connection stability test\n")
	fmt.Printf("connection: %s\n", connInfo)
	fmt.Printf("duration: %ds\n\n", wsTestDuration)

	endTime := time.Now().Add(time.Duration(wsTestDuration) * time.Second)
	bytesReceived, readsReceived := 0, 0
	lastHeartbeat := time.Now()

	for time.Now().Before(endTime) {
		data, err := t.ReadAvailable()
		if err != nil {
			fmt.Printf("\n[%s] connection error: %v\n", time.Now().Format("15:04:05.000"), err)
			fmt.Printf("\n--- results ---\nbytes received: %d\nresult: FAILED\n", bytesReceived)
			os.Exit(1)
		}
		if len(data) > 0 {
			bytesReceived += len(data)
			readsReceived++
			fmt.Printf("[%s] received %d bytes: %x\n", time.Now().Format("15:04:05.000"), len(data), data)
		}
		if time.Since(lastHeartbeat) >= time.Second {
			fmt.Printf("[%s] still connected... (%.0fs remaining)\n",
				time.Now().Format("15:04:05.000"), time.Until(endTime).Seconds())
			lastHeartbeat = time.Now()
		}
		time.Sleep(5 * time.Millisecond)
	}

	fmt.Printf("\n--- results ---\n")
	fmt.Printf("duration: %ds\n", wsTestDuration)
	fmt.Printf("reads: %d\n", readsReceived)
	fmt.Printf("bytes received: %d\n", bytesReceived)
	fmt.Printf("result: PASSED (connection stable)\n")
	return nil
}
