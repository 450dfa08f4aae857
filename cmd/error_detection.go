// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/divotmaker/ironsight/pkg/mevo"
)

var (
	edShowAll       bool
	edStatsInterval int
)

var errorDetectionCmd = &cobra.Command{
	Use:   "error_detection",
	Short: "Track framing errors and decode failures on the wire",
	Long: `Poll the connection and validate each frame, printing framing
errors and decode failures as they occur, with periodic statistics.

By default only errors are printed; use --show-all to print valid frames
as well.`,
	RunE: runErrorDetection,
}

func init() {
	errorDetectionCmd.Flags().BoolVar(&edShowAll, "show-all", false, "Print valid frames too, not just errors")
	errorDetectionCmd.Flags().IntVar(&edStatsInterval, "stats-interval", 10, "Statistics summary interval, in seconds")
	rootCmd.AddCommand(errorDetectionCmd)
}

type frameStats struct {
	framesOK   int
	framingErr int
	decodeErr  int
	byType     map[byte]int
}

func newFrameStats() *frameStats {
	return &frameStats{byType: make(map[byte]int)}
}

func (s *frameStats) String() string {
	total := s.framesOK + s.framingErr + s.decodeErr
	errRate := 0.0
	if total > 0 {
		errRate = 100 * float64(s.framingErr+s.decodeErr) / float64(total)
	}
	out := fmt.Sprintf("--- stats ---\nvalid frames: %d\nframing errors: %d\ndecode errors: %d\nerror rate: %.1f%%\n",
		s.framesOK, s.framingErr, s.decodeErr, errRate)
	for t, n := range s.byType {
		out += fmt.Sprintf("  0x%02X: %d\n", t, n)
	}
	return out
}

func runErrorDetection(cmd *cobra.Command, args []string) error {
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

	fmt.Printf("ironsight - error detection mode\n")
	fmt.Printf("connection: %s\n", connInfo)
	fmt.Printf("statistics interval: %ds\n", edStatsInterval)
	if edShowAll {
		fmt.Printf("mode: all frames\n")
	} else {
		fmt.Printf("mode: errors only\n")
	}
	fmt.Printf("ctrl-c to exit\n\n")

	recv := mevo.NewReceiveBuffer()
	stats := newFrameStats()
	nextStats := time.Now().Add(time.Duration(edStatsInterval) * time.Second)

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
				if fe, ok := ferr.(*mevo.FramingError); ok {
					stats.framingErr++
					fmt.Printf("[%s] FRAMING ERROR: %s: %s\n", time.Now().Format("15:04:05.000"), fe.Kind, fe.Detail)
				} else {
					stats.framingErr++
					fmt.Printf("[%s] FRAMING ERROR: %v\n", time.Now().Format("15:04:05.000"), ferr)
				}
				continue
			}
			if !ready {
				break
			}

			msg, derr := mevo.DecodeMessage(fr)
			if derr != nil {
				stats.decodeErr++
				fmt.Printf("[%s] DECODE ERROR: bus=%s type=0x%02X: %v\n",
					time.Now().Format("15:04:05.000"), fr.Src, fr.TypeID, derr)
				continue
			}

			stats.framesOK++
			stats.byType[fr.TypeID]++
			if edShowAll {
				fmt.Printf("[%s] bus=%s type=0x%02X %T\n", time.Now().Format("15:04:05.000"), fr.Src, fr.TypeID, msg)
			}
		}

		if time.Now().After(nextStats) {
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()
			nextStats = time.Now().Add(time.Duration(edStatsInterval) * time.Second)
		}

		time.Sleep(5 * time.Millisecond)
	}
}
