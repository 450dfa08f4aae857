// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/divotmaker/ironsight/pkg/mevo"
	"github.com/divotmaker/ironsight/pkg/mevo/shotlog"
)

var (
	shotLogPath string
	modeFlag    int
)

var armCmd = &cobra.Command{
	Use:   "arm",
	Short: "Connect, arm, and print shots as they are struck",
	RunE:  runArm,
}

func init() {
	armCmd.Flags().StringVar(&shotLogPath, "shot-log", "", "Append captured shots to this CBOR shot-log file")
	armCmd.Flags().IntVar(&modeFlag, "mode", 0, "Detection mode (commsIndex); 0 keeps the config/default value")
	rootCmd.AddCommand(armCmd)
}

func runArm(cmd *cobra.Command, args []string) error {
	setupLogging()

	cfg, err := loadSessionConfig(cfgFile)
	if err != nil {
		return err
	}
	if modeFlag != 0 {
		cfg.Mode = byte(modeFlag)
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
	fmt.Println("armed, waiting for shots (ctrl-c to quit)")

	var writer *shotlog.Writer
	if shotLogPath != "" {
		writer, err = shotlog.Create(shotLogPath)
		if err != nil {
			return err
		}
		defer writer.Close()
	}

	var seq uint64
	for {
		events, err := client.Poll()
		if err != nil {
			return err
		}
		for _, ev := range events {
			switch ev.Kind {
			case mevo.EventShot:
				seq++
				printShot(ev.Shot)
				if writer != nil {
					rec := mevo.ToRecord(ev.Shot, seq, time.Now().UnixMilli(), cfg.Mode)
					if err := writer.Append(rec); err != nil {
						logger.Printf("shot-log append failed: %v", err)
					}
				}
			case mevo.EventDormant:
				return fmt.Errorf("device reported dormant; reconnect required")
			case mevo.EventProtocolError:
				logger.Printf("protocol error: %v", ev.Err)
			case mevo.EventText:
				logger.Printf("text: %s", ev.Text)
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func printShot(s mevo.ShotEvent) {
	if s.FlightResult != nil {
		fr := s.FlightResult
		fmt.Printf("ball %.1f m/s  launch %.1f deg  carry %.1f m  total %.1f m  spin %.0f/%.0f rpm\n",
			fr.BallSpeedMS, fr.LaunchAngleDeg, fr.CarryDistanceM, fr.TotalDistanceM, fr.BackSpinRPM, fr.SideSpinRPM)
		return
	}
	if s.FlightResultV1 != nil {
		fr := s.FlightResultV1
		fmt.Printf("ball %.1f m/s  launch %.1f deg  carry %.1f m  total %.1f m (v1)\n",
			fr.BallSpeedMS, fr.LaunchAngleDeg, fr.CarryDistanceM, fr.TotalDistanceM)
		return
	}
	fmt.Println("shot recorded (no flight result decoded)")
}
