// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Connection flags
	tcpAddr string
	wsURL   string
	wsUser  string
	noSSL   bool

	// Session flags
	cfgFile string
	logFile string

	logger = log.New(os.Stderr, "[ironsight] ", log.LstdFlags|log.Lmicroseconds)
)

var rootCmd = &cobra.Command{
	Use:   "ironsight",
	Short: "FlightScope Mevo+/Gen2 launch monitor client",
	Long: `ironsight talks the Mevo+/Gen2 binary wire protocol over TCP port 5100:
handshake, arm, collect shots, and relay over WebSocket.

Connection modes:
  Direct TCP: --addr 192.168.1.50:5100
  WebSocket relay: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the IRONSIGHT_PASSWORD
environment variable, or prompted interactively if not set.`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&tcpAddr, "addr", "a", "", "Device TCP address (host:5100)")
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket relay URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUser, "username", "", "Username for HTTP Basic auth (WebSocket only)")
	rootCmd.PersistentFlags().BoolVar(&noSSL, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "YAML session configuration file")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write rotating logs to this path instead of stderr")
}

// setupLogging redirects the package logger to a rotating file when
// --log-file is set, mirroring the reference daemon's lumberjack setup.
func setupLogging() {
	if logFile == "" {
		return
	}
	logger.SetOutput(&lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    20,
		MaxBackups: 5,
		MaxAge:     14,
		Compress:   true,
	})
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
