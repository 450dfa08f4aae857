// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

var relayListenAddr string

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Bridge a WebSocket listener to the device's direct TCP port",
	Long: "Accepts WebSocket connections on --listen and bridges each one to the\n" +
		"TCP device named by --addr, so a client that only has cloud/WebSocket\n" +
		"reach can still reach a device that only speaks raw TCP on its LAN.",
	RunE: runRelay,
}

func init() {
	relayCmd.Flags().StringVar(&relayListenAddr, "listen", ":8766", "Address to listen for incoming WebSocket relay connections")
	rootCmd.AddCommand(relayCmd)
}

var relayUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func runRelay(cmd *cobra.Command, args []string) error {
	setupLogging()

	if tcpAddr == "" {
		return fmt.Errorf("--addr must name the device's direct TCP endpoint to relay to")
	}

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		handleRelayConn(w, r)
	})

	logger.Printf("relaying WebSocket connections on %s to TCP device %s", relayListenAddr, tcpAddr)
	return http.ListenAndServe(relayListenAddr, nil)
}

func handleRelayConn(w http.ResponseWriter, r *http.Request) {
	ws, err := relayUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Printf("upgrade failed: %v", err)
		return
	}
	defer ws.Close()

	conn, err := net.DialTimeout("tcp", tcpAddr, 10*time.Second)
	if err != nil {
		logger.Printf("device dial failed: %v", err)
		return
	}
	defer conn.Close()

	logger.Printf("relay session established: %s <-> %s", r.RemoteAddr, tcpAddr)

	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, 4096)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				if werr := ws.WriteMessage(websocket.BinaryMessage, buf[:n]); werr != nil {
					return
				}
			}
			if err != nil {
				if err != io.EOF {
					logger.Printf("device read error: %v", err)
				}
				return
			}
		}
	}()

	for {
		msgType, data, err := ws.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		if _, werr := conn.Write(data); werr != nil {
			logger.Printf("device write error: %v", werr)
			break
		}
	}

	<-done
	logger.Printf("relay session closed: %s", r.RemoteAddr)
}
