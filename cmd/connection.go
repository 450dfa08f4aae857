// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/divotmaker/ironsight/pkg/mevo"
)

// GetPassword retrieves the WebSocket relay password from the environment
// or prompts interactively, hiding input where the terminal supports it.
func GetPassword() (string, error) {
	if pw := os.Getenv("IRONSIGHT_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// OpenTransport opens either a direct TCP or WebSocket-relayed connection
// to the device, based on the --addr/--url flags.
func OpenTransport(writeTimeoutMs int) (mevo.Transport, string, error) {
	writeTimeout := msToDuration(writeTimeoutMs)

	if wsURL != "" {
		password := ""
		if wsUser != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}
		t, err := mevo.DialWebSocket(wsURL, wsUser, password, noSSL, writeTimeout)
		if err != nil {
			return nil, "", err
		}
		return t, fmt.Sprintf("WebSocket: %s", wsURL), nil
	}

	if tcpAddr != "" {
		t, err := mevo.DialTCP(tcpAddr, writeTimeout)
		if err != nil {
			return nil, "", err
		}
		return t, fmt.Sprintf("TCP: %s", tcpAddr), nil
	}

	return nil, "", fmt.Errorf("either --addr or --url must be specified")
}
