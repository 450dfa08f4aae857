// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mevo

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketTransport bridges a WebSocket relay (see cmd/relay.go) to the
// same non-blocking Transport interface as a direct TCP connection, for
// deployments where the device's TCP port is reached through a cloud
// relay rather than the local network.
type WebSocketTransport struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	buf          []byte
	bufOffset    int
	closed       bool
}

// DialWebSocket opens a WebSocket connection with optional HTTP Basic auth,
// mirroring the reference relay client's authentication handshake.
func DialWebSocket(wsURL, username, password string, skipTLSVerify bool, writeTimeout time.Duration) (*WebSocketTransport, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, &IoError{Op: "parse-url", Cause: err}
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, &IoError{Op: "parse-url", Cause: errors.New("unsupported scheme: " + u.Scheme)}
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: skipTLSVerify}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		creds := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+creds)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	conn, _, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		return nil, &IoError{Op: "dial", Cause: err}
	}
	return &WebSocketTransport{conn: conn, writeTimeout: writeTimeout}, nil
}

func (w *WebSocketTransport) ReadAvailable() ([]byte, error) {
	if w.closed {
		return nil, &IoError{Op: "read", Cause: errors.New("websocket connection closed")}
	}
	if w.bufOffset < len(w.buf) {
		out := w.buf[w.bufOffset:]
		w.bufOffset = len(w.buf)
		return out, nil
	}

	if err := w.conn.SetReadDeadline(time.Now().Add(pollDeadline)); err != nil {
		return nil, &IoError{Op: "set-read-deadline", Cause: err}
	}
	messageType, data, err := w.conn.ReadMessage()
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, nil
		}
		w.closed = true
		return nil, &IoError{Op: "read", Cause: err}
	}
	if messageType != websocket.BinaryMessage {
		return nil, nil
	}
	w.buf = data
	w.bufOffset = len(data)
	return data, nil
}

func (w *WebSocketTransport) Write(p []byte) error {
	if err := w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout)); err != nil {
		return &IoError{Op: "set-write-deadline", Cause: err}
	}
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return &IoError{Op: "write", Cause: err}
	}
	return nil
}

func (w *WebSocketTransport) Close() error {
	return w.conn.Close()
}
