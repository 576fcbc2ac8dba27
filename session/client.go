// Copyright © 2026 Veilterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: session/client.go
// Summary: One-shot client for sending a command to a running instance.

package session

import (
	"fmt"
	"net"
	"time"

	"github.com/veilterm/veilterm/protocol"
)

const requestTimeout = 5 * time.Second

// Request dials the socket, sends a single command frame and returns the
// reply. A MsgError reply is surfaced as a Go error.
func Request(socket string, msgType protocol.MessageType, payload []byte) (protocol.MessageType, []byte, error) {
	conn, err := net.DialTimeout("unix", socket, requestTimeout)
	if err != nil {
		return 0, nil, fmt.Errorf("session: dial %s: %w", socket, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(requestTimeout))

	hdr := protocol.Header{
		Version: protocol.Version,
		Type:    msgType,
		Flags:   protocol.FlagChecksum,
	}
	if err := protocol.WriteMessage(conn, hdr, payload); err != nil {
		return 0, nil, fmt.Errorf("session: send: %w", err)
	}

	replyHdr, replyPayload, err := protocol.ReadMessage(conn)
	if err != nil {
		return 0, nil, fmt.Errorf("session: read reply: %w", err)
	}
	if replyHdr.Type == protocol.MsgError {
		frame, decErr := protocol.DecodeErrorFrame(replyPayload)
		if decErr != nil {
			return 0, nil, fmt.Errorf("session: command failed (undecodable error frame)")
		}
		return 0, nil, fmt.Errorf("session: command failed: %s (code %d)", frame.Message, frame.Code)
	}
	return replyHdr.Type, replyPayload, nil
}
