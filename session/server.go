// Copyright © 2026 Veilterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: session/server.go
// Summary: Unix socket command server for the running veilterm instance.

package session

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"os"
	"sync"

	"github.com/veilterm/veilterm/protocol"
)

// Server listens on a Unix domain socket and feeds command frames to the
// dispatcher. One frame per request, one reply per frame.
type Server struct {
	addr       string
	dispatcher *Dispatcher
	listener   net.Listener
	quit       chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

func NewServer(addr string, dispatcher *Dispatcher) *Server {
	return &Server{addr: addr, dispatcher: dispatcher, quit: make(chan struct{})}
}

func (s *Server) Start() error {
	if err := os.RemoveAll(s.addr); err != nil {
		return err
	}
	l, err := net.Listen("unix", s.addr)
	if err != nil {
		return err
	}
	s.listener = l
	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *Server) Addr() string {
	return s.addr
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
			}
			continue
		}

		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			defer c.Close()
			s.serveConn(c)
		}(conn)
	}
}

func (s *Server) serveConn(c net.Conn) {
	for {
		hdr, payload, err := protocol.ReadMessage(c)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("Session: Dropping connection: %v", err)
			}
			return
		}

		replyType, replyPayload := s.dispatcher.Handle(hdr, payload)
		reply := protocol.Header{
			Version:  protocol.Version,
			Type:     replyType,
			Flags:    protocol.FlagChecksum,
			Sequence: hdr.Sequence,
		}
		if err := protocol.WriteMessage(c, reply, replyPayload); err != nil {
			log.Printf("Session: Failed to write reply: %v", err)
			return
		}
	}
}

// Stop closes the listener and waits for in-flight connections, bounded by
// the context deadline. Idempotent.
func (s *Server) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		close(s.quit)
		if s.listener != nil {
			_ = s.listener.Close()
		}
	})
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
