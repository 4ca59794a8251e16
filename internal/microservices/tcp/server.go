package tcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"teamchat/internal/microservices/chat"
)

// TCPServer accepts line-delimited JSON sessions and hands them to the hub.
type TCPServer struct {
	Addr    string
	Manager *ConnectionManager

	hub        *chat.Hub
	sendBuffer int
	logger     *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	quitChan chan struct{}
	// shutdown signal channel; closed once by Stop
	stopOnce sync.Once
	wg       sync.WaitGroup
	// one per connection goroutine
}

// constructor for Server
func NewServer(addr string, hub *chat.Hub, sendBuffer int, logger *slog.Logger) *TCPServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &TCPServer{
		Addr:       addr,
		Manager:    NewConnectionManager(logger),
		hub:        hub,
		sendBuffer: sendBuffer,
		logger:     logger,
		quitChan:   make(chan struct{}),
	}
}

// Start listens on Addr and serves until Stop.
func (s *TCPServer) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("failed to start TCP server: %w", err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts on listener until Stop. It returns nil after a clean stop.
func (s *TCPServer) Serve(ctx context.Context, listener net.Listener) error {
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	defer listener.Close()

	s.logger.Info("tcp_server_started", "addr", listener.Addr().String())

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.quitChan:
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Error("tcp_accept_failed", "error", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}

		s.wg.Add(1)
		go func(conn net.Conn) {
			defer s.wg.Done()
			s.handleConnection(ctx, conn)
		}(conn)
	}
}

// handle the lifecycle of a single client connection
func (s *TCPServer) handleConnection(ctx context.Context, conn net.Conn) {
	client := NewClientConnection(conn, s.sendBuffer, s.logger)
	s.Manager.AddConnection(client)
	defer s.Manager.RemoveConnection(client)
	client.Listen(ctx, s.hub)
}

// Stop closes the listener and every connection, then waits for their
// sessions to finish tearing down.
func (s *TCPServer) Stop() {
	s.stopOnce.Do(func() {
		close(s.quitChan)
		s.mu.Lock()
		if s.listener != nil {
			s.listener.Close()
		}
		s.mu.Unlock()
		s.Manager.CloseAllConnections()
		s.wg.Wait()
		s.logger.Info("tcp_server_stopped")
	})
}
