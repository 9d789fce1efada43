// Package ipc carries transcripts from `roland send` to a running listener
// over a unix socket, one JSON request and one JSON reply per connection.
package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	socketDirMode  = 0o700
	socketFileMode = 0o600
	connTimeout    = 30 * time.Second
)

var (
	ErrAlreadyListening = errors.New("another listener owns the socket")
	ErrRemote           = errors.New("listener reported an error")
)

type Request struct {
	Session    string `json:"session,omitempty"`
	Transcript string `json:"transcript"`
}

type Reply struct {
	Intent   string `json:"intent,omitempty"`
	Response string `json:"response,omitempty"`
	Action   string `json:"action,omitempty"`
	Error    string `json:"error,omitempty"`
}

type Handler func(ctx context.Context, req Request) Reply

type Server struct {
	path     string
	listener net.Listener
	handler  Handler
	logger   *zap.Logger

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Listen binds the socket. A stale socket left by a crashed listener is
// replaced; a live one is not.
func Listen(path string, handler Handler, logger *zap.Logger) (*Server, error) {
	if handler == nil {
		return nil, errors.New("ipc handler is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(filepath.Dir(path), socketDirMode); err != nil {
		return nil, fmt.Errorf("create socket directory: %w", err)
	}
	if err := removeStaleSocket(path); err != nil {
		return nil, err
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", path, err)
	}
	if err := os.Chmod(path, socketFileMode); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}

	return &Server{path: path, listener: listener, handler: handler, logger: logger}, nil
}

func (s *Server) Path() string {
	return s.path
}

// Serve accepts connections until ctx is done, then waits for in-flight
// requests and removes the socket.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.Close()
	}()
	defer s.wg.Wait()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(ctx, conn)
		}()
	}
}

func (s *Server) Close() {
	s.closeOnce.Do(func() {
		_ = s.listener.Close()
		_ = os.Remove(s.path)
	})
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(connTimeout))

	var req Request
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		s.logger.Warn("decode ipc request", zap.Error(err))
		_ = json.NewEncoder(conn).Encode(Reply{Error: "malformed request"})
		return
	}

	reply := s.handler(ctx, req)
	if err := json.NewEncoder(conn).Encode(reply); err != nil {
		s.logger.Warn("encode ipc reply", zap.Error(err))
	}
}

// Send delivers one transcript and waits for the reply. A reply carrying an
// error is returned together with ErrRemote.
func Send(ctx context.Context, path string, req Request) (Reply, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return Reply{}, fmt.Errorf("dial listener at %s: %w", path, err)
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(connTimeout)
	}
	_ = conn.SetDeadline(deadline)

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Reply{}, fmt.Errorf("send request: %w", err)
	}

	var reply Reply
	if err := json.NewDecoder(conn).Decode(&reply); err != nil {
		return Reply{}, fmt.Errorf("read reply: %w", err)
	}
	if reply.Error != "" {
		return reply, fmt.Errorf("%w: %s", ErrRemote, reply.Error)
	}

	return reply, nil
}

func removeStaleSocket(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat socket: %w", err)
	}
	if info.Mode()&os.ModeSocket == 0 {
		return fmt.Errorf("%s exists and is not a socket", path)
	}

	if conn, err := net.DialTimeout("unix", path, 200*time.Millisecond); err == nil {
		_ = conn.Close()
		return fmt.Errorf("%w: %s", ErrAlreadyListening, path)
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove stale socket: %w", err)
	}
	return nil
}
