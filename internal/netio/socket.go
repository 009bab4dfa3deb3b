// Package netio is the pipeline's one external collaborator named but
// not specified by the system it implements: a UDP socket abstraction
// thin enough that PipelineStream never imports net directly.
package netio

import (
	"fmt"
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// Socket is the receive side of one UDP endpoint. ReadTimeout
// implementations return (0, nil) on a timeout rather than an error, so
// callers can distinguish "nothing arrived, check the cancellation
// flag" from a real transport failure.
type Socket interface {
	// Recv reads into buf, applying the configured read timeout.
	// Returns the byte count read; zero means the timeout elapsed
	// with nothing received.
	Recv(buf []byte) (int, error)
	Close() error
	LocalAddr() net.Addr
}

// UDPSocket is the production Socket: a *net.UDPConn with a tuned
// receive buffer and a bounded per-call read deadline.
type UDPSocket struct {
	conn        *net.UDPConn
	readTimeout time.Duration
}

// UDPSocketConfig configures Listen.
type UDPSocketConfig struct {
	// ListenAddr is the local address to bind, e.g. ":50100".
	ListenAddr string
	// ReadTimeout bounds every Recv call; the default pipeline
	// configuration uses 150ms so the receive loop can observe a
	// cancellation flag promptly.
	ReadTimeout time.Duration
	// RecvBufferBytes sets SO_RCVBUF via golang.org/x/sys/unix,
	// sized generously so kernel-level bursts don't drop packets
	// before the transfer buffer ever sees them. Zero leaves the
	// OS default in place.
	RecvBufferBytes int
}

// Listen opens a UDP socket bound to cfg.ListenAddr.
func Listen(cfg UDPSocketConfig) (*UDPSocket, error) {
	addr, err := net.ResolveUDPAddr("udp", cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("netio: resolving %q: %w", cfg.ListenAddr, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("netio: listening on %q: %w", cfg.ListenAddr, err)
	}

	if cfg.RecvBufferBytes > 0 {
		if err := setRecvBuffer(conn, cfg.RecvBufferBytes); err != nil {
			conn.Close()
			return nil, fmt.Errorf("netio: setting SO_RCVBUF: %w", err)
		}
	}

	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = 150 * time.Millisecond
	}
	return &UDPSocket{conn: conn, readTimeout: timeout}, nil
}

// setRecvBuffer tunes SO_RCVBUF directly through the syscall package
// rather than net.UDPConn.SetReadBuffer, which silently clamps to the
// OS's rmem_max without reporting whether the requested size took.
func setRecvBuffer(conn *net.UDPConn, bytes int) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	err = raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, bytes)
	})
	if err != nil {
		return err
	}
	return sockErr
}

// Recv reads one datagram into buf with the configured read timeout.
func (s *UDPSocket) Recv(buf []byte) (int, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
		return 0, err
	}
	n, _, err := s.conn.ReadFromUDP(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

// Close releases the underlying socket.
func (s *UDPSocket) Close() error { return s.conn.Close() }

// LocalAddr returns the socket's bound address.
func (s *UDPSocket) LocalAddr() net.Addr { return s.conn.LocalAddr() }

// RecvLoop calls sock.Recv repeatedly while shouldContinue returns true,
// invoking onPacket for every non-empty read and onIdle for every
// timeout or error, so ingress counters stay accurate without a caller
// needing to know about net.Error timeouts. shouldContinue is polled
// once per iteration rather than via context.Context, matching how
// every other loop in this pipeline is cancelled (a polled Control
// flag, checked promptly because Recv itself is bounded by its own
// read timeout).
func RecvLoop(shouldContinue func() bool, sock Socket, buf []byte, onPacket func(n int), onIdle func(err error)) {
	for shouldContinue() {
		n, err := sock.Recv(buf)
		switch {
		case err != nil:
			onIdle(err)
		case n == 0:
			onIdle(nil)
		default:
			onPacket(n)
		}
	}
}
