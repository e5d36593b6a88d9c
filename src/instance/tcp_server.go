package instance

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"time"
)

const (
	residentHost  = "127.0.0.1"
	pingRequest   = "PING\n"
	pongResponse  = "PONG\n"
	uploadRequest = "UPLOAD "
)

type tcpServer struct {
	lis      net.Listener
	incoming chan *tcpConn
	port     int
}

func newTCPServer() Server { return &tcpServer{incoming: make(chan *tcpConn, 8)} }

// Start binds only the first port of the range. A failed bind means another
// instance holds it, which is exactly the signal the caller wants.
func (s *tcpServer) Start(ctx context.Context) error {
	if s.lis != nil {
		return nil
	}
	start, _ := portRange()
	addr := fmt.Sprintf("%s:%d", residentHost, start)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Printf("Instance: failed to bind %s: %v", addr, err)
		return err
	}
	s.lis = lis
	s.port = start
	log.Printf("Instance: listening on %s", addr)
	go s.acceptLoop(ctx)
	return nil
}

func (s *tcpServer) Port() int { return s.port }

func (s *tcpServer) acceptLoop(ctx context.Context) {
	for {
		c, err := s.lis.Accept()
		if err != nil {
			return
		}
		remote := c.RemoteAddr().String()
		_ = c.SetDeadline(time.Now().Add(3 * time.Second))
		br := bufio.NewReader(c)
		line, _ := br.ReadString('\n')
		bw := bufio.NewWriter(c)
		if line == pingRequest {
			_, _ = bw.WriteString(pongResponse)
			_ = bw.Flush()
			_ = c.Close()
			continue
		}
		if !strings.HasPrefix(line, uploadRequest) {
			log.Printf("Instance: unknown request from %s", remote)
			_, _ = bw.WriteString("ERROR\nunknown request")
			_ = bw.Flush()
			_ = c.Close()
			continue
		}
		_ = c.SetDeadline(time.Time{})
		path := strings.TrimSuffix(strings.TrimPrefix(line, uploadRequest), "\n")
		log.Printf("Instance: delegated upload from %s: %s", remote, path)
		select {
		case s.incoming <- &tcpConn{c: c, req: Request{Path: path}, w: bw}:
		case <-ctx.Done():
			_ = c.Close()
			return
		}
	}
}

func (s *tcpServer) Next(ctx context.Context) (Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case tc := <-s.incoming:
		return tc, nil
	}
}

func (s *tcpServer) Close() error {
	if s.lis != nil {
		_ = s.lis.Close()
		s.lis = nil
	}
	return nil
}

type tcpConn struct {
	c   net.Conn
	req Request
	w   *bufio.Writer
}

func (tc *tcpConn) Request() Request { return tc.req }

func (tc *tcpConn) RespondSuccess(text string) error {
	if _, err := tc.w.WriteString("SUCCESS\n" + text); err != nil {
		return err
	}
	return tc.w.Flush()
}

func (tc *tcpConn) RespondError(msg string) error {
	if _, err := tc.w.WriteString("ERROR\n" + msg); err != nil {
		return err
	}
	return tc.w.Flush()
}

func (tc *tcpConn) Close() error { return tc.c.Close() }
