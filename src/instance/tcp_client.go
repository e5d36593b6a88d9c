package instance

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"time"
)

type tcpClient struct{}

func newTCPClient() Client { return &tcpClient{} }

// TryUpload scans the port range for a resident daemon (PING handshake) and,
// when one answers, sends the capture path and waits for its verdict.
func (c *tcpClient) TryUpload(ctx context.Context, path string) (bool, string, error) {
	deadline := 30 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			deadline = d
		}
	}
	start, end := portRange()
	for port := start; port <= end; port++ {
		addr := net.JoinHostPort(residentHost, strconv.Itoa(port))
		if !ping(addr, 300*time.Millisecond) {
			continue
		}
		conn, err := net.DialTimeout("tcp", addr, deadline)
		if err != nil {
			continue
		}
		_ = conn.SetDeadline(time.Now().Add(deadline))
		w := bufio.NewWriter(conn)
		if _, err := w.WriteString(uploadRequest + path + "\n"); err != nil {
			conn.Close()
			return true, "", err
		}
		if err := w.Flush(); err != nil {
			conn.Close()
			return true, "", err
		}
		br := bufio.NewReader(conn)
		status, err := br.ReadString('\n')
		if err != nil {
			conn.Close()
			return true, "", err
		}
		body, _ := io.ReadAll(br)
		conn.Close()
		switch status {
		case "SUCCESS\n":
			return true, string(body), nil
		case "ERROR\n":
			return true, "", errors.New(string(body))
		default:
			return true, "", errors.New("unexpected response " + status)
		}
	}
	return false, "", nil
}

func ping(addr string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))
	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(pingRequest); err != nil {
		return false
	}
	if err := w.Flush(); err != nil {
		return false
	}
	br := bufio.NewReader(conn)
	resp, err := br.ReadString('\n')
	return err == nil && resp == pongResponse
}
