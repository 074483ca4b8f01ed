// Package ctl implements the client-side commands for groundctl. It
// talks to a running groundstationd over the length-prefixed TCP
// control protocol and renders the results to the terminal.
package ctl

import (
	"bufio"
	"fmt"
	"net"
	"time"
)

// dialTimeout bounds how long a command waits to connect before giving
// up.
const dialTimeout = 5 * time.Second

// conn is a single request/response round trip over the control
// protocol: connect, send one framed command, read one framed reply,
// close. The protocol is strictly sequential per connection, so a
// fresh connection per invocation keeps the CLI simple.
type conn struct {
	c net.Conn
	r *bufio.Reader
}

func dial(addr string) (*conn, error) {
	c, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	return &conn{c: c, r: bufio.NewReader(c)}, nil
}

func (cn *conn) close() { cn.c.Close() }

// send writes command (already including its space-delimited
// arguments) as one frame and returns the single-frame response.
func (cn *conn) send(command string) ([]byte, error) {
	if err := cn.c.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		return nil, err
	}
	prefix := fmt.Sprintf("%d", len(command))
	if _, err := cn.c.Write([]byte(prefix + command)); err != nil {
		return nil, fmt.Errorf("write command: %w", err)
	}
	return readFrame(cn.r)
}

// readFrame mirrors the daemon's own framing: up to 10 ASCII length
// digits, then that many payload bytes.
func readFrame(r *bufio.Reader) ([]byte, error) {
	var lenBytes []byte
	var first byte
	for i := 0; i < 10; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("read length: %w", err)
		}
		if b < '0' || b > '9' {
			first = b
			break
		}
		lenBytes = append(lenBytes, b)
	}
	if len(lenBytes) == 0 {
		return nil, fmt.Errorf("malformed response frame")
	}
	n := 0
	for _, d := range lenBytes {
		n = n*10 + int(d-'0')
	}
	payload := make([]byte, n)
	if n > 0 {
		payload[0] = first
		if n > 1 {
			if _, err := fillRest(r, payload[1:]); err != nil {
				return nil, fmt.Errorf("read payload: %w", err)
			}
		}
	}
	return payload, nil
}

func fillRest(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// request opens a connection, sends a single command, and returns the
// response as a string.
func request(addr, command string) (string, error) {
	cn, err := dial(addr)
	if err != nil {
		return "", err
	}
	defer cn.close()
	resp, err := cn.send(command)
	if err != nil {
		return "", err
	}
	return string(resp), nil
}
