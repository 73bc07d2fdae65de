// Package exchange implements the raw HTTP exchanges used by the grader: a literal request is
// written to a fresh TCP connection and everything is read back until the peer closes it.
package exchange

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
)

// ConnectionError means the exchange failed at the socket level: the connection was refused,
// reset, or could not be established at all.
type ConnectionError struct {
	Op   string
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsConnectionError reports whether err is, or wraps, a ConnectionError.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// Exchange connects to host:port, writes request, and reads until the peer closes the
// connection. There is no framing: the response is whatever bytes arrived.
//
// Nothing bounds the read except ctx; when ctx is done the connection is closed, which makes
// a blocked read return. Any data read before a failure is returned along with the error.
func Exchange(ctx context.Context, host string, port int, request string) ([]byte, error) {
	if err := checkASCII(request); err != nil {
		return nil, err
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &ConnectionError{Op: "dial", Addr: addr, Err: err}
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if _, err := io.WriteString(conn, request); err != nil {
		return nil, &ConnectionError{Op: "write", Addr: addr, Err: contextOr(ctx, err)}
	}
	data, err := io.ReadAll(conn)
	if err != nil {
		return data, &ConnectionError{Op: "read", Addr: addr, Err: contextOr(ctx, err)}
	}
	return data, nil
}

// Lines splits a response on LF. Each line keeps its trailing CR, so comparisons stay byte-exact.
func Lines(data []byte) [][]byte {
	return bytes.Split(data, []byte("\n"))
}

func contextOr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w (%s)", ctxErr, err)
	}
	return err
}

func checkASCII(s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return fmt.Errorf("request contains non-ASCII byte 0x%02x at offset %d", s[i], i)
		}
	}
	return nil
}
