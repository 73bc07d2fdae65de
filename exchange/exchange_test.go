package exchange

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startOrigin(t *testing.T, handler http.Handler) Origin {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	o, err := ParseOrigin(server.URL)
	require.NoError(t, err)
	return o
}

func TestExchangeReadsUntilPeerCloses(t *testing.T) {
	headers := make(http.Header)
	headers.Set("Content-Type", "text/plain")
	o := startOrigin(t, httphelpers.HandlerWithResponse(200, headers, []byte("hello")))

	data, err := Exchange(context.Background(), o.Host, o.Port, Get("/", o.HostHeader()).String())

	require.NoError(t, err)
	lines := Lines(data)
	assert.Equal(t, "HTTP/1.0 200 OK\r", string(lines[0]))
	assert.Equal(t, "hello", string(lines[len(lines)-1]))
}

func TestExchangeReturnsStatusLineForErrorResponse(t *testing.T) {
	o := startOrigin(t, httphelpers.HandlerWithStatus(404))

	data, err := Exchange(context.Background(), o.Host, o.Port, Get("/missing", o.HostHeader()).String())

	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.0 404 Not Found\r\n", string(data[:len("HTTP/1.0 404 Not Found\r\n")]))
}

func TestExchangeConnectionRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	_, err = Exchange(context.Background(), "127.0.0.1", port, Get("/", "127.0.0.1").String())

	require.Error(t, err)
	assert.True(t, IsConnectionError(err), "expected a ConnectionError, got %T: %s", err, err)
}

func TestExchangeReturnsWhenContextEnds(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	release := make(chan struct{})
	defer close(release)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		<-release
		_ = conn.Close()
	}()
	port := l.Addr().(*net.TCPAddr).Port

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = Exchange(ctx, "127.0.0.1", port, Get("/", "127.0.0.1:"+strconv.Itoa(port)).String())

	require.Error(t, err)
	assert.True(t, IsConnectionError(err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestExchangeRejectsNonASCIIRequest(t *testing.T) {
	_, err := Exchange(context.Background(), "127.0.0.1", 1, "GET /café HTTP/1.0\r\n\r\n")

	require.Error(t, err)
	assert.False(t, IsConnectionError(err))
}

func TestRequestString(t *testing.T) {
	assert.Equal(t, "GET http://www.example.com HTTP/1.0\r\n\r\n",
		Request{Method: "GET", Target: "http://www.example.com", Version: HTTP10}.String())
	assert.Equal(t, "POST http://www.example.com HTTP/1.0\r\nHost: www.example.com\r\n\r\n",
		Request{Method: "POST", Target: "http://www.example.com", Version: HTTP10, Host: "www.example.com"}.String())
	assert.Equal(t, "GET http://neverssl.com HTTP/1.0\r\nHost: neverssl.com\r\n\r\n",
		Get("http://neverssl.com", "neverssl.com").String())
}

func TestParseOrigin(t *testing.T) {
	o, err := ParseOrigin("http://neverssl.com")
	require.NoError(t, err)
	assert.Equal(t, Origin{Host: "neverssl.com", Port: 80}, o)
	assert.Equal(t, "neverssl.com", o.HostHeader())

	o, err = ParseOrigin("http://localhost:8080/path?q=1")
	require.NoError(t, err)
	assert.Equal(t, Origin{Host: "localhost", Port: 8080}, o)
	assert.Equal(t, "localhost:8080", o.HostHeader())

	_, err = ParseOrigin("/relative")
	assert.Error(t, err)
}

func TestLinesKeepCarriageReturns(t *testing.T) {
	lines := Lines([]byte("HTTP/1.0 200 OK\r\nDate: x\r\n\r\nbody"))
	require.Len(t, lines, 4)
	assert.Equal(t, "HTTP/1.0 200 OK\r", string(lines[0]))
	assert.Equal(t, "\r", string(lines[2]))
	assert.Equal(t, "body", string(lines[3]))
}
