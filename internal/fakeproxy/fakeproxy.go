// Package fakeproxy is a small HTTP/1.0 forward proxy used as the graded binary in this
// repository's own tests. A test binary calls RunIfRequested from TestMain, and the tests then
// spawn the test binary itself as the proxy, passing its configuration through environment
// variables (which the child inherits).
package fakeproxy

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"
)

const (
	// ModeEnv selects the behavior of the child process. If it is unset, RunIfRequested returns.
	ModeEnv = "PROXY_CONTRACT_TESTS_FAKE_PROXY"

	// ReadyFileEnv names a file that the child creates once it is ready.
	ReadyFileEnv = "PROXY_CONTRACT_TESTS_FAKE_PROXY_READY"

	// ArgsFileEnv names a file that the child writes its arguments to, one per line.
	ArgsFileEnv = "PROXY_CONTRACT_TESTS_FAKE_PROXY_ARGS"

	// CrashOnEnv makes a serving proxy exit without responding to any request whose target
	// contains this string.
	CrashOnEnv = "PROXY_CONTRACT_TESTS_FAKE_PROXY_CRASH_ON"

	// HangOnEnv makes a serving proxy accept, but never answer, any request whose target contains
	// this string.
	HangOnEnv = "PROXY_CONTRACT_TESTS_FAKE_PROXY_HANG_ON"
)

const (
	ModeSleep    = "sleep"    // do nothing until signalled
	ModeStubborn = "stubborn" // ignore SIGINT, do nothing until killed
	ModeExit     = "exit"     // exit immediately with a nonzero status
	ModeServe    = "serve"    // act as a correct proxy
	ModeSloppy   = "sloppy"   // forward everything without validating it
)

const badRequest = "HTTP/1.0 400 Bad Request\r\n"

// RunIfRequested runs the fake proxy and exits if ModeEnv is set; otherwise it does nothing.
func RunIfRequested() {
	mode := os.Getenv(ModeEnv)
	if mode == "" {
		return
	}
	if f := os.Getenv(ArgsFileEnv); f != "" {
		_ = os.WriteFile(f, []byte(strings.Join(os.Args[1:], "\n")), 0o600)
	}
	switch mode {
	case ModeSleep:
		ready()
		time.Sleep(time.Hour)
	case ModeStubborn:
		signal.Ignore(os.Interrupt)
		ready()
		time.Sleep(time.Hour)
	case ModeExit:
		os.Exit(3)
	case ModeServe, ModeSloppy:
		serve(os.Args[len(os.Args)-1], mode == ModeServe)
	}
	os.Exit(0)
}

func ready() {
	if f := os.Getenv(ReadyFileEnv); f != "" {
		_ = os.WriteFile(f, nil, 0o600)
	}
}

func serve(port string, strict bool) {
	l, err := net.Listen("tcp", "localhost:"+port)
	if err != nil {
		os.Exit(4)
	}
	ready()
	for {
		conn, err := l.Accept()
		if err != nil {
			os.Exit(5)
		}
		go handle(conn, strict)
	}
}

func handle(conn net.Conn, strict bool) {
	defer conn.Close()
	head, err := readHead(bufio.NewReader(conn))
	if err != nil {
		return
	}
	lines := strings.Split(strings.TrimSuffix(head, "\r\n\r\n"), "\r\n")
	fields := strings.Fields(lines[0])
	if len(fields) != 3 {
		_, _ = io.WriteString(conn, badRequest)
		return
	}
	method, target, version := fields[0], fields[1], fields[2]

	if s := os.Getenv(CrashOnEnv); s != "" && strings.Contains(target, s) {
		os.Exit(6)
	}
	if s := os.Getenv(HangOnEnv); s != "" && strings.Contains(target, s) {
		time.Sleep(time.Hour)
	}

	var host string
	for _, h := range lines[1:] {
		if name, value, ok := strings.Cut(h, ":"); ok && strings.EqualFold(name, "Host") {
			host = strings.TrimSpace(value)
		}
	}
	u, err := url.Parse(target)
	if strict && (err != nil || method != "GET" || version != "HTTP/1.0" || host == "" || u.Host != host) {
		_, _ = io.WriteString(conn, badRequest)
		return
	}
	if err != nil {
		_, _ = io.WriteString(conn, badRequest)
		return
	}

	addr := u.Host
	if u.Port() == "" {
		addr = net.JoinHostPort(u.Hostname(), "80")
	}
	upstream, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		_, _ = io.WriteString(conn, badRequest)
		return
	}
	defer upstream.Close()
	// Always talk HTTP/1.0 upstream so that the origin closes the connection when it is done.
	forwarded := method + " " + target + " HTTP/1.0\r\n" + strings.Join(lines[1:], "\r\n") + "\r\n\r\n"
	if len(lines) == 1 {
		forwarded = method + " " + target + " HTTP/1.0\r\n\r\n"
	}
	if _, err := io.WriteString(upstream, forwarded); err != nil {
		return
	}
	_, _ = io.Copy(conn, upstream)
}

func readHead(r *bufio.Reader) (string, error) {
	var buf bytes.Buffer
	for {
		line, err := r.ReadString('\n')
		buf.WriteString(line)
		if err != nil {
			return "", err
		}
		if line == "\r\n" {
			return buf.String(), nil
		}
	}
}
