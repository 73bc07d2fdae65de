package exchange

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

const (
	HTTP10 = "HTTP/1.0"
	HTTP11 = "HTTP/1.1"
)

// Request is a literal request head. It is rendered exactly as given, with no validation,
// so that it can describe deliberately malformed requests.
type Request struct {
	Method  string
	Target  string
	Version string
	// Host is the value of the Host header. If empty, no Host header is sent.
	Host string
}

// Get returns an HTTP/1.0 GET request for target with the given Host header.
func Get(target, host string) Request {
	return Request{Method: "GET", Target: target, Version: HTTP10, Host: host}
}

func (r Request) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s\r\n", r.Method, r.Target, r.Version)
	if r.Host != "" {
		fmt.Fprintf(&b, "Host: %s\r\n", r.Host)
	}
	b.WriteString("\r\n")
	return b.String()
}

// Origin is the server named by an absolute URL.
type Origin struct {
	Host string
	Port int
}

// ParseOrigin extracts the host and port from an absolute http URL. The port defaults to 80.
func ParseOrigin(rawURL string) (Origin, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Origin{}, err
	}
	if u.Host == "" {
		return Origin{}, fmt.Errorf("URL %q has no host", rawURL)
	}
	o := Origin{Host: u.Hostname(), Port: 80}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return Origin{}, fmt.Errorf("URL %q has an invalid port: %w", rawURL, err)
		}
		o.Port = port
	}
	return o, nil
}

// HostHeader is the Host header value for this origin: the host name alone on port 80,
// otherwise host:port.
func (o Origin) HostHeader() string {
	if o.Port == 80 {
		return o.Host
	}
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}
