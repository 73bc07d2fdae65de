package proxytests

import (
	"bytes"

	"github.com/netlab-grading/proxy-contract-tests/exchange"

	"github.com/stretchr/testify/require"
)

const (
	badRequestResponse = "HTTP/1.0 400 Bad Request\r\n"
	notFoundStatusLine = "HTTP/1.0 404 Not Found\r\n"
)

// Extended suite point values.
const (
	missingHostPoints     = 6
	methodPoints          = 2
	versionPoints         = 6
	invalidHostPoints     = 6
	mismatchedHostPoints  = 6
	missingResourcePoints = 6
)

// Methods that a GET-only proxy must reject, in the order they are tried.
var rejectedMethods = []string{"POST", "PUT", "PATCH", "DELETE", "MYMETHOD"}

// DoExtendedTests sends requests that the proxy must refuse or report as errors. Each one is a
// separate case with its own watchdog, so a failure in one does not affect the others.
func DoExtendedTests(t *T) {
	cfg := t.Config().Extended
	target, err := exchange.ParseOrigin(cfg.URL)
	require.NoError(t, err)
	host := target.HostHeader()

	t.Case("request without Host header", missingHostPoints, func(t *T) {
		t.RequireBadRequest(exchange.Request{Method: "GET", Target: cfg.URL, Version: exchange.HTTP10})
	})

	t.Run("method other than GET", func(t *T) {
		for _, method := range rejectedMethods {
			method := method
			t.Case(method, methodPoints, func(t *T) {
				t.RequireBadRequest(exchange.Request{Method: method, Target: cfg.URL, Version: exchange.HTTP10, Host: host})
			})
		}
	})

	t.Case("HTTP version other than 1.0", versionPoints, func(t *T) {
		t.RequireBadRequest(exchange.Request{Method: "GET", Target: cfg.URL, Version: exchange.HTTP11, Host: host})
	})

	t.Case("invalid Host header", invalidHostPoints, func(t *T) {
		invalid, err := exchange.ParseOrigin(cfg.InvalidHostURL)
		require.NoError(t, err)
		t.RequireBadRequest(exchange.Get(cfg.InvalidHostURL, invalid.HostHeader()))
	})

	t.Case("request target and Host header differ", mismatchedHostPoints, func(t *T) {
		t.RequireBadRequest(exchange.Get(cfg.URL, cfg.MismatchedHost))
	})

	t.Case("no resource on server", missingResourcePoints, func(t *T) {
		missing, err := exchange.ParseOrigin(cfg.MissingResourceURL)
		require.NoError(t, err)
		t.RequireStatusPrefix(exchange.Get(cfg.MissingResourceURL, missing.HostHeader()), notFoundStatusLine)
	})
}

// RequireBadRequest requires the proxy's entire response to be exactly the 400 status line.
func (t *T) RequireBadRequest(req exchange.Request) {
	data := t.RequireProxyResponse(req)
	if string(data) != badRequestResponse {
		require.Fail(t, "proxy did not reject the request",
			"expected exactly %q, got %q", badRequestResponse, truncate(data))
	}
}

// RequireStatusPrefix requires the proxy's response to begin with the given bytes; the rest of
// the response is ignored.
func (t *T) RequireStatusPrefix(req exchange.Request, prefix string) {
	data := t.RequireProxyResponse(req)
	if !bytes.HasPrefix(data, []byte(prefix)) {
		require.Fail(t, "unexpected response from proxy",
			"expected response starting with %q, got %q", prefix, truncate(data))
	}
}

func truncate(data []byte) []byte {
	const limit = 200
	if len(data) > limit {
		return data[:limit]
	}
	return data
}
