package proxytests

import (
	"github.com/netlab-grading/proxy-contract-tests/exchange"

	"github.com/stretchr/testify/require"
)

// DoBasicTests fetches each configured page through the proxy and directly from its origin, and
// requires the two responses to match.
func DoBasicTests(t *T) {
	cfg := t.Config().Basic
	for _, url := range cfg.URLs {
		url := url
		t.Case(url, cfg.Points, func(t *T) {
			t.RequireSameAsDirect(url)
		})
	}
}

// RequireSameAsDirect fetches url through the proxy and from the origin with the same HTTP/1.0
// request, then compares the responses line by line.
func (t *T) RequireSameAsDirect(url string) {
	origin, err := exchange.ParseOrigin(url)
	require.NoError(t, err)
	req := exchange.Get(url, origin.HostHeader())

	proxyData := t.RequireProxyResponse(req)

	directData, err := t.ExchangeWithOrigin(origin, req)
	require.NoError(t, err, "could not fetch %s directly from the origin server", url)

	mismatches := t.run.comparer.Mismatches(exchange.Lines(proxyData), exchange.Lines(directData))
	for _, m := range mismatches {
		t.Debug("Proxy: %q", m.A)
		t.Debug("Direct: %q", m.B)
	}
	if len(mismatches) > 0 {
		first := mismatches[0]
		require.Fail(t, "proxy response differs from direct response",
			"%d line(s) differ; first at line %d\nProxy:  %q\nDirect: %q",
			len(mismatches), first.Index+1, first.A, first.B)
	}
}
