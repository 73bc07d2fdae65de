package proxytests

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/netlab-grading/proxy-contract-tests/exchange"
	"github.com/netlab-grading/proxy-contract-tests/framework"
	"github.com/netlab-grading/proxy-contract-tests/supervisor"
)

const defaultConcurrencyTimeout = 30 * time.Second

// ConcurrencySuite is an ExtendedSuite that sends the same GET through the proxy from many
// clients at once. A client passes if the response contains "200 OK".
type ConcurrencySuite struct {
	Clients int
	URL     string
	Timeout time.Duration
	Logger  framework.Logger
}

func (s ConcurrencySuite) Name() string {
	return "concurrent clients"
}

func (s ConcurrencySuite) Run(
	ctx context.Context,
	sup *supervisor.Supervisor,
	proxy supervisor.Proxy,
) (int, int, supervisor.Proxy) {
	logger := s.Logger
	if logger == nil {
		logger = framework.NullLogger()
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultConcurrencyTimeout
	}
	origin, err := exchange.ParseOrigin(s.URL)
	if err != nil {
		logger.Printf("Invalid URL for concurrency test: %s", err)
		return 0, s.Clients, proxy
	}
	request := exchange.Get(s.URL, origin.HostHeader()).String()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results := make([]bool, s.Clients)
	var wg sync.WaitGroup
	for i := 0; i < s.Clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data, err := exchange.Exchange(ctx, "localhost", proxy.Port, request)
			if err != nil {
				logger.Printf("Client %d: %s", i+1, err)
				return
			}
			if !bytes.Contains(data, []byte("200 OK")) {
				logger.Printf("Client %d: unexpected response %q", i+1, truncate(data))
				return
			}
			results[i] = true
		}(i)
	}
	wg.Wait()

	passed := 0
	for _, ok := range results {
		if ok {
			passed++
		}
	}
	return passed, s.Clients, proxy
}
