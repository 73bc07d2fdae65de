package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/netlab-grading/proxy-contract-tests/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBinaryAndPort(t *testing.T) {
	var p commandParams
	require.True(t, p.Read([]string{"grader", "./proxy", "8080"}, &bytes.Buffer{}))

	assert.Equal(t, "./proxy", p.binaryPath)
	assert.True(t, p.port.IsDefined())
	assert.Equal(t, 8080, p.port.IntValue())
	assert.Equal(t, 30*time.Second, p.timeout)
	assert.Equal(t, time.Second, p.settle)
	assert.Empty(t, p.explicit)
}

func TestReadWithoutPort(t *testing.T) {
	var p commandParams
	require.True(t, p.Read([]string{"grader", "-timeout", "5s", "./proxy"}, &bytes.Buffer{}))

	assert.False(t, p.port.IsDefined())
	assert.Equal(t, 5*time.Second, p.timeout)
	assert.True(t, p.explicit["timeout"])
}

func TestReadWithoutBinaryPrintsUsage(t *testing.T) {
	var p commandParams
	var out bytes.Buffer
	assert.False(t, p.Read([]string{"grader"}, &out))
	assert.Contains(t, out.String(), "Usage: grader [options] path/to/proxy/binary [port]")
	assert.Contains(t, out.String(), "Omit the port argument for a randomly generated port.")
}

func TestReadRejectsBadPort(t *testing.T) {
	var p commandParams
	assert.False(t, p.Read([]string{"grader", "./proxy", "http"}, &bytes.Buffer{}))
	assert.False(t, p.Read([]string{"grader", "./proxy", "70000"}, &bytes.Buffer{}))
}

func TestRandomPortIsInDynamicRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		port := randomPort()
		assert.GreaterOrEqual(t, port, minRandomPort)
		assert.LessOrEqual(t, port, maxRandomPort)
	}
}

func TestExplicitFlagsOverrideConfigFileTimings(t *testing.T) {
	cfg, err := config.Parse([]byte("timeouts:\n  test_ms: 1000\n  restart_ms: 100\n"))
	require.NoError(t, err)

	var p commandParams
	require.True(t, p.Read([]string{"grader", "-config", "suite.yaml", "-restart-delay", "7s", "./proxy"}, &bytes.Buffer{}))
	timings := resolveTimings(cfg, p)

	assert.Equal(t, time.Second, timings.Test)
	assert.Equal(t, 7*time.Second, timings.Restart)
	assert.Equal(t, 2*time.Second, timings.Startup)
}

func TestFlagDefaultsApplyWithoutConfigFile(t *testing.T) {
	var p commandParams
	require.True(t, p.Read([]string{"grader", "./proxy"}, &bytes.Buffer{}))
	timings := resolveTimings(config.Default(), p)

	assert.Equal(t, config.Timings{
		Test:    30 * time.Second,
		Grace:   500 * time.Millisecond,
		Startup: 2 * time.Second,
		Restart: 3 * time.Second,
	}, timings)
}
