package supervisor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/netlab-grading/proxy-contract-tests/internal/fakeproxy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	fakeproxy.RunIfRequested()
	os.Exit(m.Run())
}

func newTestSupervisor(t *testing.T, mode string, config Config) *Supervisor {
	t.Setenv(fakeproxy.ModeEnv, mode)
	config.BinaryPath = os.Args[0]
	return New(config)
}

func spawnReady(t *testing.T, s *Supervisor, port int) Proxy {
	readyFile := filepath.Join(t.TempDir(), "ready")
	t.Setenv(fakeproxy.ReadyFileEnv, readyFile)
	p, err := s.Spawn(port)
	require.NoError(t, err)
	t.Cleanup(func() {
		if s.IsAlive(p) {
			_ = s.Terminate(p)
		}
	})
	require.Eventually(t, func() bool {
		_, err := os.Stat(readyFile)
		return err == nil
	}, 10*time.Second, 10*time.Millisecond, "fake proxy never became ready")
	return p
}

func TestSpawnPassesPortAsOnlyArgument(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	t.Setenv(fakeproxy.ArgsFileEnv, argsFile)
	s := newTestSupervisor(t, fakeproxy.ModeSleep, Config{})

	p := spawnReady(t, s, 4321)
	assert.Equal(t, 4321, p.Port)
	assert.NotZero(t, p.Pid())

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Equal(t, "4321", string(data))
}

func TestSpawnFailsForMissingBinary(t *testing.T) {
	s := New(Config{BinaryPath: filepath.Join(t.TempDir(), "no-such-proxy")})
	_, err := s.Spawn(8000)
	assert.Error(t, err)
}

func TestIsAliveForRunningProcess(t *testing.T) {
	s := newTestSupervisor(t, fakeproxy.ModeSleep, Config{})
	p := spawnReady(t, s, 8000)
	assert.True(t, s.IsAlive(p))
}

func TestIsAliveAfterProcessExits(t *testing.T) {
	s := newTestSupervisor(t, fakeproxy.ModeExit, Config{})
	p, err := s.Spawn(8000)
	require.NoError(t, err)

	select {
	case <-p.Exited():
	case <-time.After(10 * time.Second):
		require.Fail(t, "timed out waiting for process to exit")
	}
	assert.False(t, s.IsAlive(p))
}

func TestIsAliveForEmptyHandle(t *testing.T) {
	s := New(Config{})
	assert.False(t, s.IsAlive(Proxy{}))
}

func TestTerminateInterruptsProcess(t *testing.T) {
	s := newTestSupervisor(t, fakeproxy.ModeSleep, Config{GracePeriod: 10 * time.Second})
	p := spawnReady(t, s, 8000)

	start := time.Now()
	require.NoError(t, s.Terminate(p))
	assert.Less(t, int64(time.Since(start)), int64(5*time.Second), "SIGINT should have been enough")
	assert.False(t, s.IsAlive(p))
}

func TestTerminateEscalatesToKillAfterGracePeriod(t *testing.T) {
	grace := 200 * time.Millisecond
	s := newTestSupervisor(t, fakeproxy.ModeStubborn, Config{GracePeriod: grace})
	p := spawnReady(t, s, 8000)

	start := time.Now()
	require.NoError(t, s.Terminate(p))
	assert.GreaterOrEqual(t, int64(time.Since(start)), int64(grace))
	assert.False(t, s.IsAlive(p))
}

func TestTerminateWithoutGracePeriodKillsImmediately(t *testing.T) {
	s := newTestSupervisor(t, fakeproxy.ModeStubborn, Config{})
	p := spawnReady(t, s, 8000)

	require.NoError(t, s.Terminate(p))
	select {
	case <-p.Exited():
	default:
		assert.Fail(t, "Terminate returned before the process was reaped")
	}
}

func TestTerminateProcessThatAlreadyExited(t *testing.T) {
	s := newTestSupervisor(t, fakeproxy.ModeExit, Config{})
	p, err := s.Spawn(8000)
	require.NoError(t, err)
	<-p.Exited()

	assert.ErrorIs(t, s.Terminate(p), ErrNotRunning)
}

func TestRestartUsesNextPortAndRetiresOldHandle(t *testing.T) {
	s := newTestSupervisor(t, fakeproxy.ModeSleep, Config{RestartDelay: 300 * time.Millisecond})
	old := spawnReady(t, s, 8000)
	require.NoError(t, s.Terminate(old))

	start := time.Now()
	p, err := s.Restart(context.Background(), old)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Terminate(p) })

	assert.GreaterOrEqual(t, int64(time.Since(start)), int64(300*time.Millisecond))
	assert.Equal(t, 8001, p.Port)
	assert.True(t, s.IsAlive(p))
	assert.True(t, p.Valid())

	assert.False(t, old.Valid())
	assert.False(t, s.IsAlive(old))
	assert.ErrorIs(t, s.Terminate(old), ErrStaleHandle)
}

func TestRestartIsCancelledByContext(t *testing.T) {
	s := newTestSupervisor(t, fakeproxy.ModeSleep, Config{RestartDelay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, err := s.Restart(ctx, Proxy{Port: 9000})
	assert.ErrorIs(t, err, context.Canceled)
	require.True(t, p.Valid())
	assert.Equal(t, 9001, p.Port)
	_ = s.Terminate(p)
}

func TestAwaitExitReturnsAsSoonAsProcessExits(t *testing.T) {
	s := newTestSupervisor(t, fakeproxy.ModeExit, Config{SettleWindow: 10 * time.Second})
	p, err := s.Spawn(8000)
	require.NoError(t, err)

	start := time.Now()
	assert.True(t, s.AwaitExit(p))
	assert.Less(t, int64(time.Since(start)), int64(5*time.Second))
	assert.False(t, s.IsAlive(p))
}

func TestAwaitExitGivesUpAfterSettleWindow(t *testing.T) {
	window := 200 * time.Millisecond
	s := newTestSupervisor(t, fakeproxy.ModeSleep, Config{SettleWindow: window})
	p := spawnReady(t, s, 8000)

	start := time.Now()
	assert.False(t, s.AwaitExit(p))
	assert.GreaterOrEqual(t, int64(time.Since(start)), int64(window))
	assert.True(t, s.IsAlive(p))
}

func TestAwaitExitWithoutSettleWindowDoesNotWait(t *testing.T) {
	s := newTestSupervisor(t, fakeproxy.ModeSleep, Config{})
	p := spawnReady(t, s, 8000)

	assert.False(t, s.AwaitExit(p))
	assert.True(t, s.AwaitExit(Proxy{}))
}
