// Package supervisor manages the lifecycle of the proxy process being graded: spawning it,
// probing whether it is still alive, terminating it, and restarting it on a new port.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"time"

	"github.com/netlab-grading/proxy-contract-tests/framework"

	"github.com/alessio/shellescape"
)

const (
	DefaultGracePeriod  = 500 * time.Millisecond
	DefaultStartupDelay = 2 * time.Second
	DefaultRestartDelay = 3 * time.Second
	DefaultSettleWindow = time.Second
)

var (
	// ErrNotRunning is returned by Terminate if the process had already exited.
	ErrNotRunning = errors.New("proxy process is not running")

	// ErrStaleHandle is returned when a handle is used after Restart replaced it.
	ErrStaleHandle = errors.New("proxy handle was retired by a restart")
)

// Config describes how to launch the proxy.
type Config struct {
	// BinaryPath is the proxy executable. It is always run with the port number as its only argument.
	BinaryPath string

	// GracePeriod is how long Terminate waits after SIGINT before sending SIGKILL. Zero means
	// the two signals are sent back to back.
	GracePeriod time.Duration

	// StartupDelay is how long Start waits after spawning before it returns.
	StartupDelay time.Duration

	// RestartDelay is how long Restart waits after spawning before it returns.
	RestartDelay time.Duration

	// SettleWindow is how long AwaitExit waits for a proxy that may be dying. A crashing process
	// closes its sockets before it is reaped, so a peer can see EOF while the process still
	// exists. Zero means AwaitExit does not wait at all.
	SettleWindow time.Duration

	// Stdout and Stderr receive the proxy's own output. If nil it is discarded.
	Stdout io.Writer
	Stderr io.Writer

	Logger framework.Logger
}

// Supervisor spawns and controls proxy processes. It is not safe to Spawn or Restart from
// several goroutines at once, but IsAlive and Terminate may be called from a watchdog
// goroutine while the main flow is blocked.
type Supervisor struct {
	config Config
	logger framework.Logger
}

func New(config Config) *Supervisor {
	logger := config.Logger
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &Supervisor{config: config, logger: logger}
}

// Spawn launches the proxy listening on the given port and returns immediately.
func (s *Supervisor) Spawn(port int) (Proxy, error) {
	arg := strconv.Itoa(port)
	cmd := exec.Command(s.config.BinaryPath, arg)
	cmd.Stdout = s.config.Stdout
	cmd.Stderr = s.config.Stderr
	cmd.SysProcAttr = sysProcAttr()

	if err := cmd.Start(); err != nil {
		return Proxy{}, fmt.Errorf("could not start proxy %s: %w", s.config.BinaryPath, err)
	}

	proc := &process{
		pid:    cmd.Process.Pid,
		exited: make(chan struct{}),
	}
	go func() {
		proc.waitErr = cmd.Wait()
		close(proc.exited)
		s.logger.Printf("Proxy process %d exited (%v)", proc.pid, exitDescription(proc.waitErr))
	}()

	s.logger.Printf("Started proxy process %d: %s %s", proc.pid,
		shellescape.Quote(s.config.BinaryPath), shellescape.Quote(arg))
	return Proxy{Port: port, proc: proc}, nil
}

// Start spawns the proxy and then waits for the configured startup delay, so that the proxy
// can be assumed to be accepting connections when it returns.
func (s *Supervisor) Start(ctx context.Context, port int) (Proxy, error) {
	p, err := s.Spawn(port)
	if err != nil {
		return Proxy{}, err
	}
	if err := sleep(ctx, s.config.StartupDelay); err != nil {
		return p, err
	}
	return p, nil
}

// IsAlive reports whether the process is still running. It never signals anything other than
// signal zero, and it reports false for a retired handle without touching the process at all.
func (s *Supervisor) IsAlive(p Proxy) bool {
	if p.proc == nil || p.proc.retired.Load() {
		return false
	}
	if p.proc.hasExited() {
		return false
	}
	return probe(p.proc.pid)
}

// AwaitExit waits up to the settle window for the process to exit, and reports whether it has.
// Callers that have reason to believe the proxy just died use it before IsAlive, so that a
// process that is still on its way out is not mistaken for a live one. It reports true at once
// for an empty or retired handle.
func (s *Supervisor) AwaitExit(p Proxy) bool {
	if !p.Valid() {
		return true
	}
	if s.config.SettleWindow <= 0 {
		return p.proc.hasExited()
	}
	settle := time.NewTimer(s.config.SettleWindow)
	defer settle.Stop()
	select {
	case <-p.proc.exited:
		return true
	case <-settle.C:
		return false
	}
}

// Terminate stops a running proxy: it sends SIGINT, waits up to the grace period for the
// process to exit, then sends SIGKILL and waits for the process to be reaped.
//
// It returns ErrNotRunning if the process is not alive and ErrStaleHandle if the handle
// was retired.
func (s *Supervisor) Terminate(p Proxy) error {
	if p.proc == nil {
		return ErrNotRunning
	}
	if p.proc.retired.Load() {
		return ErrStaleHandle
	}
	if !s.IsAlive(p) {
		return fmt.Errorf("cannot terminate process %d: %w", p.proc.pid, ErrNotRunning)
	}

	s.logger.Printf("Sending interrupt to proxy process %d", p.proc.pid)
	if err := signalGroup(p.proc.pid, sigInterrupt); err != nil {
		return err
	}
	if s.config.GracePeriod > 0 {
		grace := time.NewTimer(s.config.GracePeriod)
		defer grace.Stop()
		select {
		case <-p.proc.exited:
			return nil
		case <-grace.C:
		}
	}

	s.logger.Printf("Killing proxy process %d", p.proc.pid)
	if err := signalGroup(p.proc.pid, sigKill); err != nil {
		return err
	}
	<-p.proc.exited
	return nil
}

// Restart spawns a replacement for a proxy that has died, on the next port number, and waits
// for the configured restart delay. The old handle is retired: it must not be used again, and
// the supervisor refuses to probe or signal it.
func (s *Supervisor) Restart(ctx context.Context, old Proxy) (Proxy, error) {
	if old.proc != nil {
		old.proc.retired.Store(true)
	}
	newPort := old.Port + 1
	s.logger.Printf("Restarting proxy on port %d", newPort)
	p, err := s.Spawn(newPort)
	if err != nil {
		return Proxy{}, err
	}
	if err := sleep(ctx, s.config.RestartDelay); err != nil {
		return p, err
	}
	return p, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func exitDescription(err error) string {
	if err == nil {
		return "exit status 0"
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ProcessState.String()
	}
	return err.Error()
}
