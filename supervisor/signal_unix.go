//go:build unix

package supervisor

import (
	"errors"
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

const (
	sigInterrupt = unix.SIGINT
	sigKill      = unix.SIGKILL
)

// The proxy gets its own process group so that any children it forks to serve connections
// are signalled together with it.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// probe sends signal zero. Only ESRCH means the process is gone; EPERM and anything else
// mean something with that pid exists.
func probe(pid int) bool {
	if pid <= 1 {
		return false
	}
	err := unix.Kill(pid, 0)
	return !errors.Is(err, unix.ESRCH)
}

func signalGroup(pid int, sig unix.Signal) error {
	// kill(-1) and kill(0) would hit far more than the proxy.
	if pid <= 1 {
		return ErrNotRunning
	}
	err := unix.Kill(-pid, sig)
	if err == nil || errors.Is(err, unix.ESRCH) {
		return nil
	}
	return fmt.Errorf("could not send %s to proxy process %d: %w", unix.SignalName(sig), pid, err)
}
