package supervisor

import (
	"fmt"
	"sync/atomic"
)

// Proxy is a handle to one spawned proxy process and the port it was told to listen on.
//
// A Proxy is a value; after Supervisor.Restart the caller must replace its copy with the
// returned one. Copies of the old value stay retired forever.
type Proxy struct {
	Port int
	proc *process
}

type process struct {
	pid     int
	exited  chan struct{}
	waitErr error
	retired atomic.Bool
}

func (p *process) hasExited() bool {
	select {
	case <-p.exited:
		return true
	default:
		return false
	}
}

// Pid returns the operating system process ID, or zero for an empty handle.
func (p Proxy) Pid() int {
	if p.proc == nil {
		return 0
	}
	return p.proc.pid
}

// Addr is the address the harness uses to reach the proxy.
func (p Proxy) Addr() string {
	return fmt.Sprintf("localhost:%d", p.Port)
}

// Valid reports whether this is a handle returned by Spawn that has not been retired.
func (p Proxy) Valid() bool {
	return p.proc != nil && !p.proc.retired.Load()
}

// Exited returns a channel that is closed once the process has exited and been reaped.
func (p Proxy) Exited() <-chan struct{} {
	if p.proc == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return p.proc.exited
}

func (p Proxy) String() string {
	return fmt.Sprintf("pid %d on port %d", p.Pid(), p.Port)
}
