package framework

import (
	"fmt"
	"io"
	"sync"
	"time"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// Logger is the minimal logging interface used throughout the harness. *log.Logger satisfies it.
type Logger interface {
	Printf(message string, args ...interface{})
}

type nullLogger struct{}

func (n nullLogger) Printf(message string, args ...interface{}) {}

func NullLogger() Logger { return nullLogger{} }

type prefixedLogger struct {
	prefix string
	target Logger
}

func (p prefixedLogger) Printf(message string, args ...interface{}) {
	p.target.Printf(p.prefix+message, args...)
}

// PrefixedLogger returns a Logger that adds "[name] " to every message.
func PrefixedLogger(name string, target Logger) Logger {
	if target == nil {
		return NullLogger()
	}
	if _, ok := target.(nullLogger); ok {
		return target
	}
	return prefixedLogger{prefix: "[" + name + "] ", target: target}
}

type CapturedMessage struct {
	Time    time.Time
	Message string
}

type CapturedOutput []CapturedMessage

// CapturingLogger keeps messages in memory so they can be shown after a test finishes. It is
// safe for concurrent use, since a watchdog goroutine may log while the test is running.
type CapturingLogger struct {
	output []CapturedMessage
	lock   sync.Mutex
}

func (l *CapturingLogger) Printf(message string, args ...interface{}) {
	l.lock.Lock()
	l.output = append(l.output, CapturedMessage{Time: time.Now(), Message: fmt.Sprintf(message, args...)})
	l.lock.Unlock()
}

func (l *CapturingLogger) Output() CapturedOutput {
	l.lock.Lock()
	ret := append([]CapturedMessage(nil), l.output...)
	l.lock.Unlock()
	return ret
}

func (output CapturedOutput) Dump(dest io.Writer, prefix string) {
	for _, m := range output {
		fmt.Fprintf(dest, "%s[%s] %s\n",
			prefix,
			m.Time.Format(timestampFormat),
			m.Message,
		)
	}
}
