package supervisor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

var (
	// ErrAlreadyStarted is returned by Start when the supervisor has left the new state.
	ErrAlreadyStarted = errors.New("process already started")
	// ErrDisposed is the abort reason recorded by Dispose.
	ErrDisposed = errors.New("process disposed")
)

// ExitStatus describes how a process terminated.
// Code is -1 when the process was terminated by a signal or the status is unknown.
type ExitStatus struct {
	Code   int
	Signal string
}

func (s ExitStatus) String() string {
	if s.Signal != "" {
		return fmt.Sprintf("signal %s", s.Signal)
	}
	return fmt.Sprintf("exit code %d", s.Code)
}

// ExitError is the abort reason of a process that exited on its own.
type ExitError struct {
	Status ExitStatus
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("process exited with %s", e.Status)
}

func exitStatus(ps *os.ProcessState, waitErr error) ExitStatus {
	if ps == nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			ps = exitErr.ProcessState
		}
	}
	if ps == nil {
		return ExitStatus{Code: -1}
	}
	status := ExitStatus{Code: ps.ExitCode()}
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		status.Signal = ws.Signal().String()
	}
	return status
}
