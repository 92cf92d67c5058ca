//go:build !windows

package supervisor

import (
	"errors"
	"fmt"
	"os/exec"
	"syscall"

	"github.com/shirou/gopsutil/v3/process"
)

// setProcAttr puts the child in its own process group, so the whole group can be signaled.
func setProcAttr(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// killProcessTree kills the process group led by pid and every descendant found in the process table,
// including those that moved to another group.
func killProcessTree(pid int) error {
	// descendants are collected first, they get reparented once their parent dies
	descendants := collectDescendants(int32(pid))

	var errs []error
	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		errs = append(errs, fmt.Errorf("killing process group %d: %w", pid, err))
	}
	for _, p := range descendants {
		if err := p.Kill(); err != nil && !errors.Is(err, syscall.ESRCH) && !errors.Is(err, process.ErrorProcessNotRunning) {
			errs = append(errs, fmt.Errorf("killing descendant %d: %w", p.Pid, err))
		}
	}
	return errors.Join(errs...)
}

func collectDescendants(pid int32) []*process.Process {
	root, err := process.NewProcess(pid)
	if err != nil {
		return nil
	}
	var out []*process.Process
	queue := []*process.Process{root}
	seen := map[int32]bool{pid: true}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		children, err := p.Children()
		if err != nil {
			continue
		}
		for _, c := range children {
			if seen[c.Pid] {
				continue
			}
			seen[c.Pid] = true
			out = append(out, c)
			queue = append(queue, c)
		}
	}
	return out
}
