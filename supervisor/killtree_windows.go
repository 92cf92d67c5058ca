//go:build windows

package supervisor

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/shirou/gopsutil/v3/process"
)

func setProcAttr(cmd *exec.Cmd) {}

func killProcessTree(pid int) error {
	out, err := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(pid)).CombinedOutput()
	if err == nil {
		return nil
	}
	// the root may already be gone, leaving orphans that taskkill can no longer reach
	root, perr := process.NewProcess(int32(pid))
	if perr != nil {
		return nil
	}
	children, cerr := root.Children()
	if cerr != nil {
		return fmt.Errorf("taskkill: %w: %s", err, out)
	}
	return killAll(children)
}

func killAll(procs []*process.Process) error {
	var errs []error
	for _, p := range procs {
		if err := p.Kill(); err != nil && !errors.Is(err, process.ErrorProcessNotRunning) {
			errs = append(errs, fmt.Errorf("killing descendant %d: %w", p.Pid, err))
		}
	}
	return errors.Join(errs...)
}
