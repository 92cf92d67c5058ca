//go:build windows

package supervisor

import (
	"fmt"
	"os/exec"
	"testing"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKillAllReportsFailures(t *testing.T) {
	cmd := exec.Command("ping", "-n", "60", "127.0.0.1")
	require.NoError(t, cmd.Start())
	t.Cleanup(func() { cmd.Process.Kill() })

	running, err := process.NewProcess(int32(cmd.Process.Pid))
	require.NoError(t, err)
	// pids are multiples of 4, so this one never exists
	missing := &process.Process{Pid: 1<<31 - 1}

	err = killAll([]*process.Process{running, missing})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "killing descendant 2147483647")
	assert.NotContains(t, err.Error(), fmt.Sprintf("killing descendant %d:", cmd.Process.Pid))

	require.Error(t, cmd.Wait())
	assert.NoError(t, killAll(nil))
}
