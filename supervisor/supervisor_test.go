package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/guseggert/roadkill/abort"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var log *zap.Logger

func init() {
	l, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	log = l
}

const readyPrefix = "listening on "

type crashError struct {
	status ExitStatus
	lines  []string
}

func (e *crashError) Error() string {
	return fmt.Sprintf("crashed with %s: %s", e.status, strings.Join(e.lines, "\n"))
}

// shProgram runs a shell script and becomes ready on a "listening on <addr>" line.
type shProgram struct {
	script     string
	commandErr error

	mu    sync.Mutex
	lines []string
}

func (p *shProgram) Command(ctx context.Context) (*exec.Cmd, error) {
	if p.commandErr != nil {
		return nil, p.commandErr
	}
	return exec.Command("sh", "-c", p.script), nil
}

func (p *shProgram) OnLine(line string) (string, bool) {
	p.mu.Lock()
	p.lines = append(p.lines, line)
	p.mu.Unlock()
	if strings.HasPrefix(line, readyPrefix) {
		return strings.TrimPrefix(line, readyPrefix), true
	}
	return "", false
}

func (p *shProgram) StartingError(status ExitStatus) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &crashError{status: status, lines: append([]string(nil), p.lines...)}
}

type recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *recorder) record(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) get() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

func newTestSupervisor(t *testing.T, p Program) (*Supervisor, *recorder, *atomic.Int32) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	s := New(p, WithLogger(log))
	kills := &atomic.Int32{}
	s.killTree = func(pid int) error {
		kills.Add(1)
		return killProcessTree(pid)
	}
	rec := &recorder{}
	s.Subscribe(rec.record)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		assert.NoError(t, s.Dispose(ctx))
	})
	return s, rec, kills
}

func waitDisposed(t *testing.T, s *Supervisor) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(10 * time.Second):
		t.Fatalf("supervisor stuck in %s", s.State())
	}
}

func TestStartAndDispose(t *testing.T) {
	p := &shProgram{script: `echo booting; echo "listening on http://localhost:4444"; sleep 60`}
	s, rec, kills := newTestSupervisor(t, p)

	addr, err := s.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4444", addr)
	assert.Equal(t, StateRunning, s.State())
	assert.Equal(t, addr, s.Address())
	assert.NotZero(t, s.PID())
	assert.NoError(t, s.Context().Err())

	require.NoError(t, s.Dispose(context.Background()))
	assert.Equal(t, StateDisposed, s.State())
	assert.ErrorIs(t, s.Err(), ErrDisposed)
	assert.ErrorIs(t, context.Cause(s.Context()), ErrDisposed)
	assert.Equal(t, int32(1), kills.Load())
	assert.Equal(t, []State{StateStarting, StateRunning, StateAbortRunning, StateDisposed}, rec.get())

	// the address stays readable after disposal
	assert.Equal(t, "http://localhost:4444", s.Address())
}

func TestStartTwice(t *testing.T) {
	s, _, _ := newTestSupervisor(t, &shProgram{script: `echo "listening on a"; sleep 60`})

	_, err := s.Start(context.Background())
	require.NoError(t, err)

	_, err = s.Start(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyStarted)
	assert.Equal(t, StateRunning, s.State())
}

func TestDisposeBeforeStart(t *testing.T) {
	s, rec, kills := newTestSupervisor(t, &shProgram{script: `echo "listening on a"`})

	require.NoError(t, s.Dispose(context.Background()))
	assert.Equal(t, StateDisposed, s.State())
	assert.Equal(t, []State{StateDisposed}, rec.get())

	_, err := s.Start(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyStarted)
	assert.Zero(t, s.PID())
	assert.Zero(t, kills.Load())

	// idempotent
	require.NoError(t, s.Dispose(context.Background()))
}

func TestCrashBeforeReady(t *testing.T) {
	p := &shProgram{script: `echo "loading config"; echo "bad flag --nope" >&2; exit 3`}
	s, rec, kills := newTestSupervisor(t, p)

	_, err := s.Start(context.Background())
	require.Error(t, err)

	var crash *crashError
	require.ErrorAs(t, err, &crash)
	assert.Equal(t, 3, crash.status.Code)
	assert.ElementsMatch(t, []string{"loading config", "bad flag --nope"}, crash.lines)

	waitDisposed(t, s)
	assert.Equal(t, []State{StateStarting, StateAbortStart, StateDisposed}, rec.get())
	assert.Equal(t, int32(1), kills.Load())
	assert.Equal(t, "", s.Address())
	assert.Equal(t, err, s.Err())
}

func TestSpawnFailure(t *testing.T) {
	cases := []struct {
		name    string
		program *shProgram
	}{
		{name: "command error", program: &shProgram{commandErr: errors.New("no executable")}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s, rec, kills := newTestSupervisor(t, c.program)
			_, err := s.Start(context.Background())
			require.Error(t, err)
			assert.ErrorContains(t, err, "spawning process")
			assert.Equal(t, StateDisposed, s.State())
			assert.Equal(t, []State{StateStarting, StateAbortStart, StateDisposed}, rec.get())
			assert.Zero(t, kills.Load())
		})
	}
}

type missingProgram struct{ shProgram }

func (p *missingProgram) Command(ctx context.Context) (*exec.Cmd, error) {
	return exec.Command("/nonexistent/roadkill-driver"), nil
}

func TestSpawnFailureMissingExecutable(t *testing.T) {
	s, _, _ := newTestSupervisor(t, &missingProgram{})
	_, err := s.Start(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "spawning process")
	assert.Equal(t, StateDisposed, s.State())
}

func TestStartAbortedWhileStarting(t *testing.T) {
	s, rec, kills := newTestSupervisor(t, &shProgram{script: `echo "still warming up"; sleep 60`})

	ctx, cancel := abort.New(context.Background())
	reason := errors.New("test gave up")
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel(reason)
	}()

	_, err := s.Start(ctx)
	assert.Equal(t, reason, err)

	waitDisposed(t, s)
	assert.Equal(t, reason, s.Err())
	assert.Equal(t, []State{StateStarting, StateAbortStart, StateDisposed}, rec.get())
	assert.Equal(t, int32(1), kills.Load())
}

func TestStartWithAbortedToken(t *testing.T) {
	s, _, kills := newTestSupervisor(t, &shProgram{script: `echo "listening on a"`})

	ctx, cancel := abort.New(context.Background())
	reason := errors.New("already gone")
	cancel(reason)

	_, err := s.Start(ctx)
	assert.Equal(t, reason, err)
	waitDisposed(t, s)
	assert.Zero(t, s.PID())
	assert.Zero(t, kills.Load())
}

func TestAmbientTokenAbortsRunningProcess(t *testing.T) {
	amb, abortAmb := abort.New(context.Background())
	restore := abort.SetAmbient(amb)
	defer restore()

	s, rec, _ := newTestSupervisor(t, &shProgram{script: `echo "listening on a"; sleep 60`})
	_, err := s.Start(context.Background())
	require.NoError(t, err)

	reason := errors.New("test timed out")
	abortAmb(reason)

	waitDisposed(t, s)
	assert.Equal(t, reason, s.Err())
	assert.Equal(t, []State{StateStarting, StateRunning, StateAbortRunning, StateDisposed}, rec.get())
}

func TestExitWhileRunning(t *testing.T) {
	s, rec, kills := newTestSupervisor(t, &shProgram{script: `echo "listening on a"; sleep 0.2; exit 4`})

	_, err := s.Start(context.Background())
	require.NoError(t, err)

	waitDisposed(t, s)
	var exitErr *ExitError
	require.ErrorAs(t, s.Err(), &exitErr)
	assert.Equal(t, 4, exitErr.Status.Code)
	assert.Equal(t, []State{StateStarting, StateRunning, StateAbortRunning, StateDisposed}, rec.get())
	assert.Equal(t, int32(1), kills.Load())
	assert.ErrorAs(t, context.Cause(s.Context()), &exitErr)
}

func TestConcurrentDispose(t *testing.T) {
	s, _, kills := newTestSupervisor(t, &shProgram{script: `echo "listening on a"; sleep 60`})
	_, err := s.Start(context.Background())
	require.NoError(t, err)

	group, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 10; i++ {
		group.Go(func() error {
			return s.Dispose(ctx)
		})
	}
	require.NoError(t, group.Wait())

	assert.Equal(t, StateDisposed, s.State())
	assert.Equal(t, int32(1), kills.Load())
}

func TestDisposeKillsGrandchildren(t *testing.T) {
	// the grandchild holds the output pipes open and outlives a plain kill of sh
	s, _, _ := newTestSupervisor(t, &shProgram{script: `sleep 60 & echo "listening on a"; wait`})
	_, err := s.Start(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, s.Dispose(ctx))
	assert.Equal(t, StateDisposed, s.State())
}

func TestUnsubscribe(t *testing.T) {
	s, _, _ := newTestSupervisor(t, &shProgram{script: `echo "listening on a"; sleep 60`})
	rec := &recorder{}
	unsubscribe := s.Subscribe(rec.record)

	_, err := s.Start(context.Background())
	require.NoError(t, err)
	unsubscribe()
	require.NoError(t, s.Dispose(context.Background()))

	assert.Equal(t, []State{StateStarting, StateRunning}, rec.get())
}
