/*
Package supervisor runs a child process through an observable lifecycle.

A Supervisor spawns the process described by a Program, streams its output line by line to the program,
promotes it to running once the program recognizes readiness in the output, and tears down the whole
process tree when it crashes, when its token is aborted, or when it is disposed.

	new -> starting -> running -> abort running -> disposed
	        starting -> abort start -> disposed
	new -> disposed

A supervisor only reaches disposed from an abort state after the process exit and the completion of the
tree kill have both been observed.
*/
package supervisor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/guseggert/roadkill/abort"
	"go.uber.org/zap"
)

const (
	maxLineSize = 1024 * 1024
	// drainTimeout bounds how long the exit is held back for output still in the pipes.
	// Descendants inheriting the pipes may keep them open indefinitely.
	drainTimeout = 200 * time.Millisecond
)

// Program describes the process to supervise.
type Program interface {
	// Command builds the command to spawn. The supervisor owns the process lifetime,
	// so the command must not be bound to ctx with exec.CommandContext, and its standard output
	// and error are replaced.
	Command(ctx context.Context) (*exec.Cmd, error)
	// OnLine is called with every output line of the process, stdout and stderr alike.
	// Returning ready while starting promotes the process to running with the given address.
	OnLine(line string) (address string, ready bool)
	// StartingError builds the error reported when the process exits before it is ready.
	// Returning nil reports an *ExitError.
	StartingError(status ExitStatus) error
}

type Option func(*Supervisor)

func WithLogger(l *zap.Logger) Option {
	return func(s *Supervisor) {
		s.log = l.Named("supervisor").Sugar()
	}
}

type Supervisor struct {
	program Program
	log     *zap.SugaredLogger

	killTree     func(pid int) error
	drainTimeout time.Duration

	loopOnce sync.Once
	events   chan any
	ready    chan struct{}
	done     chan struct{}

	// ctx is aborted with the abort reason once the supervisor is disposed.
	ctx       context.Context
	cancelCtx context.CancelCauseFunc

	mu  sync.Mutex
	m   machine
	pid int

	subMu   sync.Mutex
	subs    []subscription
	nextSub int

	// owned by the loop goroutine
	cmd       *exec.Cmd
	outputs   []*os.File
	readers   sync.WaitGroup
	cancelRun context.CancelFunc
	stopAbort func() bool
}

type subscription struct {
	id int
	fn func(State)
}

type (
	startEvent struct {
		ctx    context.Context
		cancel context.CancelFunc
		reply  chan error
	}
	lineEvent struct {
		stream string
		line   string
	}
	exitEvent   struct{ status ExitStatus }
	abortEvent  struct{ reason error }
	killedEvent struct{ err error }
)

func New(program Program, opts ...Option) *Supervisor {
	ctx, cancel := context.WithCancelCause(context.Background())
	s := &Supervisor{
		program:      program,
		log:          zap.NewNop().Sugar(),
		killTree:     killProcessTree,
		drainTimeout: drainTimeout,
		events:       make(chan any),
		ready:        make(chan struct{}),
		done:         make(chan struct{}),
		ctx:          ctx,
		cancelCtx:    cancel,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start spawns the process and waits until it is running, returning its address.
// ctx governs the lifetime of the process, not only the wait: aborting it tears the process down.
// When ctx is aborted during the wait, Start returns its reason right away while the teardown continues.
// The ambient token is merged into ctx.
func (s *Supervisor) Start(ctx context.Context) (string, error) {
	runCtx, cancel := abort.Merge(ctx)
	s.startLoop()

	reply := make(chan error, 1)
	if !s.post(startEvent{ctx: runCtx, cancel: cancel, reply: reply}) {
		cancel()
		return "", ErrAlreadyStarted
	}
	if err := <-reply; err != nil {
		cancel()
		return "", err
	}

	select {
	case <-s.ready:
		return s.Address(), nil
	case <-s.done:
		if err := s.Err(); err != nil {
			return "", err
		}
		return "", ErrDisposed
	case <-runCtx.Done():
		// the run token is also released once disposed, which must not hide the abort reason
		select {
		case <-s.done:
			if err := s.Err(); err != nil {
				return "", err
			}
		default:
		}
		return "", abort.Reason(runCtx)
	}
}

// Dispose tears down the process and waits until the supervisor is disposed or ctx is aborted.
// It is idempotent and safe to call concurrently; a supervisor that was never started is disposed right away.
func (s *Supervisor) Dispose(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.startLoop()
	if !s.post(abortEvent{reason: ErrDisposed}) {
		return nil
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return abort.Reason(ctx)
	}
}

func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.state
}

// Address returns the address reported by the program, or "" if the process never got to running.
func (s *Supervisor) Address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.address
}

// Err returns the reason the process was aborted, or nil.
func (s *Supervisor) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.reason
}

// PID returns the pid of the spawned process, or 0.
func (s *Supervisor) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pid
}

// Done is closed once the supervisor is disposed.
func (s *Supervisor) Done() <-chan struct{} { return s.done }

// Context returns a token that is aborted with the abort reason once the supervisor is disposed.
func (s *Supervisor) Context() context.Context { return s.ctx }

// Subscribe registers fn to be called with every state the supervisor enters, in order.
// Listeners run on the supervisor's event loop and must not block on the supervisor itself.
func (s *Supervisor) Subscribe(fn func(State)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Supervisor) startLoop() {
	s.loopOnce.Do(func() { go s.loop() })
}

// post hands an event to the loop. It reports false once the supervisor is disposed.
func (s *Supervisor) post(ev any) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

func (s *Supervisor) loop() {
	for ev := range s.events {
		s.handle(ev)
		if s.State() == StateDisposed {
			s.finish()
			return
		}
	}
}

func (s *Supervisor) handle(ev any) {
	switch ev := ev.(type) {
	case startEvent:
		s.handleStart(ev)
	case lineEvent:
		s.log.Debugf("%s: %s", ev.stream, ev.line)
		address, ready := s.program.OnLine(ev.line)
		if ready && s.State() == StateStarting {
			s.step(input{kind: inReady, address: address})
		}
	case exitEvent:
		s.log.Debugf("process %d exited with %s", s.PID(), ev.status)
		s.step(input{kind: inExit, reason: s.exitReason(ev.status)})
	case abortEvent:
		s.step(input{kind: inAbort, reason: ev.reason})
	case killedEvent:
		if ev.err != nil {
			s.log.Debugf("error killing process tree: %s", ev.err)
		}
		s.step(input{kind: inKilled})
	}
}

func (s *Supervisor) handleStart(ev startEvent) {
	if s.State() != StateNew {
		ev.reply <- ErrAlreadyStarted
		return
	}
	s.cancelRun = ev.cancel
	s.step(input{kind: inStart})

	if err := abort.Check(ev.ctx); err != nil {
		s.step(input{kind: inSpawnFailed, reason: err})
		ev.reply <- nil
		return
	}
	if err := s.spawn(ev.ctx); err != nil {
		s.step(input{kind: inSpawnFailed, reason: fmt.Errorf("spawning process: %w", err)})
		ev.reply <- nil
		return
	}
	s.stopAbort = abort.OnAbort(ev.ctx, func(reason error) {
		s.post(abortEvent{reason: reason})
	})
	ev.reply <- nil
}

func (s *Supervisor) exitReason(status ExitStatus) error {
	if s.State() == StateStarting {
		if err := s.program.StartingError(status); err != nil {
			return err
		}
	}
	return &ExitError{Status: status}
}

// step applies an input to the machine, notifies listeners of every entered state and starts the tree kill if needed.
func (s *Supervisor) step(in input) {
	s.mu.Lock()
	entered, kill := s.m.apply(in)
	s.mu.Unlock()

	for _, st := range entered {
		s.log.Debugf("state %s", st)
		if st == StateRunning {
			close(s.ready)
		}
		s.notify(st)
	}
	if kill {
		pid := s.PID()
		go func() {
			s.post(killedEvent{err: s.killTree(pid)})
		}()
	}
}

func (s *Supervisor) notify(st State) {
	s.subMu.Lock()
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()
	for _, sub := range subs {
		sub.fn(st)
	}
}

func (s *Supervisor) spawn(ctx context.Context) error {
	cmd, err := s.program.Command(ctx)
	if err != nil {
		return fmt.Errorf("building command: %w", err)
	}
	setProcAttr(cmd)

	outR, outW, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("creating stdout pipe: %w", err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		outR.Close()
		outW.Close()
		return fmt.Errorf("creating stderr pipe: %w", err)
	}
	cmd.Stdout = outW
	cmd.Stderr = errW

	s.log.Debugf("spawning %s", strings.Join(cmd.Args, " "))
	err = cmd.Start()
	outW.Close()
	errW.Close()
	if err != nil {
		outR.Close()
		errR.Close()
		return err
	}

	s.mu.Lock()
	s.pid = cmd.Process.Pid
	s.mu.Unlock()
	s.cmd = cmd
	s.outputs = []*os.File{outR, errR}

	s.readers.Add(2)
	go s.read("stdout", outR)
	go s.read("stderr", errR)
	go s.wait(cmd)
	return nil
}

func (s *Supervisor) read(stream string, r io.Reader) {
	defer s.readers.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if !s.post(lineEvent{stream: stream, line: line}) {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		s.log.Debugf("%s reader stopped: %s", stream, err)
		// keep the pipe drained so the process does not block on writes
		_, _ = io.Copy(io.Discard, r)
	}
}

func (s *Supervisor) wait(cmd *exec.Cmd) {
	err := cmd.Wait()
	status := exitStatus(cmd.ProcessState, err)

	// lines written before the exit are delivered before it
	drained := make(chan struct{})
	go func() {
		s.readers.Wait()
		close(drained)
	}()
	timer := time.NewTimer(s.drainTimeout)
	defer timer.Stop()
	select {
	case <-drained:
	case <-timer.C:
	}

	s.post(exitEvent{status: status})
}

func (s *Supervisor) finish() {
	if s.stopAbort != nil {
		s.stopAbort()
	}
	for _, f := range s.outputs {
		f.Close()
	}
	reason := s.Err()
	if reason == nil {
		reason = ErrDisposed
	}
	s.cancelCtx(reason)
	close(s.done)
	if s.cancelRun != nil {
		s.cancelRun()
	}
}
