/*
Package driver supervises a WebDriver remote end executable such as chromedriver.

The driver is ready once its transcript announces the port it listens on and reports a successful start:

	Starting ChromeDriver 120.0.6099.109 (...) on port 9515
	ChromeDriver was started successfully.

The address of a running driver is http://localhost:<port> and is meant to be passed to webdriver.NewClient.
*/
package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/guseggert/roadkill/internal/files"
	"github.com/guseggert/roadkill/supervisor"
	"go.uber.org/zap"
)

const (
	DefaultName = "ChromeDriver"
	DefaultPort = 9515
)

// DefaultArgs are the arguments passed to the executable unless WithArgs is used.
// Chrome logs keep the transcript useful when the driver fails to start.
var DefaultArgs = []string{"--enable-chrome-logs"}

// DefaultExecutable is the executable looked up when WithExecutable is not used.
func DefaultExecutable() string {
	if runtime.GOOS == "windows" {
		return "chromedriver.exe"
	}
	return "chromedriver"
}

type Option func(*Driver)

// WithName sets the name the driver announces itself with in its transcript.
func WithName(name string) Option {
	return func(d *Driver) { d.name = name }
}

// WithExecutable sets the executable name or path.
func WithExecutable(executable string) Option {
	return func(d *Driver) { d.executable = executable }
}

// WithPath sets a directory that is searched first for the executable and prepended to PATH of the driver.
func WithPath(dir string) Option {
	return func(d *Driver) { d.path = dir }
}

// WithArgs replaces the default arguments.
func WithArgs(args ...string) Option {
	return func(d *Driver) { d.args = args }
}

// WithPort makes the driver listen on port through --port.
func WithPort(port int) Option {
	return func(d *Driver) { d.port = port }
}

// WithDefaultPort sets the port assumed when the driver reports success without announcing a port.
func WithDefaultPort(port int) Option {
	return func(d *Driver) { d.defaultPort = port }
}

func WithLogger(l *zap.Logger) Option {
	return func(d *Driver) { d.zlog = l }
}

// WithWorkDir sets the directory the executable is searched upwards from, and the working directory of the driver.
func WithWorkDir(dir string) Option {
	return func(d *Driver) { d.workDir = dir }
}

type Driver struct {
	name        string
	executable  string
	path        string
	workDir     string
	args        []string
	port        int
	defaultPort int

	zlog *zap.Logger
	log  *zap.SugaredLogger

	portPattern    *regexp.Regexp
	successPattern *regexp.Regexp

	sup *supervisor.Supervisor

	mu              sync.Mutex
	transcript      []string
	announcedPort   int
	ready           bool
	usedDefaultPort bool
}

func New(opts ...Option) *Driver {
	d := &Driver{
		name:        DefaultName,
		executable:  DefaultExecutable(),
		args:        DefaultArgs,
		defaultPort: DefaultPort,
		zlog:        zap.NewNop(),
	}
	for _, o := range opts {
		o(d)
	}

	logName := strings.ToLower(strings.ReplaceAll(d.name, " ", "_"))
	d.log = d.zlog.Named(logName).Sugar()
	name := regexp.QuoteMeta(d.name)
	d.portPattern = regexp.MustCompile(`Starting ` + name + `.*on port (\d+)`)
	d.successPattern = regexp.MustCompile(`^` + name + ` (?:was )?started successfully(?: on port (\d+))?\.?$`)
	d.sup = supervisor.New(&program{d: d}, supervisor.WithLogger(d.zlog.Named(logName)))
	return d
}

func (d *Driver) Name() string { return d.name }

// Start spawns the driver and returns its address once it reports a successful start.
// ctx governs the lifetime of the driver process, see supervisor.Supervisor.Start.
func (d *Driver) Start(ctx context.Context) (string, error) {
	return d.sup.Start(ctx)
}

// Dispose kills the driver process tree and waits for it to be gone.
func (d *Driver) Dispose(ctx context.Context) error {
	return d.sup.Dispose(ctx)
}

func (d *Driver) State() supervisor.State { return d.sup.State() }

func (d *Driver) Address() string { return d.sup.Address() }

func (d *Driver) Err() error { return d.sup.Err() }

func (d *Driver) PID() int { return d.sup.PID() }

func (d *Driver) Done() <-chan struct{} { return d.sup.Done() }

// Context returns a token aborted once the driver is disposed, for whatever reason.
func (d *Driver) Context() context.Context { return d.sup.Context() }

func (d *Driver) Subscribe(fn func(supervisor.State)) (unsubscribe func()) {
	return d.sup.Subscribe(fn)
}

// UsedDefaultPort reports whether the address was built from the default port
// because the driver never announced one.
func (d *Driver) UsedDefaultPort() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.usedDefaultPort
}

// Transcript returns the lines the driver printed while starting.
func (d *Driver) Transcript() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.transcript...)
}

// ResolveExecutable finds the driver executable: an explicit path is used as is, then the WithPath directory,
// PATH and finally the working directory and its ancestors (also their bin and node_modules/.bin) are searched.
func (d *Driver) ResolveExecutable() (string, error) {
	exe := d.executable
	if strings.ContainsRune(exe, filepath.Separator) || strings.ContainsRune(exe, '/') {
		if _, err := os.Stat(exe); err != nil {
			return "", fmt.Errorf("%s executable: %w", d.name, err)
		}
		return exe, nil
	}

	if d.path != "" {
		candidate := filepath.Join(d.path, exe)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	if found, err := exec.LookPath(exe); err == nil {
		return found, nil
	} else if !errors.Is(err, exec.ErrNotFound) {
		return "", fmt.Errorf("looking up %s executable %q: %w", d.name, exe, err)
	}

	dir := d.workDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting working directory: %w", err)
		}
		dir = wd
	}
	found, err := files.FindUpIn(exe, dir, ".", "bin", filepath.Join("node_modules", ".bin"))
	if err != nil {
		return "", fmt.Errorf("searching for %s executable %q: %w", d.name, exe, err)
	}
	if found == "" {
		return "", fmt.Errorf("%s executable %q not found in PATH or above %s: %w", d.name, exe, dir, exec.ErrNotFound)
	}
	return found, nil
}

// Args returns the arguments the executable is started with.
func (d *Driver) Args() []string {
	args := append([]string(nil), d.args...)
	if d.port != 0 {
		args = append(args, fmt.Sprintf("--port=%d", d.port))
	}
	return args
}

func (d *Driver) command() (*exec.Cmd, error) {
	exe, err := d.ResolveExecutable()
	if err != nil {
		return nil, err
	}
	cmd := exec.Command(exe, d.Args()...)
	cmd.Dir = d.workDir
	if d.path != "" {
		cmd.Env = prependPath(os.Environ(), d.path)
	}
	return cmd, nil
}

func (d *Driver) onLine(line string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ready {
		return "", false
	}
	d.transcript = append(d.transcript, line)

	if d.announcedPort == 0 {
		if m := d.portPattern.FindStringSubmatch(line); m != nil {
			d.announcedPort, _ = strconv.Atoi(m[1])
		}
	}

	m := d.successPattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", false
	}
	port := d.announcedPort
	if port == 0 && m[1] != "" {
		port, _ = strconv.Atoi(m[1])
	}
	if port == 0 {
		port = d.port
	}
	if port == 0 {
		port = d.defaultPort
		d.usedDefaultPort = true
		d.log.Warnf("%s started without announcing its port, assuming default port %d", d.name, port)
	}
	d.ready = true
	return fmt.Sprintf("http://localhost:%d", port), true
}

func prependPath(env []string, dir string) []string {
	out := make([]string, 0, len(env)+1)
	found := false
	for _, kv := range env {
		key, value, _ := strings.Cut(kv, "=")
		if strings.EqualFold(key, "PATH") && !found {
			found = true
			out = append(out, key+"="+dir+string(os.PathListSeparator)+value)
			continue
		}
		out = append(out, kv)
	}
	if !found {
		out = append(out, "PATH="+dir)
	}
	return out
}

// program adapts a Driver to the supervisor.
type program struct {
	d *Driver
}

func (p *program) Command(ctx context.Context) (*exec.Cmd, error) { return p.d.command() }

func (p *program) OnLine(line string) (string, bool) { return p.d.onLine(line) }

func (p *program) StartingError(status supervisor.ExitStatus) error {
	return &StartupError{Name: p.d.name, Exit: status, Transcript: p.d.Transcript()}
}

// StartupError is returned by Start when the driver exits before reporting a successful start.
type StartupError struct {
	Name       string
	Exit       supervisor.ExitStatus
	Transcript []string
}

func (e *StartupError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s exited with %s before detecting its service address", e.Name, e.Exit)
	if len(e.Transcript) == 0 {
		b.WriteString(" (no output)")
		return b.String()
	}
	b.WriteString(", output:")
	for _, line := range e.Transcript {
		b.WriteString("\n  ")
		b.WriteString(line)
	}
	return b.String()
}

// Unwrap exposes the exit as a *supervisor.ExitError.
func (e *StartupError) Unwrap() error {
	return &supervisor.ExitError{Status: e.Exit}
}
