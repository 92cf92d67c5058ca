package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/guseggert/roadkill/abort"
	"github.com/guseggert/roadkill/driver"
	rnet "github.com/guseggert/roadkill/internal/net"
	"github.com/guseggert/roadkill/webdriver"
	"github.com/urfave/cli/v2"
)

const probeInterval = 100 * time.Millisecond

func status(c *cli.Context) error {
	e, cleanup, err := setup(c)
	if err != nil {
		return err
	}
	defer cleanup()

	w := c.App.Writer
	d := driver.New(e.cfg.DriverOptions(e.log)...)

	fmt.Fprintf(w, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintln(w, "PATH:")
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		fmt.Fprintf(w, "  %s\n", dir)
	}

	exe, err := d.ResolveExecutable()
	if err != nil {
		return cli.Exit(fmt.Sprintf("%s: %s", d.Name(), err), 1)
	}
	fmt.Fprintf(w, "%s executable: %s\n", d.Name(), exe)
	fmt.Fprintf(w, "%s args: %s\n", d.Name(), strings.Join(d.Args(), " "))

	versionCtx, cancel := abort.Timeout(c.Context, e.cfg.RequestTimeout)
	defer cancel()
	out, err := exec.CommandContext(versionCtx, exe, "--version").CombinedOutput()
	if err != nil {
		fmt.Fprintf(w, "%s --version failed: %s\n", d.Name(), err)
	} else {
		fmt.Fprintf(w, "%s version: %s\n", d.Name(), strings.TrimSpace(string(out)))
	}

	if !c.Bool("start") {
		return nil
	}

	if port := e.cfg.Driver.Port; port != 0 && !rnet.PortFree(port) {
		fmt.Fprintf(w, "warning: port %d is already in use\n", port)
	}

	addr, err := startDriver(c.Context, d, e.cfg.ReadyTimeout)
	if err != nil {
		return err
	}
	defer d.Dispose(context.Background())

	fmt.Fprintf(w, "state: %s\n", d.State())
	fmt.Fprintf(w, "pid: %d\n", d.PID())
	fmt.Fprintf(w, "address: %s\n", addr)
	if d.UsedDefaultPort() {
		fmt.Fprintf(w, "note: %s did not announce its port, assumed %d\n", d.Name(), e.cfg.Driver.DefaultPort)
	}

	client := webdriver.NewClient(addr, webdriver.WithLogger(e.log))
	readyCtx, cancelReady := abort.Timeout(c.Context, e.cfg.ReadyTimeout)
	defer cancelReady()
	if err := client.WaitReady(readyCtx, probeInterval); err != nil {
		return fmt.Errorf("waiting for %s to be ready: %w", d.Name(), err)
	}
	st, err := client.Status(readyCtx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "ready: %t\n", st.Ready)
	fmt.Fprintf(w, "message: %s\n", st.Message)
	if st.Build.Version != "" {
		fmt.Fprintf(w, "build: %s\n", st.Build.Version)
	}

	if err := d.Dispose(context.Background()); err != nil {
		return fmt.Errorf("stopping %s: %w", d.Name(), err)
	}
	fmt.Fprintf(w, "state: %s\n", d.State())
	return nil
}
