package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/guseggert/roadkill/abort"
	"github.com/guseggert/roadkill/driver"
	rnet "github.com/guseggert/roadkill/internal/net"
	"github.com/guseggert/roadkill/webdriver"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func screenshot(c *cli.Context) error {
	e, cleanup, err := setup(c)
	if err != nil {
		return err
	}
	defer cleanup()

	if e.cfg.Driver.Port == 0 {
		port, err := rnet.GetEphemeralTCPPort()
		if err != nil {
			return fmt.Errorf("acquiring a port: %w", err)
		}
		e.cfg.Driver.Port = port
	}
	d := driver.New(e.cfg.DriverOptions(e.log)...)
	addr, err := startDriver(c.Context, d, e.cfg.ReadyTimeout)
	if err != nil {
		return err
	}
	defer d.Dispose(context.Background())

	client := webdriver.NewClient(addr, webdriver.WithLogger(e.log))
	readyCtx, cancel := abort.Timeout(c.Context, e.cfg.ReadyTimeout)
	defer cancel()
	if err := client.WaitReady(readyCtx, probeInterval); err != nil {
		return fmt.Errorf("waiting for %s to be ready: %w", d.Name(), err)
	}

	urls := c.StringSlice("url")
	out := c.String("out")
	group, ctx := errgroup.WithContext(c.Context)
	for i, u := range urls {
		u := u
		path := out
		if len(urls) > 1 {
			path = indexedPath(out, i+1)
		}
		group.Go(func() error {
			w, h, err := capture(ctx, e, client, u, path)
			if err != nil {
				return fmt.Errorf("capturing %s: %w", u, err)
			}
			fmt.Fprintf(c.App.Writer, "%s: %dx%d -> %s\n", u, w, h, path)
			return nil
		})
	}
	return group.Wait()
}

// capture takes a screenshot of u in its own session and writes it to path.
func capture(ctx context.Context, e *env, client *webdriver.Client, u, path string) (int, int, error) {
	sessionCtx, cancel := abort.Timeout(ctx, e.cfg.RequestTimeout)
	defer cancel()
	session, err := client.NewSession(sessionCtx, e.cfg.Capabilities())
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		deleteCtx, cancel := abort.Timeout(abort.WithoutAmbient(context.Background()), e.cfg.RequestTimeout)
		defer cancel()
		if err := session.Delete(deleteCtx); err != nil {
			e.log.Sugar().Warnf("deleting session %s: %s", session.ID(), err)
		}
	}()

	cmdCtx, cancelCmd := abort.Timeout(ctx, e.cfg.RequestTimeout)
	defer cancelCmd()
	if err := session.NavigateTo(cmdCtx, u); err != nil {
		return 0, 0, err
	}
	b64, err := session.Screenshot(cmdCtx)
	if err != nil {
		return 0, 0, err
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return 0, 0, fmt.Errorf("decoding screenshot: %w", err)
	}
	img, err := png.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return 0, 0, fmt.Errorf("screenshot is not a PNG: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return 0, 0, fmt.Errorf("writing screenshot: %w", err)
	}
	return img.Width, img.Height, nil
}

// indexedPath turns shot.png into shot-2.png.
func indexedPath(path string, i int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), i, ext)
}
