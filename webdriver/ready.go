package webdriver

import (
	"context"
	"net/http"
	"time"

	"github.com/guseggert/roadkill/abort"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

const probeRetryMax = 5

type logAdapter struct {
	*zap.SugaredLogger
}

func (a *logAdapter) Printf(msg string, args ...interface{}) { a.Debugf(msg, args...) }

// WaitReady polls the status of the remote end every interval until it reports ready.
// Connection errors of a remote end that is still warming up are retried by the probe client.
func (c *Client) WaitReady(ctx context.Context, interval time.Duration) error {
	if c.ignoreAmbient {
		ctx = abort.WithoutAmbient(ctx)
	}
	ctx, cancel := abort.Merge(ctx)
	defer cancel()

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = c.httpClient
	retryClient.RetryMax = probeRetryMax
	retryClient.Backoff = func(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
		return interval
	}
	retryClient.Logger = &logAdapter{SugaredLogger: c.log}

	probe := *c
	probe.httpClient = retryClient.StandardClient()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		status, err := probe.Status(ctx)
		if err == nil && status.Ready {
			c.log.Debug("remote end is ready, done waiting")
			return nil
		}
		if err != nil {
			c.log.Debugf("got status error: %s", err)
		} else {
			c.log.Debugf("remote end not ready: %s", status.Message)
		}
		select {
		case <-ctx.Done():
			return abort.Reason(ctx)
		case <-ticker.C:
		}
	}
}
