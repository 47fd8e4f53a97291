package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"stdpipe/config"
)

const defaultBackoff = 2 * time.Second

var errReadTimeout = errors.New("no data received within read timeout")

// Downloader streams remote files to disk retrying failed attempts.
type Downloader struct {
	client      *http.Client
	retries     int
	readTimeout time.Duration
	backoff     time.Duration
	log         *zap.Logger
}

// New creates downloader. Proxy setting has the same meaning as for
// ProxyFunc.
func New(cfg *config.DownloadConfig, proxy string, log *zap.Logger) (*Downloader, error) {
	t, err := NewTransport(proxy, cfg.ConnectTimeout, cfg.VerifySSL)
	if err != nil {
		return nil, fmt.Errorf("unable to prepare download transport: %w", err)
	}
	t.ResponseHeaderTimeout = cfg.ReadTimeout
	t.DisableKeepAlives = true

	return &Downloader{
		client:      &http.Client{Transport: t},
		retries:     max(cfg.Retries, 1),
		readTimeout: cfg.ReadTimeout,
		backoff:     defaultBackoff,
		log:         log.Named("fetch"),
	}, nil
}

// Download saves url content into path. Attempt N failure is followed by
// N*2s pause. Partial files never replace path.
func (d *Downloader) Download(ctx context.Context, url, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("unable to create directory for %s: %w", path, err)
	}

	var lastErr error
	for attempt := 1; attempt <= d.retries; attempt++ {
		lastErr = d.once(ctx, url, path)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		d.log.Warn("Download attempt failed", zap.Int("attempt", attempt), zap.Int("retries", d.retries), zap.Error(lastErr))

		if attempt == d.retries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * d.backoff):
		}
	}
	return fmt.Errorf("unable to download %s after %d attempts: %w", url, d.retries, lastErr)
}

func (d *Downloader) once(ctx context.Context, url, path string) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Connection", "close")
	req.Close = true

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected HTTP status %s", resp.Status)
	}

	part := path + ".part"
	f, err := os.Create(part)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(part)
		}
	}()

	body := io.Reader(resp.Body)
	if d.readTimeout > 0 {
		timer := time.AfterFunc(d.readTimeout, func() { cancel(errReadTimeout) })
		defer timer.Stop()
		body = &idleReader{r: resp.Body, timer: timer, timeout: d.readTimeout}
	}

	if _, err = io.Copy(f, body); err != nil {
		if cause := context.Cause(ctx); errors.Is(cause, errReadTimeout) {
			err = cause
		}
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(part, path)
}

// idleReader pushes read deadline forward on every successful read.
type idleReader struct {
	r       io.Reader
	timer   *time.Timer
	timeout time.Duration
}

func (r *idleReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.timer.Reset(r.timeout)
	}
	return n, err
}
