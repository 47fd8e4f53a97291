package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"stdpipe/config"
)

func testDownloader(t *testing.T, retries int) *Downloader {
	t.Helper()
	d, err := New(&config.DownloadConfig{
		Retries:        retries,
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    5 * time.Second,
		VerifySSL:      true,
	}, "", zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	d.backoff = time.Millisecond
	return d
}

func TestDownload_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		if r.Header.Get("Connection") != "close" && !r.Close {
			t.Error("request does not ask to close connection")
		}
		_, _ = w.Write([]byte("zip-bytes"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "doc", "result.zip")
	if err := testDownloader(t, 5).Download(context.Background(), srv.URL+"/result.zip", path); err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("server called %d times, want 3", calls.Load())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "zip-bytes" {
		t.Errorf("content = %q", data)
	}
	if _, err := os.Stat(path + ".part"); !os.IsNotExist(err) {
		t.Error("partial file left behind")
	}
}

func TestDownload_GivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "result.zip")
	url := srv.URL + "/missing.zip"
	err := testDownloader(t, 2).Download(context.Background(), url, path)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), url) || !strings.Contains(err.Error(), "404") {
		t.Errorf("error %q does not name url and status", err)
	}
	if calls.Load() != 2 {
		t.Errorf("server called %d times, want 2", calls.Load())
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("target created on failure")
	}
}

func TestDownload_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	d := testDownloader(t, 5)
	d.backoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	if err := d.Download(ctx, srv.URL, filepath.Join(t.TempDir(), "r.zip")); err == nil {
		t.Fatal("expected error")
	}
	if time.Since(start) > 10*time.Second {
		t.Error("cancellation did not interrupt backoff")
	}
}

func TestProxyFunc(t *testing.T) {
	t.Setenv("HTTP_PROXY", "http://env-proxy:3128")
	t.Setenv("HTTPS_PROXY", "http://env-proxy:3128")
	t.Setenv("NO_PROXY", "")
	t.Setenv("REQUEST_METHOD", "")

	req := httptest.NewRequest(http.MethodGet, "https://mineru.net/api/v4/file-urls/batch", nil)

	pf, err := ProxyFunc("")
	if err != nil || pf != nil {
		t.Errorf("ProxyFunc(\"\") = %p, %v, want direct", pf, err)
	}

	pf, err = ProxyFunc(ProxyFromEnvironment)
	if err != nil {
		t.Fatalf("ProxyFunc(env) error = %v", err)
	}
	u, err := pf(req)
	if err != nil || u == nil || u.Host != "env-proxy:3128" {
		t.Errorf("env proxy = %v, %v", u, err)
	}

	pf, err = ProxyFunc("http://explicit:8080")
	if err != nil {
		t.Fatalf("ProxyFunc(explicit) error = %v", err)
	}
	u, err = pf(req)
	if err != nil || u == nil || u.Host != "explicit:8080" {
		t.Errorf("explicit proxy = %v, %v", u, err)
	}

	if _, err := ProxyFunc("http://bad host:80"); err == nil {
		t.Error("expected error for malformed proxy URL")
	}
}
