// Package mineru is a client of MinerU document parsing service (v4 API).
package mineru

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"stdpipe/common"
	"stdpipe/config"
	"stdpipe/fetch"
)

// Task states reported by service.
const (
	StateDone    = "done"
	StateFailed  = "failed"
	StateRunning = "running"
)

// ErrTaskFailed is returned when service reports parsing failure.
var ErrTaskFailed = errors.New("parsing task failed")

// Progress is reported while task is running.
type Progress struct {
	ExtractedPages int    `json:"extracted_pages"`
	TotalPages     int    `json:"total_pages"`
	StartTime      string `json:"start_time,omitempty"`
}

// Result describes state of single parsing task.
type Result struct {
	TaskID     string   `json:"task_id,omitempty"`
	BatchID    string   `json:"-"`
	DataID     string   `json:"data_id,omitempty"`
	FileName   string   `json:"file_name,omitempty"`
	State      string   `json:"state"`
	ErrMsg     string   `json:"err_msg,omitempty"`
	FullZipURL string   `json:"full_zip_url,omitempty"`
	Progress   Progress `json:"extract_progress"`
}

// Client talks to the service. It is safe for sequential use only.
type Client struct {
	baseURL       string
	token         string
	model         common.ModelVersion
	isOCR         bool
	enableFormula bool
	poll          time.Duration

	api    *http.Client
	upload *http.Client
	log    *zap.Logger
}

// NewClient creates client from configuration. Token is required.
func NewClient(cfg *config.ServiceConfig, log *zap.Logger) (*Client, error) {
	if len(cfg.Token) == 0 {
		return nil, errors.New("service token is not configured (MINERU_TOKEN)")
	}
	t, err := fetch.NewTransport(cfg.Proxy, cfg.RequestTimeout, true)
	if err != nil {
		return nil, fmt.Errorf("unable to prepare service transport: %w", err)
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		token:         cfg.Token.Value(),
		model:         cfg.ModelVersion,
		isOCR:         cfg.IsOCR,
		enableFormula: cfg.EnableFormula,
		poll:          cfg.PollInterval,
		api:           &http.Client{Transport: t, Timeout: cfg.RequestTimeout},
		// upload of big documents may take a while
		upload: &http.Client{Transport: t},
		log:    log.Named("mineru"),
	}, nil
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// call performs API request and decodes data part of response envelope.
func (c *Client) call(ctx context.Context, action, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("[%s] unable to encode request: %w", action, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("[%s] unable to create request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.api.Do(req)
	if err != nil {
		return fmt.Errorf("[%s] request failed: %w", action, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("[%s] unable to read response: %w", action, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("[%s] HTTP request failed: %d - %s", action, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("[%s] unable to decode response: %w", action, err)
	}
	if env.Code != 0 {
		return fmt.Errorf("[%s] API error: %s (code: %d)", action, env.Msg, env.Code)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("[%s] unable to decode response data: %w", action, err)
	}
	return nil
}

type batchFile struct {
	Name   string `json:"name"`
	DataID string `json:"data_id,omitempty"`
}

type batchRequest struct {
	Files         []batchFile `json:"files"`
	ModelVersion  string      `json:"model_version"`
	IsOCR         bool        `json:"is_ocr"`
	EnableFormula bool        `json:"enable_formula"`
}

type batchResponse struct {
	BatchID  string   `json:"batch_id"`
	FileURLs []string `json:"file_urls"`
}

// Upload requests upload URL for local file, uploads it and returns batch id
// processing can be awaited on.
func (c *Client) Upload(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("unable to open document: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("unable to stat document: %w", err)
	}

	name := filepath.Base(path)
	c.log.Info("Requesting upload URL", zap.String("file", name))

	var br batchResponse
	err = c.call(ctx, "request upload URL", http.MethodPost, "/file-urls/batch", batchRequest{
		Files:         []batchFile{{Name: name, DataID: uuid.NewString()}},
		ModelVersion:  c.model.String(),
		IsOCR:         c.isOCR,
		EnableFormula: c.enableFormula,
	}, &br)
	if err != nil {
		return "", err
	}
	if len(br.FileURLs) == 0 {
		return "", errors.New("service did not return upload URL")
	}

	c.log.Info("Uploading document", zap.String("batch", br.BatchID))

	// pre-signed URL, must not carry authorization or content type
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, br.FileURLs[0], f)
	if err != nil {
		return "", fmt.Errorf("unable to create upload request: %w", err)
	}
	req.ContentLength = fi.Size()

	resp, err := c.upload.Do(req)
	if err != nil {
		return "", fmt.Errorf("unable to upload document: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unable to upload document: HTTP %d", resp.StatusCode)
	}
	return br.BatchID, nil
}

// SubmitFile uploads local document and waits for its processing.
func (c *Client) SubmitFile(ctx context.Context, path string) (*Result, error) {
	id, err := c.Upload(ctx, path)
	if err != nil {
		return nil, err
	}
	r, err := c.WaitBatch(ctx, id)
	if r != nil {
		r.BatchID = id
	}
	return r, err
}

type batchResults struct {
	BatchID       string   `json:"batch_id"`
	ExtractResult []Result `json:"extract_result"`
}

// WaitBatch polls batch until its (single) document is processed.
func (c *Client) WaitBatch(ctx context.Context, batchID string) (*Result, error) {
	return c.wait(ctx, batchID, func() (*Result, error) {
		var br batchResults
		if err := c.call(ctx, "query batch state", http.MethodGet, "/extract-results/batch/"+batchID, nil, &br); err != nil {
			return nil, err
		}
		if len(br.ExtractResult) == 0 {
			return &Result{}, nil
		}
		return &br.ExtractResult[0], nil
	})
}

type taskRequest struct {
	URL           string `json:"url"`
	ModelVersion  string `json:"model_version"`
	IsOCR         bool   `json:"is_ocr"`
	EnableFormula bool   `json:"enable_formula"`
	DataID        string `json:"data_id,omitempty"`
}

// SubmitURL asks service to process remote document and waits for result.
func (c *Client) SubmitURL(ctx context.Context, url string) (*Result, error) {
	c.log.Info("Submitting URL task", zap.String("url", url))

	var tr struct {
		TaskID string `json:"task_id"`
	}
	err := c.call(ctx, "submit URL task", http.MethodPost, "/extract/task", taskRequest{
		URL:           url,
		ModelVersion:  c.model.String(),
		IsOCR:         c.isOCR,
		EnableFormula: c.enableFormula,
		DataID:        uuid.NewString(),
	}, &tr)
	if err != nil {
		return nil, err
	}
	if tr.TaskID == "" {
		return nil, errors.New("service did not return task id")
	}
	r, err := c.WaitTask(ctx, tr.TaskID)
	if r != nil && r.TaskID == "" {
		r.TaskID = tr.TaskID
	}
	return r, err
}

// WaitTask polls single task until it is processed.
func (c *Client) WaitTask(ctx context.Context, taskID string) (*Result, error) {
	return c.wait(ctx, taskID, func() (*Result, error) {
		var r Result
		if err := c.call(ctx, "query task state", http.MethodGet, "/extract/task/"+taskID, nil, &r); err != nil {
			return nil, err
		}
		return &r, nil
	})
}

// wait polls with fixed interval until final state. There is no overall
// limit, only context cancellation stops it.
func (c *Client) wait(ctx context.Context, id string, query func() (*Result, error)) (*Result, error) {
	log := c.log.With(zap.String("id", id))
	log.Info("Waiting for parsing results")

	for {
		r, err := query()
		if err != nil {
			return nil, err
		}
		switch r.State {
		case StateDone:
			log.Info("Parsing completed", zap.String("file", r.FileName))
			return r, nil
		case StateFailed:
			return r, fmt.Errorf("%w: %s", ErrTaskFailed, r.ErrMsg)
		case StateRunning:
			log.Debug("Parsing in progress", zap.Int("extracted", r.Progress.ExtractedPages), zap.Int("total", r.Progress.TotalPages))
		default:
			log.Debug("Waiting", zap.String("state", r.State))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.poll):
		}
	}
}
