// Package report converts bound HTML documents into PDF bytes through a
// Gotenberg instance.
package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/paperbill/paperbill/internal/platform/httpx"
)

// Renderer is the interface the invoicing service depends on.
type Renderer interface {
	RenderPDF(ctx context.Context, html, css string) ([]byte, error)
}

// Client wraps interactions with the Gotenberg API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// NewClient constructs a new client. The timeout bounds each conversion so
// a runaway layout surfaces as a render timeout instead of hanging.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}
}

// Ping checks if the remote Gotenberg service is available.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/health", c.baseURL), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("gotenberg returned status %d", resp.StatusCode)
	}
	return nil
}

// RenderPDF converts an HTML document plus stylesheet into PDF bytes.
// Identical input produces an identically laid out document; Gotenberg may
// embed timestamps so the bytes themselves are not stable.
func (c *Client) RenderPDF(ctx context.Context, html, css string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writeFormFile(writer, "index.html", html); err != nil {
		return nil, err
	}
	if css != "" {
		// index.html links styles.css; Gotenberg serves sibling files.
		if err := writeFormFile(writer, "styles.css", css); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/forms/chromium/convert/html", c.baseURL), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, fmt.Errorf("gotenberg: %w", httpx.ErrRenderTimeout)
		}
		return nil, fmt.Errorf("gotenberg: %w: %v", httpx.ErrRenderFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("gotenberg: %w: status %d", httpx.ErrRenderFailed, resp.StatusCode)
	}
	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gotenberg: %w: reading response: %v", httpx.ErrRenderFailed, err)
	}
	return pdf, nil
}

func writeFormFile(writer *multipart.Writer, name, content string) error {
	part, err := writer.CreateFormFile("files", name)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, bytes.NewBufferString(content))
	return err
}
