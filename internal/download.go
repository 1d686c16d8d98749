package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// countingWriter reports the bytes of a model transfer as they pass through.
type countingWriter struct {
	total   int64
	written int64
	report  func(written, total int64)
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.written += int64(len(p))
	if c.report != nil {
		c.report(c.written, c.total)
	}
	return len(p), nil
}

// Downloader fetches GGUF files into <modelDir>/<model id>/<file>.
type Downloader struct {
	modelDir string
	token    string
	baseURL  string
	client   *http.Client
}

type DownloaderOption func(*Downloader)

func WithDownloadURL(u string) DownloaderOption {
	return func(d *Downloader) { d.baseURL = strings.TrimRight(u, "/") }
}

// NewDownloader creates a downloader. token is sent as a bearer token when
// non-empty (HF_TOKEN).
func NewDownloader(modelDir, token string, opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		modelDir: modelDir,
		token:    token,
		baseURL:  HuggingFaceURL,
		client:   http.DefaultClient,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func (d *Downloader) ModelPath(m ModelInfo) string {
	return filepath.Join(d.modelDir, m.ID, m.File)
}

// EnsureModel returns the cached path of m, downloading it first if needed.
func (d *Downloader) EnsureModel(ctx context.Context, m ModelInfo, onProgress func(written, total int64)) (string, error) {
	modelPath := d.ModelPath(m)

	if _, err := os.Stat(modelPath); err == nil {
		slog.Debug("model cached", "path", modelPath)
		return modelPath, nil
	}

	if err := os.MkdirAll(filepath.Dir(modelPath), 0755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	if err := d.fetch(ctx, m, modelPath, onProgress); err != nil {
		return "", err
	}

	return modelPath, nil
}

// fetch streams m into dest+".tmp" and renames it into place. The temp file
// is removed on every failure, including cancellation.
func (d *Downloader) fetch(ctx context.Context, m ModelInfo, dest string, onProgress func(written, total int64)) error {
	src := m.URLAt(d.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return fmt.Errorf("model %s: build request: %w", m.ID, err)
	}
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("model %s: download: %w", m.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model %s: GET %s: status %d", m.ID, src, resp.StatusCode)
	}

	partial := dest + ".tmp"
	out, err := os.Create(partial)
	if err != nil {
		return fmt.Errorf("model %s: %w", m.ID, err)
	}

	counter := &countingWriter{total: resp.ContentLength, report: onProgress}
	_, copyErr := io.Copy(io.MultiWriter(out, counter), resp.Body)
	closeErr := out.Close()

	switch {
	case copyErr != nil:
		err = fmt.Errorf("model %s: interrupted after %d bytes: %w", m.ID, counter.written, copyErr)
	case closeErr != nil:
		err = fmt.Errorf("model %s: flush %s: %w", m.ID, partial, closeErr)
	case resp.ContentLength > 0 && counter.written != resp.ContentLength:
		err = fmt.Errorf("model %s: got %d of %d bytes", m.ID, counter.written, resp.ContentLength)
	default:
		err = os.Rename(partial, dest)
	}
	if err != nil {
		os.Remove(partial)
		return err
	}

	slog.Debug("model downloaded", "id", m.ID, "path", dest, "bytes", counter.written)
	return nil
}
