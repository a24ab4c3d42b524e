// Package downloader fetches the zipped FIDE rating list and hands back the
// XML document inside it.
package downloader

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jhonben94/fide-Scraper/pkg/logger"
	"github.com/jhonben94/fide-Scraper/pkg/metrics"
	"github.com/jhonben94/fide-Scraper/pkg/retry"
)

// Fetcher retrieves the raw XML rating list, optionally for a historical
// period.
type Fetcher interface {
	Fetch(ctx context.Context, period *time.Time) ([]byte, error)
}

// Client downloads the archive over HTTP with retries.
type Client struct {
	httpClient *http.Client
	url        string
	logger     *logger.Logger
	retryOpts  retry.RetryOptions
}

// NewClient builds a Client for the configured archive URL.
func NewClient(url string, timeout time.Duration, l *logger.Logger) *Client {
	opts := retry.DefaultOptions()
	opts.Classifier = isRetryable

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
		logger:     l,
		retryOpts:  opts,
	}
}

// statusError marks a non-2xx response so the classifier can tell client
// errors from server ones.
type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %s", e.status)
}

func isRetryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		// 4xx will not get better on retry
		return se.code >= 500
	}
	return true
}

// Fetch downloads the archive (appending ?period=YYYY-MM-DD for historical
// lists) and returns the XML document inside it.
func (c *Client) Fetch(ctx context.Context, period *time.Time) ([]byte, error) {
	u := c.url
	if period != nil {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + "period=" + period.Format("2006-01-02")
	}

	c.logger.Info("downloading rating list", zap.String("url", u))

	var body []byte
	err := retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return &statusError{code: resp.StatusCode, status: resp.Status}
		}
		body, err = io.ReadAll(resp.Body)
		return err
	}, c.retryOpts)
	if err != nil {
		return nil, fmt.Errorf("download rating list: %w", err)
	}

	metrics.DownloadBytesTotal.Add(float64(len(body)))
	c.logger.Info("archive downloaded", zap.Int("bytes", len(body)))

	xmlContent, err := extractXML(body)
	if err != nil {
		return nil, err
	}
	c.logger.Info("xml extracted", zap.Int("bytes", len(xmlContent)))
	return xmlContent, nil
}

// extractXML pulls the first .xml member out of the archive.
func extractXML(archive []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, ".xml") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, errors.New("no xml file found in archive")
}
