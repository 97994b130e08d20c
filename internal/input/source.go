package input

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"eventstats/internal/logger"
	"eventstats/internal/metrics"
	"eventstats/pkg/models"
)

// Config configures the event log source.
type Config struct {
	URL     string
	Path    string
	Timeout time.Duration
}

// Source reads the gzipped tab-separated event log from a local file or
// an HTTP URL.
type Source struct {
	url    string
	path   string
	client *http.Client
}

// NewSource creates a source. A local path takes precedence over a URL.
func NewSource(cfg Config) (*Source, error) {
	if cfg.URL == "" && cfg.Path == "" {
		return nil, fmt.Errorf("either a source url or a source file is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Source{
		url:    cfg.URL,
		path:   cfg.Path,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// Events downloads (or opens) the log, decompresses it and parses every
// line into a RawEvent. Lines without the six tab-separated fields are
// skipped with a warning.
func (s *Source) Events(ctx context.Context) ([]models.RawEvent, error) {
	rc, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	gz, err := gzip.NewReader(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer gz.Close()

	var events []models.RawEvent
	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 6 {
			logger.Warnf("Skipping malformed line %d: %d fields", lineNo, len(fields))
			metrics.RowsSkipped.Inc()
			continue
		}
		events = append(events, models.RawEvent{
			Date:      fields[0],
			Time:      fields[1],
			UserID:    fields[2],
			URL:       fields[3],
			IP:        fields[4],
			UserAgent: fields[5],
		})
		metrics.RowsExtracted.Inc()
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read event log: %w", err)
	}

	logger.Infof("Total number of lines in the file: %d", len(events))
	return events, nil
}

func (s *Source) open(ctx context.Context) (io.ReadCloser, error) {
	if s.path != "" {
		f, err := os.Open(s.path)
		if err != nil {
			return nil, fmt.Errorf("failed to open event log %s: %w", s.path, err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download event log: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("failed to download event log: status %s", resp.Status)
	}
	return resp.Body, nil
}
