package govinfo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/crec-harvester/internal/metrics"
)

const defaultDownloadTimeout = 90 * time.Second

// Downloader fetches a document body from an arbitrary URL. Download URLs
// come from granule summaries and are public, so no API key is sent.
type Downloader interface {
	Download(ctx context.Context, rawURL string) (string, error)
}

// CollyDownloader implements Downloader with a Colly collector.
type CollyDownloader struct {
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// DownloaderConfig holds the knobs for the document downloader.
type DownloaderConfig struct {
	UserAgent string
	Timeout   time.Duration
}

// NewCollyDownloader constructs a configured Colly-based Downloader.
func NewCollyDownloader(cfg DownloaderConfig, logger *zap.Logger) *CollyDownloader {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultDownloadTimeout
	}
	opts := []colly.CollectorOption{}
	if cfg.UserAgent != "" {
		opts = append(opts, colly.UserAgent(cfg.UserAgent))
	}
	base := colly.NewCollector(opts...)
	base.AllowURLRevisit = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          16,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(timeout)

	return &CollyDownloader{
		baseCollector: base,
		logger:        logger,
	}
}

// Download retrieves a document body via the configured Colly collector.
func (d *CollyDownloader) Download(ctx context.Context, rawURL string) (string, error) {
	collector := d.baseCollector.Clone()
	resultCh := make(chan downloadResult, 1)
	var once sync.Once
	send := func(res downloadResult) {
		once.Do(func() {
			resultCh <- res
		})
	}

	collector.OnResponse(func(r *colly.Response) {
		send(downloadResult{body: string(r.Body)})
	})

	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode > 0 {
			send(downloadResult{err: &StatusError{Code: r.StatusCode, URL: rawURL}})
			return
		}
		if err == nil {
			err = errors.New("unknown colly error")
		}
		send(downloadResult{err: fmt.Errorf("download %s: %w", rawURL, err)})
	})

	if err := collector.Visit(rawURL); err != nil {
		return "", fmt.Errorf("download %s: %w", rawURL, err)
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if res.err == nil {
			metrics.Documents.Inc()
		}
		return res.body, res.err
	default:
		return "", errors.New("colly download produced no result")
	}
}

type downloadResult struct {
	body string
	err  error
}
