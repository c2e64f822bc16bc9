package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jpillora/backoff"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Fetcher downloads one vendor archive.
type Fetcher interface {
	Fetch(ctx context.Context, job ArchiveJob) ([]byte, error)
	Name() string
}

// ErrNoToken is returned when the download page has no form token.
var ErrNoToken = errors.New(`download page has no "tk" form value`)

const pagePrefix = "download-free-forex-historical-data/?/ascii/tick-data-quotes"

// HistDataFetcher implements Fetcher against the histdata.com download form:
// it reads the one-time token from the archive page, then posts the form back
// with the page as referrer.
type HistDataFetcher struct {
	BaseURL    string
	Client     *http.Client
	MaxRetries int
	// RetryMin and RetryMax bound the exponential wait between attempts.
	RetryMin time.Duration
	RetryMax time.Duration
	log      *zap.Logger
}

// NewHistDataFetcher creates a fetcher with optional proxy support.
func NewHistDataFetcher(baseURL, proxyURL string, timeout time.Duration, maxRetries int, log *zap.Logger) *HistDataFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &HistDataFetcher{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		MaxRetries: maxRetries,
		RetryMin:   time.Second,
		RetryMax:   time.Minute,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		log: log,
	}
}

func (f *HistDataFetcher) Name() string { return "histdata" }

// PageURL is the download page of job.
func (f *HistDataFetcher) PageURL(job ArchiveJob) string {
	return fmt.Sprintf("%s/%s/%s/%d/%d", f.BaseURL, pagePrefix, job.Asset.Symbol(), job.Year, int(job.Month))
}

// Fetch downloads the archive of job, retrying failed attempts with
// exponential backoff. Client errors (4xx) are not retried.
func (f *HistDataFetcher) Fetch(ctx context.Context, job ArchiveJob) ([]byte, error) {
	b := &backoff.Backoff{Min: f.RetryMin, Max: f.RetryMax, Factor: 2, Jitter: true}
	for {
		data, err := f.fetchOnce(ctx, job)
		if err == nil {
			return data, nil
		}
		var se *statusError
		if ctx.Err() != nil || (errors.As(err, &se) && !se.retryable()) || int(b.Attempt()) >= f.MaxRetries {
			return nil, fmt.Errorf("fetch %s: %w", job.ArchiveName(), err)
		}
		wait := b.Duration()
		f.log.Warn("fetch failed, retrying",
			zap.String("archive", job.ArchiveName()),
			zap.Duration("wait", wait),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (f *HistDataFetcher) fetchOnce(ctx context.Context, job ArchiveJob) ([]byte, error) {
	page := f.PageURL(job)

	tk, err := f.token(ctx, page)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("tk", tk)
	form.Set("date", strconv.Itoa(job.Year))
	form.Set("datemonth", fmt.Sprintf("%d%02d", job.Year, int(job.Month)))
	form.Set("platform", "ASCII")
	form.Set("timeframe", "T")
	form.Set("fxpair", job.Asset.Symbol().String())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.BaseURL+"/get.php", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", page)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post form: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{op: "post form", code: resp.StatusCode}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	return data, nil
}

func (f *HistDataFetcher) token(ctx context.Context, page string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, page, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Referer", page)

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("get page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &statusError{op: "get page", code: resp.StatusCode}
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}
	tk := findInputValue(doc, "tk")
	if strings.TrimSpace(tk) == "" {
		return "", ErrNoToken
	}
	return tk, nil
}

// findInputValue returns the value of the first <input> whose id is id.
func findInputValue(n *html.Node, id string) string {
	if n.Type == html.ElementNode && n.Data == "input" && attr(n, "id") == id {
		return attr(n, "value")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if v := findInputValue(c, id); v != "" {
			return v
		}
	}
	return ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

type statusError struct {
	op   string
	code int
}

func (e *statusError) Error() string { return fmt.Sprintf("%s: status %d", e.op, e.code) }

func (e *statusError) retryable() bool {
	return e.code >= 500 || e.code == http.StatusTooManyRequests
}
