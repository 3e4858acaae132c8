package fetcher

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultUserAgent identifies the mapper to third-party hosts.
const DefaultUserAgent = "contact-mapper/1.0 (+legal contact discovery)"

const defaultAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

// Options configures the HTTP fetcher.
type Options struct {
	UserAgent    string
	Timeout      time.Duration
	PoliteDelay  time.Duration
	MaxBodyBytes int64
	MaxRedirects int
	Transport    http.RoundTripper
}

func (o Options) withDefaults() Options {
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.PoliteDelay < 0 {
		o.PoliteDelay = 0
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = 2 * 1024 * 1024
	}
	if o.MaxRedirects <= 0 {
		o.MaxRedirects = 10
	}
	return o
}

// HTTPFetcher implements Fetcher with net/http. Requests are spaced by the
// polite delay; it is safe for concurrent use but the mapper gives each firm
// its own instance so one slow site does not throttle another.
type HTTPFetcher struct {
	client  *http.Client
	opts    Options
	limiter *rate.Limiter
}

// NewHTTPFetcher creates an HTTPFetcher with the given options.
func NewHTTPFetcher(opts Options) *HTTPFetcher {
	opts = opts.withDefaults()

	transport := opts.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout: opts.Timeout,
			}).DialContext,
			TLSHandshakeTimeout: opts.Timeout,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     30 * time.Second,
		}
	}

	maxRedirects := opts.MaxRedirects
	f := &HTTPFetcher{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return eris.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		opts: opts,
	}
	if opts.PoliteDelay > 0 {
		f.limiter = rate.NewLimiter(rate.Every(opts.PoliteDelay), 1)
	}
	return f
}

// CloseIdleConnections releases pooled keep-alive connections. The fetcher
// stays usable.
func (f *HTTPFetcher) CloseIdleConnections() {
	f.client.CloseIdleConnections()
}

// Options returns the effective options.
func (f *HTTPFetcher) Options() Options {
	return f.opts
}

// Fetch performs a single GET. The per-request timeout covers connect,
// headers and body. Failures are returned as *FetchError and never retried.
func (f *HTTPFetcher) Fetch(ctx context.Context, targetURL string) (*Response, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, &FetchError{URL: targetURL, Reason: ReasonCanceled, Err: err}
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, &FetchError{URL: targetURL, Reason: ReasonRequest, Err: err}
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", defaultAccept)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: targetURL, Reason: classifyTransportError(ctx, err), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBodyBytes))
	if err != nil {
		return nil, &FetchError{URL: targetURL, Reason: classifyReadError(ctx, reqCtx), StatusCode: resp.StatusCode, Err: err}
	}

	if blocked, blockType := DetectBlock(resp, body); blocked {
		return nil, &FetchError{URL: targetURL, Reason: ReasonBlocked, StatusCode: resp.StatusCode, Detail: string(blockType)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: targetURL, Reason: ReasonStatus, StatusCode: resp.StatusCode}
	}

	zap.L().Debug("fetcher: fetched",
		zap.String("url", targetURL),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &Response{
		URL:         targetURL,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func classifyReadError(parent, reqCtx context.Context) Reason {
	if parent.Err() != nil {
		return ReasonCanceled
	}
	if reqCtx.Err() != nil {
		return ReasonTimeout
	}
	return ReasonRead
}
