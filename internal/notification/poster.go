package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// PosterOptions tunes delivery for the HTTP-based notifiers.
type PosterOptions struct {
	Timeout        time.Duration // per attempt, default 10s
	PerMinute      int           // sustained alert rate, default 30
	MaxRetries     uint64        // retries after the first attempt, default 3
	InitialBackoff time.Duration // first retry delay, default 500ms
}

func (o PosterOptions) withDefaults() PosterOptions {
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.PerMinute <= 0 {
		o.PerMinute = 30
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = 3
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = 500 * time.Millisecond
	}
	return o
}

// poster POSTs JSON with rate limiting and exponential-backoff retries.
// 4xx responses are permanent and not retried.
type poster struct {
	client  *http.Client
	limiter *rate.Limiter
	opts    PosterOptions
}

func newPoster(opts PosterOptions) *poster {
	opts = opts.withDefaults()
	return &poster{
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.PerMinute)), opts.PerMinute),
		opts:    opts,
	}
}

func (p *poster) post(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.opts.InitialBackoff
	b := backoff.WithContext(backoff.WithMaxRetries(eb, p.opts.MaxRetries), ctx)

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := p.client.Do(req)
		if err != nil {
			return fmt.Errorf("send: %w", err)
		}
		resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return nil
		case resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests:
			return backoff.Permanent(fmt.Errorf("unexpected status %d", resp.StatusCode))
		default:
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
	}
	return backoff.Retry(op, b)
}
