package utils

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:133.0) Gecko/20100101 Firefox/133.0"

type ClientOptions struct {
	Timeout   time.Duration
	UserAgent string
	// RateLimitBackoff is the fixed wait before the single retry of a
	// 429 response. Zero disables the retry.
	RateLimitBackoff time.Duration
	Logger           *zap.Logger
}

type RestyClient struct {
	*resty.Client
}

func NewRestyClient(opts ClientOptions) *RestyClient {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	client := resty.New().
		SetLogger(NewRestyLogger(logger)).
		SetTimeout(opts.Timeout).
		SetHeader("Accept-Charset", "utf-8").
		SetHeader("User-Agent", userAgent)

	if opts.RateLimitBackoff > 0 {
		backoff := opts.RateLimitBackoff
		client.SetRetryCount(1).
			SetRetryWaitTime(backoff).
			SetRetryMaxWaitTime(backoff).
			SetRetryAfter(func(_ *resty.Client, _ *resty.Response) (time.Duration, error) {
				return backoff, nil
			}).
			AddRetryCondition(func(r *resty.Response, _ error) bool {
				return r != nil && r.StatusCode() == http.StatusTooManyRequests
			}).
			AddRetryHook(func(r *resty.Response, _ error) {
				if r == nil {
					return
				}
				logger.Warn("rate limited, retrying once",
					zap.String("url", r.Request.URL),
					zap.Duration("backoff", backoff))
			})
	}

	return &RestyClient{Client: client}
}
