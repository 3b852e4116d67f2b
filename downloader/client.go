package downloader

import (
	"fanfic-downloader/config"
	"fanfic-downloader/utils"

	"go.uber.org/zap"
)

// newClient builds the HTTP client of a run. Only chapter requests retry
// after a rate limit response.
func newClient(cfg *config.Config, logger *zap.Logger, retryRateLimited bool) *utils.RestyClient {
	opts := utils.ClientOptions{
		Timeout:   cfg.HTTPTimeout,
		UserAgent: cfg.UserAgent,
		Logger:    logger.Named("http"),
	}
	if retryRateLimited {
		opts.RateLimitBackoff = cfg.RateLimitBackoff
	}
	return utils.NewRestyClient(opts)
}
