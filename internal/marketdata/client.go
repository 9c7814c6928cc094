package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/fincrate/fincrate-backend/internal/apperrors"
	"github.com/fincrate/fincrate-backend/internal/config"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// client is the rate limited HTTP transport shared by the upstream sources.
// Every source owns its own client so one throttled API does not slow down the others.
type client struct {
	name    string
	http    *resty.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

func newClient(name, baseURL string, cfg config.MarketConfig, logger *zap.Logger) *client {
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RateLimitBurst
	if burst < 1 {
		burst = 1
	}

	return &client{
		name:    name,
		http:    resty.New().SetBaseURL(strings.TrimRight(baseURL, "/")).SetTimeout(cfg.RequestTimeout),
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.With(zap.String("source", name)),
	}
}

// get executes a GET request and decodes the JSON body into result.
//
// HTTP 429 is reported as ErrRateLimited, any other transport failure or
// non-2xx status as ErrUpstream.
func (c *client) get(ctx context.Context, req *resty.Request, path string, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limiter wait failed: %w", c.name, err)
	}

	c.logger.Debug("Executing request", zap.String("path", path))
	resp, err := req.SetContext(ctx).Get(path)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", c.name, apperrors.ErrUpstream, err)
	}

	if resp.StatusCode() == http.StatusTooManyRequests {
		return fmt.Errorf("%s: %w", c.name, apperrors.ErrRateLimited)
	}
	if resp.IsError() {
		return fmt.Errorf("%s: %w: HTTP %d", c.name, apperrors.ErrUpstream, resp.StatusCode())
	}

	if err := json.Unmarshal(resp.Body(), result); err != nil {
		return fmt.Errorf("%s: %w: invalid response body: %v", c.name, apperrors.ErrUpstream, err)
	}
	return nil
}

// isRateLimitMessage reports whether an upstream error text describes a usage quota.
func isRateLimitMessage(msg string) bool {
	msg = strings.ToLower(msg)
	for _, marker := range []string{"rate limit", "requests per day", "25 requests", "api call frequency", "api limit"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
