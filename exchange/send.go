package exchange

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func SendRequest(ctx context.Context, r *http.Request, options *Options, logger *zap.Logger) (*http.Response, error) {
	client, err := BuildHTTPClient(options)
	if err != nil {
		return nil, err
	}

	logger.Debug("sending request",
		zap.String("method", r.Method),
		zap.Stringer("url", r.URL),
		zap.Int64("contentLength", r.ContentLength),
	)
	start := time.Now()
	resp, err := client.Do(r.WithContext(ctx))
	if err != nil {
		return nil, errors.Wrap(err, "sending HTTP request")
	}
	logger.Debug("received response",
		zap.String("status", resp.Status),
		zap.Duration("elapsed", time.Since(start)),
	)

	return resp, nil
}
