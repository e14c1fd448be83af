package shotpdf

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/k1LoW/errors"
	"github.com/lestrrat-go/backoff/v2"
)

const (
	viewportWidth  = 375
	viewportHeight = 812
	viewportScale  = 2.0

	defaultCaptureTimeout = 30 * time.Second
	captureMaxRetries     = 2
)

var capturePolicy = backoff.Exponential(
	backoff.WithMinInterval(time.Second),
	backoff.WithMaxInterval(10*time.Second),
	backoff.WithJitterFactor(0.05),
	backoff.WithMaxRetries(captureMaxRetries),
)

// Capture takes a screenshot of the viewport of url with headless Chrome and writes it to <dir>/<name>.png.
func (s *Screenshots) Capture(ctx context.Context, url, name string) (_ string, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	if name == "" {
		return "", fmt.Errorf("output name is required")
	}
	opts := chromedp.DefaultExecAllocatorOptions[:]
	if s.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(s.userAgent))
	}
	aCtx, aCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer aCancel()
	bCtx, bCancel := chromedp.NewContext(aCtx)
	defer bCancel()
	// start the browser without a deadline; canceling the first Run context closes it
	if err := chromedp.Run(bCtx); err != nil {
		return "", fmt.Errorf("failed to start browser: %w", err)
	}

	var buf []byte
	b := capturePolicy.Start(ctx)
	for backoff.Continue(b) {
		buf, err = s.screenshot(bCtx, url)
		if err == nil {
			break
		}
		s.logger.Info("retrying capture", slog.String("url", url), slog.String("error", err.Error()))
	}
	if err != nil {
		return "", fmt.Errorf("failed to capture %s: %w", url, err)
	}
	if buf == nil {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("failed to capture %s: no screenshot taken", url)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", s.dir, err)
	}
	p := s.Path(name)
	if err := os.WriteFile(p, buf, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", p, err)
	}
	s.logger.Info("saved screenshot", slog.String("path", p), slog.String("url", url))
	return p, nil
}

// screenshot captures url in a new tab of the browser of bCtx.
func (s *Screenshots) screenshot(bCtx context.Context, url string) ([]byte, error) {
	tCtx, tCancel := chromedp.NewContext(bCtx)
	defer tCancel()
	ctx, cancel := context.WithTimeout(tCtx, s.timeout)
	defer cancel()
	var buf []byte
	if err := chromedp.Run(ctx,
		chromedp.EmulateViewport(viewportWidth, viewportHeight, chromedp.EmulateScale(viewportScale)),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.CaptureScreenshot(&buf),
	); err != nil {
		return nil, err
	}
	return buf, nil
}
