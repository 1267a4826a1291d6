// Package capture renders the board page to PNG with headless Chromium.
package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	appLog "kplanning/internal/log"
)

// Default capture parameters, sized for a full day column at 32px/h.
const (
	DefaultWidth   = 1200
	DefaultHeight  = 1600
	DefaultTimeout = 30 * time.Second

	readySelector = `[data-ready="true"]`
)

// Options defines one board capture.
type Options struct {
	// URL of the board page, e.g. "http://127.0.0.1:8080/board?view=week".
	URL string

	// OutputPath is where the PNG is written.
	OutputPath string

	// Viewport in pixels; zero means DefaultWidth / DefaultHeight.
	Width  int
	Height int

	// Timeout bounds the whole capture; zero means DefaultTimeout.
	Timeout time.Duration

	// Username/Password are sent as HTTP basic auth when set.
	Username string
	Password string
}

func (o *Options) normalize() error {
	if o.URL == "" {
		return fmt.Errorf("capture: URL is required")
	}
	if o.OutputPath == "" {
		return fmt.Errorf("capture: OutputPath is required")
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return nil
}

// CaptureBoardPNG navigates to opts.URL, waits until the page marks
// itself ready with data-ready="true" and writes a full-page screenshot.
func CaptureBoardPNG(parentCtx context.Context, opts Options) error {
	if err := opts.normalize(); err != nil {
		return err
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
	}
	if opts.Username != "" {
		tasks = append(tasks, setBasicAuth(opts.Username, opts.Password))
	}
	tasks = append(tasks,
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(readySelector, chromedp.ByQuery),
		chromedp.Sleep(300*time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	)

	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(opts.OutputPath), 0o755); err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	if err := os.WriteFile(opts.OutputPath, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}

	appLog.Info("board captured", "url", opts.URL, "out", opts.OutputPath, "bytes", len(png))
	return nil
}
