// Package capture screenshots the rendered /calendar page with headless
// Chromium.
package capture

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/spf13/afero"

	"cyclecal/internal/config"
	"cyclecal/internal/form"
	appLog "cyclecal/internal/log"
)

// readySelector is the root element the calendar page marks once all
// grids are in the DOM.
const readySelector = `[data-ready="true"]`

// Options defines parameters for a Chromium-based screenshot capture.
type Options struct {
	// URL to capture, e.g. "http://127.0.0.1:8080/calendar?name=...".
	URL string

	// Width and Height are the viewport dimensions in pixels.
	Width  int
	Height int

	// Timeout bounds the entire capture operation.
	Timeout time.Duration
}

// OptionsFromConfig fills viewport and timeout from the capture section.
func OptionsFromConfig(c config.CaptureConfig, pageURL string) Options {
	return Options{
		URL:     pageURL,
		Width:   c.Width,
		Height:  c.Height,
		Timeout: time.Duration(c.TimeoutSec) * time.Second,
	}
}

// CalendarURL builds the /calendar URL for req on a server reachable at
// base (e.g. "http://127.0.0.1:8080").
func CalendarURL(base string, req form.Request) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/") + "/calendar")
	if err != nil {
		return "", fmt.Errorf("capture: bad base URL %q: %w", base, err)
	}
	q := url.Values{}
	q.Set("name", req.Name)
	q.Set("cycle_length", strconv.Itoa(req.CycleLength))
	q.Set("start_date", req.Start.String())
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// CalendarPNG navigates to opts.URL, waits until the page root reports
// data-ready="true", and returns a full-page PNG screenshot.
func CalendarPNG(parentCtx context.Context, opts Options) ([]byte, error) {
	if opts.URL == "" {
		return nil, errors.New("capture: URL is required")
	}
	def := config.DefaultConfig().Capture
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Duration(def.TimeoutSec) * time.Second
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(readySelector, chromedp.ByQuery),
		// Small extra delay to allow final paints.
		chromedp.Sleep(300 * time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	}

	start := time.Now()
	if err := chromedp.Run(ctx, tasks); err != nil {
		return nil, fmt.Errorf("capture: chromedp run failed: %w", err)
	}
	appLog.Info("calendar captured", "url", opts.URL, "bytes", len(png), "elapsed", time.Since(start))
	return png, nil
}

// CalendarToFile captures the page and writes the PNG to path on fsys.
func CalendarToFile(ctx context.Context, fsys afero.Fs, opts Options, path string) error {
	if path == "" {
		return errors.New("capture: output path is required")
	}
	png, err := CalendarPNG(ctx, opts)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(fsys, path, png, 0o644); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}
	return nil
}
