// Package render converts validated markup into a fixed-page PDF
// artifact through a headless Chrome instance.
package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"golang.org/x/sync/semaphore"

	"github.com/starford/ansuz/internal/apperr"
)

// Renderer produces a binary artifact from an HTML document.
type Renderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// A4 portrait, in inches, as PrintToPDF expects.
const (
	paperWidthIn  = 8.27
	paperHeightIn = 11.69
)

// Config controls the Chrome-backed renderer.
type Config struct {
	// Timeout bounds a single render, browser startup included.
	Timeout time.Duration
	// SettleDelay is the wait after document load for late-loading
	// resources (images referenced by URL) before printing.
	SettleDelay time.Duration
	// MaxConcurrent caps simultaneous browser contexts.
	MaxConcurrent int64
}

// Chrome implements Renderer with one isolated browser context per
// call, guarded by a bounded slot semaphore. The context is released on
// every exit path; no resource outlives the call.
type Chrome struct {
	timeout time.Duration
	settle  time.Duration
	slots   *semaphore.Weighted
}

var _ Renderer = (*Chrome)(nil)

// NewChrome builds a renderer from configuration, applying defaults for
// unset fields.
func NewChrome(cfg Config) *Chrome {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = 500 * time.Millisecond
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 2
	}
	return &Chrome{
		timeout: cfg.Timeout,
		settle:  cfg.SettleDelay,
		slots:   semaphore.NewWeighted(cfg.MaxConcurrent),
	}
}

// RenderPDF loads the markup into a fresh browser context, waits for the
// document to settle, and exports an A4 PDF with background graphics.
func (r *Chrome) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	if err := r.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("render: acquire slot: %w", apperr.ErrRender)
	}
	defer r.slots.Release(1)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	var pdf []byte
	err := chromedp.Run(taskCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(r.settle),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(paperWidthIn).
				WithPaperHeight(paperHeightIn).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("render: %w", apperr.ErrRenderTimeout)
		}
		return nil, fmt.Errorf("render: %w: %v", apperr.ErrRender, err)
	}
	if len(pdf) == 0 {
		return nil, fmt.Errorf("render: %w: empty artifact", apperr.ErrRender)
	}
	return pdf, nil
}
