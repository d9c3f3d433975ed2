// Package mailer wraps the external email delivery provider. The
// provider is optional: a nil Deliverer disables delivery without
// disabling the distribution workflow.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/resend/resend-go/v3"

	"github.com/starford/ansuz/internal/apperr"
)

// Deliverer sends one newsletter envelope to a single recipient
// address. One envelope per recipient keeps addresses isolated from
// each other.
type Deliverer interface {
	Deliver(ctx context.Context, to, subject, html string) error
}

// Config wires the Resend-backed deliverer.
type Config struct {
	APIKey     string
	From       string
	SenderName string
	Timeout    time.Duration
}

// Resend implements Deliverer using the Resend API.
type Resend struct {
	client  *resend.Client
	from    string
	timeout time.Duration
}

var _ Deliverer = (*Resend)(nil)

// NewResend validates the configuration eagerly; a missing key or
// sender address surfaces at process start.
func NewResend(cfg Config) (*Resend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("mailer: %w: api key missing", apperr.ErrNotConfigured)
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("mailer: %w: from address missing", apperr.ErrNotConfigured)
	}
	from := cfg.From
	if cfg.SenderName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.SenderName, cfg.From)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Resend{
		client:  resend.NewClient(cfg.APIKey),
		from:    from,
		timeout: timeout,
	}, nil
}

// Deliver sends a single HTML email under the configured deadline.
func (r *Resend) Deliver(ctx context.Context, to, subject, html string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req := &resend.SendEmailRequest{
		From:    r.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}
	if _, err := r.client.Emails.SendWithContext(ctx, req); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("mailer: %w", apperr.ErrDeliveryTimeout)
		}
		return fmt.Errorf("mailer: %w: %v", apperr.ErrDelivery, err)
	}
	return nil
}
