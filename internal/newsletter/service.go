// Package newsletter implements the generation pipeline and the
// distribution workflow over the newsletter store.
package newsletter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/compose"
	"github.com/starford/ansuz/internal/events"
	"github.com/starford/ansuz/internal/generate"
	"github.com/starford/ansuz/internal/mailer"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/render"
	"github.com/starford/ansuz/internal/store"
)

// notifyConcurrency bounds the notification fan-out batch.
const notifyConcurrency = 4

// FlyerResolver maps a category name to a flyer image URL.
type FlyerResolver interface {
	URL(category string) (string, bool)
}

// Deps wires all collaborators into the service. Generator, Renderer
// and Store are required; the rest are optional.
type Deps struct {
	Store     store.Store
	Generator generate.Client
	Renderer  render.Renderer
	Deliverer mailer.Deliverer // nil disables delivery, workflow still proceeds
	Flyers    FlyerResolver    // nil falls back to the stored category record
	Broker    *events.Broker   // nil disables lifecycle events
	Logger    *slog.Logger

	// StrictTransitions makes Send refuse terminal states instead of
	// overriding them. Off by default: the unconditional override is
	// the historical behavior.
	StrictTransitions bool
}

// Service coordinates generation and distribution.
type Service struct {
	store     store.Store
	generator generate.Client
	renderer  render.Renderer
	deliverer mailer.Deliverer
	flyers    FlyerResolver
	broker    *events.Broker
	logger    *slog.Logger
	strict    bool
}

// NewService constructs the service from its dependencies.
func NewService(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     deps.Store,
		generator: deps.Generator,
		renderer:  deps.Renderer,
		deliverer: deps.Deliverer,
		flyers:    deps.Flyers,
		broker:    deps.Broker,
		logger:    logger,
		strict:    deps.StrictTransitions,
	}
}

// Generate runs the full pipeline: compose → generation service →
// content validation → render → persist. Any failure aborts the rest of
// the chain; nothing is persisted unless every step succeeded.
func (s *Service) Generate(ctx context.Context, title, category string, articles []models.Article) (*models.Newsletter, error) {
	if title == "" || category == "" || len(articles) == 0 {
		return nil, fmt.Errorf("%w: title, category and articles are required", apperr.ErrValidation)
	}

	prompt, err := compose.Compose(title, articles, s.resolveFlyer(ctx, category))
	if err != nil {
		return nil, err
	}

	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate newsletter: %w", err)
	}

	html, err := generate.ValidateHTML(raw)
	if err != nil {
		return nil, err
	}

	pdf, err := s.renderer.RenderPDF(ctx, html)
	if err != nil {
		return nil, err
	}

	n, err := s.store.CreateGenerated(ctx, title, category, articles, html, pdf)
	if err != nil {
		return nil, err
	}

	s.publish(events.Event{Type: events.TypeGenerated, Data: events.NewsletterEvent{
		ID:     n.ID.String(),
		Title:  n.Title,
		Status: string(n.Status),
	}})
	return n, nil
}

// Get loads a full newsletter record.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Newsletter, error) {
	return s.store.GetNewsletter(ctx, id)
}

// Download returns the stored artifact; a record without an artifact is
// reported as not found.
func (s *Service) Download(ctx context.Context, id uuid.UUID) (*models.Newsletter, error) {
	n, err := s.store.GetNewsletter(ctx, id)
	if err != nil {
		return nil, err
	}
	if !n.HasArtifact() {
		return nil, fmt.Errorf("newsletter %s: %w: no artifact", id, apperr.ErrNotFound)
	}
	return n, nil
}

// ListForUser returns summaries of newsletters in the caller's managed
// categories.
func (s *Service) ListForUser(ctx context.Context, callerID uuid.UUID) ([]models.Newsletter, error) {
	user, err := s.store.GetUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	return s.store.ListByCategories(ctx, user.Categories)
}

// SetStatus applies the target status unconditionally. The target must
// be a member of the enumerated status set.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, raw string) (*models.Newsletter, error) {
	status, err := models.ParseStatus(raw)
	if err != nil {
		return nil, err
	}
	n, err := s.store.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.publish(events.Event{Type: events.TypeStatusChanged, Data: events.NewsletterEvent{
		ID:     n.ID.String(),
		Title:  n.Title,
		Status: string(n.Status),
	}})
	return n, nil
}

// Delete removes a newsletter record permanently.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteNewsletter(ctx, id); err != nil {
		return err
	}
	s.publish(events.Event{Type: events.TypeDeleted, Data: events.NewsletterEvent{ID: id.String()}})
	return nil
}

// Send distributes a newsletter to the given recipients: resolve
// addresses, deliver one envelope per recipient, then mark the record
// sent and merge the recipient set. Delivery failure aborts before any
// state change. Notification fan-out runs after the state change and
// never fails the operation.
func (s *Service) Send(ctx context.Context, id uuid.UUID, recipientIDs []uuid.UUID) (*models.Newsletter, error) {
	if len(recipientIDs) == 0 {
		return nil, fmt.Errorf("%w: recipient list is empty", apperr.ErrValidation)
	}

	n, err := s.store.GetNewsletter(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.strict && n.Status.Terminal() {
		return nil, fmt.Errorf("send from %s: %w", n.Status, apperr.ErrIllegalTransition)
	}

	users, err := s.store.GetUsers(ctx, recipientIDs)
	if err != nil {
		return nil, err
	}

	if s.deliverer == nil {
		s.logger.Info("no delivery provider configured, skipping delivery",
			slog.String("newsletter_id", id.String()))
	} else {
		for _, u := range users {
			if u.Email == "" {
				continue
			}
			if err := s.deliverer.Deliver(ctx, u.Email, n.Title, n.HTML); err != nil {
				return nil, fmt.Errorf("deliver to %s: %w", u.ID, err)
			}
		}
	}

	updated, err := s.store.UpdateSent(ctx, id, recipientIDs)
	if err != nil {
		return nil, err
	}

	s.notifyRecipients(ctx, updated, recipientIDs)

	s.publish(events.Event{Type: events.TypeSent, Data: events.NewsletterEvent{
		ID:         updated.ID.String(),
		Title:      updated.Title,
		Status:     string(updated.Status),
		Recipients: len(updated.Recipients),
	}})
	return updated, nil
}

// notifyRecipients writes one notification per recipient as an
// unordered batch. Individual failures are logged and swallowed: the
// send itself is already final.
func (s *Service) notifyRecipients(ctx context.Context, n *models.Newsletter, recipientIDs []uuid.UUID) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(notifyConcurrency)

	for _, userID := range recipientIDs {
		g.Go(func() error {
			err := s.store.InsertNotification(ctx, models.Notification{
				UserID:       userID,
				NewsletterID: n.ID,
				Message:      fmt.Sprintf("Newsletter %q was sent to you.", n.Title),
				ActionURL:    fmt.Sprintf("/api/newsletters/%s/download", n.ID),
			})
			if err != nil {
				s.logger.Warn("notification write failed",
					slog.String("newsletter_id", n.ID.String()),
					slog.String("user_id", userID.String()),
					slog.String("error", err.Error()))
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Service) resolveFlyer(ctx context.Context, category string) string {
	if s.flyers != nil {
		if url, ok := s.flyers.URL(category); ok {
			return url
		}
	}
	cat, err := s.store.GetCategory(ctx, category)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			s.logger.Warn("flyer lookup failed",
				slog.String("category", category),
				slog.String("error", err.Error()))
		}
		return ""
	}
	return cat.FlyerPath
}

func (s *Service) publish(event events.Event) {
	if s.broker != nil {
		s.broker.Publish(event)
	}
}
