// Package validity classifies a subject's session as valid, inactive or
// past its absolute lifetime. It only reads; callers act on the result.
package validity

import (
	"context"
	"errors"
	"time"

	"portalgate/internal/session/models"
	id "portalgate/pkg/domain"
	dErrors "portalgate/pkg/domain-errors"
	"portalgate/pkg/platform/sentinel"
	"portalgate/pkg/requestcontext"
)

const (
	DefaultInactivityTimeout = 30 * time.Minute
	DefaultAbsoluteTimeout   = 24 * time.Hour
)

// MetadataReader loads the liveness record for a subject.
type MetadataReader interface {
	Find(ctx context.Context, subjectID id.SubjectID) (*models.Metadata, error)
}

type Checker struct {
	metadata   MetadataReader
	inactivity time.Duration
	absolute   time.Duration
}

type Option func(*Checker)

func WithInactivityTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.inactivity = d
		}
	}
}

func WithAbsoluteTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.absolute = d
		}
	}
}

func New(metadata MetadataReader, opts ...Option) (*Checker, error) {
	if metadata == nil {
		return nil, errors.New("metadata reader is required")
	}
	c := &Checker{
		metadata:   metadata,
		inactivity: DefaultInactivityTimeout,
		absolute:   DefaultAbsoluteTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CheckValidity loads the subject's metadata and classifies it at the
// request-scoped time. A missing record is absolute_expired. Storage failures
// are returned as errors so the caller can degrade instead of logging out.
func (c *Checker) CheckValidity(ctx context.Context, subjectID id.SubjectID) (models.Validity, error) {
	meta, err := c.metadata.Find(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.InvalidSession(models.ReasonAbsoluteExpired), nil
		}
		return models.Validity{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load session metadata")
	}
	return c.Evaluate(meta, requestcontext.Now(ctx)), nil
}

// Evaluate applies the thresholds to a loaded record. Inactivity is checked
// before absolute lifetime; both comparisons are strict.
func (c *Checker) Evaluate(meta *models.Metadata, now time.Time) models.Validity {
	if meta == nil {
		return models.InvalidSession(models.ReasonAbsoluteExpired)
	}
	if now.Sub(meta.LastActivityAt) > c.inactivity {
		return models.InvalidSession(models.ReasonInactive)
	}
	if now.Sub(meta.SessionCreatedAt) > c.absolute {
		return models.InvalidSession(models.ReasonAbsoluteExpired)
	}
	return models.ValidSession()
}

func (c *Checker) InactivityTimeout() time.Duration { return c.inactivity }
func (c *Checker) AbsoluteTimeout() time.Duration   { return c.absolute }
