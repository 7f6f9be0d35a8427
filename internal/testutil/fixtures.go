package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/nativeways/pathways/pkg/models"
)

// NewListing returns a grant Listing with sensible defaults, suitable for
// test fixtures. Override individual fields via options or after creation.
func NewListing(opts ...func(*models.Listing)) models.Listing {
	l := models.Listing{
		ID:           uuid.New().String(),
		Kind:         models.KindGrant,
		Title:        "Test Grant",
		Description:  "A grant for testing.",
		Organization: "Test Foundation",
		URL:          "https://example.org/grant",
		Category:     models.CategoryEducation,
		Tags:         []string{"education"},
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&l)
	}
	return l
}

// WithKind sets the listing kind.
func WithKind(k models.Kind) func(*models.Listing) {
	return func(l *models.Listing) { l.Kind = k }
}

// WithTitle sets the listing title.
func WithTitle(title string) func(*models.Listing) {
	return func(l *models.Listing) { l.Title = title }
}

// WithDescription sets the listing description.
func WithDescription(desc string) func(*models.Listing) {
	return func(l *models.Listing) { l.Description = desc }
}

// WithCategory sets the listing category.
func WithCategory(cat string) func(*models.Listing) {
	return func(l *models.Listing) { l.Category = cat }
}

// WithTags sets the listing's tag set.
func WithTags(tags ...string) func(*models.Listing) {
	return func(l *models.Listing) { l.Tags = tags }
}

// WithDeadline sets a concrete deadline.
func WithDeadline(t time.Time) func(*models.Listing) {
	return func(l *models.Listing) { l.Deadline = &t }
}

// WithRolling clears the deadline, marking the listing as rolling.
func WithRolling() func(*models.Listing) {
	return func(l *models.Listing) { l.Deadline = nil }
}

// WithAmountRange sets the structured amount range and a display string.
func WithAmountRange(min, max float64) func(*models.Listing) {
	return func(l *models.Listing) {
		l.AmountMin = &min
		l.AmountMax = &max
		l.Amount = "varies"
	}
}

// WithCreatedAt sets the creation timestamp.
func WithCreatedAt(t time.Time) func(*models.Listing) {
	return func(l *models.Listing) { l.CreatedAt = t }
}
