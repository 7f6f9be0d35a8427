package listing

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nativeways/pathways/internal/services"
	"github.com/nativeways/pathways/pkg/models"
)

// searchLimit caps results per kind on both search paths.
const searchLimit = 20

// SearchStore is the subset of repository behavior the resolver consumes.
type SearchStore interface {
	RankedSearch(ctx context.Context, kind models.Kind, query string, limit int) ([]string, error)
	SearchSubstring(ctx context.Context, kind models.Kind, field services.SearchField, query string, limit int) ([]models.Listing, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Listing, error)
}

// Resolver answers free-text directory searches. It prefers the store's
// ranked full-text search and degrades to substring matching when that fails
// (FTS query syntax errors on user input are routine, not exceptional). Both
// paths return the same shape, so callers never know which one ran.
type Resolver struct {
	store  SearchStore
	logger *zap.Logger
}

// NewResolver creates a search resolver backed by the given store.
func NewResolver(store SearchStore, logger *zap.Logger) *Resolver {
	return &Resolver{store: store, logger: logger}
}

// Search returns up to searchLimit listings of one kind matching the query.
// Failure of the substring fallback itself is surfaced; there is no third
// degradation level.
func (r *Resolver) Search(ctx context.Context, kind models.Kind, query string) ([]models.Listing, error) {
	ids, err := r.store.RankedSearch(ctx, kind, query, searchLimit)
	if err == nil {
		items, ferr := r.store.FindByIDs(ctx, ids)
		if ferr != nil {
			return nil, &QueryError{Op: "resolve search ids", Err: ferr}
		}
		return items, nil
	}

	r.logger.Warn("ranked search unavailable, using substring fallback",
		zap.String("kind", string(kind)),
		zap.Error(err),
	)
	return r.substringSearch(ctx, kind, query)
}

// SearchAll searches every listing kind concurrently and returns results
// keyed by kind.
func (r *Resolver) SearchAll(ctx context.Context, query string) (map[models.Kind][]models.Listing, error) {
	kinds := []models.Kind{models.KindGrant, models.KindScholarship, models.KindResource}
	results := make([]([]models.Listing), len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			items, err := r.Search(gctx, kind, query)
			if err != nil {
				return err
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[models.Kind][]models.Listing, len(kinds))
	for i, kind := range kinds {
		out[kind] = results[i]
	}
	return out, nil
}

// substringSearch runs the three independent case-insensitive field queries
// concurrently, OR-combines them, and returns the newest matches unranked.
func (r *Resolver) substringSearch(ctx context.Context, kind models.Kind, query string) ([]models.Listing, error) {
	fields := []services.SearchField{
		services.SearchTitle,
		services.SearchDescription,
		services.SearchTags,
	}
	matches := make([]([]models.Listing), len(fields))

	g, gctx := errgroup.WithContext(ctx)
	for i, field := range fields {
		g.Go(func() error {
			items, err := r.store.SearchSubstring(gctx, kind, field, query, searchLimit)
			if err != nil {
				return &QueryError{Op: "substring search " + string(field), Err: err}
			}
			matches[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var merged []models.Listing
	for _, items := range matches {
		for _, item := range items {
			if !seen[item.ID] {
				seen[item.ID] = true
				merged = append(merged, item)
			}
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		if !merged[i].CreatedAt.Equal(merged[j].CreatedAt) {
			return merged[i].CreatedAt.After(merged[j].CreatedAt)
		}
		return merged[i].ID < merged[j].ID
	})

	if len(merged) > searchLimit {
		merged = merged[:searchLimit]
	}
	if merged == nil {
		merged = []models.Listing{}
	}
	return merged, nil
}
