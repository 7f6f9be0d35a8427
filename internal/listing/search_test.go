package listing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nativeways/pathways/internal/listing"
	"github.com/nativeways/pathways/internal/services"
	"github.com/nativeways/pathways/internal/testutil"
	"github.com/nativeways/pathways/pkg/models"
)

// fakeSearchStore scripts the three store calls the resolver makes.
type fakeSearchStore struct {
	rankedIDs []string
	rankedErr error

	byID map[string]models.Listing

	substring    map[services.SearchField][]models.Listing
	substringErr error

	rankedCalls    int
	substringCalls int
}

func (f *fakeSearchStore) RankedSearch(_ context.Context, _ models.Kind, _ string, _ int) ([]string, error) {
	f.rankedCalls++
	if f.rankedErr != nil {
		return nil, f.rankedErr
	}
	return f.rankedIDs, nil
}

func (f *fakeSearchStore) SearchSubstring(_ context.Context, _ models.Kind, field services.SearchField, _ string, _ int) ([]models.Listing, error) {
	f.substringCalls++
	if f.substringErr != nil {
		return nil, f.substringErr
	}
	return f.substring[field], nil
}

func (f *fakeSearchStore) FindByIDs(_ context.Context, ids []string) ([]models.Listing, error) {
	out := make([]models.Listing, 0, len(ids))
	for _, id := range ids {
		if l, ok := f.byID[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func mkListing(id string, createdAt time.Time) models.Listing {
	return models.Listing{ID: id, Kind: models.KindGrant, Title: "Listing " + id, CreatedAt: createdAt}
}

func TestSearchPreservesRankOrder(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeSearchStore{
		// Rank order deliberately disagrees with both ID and recency order.
		rankedIDs: []string{"c", "a", "b"},
		byID: map[string]models.Listing{
			"a": mkListing("a", base.Add(3*time.Hour)),
			"b": mkListing("b", base.Add(2*time.Hour)),
			"c": mkListing("c", base.Add(1*time.Hour)),
		},
	}
	r := listing.NewResolver(store, zap.NewNop())

	items, err := r.Search(context.Background(), models.KindGrant, "education")
	require.NoError(t, err)

	ids := make([]string, len(items))
	for i, l := range items {
		ids[i] = l.ID
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
	assert.Zero(t, store.substringCalls, "substring fallback should not run when ranked search succeeds")
}

func TestSearchFallsBackOnRankedFailure(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	older := mkListing("older", base)
	newer := mkListing("newer", base.Add(time.Hour))
	store := &fakeSearchStore{
		rankedErr: errors.New(`fts5: syntax error near "("`),
		substring: map[services.SearchField][]models.Listing{
			services.SearchTitle:       {older, newer},
			services.SearchDescription: {newer}, // duplicate, must be deduped
			services.SearchTags:        {},
		},
	}
	r := listing.NewResolver(store, zap.NewNop())

	items, err := r.Search(context.Background(), models.KindGrant, "math (stem)")
	require.NoError(t, err, "a ranked-search failure degrades, it does not surface")
	require.Len(t, items, 2)

	// Fallback results are newest-first with duplicates collapsed.
	assert.Equal(t, "newer", items[0].ID)
	assert.Equal(t, "older", items[1].ID)
	assert.Equal(t, 3, store.substringCalls, "fallback queries all three fields")
}

func TestSearchFallbackFailureSurfaces(t *testing.T) {
	store := &fakeSearchStore{
		rankedErr:    errors.New("fts unavailable"),
		substringErr: errors.New("store down"),
	}
	r := listing.NewResolver(store, zap.NewNop())

	_, err := r.Search(context.Background(), models.KindGrant, "anything")
	require.Error(t, err)

	var qe *listing.QueryError
	assert.True(t, errors.As(err, &qe))
}

func TestSearchEmptyResult(t *testing.T) {
	store := &fakeSearchStore{rankedIDs: nil, byID: nil}
	r := listing.NewResolver(store, zap.NewNop())

	items, err := r.Search(context.Background(), models.KindScholarship, "nomatch")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestSearchAllCoversEveryKind(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeSearchStore{
		rankedIDs: []string{"a"},
		byID:      map[string]models.Listing{"a": mkListing("a", base)},
	}
	r := listing.NewResolver(store, zap.NewNop())

	results, err := r.SearchAll(context.Background(), "education")
	require.NoError(t, err)

	require.Len(t, results, 3)
	for _, kind := range []models.Kind{models.KindGrant, models.KindScholarship, models.KindResource} {
		assert.Contains(t, results, kind)
	}
	assert.Equal(t, 3, store.rankedCalls)
}

// TestSearchAgainstStore exercises both search paths end to end on SQLite:
// a clean query through FTS, and a query with MATCH syntax characters through
// the substring fallback.
func TestSearchAgainstStore(t *testing.T) {
	db := testutil.NewStore(t)
	repo := services.NewSQLiteListingRepository(db.DB())
	r := listing.NewResolver(repo, zap.NewNop())
	ctx := context.Background()

	seeds := []models.Listing{
		testutil.NewListing(
			testutil.WithTitle("STEM Scholars Grant"),
			testutil.WithDescription("Supports undergraduate STEM students."),
		),
		testutil.NewListing(
			testutil.WithTitle("Language Revitalization Fund"),
			testutil.WithDescription("Community language (immersion) programs."),
		),
	}
	for i := range seeds {
		require.NoError(t, repo.Create(ctx, &seeds[i]))
	}

	items, err := r.Search(ctx, models.KindGrant, "STEM")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "STEM Scholars Grant", items[0].Title)

	// An unbalanced paren is an FTS5 syntax error; this query only works via
	// the substring fallback.
	items, err = r.Search(ctx, models.KindGrant, "immersion)")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Language Revitalization Fund", items[0].Title)
}
