package listing

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nativeways/pathways/internal/services"
	"github.com/nativeways/pathways/pkg/models"
)

// Store is the subset of repository behavior the engine consumes.
type Store interface {
	CountListings(ctx context.Context, pred services.Predicate) (int, error)
	FindListings(ctx context.Context, pred services.Predicate, order services.Order, skip, take int) ([]models.Listing, error)
}

// PageResult is one rendered page of the logical concatenated list.
type PageResult struct {
	Items      []models.Listing `json:"items"`
	TotalCount int              `json:"totalCount"`
	TotalPages int              `json:"totalPages"`
}

// QueryError wraps a store failure during counting or fetching. It is
// surfaced to the caller (rendered as a retryable error state), never
// silently zeroed: a fabricated count would corrupt every later page.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string { return "listing query " + e.Op + ": " + e.Err.Error() }
func (e *QueryError) Unwrap() error { return e.Err }

// Engine paginates directory listings across the deadline/rolling partition
// split.
type Engine struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithNow overrides the engine's time source. Used by tests.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a listing engine backed by the given store.
func NewEngine(store Store, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{store: store, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Page returns the requested page of the logical sequence
// upcomingSorted ++ rollingSorted under the given criteria.
//
// TotalCount and TotalPages reflect store-level filters only: an active
// amount filter is applied after the fetch and may leave a page with fewer
// than PageSize items without changing the page count.
func (e *Engine) Page(ctx context.Context, c Criteria) (*PageResult, error) {
	today := startOfDay(e.now().UTC())

	base := services.Predicate{
		Kind:     c.Kind,
		Category: c.Category,
		Tags:     c.Tags,
	}

	upcoming := base
	upcoming.Partition = services.DeadlineUpcoming
	upcoming.From = today
	upcoming.Until = c.Window.windowEnd(today)

	rolling := base
	rolling.Partition = services.DeadlineNone

	countA, countB, err := e.countPartitions(ctx, c, upcoming, rolling)
	if err != nil {
		return nil, err
	}

	orderA, orderB := partitionOrders(c.Sort)
	sliceA, sliceB := splitPage(countA, countB, c.Page, c.PageSize)

	var itemsA, itemsB []models.Listing
	g, gctx := errgroup.WithContext(ctx)
	if sliceA.Take > 0 {
		g.Go(func() error {
			var ferr error
			itemsA, ferr = e.store.FindListings(gctx, upcoming, orderA, sliceA.Skip, sliceA.Take)
			if ferr != nil {
				return &QueryError{Op: "fetch upcoming", Err: ferr}
			}
			return nil
		})
	}
	if sliceB.Take > 0 {
		g.Go(func() error {
			var ferr error
			itemsB, ferr = e.store.FindListings(gctx, rolling, orderB, sliceB.Skip, sliceB.Take)
			if ferr != nil {
				return &QueryError{Op: "fetch rolling", Err: ferr}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]models.Listing, 0, len(itemsA)+len(itemsB))
	items = append(items, itemsA...)
	items = append(items, itemsB...)

	if c.Amount != nil {
		items = filterByAmount(items, *c.Amount)
	}

	total := countA + countB
	return &PageResult{
		Items:      items,
		TotalCount: total,
		TotalPages: totalPages(total, c.PageSize),
	}, nil
}

// countPartitions obtains both partition counts. The two count queries are
// independent and run concurrently; a rolling-only window defines the
// upcoming partition as empty without issuing its query.
func (e *Engine) countPartitions(ctx context.Context, c Criteria, upcoming, rolling services.Predicate) (countA, countB int, err error) {
	g, gctx := errgroup.WithContext(ctx)

	if c.Window.Mode != WindowRolling {
		g.Go(func() error {
			var cerr error
			countA, cerr = e.store.CountListings(gctx, upcoming)
			if cerr != nil {
				return &QueryError{Op: "count upcoming", Err: cerr}
			}
			return nil
		})
	}
	g.Go(func() error {
		var cerr error
		countB, cerr = e.store.CountListings(gctx, rolling)
		if cerr != nil {
			return &QueryError{Op: "count rolling", Err: cerr}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return 0, 0, err
	}
	return countA, countB, nil
}

// partitionOrders maps a sort key to per-partition store orders. The default
// deadline sort is the only asymmetric one: the rolling partition has no
// deadline to sort by and falls back to recency. Explicit amount/name/newest
// sorts apply uniformly to both partitions.
func partitionOrders(sort SortKey) (upcoming, rolling services.Order) {
	switch sort {
	case SortAmountDesc:
		o := services.Order{Key: "amount_max", Desc: true}
		return o, o
	case SortAmountAsc:
		o := services.Order{Key: "amount_min"}
		return o, o
	case SortNewest:
		o := services.Order{Key: "created_at", Desc: true}
		return o, o
	case SortNameAsc:
		o := services.Order{Key: "title"}
		return o, o
	case SortNameDesc:
		o := services.Order{Key: "title", Desc: true}
		return o, o
	default:
		return services.Order{Key: "deadline"}, services.Order{Key: "created_at", Desc: true}
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
