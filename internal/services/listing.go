package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nativeways/pathways/pkg/models"
)

// DeadlinePartition selects which deadline subset of the listings table a
// query runs against.
type DeadlinePartition int

const (
	// DeadlineAny applies no deadline predicate.
	DeadlineAny DeadlinePartition = iota
	// DeadlineUpcoming matches listings with a deadline on or after
	// Predicate.From (and on or before Predicate.Until when set).
	DeadlineUpcoming
	// DeadlineNone matches rolling listings, i.e. deadline IS NULL.
	DeadlineNone
)

// Predicate describes the store-level filter for listing count and fetch
// queries. Soft-deleted rows are always excluded.
type Predicate struct {
	Kind      models.Kind
	Category  string     // Empty means no category filter.
	Tags      []string   // Match-any against the listing's tag set.
	Partition DeadlinePartition
	From      time.Time  // Start of the upcoming window (inclusive).
	Until     *time.Time // Optional end of the upcoming window (inclusive).
}

// Order is a validated sort instruction for listing fetches.
type Order struct {
	Key  string // One of the keys in listingSortExprs.
	Desc bool
}

// SearchField selects which column a substring search runs against.
type SearchField string

const (
	SearchTitle       SearchField = "title"
	SearchDescription SearchField = "description"
	SearchTags        SearchField = "tags"
)

// ListingFilter controls which listings the admin List endpoint returns.
type ListingFilter struct {
	Kind           models.Kind // Empty means all kinds.
	IncludeDeleted bool
}

// ListingRepository provides CRUD and query access to directory listings.
type ListingRepository interface {
	// Get returns a single active listing by ID.
	Get(ctx context.Context, id string) (*models.Listing, error)

	// List returns a filtered, paginated list for the admin console.
	List(ctx context.Context, filter ListingFilter, opts ListOptions) (*ListResult[models.Listing], error)

	// Create inserts a new listing. If listing.ID is empty, a UUID is generated.
	Create(ctx context.Context, listing *models.Listing) error

	// Update modifies an existing listing's mutable fields.
	Update(ctx context.Context, listing *models.Listing) error

	// SoftDelete marks a listing deleted without removing the row.
	SoftDelete(ctx context.Context, id string) error

	// Restore clears a listing's deleted marker.
	Restore(ctx context.Context, id string) error

	// CountListings returns the number of active listings matching pred.
	CountListings(ctx context.Context, pred Predicate) (int, error)

	// FindListings returns a sorted slice of active listings matching pred.
	FindListings(ctx context.Context, pred Predicate, order Order, skip, take int) ([]models.Listing, error)

	// RankedSearch runs a full-text search and returns listing IDs in rank
	// order. It may fail when the query cannot be parsed as FTS syntax;
	// callers are expected to degrade to SearchSubstring.
	RankedSearch(ctx context.Context, kind models.Kind, query string, limit int) ([]string, error)

	// SearchSubstring returns active listings whose field contains the query,
	// case-insensitively, newest first.
	SearchSubstring(ctx context.Context, kind models.Kind, field SearchField, query string, limit int) ([]models.Listing, error)

	// FindByIDs returns active listings in the order the IDs were given.
	// Unknown and soft-deleted IDs are skipped.
	FindByIDs(ctx context.Context, ids []string) ([]models.Listing, error)
}

// Compile-time interface guard.
var _ ListingRepository = (*SQLiteListingRepository)(nil)

// SQLiteListingRepository implements ListingRepository using SQLite.
type SQLiteListingRepository struct {
	db *sql.DB
}

// NewSQLiteListingRepository creates a ListingRepository. The listings table
// must already exist (created by the store migrations).
func NewSQLiteListingRepository(db *sql.DB) *SQLiteListingRepository {
	return &SQLiteListingRepository{db: db}
}

// listingColumns is the shared SELECT column list for listing queries.
const listingColumns = `id, kind, title, description, organization, url, contact_email,
	category, tags, amount, amount_min, amount_max, deadline, eligibility,
	created_at, updated_at, deleted_at`

// listingSortExprs maps Order keys to SQL expressions. Amount sorts coalesce
// across the structured range so single-valued amounts sort in both
// directions.
var listingSortExprs = map[string]string{
	"deadline":   "deadline",
	"created_at": "created_at",
	"title":      "title COLLATE NOCASE",
	"amount_min": "COALESCE(amount_min, amount_max)",
	"amount_max": "COALESCE(amount_max, amount_min)",
}

func (r *SQLiteListingRepository) Get(ctx context.Context, id string) (*models.Listing, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = ? AND deleted_at IS NULL`, id)
	l, err := scanListing(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get listing %q: %w", id, err)
	}
	return l, nil
}

func (r *SQLiteListingRepository) List(ctx context.Context, filter ListingFilter, opts ListOptions) (*ListResult[models.Listing], error) {
	opts = normalizeListOptions(opts)

	sortCol := "created_at"
	if expr, ok := listingSortExprs[opts.SortBy]; ok {
		sortCol = expr
	}

	where := "1=1"
	var args []any

	if filter.Kind != "" {
		where += " AND kind = ?"
		args = append(args, string(filter.Kind))
	}
	if !filter.IncludeDeleted {
		where += " AND deleted_at IS NULL"
	}

	var total int
	//nolint:gosec // where uses parameterized placeholders only
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM listings WHERE "+where, args...,
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count listings: %w", err)
	}

	orderDir := "DESC"
	if opts.SortOrder == "asc" {
		orderDir = "ASC"
	}

	queryArgs := make([]any, 0, len(args)+2)
	queryArgs = append(queryArgs, args...)
	queryArgs = append(queryArgs, opts.Limit, opts.Offset)

	//nolint:gosec // where and sortCol are validated above, not user input
	query := fmt.Sprintf(
		"SELECT %s FROM listings WHERE %s ORDER BY %s %s, id LIMIT ? OFFSET ?",
		listingColumns, where, sortCol, orderDir,
	)

	listings, err := r.queryListings(ctx, query, queryArgs...)
	if err != nil {
		return nil, err
	}

	return &ListResult[models.Listing]{Items: listings, Total: total}, nil
}

func (r *SQLiteListingRepository) Create(ctx context.Context, listing *models.Listing) error {
	if listing.ID == "" {
		listing.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = now
	}
	listing.UpdatedAt = now

	tagsJSON, _ := json.Marshal(listing.Tags)
	if listing.Tags == nil {
		tagsJSON = []byte("[]")
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO listings (
			id, kind, title, description, organization, url, contact_email,
			category, tags, amount, amount_min, amount_max, deadline, eligibility,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		listing.ID, string(listing.Kind), listing.Title, listing.Description,
		listing.Organization, listing.URL, listing.ContactEmail,
		listing.Category, string(tagsJSON), listing.Amount,
		nullFloat(listing.AmountMin), nullFloat(listing.AmountMax),
		nullTime(listing.Deadline), listing.Eligibility,
		listing.CreatedAt, listing.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create listing: %w", err)
	}
	return nil
}

func (r *SQLiteListingRepository) Update(ctx context.Context, listing *models.Listing) error {
	listing.UpdatedAt = time.Now().UTC()

	tagsJSON, _ := json.Marshal(listing.Tags)
	if listing.Tags == nil {
		tagsJSON = []byte("[]")
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE listings SET
			title = ?, description = ?, organization = ?, url = ?, contact_email = ?,
			category = ?, tags = ?, amount = ?, amount_min = ?, amount_max = ?,
			deadline = ?, eligibility = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		listing.Title, listing.Description, listing.Organization, listing.URL,
		listing.ContactEmail, listing.Category, string(tagsJSON), listing.Amount,
		nullFloat(listing.AmountMin), nullFloat(listing.AmountMax),
		nullTime(listing.Deadline), listing.Eligibility, listing.UpdatedAt,
		listing.ID,
	)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteListingRepository) SoftDelete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE listings SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteListingRepository) Restore(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE listings SET deleted_at = NULL WHERE id = ? AND deleted_at IS NOT NULL`, id)
	if err != nil {
		return fmt.Errorf("restore listing: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteListingRepository) CountListings(ctx context.Context, pred Predicate) (int, error) {
	where, args := buildPredicate(pred)

	var count int
	//nolint:gosec // where uses parameterized placeholders only
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM listings WHERE "+where, args...,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count listings: %w", err)
	}
	return count, nil
}

func (r *SQLiteListingRepository) FindListings(ctx context.Context, pred Predicate, order Order, skip, take int) ([]models.Listing, error) {
	if take <= 0 {
		return []models.Listing{}, nil
	}

	expr, ok := listingSortExprs[order.Key]
	if !ok {
		expr = "created_at"
	}
	dir := "ASC"
	if order.Desc {
		dir = "DESC"
	}

	where, args := buildPredicate(pred)
	args = append(args, take, skip)

	// "expr IS NULL" sorts rows lacking the sort value last in either
	// direction; the id tiebreak keeps equal keys in a stable order so page
	// boundaries never duplicate or drop rows.
	//nolint:gosec // where and expr are built from validated inputs only
	query := fmt.Sprintf(
		"SELECT %s FROM listings WHERE %s ORDER BY (%s) IS NULL, %s %s, id LIMIT ? OFFSET ?",
		listingColumns, where, expr, expr, dir,
	)

	return r.queryListings(ctx, query, args...)
}

func (r *SQLiteListingRepository) RankedSearch(ctx context.Context, kind models.Kind, query string, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM listings_fts WHERE listings_fts MATCH ? AND kind = ? ORDER BY rank LIMIT ?`,
		query, string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("ranked search: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan search id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search ids: %w", err)
	}
	return ids, nil
}

func (r *SQLiteListingRepository) SearchSubstring(ctx context.Context, kind models.Kind, field SearchField, query string, limit int) ([]models.Listing, error) {
	var col string
	switch field {
	case SearchTitle:
		col = "title"
	case SearchDescription:
		col = "description"
	case SearchTags:
		col = "tags"
	default:
		return nil, fmt.Errorf("substring search: unknown field %q", field)
	}

	pattern := "%" + query + "%"
	//nolint:gosec // col comes from the switch above, not user input
	q := fmt.Sprintf(
		`SELECT %s FROM listings
		 WHERE kind = ? AND deleted_at IS NULL AND %s LIKE ? COLLATE NOCASE
		 ORDER BY created_at DESC, id LIMIT ?`,
		listingColumns, col,
	)
	return r.queryListings(ctx, q, string(kind), pattern, limit)
}

func (r *SQLiteListingRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Listing, error) {
	if len(ids) == 0 {
		return []models.Listing{}, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	//nolint:gosec // placeholders is generated, values are bound
	q := fmt.Sprintf(
		`SELECT %s FROM listings WHERE id IN (%s) AND deleted_at IS NULL`,
		listingColumns, placeholders,
	)
	found, err := r.queryListings(ctx, q, args...)
	if err != nil {
		return nil, err
	}

	// Re-order to match the caller's ranked ID order.
	byID := make(map[string]models.Listing, len(found))
	for _, l := range found {
		byID[l.ID] = l
	}
	result := make([]models.Listing, 0, len(found))
	for _, id := range ids {
		if l, ok := byID[id]; ok {
			result = append(result, l)
		}
	}
	return result, nil
}

// buildPredicate translates a Predicate into a parameterized WHERE clause.
func buildPredicate(pred Predicate) (string, []any) {
	where := "deleted_at IS NULL"
	var args []any

	if pred.Kind != "" {
		where += " AND kind = ?"
		args = append(args, string(pred.Kind))
	}
	if pred.Category != "" {
		where += " AND category = ?"
		args = append(args, pred.Category)
	}
	if len(pred.Tags) > 0 {
		// Tags are stored as a JSON array; the quoted pattern matches whole
		// tag values without a JSON function dependency.
		clauses := make([]string, len(pred.Tags))
		for i, tag := range pred.Tags {
			clauses[i] = "tags LIKE ?"
			args = append(args, `%"`+tag+`"%`)
		}
		where += " AND (" + strings.Join(clauses, " OR ") + ")"
	}

	switch pred.Partition {
	case DeadlineUpcoming:
		where += " AND deadline IS NOT NULL AND deadline >= ?"
		args = append(args, pred.From)
		if pred.Until != nil {
			where += " AND deadline <= ?"
			args = append(args, *pred.Until)
		}
	case DeadlineNone:
		where += " AND deadline IS NULL"
	}

	return where, args
}

func (r *SQLiteListingRepository) queryListings(ctx context.Context, query string, args ...any) ([]models.Listing, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		l, err := scanListing(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}
	if listings == nil {
		listings = []models.Listing{}
	}
	return listings, nil
}

// scanListing scans one row via the given Scan function (works for both
// *sql.Row and *sql.Rows).
func scanListing(scan func(dest ...any) error) (*models.Listing, error) {
	var l models.Listing
	var kind, tagsJSON string
	var amountMin, amountMax sql.NullFloat64
	var deadline, deletedAt sql.NullTime
	err := scan(
		&l.ID, &kind, &l.Title, &l.Description, &l.Organization, &l.URL,
		&l.ContactEmail, &l.Category, &tagsJSON, &l.Amount,
		&amountMin, &amountMax, &deadline, &l.Eligibility,
		&l.CreatedAt, &l.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}
	l.Kind = models.Kind(kind)
	_ = json.Unmarshal([]byte(tagsJSON), &l.Tags)
	if amountMin.Valid {
		l.AmountMin = &amountMin.Float64
	}
	if amountMax.Valid {
		l.AmountMax = &amountMax.Float64
	}
	if deadline.Valid {
		t := deadline.Time
		l.Deadline = &t
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		l.DeletedAt = &t
	}
	return &l, nil
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
