package listing

import "github.com/nativeways/pathways/pkg/models"

// filterByAmount narrows fetched rows to those whose structured amount range
// overlaps rng. It runs in memory because the stored amount is free text;
// only the parsed amount_min/amount_max fields are range-comparable, and
// listings without structured amount data are excluded while a range filter
// is active.
//
// Filtering after the fetch can shrink a page below its page size. The engine
// does not backfill; callers detect the last page via TotalPages, not by a
// short item count.
func filterByAmount(items []models.Listing, rng AmountRange) []models.Listing {
	result := make([]models.Listing, 0, len(items))
	for _, item := range items {
		if amountOverlaps(&item, rng) {
			result = append(result, item)
		}
	}
	return result
}

// amountOverlaps reports whether the listing's amount range intersects rng.
// A listing with only one structured bound is treated as a point value.
func amountOverlaps(l *models.Listing, rng AmountRange) bool {
	if l.AmountMin == nil && l.AmountMax == nil {
		return false
	}

	lo, hi := l.AmountMin, l.AmountMax
	if lo == nil {
		lo = hi
	}
	if hi == nil {
		hi = lo
	}

	if *hi < rng.Min {
		return false
	}
	if rng.Max != nil && *lo > *rng.Max {
		return false
	}
	return true
}
