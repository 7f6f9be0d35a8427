package listing

// pageSlice is the computed skip/take for one partition's fetch.
type pageSlice struct {
	Skip int
	Take int
}

// splitPage converts a global 1-based (page, pageSize) into per-partition
// skip/take pairs such that partition A (listings with an upcoming deadline,
// countA rows) followed by partition B (rolling listings, countB rows) is
// sliced exactly at [(page-1)*pageSize, page*pageSize).
//
// The page that straddles the partition boundary draws the tail of A and the
// head of B; pages past the end of both yield zero takes, which callers
// render as an empty page rather than an error.
func splitPage(countA, countB, page, pageSize int) (a, b pageSlice) {
	globalSkip := (page - 1) * pageSize

	a.Skip = min(globalSkip, countA)
	a.Take = max(0, min(pageSize, countA-a.Skip))

	remaining := pageSize - a.Take
	b.Skip = max(0, globalSkip-countA)
	b.Take = max(0, min(remaining, countB-b.Skip))

	return a, b
}

// totalPages returns the page count for a result set. Zero results yield
// zero pages; callers render page 1 of an empty set as an empty page.
func totalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}
