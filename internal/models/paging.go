package models

// Paging bounds shared by all list endpoints
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// NormalizePaging clamps a 1-based page number and page size to their allowed
// ranges. Out-of-range values fall back to the defaults, so the values passed
// on are always the ones the response reports.
func NormalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > MaxPageSize {
		limit = DefaultPageSize
	}
	return page, limit
}
