package persistence

import (
	"strings"

	"github.com/dairy/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// MaxPageSize caps any listing regardless of what the caller asks for
const MaxPageSize = 200

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// applyPage adds LIMIT/OFFSET for the filter's page. A zero page size means
// the default; oversized pages are clamped.
func applyPage(query *gorm.DB, filter shared.Filter) *gorm.DB {
	size := filter.PageSize
	if size <= 0 {
		size = shared.DefaultFilter().PageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	filter.PageSize = size
	return query.Offset(filter.Offset()).Limit(size)
}

// applyDateRange restricts column to the inclusive range
func applyDateRange(query *gorm.DB, column string, r shared.DateRange) *gorm.DB {
	if r.From != nil {
		query = query.Where(column+" >= ?", shared.TruncateDate(*r.From))
	}
	if r.To != nil {
		query = query.Where(column+" <= ?", shared.TruncateDate(*r.To))
	}
	return query
}

// orderByDate orders a listing by a date column then by id, newest first
// unless the filter asks for ascending
func orderByDate(query *gorm.DB, column string, filter shared.Filter) *gorm.DB {
	dir := ValidateSortOrder(filter.OrderDir)
	return query.Order(column + " " + dir).Order("id " + dir)
}
