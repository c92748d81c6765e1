package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTruncateDate(t *testing.T) {
	in := time.Date(2026, 3, 14, 23, 59, 59, 999, time.FixedZone("UTC+3", 3*3600))
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), TruncateDate(in))
}

func TestDateRangeContains(t *testing.T) {
	from := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	r := DateRange{From: &from, To: &to}

	assert.True(t, r.Contains(from))
	assert.True(t, r.Contains(to.Add(20*time.Hour)))
	assert.False(t, r.Contains(from.Add(-time.Minute)))
	assert.False(t, r.Contains(to.AddDate(0, 0, 1)))
	assert.True(t, DateRange{}.Contains(time.Now()))
}

func TestFilterOffset(t *testing.T) {
	f := DefaultFilter()
	assert.Equal(t, 0, f.Offset())
	f.Page = 3
	assert.Equal(t, 100, f.Offset())
	f.Page = 0
	assert.Equal(t, 0, f.Offset())
}

func TestNewOrderedIDIncreases(t *testing.T) {
	prev := NewOrderedID()
	for range 50 {
		next := NewOrderedID()
		assert.Equal(t, 7, int(next.Version()))
		assert.Less(t, prev.String(), next.String())
		prev = next
	}
}
