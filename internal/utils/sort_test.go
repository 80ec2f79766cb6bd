package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSortedDates(t *testing.T) {
	d1 := time.Date(2021, 1, 31, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC)
	d3 := time.Date(2021, 2, 14, 0, 0, 0, 0, time.UTC)

	m := map[time.Time][]string{
		d3: {"c.png"},
		d1: {"a.png"},
		d2: {"b.png"},
	}
	assert.Equal(t, []time.Time{d1, d2, d3}, SortedDates(m))
	assert.Empty(t, SortedDates(map[time.Time]int{}))
}
