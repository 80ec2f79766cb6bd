package utils

import (
	"sort"
	"time"
)

// SortedDates returns the map's keys in ascending date order.
func SortedDates[T any](m map[time.Time]T) []time.Time {
	keys := make([]time.Time, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Before(keys[j])
	})
	return keys
}
