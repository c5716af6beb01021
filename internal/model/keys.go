package model

import "sort"

// SortedKeys returns the keys of entries in ascending order.
func SortedKeys[V any](entries map[string]V) []string {
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
