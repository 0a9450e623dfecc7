/**
 * Copyright (c) 2024 Peking University and Peking University
 * Changsha Institute for Computing and Digital Economy
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as
 * published by the Free Software Foundation, either version 3 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

// Package listview provides the pure filter/sort/paginate helpers shared
// by the tabular commands. Nothing here touches the network or any state.
package listview

import (
	"sort"
	"strings"
)

type Direction int

const (
	Ascending Direction = iota
	Descending
)

// Outcome is the sortable classification of one list item: known-good,
// known-bad, or neither. Items with a neutral outcome never swap with
// anything, they keep their original relative position.
type Outcome int

const (
	OutcomeNeutral Outcome = iota
	OutcomeGood
	OutcomeBad
)

// Filter keeps the items whose key contains the query, case-insensitively.
// An empty query matches everything.
func Filter[T any](items []T, query string, key func(T) string) []T {
	if query == "" {
		return items
	}
	query = strings.ToLower(query)
	filtered := make([]T, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(key(item)), query) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// SortByOutcome stably orders good items before bad ones in ascending
// direction and the reverse when descending. The input slice is not
// modified.
func SortByOutcome[T any](items []T, dir Direction, outcome func(T) Outcome) []T {
	sorted := make([]T, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := outcome(sorted[i]), outcome(sorted[j])
		if dir == Ascending {
			return a == OutcomeGood && b == OutcomeBad
		}
		return a == OutcomeBad && b == OutcomeGood
	})
	return sorted
}

// Paginate slices out one page (1-based) and reports the page count.
// Out-of-range pages yield an empty slice.
func Paginate[T any](items []T, page, pageSize int) ([]T, int) {
	if pageSize <= 0 {
		return nil, 0
	}
	totalPages := (len(items) + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	if start < 0 || start >= len(items) {
		return nil, totalPages
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], totalPages
}

// PageRef is one slot of the rendered pagination strip.
type PageRef struct {
	Page     int
	Ellipsis bool
}

// PageWindow lists the page buttons to show for the current position.
// Up to 7 slots: all pages when few, otherwise a sliding window of
// neighbors plus the first and last page with ellipsis fillers.
func PageWindow(current, total int) []PageRef {
	const maxVisiblePages = 7

	var pages []PageRef
	if total <= maxVisiblePages {
		for i := 1; i <= total; i++ {
			pages = append(pages, PageRef{Page: i})
		}
		return pages
	}

	switch {
	case current <= 4:
		for i := 1; i <= 5; i++ {
			pages = append(pages, PageRef{Page: i})
		}
		pages = append(pages, PageRef{Page: 6, Ellipsis: true})
		pages = append(pages, PageRef{Page: total})
	case current >= total-3:
		pages = append(pages, PageRef{Page: 1})
		pages = append(pages, PageRef{Page: total - 5, Ellipsis: true})
		for i := total - 4; i <= total; i++ {
			pages = append(pages, PageRef{Page: i})
		}
	default:
		pages = append(pages, PageRef{Page: 1})
		pages = append(pages, PageRef{Page: current - 2, Ellipsis: true})
		for i := current - 1; i <= current+1; i++ {
			pages = append(pages, PageRef{Page: i})
		}
		pages = append(pages, PageRef{Page: current + 2, Ellipsis: true})
		pages = append(pages, PageRef{Page: total})
	}
	return pages
}
