package listview

import (
	"reflect"
	"testing"
)

func TestFilter(t *testing.T) {
	items := []string{"gpu-node-001", "gpu-node-002", "cpu-node-001"}
	key := func(s string) string { return s }

	if got := Filter(items, "", key); !reflect.DeepEqual(got, items) {
		t.Errorf("empty query = %v, want all items", got)
	}
	if got := Filter(items, "GPU", key); len(got) != 2 {
		t.Errorf("case-insensitive query = %v, want 2 items", got)
	}
	if got := Filter(items, "missing", key); len(got) != 0 {
		t.Errorf("non-matching query = %v, want none", got)
	}
}

func TestSortByOutcome(t *testing.T) {
	type item struct {
		name    string
		outcome Outcome
	}
	items := []item{
		{"a", OutcomeBad},
		{"b", OutcomeGood},
		{"c", OutcomeNeutral},
		{"d", OutcomeBad},
		{"e", OutcomeGood},
	}
	outcome := func(i item) Outcome { return i.outcome }

	sorted := SortByOutcome(items, Ascending, outcome)
	names := make([]string, len(sorted))
	for i, it := range sorted {
		names[i] = it.name
	}
	// Good moves before adjacent Bad runs, Neutral never swaps with
	// anything and blocks movement across it.
	want := []string{"b", "a", "c", "e", "d"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("ascending sort = %v, want %v", names, want)
	}

	if !reflect.DeepEqual(items[0], item{"a", OutcomeBad}) {
		t.Error("input slice was modified")
	}

	desc := SortByOutcome(items, Descending, outcome)
	if desc[0].outcome != OutcomeBad {
		t.Errorf("descending sort starts with %v, want OutcomeBad", desc[0].outcome)
	}
}

func TestPaginate(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i + 1
	}

	page, total := Paginate(items, 2, 10)
	if total != 3 {
		t.Errorf("totalPages = %d, want 3", total)
	}
	if page[0] != 11 || page[len(page)-1] != 20 {
		t.Errorf("page 2 = %v, want 11..20", page)
	}

	page, total = Paginate(items, 3, 10)
	if len(page) != 5 {
		t.Errorf("last page has %d items, want 5", len(page))
	}

	page, _ = Paginate(items, 4, 10)
	if page != nil {
		t.Errorf("out-of-range page = %v, want nil", page)
	}

	page, _ = Paginate(items, 0, 10)
	if page != nil {
		t.Errorf("page 0 = %v, want nil", page)
	}

	if _, total = Paginate(items, 1, 0); total != 0 {
		t.Errorf("zero page size total = %d, want 0", total)
	}
}

func pagesOf(refs []PageRef) []int {
	pages := make([]int, len(refs))
	for i, ref := range refs {
		if ref.Ellipsis {
			pages[i] = -ref.Page
		} else {
			pages[i] = ref.Page
		}
	}
	return pages
}

func TestPageWindow(t *testing.T) {
	tests := []struct {
		name    string
		current int
		total   int
		want    []int
	}{
		{"all pages fit", 3, 7, []int{1, 2, 3, 4, 5, 6, 7}},
		{"near start", 2, 20, []int{1, 2, 3, 4, 5, -6, 20}},
		{"start boundary", 4, 20, []int{1, 2, 3, 4, 5, -6, 20}},
		{"middle", 10, 20, []int{1, -8, 9, 10, 11, -12, 20}},
		{"near end", 18, 20, []int{1, -15, 16, 17, 18, 19, 20}},
		{"end boundary", 17, 20, []int{1, -15, 16, 17, 18, 19, 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pagesOf(PageWindow(tt.current, tt.total))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PageWindow(%d, %d) = %v, want %v", tt.current, tt.total, got, tt.want)
			}
		})
	}
}
