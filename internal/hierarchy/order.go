package hierarchy

import (
	"sort"

	"github.com/hanko-field/catalog-console/internal/domain"
)

// Ordered is implemented by anything that can be placed in display order.
type Ordered interface {
	domain.Category | domain.SubCategory | domain.Variant
}

// SortForDisplay returns a new slice sorted by DisplayOrder, then Name, then ID, ascending.
// The input slice is left untouched.
func SortForDisplay[T Ordered](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		oi, ni, ii := rank(out[i])
		oj, nj, ij := rank(out[j])
		if oi != oj {
			return oi < oj
		}
		if ni != nj {
			return ni < nj
		}
		return ii < ij
	})
	return out
}

func rank[T Ordered](item T) (int, string, string) {
	switch v := any(item).(type) {
	case domain.Category:
		return v.DisplayOrder, v.Name, v.ID
	case domain.SubCategory:
		return v.DisplayOrder, v.Name, v.ID
	case domain.Variant:
		return v.DisplayOrder, v.Name, v.ID
	default:
		return 0, "", ""
	}
}
