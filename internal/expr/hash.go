package expr

import (
	"strconv"

	xxhash "github.com/cespare/xxhash/v2"
)

// Hash returns a structural hash of e. Structurally equal expressions hash
// equally; distinct expressions may collide, so callers confirm with Equal.
func Hash(e PhysicalExpr) uint64 {
	d := xxhash.New()
	writeExpr(d, e)
	return d.Sum64()
}

func writeExpr(d *xxhash.Digest, e PhysicalExpr) {
	_, _ = d.WriteString(strconv.Itoa(int(e.Type())))
	_, _ = d.WriteString("(")
	switch x := e.(type) {
	case *ColumnExpr:
		_, _ = d.WriteString(x.name)
	case *LiteralExpr:
		_, _ = d.WriteString(x.value.DataType().String())
		_, _ = d.WriteString(":")
		_, _ = d.WriteString(x.value.String())
	case *DateTimeIntervalExpr:
		_, _ = d.WriteString(x.op.String())
	default:
		_, _ = d.WriteString(e.String())
	}
	for _, c := range e.Children() {
		_, _ = d.WriteString(",")
		writeExpr(d, c)
	}
	_, _ = d.WriteString(")")
}

// Deduplicate collapses structurally equal expressions. It returns the
// distinct expressions in first-seen order and, for each input, the index
// of its representative in the returned slice.
func Deduplicate(exprs []PhysicalExpr) (unique []PhysicalExpr, index []int) {
	buckets := make(map[uint64][]int, len(exprs))
	index = make([]int, len(exprs))

	for i, e := range exprs {
		h := Hash(e)
		found := -1
		for _, u := range buckets[h] {
			if unique[u].Equal(e) {
				found = u
				break
			}
		}
		if found < 0 {
			found = len(unique)
			unique = append(unique, e)
			buckets[h] = append(buckets[h], found)
		}
		index[i] = found
	}
	return unique, index
}
