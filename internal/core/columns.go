package core

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	// rangeExprRegex splits "Q1 to Q5" into its two endpoints.
	rangeExprRegex = regexp.MustCompile(`(?i)^\s*(\S+)\s+to\s+(\S+)\s*$`)

	// itemTokenRegex splits an endpoint into a prefix and a numeric suffix.
	// The prefix is lazy so "Q10" yields ("Q", "10").
	itemTokenRegex = regexp.MustCompile(`^([A-Za-z0-9_]+?)(\d+)$`)
)

// ResolveColumns maps a question token to the columns it denotes. An exact
// column name wins; otherwise every column starting with token is returned in
// dataset order. A token matching nothing yields an empty set.
func ResolveColumns(token string, available []string) []string {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	for _, c := range available {
		if c == token {
			return []string{c}
		}
	}
	return ExpandPrefix(token, available)
}

// ExpandPrefix returns every column whose name starts with prefix, in dataset
// order.
func ExpandPrefix(prefix string, available []string) []string {
	if prefix == "" {
		return nil
	}
	var out []string
	for _, c := range available {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// ExpandRange expands "A1 to A5" into the existing columns A1..A5 in ascending
// numeric order. Both endpoints must share the same prefix. Missing
// intermediate columns are skipped. An unrecognised shape returns nil so
// callers can fall back to treating expr as a literal column.
func ExpandRange(expr string, available []string) []string {
	m := rangeExprRegex.FindStringSubmatch(expr)
	if m == nil {
		return nil
	}
	p1, lo, ok1 := splitItemToken(m[1])
	p2, hi, ok2 := splitItemToken(m[2])
	if !ok1 || !ok2 || p1 != p2 {
		return nil
	}
	if lo > hi {
		lo, hi = hi, lo
	}

	type item struct {
		name string
		n    int
	}
	var items []item
	for _, c := range available {
		if !strings.HasPrefix(c, p1) {
			continue
		}
		n, err := strconv.Atoi(c[len(p1):])
		if err != nil || n < lo || n > hi {
			continue
		}
		// Only the canonical spelling counts: "A01" is not item 1 of "A".
		if c != p1+strconv.Itoa(n) {
			continue
		}
		items = append(items, item{name: c, n: n})
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].n < items[j].n })

	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.name
	}
	return out
}

// IsRangeExpr reports whether expr contains the standalone word "to".
func IsRangeExpr(expr string) bool {
	for _, f := range strings.Fields(expr) {
		if strings.EqualFold(f, "to") {
			return true
		}
	}
	return false
}

func splitItemToken(tok string) (prefix string, n int, ok bool) {
	m := itemTokenRegex.FindStringSubmatch(tok)
	if m == nil {
		return "", 0, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return m[1], n, true
}
