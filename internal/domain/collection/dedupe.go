package collection

import "strings"

// Equal reports whether a and b match case-insensitively on every key field.
// The id never takes part in the comparison.
func Equal(a, b Item, keyFields []string) bool {
	for _, f := range keyFields {
		if !strings.EqualFold(a.Get(f), b.Get(f)) {
			return false
		}
	}
	return true
}

// Dedupe keeps the first occurrence of every distinct item and drops later
// items equal to it on keyFields. The input is not modified.
func Dedupe(items Collection, keyFields []string) Collection {
	out := make(Collection, 0, len(items))
	for _, it := range items {
		if IndexOfDuplicate(out, it, keyFields, -1) >= 0 {
			continue
		}
		out = append(out, it.Clone())
	}
	return out
}

// IndexOfDuplicate returns the index of the first item in items equal to
// candidate, ignoring position skip. It returns -1 when there is none.
func IndexOfDuplicate(items Collection, candidate Item, keyFields []string, skip int) int {
	for i, it := range items {
		if i == skip {
			continue
		}
		if Equal(it, candidate, keyFields) {
			return i
		}
	}
	return -1
}
