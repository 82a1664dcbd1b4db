package utils

import (
	"strings"
)

func AreAddressesEqual(a, b string) bool {
	return strings.EqualFold(a, b)
}

func Filter[A any](coll []A, criteria func(i A) bool) []A {
	out := make([]A, 0)
	for _, item := range coll {
		if criteria(item) {
			out = append(out, item)
		}
	}
	return out
}
