package util

import (
	"fmt"
	"os"
	"sort"

	"golang.org/x/exp/constraints"
)

func EnsureDir(dir string) {
	if err := os.MkdirAll(dir, 0777); err != nil {
		panic("Could not create dir " + dir + ": " + err.Error())
	}
}

// GetKeys returns the keys of m in ascending order.
func GetKeys[A constraints.Ordered, B any](m map[A]B) []A {
	keys := make([]A, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i] < keys[j]
	})
	return keys
}

// Mod is the always non-negative remainder of a divided by m.
func Mod[A constraints.Integer](a A, m A) A {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

func Abs[A constraints.Signed](a A) A {
	if a < 0 {
		return -a
	}
	return a
}

func Min[A constraints.Integer](num1 A, num2 A) A {
	if num1 > num2 {
		return num2
	}
	return num1
}

func Max[A constraints.Integer](num1 A, num2 A) A {
	if num1 < num2 {
		return num2
	}
	return num1
}

func Contains[A comparable](items []A, item A) bool {
	for _, v := range items {
		if v == item {
			return true
		}
	}
	return false
}

// Key joins ints into a stable map key, e.g. [1 -2 0] -> "1,-2,0".
func Key[A constraints.Integer](nums []A) string {
	var res string
	for i, v := range nums {
		res += fmt.Sprintf("%v", v)
		if i < len(nums)-1 {
			res += ","
		}
	}
	return res
}
