package resource

import (
	"sort"
	"strconv"
	"strings"
)

// CountMatrix maps parentId to child resource to count
type CountMatrix map[int64]map[string]int64

// NewCountMatrix returns a matrix holding a zero for every (parent, child) pair
func NewCountMatrix(parentIDs []int64, children []string) CountMatrix {
	m := make(CountMatrix, len(parentIDs))
	for _, id := range parentIDs {
		row := make(map[string]int64, len(children))
		for _, c := range children {
			row[c] = 0
		}
		m[id] = row
	}
	return m
}

// Set stores a count, clamping negatives to zero. Pairs outside the matrix are ignored.
func (m CountMatrix) Set(parentID int64, child string, n int64) {
	row, ok := m[parentID]
	if !ok {
		return
	}
	if _, ok := row[child]; !ok {
		return
	}
	if n < 0 {
		n = 0
	}
	row[child] = n
}

// Size returns the number of (parent, child) entries
func (m CountMatrix) Size() int {
	n := 0
	for _, row := range m {
		n += len(row)
	}
	return n
}

// CountKey builds a cache key that ignores the order of ids and children
func CountKey(parent string, parentIDs []int64, children []string, directOnly bool) string {
	ids := append([]int64(nil), parentIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	names := append([]string(nil), children...)
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(parent)
	b.WriteByte('|')
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(id, 10))
	}
	b.WriteByte('|')
	b.WriteString(strings.Join(names, ","))
	if directOnly {
		b.WriteString("|direct")
	}
	return b.String()
}

// UniqueIDs drops duplicate ids keeping first occurrence order
func UniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// UniqueNames drops duplicate names keeping first occurrence order
func UniqueNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
