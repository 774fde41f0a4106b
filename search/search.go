// Package search finds the minimal-displacement voice leadings between two
// equally sized pitch-class collections.
//
// A voice leading maps every source position to a distinct destination
// position. Its displacement is the sum of the circular distances travelled.
// Search returns every mapping tied at the smallest displacement that is
// strictly above a floor and that avoids the excluded (index, magnitude)
// motions, ordered so evenly spread motion comes first.
package search

import (
	"fmt"
	"math"
	"sort"

	"github.com/jsphweid/voicelead/util"
)

// NoFloor lets Search return the absolute minimal tier.
const NoFloor = -1

// Result holds one tier of tied mappings. Mappings[k][i] is the signed
// interval travelled by source position i.
type Result struct {
	Displacement int
	Mappings     [][]int
}

// Interval is the signed minimal circular interval from pitch class s to d.
// A tie at half an octave resolves upward.
func Interval(s, d, tet int) int {
	up := util.Mod(d-s, tet)
	if up*2 <= tet {
		return up
	}
	return up - tet
}

// Displacement is the sum of absolute intervals of a mapping.
func Displacement(mapping []int) int {
	var total int
	for _, v := range mapping {
		total += util.Abs(v)
	}
	return total
}

type searcher struct {
	n         int
	intervals [][]int
	order     [][]int
	excl      Exclusions
	floor     int
	minRest   []int
	maxRest   []int
	used      []bool
	current   []int
	best      int
	found     [][]int
}

// Search returns the tier of minimal displacement strictly greater than
// floor. ok is false when no bijection satisfies the floor and exclusions.
// A nil excl excludes nothing.
func Search(source, dest []int, tet int, excl Exclusions, floor int) (Result, bool) {
	if len(source) != len(dest) {
		panic(fmt.Sprintf("search: cardinality mismatch %v vs %v", source, dest))
	}
	if tet <= 0 {
		panic(fmt.Sprintf("search: invalid tet %d", tet))
	}

	s := newSearcher(source, dest, tet, excl, floor)
	if s == nil {
		return Result{}, false
	}
	s.assign(0, 0)
	if len(s.found) == 0 {
		return Result{}, false
	}

	rank(s.found)
	return Result{Displacement: s.best, Mappings: s.found}, true
}

func newSearcher(source, dest []int, tet int, excl Exclusions, floor int) *searcher {
	n := len(source)
	s := &searcher{
		n:         n,
		intervals: make([][]int, n),
		order:     make([][]int, n),
		excl:      excl,
		floor:     floor,
		minRest:   make([]int, n+1),
		maxRest:   make([]int, n+1),
		used:      make([]bool, n),
		current:   make([]int, n),
		best:      math.MaxInt32,
	}

	lows := make([]int, n)
	highs := make([]int, n)
	for i := 0; i < n; i++ {
		s.intervals[i] = make([]int, n)
		lows[i] = math.MaxInt32
		for j := 0; j < n; j++ {
			iv := Interval(source[i], dest[j], tet)
			s.intervals[i][j] = iv
			if excl.Has(i, util.Abs(iv)) {
				continue
			}
			s.order[i] = append(s.order[i], j)
			lows[i] = util.Min(lows[i], util.Abs(iv))
			highs[i] = util.Max(highs[i], util.Abs(iv))
		}
		// every destination is excluded for this position
		if len(s.order[i]) == 0 {
			return nil
		}
		row := s.intervals[i]
		sort.SliceStable(s.order[i], func(a, b int) bool {
			return util.Abs(row[s.order[i][a]]) < util.Abs(row[s.order[i][b]])
		})
	}

	for i := n - 1; i >= 0; i-- {
		s.minRest[i] = s.minRest[i+1] + lows[i]
		s.maxRest[i] = s.maxRest[i+1] + highs[i]
	}
	return s
}

func (s *searcher) assign(pos, partial int) {
	if partial+s.minRest[pos] > s.best {
		return
	}
	// cannot climb above the floor any more
	if partial+s.maxRest[pos] <= s.floor {
		return
	}
	if pos == s.n {
		if partial < s.best {
			s.best = partial
			s.found = s.found[:0]
		}
		mapping := make([]int, s.n)
		copy(mapping, s.current)
		s.found = append(s.found, mapping)
		return
	}

	for _, j := range s.order[pos] {
		if s.used[j] {
			continue
		}
		iv := s.intervals[pos][j]
		s.used[j] = true
		s.current[pos] = iv
		s.assign(pos+1, partial+util.Abs(iv))
		s.used[j] = false
	}
}

// rank orders tied mappings by their largest single motion, then by the
// spread of motion across positions.
func rank(mappings [][]int) {
	type ranked struct {
		mapping []int
		largest int
		squares int
	}
	rs := make([]ranked, len(mappings))
	for i, m := range mappings {
		rs[i].mapping = m
		for _, v := range m {
			a := util.Abs(v)
			rs[i].largest = util.Max(rs[i].largest, a)
			rs[i].squares += a * a
		}
	}

	// Tied mappings share their length and absolute sum, so the sum of
	// squares orders them exactly like the standard deviation does.
	sort.SliceStable(rs, func(a, b int) bool {
		if rs[a].largest != rs[b].largest {
			return rs[a].largest < rs[b].largest
		}
		return rs[a].squares < rs[b].squares
	})
	for i := range rs {
		mappings[i] = rs[i].mapping
	}
}

// StdDev is the population standard deviation of a mapping's absolute
// intervals.
func StdDev(mapping []int) float64 {
	if len(mapping) == 0 {
		return 0
	}
	var mean float64
	for _, v := range mapping {
		mean += float64(util.Abs(v))
	}
	mean /= float64(len(mapping))
	var variance float64
	for _, v := range mapping {
		d := float64(util.Abs(v)) - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(mapping)))
}
