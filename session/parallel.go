package session

import (
	"github.com/jsphweid/voicelead/model"
	"github.com/jsphweid/voicelead/search"
	"github.com/jsphweid/voicelead/util"
)

// parallelCandidates shifts every source position by the interval between
// the reference degrees of both harmonies. The preferred direction comes
// first; the opposite one follows unless the direction is forced.
func parallelCandidates(from, to *model.Harmony, opts Options) []Candidate {
	fromRef, toRef := from.Scale[0], to.Scale[0]
	if opts.ChordRoot {
		fromRef, toRef = from.Root(), to.Root()
	}

	up := util.Mod(toRef-fromRef, opts.Tet)
	down := up - opts.Tet

	direction := opts.Direction
	if direction == 0 {
		direction = averageDirection(from, to, opts.Tet)
	}

	var intervals []int
	switch {
	case up == 0:
		intervals = []int{0}
	case direction < 0:
		intervals = []int{down, up}
	default:
		intervals = []int{up, down}
	}
	if opts.Direction != 0 {
		intervals = intervals[:1]
	}

	var res []Candidate
	for _, iv := range intervals {
		mapping := make([]int, len(from.Scale))
		for i := range mapping {
			mapping[i] = iv
		}
		res = append(res, Candidate{Mapping: mapping, Displacement: search.Displacement(mapping)})
	}
	return res
}

// averageDirection is the sign of the mean interval of the best
// unconstrained voice leading. Scales of different size fall back to the
// interval between the roots. Ties go up.
func averageDirection(from, to *model.Harmony, tet int) int {
	var sum int
	if len(from.Scale) == len(to.Scale) {
		res, _ := search.Search(from.Scale, to.Scale, tet, nil, search.NoFloor)
		for _, v := range res.Mappings[0] {
			sum += v
		}
	} else {
		sum = search.Interval(from.Root(), to.Root(), tet)
	}
	if sum < 0 {
		return -1
	}
	return 1
}
