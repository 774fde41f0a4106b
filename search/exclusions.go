package search

// Exclusions records rejected motions: position index -> set of interval
// magnitudes that may no longer be used at that position.
type Exclusions map[int]map[int]bool

// Add records the pair and reports whether it was new.
func (e Exclusions) Add(index, magnitude int) bool {
	set, ok := e[index]
	if !ok {
		set = make(map[int]bool)
		e[index] = set
	}
	if set[magnitude] {
		return false
	}
	set[magnitude] = true
	return true
}

func (e Exclusions) Has(index, magnitude int) bool {
	if e == nil {
		return false
	}
	return e[index][magnitude]
}

// Project re-keys the exclusions onto a subsequence: indices[j] is the full
// index owning subsequence position j.
func (e Exclusions) Project(indices []int) Exclusions {
	res := make(Exclusions)
	for j, full := range indices {
		for magnitude := range e[full] {
			res.Add(j, magnitude)
		}
	}
	return res
}

// Hits reports whether mapping uses any excluded motion.
func (e Exclusions) Hits(mapping []int) bool {
	for i, v := range mapping {
		if v < 0 {
			v = -v
		}
		if e.Has(i, v) {
			return true
		}
	}
	return false
}
