package model

// Harmony is a time span [Start, End) with an ascending, duplicate-free
// scale of pitch classes and a chord drawn from it. Chord[0] is the root.
type Harmony struct {
	ID    int
	Start int
	End   int
	Scale []int
	Chord []int
}

func (h *Harmony) Contains(t int) bool {
	return t >= h.Start && t < h.End
}

// Root is the chord root, or the scale root when the chord is empty.
func (h *Harmony) Root() int {
	if len(h.Chord) > 0 {
		return h.Chord[0]
	}
	return h.Scale[0]
}

// Transition identifies one source/destination harmony pair.
type Transition struct {
	From int
	To   int
}
