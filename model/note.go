package model

type Note struct {
	Voice    int
	Onset    int
	Duration int
	Pitch    int

	// Harmony is the ID of the harmony sounding at Onset.
	Harmony int
}

func (n Note) End() int {
	return n.Onset + n.Duration
}

// Event is one rhythmic slot. Repeat forces the pitch of the previously
// placed note to be reused.
type Event struct {
	Onset    int
	Duration int
	Repeat   bool
}
