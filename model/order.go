package model

// OrderItem is one voice's time segment [Start, End) awaiting voice
// leading. Prev links to the preceding segment of the same voice and is nil
// for the voice's first segment. Index is the position in the global,
// start-ordered sequence.
type OrderItem struct {
	Voice int
	Start int
	End   int
	Prev  *OrderItem
	Index int
}
