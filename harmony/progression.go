// Package harmony holds the read-only harmonic skeleton of a pattern and
// answers "which harmony sounds at time t".
package harmony

import (
	"fmt"
	"sort"

	"github.com/jsphweid/voicelead/model"
	"github.com/jsphweid/voicelead/util"
)

type Progression struct {
	harmonies []*model.Harmony
}

// NewProgression validates and orders the harmonies, which must cover
// [0, End) without gaps or overlaps. IDs are reassigned to their position
// in time.
func NewProgression(tet int, harmonies []model.Harmony) (*Progression, error) {
	if len(harmonies) == 0 {
		return nil, fmt.Errorf("progression is empty")
	}
	sorted := make([]*model.Harmony, len(harmonies))
	for i := range harmonies {
		h := harmonies[i]
		sorted[i] = &h
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	if sorted[0].Start != 0 {
		return nil, fmt.Errorf("progression starts at %d, not 0", sorted[0].Start)
	}
	for i, h := range sorted {
		h.ID = i
		if err := Validate(h, tet); err != nil {
			return nil, err
		}
		if i == 0 {
			continue
		}
		switch prev := sorted[i-1]; {
		case prev.End > h.Start:
			return nil, fmt.Errorf("harmony %d overlaps harmony %d", i, i-1)
		case prev.End < h.Start:
			return nil, fmt.Errorf("gap [%d, %d) between harmony %d and harmony %d", prev.End, h.Start, i-1, i)
		}
	}
	return &Progression{harmonies: sorted}, nil
}

// Validate checks the scale is ascending, duplicate free and inside
// [0, tet), and that every chord tone belongs to the scale.
func Validate(h *model.Harmony, tet int) error {
	if h.End <= h.Start {
		return fmt.Errorf("harmony %d has empty span [%d, %d)", h.ID, h.Start, h.End)
	}
	if len(h.Scale) == 0 {
		return fmt.Errorf("harmony %d has an empty scale", h.ID)
	}
	for i, pc := range h.Scale {
		if pc < 0 || pc >= tet {
			return fmt.Errorf("harmony %d: pitch class %d outside [0, %d)", h.ID, pc, tet)
		}
		if i > 0 && h.Scale[i-1] >= pc {
			return fmt.Errorf("harmony %d: scale %v is not strictly ascending", h.ID, h.Scale)
		}
	}
	for _, pc := range h.Chord {
		if !util.Contains(h.Scale, pc) {
			return fmt.Errorf("harmony %d: chord tone %d missing from scale %v", h.ID, pc, h.Scale)
		}
	}
	return nil
}

// End is the end of the last harmony.
func (p *Progression) End() int {
	return p.harmonies[len(p.harmonies)-1].End
}

// At returns the harmony sounding at t. A gap or a time outside the
// progression panics: every onset of a pattern must be harmonized.
func (p *Progression) At(t int) *model.Harmony {
	i := sort.Search(len(p.harmonies), func(i int) bool {
		return p.harmonies[i].End > t
	})
	if i == len(p.harmonies) || !p.harmonies[i].Contains(t) {
		panic(fmt.Sprintf("no harmony sounds at %d", t))
	}
	return p.harmonies[i]
}
