package harmony

import (
	"math/rand/v2"

	"github.com/jsphweid/voicelead/model"
	"github.com/jsphweid/voicelead/util"
)

func PitchClass(pitch, tet int) int {
	return util.Mod(pitch, tet)
}

// IntervalClass folds the distance between two pitches into [0, tet/2].
func IntervalClass(a, b, tet int) int {
	d := util.Mod(b-a, tet)
	return util.Min(d, tet-d)
}

func IsChordTone(h *model.Harmony, pitch, tet int) bool {
	return util.Contains(h.Chord, PitchClass(pitch, tet))
}

// ScaleIndex is the position of pitch's class in h's scale, or -1.
func ScaleIndex(h *model.Harmony, pitch, tet int) int {
	pc := PitchClass(pitch, tet)
	for i, v := range h.Scale {
		if v == pc {
			return i
		}
	}
	return -1
}

// NearestScaleIndex finds the scale position closest to pitch's class and
// the signed offset that reaches it. Equidistant neighbours are chosen
// between with rng.
func NearestScaleIndex(h *model.Harmony, pitch, tet int, rng *rand.Rand) (index, offset int) {
	pc := PitchClass(pitch, tet)
	best := tet
	var candidates [][2]int
	for i, v := range h.Scale {
		up := util.Mod(v-pc, tet)
		down := up - tet
		for _, off := range []int{up, down} {
			d := util.Abs(off)
			if d < best {
				best = d
				candidates = candidates[:0]
			}
			if d == best {
				candidates = append(candidates, [2]int{i, off})
			}
		}
	}
	if len(candidates) > 1 {
		pick := candidates[rng.IntN(len(candidates))]
		return pick[0], pick[1]
	}
	return candidates[0][0], candidates[0][1]
}

// GenericInterval counts scale steps between two pitches measured in h's
// scale. Pitches off the scale count from the scale degree below them.
func GenericInterval(h *model.Harmony, a, b, tet int) int {
	return util.Abs(degree(h, b, tet) - degree(h, a, tet))
}

func degree(h *model.Harmony, pitch, tet int) int {
	octave := pitch / tet
	if pitch < 0 && pitch%tet != 0 {
		octave--
	}
	pc := PitchClass(pitch, tet)
	idx := 0
	for i, v := range h.Scale {
		if v <= pc {
			idx = i
		}
	}
	// below the lowest scale tone: the top degree of the octave underneath
	if pc < h.Scale[0] {
		return (octave-1)*len(h.Scale) + len(h.Scale) - 1
	}
	return octave*len(h.Scale) + idx
}
