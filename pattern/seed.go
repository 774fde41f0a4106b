package pattern

import (
	"fmt"
	"math/rand/v2"

	"github.com/jsphweid/voicelead/config"
	"github.com/jsphweid/voicelead/harmony"
	"github.com/jsphweid/voicelead/model"
	"github.com/jsphweid/voicelead/rhythm"
	"github.com/jsphweid/voicelead/score"
	"github.com/jsphweid/voicelead/util"
)

// Seed pitches the first segment of every voice with chord tones. The
// first note sits nearest the middle of the voice's range, later notes
// nearest the note before them.
func Seed(cfg *config.Config, progression *harmony.Progression, rhythms map[int]*rhythm.Rhythm, s *score.Score, rng *rand.Rand) error {
	end := util.Min(cfg.Pattern.SegmentLength, progression.End())
	for _, voice := range cfg.VoiceIDs() {
		r, ok := rhythms[voice]
		if !ok {
			continue
		}
		bounds := cfg.RangeFor(voice)
		ref := (bounds.Low + bounds.High) / 2

		var prev *model.Note
		for _, ev := range r.Between(0, end) {
			h := progression.At(ev.Onset)
			note := model.Note{Voice: voice, Onset: ev.Onset, Duration: ev.Duration, Harmony: h.ID}
			if ev.Repeat && prev != nil {
				note.Pitch = prev.Pitch
			} else {
				pitch, ok := nearestChordTone(h, ref, bounds, cfg.Tet, rng)
				if !ok {
					return fmt.Errorf("voice %d: no chord tone of harmony %d in [%d, %d]", voice, h.ID, bounds.Low, bounds.High)
				}
				note.Pitch = pitch
			}
			s.Add(note)
			prev = &note
			ref = note.Pitch
		}
	}
	return nil
}

func nearestChordTone(h *model.Harmony, ref int, bounds config.Range, tet int, rng *rand.Rand) (int, bool) {
	var best []int
	for pitch := bounds.Low; pitch <= bounds.High; pitch++ {
		if !harmony.IsChordTone(h, pitch, tet) {
			continue
		}
		switch {
		case len(best) == 0 || util.Abs(pitch-ref) < util.Abs(best[0]-ref):
			best = []int{pitch}
		case util.Abs(pitch-ref) == util.Abs(best[0]-ref):
			best = append(best, pitch)
		}
	}
	if len(best) == 0 {
		return 0, false
	}
	return best[rng.IntN(len(best))], true
}
