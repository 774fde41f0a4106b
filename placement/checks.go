package placement

import (
	"github.com/jsphweid/voicelead/config"
	"github.com/jsphweid/voicelead/harmony"
	"github.com/jsphweid/voicelead/model"
	"github.com/jsphweid/voicelead/util"
)

// check runs the constraint checks on a default-path note in order and
// reports the first one that rejects it.
func (p *Policy) check(req *Request, note model.Note) (model.Reason, bool) {
	if !p.parallelsOK(req, note) {
		return model.ForbiddenParallel, false
	}

	sounding := p.notes.SoundingDuring(note.Onset, note.End(), note.Voice)
	if !p.intervalsOK(note, sounding) {
		return model.ForbiddenInterval, false
	}
	if !p.consonant(req, note, sounding) {
		return model.NotConsonant, false
	}
	if !p.melodicOK(req, note) {
		return model.MelodicLimit, false
	}
	return 0, true
}

// parallelsOK rejects a note moving in parallel with another voice attacked
// at the same onset when both pairs share a forbidden interval class.
func (p *Policy) parallelsOK(req *Request, note model.Note) bool {
	forbidden := p.cfg.Engine.ForbiddenParallels
	if len(forbidden) == 0 {
		return true
	}
	prev, ok := req.predecessor()
	if !ok || prev.Pitch == note.Pitch {
		return true
	}

	tet := p.cfg.Tet
	for _, other := range p.notes.AttackedAt(note.Onset, note.Voice) {
		before, ok := p.notes.Before(other.Voice, note.Onset)
		if !ok || before.Pitch == other.Pitch {
			continue
		}
		was := harmony.IntervalClass(prev.Pitch, before.Pitch, tet)
		now := harmony.IntervalClass(note.Pitch, other.Pitch, tet)
		if was == now && util.Contains(forbidden, now) {
			return false
		}
	}
	return true
}

func (p *Policy) intervalsOK(note model.Note, sounding []model.Note) bool {
	engine := p.cfg.Engine
	for _, s := range sounding {
		if util.Contains(engine.ForbiddenIntervalClasses, harmony.IntervalClass(note.Pitch, s.Pitch, p.cfg.Tet)) {
			return false
		}
		if util.Contains(engine.ForbiddenIntervals, util.Abs(note.Pitch-s.Pitch)) {
			return false
		}
	}
	return true
}

func (p *Policy) consonant(req *Request, note model.Note, sounding []model.Note) bool {
	cons := p.cfg.Engine.Consonance
	if !cons.Enabled {
		return true
	}
	tet := p.cfg.Tet
	if cons.ChordTonesExempt && harmony.IsChordTone(req.To, note.Pitch, tet) {
		return true
	}
	if note.Duration < cons.MinDuration {
		return true
	}

	pitches := []int{note.Pitch}
	for _, s := range sounding {
		pitches = append(pitches, s.Pitch)
	}

	switch cons.Mode {
	case config.ConsonanceChord:
		for _, pitch := range pitches {
			if !harmony.IsChordTone(req.To, pitch, tet) {
				return false
			}
		}
	default:
		for i := range pitches {
			for j := i + 1; j < len(pitches); j++ {
				if !util.Contains(cons.IntervalClasses, harmony.IntervalClass(pitches[i], pitches[j], tet)) {
					return false
				}
			}
		}
	}
	return true
}

func (p *Policy) melodicOK(req *Request, note model.Note) bool {
	mel := p.cfg.Engine.Melodic
	if !mel.Enabled {
		return true
	}
	prev, ok := req.predecessor()
	if !ok {
		return true
	}

	limits := mel.NonChordTone
	if harmony.IsChordTone(req.To, note.Pitch, p.cfg.Tet) {
		limits = mel.ChordTone
	}
	specific := util.Abs(note.Pitch - prev.Pitch)
	generic := harmony.GenericInterval(req.To, prev.Pitch, note.Pitch, p.cfg.Tet)
	return within(specific, limits.MinSpecific, limits.MaxSpecific) &&
		within(generic, limits.MinGeneric, limits.MaxGeneric)
}

func within(v, min, max int) bool {
	if v < min {
		return false
	}
	return max == 0 || v <= max
}
