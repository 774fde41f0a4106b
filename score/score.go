// Package score is the in-memory note container the engine commits to and
// queries for sounding pitches in other voices.
package score

import (
	"sort"

	"github.com/jsphweid/voicelead/model"
	"github.com/jsphweid/voicelead/util"
)

// Score keeps each voice's notes ordered by onset.
type Score struct {
	voices map[int][]model.Note
}

func New() *Score {
	return &Score{voices: make(map[int][]model.Note)}
}

// Add inserts notes keeping onset order; equal onsets keep insertion order.
func (s *Score) Add(notes ...model.Note) {
	for _, n := range notes {
		vs := s.voices[n.Voice]
		i := sort.Search(len(vs), func(i int) bool {
			return vs[i].Onset > n.Onset
		})
		vs = append(vs, model.Note{})
		copy(vs[i+1:], vs[i:])
		vs[i] = n
		s.voices[n.Voice] = vs
	}
}

// Remove deletes one exact match per given note. Unknown notes are ignored.
func (s *Score) Remove(notes ...model.Note) {
	for _, n := range notes {
		vs := s.voices[n.Voice]
		for i := len(vs) - 1; i >= 0; i-- {
			if vs[i] == n {
				s.voices[n.Voice] = append(vs[:i], vs[i+1:]...)
				break
			}
		}
	}
}

// Notes returns a copy of a voice's notes.
func (s *Score) Notes(voice int) []model.Note {
	return append([]model.Note(nil), s.voices[voice]...)
}

// Between returns the notes of voice with onset in [start, end).
func (s *Score) Between(voice, start, end int) []model.Note {
	var res []model.Note
	for _, n := range s.voices[voice] {
		if n.Onset >= start && n.Onset < end {
			res = append(res, n)
		}
	}
	return res
}

// Before returns the last note of voice with onset strictly before t.
func (s *Score) Before(voice, t int) (model.Note, bool) {
	vs := s.voices[voice]
	i := sort.Search(len(vs), func(i int) bool {
		return vs[i].Onset >= t
	})
	if i == 0 {
		return model.Note{}, false
	}
	return vs[i-1], true
}

// SoundingDuring returns notes of every other voice overlapping [start, end).
func (s *Score) SoundingDuring(start, end, except int) []model.Note {
	var res []model.Note
	for _, voice := range s.Voices() {
		if voice == except {
			continue
		}
		for _, n := range s.voices[voice] {
			if n.Onset < end && n.End() > start {
				res = append(res, n)
			}
		}
	}
	return res
}

// AttackedAt returns notes of every other voice starting exactly at t.
func (s *Score) AttackedAt(t, except int) []model.Note {
	var res []model.Note
	for _, voice := range s.Voices() {
		if voice == except {
			continue
		}
		for _, n := range s.voices[voice] {
			if n.Onset == t {
				res = append(res, n)
			}
		}
	}
	return res
}

// Voices lists voices holding at least one note, ascending.
func (s *Score) Voices() []int {
	var res []int
	for _, v := range util.GetKeys(s.voices) {
		if len(s.voices[v]) > 0 {
			res = append(res, v)
		}
	}
	return res
}

func (s *Score) Len() int {
	var total int
	for _, vs := range s.voices {
		total += len(vs)
	}
	return total
}
