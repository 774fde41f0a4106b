// Package session turns the minimal-displacement search into a stream of
// candidate voice leadings for one source/destination harmony pair.
//
// Candidates come out tier by tier. Exclude removes every pending candidate
// using a rejected motion, and once a tier is used up the session widens by
// raising the search floor. When nothing is left Next returns ErrExhausted.
package session

import (
	"errors"
	"fmt"

	"github.com/jsphweid/voicelead/model"
	"github.com/jsphweid/voicelead/search"
	"github.com/jsphweid/voicelead/util"
)

// ErrExhausted is returned by Next when no voice leading is left. It is an
// expected outcome and callers should backtrack on it.
var ErrExhausted = errors.New("session: voice leadings exhausted")

type Mode int

const (
	// Plain searches the whole scale at once.
	Plain Mode = iota
	// ChordTone searches chord tones and non-chord tones separately.
	ChordTone
	// Parallel moves every scale position by the same interval.
	Parallel
)

func (m Mode) String() string {
	switch m {
	case Plain:
		return "plain"
	case ChordTone:
		return "chord-tone"
	case Parallel:
		return "parallel"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

type Options struct {
	Tet  int
	Mode Mode

	// ChordRoot makes parallel motion follow the chord roots instead of the
	// scale roots.
	ChordRoot bool

	// Direction forces parallel motion up (1) or down (-1). Zero follows
	// the average direction of the unconstrained voice leading.
	Direction int
}

// Candidate is one full-scale mapping: Mapping[i] is the signed interval
// applied to source scale position i.
type Candidate struct {
	Mapping      []int
	Displacement int
}

// part is a searched subsequence of the scale.
type part struct {
	indices []int
	source  []int
	dest    []int
	floor   int
	res     search.Result
	maxed   bool
}

type Session struct {
	from *model.Harmony
	to   *model.Harmony
	opts Options

	excl      search.Exclusions
	parts     []*part
	turn      int
	pending   []Candidate
	seen      map[string]bool
	last      Candidate
	exhausted bool
}

// New prepares a session and computes its first tier. Mismatched scale or
// chord cardinalities panic.
func New(from, to *model.Harmony, opts Options) *Session {
	s := &Session{
		from: from,
		to:   to,
		opts: opts,
		excl: make(search.Exclusions),
		seen: make(map[string]bool),
	}

	switch opts.Mode {
	case Parallel:
		s.pending = parallelCandidates(from, to, opts)
		return s
	case ChordTone:
		chordFrom, restFrom := partition(from)
		chordTo, restTo := partition(to)
		s.parts = []*part{
			newPart(from, to, chordFrom, chordTo),
			newPart(from, to, restFrom, restTo),
		}
	default:
		all := make([]int, len(from.Scale))
		for i := range all {
			all[i] = i
		}
		allTo := make([]int, len(to.Scale))
		for i := range allTo {
			allTo[i] = i
		}
		s.parts = []*part{newPart(from, to, all, allTo)}
	}

	s.refresh()
	return s
}

// partition splits scale positions into chord tones and the rest, both in
// scale order.
func partition(h *model.Harmony) (chord []int, rest []int) {
	chord, rest = []int{}, []int{}
	for i, pc := range h.Scale {
		if util.Contains(h.Chord, pc) {
			chord = append(chord, i)
		} else {
			rest = append(rest, i)
		}
	}
	if len(chord) != len(h.Chord) {
		panic(fmt.Sprintf("session: chord %v of harmony %d is not inside scale %v", h.Chord, h.ID, h.Scale))
	}
	return chord, rest
}

func newPart(from, to *model.Harmony, fromIdx, toIdx []int) *part {
	if len(fromIdx) != len(toIdx) {
		panic(fmt.Sprintf("session: cannot lead %d positions of harmony %d into %d of harmony %d",
			len(fromIdx), from.ID, len(toIdx), to.ID))
	}
	p := &part{indices: fromIdx, floor: search.NoFloor}
	for _, i := range fromIdx {
		p.source = append(p.source, from.Scale[i])
	}
	for _, i := range toIdx {
		p.dest = append(p.dest, to.Scale[i])
	}
	return p
}

func (p *part) search(tet int, excl search.Exclusions) (search.Result, bool) {
	return search.Search(p.source, p.dest, tet, excl.Project(p.indices), p.floor)
}

// Next returns the next untried candidate, widening to higher displacement
// tiers as needed.
func (s *Session) Next() (Candidate, error) {
	for {
		if len(s.pending) > 0 {
			c := s.pending[0]
			s.pending = s.pending[1:]
			s.seen[util.Key(c.Mapping)] = true
			s.last = c
			return c, nil
		}
		if s.exhausted {
			return Candidate{}, ErrExhausted
		}
		s.widen()
	}
}

// Exclude forbids the motion of the given magnitude at a source scale
// position and drops the pending candidates using it. An emptied queue is
// refilled right away.
func (s *Session) Exclude(index, magnitude int) {
	if !s.excl.Add(index, magnitude) {
		return
	}

	kept := s.pending[:0]
	for _, c := range s.pending {
		if util.Abs(c.Mapping[index]) != magnitude {
			kept = append(kept, c)
		}
	}
	s.pending = kept

	if len(s.pending) == 0 && !s.exhausted {
		s.refresh()
	}
}

// Last is the candidate most recently returned by Next.
func (s *Session) Last() Candidate {
	return s.last
}

func (s *Session) Mode() Mode {
	return s.opts.Mode
}

func (s *Session) Transition() model.Transition {
	return model.Transition{From: s.from.ID, To: s.to.ID}
}

// refresh re-runs every part at its current floor under the current
// exclusions. A part without any valid mapping exhausts the session, since
// no higher floor can bring one back.
func (s *Session) refresh() {
	if len(s.parts) == 0 {
		return
	}
	for _, p := range s.parts {
		res, ok := p.search(s.opts.Tet, s.excl)
		if !ok {
			s.exhausted = true
			s.pending = nil
			return
		}
		p.res = res
	}
	s.combine()
}

// widen raises the floor of the next part in round-robin order. A part
// with no higher tier is marked maxed and skipped from then on.
func (s *Session) widen() {
	for tries := 0; tries < len(s.parts); tries++ {
		p := s.parts[s.turn]
		s.turn = (s.turn + 1) % len(s.parts)
		if p.maxed {
			continue
		}

		prev := p.floor
		p.floor = p.res.Displacement
		res, ok := p.search(s.opts.Tet, s.excl)
		if !ok {
			p.floor = prev
			p.maxed = true
			continue
		}
		p.res = res

		for _, other := range s.parts {
			if other == p {
				continue
			}
			res, ok := other.search(s.opts.Tet, s.excl)
			if !ok {
				s.exhausted = true
				return
			}
			other.res = res
		}
		s.combine()
		return
	}
	s.exhausted = true
}

// combine interleaves the parts' tied mappings back into full-scale order.
// Lists of unequal length are paired cyclically.
func (s *Session) combine() {
	count := 0
	total := 0
	for _, p := range s.parts {
		count = util.Max(count, len(p.res.Mappings))
		total += p.res.Displacement
	}

	s.pending = s.pending[:0]
	queued := make(map[string]bool)
	for k := 0; k < count; k++ {
		mapping := make([]int, len(s.from.Scale))
		for _, p := range s.parts {
			sub := p.res.Mappings[k%len(p.res.Mappings)]
			for j, full := range p.indices {
				mapping[full] = sub[j]
			}
		}
		key := util.Key(mapping)
		if s.seen[key] || queued[key] {
			continue
		}
		queued[key] = true
		s.pending = append(s.pending, Candidate{Mapping: mapping, Displacement: total})
	}
}
