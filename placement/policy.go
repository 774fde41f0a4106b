// Package placement applies one candidate voice leading to one note and
// decides whether the resulting pitch is acceptable.
package placement

import (
	"fmt"
	"math/rand/v2"

	"github.com/jsphweid/voicelead/config"
	"github.com/jsphweid/voicelead/harmony"
	"github.com/jsphweid/voicelead/model"
	"github.com/jsphweid/voicelead/util"
)

// Sounding answers questions about notes already committed in other voices.
type Sounding interface {
	SoundingDuring(start, end, except int) []model.Note
	AttackedAt(t, except int) []model.Note
	Before(voice, t int) (model.Note, bool)
}

// Failure explains a rejected pitch. Index and Magnitude identify the
// motion to exclude from the session.
type Failure struct {
	Reason    model.Reason
	Index     int
	Magnitude int
}

func (f *Failure) String() string {
	return fmt.Sprintf("%v at position %d moving %d", f.Reason, f.Index, f.Magnitude)
}

type Request struct {
	Voice    int
	Onset    int
	Duration int
	Repeat   bool

	// First marks the voice's first note under the destination harmony.
	First bool

	// Source is the note being led into the new harmony.
	Source model.Note
	From   *model.Harmony
	To     *model.Harmony

	Mapping []int

	// Placed are the notes tentatively placed for the current item.
	Placed []model.Note
	// Last is the voice's last committed note before the item, if any.
	Last *model.Note
}

// predecessor is the pitch the new note moves from melodically.
func (r *Request) predecessor() (model.Note, bool) {
	if len(r.Placed) > 0 {
		return r.Placed[len(r.Placed)-1], true
	}
	if r.Last != nil {
		return *r.Last, true
	}
	return model.Note{}, false
}

type Policy struct {
	cfg   *config.Config
	notes Sounding
	rng   *rand.Rand
}

func New(cfg *config.Config, notes Sounding, rng *rand.Rand) *Policy {
	return &Policy{cfg: cfg, notes: notes, rng: rng}
}

// Place returns the placed note, or the failure that rejected it. It never
// touches the note container.
func (p *Policy) Place(req Request) (model.Note, *Failure) {
	note := model.Note{
		Voice:    req.Voice,
		Onset:    req.Onset,
		Duration: req.Duration,
		Harmony:  req.To.ID,
	}

	if pitch, ok := p.override(&req); ok {
		note.Pitch = pitch
		return note, nil
	}

	tet := p.cfg.Tet
	index := harmony.ScaleIndex(req.From, req.Source.Pitch, tet)
	if index < 0 {
		// an off-scale pitch moves by the interval of its nearest position
		index, _ = harmony.NearestScaleIndex(req.From, req.Source.Pitch, tet, p.rng)
	}
	interval := req.Mapping[index]
	candidate := req.Source.Pitch + interval

	fail := func(reason model.Reason) *Failure {
		return &Failure{Reason: reason, Index: index, Magnitude: util.Abs(interval)}
	}

	if p.cfg.Engine.EnforceRanges {
		if !p.cfg.RangeFor(req.Voice).Contains(candidate) {
			return note, fail(model.OutOfRange)
		}
	} else {
		candidate = fold(candidate, p.cfg.Bounds, tet)
	}
	note.Pitch = candidate

	// parallel motion is accepted as is
	if p.cfg.Engine.Parallel.Enabled {
		return note, nil
	}

	if reason, ok := p.check(&req, note); !ok {
		return note, fail(reason)
	}
	return note, nil
}

// override handles the placements that bypass the mapping.
func (p *Policy) override(req *Request) (int, bool) {
	foot := p.cfg.Engine.Foot
	isFoot := foot.Voice >= 0 && req.Voice == foot.Voice
	bounds := p.cfg.RangeFor(req.Voice)

	if req.First && isFoot && foot.Force {
		if pitch, ok := nearestOfClass(req.Source.Pitch, req.To.Root(), bounds, p.cfg.Tet); ok {
			return pitch, true
		}
	}

	if last, ok := req.predecessor(); ok && (req.Repeat || last.Onset == req.Onset) {
		return last.Pitch, true
	}

	if isFoot && p.onPreservedBeat(req) && harmony.PitchClass(req.Source.Pitch, p.cfg.Tet) == req.From.Root() {
		if pitch, ok := nearestOfClass(req.Source.Pitch, req.To.Root(), bounds, p.cfg.Tet); ok {
			return pitch, true
		}
	}
	return 0, false
}

func (p *Policy) onPreservedBeat(req *Request) bool {
	since := req.Onset - req.To.Start
	if since%p.cfg.TicksPerBeat != 0 {
		return false
	}
	return util.Contains(p.cfg.Engine.Foot.PreserveBeats, since/p.cfg.TicksPerBeat)
}

// fold transposes pitch by octaves until it lies inside bounds.
func fold(pitch int, bounds config.Range, tet int) int {
	for pitch < bounds.Low {
		pitch += tet
	}
	for pitch > bounds.High {
		pitch -= tet
	}
	return pitch
}

// nearestOfClass is the pitch of class pc closest to ref inside bounds;
// ties go to the lower pitch.
func nearestOfClass(ref, pc int, bounds config.Range, tet int) (int, bool) {
	best, found := 0, false
	for pitch := bounds.Low; pitch <= bounds.High; pitch++ {
		if util.Mod(pitch, tet) != pc {
			continue
		}
		if !found || util.Abs(pitch-ref) < util.Abs(best-ref) {
			best, found = pitch, true
		}
	}
	return best, found
}
