// Package engine walks the voice-leading order and pitches every segment
// from its predecessor, backtracking through committed segments when a
// voice leading runs out of candidates.
package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/jsphweid/voicelead/config"
	"github.com/jsphweid/voicelead/harmony"
	"github.com/jsphweid/voicelead/logging"
	"github.com/jsphweid/voicelead/metrics"
	"github.com/jsphweid/voicelead/model"
	"github.com/jsphweid/voicelead/placement"
	"github.com/jsphweid/voicelead/rhythm"
	"github.com/jsphweid/voicelead/score"
	"github.com/jsphweid/voicelead/session"
	"go.uber.org/zap"
)

var (
	// ErrExhausted means every branch of the walk ran out of voice leadings.
	ErrExhausted = errors.New("engine: voice leadings exhausted")
	// ErrCeiling means the walk was abandoned after too many failures.
	ErrCeiling = errors.New("engine: failure ceiling reached")
)

type outcome int

const (
	succeeded outcome = iota
	exhausted
	// abandoned unwinds the whole walk without trying alternatives.
	abandoned
)

type Engine struct {
	cfg         *config.Config
	score       *score.Score
	progression *harmony.Progression
	rhythms     map[int]*rhythm.Rhythm
	policy      *placement.Policy
	log         *zap.Logger

	items []*model.OrderItem
	diag  *Diagnostics
}

// New creates an engine writing into s. Notes already in s are the
// starting material; rng drives every random choice of the walk.
func New(
	cfg *config.Config,
	s *score.Score,
	progression *harmony.Progression,
	rhythms map[int]*rhythm.Rhythm,
	rng *rand.Rand,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		cfg:         cfg,
		score:       s,
		progression: progression,
		rhythms:     rhythms,
		policy:      placement.New(cfg, s, rng),
		log:         logging.OrNop(logger),
		diag:        NewDiagnostics(),
	}
}

// Resolve pitches every item that has a predecessor. On failure the score
// is left exactly as it was before the call.
func (e *Engine) Resolve(items []*model.OrderItem) (*Diagnostics, error) {
	e.items = items
	e.diag = NewDiagnostics()

	res := e.attempt(0, false)
	if res == exhausted && e.cfg.Engine.Flexible {
		e.log.Info("strict walk exhausted, retrying note by note")
		res = e.attempt(0, true)
	}

	fields := []zap.Field{
		zap.Int("items", len(items)),
		zap.Int("failures", e.diag.Total()),
		zap.Int("exhaustions", e.diag.Exhaustions()),
	}
	switch res {
	case succeeded:
		metrics.RecordRun("success")
		e.log.Info("voice leading resolved", fields...)
		return e.diag, nil
	case abandoned:
		metrics.RecordRun("ceiling")
		e.log.Warn("voice leading abandoned", fields...)
		return e.diag, fmt.Errorf("after %d failures: %w", e.diag.Total(), ErrCeiling)
	default:
		metrics.RecordRun("exhausted")
		e.log.Warn("voice leading exhausted", fields...)
		return e.diag, fmt.Errorf("resolving %d items: %w", len(items), ErrExhausted)
	}
}

// attempt leads item i, commits it and continues with the rest of the
// order. Whatever it committed is removed again unless the rest succeeds.
func (e *Engine) attempt(i int, flexible bool) outcome {
	if i >= len(e.items) {
		return succeeded
	}
	item := e.items[i]
	if item.Prev == nil {
		// nothing to lead from
		return e.attempt(i+1, flexible)
	}

	notes, res := e.lead(item, flexible)
	if res != succeeded {
		return res
	}
	e.score.Add(notes...)

	res = e.attempt(i+1, false)
	if res == exhausted && e.cfg.Engine.Flexible {
		res = e.attempt(i+1, true)
	}
	if res != succeeded {
		e.score.Remove(notes...)
		e.log.Debug("rolled back item",
			zap.Int("item", item.Index),
			zap.Int("voice", item.Voice),
			zap.Int("notes", len(notes)),
		)
	}
	return res
}

// target is one rhythm event to pitch and the note it is led from.
type target struct {
	event  model.Event
	source model.Note
	from   *model.Harmony
	to     *model.Harmony
}

// lead pitches one item without committing it.
func (e *Engine) lead(item *model.OrderItem, flexible bool) ([]model.Note, outcome) {
	targets := e.targets(item)
	if len(targets) == 0 {
		return nil, succeeded
	}

	var last *model.Note
	if n, ok := e.score.Before(item.Voice, item.Start); ok {
		last = &n
	}

	var placed []model.Note
	for start := 0; start < len(targets); {
		end := start + 1
		for end < len(targets) && sameTransition(targets[start], targets[end]) {
			end++
		}

		var notes []model.Note
		var res outcome
		if flexible {
			notes, res = e.leadFlexible(item, targets[start:end], placed, last)
		} else {
			notes, res = e.leadStrict(item, targets[start:end], placed, last)
		}
		if res != succeeded {
			return nil, res
		}
		placed = append(placed, notes...)
		start = end
	}
	return placed, succeeded
}

// targets pairs the item's rhythm events with source notes from the
// predecessor segment, cycling through the sources.
func (e *Engine) targets(item *model.OrderItem) []target {
	sources := e.score.Between(item.Voice, item.Prev.Start, item.Prev.End)
	if len(sources) == 0 {
		if n, ok := e.score.Before(item.Voice, item.Start); ok {
			sources = []model.Note{n}
		}
	}
	r, ok := e.rhythms[item.Voice]
	if len(sources) == 0 || !ok {
		return nil
	}

	events := r.Between(item.Start, item.End)
	res := make([]target, len(events))
	for k, ev := range events {
		src := sources[k%len(sources)]
		res[k] = target{
			event:  ev,
			source: src,
			from:   e.progression.At(src.Onset),
			to:     e.progression.At(ev.Onset),
		}
	}
	return res
}

// firstInHarmony reports whether t is the voice's first note under its
// destination harmony.
func firstInHarmony(t target, placed []model.Note, last *model.Note) bool {
	prev := last
	if len(placed) > 0 {
		prev = &placed[len(placed)-1]
	}
	return prev == nil || prev.Harmony != t.to.ID
}

// concat copies a and b into a fresh slice.
func concat(a, b []model.Note) []model.Note {
	res := make([]model.Note, 0, len(a)+len(b))
	return append(append(res, a...), b...)
}

func sameTransition(a, b target) bool {
	return a.from.ID == b.from.ID && a.to.ID == b.to.ID
}

func (e *Engine) newSession(from, to *model.Harmony) *session.Session {
	opts := session.Options{Tet: e.cfg.Tet}
	switch {
	case e.cfg.Engine.Parallel.Enabled:
		opts.Mode = session.Parallel
		opts.ChordRoot = e.cfg.Engine.Parallel.ChordRoot
		opts.Direction = e.cfg.Engine.Parallel.Direction
	case e.cfg.Engine.ChordToneLeading:
		opts.Mode = session.ChordTone
	}
	return session.New(from, to, opts)
}

func (e *Engine) request(item *model.OrderItem, t target, mapping []int, placed []model.Note, last *model.Note) placement.Request {
	return placement.Request{
		Voice:    item.Voice,
		First:    firstInHarmony(t, placed, last),
		Onset:    t.event.Onset,
		Duration: t.event.Duration,
		Repeat:   t.event.Repeat,
		Source:   t.source,
		From:     t.from,
		To:       t.to,
		Mapping:  mapping,
		Placed:   placed,
		Last:     last,
	}
}

// leadStrict places the whole run with one mapping, starting over with the
// next mapping whenever a note fails.
func (e *Engine) leadStrict(item *model.OrderItem, run []target, placed []model.Note, last *model.Note) ([]model.Note, outcome) {
	sess := e.newSession(run[0].from, run[0].to)
	for {
		cand, err := sess.Next()
		if err != nil {
			e.sessionExhausted(item, sess)
			return nil, exhausted
		}

		notes := make([]model.Note, 0, len(run))
		var fail *placement.Failure
		for _, t := range run {
			var note model.Note
			note, fail = e.policy.Place(e.request(item, t, cand.Mapping, concat(placed, notes), last))
			if fail != nil {
				break
			}
			notes = append(notes, note)
		}
		if fail == nil {
			return notes, succeeded
		}
		if e.reject(item, sess, fail) {
			return nil, abandoned
		}
	}
}

// leadFlexible keeps every note placed so far and only retries the note
// that failed, with the next mapping.
func (e *Engine) leadFlexible(item *model.OrderItem, run []target, placed []model.Note, last *model.Note) ([]model.Note, outcome) {
	sess := e.newSession(run[0].from, run[0].to)
	cand, err := sess.Next()
	if err != nil {
		e.sessionExhausted(item, sess)
		return nil, exhausted
	}

	notes := make([]model.Note, 0, len(run))
	for k := 0; k < len(run); {
		note, fail := e.policy.Place(e.request(item, run[k], cand.Mapping, concat(placed, notes), last))
		if fail == nil {
			notes = append(notes, note)
			k++
			continue
		}
		if e.reject(item, sess, fail) {
			return nil, abandoned
		}
		if cand, err = sess.Next(); err != nil {
			e.sessionExhausted(item, sess)
			return nil, exhausted
		}
	}
	return notes, succeeded
}

// reject records a failure and excludes its motion. It reports whether the
// failure ceiling has been reached.
func (e *Engine) reject(item *model.OrderItem, sess *session.Session, fail *placement.Failure) bool {
	e.diag.recordFailure(sess.Transition(), fail.Reason)
	sess.Exclude(fail.Index, fail.Magnitude)
	e.log.Debug("excluding motion",
		zap.Int("item", item.Index),
		zap.Int("voice", item.Voice),
		zap.Stringer("reason", fail.Reason),
		zap.Int("index", fail.Index),
		zap.Int("magnitude", fail.Magnitude),
	)
	return e.diag.Total() >= e.cfg.Engine.FailureCeiling
}

func (e *Engine) sessionExhausted(item *model.OrderItem, sess *session.Session) {
	e.diag.recordExhaustion()
	t := sess.Transition()
	e.log.Debug("session exhausted",
		zap.Int("item", item.Index),
		zap.Int("voice", item.Voice),
		zap.Int("from", t.From),
		zap.Int("to", t.To),
		zap.Stringer("mode", sess.Mode()),
	)
}
