// Package midi converts between scores and Standard MIDI Files.
package midi

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/jsphweid/voicelead/model"
	"github.com/jsphweid/voicelead/rhythm"
	"github.com/jsphweid/voicelead/score"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const velocity = 80

// ReadMidiFile parses a file, turning parser panics into errors.
func ReadMidiFile(filepath string) (s *smf.SMF, e error) {
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r, ok := recover().(string); ok {
			e = errors.New(r)
		}
	}()

	dat, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("reading midi file: %w", err)
	}
	res, err := smf.ReadFrom(bytes.NewReader(dat))
	if err != nil {
		return nil, fmt.Errorf("parsing midi file: %w", err)
	}
	return res, nil
}

type timed struct {
	tick uint32
	off  bool
	msg  midi.Message
}

// Encode renders one track per voice, voice v on channel v mod 16. Only
// 12-tone scores map onto MIDI keys.
func Encode(s *score.Score, tet, ticksPerBeat int) (*smf.SMF, error) {
	if tet != 12 {
		return nil, fmt.Errorf("cannot write %d-tone pitches as midi keys", tet)
	}
	if ticksPerBeat <= 0 || ticksPerBeat > 0x7fff {
		return nil, fmt.Errorf("ticks per beat %d out of range", ticksPerBeat)
	}

	res := smf.New()
	res.TimeFormat = smf.MetricTicks(uint16(ticksPerBeat))

	for i, voice := range s.Voices() {
		ch := uint8(voice % 16)
		var events []timed
		for _, n := range s.Notes(voice) {
			if n.Pitch < 0 || n.Pitch > 127 {
				return nil, fmt.Errorf("voice %d: pitch %d at %d is not a midi key", voice, n.Pitch, n.Onset)
			}
			key := uint8(n.Pitch)
			events = append(events,
				timed{tick: uint32(n.Onset), msg: midi.NoteOn(ch, key, velocity)},
				timed{tick: uint32(n.End()), off: true, msg: midi.NoteOff(ch, key)},
			)
		}
		// releases go before attacks on the same tick
		sort.SliceStable(events, func(a, b int) bool {
			if events[a].tick != events[b].tick {
				return events[a].tick < events[b].tick
			}
			return events[a].off && !events[b].off
		})

		var tr smf.Track
		if i == 0 {
			tr.Add(0, smf.MetaTempo(120))
		}
		tr.Add(0, smf.MetaTrackSequenceName(fmt.Sprintf("voice %d", voice)))
		var last uint32
		for _, ev := range events {
			tr.Add(ev.tick-last, ev.msg)
			last = ev.tick
		}
		tr.Close(0)
		if err := res.Add(tr); err != nil {
			return nil, fmt.Errorf("adding track for voice %d: %w", voice, err)
		}
	}
	return res, nil
}

func WriteFile(path string, s *score.Score, tet, ticksPerBeat int) error {
	mf, err := Encode(s, tet, ticksPerBeat)
	if err != nil {
		return err
	}
	if err := mf.WriteFile(path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Rhythms extracts one rhythm per track that contains notes, numbered from
// zero in track order. Ticks are rescaled to ticksPerBeat; notes attacked
// together collapse into one event lasting as long as the longest.
func Rhythms(mf *smf.SMF, ticksPerBeat int) (map[int]*rhythm.Rhythm, error) {
	mt, ok := mf.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, fmt.Errorf("only metric time formats are supported")
	}
	resolution := int64(mt.Resolution())
	scale := func(tick int64) int {
		return int(tick * int64(ticksPerBeat) / resolution)
	}

	res := make(map[int]*rhythm.Rhythm)
	for _, track := range mf.Tracks {
		durations := make(map[int]int)
		open := make(map[uint8][]int64)
		var abs int64
		for _, ev := range track {
			abs += int64(ev.Delta)
			var ch, key, vel uint8
			switch {
			case ev.Message.GetNoteOn(&ch, &key, &vel) && vel > 0:
				open[key] = append(open[key], abs)
			case ev.Message.GetNoteOn(&ch, &key, &vel), ev.Message.GetNoteOff(&ch, &key, &vel):
				starts := open[key]
				if len(starts) == 0 {
					continue
				}
				start := starts[0]
				open[key] = starts[1:]
				onset := scale(start)
				if d := scale(abs) - onset; d > durations[onset] {
					durations[onset] = d
				}
			}
		}
		if len(durations) == 0 {
			continue
		}

		events := make([]model.Event, 0, len(durations))
		for onset, d := range durations {
			if d > 0 {
				events = append(events, model.Event{Onset: onset, Duration: d})
			}
		}
		res[len(res)] = rhythm.New(events)
	}
	return res, nil
}

// ReadRhythms reads a file and extracts its rhythms.
func ReadRhythms(path string, ticksPerBeat int) (map[int]*rhythm.Rhythm, error) {
	mf, err := ReadMidiFile(path)
	if err != nil {
		return nil, err
	}
	return Rhythms(mf, ticksPerBeat)
}
