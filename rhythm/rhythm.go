// Package rhythm holds the onset/duration skeleton a voice is pitched on.
package rhythm

import (
	"fmt"
	"sort"

	"github.com/jsphweid/voicelead/config"
	"github.com/jsphweid/voicelead/model"
	"github.com/jsphweid/voicelead/util"
)

// Rhythm is a voice's events ordered by onset.
type Rhythm struct {
	events []model.Event
}

func New(events []model.Event) *Rhythm {
	sorted := append([]model.Event(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Onset < sorted[j].Onset
	})
	return &Rhythm{events: sorted}
}

// FromTemplate repeats a one-bar template until total. Events are cut at
// total.
func FromTemplate(t config.Rhythm, total int) (*Rhythm, error) {
	if len(t.Onsets) != len(t.Durations) {
		return nil, fmt.Errorf("template has %d onsets but %d durations", len(t.Onsets), len(t.Durations))
	}
	if t.Bar <= 0 {
		return nil, fmt.Errorf("bar length must be positive, got %d", t.Bar)
	}
	for _, onset := range t.Onsets {
		if onset < 0 || onset >= t.Bar {
			return nil, fmt.Errorf("onset %d outside a bar of %d", onset, t.Bar)
		}
	}

	var events []model.Event
	for bar := 0; bar < total; bar += t.Bar {
		for i, onset := range t.Onsets {
			start := bar + onset
			if start >= total {
				continue
			}
			events = append(events, model.Event{
				Onset:    start,
				Duration: util.Min(t.Durations[i], total-start),
				// the very first event has nothing to repeat
				Repeat: start > 0 && util.Contains(t.Repeats, i),
			})
		}
	}
	return New(events), nil
}

func (r *Rhythm) Len() int {
	return len(r.events)
}

func (r *Rhythm) At(i int) model.Event {
	return r.events[i]
}

// Between returns the events with onsets in [start, end).
func (r *Rhythm) Between(start, end int) []model.Event {
	lo := sort.Search(len(r.events), func(i int) bool {
		return r.events[i].Onset >= start
	})
	hi := sort.Search(len(r.events), func(i int) bool {
		return r.events[i].Onset >= end
	})
	return r.events[lo:hi]
}

// End is the offset of the last event.
func (r *Rhythm) End() int {
	end := 0
	for _, e := range r.events {
		end = util.Max(end, e.Onset+e.Duration)
	}
	return end
}
