// Package config provides configuration loading and validation for
// voicelead patterns.
package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jsphweid/voicelead/constants"
	"github.com/jsphweid/voicelead/harmony"
	"github.com/jsphweid/voicelead/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewDefaultConfig returns defaults for everything except the harmonies
// and voices, which every pattern has to provide.
func NewDefaultConfig() *Config {
	return &Config{
		Tet:          12,
		TicksPerBeat: constants.DefaultTicksPerBeat,
		Bounds:       Range{Low: 28, High: 96},
		Engine: EngineConfig{
			Flexible:       true,
			FailureCeiling: 5000,
			Consonance: ConsonanceConfig{
				Mode:             ConsonancePairwise,
				ChordTonesExempt: true,
			},
			Foot: FootConfig{Voice: -1},
		},
		Pattern: PatternConfig{
			SegmentLength: 4 * constants.DefaultTicksPerBeat,
			Seed:          1,
			Attempts:      10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// applyDefaults fills list settings left empty by the file. Lists are not
// pre-filled in NewDefaultConfig so a file can replace them wholesale.
func (c *Config) applyDefaults() {
	if len(c.Engine.Consonance.IntervalClasses) == 0 && c.Tet == 12 {
		c.Engine.Consonance.IntervalClasses = []int{0, 3, 4, 5}
	}
}

// Validate checks struct tags and the cross-field rules the engine relies
// on.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var errs []error
	if _, err := harmony.NewProgression(c.Tet, c.ModelHarmonies()); err != nil {
		errs = append(errs, err)
	}
	if c.Bounds.High-c.Bounds.Low < c.Tet {
		errs = append(errs, fmt.Errorf("bounds [%d, %d] must span at least one octave of %d", c.Bounds.Low, c.Bounds.High, c.Tet))
	}

	ids := make(map[int]bool)
	for _, v := range c.Voices {
		if ids[v.ID] {
			errs = append(errs, fmt.Errorf("voice %d declared twice", v.ID))
		}
		ids[v.ID] = true
		if v.Range.IsSet() && (v.Range.Low < c.Bounds.Low || v.Range.High > c.Bounds.High) {
			errs = append(errs, fmt.Errorf("voice %d range [%d, %d] leaves the bounds", v.ID, v.Range.Low, v.Range.High))
		}
		if len(v.Rhythm.Onsets) != len(v.Rhythm.Durations) {
			errs = append(errs, fmt.Errorf("voice %d rhythm has %d onsets but %d durations", v.ID, len(v.Rhythm.Onsets), len(v.Rhythm.Durations)))
		}
	}
	if c.Engine.Foot.Voice >= 0 && !ids[c.Engine.Foot.Voice] {
		errs = append(errs, fmt.Errorf("foot voice %d is not declared", c.Engine.Foot.Voice))
	}

	if !c.Engine.Parallel.Enabled {
		first := c.Harmonies[0]
		for i, h := range c.Harmonies {
			if len(h.Scale) != len(first.Scale) {
				errs = append(errs, fmt.Errorf("harmony %d scale has %d tones, harmony 0 has %d", i, len(h.Scale), len(first.Scale)))
			}
			if c.Engine.ChordToneLeading && len(h.Chord) != len(first.Chord) {
				errs = append(errs, fmt.Errorf("harmony %d chord has %d tones, harmony 0 has %d", i, len(h.Chord), len(first.Chord)))
			}
		}
	}
	return errors.Join(errs...)
}

// Voice looks a voice up by ID.
func (c *Config) Voice(id int) (Voice, bool) {
	for _, v := range c.Voices {
		if v.ID == id {
			return v, true
		}
	}
	return Voice{}, false
}

// RangeFor is the explicit range of a voice when it has one, else the
// global bounds.
func (c *Config) RangeFor(id int) Range {
	if v, ok := c.Voice(id); ok && v.Range.IsSet() {
		return v.Range
	}
	return c.Bounds
}

func (c *Config) VoiceIDs() []int {
	var res []int
	for _, v := range c.Voices {
		res = append(res, v.ID)
	}
	return res
}

func (c *Config) ModelHarmonies() []model.Harmony {
	res := make([]model.Harmony, len(c.Harmonies))
	for i, h := range c.Harmonies {
		res[i] = model.Harmony{ID: i, Start: h.Start, End: h.End, Scale: h.Scale, Chord: h.Chord}
	}
	return res
}
