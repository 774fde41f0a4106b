package config

// Config describes one pattern: tuning, harmonic skeleton, voices and the
// policies the voice-leading engine enforces.
type Config struct {
	Tet          int           `koanf:"tet" validate:"min=2,max=96"`
	TicksPerBeat int           `koanf:"ticks_per_beat" validate:"min=1"`
	Bounds       Range         `koanf:"bounds"`
	Harmonies    []Harmony     `koanf:"harmonies" validate:"required,min=1,dive"`
	Voices       []Voice       `koanf:"voices" validate:"required,min=1,dive"`
	Engine       EngineConfig  `koanf:"engine"`
	Pattern      PatternConfig `koanf:"pattern"`
	Log          LogConfig     `koanf:"log"`
}

// Range is an inclusive pitch range.
type Range struct {
	Low  int `koanf:"low"`
	High int `koanf:"high"`
}

func (r Range) Contains(pitch int) bool {
	return pitch >= r.Low && pitch <= r.High
}

func (r Range) IsSet() bool {
	return r.High > r.Low
}

type Harmony struct {
	Start int   `koanf:"start" validate:"gte=0"`
	End   int   `koanf:"end" validate:"gtfield=Start"`
	Scale []int `koanf:"scale" validate:"required,min=1"`
	Chord []int `koanf:"chord" validate:"required,min=1"`
}

type Voice struct {
	ID int `koanf:"id" validate:"gte=0"`
	// Range is enforced when engine.enforce_ranges is set; otherwise only
	// the global bounds apply.
	Range  Range  `koanf:"range"`
	Rhythm Rhythm `koanf:"rhythm"`
}

// Rhythm is a one-bar template repeated over the whole pattern.
type Rhythm struct {
	Bar       int   `koanf:"bar" validate:"min=1"`
	Onsets    []int `koanf:"onsets" validate:"required,min=1"`
	Durations []int `koanf:"durations" validate:"required,min=1,dive,min=1"`
	// Repeats lists template positions that repeat the previous pitch.
	Repeats []int `koanf:"repeats"`
}

type EngineConfig struct {
	EnforceRanges    bool `koanf:"enforce_ranges"`
	ChordToneLeading bool `koanf:"chord_tone_leading"`
	// Flexible enables the note-by-note fallback after a whole-segment
	// attempt fails.
	Flexible       bool `koanf:"flexible"`
	FailureCeiling int  `koanf:"failure_ceiling" validate:"min=1"`

	Parallel ParallelConfig `koanf:"parallel"`

	// interval classes forbidden in parallel motion between two voices
	ForbiddenParallels []int `koanf:"forbidden_parallels"`
	// harmonic intervals forbidden against any sounding pitch
	ForbiddenIntervalClasses []int `koanf:"forbidden_interval_classes"`
	ForbiddenIntervals       []int `koanf:"forbidden_intervals"`

	Consonance ConsonanceConfig `koanf:"consonance"`
	Melodic    MelodicConfig    `koanf:"melodic"`
	Foot       FootConfig       `koanf:"foot"`
}

type ParallelConfig struct {
	Enabled   bool `koanf:"enabled"`
	ChordRoot bool `koanf:"chord_root"`
	Direction int  `koanf:"direction" validate:"min=-1,max=1"`
}

const (
	ConsonancePairwise = "pairwise"
	ConsonanceChord    = "chord"
)

type ConsonanceConfig struct {
	Enabled bool   `koanf:"enabled"`
	Mode    string `koanf:"mode" validate:"oneof=pairwise chord"`
	// IntervalClasses are the consonant classes for pairwise checking.
	IntervalClasses  []int `koanf:"interval_classes"`
	ChordTonesExempt bool  `koanf:"chord_tones_exempt"`
	// notes shorter than MinDuration ticks are exempt
	MinDuration int `koanf:"min_duration" validate:"gte=0"`
}

// Limits bound a melodic step. A zero maximum means unbounded.
type Limits struct {
	MaxGeneric  int `koanf:"max_generic" validate:"gte=0"`
	MinGeneric  int `koanf:"min_generic" validate:"gte=0"`
	MaxSpecific int `koanf:"max_specific" validate:"gte=0"`
	MinSpecific int `koanf:"min_specific" validate:"gte=0"`
}

type MelodicConfig struct {
	Enabled      bool   `koanf:"enabled"`
	ChordTone    Limits `koanf:"chord_tone"`
	NonChordTone Limits `koanf:"non_chord_tone"`
}

type FootConfig struct {
	// Voice carrying the harmonic foot; negative disables foot handling.
	Voice int `koanf:"voice" validate:"gte=-1"`
	// Force places the chord root on the voice's first note under each
	// harmony.
	Force bool `koanf:"force"`
	// PreserveBeats are beat numbers, counted from the harmony start, on
	// which a root in the foot voice stays a root.
	PreserveBeats []int `koanf:"preserve_beats"`
}

type PatternConfig struct {
	SegmentLength int    `koanf:"segment_length" validate:"min=1"`
	Seed          uint64 `koanf:"seed"`
	Attempts      int    `koanf:"attempts" validate:"min=1"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}
