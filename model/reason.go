package model

// Reason tags why a candidate pitch was rejected.
type Reason int

const (
	OutOfRange Reason = iota
	ForbiddenParallel
	ForbiddenInterval
	NotConsonant
	MelodicLimit
)

var Reasons = []Reason{OutOfRange, ForbiddenParallel, ForbiddenInterval, NotConsonant, MelodicLimit}

func (r Reason) String() string {
	switch r {
	case OutOfRange:
		return "range"
	case ForbiddenParallel:
		return "parallels"
	case ForbiddenInterval:
		return "harmonic-interval"
	case NotConsonant:
		return "consonance"
	case MelodicLimit:
		return "melodic-limit"
	}
	return "unknown"
}
