package engine

import (
	"fmt"

	"github.com/jsphweid/voicelead/metrics"
	"github.com/jsphweid/voicelead/model"
)

// Diagnostics accumulates failure counts across one engine walk.
type Diagnostics struct {
	total        int
	exhaustions  int
	byReason     map[model.Reason]int
	byTransition map[model.Transition]int
}

func NewDiagnostics() *Diagnostics {
	return &Diagnostics{
		byReason:     make(map[model.Reason]int),
		byTransition: make(map[model.Transition]int),
	}
}

func (d *Diagnostics) recordFailure(t model.Transition, reason model.Reason) {
	d.total++
	d.byReason[reason]++
	d.byTransition[t]++
	metrics.RecordFailure(reason.String())
}

func (d *Diagnostics) recordExhaustion() {
	d.exhaustions++
	metrics.RecordExhaustion()
}

// Total is the number of rejected pitches.
func (d *Diagnostics) Total() int {
	return d.total
}

func (d *Diagnostics) Exhaustions() int {
	return d.exhaustions
}

// ByReason is keyed by reason name and lists every reason, counted or not.
func (d *Diagnostics) ByReason() map[string]int {
	res := make(map[string]int, len(model.Reasons))
	for _, r := range model.Reasons {
		res[r.String()] = d.byReason[r]
	}
	return res
}

func (d *Diagnostics) ByTransition() map[model.Transition]int {
	res := make(map[model.Transition]int, len(d.byTransition))
	for t, n := range d.byTransition {
		res[t] = n
	}
	return res
}

// Fill copies the counts into a run report.
func (d *Diagnostics) Fill(r *model.RunReport) {
	r.Failures = d.ByReason()
	r.Transitions = make(map[string]int, len(d.byTransition))
	for t, n := range d.byTransition {
		r.Transitions[fmt.Sprintf("%d->%d", t.From, t.To)] = n
	}
}
