package metrics

import "slices"

// Phase is the controller's position in its two-state machine.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseFiltered Phase = "filtered"
)

// State is an immutable snapshot of the filter selection and its result.
// Transitions return a new State and leave the receiver untouched.
type State struct {
	phase    Phase
	criteria Criteria
	filtered []MetricRecord
}

// InitialState is Idle with neutral criteria over the full record set.
func InitialState(records []MetricRecord) State {
	return State{
		phase:    PhaseIdle,
		criteria: NewCriteria(),
		filtered: cloneRecords(records),
	}
}

// Phase returns the current phase.
func (s State) Phase() Phase { return s.phase }

// Criteria returns a copy of the current selection.
func (s State) Criteria() Criteria { return s.criteria.Clone() }

// Filtered returns a copy of the records that passed the last evaluation.
func (s State) Filtered() []MetricRecord { return cloneRecords(s.filtered) }

// ToggleCategorical removes value from the field's selection when present
// and adds it otherwise. The filtered set is unchanged until Apply.
func (s State) ToggleCategorical(f CategoricalField, value string) State {
	next := s.withCriteria(s.criteria.Clone())
	set := next.criteria.Categorical[f]
	if set == nil {
		set = map[string]struct{}{}
		next.criteria.Categorical[f] = set
	}
	if _, ok := set[value]; ok {
		delete(set, value)
	} else {
		set[value] = struct{}{}
	}
	return next
}

// SetNumericFilter replaces the pair for f wholesale.
func (s State) SetNumericFilter(f NumericField, op Operator, t Threshold) State {
	next := s.withCriteria(s.criteria.Clone())
	next.criteria.Numeric[f] = NumericFilter{Op: op, Threshold: t}
	return next
}

// WithCriteria replaces the whole selection.
func (s State) WithCriteria(c Criteria) State {
	return s.withCriteria(c.Clone())
}

// Apply evaluates every record against the current criteria.
func (s State) Apply(records []MetricRecord) State {
	return State{
		phase:    PhaseFiltered,
		criteria: s.criteria.Clone(),
		filtered: Filter(records, s.criteria),
	}
}

// Reset clears every selection and restores the full set.
func (s State) Reset(records []MetricRecord) State {
	return InitialState(records)
}

func (s State) withCriteria(c Criteria) State {
	return State{phase: s.phase, criteria: c, filtered: s.filtered}
}

// cloneRecords deep-copies records, including the id and name slices.
func cloneRecords(records []MetricRecord) []MetricRecord {
	out := make([]MetricRecord, len(records))
	for i, r := range records {
		r.IDsEdificios = slices.Clone(r.IDsEdificios)
		r.NombresSedesEdificios = slices.Clone(r.NombresSedesEdificios)
		out[i] = r
	}
	return out
}
