package metrics

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// CategoricalField names a set-membership filter.
type CategoricalField string

const (
	FieldCategoria    CategoricalField = "categoria"
	FieldPropiedad    CategoricalField = "propiedad"
	FieldCertUsoSuelo CategoricalField = "certUsoSuelo"
)

// CategoricalFields lists the categorical filters in display order.
var CategoricalFields = []CategoricalField{FieldCategoria, FieldPropiedad, FieldCertUsoSuelo}

// NumericField names an operator/threshold filter.
type NumericField string

const (
	FieldSumaAreaTerreno        NumericField = "suma_area_terreno"
	FieldSumaAreaConstruida     NumericField = "suma_area_construida"
	FieldPromedioAreaTerreno    NumericField = "promedio_area_terreno"
	FieldPromedioAreaConstruida NumericField = "promedio_area_construida"
	FieldTotalEdificios         NumericField = "total_edificios"
)

// NumericFields lists the numeric filters in display order.
var NumericFields = []NumericField{
	FieldSumaAreaTerreno,
	FieldSumaAreaConstruida,
	FieldPromedioAreaTerreno,
	FieldPromedioAreaConstruida,
	FieldTotalEdificios,
}

// ErrUnknownField is returned when a filter names a field records do not carry.
var ErrUnknownField = eris.New("metrics: unknown filter field")

// ParseCategoricalField validates a categorical field name.
func ParseCategoricalField(s string) (CategoricalField, error) {
	for _, f := range CategoricalFields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", eris.Wrapf(ErrUnknownField, "categorical %q", s)
}

// ParseNumericField validates a numeric field name.
func ParseNumericField(s string) (NumericField, error) {
	for _, f := range NumericFields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", eris.Wrapf(ErrUnknownField, "numeric %q", s)
}

// Operator is the comparison applied by a numeric filter.
type Operator string

const (
	OpGreaterThan Operator = ">"
	OpLessThan    Operator = "<"
	OpEqual       Operator = "="
)

// Threshold is an optional numeric bound. The zero value is unset.
type Threshold struct {
	value float64
	set   bool
}

// At returns a threshold set to v.
func At(v float64) Threshold {
	return Threshold{value: v, set: true}
}

// ParseThreshold reads user input. Empty, non-numeric or non-finite input
// ("NaN", "Inf") yields an unset threshold, which disables the filter
// instead of rejecting it.
func ParseThreshold(s string) Threshold {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Threshold{}
	}
	return At(v)
}

// Value returns the bound and whether it is set.
func (t Threshold) Value() (float64, bool) {
	return t.value, t.set
}

// IsSet reports whether the threshold constrains anything.
func (t Threshold) IsSet() bool {
	return t.set
}

// MarshalJSON encodes an unset threshold as null.
func (t Threshold) MarshalJSON() ([]byte, error) {
	if !t.set {
		return []byte("null"), nil
	}
	return json.Marshal(t.value)
}

// UnmarshalJSON accepts numbers and numeric strings; anything else leaves
// the threshold unset.
func (t *Threshold) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*t = Threshold{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		*t = ParseThreshold(s)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	*t = At(v)
	return nil
}

// NumericFilter compares one numeric field against a threshold.
type NumericFilter struct {
	Op        Operator  `json:"operador"`
	Threshold Threshold `json:"valor"`
}

// Matches reports whether v passes the filter.
func (n NumericFilter) Matches(v float64) bool {
	t, ok := n.Threshold.Value()
	if !ok {
		return true
	}
	switch n.Op {
	case OpGreaterThan:
		return v > t
	case OpLessThan:
		return v < t
	case OpEqual:
		// literal equality, no tolerance
		return v == t
	}
	return true
}

// Criteria is the complete filter selection. Treat it as a value: the
// transition functions in state.go never mutate a Criteria in place.
type Criteria struct {
	Categorical map[CategoricalField]map[string]struct{}
	Numeric     map[NumericField]NumericFilter
}

// NewCriteria returns the neutral selection, which matches every record.
func NewCriteria() Criteria {
	return Criteria{
		Categorical: map[CategoricalField]map[string]struct{}{},
		Numeric:     map[NumericField]NumericFilter{},
	}
}

// Clone returns a deep copy.
func (c Criteria) Clone() Criteria {
	out := NewCriteria()
	for f, set := range c.Categorical {
		cp := make(map[string]struct{}, len(set))
		for v := range set {
			cp[v] = struct{}{}
		}
		out.Categorical[f] = cp
	}
	for f, n := range c.Numeric {
		out.Numeric[f] = n
	}
	return out
}

// Selected returns the chosen values of a categorical field, sorted.
func (c Criteria) Selected(f CategoricalField) []string {
	set := c.Categorical[f]
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// IsNeutral reports whether the criteria exclude nothing.
func (c Criteria) IsNeutral() bool {
	for _, set := range c.Categorical {
		if len(set) > 0 {
			return false
		}
	}
	for _, n := range c.Numeric {
		if n.Threshold.IsSet() {
			return false
		}
	}
	return true
}

// criteriaJSON is the wire shape used by the dashboard API.
type criteriaJSON struct {
	Categoria    []string                       `json:"categoria"`
	Propiedad    []string                       `json:"propiedad"`
	CertUsoSuelo []string                       `json:"certUsoSuelo"`
	Numericos    map[NumericField]NumericFilter `json:"numericos"`
}

// MarshalJSON renders the selection with sorted value lists.
func (c Criteria) MarshalJSON() ([]byte, error) {
	out := criteriaJSON{
		Categoria:    c.Selected(FieldCategoria),
		Propiedad:    c.Selected(FieldPropiedad),
		CertUsoSuelo: c.Selected(FieldCertUsoSuelo),
		Numericos:    c.Numeric,
	}
	if out.Numericos == nil {
		out.Numericos = map[NumericField]NumericFilter{}
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the wire shape. Unknown numeric fields are dropped.
func (c *Criteria) UnmarshalJSON(b []byte) error {
	var in criteriaJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return eris.Wrap(err, "metrics: decode criteria")
	}
	out := NewCriteria()
	for f, values := range map[CategoricalField][]string{
		FieldCategoria:    in.Categoria,
		FieldPropiedad:    in.Propiedad,
		FieldCertUsoSuelo: in.CertUsoSuelo,
	} {
		if len(values) == 0 {
			continue
		}
		set := make(map[string]struct{}, len(values))
		for _, v := range values {
			set[v] = struct{}{}
		}
		out.Categorical[f] = set
	}
	for name, n := range in.Numericos {
		f, err := ParseNumericField(string(name))
		if err != nil {
			continue
		}
		out.Numeric[f] = n
	}
	*c = out
	return nil
}

// Evaluate decides whether a record passes every filter. Within a
// categorical field any selected value matches; fields combine with AND.
func Evaluate(rec MetricRecord, c Criteria) bool {
	for f, set := range c.Categorical {
		if len(set) == 0 {
			continue
		}
		v, ok := rec.Categorical(f)
		if !ok {
			continue
		}
		if _, hit := set[v]; !hit {
			return false
		}
	}
	for f, n := range c.Numeric {
		v, ok := rec.Numeric(f)
		if !ok {
			continue
		}
		if !n.Matches(v) {
			return false
		}
	}
	return true
}

// Filter returns the records that pass c, in input order.
func Filter(records []MetricRecord, c Criteria) []MetricRecord {
	out := make([]MetricRecord, 0, len(records))
	for _, rec := range records {
		if Evaluate(rec, c) {
			out = append(out, rec)
		}
	}
	return out
}
