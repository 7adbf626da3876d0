package metrics

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []MetricRecord {
	return []MetricRecord{
		{
			Categoria: CategoriaAcademico, Propiedad: PropiedadPropio, CertUsoSuelo: true,
			SumaAreaTerreno: 1200, SumaAreaConstruida: 100, PromedioAreaTerreno: 600, PromedioAreaConstruida: 50,
			TotalEdificios: 2, IDsEdificios: []int{1, 2}, NombresSedesEdificios: []string{"Meléndez - 101", "Meléndez - 102"},
		},
		{
			Categoria: CategoriaAcademico, Propiedad: PropiedadArrendado, CertUsoSuelo: false,
			SumaAreaTerreno: 300, SumaAreaConstruida: 50, PromedioAreaTerreno: 300, PromedioAreaConstruida: 50,
			TotalEdificios: 1, IDsEdificios: []int{7}, NombresSedesEdificios: []string{"San Fernando - 7"},
		},
		{
			Categoria: CategoriaDeportivo, Propiedad: PropiedadPropio, CertUsoSuelo: false,
			SumaAreaTerreno: 5000, SumaAreaConstruida: 800, PromedioAreaTerreno: 2500, PromedioAreaConstruida: 400,
			TotalEdificios: 2, IDsEdificios: []int{3, 4}, NombresSedesEdificios: []string{"Meléndez - 3", "Meléndez - 4"},
		},
	}
}

func TestEvaluate_NeutralCriteriaMatchesEverything(t *testing.T) {
	c := NewCriteria()
	c.Numeric[FieldSumaAreaTerreno] = NumericFilter{Op: OpGreaterThan}
	c.Categorical[FieldPropiedad] = map[string]struct{}{}

	for _, rec := range sampleRecords() {
		assert.True(t, Evaluate(rec, c), "record %s/%s", rec.Categoria, rec.Propiedad)
	}
	assert.True(t, c.IsNeutral())
}

func TestEvaluate_CategoricalOrWithinAndAcross(t *testing.T) {
	records := sampleRecords()

	c := NewCriteria()
	c.Categorical[FieldCategoria] = map[string]struct{}{CategoriaAcademico: {}, CategoriaDeportivo: {}}
	assert.Len(t, Filter(records, c), 3)

	c.Categorical[FieldPropiedad] = map[string]struct{}{PropiedadPropio: {}}
	got := Filter(records, c)
	require.Len(t, got, 2)
	assert.Equal(t, CategoriaAcademico, got[0].Categoria)
	assert.Equal(t, CategoriaDeportivo, got[1].Categoria)

	c.Categorical[FieldCertUsoSuelo] = map[string]struct{}{CertDisponible: {}}
	got = Filter(records, c)
	require.Len(t, got, 1)
	assert.Equal(t, []int{1, 2}, got[0].IDsEdificios)
}

func TestNumericFilter_Operators(t *testing.T) {
	tests := []struct {
		name  string
		op    Operator
		value float64
		want  bool
	}{
		{"greater below", OpGreaterThan, 499.999, false},
		{"greater equal", OpGreaterThan, 500, false},
		{"greater above", OpGreaterThan, 500.001, true},
		{"less below", OpLessThan, 499.999, true},
		{"less equal", OpLessThan, 500, false},
		{"less above", OpLessThan, 500.001, false},
		{"equal exact", OpEqual, 500, true},
		{"equal near", OpEqual, 500.0000001, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCriteria()
			c.Numeric[FieldPromedioAreaTerreno] = NumericFilter{Op: tt.op, Threshold: At(500)}
			rec := MetricRecord{PromedioAreaTerreno: tt.value}
			assert.Equal(t, tt.want, Evaluate(rec, c))
		})
	}
}

func TestNumericFilter_EqualHasNoTolerance(t *testing.T) {
	// 0.1+0.2 != 0.3 in float64; the equality filter reproduces that.
	n := NumericFilter{Op: OpEqual, Threshold: At(0.3)}
	assert.False(t, n.Matches(0.1+0.2))
}

func TestNumericFilter_TotalEdificiosComparesAsNumber(t *testing.T) {
	c := NewCriteria()
	c.Numeric[FieldTotalEdificios] = NumericFilter{Op: OpEqual, Threshold: At(1)}
	got := Filter(sampleRecords(), c)
	require.Len(t, got, 1)
	assert.Equal(t, PropiedadArrendado, got[0].Propiedad)
}

func TestNumericFilter_UnknownOperatorIsNoop(t *testing.T) {
	n := NumericFilter{Op: Operator(">="), Threshold: At(10)}
	assert.True(t, n.Matches(1))
}

// Malformed threshold input disables the filter rather than being
// rejected. This is preserved behaviour and is pinned here so any change
// to it is deliberate.
func TestParseThreshold_MalformedInputDisablesFilter(t *testing.T) {
	for _, in := range []string{"", "  ", "abc", "12,5", "1e", "NaN", "nan", "Inf", "-Infinity", "+inf"} {
		th := ParseThreshold(in)
		assert.False(t, th.IsSet(), "input %q", in)

		for _, op := range []Operator{OpGreaterThan, OpLessThan, OpEqual} {
			n := NumericFilter{Op: op, Threshold: th}
			assert.True(t, n.Matches(-1), "input %q op %s", in, op)
			assert.True(t, n.Matches(1e9), "input %q op %s", in, op)
		}
	}

	v, ok := ParseThreshold(" 42.5 ").Value()
	assert.True(t, ok)
	assert.Equal(t, 42.5, v)
}

func TestThreshold_JSON(t *testing.T) {
	var n NumericFilter
	require.NoError(t, json.Unmarshal([]byte(`{"operador":">","valor":"500"}`), &n))
	v, ok := n.Threshold.Value()
	require.True(t, ok)
	assert.Equal(t, 500.0, v)

	require.NoError(t, json.Unmarshal([]byte(`{"operador":"<","valor":12}`), &n))
	assert.Equal(t, OpLessThan, n.Op)
	v, _ = n.Threshold.Value()
	assert.Equal(t, 12.0, v)

	for _, raw := range []string{`null`, `"x"`, `""`, `true`, `[1]`, `"NaN"`, `"Infinity"`} {
		require.NoError(t, json.Unmarshal([]byte(`{"operador":">","valor":`+raw+`}`), &n), raw)
		assert.False(t, n.Threshold.IsSet(), raw)
	}

	out, err := json.Marshal(NumericFilter{Op: OpEqual})
	require.NoError(t, err)
	assert.JSONEq(t, `{"operador":"=","valor":null}`, string(out))
}

func TestCriteria_JSONRoundTrip(t *testing.T) {
	raw := `{
		"categoria": ["DEPORTIVO", "ACADÉMICO"],
		"propiedad": [],
		"certUsoSuelo": ["DISPONIBLE"],
		"numericos": {"suma_area_construida": {"operador": ">", "valor": 75}, "bogus": {"operador": ">", "valor": 1}}
	}`
	var c Criteria
	require.NoError(t, json.Unmarshal([]byte(raw), &c))

	assert.Equal(t, []string{"ACADÉMICO", "DEPORTIVO"}, c.Selected(FieldCategoria))
	assert.Empty(t, c.Selected(FieldPropiedad))
	assert.Len(t, c.Numeric, 1)

	got := Filter(sampleRecords(), c)
	require.Len(t, got, 1)
	assert.Equal(t, 100.0, got[0].SumaAreaConstruida)

	out, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"categoria": ["ACADÉMICO", "DEPORTIVO"],
		"propiedad": [],
		"certUsoSuelo": ["DISPONIBLE"],
		"numericos": {"suma_area_construida": {"operador": ">", "valor": 75}}
	}`, string(out))
}

func TestParseFields(t *testing.T) {
	f, err := ParseCategoricalField("certUsoSuelo")
	require.NoError(t, err)
	assert.Equal(t, FieldCertUsoSuelo, f)

	_, err = ParseCategoricalField("sede")
	assert.ErrorIs(t, err, ErrUnknownField)

	n, err := ParseNumericField("total_edificios")
	require.NoError(t, err)
	assert.Equal(t, FieldTotalEdificios, n)

	_, err = ParseNumericField("pisos")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestDecodeRecords(t *testing.T) {
	payload := `{"data":[{"categoria":"ACADÉMICO","propiedad":"PROPIO","cert_uso_suelo":true,
		"suma_area_terreno":10,"suma_area_construida":5,"promedio_area_terreno":10,"promedio_area_construida":5,
		"total_edificios":1,"ids_edificios":[9],"nombres_sedes_edificios":["Meléndez - 9"]}]}`

	records, err := DecodeRecords(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, CertDisponible, records[0].Cert())
	assert.Equal(t, []int{9}, records[0].IDsEdificios)
}

func TestDecodeRecords_RejectsUnknownFields(t *testing.T) {
	_, err := DecodeRecords(strings.NewReader(`{"data":[{"categoria":"X","color":"red"}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode records")
}

func TestDecodeRecords_RejectsMisalignedNames(t *testing.T) {
	_, err := DecodeRecords(strings.NewReader(`{"data":[{"categoria":"X","ids_edificios":[1,2],"nombres_sedes_edificios":["a"]}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 ids but 1 names")
}

func TestDecodeRecords_EmptyData(t *testing.T) {
	records, err := DecodeRecords(strings.NewReader(`{"data":null}`))
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}
