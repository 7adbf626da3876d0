package metrics

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

// Certificate labels shown for the land-use certificate flag.
const (
	CertDisponible   = "DISPONIBLE"
	CertNoDisponible = "NO DISPONIBLE"
)

// Known building categories.
const (
	CategoriaAcademico      = "ACADÉMICO"
	CategoriaAdministrativo = "ADMINISTRATIVO"
	CategoriaBienestar      = "BIENESTAR"
	CategoriaDeportivo      = "DEPORTIVO"
	CategoriaLaboratorio    = "LABORATORIO"
	CategoriaBiblioteca     = "BIBLIOTECA"
	CategoriaServicios      = "SERVICIOS"
)

// Known ownership values.
const (
	PropiedadPropio    = "PROPIO"
	PropiedadArrendado = "ARRENDADO"
	PropiedadComodato  = "COMODATO"
)

// MetricRecord is one grouped statistics row over buildings.
type MetricRecord struct {
	Categoria              string   `json:"categoria"`
	Propiedad              string   `json:"propiedad"`
	CertUsoSuelo           bool     `json:"cert_uso_suelo"`
	SumaAreaTerreno        float64  `json:"suma_area_terreno"`
	SumaAreaConstruida     float64  `json:"suma_area_construida"`
	PromedioAreaTerreno    float64  `json:"promedio_area_terreno"`
	PromedioAreaConstruida float64  `json:"promedio_area_construida"`
	TotalEdificios         int      `json:"total_edificios"`
	IDsEdificios           []int    `json:"ids_edificios"`
	NombresSedesEdificios  []string `json:"nombres_sedes_edificios"`
}

// CertLabel maps the certificate flag to its display label.
func CertLabel(available bool) string {
	if available {
		return CertDisponible
	}
	return CertNoDisponible
}

// Cert returns the display label of the record's certificate flag.
func (r MetricRecord) Cert() string {
	return CertLabel(r.CertUsoSuelo)
}

// Categorical returns the value of a categorical field.
func (r MetricRecord) Categorical(f CategoricalField) (string, bool) {
	switch f {
	case FieldCategoria:
		return r.Categoria, true
	case FieldPropiedad:
		return r.Propiedad, true
	case FieldCertUsoSuelo:
		return r.Cert(), true
	}
	return "", false
}

// Numeric returns the value of a numeric field.
func (r MetricRecord) Numeric(f NumericField) (float64, bool) {
	switch f {
	case FieldSumaAreaTerreno:
		return r.SumaAreaTerreno, true
	case FieldSumaAreaConstruida:
		return r.SumaAreaConstruida, true
	case FieldPromedioAreaTerreno:
		return r.PromedioAreaTerreno, true
	case FieldPromedioAreaConstruida:
		return r.PromedioAreaConstruida, true
	case FieldTotalEdificios:
		return float64(r.TotalEdificios), true
	}
	return 0, false
}

// Validate checks the invariants every record must hold once fetched.
func (r MetricRecord) Validate() error {
	if len(r.IDsEdificios) != len(r.NombresSedesEdificios) {
		return eris.Errorf("metrics: record %s/%s has %d ids but %d names",
			r.Categoria, r.Propiedad, len(r.IDsEdificios), len(r.NombresSedesEdificios))
	}
	if r.TotalEdificios < 0 || r.SumaAreaTerreno < 0 || r.SumaAreaConstruida < 0 ||
		r.PromedioAreaTerreno < 0 || r.PromedioAreaConstruida < 0 {
		return eris.Errorf("metrics: record %s/%s has negative totals", r.Categoria, r.Propiedad)
	}
	return nil
}

type envelope struct {
	Data []MetricRecord `json:"data"`
}

// DecodeRecords reads a {"data": [...]} payload. Unknown fields and
// misaligned id/name sequences are rejected here so the filter never sees
// an untyped record.
func DecodeRecords(r io.Reader) ([]MetricRecord, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var env envelope
	if err := dec.Decode(&env); err != nil {
		return nil, eris.Wrap(err, "metrics: decode records")
	}
	if err := ValidateRecords(env.Data); err != nil {
		return nil, err
	}
	if env.Data == nil {
		env.Data = []MetricRecord{}
	}
	return env.Data, nil
}

// ValidateRecords runs Validate over every record.
func ValidateRecords(records []MetricRecord) error {
	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return eris.Wrapf(err, "metrics: record %d", i)
		}
	}
	return nil
}
