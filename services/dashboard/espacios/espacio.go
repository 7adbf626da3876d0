package espacios

import (
	"sort"
	"strings"
)

// Espacio is a room or space inside a building, as served by the backend.
type Espacio struct {
	ID            int     `json:"id_espacio"`
	Nombre        string  `json:"nombre"`
	Estado        string  `json:"estado"`
	Clasificacion string  `json:"clasificacion"`
	Uso           string  `json:"uso"`
	Tipo          string  `json:"tipo"`
	Piso          string  `json:"piso"`
	Capacidad     float64 `json:"capacidad"`
	MedicionMt2   float64 `json:"medicionmt2"`
}

// FieldErrors maps a JSON field name to a message for the edit form.
type FieldErrors map[string]string

// Error lists the offending fields in stable order.
func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+fe[f])
	}
	return "espacios: invalid " + strings.Join(parts, "; ")
}

// Validate checks the edit form rules. It returns nil or FieldErrors.
func (e Espacio) Validate() error {
	errs := FieldErrors{}
	if strings.TrimSpace(e.Nombre) == "" {
		errs["nombre"] = "es obligatorio"
	}
	for field, v := range map[string]string{
		"estado":        e.Estado,
		"clasificacion": e.Clasificacion,
		"uso":           e.Uso,
		"tipo":          e.Tipo,
		"piso":          e.Piso,
	} {
		if strings.TrimSpace(v) == "" {
			errs[field] = "debe seleccionar un valor"
		}
	}
	if e.Capacidad <= 0 {
		errs["capacidad"] = "debe ser mayor que cero"
	}
	if e.MedicionMt2 <= 0 {
		errs["medicionmt2"] = "debe ser mayor que cero"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
