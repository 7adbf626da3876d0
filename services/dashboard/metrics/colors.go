package metrics

// NeutralColor is used for any value missing from the lookup tables.
const NeutralColor = "#9E9E9E"

var categoriaColors = map[string]string{
	CategoriaAcademico:      "#1F77B4",
	CategoriaAdministrativo: "#FF7F0E",
	CategoriaBienestar:      "#2CA02C",
	CategoriaDeportivo:      "#D62728",
	CategoriaLaboratorio:    "#9467BD",
	CategoriaBiblioteca:     "#8C564B",
	CategoriaServicios:      "#E377C2",
}

var propiedadColors = map[string]string{
	PropiedadPropio:    "#4E79A7",
	PropiedadArrendado: "#F28E2B",
	PropiedadComodato:  "#59A14F",
}

var certColors = map[string]string{
	CertDisponible:   "#2E7D32",
	CertNoDisponible: "#C62828",
}

func lookupColor(table map[string]string, v string) string {
	if c, ok := table[v]; ok {
		return c
	}
	return NeutralColor
}

// CategoriaColor returns the fixed color of a building category.
func CategoriaColor(v string) string { return lookupColor(categoriaColors, v) }

// PropiedadColor returns the fixed color of an ownership value.
func PropiedadColor(v string) string { return lookupColor(propiedadColors, v) }

// CertColor returns the fixed color of a certificate label.
func CertColor(v string) string { return lookupColor(certColors, v) }
