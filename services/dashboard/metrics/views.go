package metrics

import (
	"github.com/samber/lo"
)

// Bucket is one grouped count.
type Bucket struct {
	Label string `json:"label"`
	Total int    `json:"total"`
	Color string `json:"color"`
}

// Series is one ownership value across all categories of the stacked view.
type Series struct {
	Name   string    `json:"name"`
	Color  string    `json:"color"`
	Values []float64 `json:"values"`
}

// StackedView groups built area by (categoria, propiedad). Values[i] of
// each series lines up with Categories[i]; absent pairs hold 0.
type StackedView struct {
	Categories []string `json:"categories"`
	Series     []Series `json:"series"`
}

// Total sums every cell of the grid.
func (v StackedView) Total() float64 {
	var sum float64
	for _, s := range v.Series {
		for _, x := range s.Values {
			sum += x
		}
	}
	return sum
}

// Summary holds the flat totals of the textual summary panel.
type Summary struct {
	SumaAreaTerreno    float64 `json:"suma_area_terreno"`
	SumaAreaConstruida float64 `json:"suma_area_construida"`
	Registros          int     `json:"registros"`
	Edificios          int     `json:"edificios"`
}

// Views bundles every presentation derived from one filtered set.
type Views struct {
	Stacked        StackedView `json:"stacked"`
	PorCategoria   []Bucket    `json:"por_categoria"`
	PorPropiedad   []Bucket    `json:"por_propiedad"`
	PorCertificado []Bucket    `json:"por_certificado"`
	Resumen        Summary     `json:"resumen"`
}

// BuildViews derives all views from records. Nothing is cached; callers
// rebuild after every filter change.
func BuildViews(records []MetricRecord) Views {
	return Views{
		Stacked:        BuildStacked(records),
		PorCategoria:   CountBy(records, func(r MetricRecord) string { return r.Categoria }, CategoriaColor),
		PorPropiedad:   CountBy(records, func(r MetricRecord) string { return r.Propiedad }, PropiedadColor),
		PorCertificado: CountBy(records, MetricRecord.Cert, CertColor),
		Resumen:        Summarize(records),
	}
}

// BuildStacked lays out built area by category (first-seen order) and
// ownership (first-seen order). Repeated pairs are summed.
func BuildStacked(records []MetricRecord) StackedView {
	categories := lo.Uniq(lo.Map(records, func(r MetricRecord, _ int) string { return r.Categoria }))
	owners := lo.Uniq(lo.Map(records, func(r MetricRecord, _ int) string { return r.Propiedad }))

	catIndex := make(map[string]int, len(categories))
	for i, c := range categories {
		catIndex[c] = i
	}
	ownerIndex := make(map[string]int, len(owners))
	series := make([]Series, len(owners))
	for i, o := range owners {
		ownerIndex[o] = i
		series[i] = Series{Name: o, Color: PropiedadColor(o), Values: make([]float64, len(categories))}
	}

	for _, r := range records {
		series[ownerIndex[r.Propiedad]].Values[catIndex[r.Categoria]] += r.SumaAreaConstruida
	}

	return StackedView{Categories: categories, Series: series}
}

// CountBy sums total_edificios per key, keeping first-seen key order.
func CountBy(records []MetricRecord, key func(MetricRecord) string, color func(string) string) []Bucket {
	buckets := make([]Bucket, 0)
	index := make(map[string]int)
	for _, r := range records {
		k := key(r)
		i, ok := index[k]
		if !ok {
			i = len(buckets)
			index[k] = i
			buckets = append(buckets, Bucket{Label: k, Color: color(k)})
		}
		buckets[i].Total += r.TotalEdificios
	}
	return buckets
}

// Summarize adds up the area totals across records.
func Summarize(records []MetricRecord) Summary {
	var s Summary
	for _, r := range records {
		s.SumaAreaTerreno += r.SumaAreaTerreno
		s.SumaAreaConstruida += r.SumaAreaConstruida
		s.Edificios += r.TotalEdificios
	}
	s.Registros = len(records)
	return s
}

// BuildingIDs flattens ids_edificios in record order, then in-record order.
func BuildingIDs(records []MetricRecord) []int {
	return lo.FlatMap(records, func(r MetricRecord, _ int) []int { return r.IDsEdificios })
}
