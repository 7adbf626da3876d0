package report

import (
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/02loveslollipop/edificios-dashboard/services/dashboard/metrics"
)

const (
	sheetMetricas  = "Metricas"
	sheetResumen   = "Resumen"
	sheetEdificios = "Edificios"
)

var metricasHeader = []any{
	"Categoría", "Propiedad", "Certificado uso de suelo",
	"Suma área terreno", "Suma área construida",
	"Promedio área terreno", "Promedio área construida",
	"Total edificios",
}

// WriteWorkbook exports the filtered records and their summary as xlsx.
func WriteWorkbook(w io.Writer, records []metrics.MetricRecord, views metrics.Views) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetMetricas); err != nil {
		return eris.Wrap(err, "report: rename sheet")
	}
	if err := writeMetricas(f, records); err != nil {
		return err
	}
	if err := writeResumen(f, views); err != nil {
		return err
	}
	if err := writeEdificios(f, records); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "report: write workbook")
	}
	return nil
}

func writeMetricas(f *excelize.File, records []metrics.MetricRecord) error {
	if err := f.SetSheetRow(sheetMetricas, "A1", &metricasHeader); err != nil {
		return eris.Wrap(err, "report: metricas header")
	}
	for i, r := range records {
		row := []any{
			r.Categoria, r.Propiedad, r.Cert(),
			r.SumaAreaTerreno, r.SumaAreaConstruida,
			r.PromedioAreaTerreno, r.PromedioAreaConstruida,
			r.TotalEdificios,
		}
		if err := f.SetSheetRow(sheetMetricas, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return eris.Wrapf(err, "report: metricas row %d", i)
		}
	}
	return nil
}

func writeResumen(f *excelize.File, views metrics.Views) error {
	if _, err := f.NewSheet(sheetResumen); err != nil {
		return eris.Wrap(err, "report: resumen sheet")
	}

	rows := [][]any{
		{"Suma área terreno", views.Resumen.SumaAreaTerreno},
		{"Suma área construida", views.Resumen.SumaAreaConstruida},
		{"Registros", views.Resumen.Registros},
		{"Edificios", views.Resumen.Edificios},
		{},
		{"Categoría", "Edificios"},
	}
	for _, b := range views.PorCategoria {
		rows = append(rows, []any{b.Label, b.Total})
	}
	rows = append(rows, []any{}, []any{"Propiedad", "Edificios"})
	for _, b := range views.PorPropiedad {
		rows = append(rows, []any{b.Label, b.Total})
	}
	rows = append(rows, []any{}, []any{"Certificado", "Edificios"})
	for _, b := range views.PorCertificado {
		rows = append(rows, []any{b.Label, b.Total})
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		if err := f.SetSheetRow(sheetResumen, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return eris.Wrapf(err, "report: resumen row %d", i)
		}
	}
	return nil
}

func writeEdificios(f *excelize.File, records []metrics.MetricRecord) error {
	if _, err := f.NewSheet(sheetEdificios); err != nil {
		return eris.Wrap(err, "report: edificios sheet")
	}
	header := []any{"ID edificio", "Sede - edificio", "Categoría", "Propiedad"}
	if err := f.SetSheetRow(sheetEdificios, "A1", &header); err != nil {
		return eris.Wrap(err, "report: edificios header")
	}

	line := 2
	for _, r := range records {
		for j, id := range r.IDsEdificios {
			var name string
			if j < len(r.NombresSedesEdificios) {
				name = r.NombresSedesEdificios[j]
			}
			row := []any{id, name, r.Categoria, r.Propiedad}
			if err := f.SetSheetRow(sheetEdificios, fmt.Sprintf("A%d", line), &row); err != nil {
				return eris.Wrapf(err, "report: edificios row %d", line)
			}
			line++
		}
	}
	return nil
}
