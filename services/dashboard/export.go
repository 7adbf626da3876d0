package main

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/02loveslollipop/edificios-dashboard/services/dashboard/metrics"
	"github.com/02loveslollipop/edificios-dashboard/services/dashboard/report"
)

var (
	exportSedes      []int
	exportCategorias []string
	exportPropiedad  []string
	exportCert       []string
	exportWhere      []string
	exportToken      string
	exportOut        string
	exportChart      string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write filtered building metrics to an xlsx workbook",
	Example: `  dashboard export --sedes 1,2 --categoria ACADÉMICO --out academico.xlsx
  dashboard export --sedes 3 --where "suma_area_terreno>1000" --chart areas.png`,
	RunE: func(cmd *cobra.Command, args []string) error {
		criteria, err := exportCriteria()
		if err != nil {
			return err
		}

		source, closeSource, err := metricsSource(cmd.Context(), cfg)
		if err != nil {
			return eris.Wrap(err, "export")
		}
		defer closeSource()

		token := exportToken
		if token == "" {
			token = os.Getenv("DASHBOARD_TOKEN")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
		defer cancel()

		records, err := source.GroupedMetrics(ctx, token, exportSedes)
		if err != nil {
			return eris.Wrap(err, "export: fetch metrics")
		}

		ctrl := metrics.NewController(records, nil)
		ctrl.SetCriteria(criteria)
		ids := ctrl.ApplyFilters()
		filtered := ctrl.State().Filtered()
		views := ctrl.Views()

		if err := writeFile(exportOut, func(f *os.File) error {
			return report.WriteWorkbook(f, filtered, views)
		}); err != nil {
			return err
		}

		if exportChart != "" {
			err := writeFile(exportChart, func(f *os.File) error {
				return report.RenderStackedChart(f, views.Stacked)
			})
			if eris.Is(err, report.ErrEmptyChart) {
				zap.L().Warn("chart skipped, filtered set has no built area")
			} else if err != nil {
				return err
			}
		}

		zap.L().Info("export written",
			zap.String("out", exportOut),
			zap.Int("records", len(filtered)),
			zap.Int("edificios", len(ids)),
		)
		return nil
	},
}

// exportCriteria builds the selection from the command flags.
func exportCriteria() (metrics.Criteria, error) {
	c := metrics.NewCriteria()
	for field, values := range map[metrics.CategoricalField][]string{
		metrics.FieldCategoria:    exportCategorias,
		metrics.FieldPropiedad:    exportPropiedad,
		metrics.FieldCertUsoSuelo: exportCert,
	} {
		for _, v := range values {
			if c.Categorical[field] == nil {
				c.Categorical[field] = map[string]struct{}{}
			}
			c.Categorical[field][strings.TrimSpace(v)] = struct{}{}
		}
	}

	for _, cond := range exportWhere {
		field, filter, err := parseCondition(cond)
		if err != nil {
			return metrics.Criteria{}, err
		}
		c.Numeric[field] = filter
	}
	return c, nil
}

// parseCondition reads "field<op>value", e.g. "total_edificios>3".
func parseCondition(s string) (metrics.NumericField, metrics.NumericFilter, error) {
	i := strings.IndexAny(s, "<>=")
	if i <= 0 {
		return "", metrics.NumericFilter{}, eris.Errorf("export: condition %q needs one of < > =", s)
	}
	field, err := metrics.ParseNumericField(strings.TrimSpace(s[:i]))
	if err != nil {
		return "", metrics.NumericFilter{}, err
	}
	return field, metrics.NumericFilter{
		Op:        metrics.Operator(s[i : i+1]),
		Threshold: metrics.ParseThreshold(s[i+1:]),
	}, nil
}

func writeFile(path string, fn func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return eris.Wrapf(f.Close(), "export: close %s", path)
}

func init() {
	exportCmd.Flags().IntSliceVar(&exportSedes, "sedes", nil, "sede ids to include")
	exportCmd.Flags().StringSliceVar(&exportCategorias, "categoria", nil, "categoria values to keep")
	exportCmd.Flags().StringSliceVar(&exportPropiedad, "propiedad", nil, "propiedad values to keep")
	exportCmd.Flags().StringSliceVar(&exportCert, "cert", nil, "certificate labels to keep (DISPONIBLE, NO DISPONIBLE)")
	exportCmd.Flags().StringArrayVar(&exportWhere, "where", nil, "numeric condition such as suma_area_terreno>1000 (repeatable)")
	exportCmd.Flags().StringVar(&exportToken, "token", "", "bearer token for the backend (default $DASHBOARD_TOKEN)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "metricas_edificios.xlsx", "output workbook path")
	exportCmd.Flags().StringVar(&exportChart, "chart", "", "also write the stacked area chart as PNG")
	_ = exportCmd.MarkFlagRequired("sedes")
	rootCmd.AddCommand(exportCmd)
}
