package http

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/02loveslollipop/edificios-dashboard/services/dashboard/metrics"
	"github.com/02loveslollipop/edificios-dashboard/services/dashboard/report"
)

// dashboardView is the state of one open dashboard page.
type dashboardView struct {
	sedes    []int
	ctrl     *metrics.Controller
	selected []int
}

func newDashboardView(sedes []int, records []metrics.MetricRecord, viewID string) *dashboardView {
	v := &dashboardView{sedes: sedes, selected: metrics.BuildingIDs(records)}
	v.ctrl = metrics.NewController(records, metrics.IDSinkFunc(func(ids []int) {
		v.selected = ids
		zap.L().Debug("building selection published", zap.String("view_id", viewID), zap.Int("edificios", len(ids)))
	}))
	return v
}

type dashboardResponse struct {
	Fase         metrics.Phase          `json:"fase"`
	Sedes        []int                  `json:"ids_sedes"`
	Filtros      metrics.Criteria       `json:"filtros"`
	Vistas       metrics.Views          `json:"vistas"`
	Registros    []metrics.MetricRecord `json:"registros"`
	IDsEdificios []int                  `json:"ids_edificios"`
}

func (v *dashboardView) response() dashboardResponse {
	state := v.ctrl.State()
	return dashboardResponse{
		Fase:         state.Phase(),
		Sedes:        v.sedes,
		Filtros:      state.Criteria(),
		Vistas:       v.ctrl.Views(),
		Registros:    state.Filtered(),
		IDsEdificios: v.selected,
	}
}

var errNoDashboard = errors.New("no dashboard loaded for this view")

// withDashboard runs fn on this view's dashboard state and writes the
// resulting response.
func (s *Server) withDashboard(c *gin.Context, fn func(v *dashboardView) error) {
	var resp dashboardResponse
	found, err := s.dashboards.With(c.GetString(ctxViewID), func(v *dashboardView) error {
		if err := fn(v); err != nil {
			return err
		}
		resp = v.response()
		return nil
	})
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": errNoDashboard.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type loadMetricsRequest struct {
	IDsSedes []int `json:"ids_sedes"`
}

// handleLoadMetrics fetches grouped metrics and replaces the view's state
// POST /api/dashboard/metricas
func (s *Server) handleLoadMetrics(c *gin.Context) {
	var req loadMetricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.IDsSedes == nil {
		req.IDsSedes = []int{}
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	records, err := s.deps.Metrics.GroupedMetrics(ctx, c.GetString(ctxToken), req.IDsSedes)
	if err != nil {
		s.backendError(c, err)
		return
	}

	viewID := c.GetString(ctxViewID)
	view := newDashboardView(req.IDsSedes, records, viewID)
	s.dashboards.Put(viewID, view)

	zap.L().Info("dashboard loaded",
		zap.String("view_id", viewID),
		zap.Int("user_id", currentUser(c).ID),
		zap.Ints("ids_sedes", req.IDsSedes),
		zap.Int("records", len(records)),
	)

	var resp dashboardResponse
	_, _ = s.dashboards.With(viewID, func(v *dashboardView) error {
		resp = v.response()
		return nil
	})
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// handleGetMetrics returns the current views without changing anything
// GET /api/dashboard/metricas
func (s *Server) handleGetMetrics(c *gin.Context) {
	s.withDashboard(c, func(*dashboardView) error { return nil })
}

type toggleRequest struct {
	Campo string `json:"campo" binding:"required"`
	Valor string `json:"valor"`
}

// handleToggleCategorical flips one categorical value
// POST /api/dashboard/filtros/categoricos
func (s *Server) handleToggleCategorical(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	field, err := metrics.ParseCategoricalField(req.Campo)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.withDashboard(c, func(v *dashboardView) error {
		v.ctrl.ToggleCategoricalValue(field, req.Valor)
		return nil
	})
}

type numericRequest struct {
	Campo    string            `json:"campo" binding:"required"`
	Operador metrics.Operator  `json:"operador"`
	Valor    metrics.Threshold `json:"valor"`
}

// handleSetNumeric replaces one numeric filter
// PUT /api/dashboard/filtros/numericos
func (s *Server) handleSetNumeric(c *gin.Context) {
	var req numericRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	field, err := metrics.ParseNumericField(req.Campo)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.withDashboard(c, func(v *dashboardView) error {
		v.ctrl.SetNumericFilter(field, req.Operador, req.Valor)
		return nil
	})
}

type applyRequest struct {
	Filtros *metrics.Criteria `json:"filtros"`
}

// handleApplyFilters evaluates the selection; an optional body replaces
// the whole selection first
// POST /api/dashboard/filtros/aplicar
func (s *Server) handleApplyFilters(c *gin.Context) {
	var req applyRequest
	// an empty body, sized or chunked, means apply the current selection
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	s.withDashboard(c, func(v *dashboardView) error {
		if req.Filtros != nil {
			v.ctrl.SetCriteria(*req.Filtros)
		}
		v.ctrl.ApplyFilters()
		return nil
	})
}

// handleResetFilters clears the selection
// POST /api/dashboard/filtros/reset
func (s *Server) handleResetFilters(c *gin.Context) {
	s.withDashboard(c, func(v *dashboardView) error {
		v.ctrl.ResetFilters()
		v.selected = metrics.BuildingIDs(v.ctrl.State().Filtered())
		return nil
	})
}

// handleSelection returns the building ids published by the last apply
// GET /api/dashboard/seleccion
func (s *Server) handleSelection(c *gin.Context) {
	var ids []int
	found, _ := s.dashboards.With(c.GetString(ctxViewID), func(v *dashboardView) error {
		ids = append([]int{}, v.selected...)
		return nil
	})
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": errNoDashboard.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": ids,
		"meta": gin.H{"count": len(ids)},
	})
}

// snapshot copies the filtered records and views out of the registry so
// rendering happens outside the lock.
func (s *Server) snapshot(c *gin.Context) ([]metrics.MetricRecord, metrics.Views, bool) {
	var records []metrics.MetricRecord
	var views metrics.Views
	found, _ := s.dashboards.With(c.GetString(ctxViewID), func(v *dashboardView) error {
		records = v.ctrl.State().Filtered()
		views = v.ctrl.Views()
		return nil
	})
	return records, views, found
}

// handleChart renders the stacked area chart of the filtered set
// GET /api/dashboard/grafico.png
func (s *Server) handleChart(c *gin.Context) {
	_, views, found := s.snapshot(c)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": errNoDashboard.Error()})
		return
	}

	var buf bytes.Buffer
	if err := report.RenderStackedChart(&buf, views.Stacked); err != nil {
		if errors.Is(err, report.ErrEmptyChart) {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// handleExport downloads the filtered set as a spreadsheet
// GET /api/dashboard/export.xlsx
func (s *Server) handleExport(c *gin.Context) {
	records, views, found := s.snapshot(c)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": errNoDashboard.Error()})
		return
	}

	var buf bytes.Buffer
	if err := report.WriteWorkbook(&buf, records, views); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", "attachment; filename=metricas_edificios.xlsx")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
