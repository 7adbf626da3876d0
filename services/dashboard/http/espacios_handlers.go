package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/02loveslollipop/edificios-dashboard/services/dashboard/backend"
	"github.com/02loveslollipop/edificios-dashboard/services/dashboard/espacios"
)

// backendError maps a failed upstream call to a response. A rejected
// session redirects like the session middleware does; upstream 404s pass
// through; timeouts become 504 and everything else 502.
func (s *Server) backendError(c *gin.Context, err error) {
	_ = c.Error(err)

	if out, ok := s.deps.Guard.AuthFailure(err); ok {
		s.rejectSession(c, out)
		return
	}

	var apiErr *backend.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}

func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func espaciosKey(viewID string, edificioID int) string {
	return viewID + ":" + strconv.Itoa(edificioID)
}

// handleListEspacios loads the espacios of one building into the view's
// cache and returns them
// GET /api/edificios/:id/espacios
func (s *Server) handleListEspacios(c *gin.Context) {
	edificioID, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	items, err := s.deps.Espacios.ListEspacios(ctx, c.GetString(ctxToken), edificioID)
	if err != nil {
		s.backendError(c, err)
		return
	}

	cache := espacios.NewCache(edificioID)
	cache.Replace(items)
	s.espacios.Put(espaciosKey(c.GetString(ctxViewID), edificioID), cache)

	list := cache.List()
	c.JSON(http.StatusOK, gin.H{
		"data": list,
		"meta": gin.H{
			"count":       len(list),
			"id_edificio": edificioID,
		},
	})
}

// handleUpdateEspacio validates and saves an edit, then reflects it in the
// cached list
// PUT /api/edificios/:id/espacios/:espacio
func (s *Server) handleUpdateEspacio(c *gin.Context) {
	edificioID, ok := pathID(c, "id")
	if !ok {
		return
	}
	espacioID, ok := pathID(c, "espacio")
	if !ok {
		return
	}

	var edit espacios.Espacio
	if err := c.ShouldBindJSON(&edit); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	edit.ID = espacioID

	if err := edit.Validate(); err != nil {
		var fe espacios.FieldErrors
		if errors.As(err, &fe) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": fe})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	saved, err := s.deps.Espacios.UpdateEspacio(ctx, c.GetString(ctxToken), edit)
	if err != nil {
		s.backendError(c, err)
		return
	}

	s.reflectEspacios(c, edificioID, func(cache *espacios.Cache) { cache.Upsert(saved) })
	zap.L().Info("espacio updated",
		zap.Int("id_edificio", edificioID),
		zap.Int("id_espacio", espacioID),
		zap.Int("user_id", currentUser(c).ID),
	)

	c.JSON(http.StatusOK, gin.H{"data": saved})
}

// handleDeleteEspacio removes an espacio upstream and from the cached list
// DELETE /api/edificios/:id/espacios/:espacio
func (s *Server) handleDeleteEspacio(c *gin.Context) {
	edificioID, ok := pathID(c, "id")
	if !ok {
		return
	}
	espacioID, ok := pathID(c, "espacio")
	if !ok {
		return
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()

	if err := s.deps.Espacios.DeleteEspacio(ctx, c.GetString(ctxToken), espacioID); err != nil {
		s.backendError(c, err)
		return
	}

	s.reflectEspacios(c, edificioID, func(cache *espacios.Cache) { cache.Remove(espacioID) })
	zap.L().Info("espacio deleted",
		zap.Int("id_edificio", edificioID),
		zap.Int("id_espacio", espacioID),
		zap.Int("user_id", currentUser(c).ID),
	)

	c.Status(http.StatusNoContent)
}

// reflectEspacios applies fn to the view's cached list, if one is loaded.
func (s *Server) reflectEspacios(c *gin.Context, edificioID int, fn func(*espacios.Cache)) {
	_, _ = s.espacios.With(espaciosKey(c.GetString(ctxViewID), edificioID), func(cache *espacios.Cache) error {
		fn(cache)
		return nil
	})
}
