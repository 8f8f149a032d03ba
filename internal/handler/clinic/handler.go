package clinic

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

type Service interface {
	ListActive(ctx context.Context) ([]*model.Clinic, error)
}

type Handler struct {
	svc Service
	log *logger.Logger
}

func NewHandler(svc Service, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/clinics/active", h.ListActive)
}

// ListActive feeds the clinic picker of the public registration form.
func (h *Handler) ListActive(c *gin.Context) {
	clinics, err := h.svc.ListActive(c.Request.Context())
	if err != nil {
		handler.RespondError(c, h.log, err)
		return
	}

	out := make([]model.ClinicSummary, 0, len(clinics))
	for _, cl := range clinics {
		out = append(out, cl.Summary())
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(out))
}
