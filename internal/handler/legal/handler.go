package legal

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

type Service interface {
	ListActive(ctx context.Context) ([]*model.LegalDocument, error)
}

type Handler struct {
	svc Service
	log *logger.Logger
}

func NewHandler(svc Service, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/legal/active", h.ListActive)
}

func (h *Handler) ListActive(c *gin.Context) {
	docs, err := h.svc.ListActive(c.Request.Context())
	if err != nil {
		handler.RespondError(c, h.log, err)
		return
	}
	if docs == nil {
		docs = []*model.LegalDocument{}
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(docs))
}
