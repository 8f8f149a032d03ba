package consent

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

type Service interface {
	ActiveDocuments(ctx context.Context, userID uuid.UUID) ([]*model.ActiveDocumentStatus, error)
	AcceptActive(ctx context.Context, user *model.User, prov model.Provenance) (*model.ConsentAcceptResult, error)
}

type Handler struct {
	svc Service
	log *logger.Logger
}

func NewHandler(svc Service, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes expects an authenticated group that is not behind the
// consent gate, or users could never catch up on new versions.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	consent := r.Group("/consent")
	{
		consent.GET("/active-docs", h.ActiveDocuments)
		consent.POST("/accept", h.Accept)
	}
}

func (h *Handler) ActiveDocuments(c *gin.Context) {
	claims, ok := handler.Claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewCodedErrorResponse("UNAUTHORIZED", "unauthorized"))
		return
	}

	docs, err := h.svc.ActiveDocuments(c.Request.Context(), claims.UserID)
	if err != nil {
		handler.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(docs))
}

func (h *Handler) Accept(c *gin.Context) {
	claims, ok := handler.Claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewCodedErrorResponse("UNAUTHORIZED", "unauthorized"))
		return
	}

	user := &model.User{
		Base:     model.Base{ID: claims.UserID},
		Email:    claims.Email,
		Role:     claims.Role,
		ClinicID: claims.ClinicID,
	}
	result, err := h.svc.AcceptActive(c.Request.Context(), user, handler.Provenance(c))
	if err != nil {
		handler.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}
