package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

type RegistrationService interface {
	Register(ctx context.Context, req *model.PatientRegistrationRequest, prov model.Provenance) (*model.RegistrationResult, error)
}

type VerificationService interface {
	Redeem(ctx context.Context, token, code string, prov model.Provenance) error
	Resend(ctx context.Context, email string) error
}

type AuthService interface {
	Login(ctx context.Context, email, password string, prov model.Provenance) (*model.TokenResponse, error)
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
}

const (
	msgVerified = "E-mail verificado com sucesso. Você já pode fazer login."
	msgResent   = "Se o e-mail estiver cadastrado e pendente de confirmação, enviaremos um novo código."
)

type Handler struct {
	registration RegistrationService
	verification VerificationService
	auth         AuthService
	log          *logger.Logger
}

func NewHandler(registration RegistrationService, verification VerificationService, auth AuthService, log *logger.Logger) *Handler {
	return &Handler{
		registration: registration,
		verification: verification,
		auth:         auth,
		log:          log,
	}
}

// RegisterRoutes mounts the public onboarding routes on public and the
// session routes on protected.
func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	auth := public.Group("/auth")
	{
		auth.POST("/register-patient", h.RegisterPatient)
		auth.POST("/verify-email", h.VerifyEmail)
		auth.POST("/resend-verification", h.ResendVerification)
		auth.POST("/login", h.Login)
	}
	protected.GET("/auth/me", h.Me)
}

func (h *Handler) RegisterPatient(c *gin.Context) {
	var req model.PatientRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	result, err := h.registration.Register(c.Request.Context(), &req, handler.Provenance(c))
	if err != nil {
		handler.RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, &handler.Response{
		Status:  "success",
		Message: result.Message,
		Data:    result,
	})
}

func (h *Handler) VerifyEmail(c *gin.Context) {
	var req model.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	if err := h.verification.Redeem(c.Request.Context(), req.Token, req.Code, handler.Provenance(c)); err != nil {
		handler.RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, &handler.Response{Status: "success", Message: msgVerified})
}

func (h *Handler) ResendVerification(c *gin.Context) {
	var req model.ResendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	if err := h.verification.Resend(c.Request.Context(), req.Email); err != nil {
		handler.RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, &handler.Response{Status: "success", Message: msgResent})
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondBindError(c, err)
		return
	}

	tokens, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, handler.Provenance(c))
	if err != nil {
		handler.RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(tokens))
}

func (h *Handler) Me(c *gin.Context) {
	claims, ok := handler.Claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewCodedErrorResponse("UNAUTHORIZED", "unauthorized"))
		return
	}

	user, err := h.auth.GetUser(c.Request.Context(), claims.UserID)
	if err != nil {
		handler.RespondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(user.ToResponse()))
}
