package consent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/handler/consent/mocks"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

func newTestRouter(t *testing.T, claims *model.TokenClaims) (*gin.Engine, *mocks.MockService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)

	r := gin.New()
	g := r.Group("/api/v1")
	g.Use(func(c *gin.Context) {
		if claims != nil {
			handler.SetClaims(c, claims)
		}
		c.Next()
	})
	NewHandler(svc, logger.Nop()).RegisterRoutes(g)
	return r, svc
}

func TestActiveDocuments(t *testing.T) {
	clinicID := uuid.New()
	claims := &model.TokenClaims{UserID: uuid.New(), Role: model.RolePatient, ClinicID: &clinicID}
	r, svc := newTestRouter(t, claims)

	svc.EXPECT().ActiveDocuments(gomock.Any(), claims.UserID).Return([]*model.ActiveDocumentStatus{
		{ID: uuid.New(), Type: model.LegalDocumentTerms, Version: "v2", Agreed: false},
	}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/consent/active-docs", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []model.ActiveDocumentStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "v2", resp.Data[0].Version)
	assert.False(t, resp.Data[0].Agreed)
}

func TestAcceptUsesCallerIdentity(t *testing.T) {
	clinicID := uuid.New()
	claims := &model.TokenClaims{UserID: uuid.New(), Role: model.RolePatient, ClinicID: &clinicID}
	r, svc := newTestRouter(t, claims)

	svc.EXPECT().AcceptActive(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, user *model.User, prov model.Provenance) (*model.ConsentAcceptResult, error) {
			assert.Equal(t, claims.UserID, user.ID)
			assert.Equal(t, clinicID, *user.ClinicID)
			assert.Equal(t, "consent-test", prov.UserAgent)
			return &model.ConsentAcceptResult{Created: 1, TotalActive: 3}, nil
		})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/consent/accept", nil)
	req.Header.Set("User-Agent", "consent-test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","data":{"created":1,"total_active":3}}`, w.Body.String())
}

func TestAcceptFailureIsInternalError(t *testing.T) {
	claims := &model.TokenClaims{UserID: uuid.New(), Role: model.RoleSaaSAdmin}
	r, svc := newTestRouter(t, claims)
	svc.EXPECT().AcceptActive(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/consent/accept", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestConsentRoutesRequireClaims(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/consent/active-docs", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
