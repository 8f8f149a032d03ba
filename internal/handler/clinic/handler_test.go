package clinic

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/jwalitptl/clinic-api/internal/handler/clinic/mocks"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

func TestListActive(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := mocks.NewMockService(gomock.NewController(t))
	id := uuid.New()
	svc.EXPECT().ListActive(gomock.Any()).Return([]*model.Clinic{
		{Base: model.Base{ID: id}, Name: "Clínica Vida Plena", Slug: "vida_plena", IsActive: true},
	}, nil)

	r := gin.New()
	NewHandler(svc, logger.Nop()).RegisterRoutes(r.Group("/api/v1"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/clinics/active", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","data":[{"id":"`+id.String()+`","name":"Clínica Vida Plena","slug":"vida_plena"}]}`, w.Body.String())
}

func TestListActiveError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := mocks.NewMockService(gomock.NewController(t))
	svc.EXPECT().ListActive(gomock.Any()).Return(nil, errors.New("boom"))

	r := gin.New()
	NewHandler(svc, logger.Nop()).RegisterRoutes(r.Group("/api/v1"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/clinics/active", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"INTERNAL"`)
}
