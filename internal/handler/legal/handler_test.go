package legal

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/jwalitptl/clinic-api/internal/handler/legal/mocks"
	"github.com/jwalitptl/clinic-api/internal/model"
	legalsvc "github.com/jwalitptl/clinic-api/internal/service/legal"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

func serve(t *testing.T, docs []*model.LegalDocument, err error) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := mocks.NewMockService(gomock.NewController(t))
	svc.EXPECT().ListActive(gomock.Any()).Return(docs, err)

	r := gin.New()
	NewHandler(svc, logger.Nop()).RegisterRoutes(r.Group("/api/v1"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/legal/active", nil))
	return w
}

func TestListActiveEmpty(t *testing.T) {
	w := serve(t, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","data":[]}`, w.Body.String())
}

func TestListActive(t *testing.T) {
	w := serve(t, []*model.LegalDocument{{Type: model.LegalDocumentTerms, Version: "v1", IsActive: true}}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"doc_type":"TERMS"`)
}

func TestListActiveUnavailable(t *testing.T) {
	w := serve(t, nil, legalsvc.ErrMissingLegalDocument)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"MISSING_LEGAL_DOCUMENT"`)
}
