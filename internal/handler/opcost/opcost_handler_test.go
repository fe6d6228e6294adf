package opcost

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dumeirei/tutor-finance-backend/internal/models"
	"github.com/dumeirei/tutor-finance-backend/internal/repository"
	opcostService "github.com/dumeirei/tutor-finance-backend/internal/service/opcost"
	"github.com/dumeirei/tutor-finance-backend/internal/testutil"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := opcostService.NewService(repository.NewOperationalCostRepository(testutil.NewTestDB(t)), zap.NewNop())
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func request(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_OperationalCosts(t *testing.T) {
	r := setupRouter(t)

	for _, body := range []string{
		`{"cost_type":"rent","cost_name":"房租","amount":"3000","cost_date":"2026-03-01T00:00:00+08:00","allocated_to_courses":true}`,
		`{"cost_type":"office","cost_name":"办公","amount":"500","cost_date":"2026-03-02T00:00:00+08:00","billing_period":"month"}`,
	} {
		w := request(r, http.MethodPost, "/api/v1/operational-costs", body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := request(r, http.MethodPost, "/api/v1/operational-costs",
		`{"cost_type":"rent","cost_name":"房租","amount":"100","cost_date":"2026-03-01T00:00:00+08:00","allocation_method":"weighted"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = request(r, http.MethodGet, "/api/v1/operational-costs?year=2026&month=3&allocable=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []*models.OperationalCost `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "rent", list.Data[0].CostType)

	w = request(r, http.MethodPost, "/api/v1/operational-costs/1/archive", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"archived"`)

	w = request(r, http.MethodPost, "/api/v1/operational-costs/1/archive", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = request(r, http.MethodGet, "/api/v1/operational-costs?year=2026&month=3", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Data, 2)
}
