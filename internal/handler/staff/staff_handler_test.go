package staff

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
	staffService "github.com/dumeirei/tutor-finance-backend/internal/service/staff"
	"github.com/dumeirei/tutor-finance-backend/internal/testutil"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := staffService.NewService(repository.NewEmployeeRepository(testutil.NewTestDB(t)), zap.NewNop())
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

func TestHandler_Employees(t *testing.T) {
	r := setupRouter(t)

	w := request(r, http.MethodPost, "/api/v1/employees", `{"name":"小王","base_salary":"3100"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = request(r, http.MethodPost, "/api/v1/employees", `{"base_salary":"3100"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "姓名必填")

	w = request(r, http.MethodPut, "/api/v1/employees/1/commission-config", `{"commission_type":"revenue","new_course_rate":"10"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = request(r, http.MethodPut, "/api/v1/employees/1/commission-config", `{"renewal_rate":"120"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = request(r, http.MethodPut, "/api/v1/employees/9/commission-config", `{}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = request(r, http.MethodGet, "/api/v1/employees", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []*models.Employee `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	require.NotNil(t, list.Data[0].CommissionConfig)
	assert.Equal(t, models.CommissionTypeRevenue, list.Data[0].CommissionConfig.CommissionType)
}
