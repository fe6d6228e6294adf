package setting

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dumeirei/tutor-finance-backend/internal/common/config"
	"github.com/dumeirei/tutor-finance-backend/internal/repository"
	settingService "github.com/dumeirei/tutor-finance-backend/internal/service/setting"
	"github.com/dumeirei/tutor-finance-backend/internal/testutil"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := settingService.NewService(repository.NewSettingRepository(testutil.NewTestDB(t)), nil, time.Minute, nil, zap.NewNop())
	_, err := svc.SeedDefaults(context.Background(), config.DefaultSettings())
	require.NoError(t, err)

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

func TestHandler_GetAndUpdateSettings(t *testing.T) {
	r := setupRouter(t)

	w := request(r, http.MethodGet, "/api/v1/settings", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "60", got.Data["course_cost"])

	w = request(r, http.MethodPut, "/api/v1/settings", `{"course_cost":"80"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "80", got.Data["course_cost"])
	assert.Equal(t, "30", got.Data["trial_cost"])
}

func TestHandler_UpdateSettings_Invalid(t *testing.T) {
	r := setupRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"比例之和不为100", `{"new_course_shareholder_a":"70"}`},
		{"非数字", `{"course_cost":"abc"}`},
		{"非 JSON", `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := request(r, http.MethodPut, "/api/v1/settings", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	w := request(r, http.MethodGet, "/api/v1/settings", "")
	assert.Contains(t, w.Body.String(), `"new_course_shareholder_a":"50"`)
}

func TestHandler_GetProducts(t *testing.T) {
	r := setupRouter(t)

	w := request(r, http.MethodGet, "/api/v1/settings/products", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Data []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Contains(t, got.Data, "雅思口语陪练")
}
