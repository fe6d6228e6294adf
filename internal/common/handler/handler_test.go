package handler

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/tutor-finance-backend/internal/common/errors"
	"github.com/dumeirei/tutor-finance-backend/internal/common/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// 辅助函数：创建测试上下文
func createTestContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

// 辅助函数：解析响应
func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// ==================== 错误处理测试 ====================

func TestHandleError_NilError(t *testing.T) {
	c, w := createTestContext("/")
	assert.False(t, HandleError(c, nil))
	assert.Equal(t, 0, w.Body.Len())
}

func TestHandleError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"不存在", errors.ErrCourseNotFound, http.StatusNotFound, errors.ErrCourseNotFound.Code},
		{"分红冲突", errors.ErrDividendConflict.WithMessage("已支付"), http.StatusConflict, errors.ErrDividendConflict.Code},
		{"配置无效", errors.ErrConfigInvalid, http.StatusBadRequest, errors.ErrConfigInvalid.Code},
		{"数据库错误", errors.ErrDatabaseError.WithError(stderrors.New("locked")), http.StatusInternalServerError, errors.ErrDatabaseError.Code},
		{"被包装的应用错误", fmt.Errorf("confirm: %w", errors.ErrDividendStatus), http.StatusConflict, errors.ErrDividendStatus.Code},
		{"普通错误", stderrors.New("boom"), http.StatusInternalServerError, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := createTestContext("/")
			assert.True(t, HandleError(c, tt.err))
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, parseResponse(t, w).Code)
			assert.Len(t, c.Errors, 1)
		})
	}
}

func TestMustSucceed(t *testing.T) {
	t.Run("成功", func(t *testing.T) {
		c, w := createTestContext("/")
		MustSucceed(c, nil, gin.H{"ok": true})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 0, parseResponse(t, w).Code)
	})

	t.Run("失败", func(t *testing.T) {
		c, w := createTestContext("/")
		MustSucceed(c, errors.ErrEmployeeNotFound, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestMustSucceedPage(t *testing.T) {
	c, w := createTestContext("/")
	MustSucceedPage(c, nil, []string{"a"}, 1, 1, 10)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBindJSON(t *testing.T) {
	type req struct {
		Name string `json:"name" binding:"required"`
	}

	t.Run("合法请求体", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"张三"}`))
		c.Request.Header.Set("Content-Type", "application/json")

		var r req
		assert.True(t, BindJSON(c, &r))
		assert.Equal(t, "张三", r.Name)
	})

	t.Run("缺少必填字段", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
		c.Request.Header.Set("Content-Type", "application/json")

		var r req
		assert.False(t, BindJSON(c, &r))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// ==================== 参数解析测试 ====================

func TestParseID(t *testing.T) {
	tests := []struct {
		value string
		want  int64
		ok    bool
	}{
		{"12", 12, true},
		{"abc", 0, false},
		{"0", 0, false},
		{"-3", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			c, w := createTestContext("/")
			c.Params = gin.Params{{Key: "id", Value: tt.value}}
			id, ok := ParseID(c, "课程")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, id)
			if !ok {
				assert.Equal(t, http.StatusBadRequest, w.Code)
				assert.Equal(t, "无效的课程ID", parseResponse(t, w).Message)
			}
		})
	}
}

func TestParseQueryID(t *testing.T) {
	c, _ := createTestContext("/")
	id, ok := ParseQueryID(c, "employee_id", "员工")
	assert.True(t, ok)
	assert.Nil(t, id)

	c, _ = createTestContext("/?employee_id=5")
	id, ok = ParseQueryID(c, "employee_id", "员工")
	assert.True(t, ok)
	require.NotNil(t, id)
	assert.Equal(t, int64(5), *id)

	c, w := createTestContext("/?employee_id=x")
	_, ok = ParseQueryID(c, "employee_id", "员工")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseQueryInt(t *testing.T) {
	c, _ := createTestContext("/?year=2026")
	v, ok := ParseQueryInt(c, "year", "年份")
	assert.True(t, ok)
	assert.Equal(t, 2026, v)

	c, w := createTestContext("/?year=twenty")
	_, ok = ParseQueryInt(c, "year", "年份")
	assert.False(t, ok)
	assert.Equal(t, "无效的年份", parseResponse(t, w).Message)
}

// ==================== 日期解析测试 ====================

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.Local), d)

	_, err = ParseDate("2026/03/31")
	assert.Error(t, err)
}

func TestParseQueryDateRange(t *testing.T) {
	t.Run("都为空", func(t *testing.T) {
		c, _ := createTestContext("/")
		start, end, ok := ParseQueryDateRange(c)
		assert.True(t, ok)
		assert.Nil(t, start)
		assert.Nil(t, end)
	})

	t.Run("合法区间", func(t *testing.T) {
		c, _ := createTestContext("/?start_date=2026-03-01&end_date=2026-03-31")
		start, end, ok := ParseQueryDateRange(c)
		require.True(t, ok)
		assert.Equal(t, 1, start.Day())
		assert.Equal(t, 31, end.Day())
		assert.Equal(t, 0, end.Hour())
	})

	t.Run("开始日期格式错误", func(t *testing.T) {
		c, w := createTestContext("/?start_date=bad")
		_, _, ok := ParseQueryDateRange(c)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("结束早于开始", func(t *testing.T) {
		c, w := createTestContext("/?start_date=2026-03-31&end_date=2026-03-01")
		_, _, ok := ParseQueryDateRange(c)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBindPagination(t *testing.T) {
	c, _ := createTestContext("/")
	p := BindPagination(c)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.PageSize)

	c, _ = createTestContext("/?page=3&page_size=500")
	p = BindPagination(c)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 100, p.PageSize)
}
