// Package handler 提供 API Handler 的通用辅助函数
// 用于减少 Handler 层的代码重复，统一错误处理、参数解析等操作
package handler

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/tutor-finance-backend/internal/common/errors"
	"github.com/dumeirei/tutor-finance-backend/internal/common/response"
	"github.com/dumeirei/tutor-finance-backend/internal/common/utils"
)

// ============================================================================
// 统一错误处理
// ============================================================================

// 业务错误码到 HTTP 状态码的映射，未列出的业务错误按 400 处理
var statusByCode = map[int]int{
	errors.ErrUnknown.Code:              http.StatusInternalServerError,
	errors.ErrDatabaseError.Code:        http.StatusInternalServerError,
	errors.ErrCacheError.Code:           http.StatusInternalServerError,
	errors.ErrInternalError.Code:        http.StatusInternalServerError,
	errors.ErrNotFound.Code:             http.StatusNotFound,
	errors.ErrCustomerNotFound.Code:     http.StatusNotFound,
	errors.ErrCourseNotFound.Code:       http.StatusNotFound,
	errors.ErrEmployeeNotFound.Code:     http.StatusNotFound,
	errors.ErrPaddingOrderNotFound.Code: http.StatusNotFound,
	errors.ErrOpCostNotFound.Code:       http.StatusNotFound,
	errors.ErrDividendNotFound.Code:     http.StatusNotFound,
	errors.ErrSettingNotFound.Code:      http.StatusNotFound,
	errors.ErrAlreadyExists.Code:        http.StatusConflict,
	errors.ErrPhoneExists.Code:          http.StatusConflict,
	errors.ErrDividendConflict.Code:     http.StatusConflict,
	errors.ErrDividendStatus.Code:       http.StatusConflict,
	errors.ErrRateLimitExceed.Code:      http.StatusTooManyRequests,
}

// StatusOf 返回业务错误对应的 HTTP 状态码
func StatusOf(appErr *errors.AppError) int {
	if status, ok := statusByCode[appErr.Code]; ok {
		return status
	}
	return http.StatusBadRequest
}

// HandleError 处理错误并发送适当的响应
// 如果 err 为 nil，返回 false（表示无错误需要处理）
// 如果 err 不为 nil，发送错误响应并返回 true（调用方应该 return）
//
// 使用示例:
//
//	report, err := h.reportService.Report(ctx, period)
//	if handler.HandleError(c, err) {
//	    return
//	}
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	_ = c.Error(err)
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		response.Error(c, StatusOf(appErr), appErr.Code, appErr.Message)
		return true
	}
	response.InternalError(c, err.Error())
	return true
}

// MustSucceed 如果有错误则返回错误响应，否则返回成功响应
func MustSucceed(c *gin.Context, err error, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.Success(c, data)
}

// MustSucceedPage 分页响应版本
func MustSucceedPage(c *gin.Context, err error, list interface{}, total int64, page, pageSize int) {
	if HandleError(c, err) {
		return
	}
	response.SuccessPage(c, list, total, page, pageSize)
}

// BindJSON 绑定请求体，失败时发送 400 响应并返回 false
func BindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "参数错误: "+err.Error())
		return false
	}
	return true
}

// ============================================================================
// ID 参数解析
// ============================================================================

// ParseID 解析路径参数 "id" 为 int64
// 返回 (0, false) 表示解析失败（已发送400响应，调用方应该 return）
func ParseID(c *gin.Context, resourceName string) (int64, bool) {
	return ParseParamID(c, "id", resourceName)
}

// ParseParamID 解析指定路径参数为 int64
func ParseParamID(c *gin.Context, paramName, resourceName string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(paramName), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "无效的"+resourceName+"ID")
		return 0, false
	}
	return id, true
}

// ParseQueryID 解析查询参数中的可选 ID
// 参数为空返回 (nil, true)，解析失败返回 (nil, false)（已发送400响应）
func ParseQueryID(c *gin.Context, paramName, resourceName string) (*int64, bool) {
	idStr := c.Query(paramName)
	if idStr == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		response.BadRequest(c, "无效的"+resourceName+"ID")
		return nil, false
	}
	return &id, true
}

// ParseQueryInt 解析可选整数查询参数，为空时返回 (0, true)
func ParseQueryInt(c *gin.Context, paramName, label string) (int, bool) {
	s := c.Query(paramName)
	if s == "" {
		return 0, true
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		response.BadRequest(c, "无效的"+label)
		return 0, false
	}
	return v, true
}

// ============================================================================
// 时间解析辅助
// ============================================================================

// DateFormat 日期格式
const DateFormat = "2006-01-02"

// ParseDate 按本地时区解析日期字符串 (YYYY-MM-DD)
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateFormat, s, time.Local)
}

// ParseQueryDateRange 从查询参数解析闭区间日期（start_date, end_date），结束日期保留为当天零点
// 两个参数都为空返回 (nil, nil, true)，解析失败返回 false（已发送400响应）
func ParseQueryDateRange(c *gin.Context) (*time.Time, *time.Time, bool) {
	var start, end *time.Time

	if s := c.Query("start_date"); s != "" {
		t, err := ParseDate(s)
		if err != nil {
			response.BadRequest(c, "无效的开始日期格式")
			return nil, nil, false
		}
		start = &t
	}

	if s := c.Query("end_date"); s != "" {
		t, err := ParseDate(s)
		if err != nil {
			response.BadRequest(c, "无效的结束日期格式")
			return nil, nil, false
		}
		end = &t
	}

	if start != nil && end != nil && end.Before(*start) {
		response.BadRequest(c, "结束日期不能早于开始日期")
		return nil, nil, false
	}

	return start, end, true
}

// ============================================================================
// 分页处理
// ============================================================================

// BindPagination 从查询参数绑定并规范化分页参数
// 默认 page=1, pageSize=10, 最大 pageSize=100
func BindPagination(c *gin.Context) utils.Pagination {
	var p utils.Pagination
	p.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	p.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "10"))
	p.Normalize()
	return p
}
