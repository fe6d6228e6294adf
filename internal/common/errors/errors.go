// Package errors 定义业务错误码和错误处理
package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 错误码相同即视为同一类错误，WithMessage 派生的错误仍可用 errors.Is 判断
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New 创建新的应用错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithMessage 修改错误消息
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Err:     e.Err,
	}
}

// WithMessagef 格式化错误消息
func (e *AppError) WithMessagef(format string, args ...interface{}) *AppError {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// WithError 添加原始错误
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// 通用错误码 (1000-1999)
var (
	ErrUnknown         = New(1000, "未知错误")
	ErrInvalidParams   = New(1001, "参数错误")
	ErrNotFound        = New(1002, "资源不存在")
	ErrAlreadyExists   = New(1003, "资源已存在")
	ErrDatabaseError   = New(1004, "数据库错误")
	ErrCacheError      = New(1005, "缓存错误")
	ErrInternalError   = New(1006, "内部错误")
	ErrRateLimitExceed = New(1008, "请求过于频繁")
	ErrOperationFailed = New(1009, "操作失败")
)

// 客户与课程错误码 (3000-3999)
var (
	ErrCustomerNotFound     = New(3000, "客户不存在")
	ErrPhoneExists          = New(3001, "手机号已存在")
	ErrCourseNotFound       = New(3002, "课程不存在")
	ErrCourseStatusError    = New(3003, "课程状态异常")
	ErrCourseNotTrial       = New(3004, "课程不是体验课")
	ErrInvalidReference     = New(3005, "课程关联无效")
	ErrReferenceCycle       = New(3006, "课程关联存在环")
	ErrRefundExceed         = New(3007, "退款超出剩余课时或金额")
	ErrEmployeeNotFound     = New(3008, "员工不存在")
	ErrPaddingOrderNotFound = New(3009, "刷单记录不存在")
	ErrOpCostNotFound       = New(3010, "运营成本不存在")
	ErrOpCostArchived       = New(3011, "运营成本已归档")
)

// 财务错误码 (6000-6999)
var (
	ErrConfigInvalid      = New(6000, "财务配置无效")
	ErrMalformedCourse    = New(6001, "课程数据异常")
	ErrMissingReference   = New(6002, "关联记录缺失")
	ErrDividendConflict   = New(6003, "该月分红已支付或已取消，不可重新确认")
	ErrDividendNotFound   = New(6004, "分红记录不存在")
	ErrDividendStatus     = New(6005, "分红状态不允许该操作")
	ErrPeriodInvalid      = New(6006, "统计区间无效")
	ErrCommissionConflict = New(6007, "员工提成配置冲突")
)

// 配置错误码 (7000-7999)
var (
	ErrSettingNotFound = New(7000, "配置项不存在")
	ErrSettingInvalid  = New(7001, "配置值无效")
	ErrUnknownProduct  = New(7002, "商品不在刷单列表中")
)

// IsAppError 判断是否为应用错误
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetAppError 获取应用错误
func GetAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return ErrUnknown.WithError(err)
}
