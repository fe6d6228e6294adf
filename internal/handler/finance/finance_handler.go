// Package finance 提供财务报表、分红和提成的 HTTP Handler
package finance

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/tutor-finance-backend/internal/common/handler"
	"github.com/dumeirei/tutor-finance-backend/internal/common/response"
	"github.com/dumeirei/tutor-finance-backend/internal/repository"
	financeService "github.com/dumeirei/tutor-finance-backend/internal/service/finance"
)

// Handler 财务处理器
type Handler struct {
	reportService     *financeService.ReportService
	dividendService   *financeService.DividendService
	commissionService *financeService.CommissionService
}

// NewHandler 创建财务处理器
func NewHandler(
	reportSvc *financeService.ReportService,
	dividendSvc *financeService.DividendService,
	commissionSvc *financeService.CommissionService,
) *Handler {
	return &Handler{
		reportService:     reportSvc,
		dividendService:   dividendSvc,
		commissionService: commissionSvc,
	}
}

// ParsePeriod 从查询参数解析统计区间
// start_date/end_date 优先，其次 year 加可选的 month 或 quarter，都没有时取当月
func ParsePeriod(c *gin.Context) (financeService.Period, bool) {
	start, end, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return financeService.Period{}, false
	}
	if start != nil || end != nil {
		if start == nil || end == nil {
			response.BadRequest(c, "开始日期和结束日期必须同时提供")
			return financeService.Period{}, false
		}
		p, err := financeService.RangePeriod(*start, *end)
		return p, !handler.HandleError(c, err)
	}

	year, ok := handler.ParseQueryInt(c, "year", "年份")
	if !ok {
		return financeService.Period{}, false
	}
	month, ok := handler.ParseQueryInt(c, "month", "月份")
	if !ok {
		return financeService.Period{}, false
	}
	quarter, ok := handler.ParseQueryInt(c, "quarter", "季度")
	if !ok {
		return financeService.Period{}, false
	}

	var (
		p   financeService.Period
		err error
	)
	switch {
	case year == 0 && (month != 0 || quarter != 0):
		response.BadRequest(c, "缺少年份")
		return financeService.Period{}, false
	case year == 0:
		now := time.Now()
		p, err = financeService.MonthPeriod(now.Year(), int(now.Month()))
	case month != 0 && quarter != 0:
		response.BadRequest(c, "month 和 quarter 不能同时提供")
		return financeService.Period{}, false
	case month != 0:
		p, err = financeService.MonthPeriod(year, month)
	case quarter != 0:
		p, err = financeService.QuarterPeriod(year, quarter)
	default:
		p, err = financeService.YearPeriod(year)
	}
	return p, !handler.HandleError(c, err)
}

// GetReport 利润报表
// @Summary 利润报表
// @Tags 财务
// @Produce json
// @Param start_date query string false "开始日期 YYYY-MM-DD"
// @Param end_date query string false "结束日期 YYYY-MM-DD（含）"
// @Param year query int false "年份"
// @Param month query int false "月份"
// @Param quarter query int false "季度"
// @Success 200 {object} response.Response{data=financeService.Report}
// @Router /api/v1/finance/report [get]
func (h *Handler) GetReport(c *gin.Context) {
	period, ok := ParsePeriod(c)
	if !ok {
		return
	}
	report, err := h.reportService.Generate(c.Request.Context(), period)
	handler.MustSucceed(c, err, report)
}

// GetCourseEconomics 单门课程的核算结果
// @Summary 课程核算
// @Tags 财务
// @Produce json
// @Param id path int true "课程ID"
// @Success 200 {object} response.Response{data=financeService.CourseEconomics}
// @Router /api/v1/finance/courses/{id}/economics [get]
func (h *Handler) GetCourseEconomics(c *gin.Context) {
	id, ok := handler.ParseID(c, "课程")
	if !ok {
		return
	}
	economics, err := h.reportService.CourseEconomics(c.Request.Context(), id)
	handler.MustSucceed(c, err, economics)
}

// GetDistribution 股东分红预览
// @Summary 分红预览
// @Tags 财务
// @Produce json
// @Success 200 {object} response.Response{data=financeService.DistributionView}
// @Router /api/v1/finance/distribution [get]
func (h *Handler) GetDistribution(c *gin.Context) {
	period, ok := ParsePeriod(c)
	if !ok {
		return
	}
	view, err := h.dividendService.Preview(c.Request.Context(), period)
	handler.MustSucceed(c, err, view)
}

// ConfirmDividendRequest 确认月度分红请求
type ConfirmDividendRequest struct {
	Year  int `json:"year" binding:"required"`
	Month int `json:"month" binding:"required"`
}

// ConfirmDividend 确认月度分红
// @Summary 确认月度分红
// @Tags 财务
// @Accept json
// @Produce json
// @Param body body ConfirmDividendRequest true "年月"
// @Success 200 {object} response.Response{data=financeService.ConfirmResult}
// @Router /api/v1/finance/dividends/confirm [post]
func (h *Handler) ConfirmDividend(c *gin.Context) {
	var req ConfirmDividendRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	result, err := h.dividendService.ConfirmMonth(c.Request.Context(), req.Year, req.Month)
	handler.MustSucceed(c, err, result)
}

// PayDividend 标记分红已支付
// @Summary 支付分红
// @Tags 财务
// @Accept json
// @Produce json
// @Param id path int true "分红记录ID"
// @Param body body financeService.PayRequest true "支付信息"
// @Success 200 {object} response.Response{data=models.DividendRecord}
// @Router /api/v1/finance/dividends/{id}/pay [post]
func (h *Handler) PayDividend(c *gin.Context) {
	id, ok := handler.ParseID(c, "分红记录")
	if !ok {
		return
	}
	var req financeService.PayRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	record, err := h.dividendService.MarkPaid(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, record)
}

// CancelDividendRequest 取消分红请求
type CancelDividendRequest struct {
	Remarks string `json:"remarks"`
}

// CancelDividend 取消分红
// @Summary 取消分红
// @Tags 财务
// @Accept json
// @Produce json
// @Param id path int true "分红记录ID"
// @Success 200 {object} response.Response{data=models.DividendRecord}
// @Router /api/v1/finance/dividends/{id}/cancel [post]
func (h *Handler) CancelDividend(c *gin.Context) {
	id, ok := handler.ParseID(c, "分红记录")
	if !ok {
		return
	}
	var req CancelDividendRequest
	if c.Request.ContentLength > 0 && !handler.BindJSON(c, &req) {
		return
	}
	record, err := h.dividendService.Cancel(c.Request.Context(), id, req.Remarks)
	handler.MustSucceed(c, err, record)
}

// ListDividends 分红记录列表
// @Summary 分红记录列表
// @Tags 财务
// @Produce json
// @Param shareholder query string false "股东名称"
// @Param year query int false "年份"
// @Param month query int false "月份"
// @Param status query string false "状态"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/finance/dividends [get]
func (h *Handler) ListDividends(c *gin.Context) {
	p := handler.BindPagination(c)
	year, ok := handler.ParseQueryInt(c, "year", "年份")
	if !ok {
		return
	}
	month, ok := handler.ParseQueryInt(c, "month", "月份")
	if !ok {
		return
	}
	filter := &repository.DividendFilter{
		ShareholderName: c.Query("shareholder"),
		Year:            year,
		Month:           month,
		Status:          c.Query("status"),
	}
	records, total, err := h.dividendService.ListRecords(c.Request.Context(), filter, p.GetOffset(), p.GetLimit())
	handler.MustSucceedPage(c, err, records, total, p.Page, p.PageSize)
}

// ListDividendSummaries 股东分红汇总
// @Summary 股东分红汇总
// @Tags 财务
// @Produce json
// @Success 200 {object} response.Response{data=[]models.DividendSummary}
// @Router /api/v1/finance/dividend-summaries [get]
func (h *Handler) ListDividendSummaries(c *gin.Context) {
	summaries, err := h.dividendService.ListSummaries(c.Request.Context())
	handler.MustSucceed(c, err, summaries)
}

// GetCommissions 员工提成
// @Summary 员工提成
// @Tags 财务
// @Produce json
// @Success 200 {object} response.Response{data=[]financeService.EmployeeCommission}
// @Router /api/v1/finance/commissions [get]
func (h *Handler) GetCommissions(c *gin.Context) {
	period, ok := ParsePeriod(c)
	if !ok {
		return
	}
	commissions, err := h.commissionService.Commissions(c.Request.Context(), period)
	handler.MustSucceed(c, err, commissions)
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	finance := r.Group("/finance")
	{
		finance.GET("/report", h.GetReport)
		finance.GET("/courses/:id/economics", h.GetCourseEconomics)
		finance.GET("/distribution", h.GetDistribution)
		finance.GET("/commissions", h.GetCommissions)

		finance.POST("/dividends/confirm", h.ConfirmDividend)
		finance.GET("/dividends", h.ListDividends)
		finance.POST("/dividends/:id/pay", h.PayDividend)
		finance.POST("/dividends/:id/cancel", h.CancelDividend)
		finance.GET("/dividend-summaries", h.ListDividendSummaries)
	}
}
