// Package course 提供客户与课程的 HTTP Handler
package course

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/tutor-finance-backend/internal/common/handler"
	"github.com/dumeirei/tutor-finance-backend/internal/repository"
	courseService "github.com/dumeirei/tutor-finance-backend/internal/service/course"
)

// Handler 课程处理器
type Handler struct {
	courseService *courseService.Service
}

// NewHandler 创建课程处理器
func NewHandler(courseSvc *courseService.Service) *Handler {
	return &Handler{courseService: courseSvc}
}

// CreateCustomer 创建客户
// @Summary 创建客户
// @Tags 客户
// @Accept json
// @Produce json
// @Param body body courseService.CreateCustomerRequest true "客户信息"
// @Success 200 {object} response.Response{data=models.Customer}
// @Router /api/v1/customers [post]
func (h *Handler) CreateCustomer(c *gin.Context) {
	var req courseService.CreateCustomerRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	customer, err := h.courseService.CreateCustomer(c.Request.Context(), &req)
	handler.MustSucceed(c, err, customer)
}

// ListCustomers 客户列表
// @Summary 客户列表
// @Tags 客户
// @Produce json
// @Param keyword query string false "姓名或手机号"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/customers [get]
func (h *Handler) ListCustomers(c *gin.Context) {
	p := handler.BindPagination(c)
	customers, total, err := h.courseService.ListCustomers(c.Request.Context(), c.Query("keyword"), p.GetOffset(), p.GetLimit())
	handler.MustSucceedPage(c, err, customers, total, p.Page, p.PageSize)
}

// ListCustomerCourses 客户的全部课程
// @Summary 客户课程
// @Tags 客户
// @Produce json
// @Param id path int true "客户ID"
// @Success 200 {object} response.Response{data=[]models.Course}
// @Router /api/v1/customers/{id}/courses [get]
func (h *Handler) ListCustomerCourses(c *gin.Context) {
	id, ok := handler.ParseID(c, "客户")
	if !ok {
		return
	}
	courses, err := h.courseService.ListByCustomer(c.Request.Context(), id)
	handler.MustSucceed(c, err, courses)
}

// CreateCourse 录入课程
// @Summary 录入课程
// @Tags 课程
// @Accept json
// @Produce json
// @Param body body courseService.CreateCourseRequest true "课程信息"
// @Success 200 {object} response.Response{data=models.Course}
// @Router /api/v1/courses [post]
func (h *Handler) CreateCourse(c *gin.Context) {
	var req courseService.CreateCourseRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	course, err := h.courseService.CreateCourse(c.Request.Context(), &req)
	handler.MustSucceed(c, err, course)
}

// ListCourses 课程列表
// @Summary 课程列表
// @Tags 课程
// @Produce json
// @Param customer_id query int false "客户ID"
// @Param employee_id query int false "员工ID"
// @Param kind query string false "trial/new_course/renewal/refund"
// @Param trial_status query string false "体验课状态"
// @Param start_date query string false "开始日期"
// @Param end_date query string false "结束日期（含）"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/courses [get]
func (h *Handler) ListCourses(c *gin.Context) {
	p := handler.BindPagination(c)
	customerID, ok := handler.ParseQueryID(c, "customer_id", "客户")
	if !ok {
		return
	}
	employeeID, ok := handler.ParseQueryID(c, "employee_id", "员工")
	if !ok {
		return
	}
	start, end, ok := handler.ParseQueryDateRange(c)
	if !ok {
		return
	}
	if end != nil {
		next := end.AddDate(0, 0, 1)
		end = &next
	}

	filter := &repository.CourseFilter{
		CustomerID:  customerID,
		EmployeeID:  employeeID,
		Kind:        c.Query("kind"),
		TrialStatus: c.Query("trial_status"),
		Start:       start,
		End:         end,
	}
	courses, total, err := h.courseService.ListCourses(c.Request.Context(), filter, p.GetOffset(), p.GetLimit())
	handler.MustSucceedPage(c, err, courses, total, p.Page, p.PageSize)
}

// ConvertTrial 体验课转正
// @Summary 体验课转正
// @Tags 课程
// @Accept json
// @Produce json
// @Param id path int true "体验课ID"
// @Param body body courseService.CreateCourseRequest true "正式课信息"
// @Success 200 {object} response.Response{data=models.Course}
// @Router /api/v1/courses/{id}/convert [post]
func (h *Handler) ConvertTrial(c *gin.Context) {
	id, ok := handler.ParseID(c, "课程")
	if !ok {
		return
	}
	var req courseService.CreateCourseRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	formal, err := h.courseService.ConvertTrial(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, formal)
}

// RefundTrial 体验课退款
// @Summary 体验课退款
// @Tags 课程
// @Accept json
// @Produce json
// @Param id path int true "体验课ID"
// @Param body body courseService.RefundTrialRequest true "退款信息"
// @Success 200 {object} response.Response{data=models.Course}
// @Router /api/v1/courses/{id}/trial-refund [post]
func (h *Handler) RefundTrial(c *gin.Context) {
	id, ok := handler.ParseID(c, "课程")
	if !ok {
		return
	}
	var req courseService.RefundTrialRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	trial, err := h.courseService.RefundTrial(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, trial)
}

// MarkTrialLost 体验课流失
// @Summary 体验课流失
// @Tags 课程
// @Produce json
// @Param id path int true "体验课ID"
// @Success 200 {object} response.Response{data=models.Course}
// @Router /api/v1/courses/{id}/lost [post]
func (h *Handler) MarkTrialLost(c *gin.Context) {
	id, ok := handler.ParseID(c, "课程")
	if !ok {
		return
	}
	trial, err := h.courseService.MarkTrialLost(c.Request.Context(), id)
	handler.MustSucceed(c, err, trial)
}

// CreateRefund 正式课退款
// @Summary 正式课退款
// @Tags 课程
// @Accept json
// @Produce json
// @Param id path int true "原课程ID"
// @Param body body courseService.CreateRefundRequest true "退款信息"
// @Success 200 {object} response.Response{data=models.Course}
// @Router /api/v1/courses/{id}/refund [post]
func (h *Handler) CreateRefund(c *gin.Context) {
	id, ok := handler.ParseID(c, "课程")
	if !ok {
		return
	}
	var req courseService.CreateRefundRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	refund, err := h.courseService.CreateRefund(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, refund)
}

// AssignEmployeeRequest 分配员工请求，employee_id 为空表示取消分配
type AssignEmployeeRequest struct {
	EmployeeID *int64 `json:"employee_id"`
}

// AssignEmployee 分配负责员工
// @Summary 分配负责员工
// @Tags 课程
// @Accept json
// @Produce json
// @Param id path int true "课程ID"
// @Param body body AssignEmployeeRequest true "员工"
// @Success 200 {object} response.Response{data=models.Course}
// @Router /api/v1/courses/{id}/assignee [put]
func (h *Handler) AssignEmployee(c *gin.Context) {
	id, ok := handler.ParseID(c, "课程")
	if !ok {
		return
	}
	var req AssignEmployeeRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	course, err := h.courseService.AssignEmployee(c.Request.Context(), id, req.EmployeeID)
	handler.MustSucceed(c, err, course)
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	customers := r.Group("/customers")
	{
		customers.POST("", h.CreateCustomer)
		customers.GET("", h.ListCustomers)
		customers.GET("/:id/courses", h.ListCustomerCourses)
	}

	courses := r.Group("/courses")
	{
		courses.POST("", h.CreateCourse)
		courses.GET("", h.ListCourses)
		courses.POST("/:id/convert", h.ConvertTrial)
		courses.POST("/:id/trial-refund", h.RefundTrial)
		courses.POST("/:id/lost", h.MarkTrialLost)
		courses.POST("/:id/refund", h.CreateRefund)
		courses.PUT("/:id/assignee", h.AssignEmployee)
	}
}
