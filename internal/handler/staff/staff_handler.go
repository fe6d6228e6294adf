// Package staff 提供员工管理的 HTTP Handler
package staff

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/tutor-finance-backend/internal/common/handler"
	staffService "github.com/dumeirei/tutor-finance-backend/internal/service/staff"
)

// Handler 员工处理器
type Handler struct {
	staffService *staffService.Service
}

// NewHandler 创建员工处理器
func NewHandler(staffSvc *staffService.Service) *Handler {
	return &Handler{staffService: staffSvc}
}

// CreateEmployee 创建员工
// @Summary 创建员工
// @Tags 员工
// @Accept json
// @Produce json
// @Param body body staffService.CreateEmployeeRequest true "员工信息"
// @Success 200 {object} response.Response{data=models.Employee}
// @Router /api/v1/employees [post]
func (h *Handler) CreateEmployee(c *gin.Context) {
	var req staffService.CreateEmployeeRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	employee, err := h.staffService.CreateEmployee(c.Request.Context(), &req)
	handler.MustSucceed(c, err, employee)
}

// ListEmployees 员工列表
// @Summary 员工列表
// @Tags 员工
// @Produce json
// @Success 200 {object} response.Response{data=[]models.Employee}
// @Router /api/v1/employees [get]
func (h *Handler) ListEmployees(c *gin.Context) {
	employees, err := h.staffService.ListEmployees(c.Request.Context())
	handler.MustSucceed(c, err, employees)
}

// UpsertCommissionConfig 设置员工提成
// @Summary 设置员工提成
// @Tags 员工
// @Accept json
// @Produce json
// @Param id path int true "员工ID"
// @Param body body staffService.CommissionConfigRequest true "提成配置"
// @Success 200 {object} response.Response{data=models.CommissionConfig}
// @Router /api/v1/employees/{id}/commission-config [put]
func (h *Handler) UpsertCommissionConfig(c *gin.Context) {
	id, ok := handler.ParseID(c, "员工")
	if !ok {
		return
	}
	var req staffService.CommissionConfigRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	cfg, err := h.staffService.UpsertCommissionConfig(c.Request.Context(), id, &req)
	handler.MustSucceed(c, err, cfg)
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	employees := r.Group("/employees")
	{
		employees.POST("", h.CreateEmployee)
		employees.GET("", h.ListEmployees)
		employees.PUT("/:id/commission-config", h.UpsertCommissionConfig)
	}
}
