// Package opcost 提供运营成本的 HTTP Handler
package opcost

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/tutor-finance-backend/internal/common/handler"
	financeHandler "github.com/dumeirei/tutor-finance-backend/internal/handler/finance"
	opcostService "github.com/dumeirei/tutor-finance-backend/internal/service/opcost"
)

// Handler 运营成本处理器
type Handler struct {
	opcostService *opcostService.Service
}

// NewHandler 创建运营成本处理器
func NewHandler(opcostSvc *opcostService.Service) *Handler {
	return &Handler{opcostService: opcostSvc}
}

// CreateCost 创建运营成本
// @Summary 创建运营成本
// @Tags 运营成本
// @Accept json
// @Produce json
// @Param body body opcostService.CreateRequest true "成本信息"
// @Success 200 {object} response.Response{data=models.OperationalCost}
// @Router /api/v1/operational-costs [post]
func (h *Handler) CreateCost(c *gin.Context) {
	var req opcostService.CreateRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	cost, err := h.opcostService.Create(c.Request.Context(), &req)
	handler.MustSucceed(c, err, cost)
}

// ListCosts 统计区间内的运营成本
// @Summary 运营成本列表
// @Tags 运营成本
// @Produce json
// @Param allocable query bool false "只看参与分摊的记录"
// @Success 200 {object} response.Response{data=[]models.OperationalCost}
// @Router /api/v1/operational-costs [get]
func (h *Handler) ListCosts(c *gin.Context) {
	period, ok := financeHandler.ParsePeriod(c)
	if !ok {
		return
	}
	costs, err := h.opcostService.List(c.Request.Context(), period, c.Query("allocable") == "true")
	handler.MustSucceed(c, err, costs)
}

// ArchiveCost 归档运营成本
// @Summary 归档运营成本
// @Tags 运营成本
// @Produce json
// @Param id path int true "运营成本ID"
// @Success 200 {object} response.Response{data=models.OperationalCost}
// @Router /api/v1/operational-costs/{id}/archive [post]
func (h *Handler) ArchiveCost(c *gin.Context) {
	id, ok := handler.ParseID(c, "运营成本")
	if !ok {
		return
	}
	cost, err := h.opcostService.Archive(c.Request.Context(), id)
	handler.MustSucceed(c, err, cost)
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	costs := r.Group("/operational-costs")
	{
		costs.POST("", h.CreateCost)
		costs.GET("", h.ListCosts)
		costs.POST("/:id/archive", h.ArchiveCost)
	}
}
