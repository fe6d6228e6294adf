// Package padding 提供刷单记录的 HTTP Handler
package padding

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/tutor-finance-backend/internal/common/handler"
	financeHandler "github.com/dumeirei/tutor-finance-backend/internal/handler/finance"
	paddingService "github.com/dumeirei/tutor-finance-backend/internal/service/padding"
)

// Handler 刷单处理器
type Handler struct {
	paddingService *paddingService.Service
}

// NewHandler 创建刷单处理器
func NewHandler(paddingSvc *paddingService.Service) *Handler {
	return &Handler{paddingService: paddingSvc}
}

// CreateOrder 创建刷单记录
// @Summary 创建刷单记录
// @Tags 刷单
// @Accept json
// @Produce json
// @Param body body paddingService.CreateRequest true "刷单信息"
// @Success 200 {object} response.Response{data=models.PaddingOrder}
// @Router /api/v1/padding-orders [post]
func (h *Handler) CreateOrder(c *gin.Context) {
	var req paddingService.CreateRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	order, err := h.paddingService.Create(c.Request.Context(), &req)
	handler.MustSucceed(c, err, order)
}

// ListOrders 统计区间内的刷单记录
// @Summary 刷单记录列表
// @Tags 刷单
// @Produce json
// @Success 200 {object} response.Response{data=[]models.PaddingOrder}
// @Router /api/v1/padding-orders [get]
func (h *Handler) ListOrders(c *gin.Context) {
	period, ok := financeHandler.ParsePeriod(c)
	if !ok {
		return
	}
	orders, err := h.paddingService.List(c.Request.Context(), period)
	handler.MustSucceed(c, err, orders)
}

// MarkEvaluated 标记已评价
// @Summary 标记已评价
// @Tags 刷单
// @Produce json
// @Param id path int true "刷单记录ID"
// @Success 200 {object} response.Response{data=models.PaddingOrder}
// @Router /api/v1/padding-orders/{id}/evaluate [post]
func (h *Handler) MarkEvaluated(c *gin.Context) {
	id, ok := handler.ParseID(c, "刷单记录")
	if !ok {
		return
	}
	order, err := h.paddingService.MarkEvaluated(c.Request.Context(), id)
	handler.MustSucceed(c, err, order)
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	orders := r.Group("/padding-orders")
	{
		orders.POST("", h.CreateOrder)
		orders.GET("", h.ListOrders)
		orders.POST("/:id/evaluate", h.MarkEvaluated)
	}
}
