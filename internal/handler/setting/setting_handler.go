// Package setting 提供业务配置的 HTTP Handler
package setting

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/tutor-finance-backend/internal/common/handler"
	settingService "github.com/dumeirei/tutor-finance-backend/internal/service/setting"
)

// Handler 配置处理器
type Handler struct {
	settingService *settingService.Service
}

// NewHandler 创建配置处理器
func NewHandler(settingSvc *settingService.Service) *Handler {
	return &Handler{settingService: settingSvc}
}

// GetSettings 获取全部配置
// @Summary 获取业务配置
// @Tags 配置
// @Produce json
// @Success 200 {object} response.Response{data=map[string]string}
// @Router /api/v1/settings [get]
func (h *Handler) GetSettings(c *gin.Context) {
	values, err := h.settingService.GetAll(c.Request.Context())
	handler.MustSucceed(c, err, values)
}

// UpdateSettings 批量更新配置，整体校验通过才写入
// @Summary 更新业务配置
// @Tags 配置
// @Accept json
// @Produce json
// @Param body body map[string]string true "配置键值"
// @Success 200 {object} response.Response{data=map[string]string}
// @Router /api/v1/settings [put]
func (h *Handler) UpdateSettings(c *gin.Context) {
	var values map[string]string
	if !handler.BindJSON(c, &values) {
		return
	}
	merged, err := h.settingService.Update(c.Request.Context(), values)
	handler.MustSucceed(c, err, merged)
}

// GetProducts 可刷单商品列表
// @Summary 刷单商品列表
// @Tags 配置
// @Produce json
// @Success 200 {object} response.Response{data=[]string}
// @Router /api/v1/settings/products [get]
func (h *Handler) GetProducts(c *gin.Context) {
	products, err := h.settingService.Products(c.Request.Context())
	handler.MustSucceed(c, err, products)
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	settings := r.Group("/settings")
	{
		settings.GET("", h.GetSettings)
		settings.PUT("", h.UpdateSettings)
		settings.GET("/products", h.GetProducts)
	}
}
