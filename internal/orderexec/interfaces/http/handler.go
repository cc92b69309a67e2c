package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/orderexec/internal/orderexec/application"
	"github.com/wyfcoding/orderexec/internal/orderexec/domain"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"
)

// OrderHandler HTTP 处理器
// 负责处理订单提交、取消、执行与查询的 HTTP 请求
type OrderHandler struct {
	svc *application.OrderExecutionService
}

// 创建 HTTP 处理器实例
func NewOrderHandler(svc *application.OrderExecutionService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// 注册路由
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/orders")
	{
		api.POST("", h.SubmitOrder)              // 提交订单
		api.DELETE("/:id", h.CancelOrder)        // 取消订单
		api.POST("/:id/execute", h.ExecuteOrder) // 执行订单
		api.GET("/:id", h.GetOrder)              // 获取订单详情
		api.GET("", h.ListOrders)                // 按 Owner 列出订单
	}
}

// SubmitOrderRequest 提交订单请求
type SubmitOrderRequest struct {
	Caller     string `json:"caller" binding:"required"`
	Kind       string `json:"kind" binding:"required"`
	Owner      string `json:"owner" binding:"required"`
	ManagerRef string `json:"manager_ref" binding:"required"`
	AccountRef string `json:"account_ref" binding:"required"`
	TokenIn    string `json:"token_in" binding:"required"`
	TokenOut   string `json:"token_out" binding:"required"`

	// 限价单字段
	AmountIn     string `json:"amount_in"`
	LimitPrice   string `json:"limit_price"`
	TriggerPrice string `json:"trigger_price"`
	Deadline     string `json:"deadline"`

	// 定投单字段
	AmountPerInterval string `json:"amount_per_interval"`
	IntervalSeconds   int64  `json:"interval_seconds"`
	Executions        int    `json:"executions"`
	FirstExecution    string `json:"first_execution"`
}

// SubmitOrder 提交订单
func (h *OrderHandler) SubmitOrder(c *gin.Context) {
	var req SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	var orderID uint64
	var err error

	switch domain.OrderKind(req.Kind) {
	case domain.OrderKindLimitSell:
		var cmd application.SubmitLimitOrderCommand
		cmd, err = buildLimitCommand(req)
		if err != nil {
			response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
			return
		}
		orderID, err = h.svc.SubmitLimitOrder(c.Request.Context(), cmd)
	case domain.OrderKindDCABuy:
		var cmd application.SubmitDCAOrderCommand
		cmd, err = buildDCACommand(req)
		if err != nil {
			response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
			return
		}
		orderID, err = h.svc.SubmitDCAOrder(c.Request.Context(), cmd)
	default:
		response.ErrorWithStatus(c, http.StatusBadRequest, "unknown order kind", "")
		return
	}

	if err != nil {
		logging.Error(c.Request.Context(), "Failed to submit order", "kind", req.Kind, "error", err)
		response.ErrorWithStatus(c, statusOf(err), err.Error(), "")
		return
	}

	response.Success(c, gin.H{"order_id": orderID})
}

// CancelOrderRequest 取消订单请求
type CancelOrderRequest struct {
	Caller string `json:"caller" binding:"required"`
}

// CancelOrder 取消订单
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	if err := h.svc.CancelOrder(c.Request.Context(), orderID, req.Caller); err != nil {
		logging.Error(c.Request.Context(), "Failed to cancel order", "order_id", orderID, "error", err)
		response.ErrorWithStatus(c, statusOf(err), err.Error(), "")
		return
	}

	response.Success(c, gin.H{"status": "cancelled", "order_id": orderID})
}

// ExecuteOrderRequest 执行订单请求
type ExecuteOrderRequest struct {
	Executor string `json:"executor" binding:"required"`
}

// ExecuteOrder 执行订单；任何执行人都可以发起，资格检查由应用层完成
func (h *OrderHandler) ExecuteOrder(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req ExecuteOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	if err := h.svc.ExecuteOrder(c.Request.Context(), orderID, req.Executor); err != nil {
		logging.Error(c.Request.Context(), "Failed to execute order", "order_id", orderID, "executor", req.Executor, "error", err)
		response.ErrorWithStatus(c, statusOf(err), err.Error(), "")
		return
	}

	response.Success(c, gin.H{"status": "executed", "order_id": orderID})
}

// GetOrder 获取订单；不存在的槽位返回全零记录
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	dto, err := h.svc.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to get order", "order_id", orderID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, dto)
}

// ListOrders 按 Owner 分页列出订单
func (h *OrderHandler) ListOrders(c *gin.Context) {
	owner := c.Query("owner")
	if owner == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "owner is required", "")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	orders, total, err := h.svc.ListOrders(c.Request.Context(), owner, limit, offset)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to list orders", "owner", owner, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}

	response.Success(c, gin.H{"orders": orders, "total": total})
}

func parseOrderID(c *gin.Context) (uint64, bool) {
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid order id", "")
		return 0, false
	}
	return orderID, true
}

func buildLimitCommand(req SubmitOrderRequest) (application.SubmitLimitOrderCommand, error) {
	amountIn, err := decimal.NewFromString(req.AmountIn)
	if err != nil {
		return application.SubmitLimitOrderCommand{}, err
	}
	limitPrice, err := decimal.NewFromString(req.LimitPrice)
	if err != nil {
		return application.SubmitLimitOrderCommand{}, err
	}
	triggerPrice := decimal.Zero
	if req.TriggerPrice != "" {
		if triggerPrice, err = decimal.NewFromString(req.TriggerPrice); err != nil {
			return application.SubmitLimitOrderCommand{}, err
		}
	}
	var deadline time.Time
	if req.Deadline != "" {
		if deadline, err = time.Parse(time.RFC3339, req.Deadline); err != nil {
			return application.SubmitLimitOrderCommand{}, err
		}
	}

	return application.SubmitLimitOrderCommand{
		Caller:       req.Caller,
		Owner:        req.Owner,
		ManagerRef:   req.ManagerRef,
		AccountRef:   req.AccountRef,
		TokenIn:      req.TokenIn,
		TokenOut:     req.TokenOut,
		AmountIn:     amountIn,
		LimitPrice:   limitPrice,
		TriggerPrice: triggerPrice,
		Deadline:     deadline,
	}, nil
}

func buildDCACommand(req SubmitOrderRequest) (application.SubmitDCAOrderCommand, error) {
	amount, err := decimal.NewFromString(req.AmountPerInterval)
	if err != nil {
		return application.SubmitDCAOrderCommand{}, err
	}
	firstExecution := time.Now()
	if req.FirstExecution != "" {
		if firstExecution, err = time.Parse(time.RFC3339, req.FirstExecution); err != nil {
			return application.SubmitDCAOrderCommand{}, err
		}
	}

	return application.SubmitDCAOrderCommand{
		Caller:            req.Caller,
		Owner:             req.Owner,
		ManagerRef:        req.ManagerRef,
		AccountRef:        req.AccountRef,
		TokenIn:           req.TokenIn,
		TokenOut:          req.TokenOut,
		AmountPerInterval: amount,
		Interval:          time.Duration(req.IntervalSeconds) * time.Second,
		Executions:        req.Executions,
		FirstExecution:    firstExecution,
	}, nil
}

// statusOf 把领域错误映射到 HTTP 状态码
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrCallerNotBorrower):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrOrderCancelled),
		errors.Is(err, domain.ErrNoExecutionsLeft),
		errors.Is(err, domain.ErrNotTimeYet),
		errors.Is(err, domain.ErrOrderExpired),
		errors.Is(err, domain.ErrNotTriggered),
		errors.Is(err, domain.ErrBorrowerChanged),
		errors.Is(err, domain.ErrNothingToSell):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidOrder):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
