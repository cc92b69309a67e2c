// Package metrics 提供 Prometheus helper，覆盖订单生命周期与结算耗时指标
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wyfcoding/orderexec/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal prometheus.Counter
	// HTTP 请求耗时
	HTTPRequestDuration prometheus.Histogram

	// 提交的订单数（按订单类型）
	OrdersSubmitted *prometheus.CounterVec
	// 取消的订单数
	OrdersCancelled prometheus.Counter
	// 成功执行的订单数（按订单类型）
	OrdersExecuted *prometheus.CounterVec
	// 执行失败数（按失败原因）
	ExecutionFailures *prometheus.CounterVec
	// 单次执行（含两腿结算）耗时
	SettlementDuration prometheus.Histogram
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "orderexec",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "orderexec",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		OrdersSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orderexec",
			Subsystem: serviceName,
			Name:      "orders_submitted_total",
			Help:      "Total orders submitted",
		}, []string{"kind"}),
		OrdersCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "orderexec",
			Subsystem: serviceName,
			Name:      "orders_cancelled_total",
			Help:      "Total orders cancelled",
		}),
		OrdersExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orderexec",
			Subsystem: serviceName,
			Name:      "orders_executed_total",
			Help:      "Total orders executed successfully",
		}, []string{"kind"}),
		ExecutionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "orderexec",
			Subsystem: serviceName,
			Name:      "execution_failures_total",
			Help:      "Total failed execution attempts",
		}, []string{"reason"}),
		SettlementDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "orderexec",
			Subsystem: serviceName,
			Name:      "settlement_duration_seconds",
			Help:      "End to end execution duration including both settlement legs",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register() error {
	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.OrdersSubmitted,
		m.OrdersCancelled,
		m.OrdersExecuted,
		m.ExecutionFailures,
		m.SettlementDuration,
	}

	for _, collector := range collectors {
		if err := prometheus.DefaultRegisterer.Register(collector); err != nil {
			logger.Error(context.Background(), "Failed to register metric", "error", err)
			return err
		}
	}

	logger.Info(context.Background(), "Metrics registered successfully")
	return nil
}

// StartHTTPServer 启动 Prometheus HTTP 服务器
func StartHTTPServer(port int, path string) {
	if path == "" {
		path = "/metrics"
	}

	http.Handle(path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info(context.Background(), "Starting Prometheus HTTP server", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			logger.Error(context.Background(), "Prometheus HTTP server stopped", "error", err)
		}
	}()
}
