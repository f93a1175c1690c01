package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrdersCreatedTotal counts finalized orders by order type.
	OrdersCreatedTotal *prometheus.CounterVec
	// OrderStatusTransitions counts lifecycle transitions by target status.
	OrderStatusTransitions *prometheus.CounterVec
	// StockTransactionsTotal counts ledger appends by transaction type.
	StockTransactionsTotal *prometheus.CounterVec
	// PurchaseLinesSkipped counts purchase lines dropped for unknown inventory items.
	PurchaseLinesSkipped prometheus.Counter
	// LowStockItems tracks the current number of items at or below threshold.
	LowStockItems prometheus.Gauge
	// DeductionTasksTotal counts recipe deduction task outcomes.
	DeductionTasksTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrdersCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Count of finalized orders by order type.",
		}, []string{"order_type"})
		OrderStatusTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_transitions_total",
			Help:      "Count of order status transitions by target status.",
		}, []string{"status"})
		StockTransactionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_transactions_total",
			Help:      "Count of stock ledger appends by transaction type.",
		}, []string{"type"})
		PurchaseLinesSkipped = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purchase_lines_skipped_total",
			Help:      "Purchase lines skipped because the inventory item was unknown.",
		})
		LowStockItems = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "low_stock_items",
			Help:      "Number of inventory items at or below their threshold.",
		})
		DeductionTasksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deduction_tasks_total",
			Help:      "Recipe-based sale deduction task outcomes.",
		}, []string{"result"})

		mustRegisterCollector(reg, OrdersCreatedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrdersCreatedTotal = v
			}
		})
		mustRegisterCollector(reg, OrderStatusTransitions, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrderStatusTransitions = v
			}
		})
		mustRegisterCollector(reg, StockTransactionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				StockTransactionsTotal = v
			}
		})
		mustRegisterCollector(reg, PurchaseLinesSkipped, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				PurchaseLinesSkipped = v
			}
		})
		mustRegisterCollector(reg, LowStockItems, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Gauge); ok {
				LowStockItems = v
			}
		})
		mustRegisterCollector(reg, DeductionTasksTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				DeductionTasksTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
