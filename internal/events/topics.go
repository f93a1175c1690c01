package events

// Topic constants for domain events emitted by the POS.
const (
	TopicOrderCreated     = "order.created"
	TopicOrderCompleted   = "order.completed"
	TopicOrderCancelled   = "order.cancelled"
	TopicOrderRefunded    = "order.refunded"
	TopicPurchaseRecorded = "purchase.recorded"
	TopicStockAdjusted    = "stock.adjusted"
	TopicStockLow         = "stock.low"
	TopicExpenseRecorded  = "expense.recorded"
)

// DefaultTopics returns the canonical list of topics that support notifications.
func DefaultTopics() []string {
	return []string{
		TopicOrderCreated,
		TopicOrderCompleted,
		TopicOrderCancelled,
		TopicOrderRefunded,
		TopicPurchaseRecorded,
		TopicStockAdjusted,
		TopicStockLow,
		TopicExpenseRecorded,
	}
}
