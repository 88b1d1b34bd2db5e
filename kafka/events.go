package kafka

import "time"

// ProductChangedEvent announces a catalog mutation to downstream consumers
type ProductChangedEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	ProductID uint      `json:"product_id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// Event types
const (
	EventTypeProductCreated = "product.created"
	EventTypeProductUpdated = "product.updated"
	EventTypeProductDeleted = "product.deleted"
)

// Kafka topics
const (
	TopicProductChanged = "catalog-product-changed"
)
