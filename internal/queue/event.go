// Package queue defines message payloads exchanged over the message broker
// and the background consumer that turns them into an audit trail.
package queue

// CatalogChangedEvent is published after every successful write to the
// movie or category tables. It carries enough information for downstream
// consumers to audit or invalidate caches without querying the database.
type CatalogChangedEvent struct {
	Entity     string `json:"entity"` // "movie" or "category"
	Action     string `json:"action"` // "created", "updated" or "deleted"
	EntityID   uint64 `json:"entity_id"`
	Name       string `json:"name"`
	OccurredAt string `json:"occurred_at"`
}

// CatalogQueueName is the durable queue catalog events travel through.
const CatalogQueueName = "catalog.changed"
