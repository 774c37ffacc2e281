// Package queue defines message payloads exchanged over the message broker
// and the RabbitMQ publisher and consumer that carry them.
package queue

// RecipeQueueName is the durable queue recipe events are routed to.
const RecipeQueueName = "recipe.events"

// Recipe event actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// RecipeEvent is published after a recipe is created, updated or deleted.
// It carries enough for downstream consumers to log or index the change
// without querying the primary database.
type RecipeEvent struct {
	Action        string   `json:"action"`
	RecipeID      uint64   `json:"recipe_id"`
	UserID        uint64   `json:"user_id"`
	Title         string   `json:"title,omitempty"`
	TimeMinutes   int      `json:"time_minutes,omitempty"`
	Price         string   `json:"price,omitempty"`
	TagIDs        []uint64 `json:"tags,omitempty"`
	IngredientIDs []uint64 `json:"ingredients,omitempty"`
	OccurredAt    string   `json:"occurred_at"`
}
