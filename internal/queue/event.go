// Package queue defines the drink lifecycle events exchanged over RabbitMQ
// together with their publisher and the audit-log consumer.
package queue

import "fmt"

// DrinksQueue is the durable queue carrying DrinkEvent messages.
const DrinksQueue = "drinks.events"

// Event types.
const (
	DrinkCreated = "drink.created"
	DrinkUpdated = "drink.updated"
	DrinkDeleted = "drink.deleted"
)

// DrinkEvent is published after a successful write to the drinks table.
type DrinkEvent struct {
	Type       string `json:"type"`
	DrinkID    uint64 `json:"drink_id"`
	Title      string `json:"title"`
	Subject    string `json:"subject,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

// String renders the event as one audit-log line.
func (ev DrinkEvent) String() string {
	subject := ev.Subject
	if subject == "" {
		subject = "-"
	}
	return fmt.Sprintf("[%s] %s | drink_id=%d | title=%q | subject=%s",
		ev.OccurredAt, ev.Type, ev.DrinkID, ev.Title, subject)
}
