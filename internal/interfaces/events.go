package interfaces

import "github.com/ternarybob/elo/internal/models"

// EventPublisher receives pipeline stage events for live monitoring.
// Publishing must never block the pipeline; implementations drop events
// when no consumer keeps up.
type EventPublisher interface {
	Publish(event models.PipelineEvent)
}
