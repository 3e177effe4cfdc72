package flows

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/elo/internal/interfaces"
	"github.com/ternarybob/elo/internal/models"
	"github.com/ternarybob/elo/internal/services/intent"
)

// Request is one classified-and-answered unit of work.
type Request struct {
	Message models.NormalizedMessage
	// To is the provider-level recipient (chat id), distinct from the
	// namespaced Message.UserID used for state and caching.
	To   string
	Mode models.DeliveryMode
	// ExtractedContent carries transcribed or downloaded media text
	ExtractedContent string
	CorrelationID    string
}

// Result reports what the dispatcher produced and whether it already
// delivered it. Legislative answers go out inline; for the other flows the
// handler owns delivery.
type Result struct {
	Text      string
	Intent    models.Intent
	Delivered bool
	Cached    bool
}

// Dispatcher routes a normalized message through classification, answering
// and, for the legislative flow, inline delivery.
type Dispatcher struct {
	orchestrator interfaces.AnswerOrchestrator
	delivery     interfaces.DeliveryEngine
	events       interfaces.EventPublisher
	logger       arbor.ILogger
}

// NewDispatcher creates a flow dispatcher
func NewDispatcher(
	orchestrator interfaces.AnswerOrchestrator,
	delivery interfaces.DeliveryEngine,
	events interfaces.EventPublisher,
	logger arbor.ILogger,
) *Dispatcher {
	return &Dispatcher{
		orchestrator: orchestrator,
		delivery:     delivery,
		events:       events,
		logger:       logger,
	}
}

// Dispatch classifies the message, produces an answer and routes it per
// flow. The returned error is non-nil only when an inline delivery failed.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Result, error) {
	resolved := intent.Classify(req.Message)
	flow := resolved.String()

	d.publish(models.PipelineEvent{
		CorrelationID: req.CorrelationID,
		Kind:          models.EventIntentResolved,
		Provider:      req.Message.Provider,
		UserID:        req.Message.UserID,
		Flow:          flow,
	})

	answer := d.orchestrator.Answer(ctx, interfaces.AnswerRequest{
		UserID:           req.Message.UserID,
		Flow:             flow,
		Text:             req.Message.Text,
		MediaURL:         req.Message.MediaURL,
		ExtractedContent: req.ExtractedContent,
	})

	d.publish(models.PipelineEvent{
		CorrelationID: req.CorrelationID,
		Kind:          models.EventAnswerProduced,
		Provider:      req.Message.Provider,
		UserID:        req.Message.UserID,
		Flow:          flow,
		Detail:        fmt.Sprintf("cached=%t success=%t", answer.Cached, answer.Success),
	})

	result := Result{Text: answer.Text, Intent: resolved, Cached: answer.Cached}

	switch resolved {
	case models.IntentLegislative:
		if _, err := d.delivery.Deliver(ctx, req.Message.Provider, req.To, answer.Text, req.Mode); err != nil {
			d.publish(models.PipelineEvent{
				CorrelationID: req.CorrelationID,
				Kind:          models.EventDeliveryFailed,
				Provider:      req.Message.Provider,
				UserID:        req.Message.UserID,
				Flow:          flow,
				Detail:        err.Error(),
			})
			return result, err
		}
		result.Delivered = true
		d.publish(models.PipelineEvent{
			CorrelationID: req.CorrelationID,
			Kind:          models.EventDeliveryDone,
			Provider:      req.Message.Provider,
			UserID:        req.Message.UserID,
			Flow:          flow,
		})
		return result, nil

	case models.IntentCivic, models.IntentOracle:
		return result, nil

	default:
		return result, fmt.Errorf("unhandled flow %q", flow)
	}
}

func (d *Dispatcher) publish(event models.PipelineEvent) {
	if d.events == nil {
		return
	}
	event.Timestamp = time.Now()
	d.events.Publish(event)
}
