package processors

import (
	"context"
	"errors"

	"blisse/internal/enrich"
	"blisse/internal/events"
	"blisse/internal/logger"
	"blisse/internal/services/ai"
)

// EventProcessor reacts to product events. A freshly synced product gets a
// single-product text enrichment attempt.
type EventProcessor struct {
	pipeline *enrich.Pipeline
	logger   *logger.Logger
}

func NewEventProcessor(pipeline *enrich.Pipeline, log *logger.Logger) *EventProcessor {
	return &EventProcessor{pipeline: pipeline, logger: log}
}

func (p *EventProcessor) Process(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.TypeProductSynced:
		return p.handleProductSynced(ctx, event)
	default:
		p.logger.Debug("Ignoring event type: %s", event.Type)
		return nil
	}
}

func (p *EventProcessor) handleProductSynced(ctx context.Context, event events.Event) error {
	report, err := p.pipeline.EnrichOne(ctx, event.ProductID, "")
	if err != nil {
		if errors.Is(err, ai.ErrRateLimited) {
			p.logger.Info("AI rate limited, pausing before next event")
			p.pipeline.WaitCooldown()
			return nil
		}
		if errors.Is(err, enrich.ErrProductNotFound) {
			p.logger.Error("Product %d not found locally, skipping", event.ProductID)
			return nil
		}
		return err
	}

	p.logger.Info("Enriched %s: %s", report.ProductName, report.Message)
	return nil
}
