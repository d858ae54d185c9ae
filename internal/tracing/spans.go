package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// StartScrapeSpan creates a child span for one full scrape/index
// pipeline run, keyed by the triggering event kind.
func StartScrapeSpan(ctx context.Context, eventKind string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "scrape."+eventKind,
		trace.WithAttributes(attribute.String("scrape.event_kind", eventKind)),
	)
}

// StartStageSpan creates a child span for a single pipeline stage
// execution.
func StartStageSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "stage."+name,
		trace.WithAttributes(attribute.String("stage.name", name)),
	)
}

// SetScrapeEventAttributes adds the triggering event's attributes to the
// current span.
func SetScrapeEventAttributes(ctx context.Context, packageName, eventKind string) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("scrape.package_name", packageName),
		attribute.String("scrape.event_kind", eventKind),
	)
}

// SetScrapeResultAttributes adds the pipeline run's outcome attributes
// to the current span.
func SetScrapeResultAttributes(ctx context.Context, screenHash string, elementCount, commandsAdded, commandsRemoved int, discarded bool) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("scrape.screen_hash", screenHash),
		attribute.Int("scrape.element_count", elementCount),
		attribute.Int("scrape.commands_added", commandsAdded),
		attribute.Int("scrape.commands_removed", commandsRemoved),
		attribute.Bool("scrape.discarded", discarded),
	)
}

// RecordError records an error on the current span.
func RecordError(ctx context.Context, err error) {
	if err != nil {
		trace.SpanFromContext(ctx).RecordError(err)
	}
}
