package event

import (
	"context"
	"log/slog"
)

// LogPublisher stands in when no broker is configured. Events are logged and dropped.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With("component", "LogPublisher")}
}

func (p *LogPublisher) log(ctx context.Context, routingKey string, event any) error {
	p.logger.InfoContext(ctx, "Event not published, broker disabled", "routingKey", routingKey, "event", event)
	return nil
}

func (p *LogPublisher) PublishCustomerCreated(ctx context.Context, event CustomerCreatedEvent) error {
	return p.log(ctx, RoutingKeyCustomerCreated, event)
}

func (p *LogPublisher) PublishCustomerDeleted(ctx context.Context, event CustomerDeletedEvent) error {
	return p.log(ctx, RoutingKeyCustomerDeleted, event)
}

func (p *LogPublisher) PublishLoanCreated(ctx context.Context, event LoanCreatedEvent) error {
	return p.log(ctx, RoutingKeyLoanCreated, event)
}

func (p *LogPublisher) PublishCollectionRecorded(ctx context.Context, event CollectionRecordedEvent) error {
	return p.log(ctx, RoutingKeyCollectionRecorded, event)
}

func (p *LogPublisher) PublishLoanClosed(ctx context.Context, event LoanClosedEvent) error {
	return p.log(ctx, RoutingKeyLoanClosed, event)
}

func (p *LogPublisher) PublishLoanPreClosed(ctx context.Context, event LoanClosedEvent) error {
	return p.log(ctx, RoutingKeyLoanPreClosed, event)
}

func (p *LogPublisher) PublishLoanOverdue(ctx context.Context, event LoanOverdueEvent) error {
	return p.log(ctx, RoutingKeyLoanOverdue, event)
}

var _ EventPublisher = (*LogPublisher)(nil)
