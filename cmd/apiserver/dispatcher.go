package main

import (
	"context"

	domrun "github.com/rankscope/rankscope/internal/domain/run"
	"github.com/rankscope/rankscope/internal/infrastructure/messaging/kafka"
)

// kafkaDispatcher publishes queued runs to the analysis.requested topic,
// keyed by run ID so per-run events stay ordered.
type kafkaDispatcher struct {
	producer *kafka.Producer
}

func (d *kafkaDispatcher) Dispatch(ctx context.Context, r *domrun.Run) error {
	env, err := kafka.NewEnvelope(kafka.EventAnalysisRequested, "apiserver", kafka.AnalysisRequestedEvent{
		RunID:        r.ID.String(),
		TargetDomain: r.TargetDomain,
		Competitors:  r.Competitors,
		RequestedAt:  r.RequestedAt,
	})
	if err != nil {
		return err
	}
	return d.producer.PublishEvent(ctx, kafka.TopicAnalysisRequested, r.ID.String(), env)
}
