package main

import (
	"context"
	"time"

	"github.com/rankscope/rankscope/internal/app"
	domrun "github.com/rankscope/rankscope/internal/domain/run"
	redisdb "github.com/rankscope/rankscope/internal/infrastructure/database/redis"
	"github.com/rankscope/rankscope/internal/infrastructure/messaging/kafka"
	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/pkg/types/common"
)

// executor handles analysis.requested events end to end.
type executor struct {
	core     *app.Core
	producer *kafka.Producer
	logger   logging.Logger
	lockTTL  time.Duration
}

// handleRequested executes one queued run.  Returning an error lets the
// consumer retry and eventually dead-letter the message; an execution failure
// that the orchestrator already recorded on the run is reported via the
// failed topic instead.
func (e *executor) handleRequested(ctx context.Context, env *kafka.EventEnvelope) error {
	var event kafka.AnalysisRequestedEvent
	if err := env.DecodePayload(&event); err != nil {
		return err
	}

	logger := e.logger.With(
		logging.String("run_id", event.RunID),
		logging.String("target", event.TargetDomain))

	lock, err := redisdb.NewLock(e.core.Redis, "run:"+event.TargetDomain, e.lockTTL)
	if err != nil {
		return err
	}
	if err := lock.Acquire(ctx); err != nil {
		// Another worker is analyzing this domain.  The conflict code makes
		// the consumer defer the message on its deferral backoff instead of
		// burning retries and dead-lettering a run that is merely waiting.
		logger.Warn("target domain locked, deferring run", logging.Err(err))
		return err
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("lock release failed", logging.Err(err))
		}
	}()

	start := time.Now()
	r, err := e.core.Orchestrator.Execute(ctx, common.ID(event.RunID))
	if err != nil {
		logger.Error("run execution failed", logging.Err(err))
		e.publishFailed(ctx, event, err)
		e.core.Metrics.ObserveRun(event.TargetDomain, string(domrun.StatusFailed), 0, time.Since(start))
		return nil
	}

	logger.Info("run completed",
		logging.Int("opportunities", r.OpportunityCount),
		logging.Bool("no_gaps_found", r.NoGapsFound),
		logging.Duration("duration", time.Since(start)))
	e.publishCompleted(ctx, r)
	e.core.Metrics.ObserveRun(r.TargetDomain, string(r.Status), r.OpportunityCount, time.Since(start))
	return nil
}

func (e *executor) publishCompleted(ctx context.Context, r *domrun.Run) {
	completedAt := time.Now().UTC()
	if r.CompletedAt != nil {
		completedAt = *r.CompletedAt
	}
	env, err := kafka.NewEnvelope(kafka.EventAnalysisCompleted, "worker", kafka.AnalysisCompletedEvent{
		RunID:            r.ID.String(),
		TargetDomain:     r.TargetDomain,
		OpportunityCount: r.OpportunityCount,
		NoGapsFound:      r.NoGapsFound,
		ReportObjectKey:  r.ReportObjectKey,
		CompletedAt:      completedAt,
	})
	if err == nil {
		err = e.producer.PublishEvent(ctx, kafka.TopicAnalysisCompleted, r.ID.String(), env)
	}
	if err != nil {
		e.logger.Error("failed to publish completion event",
			logging.String("run_id", r.ID.String()),
			logging.Err(err))
	}
}

func (e *executor) publishFailed(ctx context.Context, event kafka.AnalysisRequestedEvent, cause error) {
	env, err := kafka.NewEnvelope(kafka.EventAnalysisFailed, "worker", kafka.AnalysisFailedEvent{
		RunID:        event.RunID,
		TargetDomain: event.TargetDomain,
		Reason:       cause.Error(),
		FailedAt:     time.Now().UTC(),
	})
	if err == nil {
		err = e.producer.PublishEvent(ctx, kafka.TopicAnalysisFailed, event.RunID, env)
	}
	if err != nil {
		e.logger.Error("failed to publish failure event",
			logging.String("run_id", event.RunID),
			logging.Err(err))
	}
}
