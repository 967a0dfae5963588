package consumer

import (
	"context"
	"encoding/json"

	"go-payroll/internal/events"
	"go-payroll/internal/job"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

func ConsumeJobQueued(
	ctx context.Context,
	reader *kafkago.Reader,
	runner *job.Runner,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.job_queued")
	log.Info("job queued consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("job queued consumer stopped")
				return
			}
			log.Error("fetch job queued message failed", zap.Error(err))
			continue
		}

		var event events.JobQueuedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode job_queued event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err := runner.Process(ctx, event.JobID); err != nil {
			// Leave uncommitted so the delivery retries; the runner's claim
			// keeps a retry from double-executing.
			log.Error("process job failed",
				zap.String("job_id", event.JobID),
				zap.String("job_type", event.JobType),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit job queued message failed", zap.Error(err))
			continue
		}

		log.Info("job processed",
			zap.String("job_id", event.JobID),
			zap.String("job_type", event.JobType),
		)
	}
}
