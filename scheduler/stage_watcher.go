package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Dosada05/prode/events"
	"github.com/Dosada05/prode/live"
	"github.com/Dosada05/prode/models"
	"github.com/robfig/cron/v3"
)

type StageLister interface {
	ListClosedBetween(ctx context.Context, from, to time.Time) ([]models.Stage, error)
}

type Broadcaster interface {
	BroadcastToStage(slug string, msg live.Message)
}

// StageWatcher сообщает о этапах, у которых истек дедлайн с прошлого запуска.
type StageWatcher struct {
	stages      StageLister
	publisher   events.Publisher
	broadcaster Broadcaster
	logger      *slog.Logger

	mu      sync.Mutex
	lastRun time.Time
	now     func() time.Time
}

func NewStageWatcher(stages StageLister, publisher events.Publisher, broadcaster Broadcaster, logger *slog.Logger) *StageWatcher {
	return &StageWatcher{
		stages:      stages,
		publisher:   publisher,
		broadcaster: broadcaster,
		logger:      logger,
		lastRun:     time.Now(),
		now:         time.Now,
	}
}

// RunOnce handles stages whose deadline fell in (lastRun, now].
func (w *StageWatcher) RunOnce(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	closed, err := w.stages.ListClosedBetween(ctx, w.lastRun, now)
	if err != nil {
		return fmt.Errorf("failed to list closed stages: %w", err)
	}

	for _, stage := range closed {
		w.logger.InfoContext(ctx, "stage closed for bets", slog.String("stage", stage.Slug), slog.Time("deadline", stage.Deadline))

		err := w.publisher.Publish(ctx, stage.Slug, events.Event{
			Type:      events.TypeStageClosed,
			StageSlug: stage.Slug,
			Payload:   stage,
		})
		if err != nil {
			w.logger.WarnContext(ctx, "failed to publish stage closed event", slog.String("stage", stage.Slug), slog.Any("error", err))
		}
		if w.broadcaster != nil {
			w.broadcaster.BroadcastToStage(stage.Slug, live.Message{Type: live.TypeStageClosed, Payload: stage})
		}
	}

	w.lastRun = now
	return nil
}

// Start registers the watcher under the cron schedule and starts the scheduler.
// Stop the returned cron on shutdown.
func Start(schedule string, w *StageWatcher, timeout time.Duration) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := w.RunOnce(ctx); err != nil {
			w.logger.Error("stage watcher run failed", slog.Any("error", err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	c.Start()
	w.logger.Info("stage watcher scheduled", slog.String("schedule", schedule))
	return c, nil
}
