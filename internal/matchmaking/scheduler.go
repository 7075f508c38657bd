package matchmaking

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	log "github.com/sirupsen/logrus"
)

// StartScheduler runs m.Tick every interval. A tick still running when the next is due is skipped.
func StartScheduler(m *Matchmaker, interval, timeout time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			if _, err := m.Tick(ctx); err != nil {
				log.Errorf("[Scheduler] queue tick failed: %s", err)
			}
		}),
		gocron.WithName("x01-queue"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}

	sched.Start()
	return sched, nil
}
