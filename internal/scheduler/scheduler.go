package scheduler

import (
	"time"

	"github.com/go-co-op/gocron"

	"github.com/Colorata/WeatherComposePoc/internal/logging"
)

const logTag = "scheduler"

// Refresher is refreshed on every tick.
type Refresher interface {
	// RefreshWeather reports whether a refresh was actually issued.
	RefreshWeather() bool
}

// Scheduler periodically refreshes the weather screen.
type Scheduler struct {
	scheduler *gocron.Scheduler
	target    Refresher
	interval  time.Duration
	logger    logging.Logger
}

// New creates a new Scheduler. A non-positive interval disables it.
func New(interval time.Duration, target Refresher, logger logging.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		target:    target,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info(logTag, "auto refresh disabled")
		return nil
	}

	// The first fetch comes from mounting the screen, not from the job.
	_, err := s.scheduler.Every(s.interval).WaitForSchedule().SingletonMode().Do(s.tick)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info(logTag, "auto refresh every "+s.interval.String())
	return nil
}

func (s *Scheduler) tick() {
	if s.target.RefreshWeather() {
		s.logger.Debug(logTag, "refresh issued")
		return
	}
	s.logger.Debug(logTag, "screen not mounted; skipping refresh")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
